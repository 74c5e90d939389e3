package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/term"
)

// LineInput REPL 的行输入：readline 或退化的 bufio
// LineInput reads REPL lines, through readline or a plain bufio fallback
type LineInput interface {
	ReadLine(prompt string) (string, error)
	ReadPassword(prompt string) (string, error)
	// Stdout 在读取输入期间也能安全写入的输出
	// Stdout is safe to write to while a line is being read
	Stdout() io.Writer
	Close() error
}

// ErrInterrupt Ctrl+C 清空当前行 / ErrInterrupt means Ctrl+C cleared the current line
var ErrInterrupt = readline.ErrInterrupt

type basicLineInput struct {
	reader *bufio.Reader
	in     io.Reader
	out    io.Writer
}

func NewBasicLineInput(in io.Reader, out io.Writer) LineInput {
	return &basicLineInput{
		reader: bufio.NewReader(in),
		in:     in,
		out:    out,
	}
}

func (b *basicLineInput) ReadLine(prompt string) (string, error) {
	if b.out != nil {
		fmt.Fprint(b.out, prompt)
	}
	line, err := b.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ReadPassword 终端上关闭回显；管道输入按普通行读取
// ReadPassword disables echo on a terminal; piped input is read as a plain line
func (b *basicLineInput) ReadPassword(prompt string) (string, error) {
	if f, ok := b.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if b.out != nil {
			fmt.Fprint(b.out, prompt)
		}
		pw, err := term.ReadPassword(int(f.Fd()))
		if b.out != nil {
			fmt.Fprintln(b.out)
		}
		return string(pw), err
	}
	return b.ReadLine(prompt)
}

func (b *basicLineInput) Stdout() io.Writer { return b.out }

func (b *basicLineInput) Close() error { return nil }

type readlineInput struct {
	instance *readline.Instance
}

func newReadlineInput(historyPath string) (*readlineInput, error) {
	if historyPath != "" {
		if err := os.MkdirAll(filepath.Dir(historyPath), 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	instance, err := readline.NewEx(&readline.Config{
		Prompt:            "> ",
		HistoryFile:       historyPath,
		HistorySearchFold: true,
		AutoComplete:      newCompleter(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
	})
	if err != nil {
		return nil, err
	}
	return &readlineInput{instance: instance}, nil
}

func (r *readlineInput) ReadLine(prompt string) (string, error) {
	r.instance.SetPrompt(prompt)
	return r.instance.Readline()
}

func (r *readlineInput) ReadPassword(prompt string) (string, error) {
	pw, err := r.instance.ReadPassword(prompt)
	return string(pw), err
}

func (r *readlineInput) Stdout() io.Writer { return r.instance.Stdout() }

func (r *readlineInput) Close() error {
	if r == nil || r.instance == nil {
		return nil
	}
	return r.instance.Close()
}

// NewLineInput stdin 是终端时用 readline（历史记录写入 historyPath），否则退化为 bufio
// NewLineInput uses readline with history at historyPath when stdin is a terminal, bufio otherwise
func NewLineInput(historyPath string) (LineInput, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return NewBasicLineInput(os.Stdin, os.Stdout), nil
	}
	readlineReader, err := newReadlineInput(historyPath)
	if err == nil {
		return readlineReader, nil
	}
	return NewBasicLineInput(os.Stdin, os.Stdout), err
}

func newCompleter() *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(replCommands))
	for _, c := range replCommands {
		var subs []readline.PrefixCompleterInterface
		for _, s := range c.subcommands {
			subs = append(subs, readline.PcItem(s))
		}
		items = append(items, readline.PcItem(c.name, subs...))
	}
	return readline.NewPrefixCompleter(items...)
}
