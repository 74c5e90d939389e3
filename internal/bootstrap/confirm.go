package bootstrap

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ConfirmPrompter 由当前 UI 提供的 y/N 提示（REPL 用 readline）
// ConfirmPrompter is the y/N prompt supplied by the active UI
type ConfirmPrompter interface {
	PromptConfirm(ctx context.Context, prompt string) (bool, error)
}

type confirmPrompterContextKey struct{}

// WithConfirmPrompter 让本次操作的确认走 p
// WithConfirmPrompter routes confirmations of one operation through p
func WithConfirmPrompter(ctx context.Context, p ConfirmPrompter) context.Context {
	if ctx == nil || p == nil {
		return ctx
	}
	return context.WithValue(ctx, confirmPrompterContextKey{}, p)
}

func confirmPrompterFromContext(ctx context.Context) (ConfirmPrompter, bool) {
	if ctx == nil {
		return nil, false
	}
	p, ok := ctx.Value(confirmPrompterContextKey{}).(ConfirmPrompter)
	return p, ok
}

// TerminalConfirmer 实现 app.Confirmer：优先使用上下文里的 prompter，
// 否则在终端上读一行；非交互环境一律拒绝。
// TerminalConfirmer implements app.Confirmer. A prompter carried by the context
// wins; otherwise it reads one line from the terminal. Non-interactive input always refuses.
type TerminalConfirmer struct {
	in    io.Reader
	out   io.Writer
	isTTY func() bool
}

// NewTerminalConfirmer in 为 nil 时读取 os.Stdin
// NewTerminalConfirmer reads os.Stdin when in is nil
func NewTerminalConfirmer(in io.Reader, out io.Writer) *TerminalConfirmer {
	c := &TerminalConfirmer{in: in, out: out}
	if c.in == nil {
		c.in = os.Stdin
		c.isTTY = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
	} else {
		c.isTTY = func() bool { return true }
	}
	if c.out == nil {
		c.out = os.Stdout
	}
	return c
}

func (c *TerminalConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	if p, ok := confirmPrompterFromContext(ctx); ok {
		return p.PromptConfirm(ctx, prompt)
	}
	if !c.isTTY() {
		return false, nil
	}
	_, _ = fmt.Fprintf(c.out, "%s (y/N): ", prompt)
	line, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && line == "" {
		if err == io.EOF {
			return false, nil
		}
		return false, err
	}
	return ParseConfirm(line), nil
}

// ParseConfirm 只有明确的肯定回答才算同意
// ParseConfirm accepts only an explicit yes
func ParseConfirm(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes", "예", "네", "ㅇ":
		return true
	default:
		return false
	}
}
