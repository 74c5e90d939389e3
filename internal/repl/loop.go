package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"vbackup/internal/bootstrap"
	"vbackup/internal/i18n"
	"vbackup/internal/session"
	"vbackup/internal/tui"
)

// Loop holds REPL state: the built App, the line input and the notice printer.
// Loop 持有 REPL 状态：App、行输入与通知打印器。
type Loop struct {
	*bootstrap.BuildResult
	input   LineInput
	printer *Printer
	out     io.Writer
	color   bool
}

// NewLoop builds a REPL loop from a BuildResult.
func NewLoop(res *bootstrap.BuildResult, input LineInput, printer *Printer, out io.Writer) *Loop {
	if out == nil {
		out = os.Stdout
	}
	color := false
	if printer != nil {
		color = printer.color
	}
	return &Loop{BuildResult: res, input: input, printer: printer, out: out, color: color}
}

// Run reads one command per line until /exit or EOF.
func Run(ctx context.Context, loop *Loop) error {
	if loop.BuildResult == nil || loop.App == nil {
		return fmt.Errorf("app is nil")
	}
	if loop.input == nil {
		return fmt.Errorf("line input is nil")
	}
	for {
		line, err := loop.input.ReadLine(loop.prompt())
		if err != nil {
			switch {
			case errors.Is(err, ErrInterrupt):
				continue
			case errors.Is(err, io.EOF):
				return nil
			default:
				return err
			}
		}
		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}
		if exit := loop.Execute(ctx, text); exit {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Execute 运行一条命令并渲染排队的路由；Ctrl+C 只取消这条命令
// Execute runs one command and renders queued routes; Ctrl+C cancels only this command
func (loop *Loop) Execute(ctx context.Context, text string) bool {
	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	runCtx = bootstrap.WithConfirmPrompter(runCtx, loop)

	exit, err := loop.handleCommand(runCtx, text)
	loop.App.Flush(ctx)

	var usage usageError
	switch {
	case err == nil:
	case errors.As(err, &usage):
		loop.warn(i18n.T("error.usage", usage.usage))
	case errors.Is(err, context.Canceled):
		loop.warn(i18n.T("confirm.cancelled"))
	default:
		slog.Debug("command failed", slog.String("command", text), slog.String("err", err.Error()))
	}
	return exit
}

// PromptConfirm 实现 bootstrap.ConfirmPrompter；Ctrl+C 或 EOF 视为否
// PromptConfirm implements bootstrap.ConfirmPrompter; Ctrl+C or EOF counts as no
func (loop *Loop) PromptConfirm(_ context.Context, prompt string) (bool, error) {
	line, err := loop.input.ReadLine(prompt + " [y/N]: ")
	if err != nil {
		if errors.Is(err, ErrInterrupt) || errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	return bootstrap.ParseConfirm(line), nil
}

// prompt 形如 "[/dashboard] me@example.com> "
// prompt looks like "[/dashboard] me@example.com> "
func (loop *Loop) prompt() string {
	route := loop.App.Route()
	if route == "" {
		route = session.RouteEntry
	}
	who := ""
	if user, ok := loop.Session.User(); ok {
		who = " " + user.DisplayName()
	}
	if !loop.color {
		return fmt.Sprintf("[%s]%s> ", route, who)
	}
	theme := loop.App.Theme()
	return theme.MutedStyle.Render("["+route+"]") + theme.InfoStyle.Render(who) + "> "
}

func (loop *Loop) warn(text string) {
	loop.notify(tui.NoticeWarn, text)
}
