package repl

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"vbackup/internal/tui"
)

// Printer 实现 app.Notifier，把通知打印成一行
// Printer implements app.Notifier by printing each notice on its own line
type Printer struct {
	mu    sync.Mutex
	out   io.Writer
	color bool
	theme func() tui.Theme
}

func NewPrinter(out io.Writer, color bool) *Printer {
	return &Printer{out: out, color: color, theme: tui.DarkTheme}
}

// SetOutput 切换到 readline 的输出，避免打乱正在编辑的行
// SetOutput switches to the line editor's writer so polled output does not garble the prompt
func (p *Printer) SetOutput(out io.Writer) {
	p.mu.Lock()
	p.out = out
	p.mu.Unlock()
}

// SetThemeSource 跟随 App 当前主题 / SetThemeSource follows the App's current theme
func (p *Printer) SetThemeSource(fn func() tui.Theme) {
	p.mu.Lock()
	p.theme = fn
	p.mu.Unlock()
}

func (p *Printer) Notify(level tui.NoticeLevel, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	line := noticeIcon(level) + " " + text
	if p.color && p.theme != nil {
		line = level.Style(p.theme()).Render(line)
	}
	_, _ = fmt.Fprintln(p.out, line)
}

func noticeIcon(level tui.NoticeLevel) string {
	switch level {
	case tui.NoticeSuccess:
		return "✓"
	case tui.NoticeWarn:
		return "!"
	case tui.NoticeError:
		return "✗"
	default:
		return "•"
	}
}

// UseColor NO_COLOR、VBACKUP_NO_COLOR 或 TERM=dumb 时关闭颜色
// UseColor is false under NO_COLOR, VBACKUP_NO_COLOR or TERM=dumb
func UseColor() bool {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		return false
	}
	if strings.TrimSpace(os.Getenv("VBACKUP_NO_COLOR")) != "" {
		return false
	}
	return strings.ToLower(strings.TrimSpace(os.Getenv("TERM"))) != "dumb"
}
