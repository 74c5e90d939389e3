// Package logx 是对标准库 slog 的薄封装：终端输出留给用户交互，日志写入 base_dir/logs。
// Package logx wraps slog; the terminal stays reserved for the REPL, logs go to base_dir/logs.
package logx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Options 日志初始化参数
// Options configures the global logger
type Options struct {
	Level  string
	Format string
	Dir    string
	// MaxMB 超过后在启动时轮转为 vbackup.log.1
	// MaxMB rotates the file to vbackup.log.1 at startup once exceeded
	MaxMB int
}

// Init 根据配置初始化全局 slog；返回的 io.Closer 负责关闭日志文件。
// Init installs the global slog logger; the returned io.Closer closes the log file.
func Init(opts Options) (io.Closer, error) {
	w, closer, err := openLogFile(opts.Dir, opts.MaxMB)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(NewHandler(w, opts.Level, opts.Format)))
	return closer, nil
}

// NewHandler 按格式构造 Handler：json / text / pretty。
// NewHandler builds a json, text or pretty handler.
func NewHandler(w io.Writer, level, format string) slog.Handler {
	lv := parseSlogLevel(level)
	opts := &slog.HandlerOptions{Level: lv}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return slog.NewJSONHandler(w, opts)
	case "pretty":
		return NewPrettyHandler(w, lv)
	default:
		return slog.NewTextHandler(w, opts)
	}
}

func openLogFile(dir string, maxMB int) (io.Writer, io.Closer, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return io.Discard, nopCloser{}, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	path := filepath.Join(dir, "vbackup.log")
	if info, err := os.Stat(path); err == nil && maxMB > 0 && info.Size() > int64(maxMB)<<20 {
		_ = os.Rename(path, path+".1")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func parseSlogLevel(s string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "none", "silent", "off":
		var l slog.Level = 100
		return l
	default:
		return slog.LevelInfo
	}
}

func Debugf(format string, v ...any) { slog.Debug(fmt.Sprintf(format, v...)) }
func Infof(format string, v ...any)  { slog.Info(fmt.Sprintf(format, v...)) }
func Warnf(format string, v ...any)  { slog.Warn(fmt.Sprintf(format, v...)) }
func Errorf(format string, v ...any) { slog.Error(fmt.Sprintf(format, v...)) }

// PrettyHandler 单行人读格式：时间 等级 消息 k=v...
// PrettyHandler writes one human-readable line per record.
type PrettyHandler struct {
	w     io.Writer
	level slog.Leveler
	mu    *sync.Mutex
	attrs []slog.Attr
	group string
}

func NewPrettyHandler(w io.Writer, lv slog.Leveler) *PrettyHandler {
	if w == nil {
		w = os.Stderr
	}
	return &PrettyHandler{w: w, level: lv, mu: &sync.Mutex{}}
}

func (h *PrettyHandler) Enabled(_ context.Context, l slog.Level) bool {
	floor := h.level.Level()
	return l >= floor && floor < 100
}

func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	buf.WriteString(ts.Format("2006-01-02 15:04:05"))
	buf.WriteString(" ")
	buf.WriteString(levelLabel(r.Level))
	buf.WriteString(" ")
	buf.WriteString(r.Message)

	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})
	for _, a := range attrs {
		buf.WriteString(" ")
		if h.group != "" {
			buf.WriteString(h.group)
			buf.WriteString(".")
		}
		buf.WriteString(a.Key)
		buf.WriteString("=")
		buf.WriteString(a.Value.String())
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cp := *h
	cp.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &cp
}

func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	cp := *h
	if cp.group == "" {
		cp.group = name
	} else {
		cp.group += "." + name
	}
	return &cp
}

func levelLabel(l slog.Level) string {
	switch l {
	case slog.LevelDebug:
		return "[DEBUG]"
	case slog.LevelInfo:
		return "[INFO]"
	case slog.LevelWarn:
		return "[WARN]"
	case slog.LevelError:
		return "[ERROR]"
	default:
		return fmt.Sprintf("[L%d]", l)
	}
}
