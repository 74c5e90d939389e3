// Package app 是视图协调器：持有当前路由，把每个视图的操作翻译成 API 调用、
// 通知和确认提示。REPL 与 TUI 都通过它访问后端。
//
// Package app is the view coordinator. It owns the current route and turns each
// view operation into API calls, notifications and confirmation prompts; the REPL
// and the TUI both reach the backend through it.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"vbackup/internal/api"
	"vbackup/internal/config"
	"vbackup/internal/dashboard"
	"vbackup/internal/i18n"
	"vbackup/internal/permission"
	"vbackup/internal/session"
	"vbackup/internal/settings"
	"vbackup/internal/storage"
	"vbackup/internal/tui"
	"vbackup/internal/velog"
)

var (
	ErrNotSignedIn    = errors.New("app: not signed in")
	ErrBackupInFlight = errors.New("app: backup trigger already in flight")
	ErrNoDestination  = errors.New("app: no backup destination connected")
	ErrCancelled      = errors.New("app: cancelled")
	ErrUnknownRoute   = errors.New("app: unknown route")
)

// Notifier 显示短暂通知（REPL 打印一行，TUI 显示在状态栏）
// Notifier shows transient notifications
type Notifier interface {
	Notify(level tui.NoticeLevel, text string)
}

// NotifierFunc 函数适配器 / NotifierFunc adapts a function to Notifier
type NotifierFunc func(level tui.NoticeLevel, text string)

func (f NotifierFunc) Notify(level tui.NoticeLevel, text string) { f(level, text) }

// Confirmer 对破坏性操作询问 y/N
// Confirmer asks a yes/no question before a destructive action
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

type ConfirmerFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmerFunc) Confirm(ctx context.Context, prompt string) (bool, error) { return f(ctx, prompt) }

type Options struct {
	Config    config.Config
	Client    *api.Client
	Session   *session.Store
	Store     storage.Store
	Policy    *permission.Policy
	Velog     *velog.Client
	Notifier  Notifier
	Confirmer Confirmer
	Out       io.Writer
	Width     int
}

type App struct {
	cfg     config.Config
	client  *api.Client
	session *session.Store
	store   storage.Store
	policy  *permission.Policy
	velog   *velog.Client
	notify  Notifier
	confirm Confirmer
	out     *syncWriter
	watcher *dashboard.Watcher

	triggering atomic.Bool

	mu          sync.Mutex
	route       string
	pending     []string
	theme       tui.Theme
	width       int
	stats       api.BackupStats
	statsLoaded bool
	onStats     func(tui.StatsMsg)
	editor      *settings.Editor
	callback    callbackMount
	titles      map[int64]string
}

func New(opts Options) *App {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Notifier == nil {
		opts.Notifier = NotifierFunc(func(tui.NoticeLevel, string) {})
	}
	if opts.Policy == nil {
		opts.Policy = permission.New(opts.Config.Confirm)
	}
	if opts.Velog == nil {
		opts.Velog = velog.NewClient("", time.Duration(opts.Config.API.TimeoutMS)*time.Millisecond)
	}
	if opts.Width <= 0 {
		opts.Width = 100
	}
	a := &App{
		cfg:     opts.Config,
		client:  opts.Client,
		session: opts.Session,
		store:   opts.Store,
		policy:  opts.Policy,
		velog:   opts.Velog,
		notify:  opts.Notifier,
		confirm: opts.Confirmer,
		out:     &syncWriter{w: opts.Out},
		width:   opts.Width,
		titles:  make(map[int64]string),
	}
	a.theme = tui.ThemeByName(a.loadThemeName())
	a.watcher = dashboard.NewWatcher(a.client.Backup(), dashboard.Options{
		Interval: time.Duration(a.cfg.Dashboard.PollIntervalMS) * time.Millisecond,
		OnStats:  a.handlePolledStats,
		OnError:  a.handlePollError,
	})
	if a.session != nil {
		a.session.SetNavigator(a)
	}
	return a
}

// Start 解析会话并进入初始路由
// Start resolves the session and enters the initial route
func (a *App) Start(ctx context.Context, route string) {
	if strings.TrimSpace(route) == "" {
		route = session.RouteEntry
	}
	if err := a.session.Init(ctx, route); err != nil {
		slog.Warn("session init", slog.String("err", err.Error()))
	}
	if !a.hasPending() {
		a.Navigate(route)
	}
	a.Flush(ctx)
}

// Close 停止轮询 / Close stops polling
func (a *App) Close() {
	a.watcher.Close()
}

// SessionCleared 由会话存储在凭证被清除后回调
// SessionCleared is called back by the session store after credentials are cleared
func (a *App) SessionCleared() {
	a.watcher.Stop()
	a.mu.Lock()
	a.stats = api.BackupStats{}
	a.statsLoaded = false
	a.editor = nil
	a.mu.Unlock()
}

// SetStatsListener TUI 订阅轮询结果 / SetStatsListener lets the TUI receive polled stats
func (a *App) SetStatsListener(fn func(tui.StatsMsg)) {
	a.mu.Lock()
	a.onStats = fn
	a.mu.Unlock()
}

func (a *App) SetWidth(width int) {
	if width <= 0 {
		return
	}
	a.mu.Lock()
	a.width = width
	a.mu.Unlock()
}

func (a *App) Theme() tui.Theme {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.theme
}

// SetTheme 持久化主题；空名称在两种主题之间切换
// SetTheme persists the theme; an empty name toggles between the two
func (a *App) SetTheme(name string) error {
	a.mu.Lock()
	next := a.theme.Toggle()
	if strings.TrimSpace(name) != "" {
		next = tui.ThemeByName(name)
	}
	a.theme = next
	a.mu.Unlock()
	if a.store != nil {
		if err := a.store.Set(storage.KeyTheme, next.Name); err != nil {
			return fmt.Errorf("persist theme: %w", err)
		}
	}
	return nil
}

func (a *App) loadThemeName() string {
	if a.store != nil {
		if name, err := a.store.Get(storage.KeyTheme); err == nil {
			return name
		}
	}
	return a.cfg.UI.Theme
}

// ShowConfig 打印生效的配置摘要 / ShowConfig prints the effective configuration
func (a *App) ShowConfig() {
	a.printf("api.base_url        %s\n", a.cfg.API.BaseURL)
	a.printf("api.me_path         %s\n", a.cfg.API.MePath)
	a.printf("oauth.callback      %s%s\n", a.cfg.OAuth.CallbackAddr, a.cfg.OAuth.CallbackPath)
	a.printf("dashboard.poll      %dms\n", a.cfg.Dashboard.PollIntervalMS)
	a.printf("posts.page_size     %d\n", a.cfg.Posts.PageSize)
	a.printf("download.dir        %s\n", a.cfg.Download.Dir)
	a.printf("storage.base_dir    %s\n", a.cfg.Storage.BaseDir)
	a.printf("confirm             %s\n", a.policy.Summary())
	a.printf("ui                  locale=%s theme=%s\n", i18n.Global().Locale(), a.Theme().Name)
}

// --- 通知与错误 / Notifications and errors ---

// Message 4xx 带 detail 时显示服务端消息，否则显示本地化的兜底文本
// Message shows the server detail when present and the localized fallback otherwise
func Message(err error, fallbackKey string) string {
	if detail, ok := api.Detail(err); ok {
		return detail
	}
	if fallbackKey == "" {
		fallbackKey = "error.generic"
	}
	return i18n.T(fallbackKey)
}

// fail 通知错误并原样返回；401 已由全局处理器接管，不再重复提示
// fail notifies err and returns it; 401s are left to the global handler
func (a *App) fail(err error, fallbackKey string) error {
	if err == nil {
		return nil
	}
	if api.IsUnauthorized(err) || errors.Is(err, context.Canceled) {
		return err
	}
	slog.Warn("request failed", slog.String("route", a.Route()), slog.String("err", err.Error()))
	a.notify.Notify(tui.NoticeError, Message(err, fallbackKey))
	return err
}

func (a *App) info(text string) {
	a.notify.Notify(tui.NoticeInfo, text)
}

func (a *App) success(text string) {
	a.notify.Notify(tui.NoticeSuccess, text)
}

func (a *App) warn(text string) {
	a.notify.Notify(tui.NoticeWarn, text)
}

// confirmAction 按策略决定：allow 直接通过，deny 拒绝，ask 询问用户
// confirmAction applies the policy: allow passes, deny refuses, ask prompts
func (a *App) confirmAction(ctx context.Context, action permission.Action, prompt string) (bool, error) {
	res := a.policy.Decide(action)
	switch res.Decision {
	case permission.DecisionAllow:
		return true, nil
	case permission.DecisionDeny:
		a.warn(i18n.T("confirm.denied", action))
		return false, nil
	}
	if a.confirm == nil {
		a.info(i18n.T("confirm.cancelled"))
		return false, nil
	}
	ok, err := a.confirm.Confirm(ctx, prompt)
	if err != nil {
		return false, err
	}
	if !ok {
		a.info(i18n.T("confirm.cancelled"))
	}
	return ok, nil
}

// requireSession 未认证时拒绝渲染并回到入口页
// requireSession refuses to render for a non-authenticated session and returns to the entry page
func (a *App) requireSession() error {
	if a.session.State() == session.Authenticated {
		return nil
	}
	a.warn(i18n.T("auth.required"))
	a.Navigate(session.RouteEntry)
	return ErrNotSignedIn
}

// --- 输出 / Output ---

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (a *App) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

func (a *App) println(text string) {
	_, _ = io.WriteString(a.out, text+"\n")
}

func (a *App) currentWidth() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.width
}
