package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"vbackup/internal/api"
	"vbackup/internal/i18n"
	"vbackup/internal/permission"
	"vbackup/internal/security"
	"vbackup/internal/tui"
	"vbackup/internal/velog"
)

const velogPreviewItems = 5

// LoadDashboard 并发拉取用户与统计，两者都成功后才返回
// LoadDashboard fetches the user and the stats together and returns once both resolve
func (a *App) LoadDashboard(ctx context.Context) (tui.DashboardData, error) {
	if err := a.requireSession(); err != nil {
		return tui.DashboardData{}, err
	}
	var stats api.BackupStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.session.Refresh(gctx)
	})
	g.Go(func() error {
		var err error
		stats, err = a.client.Backup().Stats(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return tui.DashboardData{}, a.fail(err, "error.load_failed")
	}

	a.setStats(stats)
	a.watcher.Observe(stats)
	user, _ := a.session.User()
	return tui.DashboardData{
		User:      user,
		Stats:     stats,
		ShowGuide: a.showSetupGuide(stats),
		Polling:   a.watcher.Active(),
	}, nil
}

// showSetupGuide 未关闭引导且尚未完成 velog 或目的地设置时显示
// showSetupGuide is true until dismissed or until velog and a destination are both connected
func (a *App) showSetupGuide(stats api.BackupStats) bool {
	if a.session.SetupDismissed() {
		return false
	}
	return !stats.VelogConnected || !stats.HasDestination()
}

// EnterDashboard 加载失败时留在仪表盘并显示内联的不可用状态；
// 跳回入口页只会再次重定向到这里。401 与未登录由会话处理。
// EnterDashboard keeps a failed load on the dashboard with an inline unavailable state,
// since the entry page would only redirect back here. 401s and anonymous sessions are left to the session.
func (a *App) EnterDashboard(ctx context.Context) error {
	data, err := a.LoadDashboard(ctx)
	if err != nil {
		if !api.IsUnauthorized(err) && !errors.Is(err, ErrNotSignedIn) && !errors.Is(err, context.Canceled) {
			a.println(a.Theme().WarningStyle.Render(i18n.T("dashboard.unavailable")))
		}
		return err
	}
	a.renderDashboard(data)
	return nil
}

func (a *App) renderDashboard(data tui.DashboardData) {
	theme := a.Theme()
	s := data.Stats
	a.println(theme.TitleStyle.Render(i18n.T("dashboard.title")) + "  " + theme.MutedStyle.Render(data.User.DisplayName()))
	a.println(i18n.T("dashboard.total_posts", s.TotalPosts) + "   " + i18n.T("dashboard.last_backup", s.LastBackup.String()))
	a.println(i18n.T("dashboard.connections",
		connectionLabel(theme, s.VelogConnected),
		connectionLabel(theme, s.GoogleDriveConnected),
		connectionLabel(theme, s.GitHubConnected)))
	if data.ShowGuide {
		a.println(theme.WarningStyle.Render(i18n.T("dashboard.setup_guide")))
	}
	a.println(tui.RenderLogs(s.RecentLogs, theme, a.currentWidth()))
	if data.Polling {
		a.println(theme.InfoStyle.Render(i18n.T("dashboard.polling", a.pollInterval())))
	}
}

func connectionLabel(theme tui.Theme, ok bool) string {
	if ok {
		return theme.SuccessStyle.Render(i18n.T("dashboard.connected"))
	}
	return theme.MutedStyle.Render(i18n.T("dashboard.disconnected"))
}

func (a *App) pollInterval() time.Duration {
	return time.Duration(a.cfg.Dashboard.PollIntervalMS) * time.Millisecond
}

func (a *App) setStats(stats api.BackupStats) {
	a.mu.Lock()
	a.stats = stats
	a.statsLoaded = true
	a.mu.Unlock()
}

// Stats 最近一次拿到的统计 / Stats returns the most recently fetched stats
func (a *App) Stats() (api.BackupStats, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats, a.statsLoaded
}

// TriggerBackup 同一时间只允许一个触发请求；未连接目的地时直接拒绝
// TriggerBackup allows a single trigger request at a time and refuses without a connected destination
func (a *App) TriggerBackup(ctx context.Context, force bool, dest api.Destination) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	if !a.triggering.CompareAndSwap(false, true) {
		a.warn(i18n.T("backup.in_flight"))
		return ErrBackupInFlight
	}
	defer a.triggering.Store(false)

	stats, ok := a.Stats()
	if !ok {
		var err error
		stats, err = a.client.Backup().Stats(ctx)
		if err != nil {
			return a.fail(err, "backup.failed")
		}
		a.setStats(stats)
	}
	if !destinationConnected(stats, dest) {
		a.warn(i18n.T("backup.no_destination"))
		return ErrNoDestination
	}

	if _, err := a.client.Backup().Trigger(ctx, api.TriggerRequest{Force: force, Destination: dest}); err != nil {
		return a.fail(err, "backup.failed")
	}
	a.success(i18n.T("backup.started"))

	fresh, err := a.client.Backup().Stats(ctx)
	if err != nil {
		slog.Warn("refresh stats after trigger", slog.String("err", err.Error()))
		return nil
	}
	a.setStats(fresh)
	a.watcher.Observe(fresh)
	a.publishStats(fresh)
	return nil
}

func destinationConnected(stats api.BackupStats, dest api.Destination) bool {
	switch dest {
	case api.DestinationGoogleDrive:
		return stats.GoogleDriveConnected
	case api.DestinationGitHub:
		return stats.GitHubConnected
	default:
		return stats.HasDestination()
	}
}

// Watch 重新拉取统计并根据日志状态启动或停止轮询
// Watch re-fetches stats and starts or stops polling from the log status
func (a *App) Watch(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	stats, err := a.client.Backup().Stats(ctx)
	if err != nil {
		return a.fail(err, "error.load_failed")
	}
	a.setStats(stats)
	a.watcher.Reopen()
	a.watcher.Observe(stats)
	theme := a.Theme()
	if a.watcher.Active() {
		a.println(theme.InfoStyle.Render(i18n.T("dashboard.polling", a.pollInterval())))
	} else {
		a.println(theme.MutedStyle.Render(i18n.T("dashboard.polling_stopped")))
	}
	return nil
}

// Polling 是否正在轮询 / Polling reports whether stats polling is active
func (a *App) Polling() bool {
	return a.watcher.Active()
}

func (a *App) handlePolledStats(stats api.BackupStats) {
	a.setStats(stats)
	if a.publishStats(stats) {
		return
	}
	if !a.onDashboard() {
		return
	}
	theme := a.Theme()
	if len(stats.RecentLogs) > 0 {
		latest := stats.RecentLogs[0]
		a.println(theme.StatusStyle(latest.Status).Render("• "+tui.StatusLabel(latest.Status)) +
			"  " + tui.PostsCell(latest) + "  " + tui.Truncate(latest.Message, 60))
	}
	if !stats.AnyInProgress() {
		a.println(theme.MutedStyle.Render(i18n.T("dashboard.polling_stopped")))
	}
}

// publishStats 有 TUI 订阅时转发，返回是否已转发
// publishStats forwards to the TUI listener and reports whether one was set
func (a *App) publishStats(stats api.BackupStats) bool {
	a.mu.Lock()
	fn := a.onStats
	a.mu.Unlock()
	if fn == nil {
		return false
	}
	fn(tui.StatsMsg{Stats: stats, Polling: stats.AnyInProgress()})
	return true
}

func (a *App) handlePollError(err error) {
	if api.IsUnauthorized(err) {
		return
	}
	a.notify.Notify(tui.NoticeError, Message(err, "error.load_failed"))
}

// Logs 打印最近的备份日志 / Logs prints recent backup logs
func (a *App) Logs(ctx context.Context, limit int) ([]api.BackupLog, error) {
	if err := a.requireSession(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = a.cfg.Dashboard.LogLimit
	}
	logs, err := a.client.Backup().Logs(ctx, limit)
	if err != nil {
		return nil, a.fail(err, "error.load_failed")
	}
	a.println(tui.RenderLogs(logs, a.Theme(), a.currentWidth()))
	return logs, nil
}

// DownloadArchive 下载 ZIP 并保存到 dir（默认 download.dir），返回文件路径
// DownloadArchive saves the ZIP under dir (download.dir by default) and returns its path
func (a *App) DownloadArchive(ctx context.Context, dir string) (string, error) {
	if err := a.requireSession(); err != nil {
		return "", err
	}
	archive, err := a.client.Backup().DownloadZip(ctx)
	if err != nil {
		return "", a.fail(err, "download.failed")
	}
	path, err := a.writeDownload(dir, archive.Filename, archive.Data)
	if err != nil {
		a.notify.Notify(tui.NoticeError, i18n.T("download.failed")+": "+err.Error())
		return "", err
	}
	a.success(i18n.T("download.success", path))
	return path, nil
}

func (a *App) writeDownload(dir, name string, data []byte) (string, error) {
	if strings.TrimSpace(dir) == "" {
		dir = a.cfg.Download.Dir
	}
	d, err := security.NewDir(dir)
	if err != nil {
		return "", err
	}
	return d.WriteFile(name, data)
}

// DismissSetup 本次会话内隐藏设置引导 / DismissSetup hides the setup guide for this session
func (a *App) DismissSetup() error {
	if err := a.requireSession(); err != nil {
		return err
	}
	return a.session.DismissSetup()
}

// VerifyVelog 关联 velog 账号；替换已关联的账号前需要确认
// VerifyVelog links a velog account; replacing an already-linked one needs confirmation
func (a *App) VerifyVelog(ctx context.Context, username string) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	username = velog.NormalizeUsername(username)
	if username == "" {
		a.warn(i18n.T("error.usage", "/velog verify <username>"))
		return errors.New("velog username is empty")
	}
	user, _ := a.session.User()
	if current := user.VelogUsername; current != "" && !strings.EqualFold(current, username) {
		ok, err := a.confirmAction(ctx, permission.ActionRelink, i18n.T("velog.relink_confirm", current, username))
		if err != nil {
			return err
		}
		if !ok {
			return ErrCancelled
		}
	}

	msg, err := a.client.Auth().VerifyVelog(ctx, username)
	if err != nil {
		return a.fail(err, "error.generic")
	}
	linked := msg.Username
	if linked == "" {
		linked = username
	}
	a.success(i18n.T("velog.verified", linked))
	if err := a.session.Refresh(ctx); err != nil {
		slog.Warn("refresh session after velog verify", slog.String("err", err.Error()))
	}
	return nil
}

// PreviewVelog 读取公开 RSS，关联前确认用户名正确
// PreviewVelog reads the public feed so the username can be checked before linking
func (a *App) PreviewVelog(ctx context.Context, username string) ([]velog.Item, error) {
	username = velog.NormalizeUsername(username)
	items, err := a.velog.Recent(ctx, username, velogPreviewItems)
	if errors.Is(err, velog.ErrUserNotFound) || (err == nil && len(items) == 0) {
		a.warn(i18n.T("velog.preview_empty", username))
		return nil, err
	}
	if err != nil {
		a.notify.Notify(tui.NoticeError, i18n.T("error.load_failed"))
		return nil, err
	}
	theme := a.Theme()
	a.println(theme.TitleStyle.Render(i18n.T("velog.preview_header", username)))
	for _, it := range items {
		date := "-"
		if !it.Published.IsZero() {
			date = it.Published.Local().Format("2006-01-02")
		}
		a.printf("  %s  %s\n", theme.MutedStyle.Render(date), it.Title)
		if it.Excerpt != "" {
			a.println("    " + theme.MutedStyle.Render(tui.Truncate(it.Excerpt, a.currentWidth()-6)))
		}
	}
	return items, nil
}
