package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"vbackup/internal/api"
	"vbackup/internal/i18n"
	"vbackup/internal/permission"
	"vbackup/internal/session"
	"vbackup/internal/settings"
)

// EnterSettings 加载设置并丢弃旧草稿；失败时回到仪表盘
// EnterSettings loads settings, discarding any old draft; on failure it returns to the dashboard
func (a *App) EnterSettings(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	editor := settings.NewEditor(a.client.Settings(), a.client.Integrations(), a.session)
	if err := editor.Load(ctx); err != nil {
		a.fail(err, "error.load_failed")
		if !api.IsUnauthorized(err) {
			a.Navigate(session.RouteDashboard)
		}
		return err
	}
	a.mu.Lock()
	a.editor = editor
	a.mu.Unlock()
	a.renderSettings(editor)
	return nil
}

func (a *App) loadedEditor(ctx context.Context) (*settings.Editor, error) {
	a.mu.Lock()
	editor := a.editor
	a.mu.Unlock()
	if editor != nil && editor.Loaded() {
		return editor, nil
	}
	if err := a.requireSession(); err != nil {
		return nil, err
	}
	editor = settings.NewEditor(a.client.Settings(), a.client.Integrations(), a.session)
	if err := editor.Load(ctx); err != nil {
		return nil, a.fail(err, "error.load_failed")
	}
	a.mu.Lock()
	a.editor = editor
	a.mu.Unlock()
	return editor, nil
}

func (a *App) renderSettings(editor *settings.Editor) {
	theme := a.Theme()
	us, in := editor.Draft()
	title := i18n.T("settings.title")
	if editor.Dirty() {
		title += " *"
	}
	a.println(theme.TitleStyle.Render(title))
	rows := [][2]string{
		{settings.KeyGitHubRepo, valueOrDash(us.GitHubRepo)},
		{settings.KeyGitHubSync, onOff(us.GitHubSyncEnabled)},
		{settings.KeyEmailNotification, onOff(us.EmailNotificationEnabled)},
		{settings.KeyAutoBackup, onOff(in.AutoBackupEnabled)},
		{settings.KeyFrequency, in.BackupFrequency},
		{settings.KeyIncludeImages, onOff(in.IncludeImages)},
	}
	for _, r := range rows {
		a.printf("  %-20s %s\n", r[0], r[1])
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func valueOrDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}

// SetSetting 只修改本地草稿 / SetSetting edits the local draft only
func (a *App) SetSetting(ctx context.Context, key, value string) error {
	editor, err := a.loadedEditor(ctx)
	if err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	if !slices.Contains(settings.Keys, key) {
		a.warn(i18n.T("settings.unknown_key", key))
		return fmt.Errorf("unknown setting %q", key)
	}
	if err := editor.Set(key, value); err != nil {
		a.warn(i18n.T("settings.invalid_value", key, value))
		return err
	}
	a.info(i18n.T("settings.draft", key, value))
	return nil
}

// SaveSettings 仓库名变化且已存在时按 overwrite_repo 策略确认
// SaveSettings confirms through the overwrite_repo policy when a changed repository already exists
func (a *App) SaveSettings(ctx context.Context) error {
	editor, err := a.loadedEditor(ctx)
	if err != nil {
		return err
	}
	confirm := func(ctx context.Context, check api.RepoCheck) (bool, error) {
		name := check.Name
		if check.URL != "" {
			name = check.URL
		}
		return a.confirmAction(ctx, permission.ActionOverwriteRepo, i18n.T("settings.repo_exists_confirm", name))
	}
	_, err = editor.Save(ctx, confirm)
	switch {
	case err == nil:
		a.success(i18n.T("settings.saved"))
		return nil
	case errors.Is(err, settings.ErrNoChanges):
		a.info(i18n.T("settings.no_changes"))
		return err
	case errors.Is(err, settings.ErrNotConfirmed):
		return err
	}
	return a.fail(err, "settings.save_failed")
}

// ToggleEmail 立即切换邮件通知 / ToggleEmail flips email notifications right away
func (a *App) ToggleEmail(ctx context.Context) error {
	editor, err := a.loadedEditor(ctx)
	if err != nil {
		return err
	}
	on, err := editor.ToggleEmail(ctx)
	if err != nil {
		return a.fail(err, "settings.save_failed")
	}
	if on {
		a.success(i18n.T("settings.email_on"))
	} else {
		a.success(i18n.T("settings.email_off"))
	}
	return nil
}

// --- Integrations ---

// Target 集成目标 / Target is an integration that can be connected or disconnected
type Target string

const (
	TargetGoogleDrive Target = "gdrive"
	TargetGitHub      Target = "github"
	TargetGitHubApp   Target = "app"
)

func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gdrive", "drive", "google", "google_drive":
		return TargetGoogleDrive, nil
	case "github", "gh":
		return TargetGitHub, nil
	case "app", "github-app", "github_app":
		return TargetGitHubApp, nil
	}
	return "", fmt.Errorf("unknown integration %q", s)
}

func (t Target) Label() string {
	switch t {
	case TargetGoogleDrive:
		return "Google Drive"
	case TargetGitHub:
		return "GitHub"
	default:
		return "GitHub App"
	}
}

func (a *App) EnterIntegrations(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	in, err := a.client.Integrations().Get(ctx)
	if err != nil {
		a.fail(err, "error.load_failed")
		if !api.IsUnauthorized(err) {
			a.Navigate(session.RouteDashboard)
		}
		return err
	}
	theme := a.Theme()
	a.println(theme.TitleStyle.Render(i18n.T("integrations.title")))
	a.printf("  %-14s %s\n", "Google Drive", connectionLabel(theme, in.GoogleDriveEnabled))
	github := connectionLabel(theme, in.GitHubEnabled)
	if in.GitHubRepoURL != "" {
		github += "  " + theme.MutedStyle.Render(in.GitHubRepoURL)
	} else if in.GitHubRepoName != "" {
		github += "  " + theme.MutedStyle.Render(in.GitHubRepoName)
	}
	a.printf("  %-14s %s\n", "GitHub", github)
	a.printf("  %-14s %s\n", "GitHub App", connectionLabel(theme, in.GitHubAppInstalled))
	a.printf("  %-14s %s · auto %s · images %s\n", settings.KeyFrequency,
		in.BackupFrequency, onOff(in.AutoBackupEnabled), onOff(in.IncludeImages))
	return nil
}

// IntegrationAuthURL 打印授权（或 App 安装）地址
// IntegrationAuthURL prints the authorization or App install URL
func (a *App) IntegrationAuthURL(ctx context.Context, target Target) (string, error) {
	if err := a.requireSession(); err != nil {
		return "", err
	}
	var (
		u   api.AuthURL
		err error
	)
	switch target {
	case TargetGoogleDrive:
		u, err = a.client.Integrations().GoogleDriveAuthURL(ctx)
	case TargetGitHub:
		u, err = a.client.Integrations().GitHubAuthURL(ctx)
	default:
		u, err = a.client.Integrations().AppInstallURL(ctx)
	}
	if err != nil {
		return "", a.fail(err, "integrations.connect_failed")
	}
	a.println(i18n.T("auth.open_url", u.AuthURL))
	return u.AuthURL, nil
}

// Connect 用授权码连接 Google Drive 或 GitHub
// Connect links Google Drive or GitHub with an authorization code
func (a *App) Connect(ctx context.Context, target Target, code, repoName string) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		a.warn(i18n.T("auth.no_code"))
		return errors.New("authorization code is empty")
	}
	var (
		msg api.Message
		err error
	)
	switch target {
	case TargetGoogleDrive:
		msg, err = a.client.Integrations().ConnectGoogleDrive(ctx, code)
	case TargetGitHub:
		msg, err = a.client.Integrations().ConnectGitHub(ctx, code, repoName)
	default:
		return fmt.Errorf("connect %s: use /app connect", target)
	}
	if err != nil {
		return a.fail(err, "integrations.connect_failed")
	}
	a.success(i18n.T("integrations.connected", target.Label()))
	if msg.RepoURL != "" {
		a.println("  " + msg.RepoURL)
	}
	a.afterIntegrationChange(ctx)
	return nil
}

// Disconnect 断开前按 disconnect 策略确认
// Disconnect confirms through the disconnect policy first
func (a *App) Disconnect(ctx context.Context, target Target) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	var (
		prompt string
		call   func(context.Context) error
	)
	switch target {
	case TargetGoogleDrive:
		prompt, call = i18n.T("integrations.disconnect_gdrive_confirm"), a.client.Integrations().DisconnectGoogleDrive
	case TargetGitHub:
		prompt, call = i18n.T("integrations.disconnect_github_confirm"), a.client.Integrations().DisconnectGitHub
	default:
		prompt, call = i18n.T("integrations.disconnect_app_confirm"), a.client.Integrations().DisconnectApp
	}
	ok, err := a.confirmAction(ctx, permission.ActionDisconnect, prompt)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCancelled
	}
	if err := call(ctx); err != nil {
		return a.fail(err, "integrations.disconnect_failed")
	}
	a.success(i18n.T("integrations.disconnected", target.Label()))
	a.afterIntegrationChange(ctx)
	return nil
}

// AppRepos 列出 GitHub App 可访问的仓库
// AppRepos lists repositories the GitHub App can access
func (a *App) AppRepos(ctx context.Context) ([]api.AppRepo, error) {
	if err := a.requireSession(); err != nil {
		return nil, err
	}
	repos, err := a.client.Integrations().AppRepos(ctx)
	if err != nil {
		return nil, a.fail(err, "error.load_failed")
	}
	if len(repos) == 0 {
		a.info(i18n.T("integrations.no_repos"))
		return repos, nil
	}
	theme := a.Theme()
	for _, r := range repos {
		line := fmt.Sprintf("  %-10s %s", strconv.FormatInt(r.InstallationID, 10), r.FullName)
		if r.Private {
			line += theme.MutedStyle.Render(" (private)")
		}
		a.println(line)
	}
	return repos, nil
}

func (a *App) ConnectApp(ctx context.Context, installationID int64, repoFullName string) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	msg, err := a.client.Integrations().ConnectApp(ctx, installationID, repoFullName)
	if err != nil {
		return a.fail(err, "integrations.connect_failed")
	}
	a.success(i18n.T("integrations.connected", TargetGitHubApp.Label()))
	if msg.RepoURL != "" {
		a.println("  " + msg.RepoURL)
	}
	a.afterIntegrationChange(ctx)
	return nil
}

// afterIntegrationChange 连接状态变化后刷新用户和统计（目的地可用性随之变化）
// afterIntegrationChange refreshes the user and stats, since destination availability changed
func (a *App) afterIntegrationChange(ctx context.Context) {
	if err := a.session.Refresh(ctx); err != nil {
		slog.Warn("refresh session after integration change", slog.String("err", err.Error()))
	}
	stats, err := a.client.Backup().Stats(ctx)
	if err != nil {
		slog.Warn("refresh stats after integration change", slog.String("err", err.Error()))
		return
	}
	a.setStats(stats)
}
