// Package settings 维护设置页的本地草稿：编辑只改草稿，save 时才发请求；
// 仓库名变化且远端已存在时必须先确认。
//
// Package settings keeps the settings view's local draft. Edits touch only the
// draft; save sends the requests, and a changed repository name that already
// exists must be confirmed first.
package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"vbackup/internal/api"
)

var (
	ErrNotConfirmed = errors.New("settings: overwrite not confirmed")
	ErrNoChanges    = errors.New("settings: no changes")
	ErrNotLoaded    = errors.New("settings: not loaded")
)

// 可编辑的键 / Editable keys
const (
	KeyGitHubRepo        = "github_repo"
	KeyGitHubSync        = "github_sync"
	KeyEmailNotification = "email_notification"
	KeyAutoBackup        = "auto_backup"
	KeyFrequency         = "frequency"
	KeyIncludeImages     = "include_images"
)

var Keys = []string{KeyGitHubRepo, KeyGitHubSync, KeyEmailNotification, KeyAutoBackup, KeyFrequency, KeyIncludeImages}

type SettingsClient interface {
	Get(ctx context.Context) (api.UserSettings, error)
	Update(ctx context.Context, update api.SettingsUpdate) (api.UserSettings, error)
	CheckRepo(ctx context.Context, name string) (api.RepoCheck, error)
}

type IntegrationsClient interface {
	Get(ctx context.Context) (api.Integrations, error)
	Update(ctx context.Context, update api.IntegrationsUpdate) (api.Integrations, error)
}

// Refresher 设置变更后刷新会话用户（session.Store）
// Refresher re-resolves the session user after a mutation
type Refresher interface {
	Refresh(ctx context.Context) error
}

// ConfirmFunc 仓库已存在时询问用户是否继续
// ConfirmFunc asks whether to proceed when the repository already exists
type ConfirmFunc func(ctx context.Context, check api.RepoCheck) (bool, error)

type SaveResult struct {
	Settings     api.UserSettings
	Integrations api.Integrations
	RepoCheck    *api.RepoCheck
}

type Editor struct {
	settings     SettingsClient
	integrations IntegrationsClient
	session      Refresher

	mu         sync.Mutex
	loaded     bool
	saved      api.UserSettings
	draft      api.UserSettings
	savedInteg api.Integrations
	draftInteg api.Integrations
}

func NewEditor(settings SettingsClient, integrations IntegrationsClient, session Refresher) *Editor {
	return &Editor{settings: settings, integrations: integrations, session: session}
}

// Load 并发拉取用户设置和集成设置，并丢弃未保存的草稿
// Load fetches user and integration settings together and discards any unsaved draft
func (e *Editor) Load(ctx context.Context) error {
	var (
		us api.UserSettings
		in api.Integrations
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		us, err = e.settings.Get(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		in, err = e.integrations.Get(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.loaded = true
	e.saved, e.draft = us, us
	e.savedInteg, e.draftInteg = in, in
	return nil
}

func (e *Editor) Loaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded
}

// Draft 返回当前草稿 / Draft returns the current draft
func (e *Editor) Draft() (api.UserSettings, api.Integrations) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft, e.draftInteg
}

func (e *Editor) Dirty() bool {
	su, iu := e.changes()
	return !su.Empty() || !iu.Empty()
}

func (e *Editor) Reset() {
	e.mu.Lock()
	e.draft, e.draftInteg = e.saved, e.savedInteg
	e.mu.Unlock()
}

// Set 修改草稿中的一个键，不发请求
// Set edits one key of the draft without any request
func (e *Editor) Set(key, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return ErrNotLoaded
	}
	key = strings.ToLower(strings.TrimSpace(key))
	value = strings.TrimSpace(value)
	switch key {
	case KeyGitHubRepo, "repo":
		e.draft.GitHubRepo = value
	case KeyGitHubSync:
		b, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		e.draft.GitHubSyncEnabled = b
	case KeyEmailNotification, "email":
		b, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		e.draft.EmailNotificationEnabled = b
	case KeyAutoBackup:
		b, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		e.draftInteg.AutoBackupEnabled = b
	case KeyIncludeImages:
		b, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		e.draftInteg.IncludeImages = b
	case KeyFrequency, "backup_frequency":
		f := strings.ToLower(value)
		if !validFrequency(f) {
			return fmt.Errorf("%s: must be one of %s", key, strings.Join(api.BackupFrequencies, ", "))
		}
		e.draftInteg.BackupFrequency = f
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

// Save 提交草稿。仓库名变化时先检查是否存在，存在则需 confirm 同意，否则返回 ErrNotConfirmed 且不发 PUT。
// Save submits the draft. A changed repository name is checked first; an existing
// repository needs confirm's consent or Save returns ErrNotConfirmed without a PUT.
func (e *Editor) Save(ctx context.Context, confirm ConfirmFunc) (SaveResult, error) {
	if !e.Loaded() {
		return SaveResult{}, ErrNotLoaded
	}
	su, iu := e.changes()
	if su.Empty() && iu.Empty() {
		return SaveResult{}, ErrNoChanges
	}

	var result SaveResult
	if su.GitHubRepo != nil && *su.GitHubRepo != "" {
		check, err := e.settings.CheckRepo(ctx, *su.GitHubRepo)
		if err != nil {
			return SaveResult{}, fmt.Errorf("check repository: %w", err)
		}
		result.RepoCheck = &check
		if check.Exists {
			ok := false
			if confirm != nil {
				ok, err = confirm(ctx, check)
				if err != nil {
					return result, err
				}
			}
			if !ok {
				return result, ErrNotConfirmed
			}
		}
	}

	e.mu.Lock()
	result.Settings, result.Integrations = e.saved, e.savedInteg
	e.mu.Unlock()

	if !su.Empty() {
		updated, err := e.settings.Update(ctx, su)
		if err != nil {
			return result, err
		}
		e.mu.Lock()
		e.saved = updated
		e.draft.GitHubRepo = updated.GitHubRepo
		e.draft.GitHubSyncEnabled = updated.GitHubSyncEnabled
		e.draft.EmailNotificationEnabled = updated.EmailNotificationEnabled
		e.mu.Unlock()
		result.Settings = updated
	}
	if !iu.Empty() {
		updated, err := e.integrations.Update(ctx, iu)
		if err != nil {
			e.refresh(ctx)
			return result, err
		}
		e.mu.Lock()
		e.savedInteg, e.draftInteg = updated, updated
		e.mu.Unlock()
		result.Integrations = updated
	}
	e.refresh(ctx)
	return result, nil
}

// ToggleEmail 立即切换邮件通知；成功后才更新本地状态
// ToggleEmail flips email notifications right away; local state changes only after the server accepts
func (e *Editor) ToggleEmail(ctx context.Context) (bool, error) {
	e.mu.Lock()
	if !e.loaded {
		e.mu.Unlock()
		return false, ErrNotLoaded
	}
	next := !e.saved.EmailNotificationEnabled
	e.mu.Unlock()

	updated, err := e.settings.Update(ctx, api.SettingsUpdate{EmailNotificationEnabled: api.Bool(next)})
	if err != nil {
		return false, err
	}
	e.mu.Lock()
	e.saved.EmailNotificationEnabled = updated.EmailNotificationEnabled
	e.draft.EmailNotificationEnabled = updated.EmailNotificationEnabled
	e.mu.Unlock()
	e.refresh(ctx)
	return updated.EmailNotificationEnabled, nil
}

func (e *Editor) changes() (api.SettingsUpdate, api.IntegrationsUpdate) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var su api.SettingsUpdate
	var iu api.IntegrationsUpdate
	if !e.loaded {
		return su, iu
	}
	if strings.TrimSpace(e.draft.GitHubRepo) != strings.TrimSpace(e.saved.GitHubRepo) {
		su.GitHubRepo = api.String(strings.TrimSpace(e.draft.GitHubRepo))
	}
	if e.draft.GitHubSyncEnabled != e.saved.GitHubSyncEnabled {
		su.GitHubSyncEnabled = api.Bool(e.draft.GitHubSyncEnabled)
	}
	if e.draft.EmailNotificationEnabled != e.saved.EmailNotificationEnabled {
		su.EmailNotificationEnabled = api.Bool(e.draft.EmailNotificationEnabled)
	}
	if e.draftInteg.AutoBackupEnabled != e.savedInteg.AutoBackupEnabled {
		iu.AutoBackupEnabled = api.Bool(e.draftInteg.AutoBackupEnabled)
	}
	if e.draftInteg.IncludeImages != e.savedInteg.IncludeImages {
		iu.IncludeImages = api.Bool(e.draftInteg.IncludeImages)
	}
	if e.draftInteg.BackupFrequency != e.savedInteg.BackupFrequency {
		iu.BackupFrequency = api.String(e.draftInteg.BackupFrequency)
	}
	return su, iu
}

func (e *Editor) refresh(ctx context.Context) {
	if e.session == nil {
		return
	}
	if err := e.session.Refresh(ctx); err != nil {
		slog.Warn("refresh session after settings change", slog.String("err", err.Error()))
	}
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "on", "yes", "y":
		return true, nil
	case "off", "no", "n":
		return false, nil
	}
	return strconv.ParseBool(v)
}

func validFrequency(f string) bool {
	for _, allowed := range api.BackupFrequencies {
		if f == allowed {
			return true
		}
	}
	return false
}
