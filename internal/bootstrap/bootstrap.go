package bootstrap

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"vbackup/internal/api"
	"vbackup/internal/app"
	"vbackup/internal/config"
	"vbackup/internal/logx"
	"vbackup/internal/permission"
	"vbackup/internal/session"
	"vbackup/internal/storage"
	"vbackup/internal/velog"
)

// DBFileName 位于 storage.base_dir 下 / DBFileName lives under storage.base_dir
const DBFileName = "vbackup.db"

// Options 由 main 提供的 UI 相关依赖
// Options carries the UI-facing pieces main supplies
type Options struct {
	Out       io.Writer
	Notifier  app.Notifier
	Confirmer app.Confirmer
	Width     int
	// SkipLogInit 测试中保留默认 slog / SkipLogInit keeps the default slog in tests
	SkipLogInit bool
}

// BuildResult 与 UI 无关的构建结果，供 main 构造 REPL 或 TUI
// BuildResult is UI-agnostic; main uses it to construct the REPL or the TUI
type BuildResult struct {
	Config  config.Config
	App     *app.App
	Session *session.Store
	Client  *api.Client
	Store   *storage.SQLiteStore
	Policy  *permission.Policy

	logCloser io.Closer
}

// Build 按顺序初始化并返回 BuildResult；调用方负责 defer result.Close()
// Build initializes in order and returns BuildResult; caller must defer result.Close()
func Build(cfg config.Config, opts Options) (*BuildResult, error) {
	res := &BuildResult{Config: cfg}

	if !opts.SkipLogInit {
		closer, err := logx.Init(logx.Options{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
			Dir:    filepath.Join(cfg.Storage.BaseDir, "logs"),
			MaxMB:  cfg.Storage.LogMaxMB,
		})
		if err != nil {
			return nil, fmt.Errorf("init log: %w", err)
		}
		res.logCloser = closer
	}

	sqliteStore, err := storage.NewSQLiteStore(filepath.Join(cfg.Storage.BaseDir, DBFileName))
	if err != nil {
		res.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	res.Store = sqliteStore

	// 会话存储先于 App 创建，凭证清除的回调延迟绑定
	// The session store exists before the App, so the cleared callback binds late
	var coordinator *app.App
	res.Session = session.New(sqliteStore, storage.NewMemoryKV(), nil, nil, session.Options{
		OnCleared: func() {
			if coordinator != nil {
				coordinator.SessionCleared()
			}
		},
	})

	res.Client = api.NewClient(cfg.API, res.Session)
	res.Client.SetUnauthorizedHandler(res.Session.HandleUnauthorized)
	res.Session.SetUserFetcher(res.Client.Auth())

	res.Policy = permission.New(cfg.Confirm)
	confirmer := opts.Confirmer
	if confirmer == nil {
		confirmer = NewTerminalConfirmer(nil, opts.Out)
	}

	coordinator = app.New(app.Options{
		Config:    cfg,
		Client:    res.Client,
		Session:   res.Session,
		Store:     sqliteStore,
		Policy:    res.Policy,
		Velog:     velog.NewClient("", time.Duration(cfg.API.TimeoutMS)*time.Millisecond),
		Notifier:  opts.Notifier,
		Confirmer: confirmer,
		Out:       opts.Out,
		Width:     opts.Width,
	})
	res.App = coordinator

	slog.Info("vbackup ready",
		slog.String("api", cfg.API.BaseURL),
		slog.String("db", sqliteStore.Path()),
		slog.String("confirm", res.Policy.Summary()))
	return res, nil
}

// Close 停止轮询并关闭数据库与日志文件
// Close stops polling and closes the database and the log file
func (r *BuildResult) Close() error {
	if r == nil {
		return nil
	}
	if r.App != nil {
		r.App.Close()
	}
	var firstErr error
	if r.Store != nil {
		if err := r.Store.Close(); err != nil {
			firstErr = err
		}
	}
	if r.logCloser != nil {
		if err := r.logCloser.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
