package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type APIConfig struct {
	BaseURL   string `json:"base_url" yaml:"base_url"`
	TimeoutMS int    `json:"timeout_ms" yaml:"timeout_ms"`
	// MePath 是 who-am-I 接口路径；部分后端部署为 /auth/me。
	// MePath is the who-am-I endpoint path; some backends expose it as /auth/me.
	MePath string `json:"me_path" yaml:"me_path"`
}

type OAuthConfig struct {
	GitHubClientID string `json:"github_client_id" yaml:"github_client_id"`
	GoogleClientID string `json:"google_client_id" yaml:"google_client_id"`
	// CallbackAddr 是本地回调监听地址，留空则只能手动粘贴回调 URL。
	// CallbackAddr is the loopback listener address; empty means the callback URL must be pasted manually.
	CallbackAddr string `json:"callback_addr" yaml:"callback_addr"`
	CallbackPath string `json:"callback_path" yaml:"callback_path"`
	TimeoutMS    int    `json:"timeout_ms" yaml:"timeout_ms"`
}

type DashboardConfig struct {
	PollIntervalMS int `json:"poll_interval_ms" yaml:"poll_interval_ms"`
	LogLimit       int `json:"log_limit" yaml:"log_limit"`
}

type PostsConfig struct {
	PageSize int `json:"page_size" yaml:"page_size"`
}

type DownloadConfig struct {
	Dir string `json:"dir" yaml:"dir"`
}

// ConfirmConfig 为每种破坏性操作配置 allow/ask/deny。
// ConfirmConfig sets allow/ask/deny per destructive action.
type ConfirmConfig struct {
	Default       string `json:"default" yaml:"default"`
	Relink        string `json:"relink" yaml:"relink"`
	DeletePost    string `json:"delete_post" yaml:"delete_post"`
	Disconnect    string `json:"disconnect" yaml:"disconnect"`
	OverwriteRepo string `json:"overwrite_repo" yaml:"overwrite_repo"`
}

type StorageConfig struct {
	BaseDir  string `json:"base_dir" yaml:"base_dir"`
	LogMaxMB int    `json:"log_max_mb" yaml:"log_max_mb"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

type UIConfig struct {
	Locale string `json:"locale" yaml:"locale"`
	Theme  string `json:"theme" yaml:"theme"`
	TUI    bool   `json:"tui" yaml:"tui"`
}

type Config struct {
	API       APIConfig       `json:"api" yaml:"api"`
	OAuth     OAuthConfig     `json:"oauth" yaml:"oauth"`
	Dashboard DashboardConfig `json:"dashboard" yaml:"dashboard"`
	Posts     PostsConfig     `json:"posts" yaml:"posts"`
	Download  DownloadConfig  `json:"download" yaml:"download"`
	Confirm   ConfirmConfig   `json:"confirm" yaml:"confirm"`
	Storage   StorageConfig   `json:"storage" yaml:"storage"`
	Log       LogConfig       `json:"log" yaml:"log"`
	UI        UIConfig        `json:"ui" yaml:"ui"`
}

type fileUIConfig struct {
	Locale *string `json:"locale" yaml:"locale"`
	Theme  *string `json:"theme" yaml:"theme"`
	TUI    *bool   `json:"tui" yaml:"tui"`
}

type fileConfig struct {
	API       *APIConfig       `json:"api" yaml:"api"`
	OAuth     *OAuthConfig     `json:"oauth" yaml:"oauth"`
	Dashboard *DashboardConfig `json:"dashboard" yaml:"dashboard"`
	Posts     *PostsConfig     `json:"posts" yaml:"posts"`
	Download  *DownloadConfig  `json:"download" yaml:"download"`
	Confirm   *ConfirmConfig   `json:"confirm" yaml:"confirm"`
	Storage   *StorageConfig   `json:"storage" yaml:"storage"`
	Log       *LogConfig       `json:"log" yaml:"log"`
	UI        *fileUIConfig    `json:"ui" yaml:"ui"`
}

func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL:   DefaultAPIBaseURL,
			TimeoutMS: DefaultAPITimeoutMS,
			MePath:    DefaultMePath,
		},
		OAuth: OAuthConfig{
			CallbackAddr: DefaultCallbackAddr,
			CallbackPath: DefaultCallbackPath,
			TimeoutMS:    DefaultOAuthTimeoutMS,
		},
		Dashboard: DashboardConfig{
			PollIntervalMS: DefaultPollIntervalMS,
			LogLimit:       DefaultDashboardLogRows,
		},
		Posts: PostsConfig{
			PageSize: DefaultPageSize,
		},
		Download: DownloadConfig{
			Dir: ".",
		},
		Confirm: ConfirmConfig{
			Default:       "ask",
			Relink:        "ask",
			DeletePost:    "ask",
			Disconnect:    "ask",
			OverwriteRepo: "ask",
		},
		Storage: StorageConfig{
			BaseDir:  "~/.vbackup",
			LogMaxMB: DefaultLogMaxMB,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		UI: UIConfig{
			Locale: "ko",
			Theme:  "dark",
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	for _, globalPath := range globalConfigPaths() {
		if err := mergeFromFile(&cfg, globalPath); err != nil {
			return Config{}, err
		}
	}

	resolvedPath := strings.TrimSpace(path)
	if envPath := strings.TrimSpace(os.Getenv("VBACKUP_CONFIG_PATH")); envPath != "" {
		resolvedPath = envPath
	}
	if resolvedPath == "" {
		resolvedPath = findProjectConfigPath()
	}
	if err := mergeFromFile(&cfg, resolvedPath); err != nil {
		return Config{}, err
	}

	if err := normalize(&cfg); err != nil {
		return Config{}, err
	}
	return applyEnv(cfg)
}

func globalConfigPaths() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{
		filepath.Join(home, ".vbackup", "config.json"),
		filepath.Join(home, ".vbackup", "config.yaml"),
	}
}

func findProjectConfigPath() string {
	candidates := []string{
		"vbackup.config.json",
		"vbackup.config.yaml",
		".vbackup/config.json",
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

func mergeFromFile(cfg *Config, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}

	resolved, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("expand config path %q: %w", path, err)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %q: %w", resolved, err)
	}

	var fileCfg fileConfig
	switch strings.ToLower(filepath.Ext(resolved)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return fmt.Errorf("parse config %q: %w", resolved, err)
		}
	default:
		if err := json.Unmarshal(stripJSONComments(data), &fileCfg); err != nil {
			return fmt.Errorf("parse config %q: %w", resolved, err)
		}
	}
	applyFileConfig(cfg, fileCfg)
	return nil
}

func applyFileConfig(cfg *Config, fc fileConfig) {
	if fc.API != nil {
		cfg.API = mergeAPI(cfg.API, *fc.API)
	}
	if fc.OAuth != nil {
		cfg.OAuth = mergeOAuth(cfg.OAuth, *fc.OAuth)
	}
	if fc.Dashboard != nil {
		if fc.Dashboard.PollIntervalMS > 0 {
			cfg.Dashboard.PollIntervalMS = fc.Dashboard.PollIntervalMS
		}
		if fc.Dashboard.LogLimit > 0 {
			cfg.Dashboard.LogLimit = fc.Dashboard.LogLimit
		}
	}
	if fc.Posts != nil && fc.Posts.PageSize > 0 {
		cfg.Posts.PageSize = fc.Posts.PageSize
	}
	if fc.Download != nil && strings.TrimSpace(fc.Download.Dir) != "" {
		cfg.Download.Dir = fc.Download.Dir
	}
	if fc.Confirm != nil {
		cfg.Confirm = mergeConfirm(cfg.Confirm, *fc.Confirm)
	}
	if fc.Storage != nil {
		cfg.Storage = mergeStorage(cfg.Storage, *fc.Storage)
	}
	if fc.Log != nil {
		if strings.TrimSpace(fc.Log.Level) != "" {
			cfg.Log.Level = fc.Log.Level
		}
		if strings.TrimSpace(fc.Log.Format) != "" {
			cfg.Log.Format = fc.Log.Format
		}
	}
	if fc.UI != nil {
		if fc.UI.Locale != nil {
			cfg.UI.Locale = *fc.UI.Locale
		}
		if fc.UI.Theme != nil {
			cfg.UI.Theme = *fc.UI.Theme
		}
		if fc.UI.TUI != nil {
			cfg.UI.TUI = *fc.UI.TUI
		}
	}
}

func mergeAPI(base APIConfig, override APIConfig) APIConfig {
	if strings.TrimSpace(override.BaseURL) != "" {
		base.BaseURL = override.BaseURL
	}
	if override.TimeoutMS > 0 {
		base.TimeoutMS = override.TimeoutMS
	}
	if strings.TrimSpace(override.MePath) != "" {
		base.MePath = override.MePath
	}
	return base
}

func mergeOAuth(base OAuthConfig, override OAuthConfig) OAuthConfig {
	if strings.TrimSpace(override.GitHubClientID) != "" {
		base.GitHubClientID = override.GitHubClientID
	}
	if strings.TrimSpace(override.GoogleClientID) != "" {
		base.GoogleClientID = override.GoogleClientID
	}
	if strings.TrimSpace(override.CallbackAddr) != "" {
		base.CallbackAddr = override.CallbackAddr
	}
	if strings.TrimSpace(override.CallbackPath) != "" {
		base.CallbackPath = override.CallbackPath
	}
	if override.TimeoutMS > 0 {
		base.TimeoutMS = override.TimeoutMS
	}
	return base
}

func mergeConfirm(base ConfirmConfig, override ConfirmConfig) ConfirmConfig {
	if strings.TrimSpace(override.Default) != "" {
		base.Default = override.Default
	}
	if strings.TrimSpace(override.Relink) != "" {
		base.Relink = override.Relink
	}
	if strings.TrimSpace(override.DeletePost) != "" {
		base.DeletePost = override.DeletePost
	}
	if strings.TrimSpace(override.Disconnect) != "" {
		base.Disconnect = override.Disconnect
	}
	if strings.TrimSpace(override.OverwriteRepo) != "" {
		base.OverwriteRepo = override.OverwriteRepo
	}
	return base
}

func mergeStorage(base StorageConfig, override StorageConfig) StorageConfig {
	if strings.TrimSpace(override.BaseDir) != "" {
		base.BaseDir = override.BaseDir
	}
	if override.LogMaxMB > 0 {
		base.LogMaxMB = override.LogMaxMB
	}
	return base
}

func normalize(cfg *Config) error {
	def := Default()
	cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.API.BaseURL), "/")
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = def.API.BaseURL
	}
	if !strings.HasPrefix(cfg.API.BaseURL, "http://") && !strings.HasPrefix(cfg.API.BaseURL, "https://") {
		return fmt.Errorf("api.base_url must start with http:// or https://: %q", cfg.API.BaseURL)
	}
	if cfg.API.TimeoutMS <= 0 {
		cfg.API.TimeoutMS = def.API.TimeoutMS
	}
	cfg.API.MePath = strings.TrimSpace(cfg.API.MePath)
	if cfg.API.MePath == "" {
		cfg.API.MePath = def.API.MePath
	}
	if !strings.HasPrefix(cfg.API.MePath, "/") {
		cfg.API.MePath = "/" + cfg.API.MePath
	}

	cfg.OAuth.CallbackAddr = strings.TrimSpace(cfg.OAuth.CallbackAddr)
	if cfg.OAuth.CallbackPath == "" {
		cfg.OAuth.CallbackPath = def.OAuth.CallbackPath
	}
	if cfg.OAuth.TimeoutMS <= 0 {
		cfg.OAuth.TimeoutMS = def.OAuth.TimeoutMS
	}

	if cfg.Dashboard.PollIntervalMS < MinPollIntervalMS {
		cfg.Dashboard.PollIntervalMS = def.Dashboard.PollIntervalMS
	}
	if cfg.Dashboard.LogLimit <= 0 {
		cfg.Dashboard.LogLimit = def.Dashboard.LogLimit
	}
	if cfg.Posts.PageSize <= 0 || cfg.Posts.PageSize > MaxPageSize {
		cfg.Posts.PageSize = def.Posts.PageSize
	}

	if strings.TrimSpace(cfg.Download.Dir) == "" {
		cfg.Download.Dir = def.Download.Dir
	}
	dir, err := expandPath(cfg.Download.Dir)
	if err != nil {
		return fmt.Errorf("expand download.dir: %w", err)
	}
	cfg.Download.Dir = dir

	cfg.Confirm.Default = normalizeDecision(cfg.Confirm.Default, "ask")
	cfg.Confirm.Relink = normalizeDecision(cfg.Confirm.Relink, "")
	cfg.Confirm.DeletePost = normalizeDecision(cfg.Confirm.DeletePost, "")
	cfg.Confirm.Disconnect = normalizeDecision(cfg.Confirm.Disconnect, "")
	cfg.Confirm.OverwriteRepo = normalizeDecision(cfg.Confirm.OverwriteRepo, "")

	if strings.TrimSpace(cfg.Storage.BaseDir) == "" {
		cfg.Storage.BaseDir = def.Storage.BaseDir
	}
	base, err := expandPath(cfg.Storage.BaseDir)
	if err != nil {
		return fmt.Errorf("expand storage.base_dir: %w", err)
	}
	cfg.Storage.BaseDir = base
	if cfg.Storage.LogMaxMB <= 0 {
		cfg.Storage.LogMaxMB = def.Storage.LogMaxMB
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Log.Format)) {
	case "json", "text", "pretty":
		cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	default:
		cfg.Log.Format = def.Log.Format
	}
	if strings.TrimSpace(cfg.Log.Level) == "" {
		cfg.Log.Level = def.Log.Level
	}

	switch strings.ToLower(strings.TrimSpace(cfg.UI.Theme)) {
	case "light", "dark":
		cfg.UI.Theme = strings.ToLower(strings.TrimSpace(cfg.UI.Theme))
	default:
		cfg.UI.Theme = def.UI.Theme
	}
	if strings.TrimSpace(cfg.UI.Locale) == "" {
		cfg.UI.Locale = def.UI.Locale
	}
	return nil
}

func applyEnv(cfg Config) (Config, error) {
	if v := strings.TrimSpace(os.Getenv("VBACKUP_API_URL")); v != "" {
		cfg.API.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("VBACKUP_GITHUB_CLIENT_ID")); v != "" {
		cfg.OAuth.GitHubClientID = v
	}
	if v := strings.TrimSpace(os.Getenv("VBACKUP_GOOGLE_CLIENT_ID")); v != "" {
		cfg.OAuth.GoogleClientID = v
	}
	if v := strings.TrimSpace(os.Getenv("VBACKUP_LANG")); v != "" {
		cfg.UI.Locale = v
	}
	if v := strings.TrimSpace(os.Getenv("VBACKUP_POLL_INTERVAL_MS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid VBACKUP_POLL_INTERVAL_MS: %q", v)
		}
		cfg.Dashboard.PollIntervalMS = n
	}
	if v := strings.TrimSpace(os.Getenv("VBACKUP_HOME")); v != "" {
		cfg.Storage.BaseDir = v
	}
	if v := strings.TrimSpace(os.Getenv("VBACKUP_LOG_LEVEL")); v != "" {
		cfg.Log.Level = v
	}

	return cfg, normalize(&cfg)
}

func normalizeDecision(raw, fallback string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "allow", "ask", "deny":
		return strings.ToLower(strings.TrimSpace(raw))
	default:
		return fallback
	}
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		if path == "~" {
			path = home
		} else {
			path = filepath.Join(home, strings.TrimPrefix(path, "~/"))
		}
	}
	return filepath.Abs(path)
}

func stripJSONComments(data []byte) []byte {
	const (
		stateNormal = iota
		stateString
		stateLineComment
		stateBlockComment
	)

	state := stateNormal
	escaped := false
	out := bytes.Buffer{}

	for i := 0; i < len(data); i++ {
		c := data[i]
		next := byte(0)
		if i+1 < len(data) {
			next = data[i+1]
		}

		switch state {
		case stateNormal:
			if c == '"' {
				state = stateString
				out.WriteByte(c)
				continue
			}
			if c == '/' && next == '/' {
				state = stateLineComment
				i++
				continue
			}
			if c == '/' && next == '*' {
				state = stateBlockComment
				i++
				continue
			}
			out.WriteByte(c)
		case stateString:
			out.WriteByte(c)
			if escaped {
				escaped = false
				continue
			}
			if c == '\\' {
				escaped = true
				continue
			}
			if c == '"' {
				state = stateNormal
			}
		case stateLineComment:
			if c == '\n' {
				state = stateNormal
				out.WriteByte(c)
			}
		case stateBlockComment:
			if c == '*' && next == '/' {
				state = stateNormal
				i++
			}
		}
	}

	return out.Bytes()
}
