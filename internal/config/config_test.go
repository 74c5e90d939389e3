package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func isolate(t *testing.T) (home, work string) {
	t.Helper()
	home = t.TempDir()
	t.Setenv("HOME", home)
	work = t.TempDir()
	oldwd, _ := os.Getwd()
	if err := os.Chdir(work); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldwd) })
	return home, work
}

func TestLoadJSONCAndPrecedence(t *testing.T) {
	home, _ := isolate(t)

	globalDir := filepath.Join(home, ".vbackup")
	if err := os.MkdirAll(globalDir, 0o755); err != nil {
		t.Fatal(err)
	}
	globalCfg := `{
  // global
  "api": {"base_url": "https://global.example.com/"},
  "dashboard": {"poll_interval_ms": 5000},
  "ui": {"tui": true}
}`
	if err := os.WriteFile(filepath.Join(globalDir, "config.json"), []byte(globalCfg), 0o644); err != nil {
		t.Fatal(err)
	}
	projectCfg := `{
  /* project wins */
  "api": {"base_url": "https://project.example.com"},
  "ui": {"tui": false}
}`
	if err := os.WriteFile("vbackup.config.json", []byte(projectCfg), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.API.BaseURL != "https://project.example.com" {
		t.Fatalf("base_url=%q", cfg.API.BaseURL)
	}
	if cfg.Dashboard.PollIntervalMS != 5000 {
		t.Fatalf("poll_interval_ms=%d", cfg.Dashboard.PollIntervalMS)
	}
	if cfg.UI.TUI {
		t.Fatalf("ui.tui expected false")
	}
}

func TestLoadYAML(t *testing.T) {
	isolate(t)
	yamlCfg := `
api:
  base_url: https://yaml.example.com
posts:
  page_size: 50
confirm:
  delete_post: deny
`
	if err := os.WriteFile("vbackup.config.yaml", []byte(yamlCfg), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.API.BaseURL != "https://yaml.example.com" {
		t.Fatalf("base_url=%q", cfg.API.BaseURL)
	}
	if cfg.Posts.PageSize != 50 {
		t.Fatalf("page_size=%d", cfg.Posts.PageSize)
	}
	if cfg.Confirm.DeletePost != "deny" {
		t.Fatalf("confirm.delete_post=%q", cfg.Confirm.DeletePost)
	}
}

func TestEnvOverride(t *testing.T) {
	isolate(t)
	t.Setenv("VBACKUP_API_URL", "https://env.example.com")
	t.Setenv("VBACKUP_POLL_INTERVAL_MS", "1500")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.API.BaseURL != "https://env.example.com" {
		t.Fatalf("base_url=%q", cfg.API.BaseURL)
	}
	if cfg.Dashboard.PollIntervalMS != 1500 {
		t.Fatalf("poll_interval_ms=%d", cfg.Dashboard.PollIntervalMS)
	}
}

func TestEnvOverrideRejectsBadInterval(t *testing.T) {
	isolate(t)
	t.Setenv("VBACKUP_POLL_INTERVAL_MS", "soon")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for invalid poll interval")
	}
}

func TestNormalizeRepairsInvalidValues(t *testing.T) {
	home, _ := isolate(t)
	projectCfg := `{
  "posts": {"page_size": 1000},
  "confirm": {"default": "maybe", "disconnect": "ALLOW"},
  "log": {"format": "xml"},
  "ui": {"theme": "neon"},
  "storage": {"base_dir": "~/custom"}
}`
	if err := os.WriteFile("vbackup.config.json", []byte(projectCfg), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Posts.PageSize != 20 {
		t.Fatalf("page_size=%d, want 20", cfg.Posts.PageSize)
	}
	if cfg.Confirm.Default != "ask" || cfg.Confirm.Disconnect != "allow" {
		t.Fatalf("confirm=%+v", cfg.Confirm)
	}
	if cfg.Log.Format != "text" {
		t.Fatalf("log.format=%q", cfg.Log.Format)
	}
	if cfg.UI.Theme != "dark" {
		t.Fatalf("ui.theme=%q", cfg.UI.Theme)
	}
	if cfg.Storage.BaseDir != filepath.Join(home, "custom") {
		t.Fatalf("storage.base_dir=%q", cfg.Storage.BaseDir)
	}
}

func TestLoadRejectsNonHTTPBaseURL(t *testing.T) {
	isolate(t)
	if err := os.WriteFile("vbackup.config.json", []byte(`{"api":{"base_url":"ftp://x"}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for ftp base url")
	}
}

func TestWriteAPIBaseURLKeepsOtherFields(t *testing.T) {
	_, work := isolate(t)
	dir := filepath.Join(work, ".vbackup")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"posts":{"page_size":7}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteAPIBaseURL(work, "https://api.example.com/"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["api"]["base_url"] != "https://api.example.com" {
		t.Fatalf("api=%v", raw["api"])
	}
	if raw["posts"]["page_size"] != float64(7) {
		t.Fatalf("posts=%v", raw["posts"])
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.API.BaseURL != "https://api.example.com" || cfg.Posts.PageSize != 7 {
		t.Fatalf("cfg api=%q page_size=%d", cfg.API.BaseURL, cfg.Posts.PageSize)
	}
}

func TestInitProjectConfigScaffoldIsIdempotent(t *testing.T) {
	_, work := isolate(t)
	path, err := InitProjectConfigScaffold(work)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(`{"posts":{"page_size":3}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	again, err := InitProjectConfigScaffold(work)
	if err != nil {
		t.Fatal(err)
	}
	if again != path {
		t.Fatalf("path=%q, want %q", again, path)
	}
	data, _ := os.ReadFile(path)
	if string(data) != `{"posts":{"page_size":3}}` {
		t.Fatalf("scaffold overwrote existing file: %s", data)
	}
}

func TestStripJSONCommentsKeepsStrings(t *testing.T) {
	in := []byte(`{"url": "http://x//y", /* c */ "a": 1 // tail
}`)
	var out map[string]any
	if err := json.Unmarshal(stripJSONComments(in), &out); err != nil {
		t.Fatal(err)
	}
	if out["url"] != "http://x//y" {
		t.Fatalf("url=%v", out["url"])
	}
}
