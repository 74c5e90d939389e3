package bootstrap

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vbackup/internal/config"
	"vbackup/internal/session"
	"vbackup/internal/storage"
)

func TestBuildSuccessWithTempDir(t *testing.T) {
	tmp := t.TempDir()
	cfg := config.Default()
	cfg.Storage.BaseDir = filepath.Join(tmp, "data")
	cfg.API.BaseURL = "http://127.0.0.1:1"

	var out bytes.Buffer
	res, err := Build(cfg, Options{Out: &out})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer res.Close()

	if res.App == nil || res.Session == nil || res.Client == nil || res.Store == nil {
		t.Fatalf("incomplete build result: %+v", res)
	}
	if got := res.Store.Path(); got != filepath.Join(cfg.Storage.BaseDir, DBFileName) {
		t.Fatalf("db path = %q", got)
	}
	if _, err := os.Stat(filepath.Join(cfg.Storage.BaseDir, "logs")); err != nil {
		t.Fatalf("log dir missing: %v", err)
	}
	if res.Session.State() != session.Unresolved {
		t.Fatalf("session state = %v, want unresolved", res.Session.State())
	}
}

func TestBuildWithoutTokenStartsAnonymous(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.BaseDir = t.TempDir()
	cfg.API.BaseURL = "http://127.0.0.1:1"

	var out bytes.Buffer
	res, err := Build(cfg, Options{Out: &out, SkipLogInit: true})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer res.Close()

	res.App.Start(context.Background(), "/dashboard")
	if res.Session.State() != session.Anonymous {
		t.Fatalf("session state = %v, want anonymous", res.Session.State())
	}
	if res.App.Route() != session.RouteEntry {
		t.Fatalf("route = %q, want entry", res.App.Route())
	}
}

func TestBuildUnwritableBaseDirFails(t *testing.T) {
	tmp := t.TempDir()
	blocker := filepath.Join(tmp, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Storage.BaseDir = filepath.Join(blocker, "nested")

	_, err := Build(cfg, Options{Out: &bytes.Buffer{}, SkipLogInit: true})
	if err == nil {
		t.Fatal("Build under a regular file should fail")
	}
	if !strings.Contains(err.Error(), "storage") {
		t.Fatalf("expected storage-related error: %v", err)
	}
}

func TestTerminalConfirmer(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"예\n", true},
		{"\n", false},
		{"no\n", false},
		{"", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		c := NewTerminalConfirmer(strings.NewReader(tt.input), &out)
		got, err := c.Confirm(context.Background(), "Delete?")
		if err != nil {
			t.Fatalf("Confirm(%q): %v", tt.input, err)
		}
		if got != tt.want {
			t.Fatalf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if !strings.Contains(out.String(), "Delete? (y/N)") {
			t.Fatalf("prompt not written: %q", out.String())
		}
	}
}

type stubPrompter struct{ prompts []string }

func (s *stubPrompter) PromptConfirm(_ context.Context, prompt string) (bool, error) {
	s.prompts = append(s.prompts, prompt)
	return true, nil
}

func TestTerminalConfirmerPrefersContextPrompter(t *testing.T) {
	var out bytes.Buffer
	c := NewTerminalConfirmer(strings.NewReader("n\n"), &out)
	p := &stubPrompter{}

	ok, err := c.Confirm(WithConfirmPrompter(context.Background(), p), "Disconnect?")
	if err != nil || !ok {
		t.Fatalf("Confirm = %v, %v", ok, err)
	}
	if len(p.prompts) != 1 || out.Len() != 0 {
		t.Fatalf("prompter not used: prompts=%v out=%q", p.prompts, out.String())
	}
}

func TestStoreKeysSurviveRebuild(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.BaseDir = t.TempDir()

	res, err := Build(cfg, Options{Out: &bytes.Buffer{}, SkipLogInit: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := res.App.SetTheme("light"); err != nil {
		t.Fatal(err)
	}
	res.Close()

	res, err = Build(cfg, Options{Out: &bytes.Buffer{}, SkipLogInit: true})
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()
	if got, _ := res.Store.Get(storage.KeyTheme); got != "light" {
		t.Fatalf("theme = %q, want light", got)
	}
	if res.App.Theme().Name != "light" {
		t.Fatalf("app theme = %q", res.App.Theme().Name)
	}
}
