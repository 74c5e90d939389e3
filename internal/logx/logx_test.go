package logx

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPrettyHandlerFormatsAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewPrettyHandler(&buf, slog.LevelInfo)).With("route", "/dashboard")
	logger.Debug("hidden")
	logger.Warn("poll failed", slog.Int("status", 500))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug record should be filtered: %q", out)
	}
	for _, want := range []string{"[WARN]", "poll failed", "route=/dashboard", "status=500"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
}

func TestParseSlogLevelSilent(t *testing.T) {
	h := NewPrettyHandler(&bytes.Buffer{}, parseSlogLevel("off"))
	if h.Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("silent level should disable error records")
	}
}

func TestInitWritesLogFile(t *testing.T) {
	dir := t.TempDir()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	closer, err := Init(Options{Level: "debug", Format: "json", Dir: dir})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	Infof("backup triggered id=%d", 7)
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "vbackup.log"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"msg":"backup triggered id=7"`) {
		t.Fatalf("unexpected log content: %s", data)
	}
}

func TestInitRotatesOversizedFile(t *testing.T) {
	dir := t.TempDir()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(dir, "vbackup.log")
	if err := os.WriteFile(path, bytes.Repeat([]byte("x"), (1<<20)+1), 0o644); err != nil {
		t.Fatal(err)
	}
	closer, err := Init(Options{Dir: dir, MaxMB: 1})
	if err != nil {
		t.Fatal(err)
	}
	_ = closer.Close()
	if _, err := os.Stat(path + ".1"); err != nil {
		t.Fatalf("expected rotated file: %v", err)
	}
}
