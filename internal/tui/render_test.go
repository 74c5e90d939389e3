package tui

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"

	"vbackup/internal/api"
)

func TestRenderMarkdown_Basic(t *testing.T) {
	input := "# Hello\n\nThis is **bold** text."
	result := RenderMarkdown(input, 80)
	if result == "" {
		t.Fatal("RenderMarkdown returned empty")
	}
	// Glamour 应该渲染了标题 / Glamour should have rendered the heading
	if !strings.Contains(result, "Hello") {
		t.Fatalf("result should contain 'Hello': %q", result)
	}
}

func TestRenderMarkdown_Empty(t *testing.T) {
	if RenderMarkdown("", 80) != "" {
		t.Fatal("empty input should return empty")
	}
	if DarkTheme().Markdown("  ", 80) != "" {
		t.Fatal("whitespace input should return empty")
	}
}

func TestThemeMarkdown_CodeBlock(t *testing.T) {
	input := "```go\nfunc main() {}\n```"
	for _, theme := range []Theme{DarkTheme(), LightTheme()} {
		result := theme.Markdown(input, 80)
		if !strings.Contains(result, "func") {
			t.Fatalf("%s: code block should contain 'func': %q", theme.Name, result)
		}
	}
}

func TestThemeByNameAndToggle(t *testing.T) {
	if ThemeByName("LIGHT").Name != "light" {
		t.Fatal("light theme not selected")
	}
	if ThemeByName("solarized").Name != "dark" {
		t.Fatal("unknown theme should fall back to dark")
	}
	if DarkTheme().Toggle().Name != "light" || LightTheme().Toggle().Name != "dark" {
		t.Fatal("toggle should switch themes")
	}
}

func TestTruncateCountsWideRunes(t *testing.T) {
	got := Truncate("벨로그 백업 완료 메시지", 10)
	if w := runewidth.StringWidth(got); w > 10 {
		t.Fatalf("width=%d > 10: %q", w, got)
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("expected ellipsis: %q", got)
	}
	if Truncate("line1\nline2", 20) != "line1 line2" {
		t.Fatal("newlines should be flattened")
	}
}

func TestRenderLogs(t *testing.T) {
	theme := DarkTheme()
	if !strings.Contains(RenderLogs(nil, theme, 80), "No backups") {
		t.Fatal("empty log list should render the placeholder")
	}

	logs := []api.BackupLog{
		{ID: 1, Status: api.StatusSuccess, Destination: api.DestinationGitHub, PostsTotal: 10, PostsBackedUp: 9, Message: "done"},
		{ID: 2, Status: api.StatusInProgress, Destination: api.DestinationGoogleDrive},
	}
	out := RenderLogs(logs, theme, 100)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d: %q", len(lines), out)
	}
	if !strings.Contains(lines[1], "9/10") || !strings.Contains(lines[1], "GitHub") {
		t.Fatalf("row 1 missing cells: %q", lines[1])
	}
	if !strings.Contains(lines[2], "In progress") || !strings.Contains(lines[2], "Google Drive") {
		t.Fatalf("row 2 missing cells: %q", lines[2])
	}
}
