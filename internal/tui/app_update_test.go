package tui

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"vbackup/internal/api"
	"vbackup/internal/i18n"
)

func TestMain(m *testing.M) {
	i18n.Init("en")
	os.Exit(m.Run())
}

type fakeBackend struct {
	mu        sync.Mutex
	data      DashboardData
	loadErr   error
	triggers  int
	downloads []string
	themes    []string
}

func (f *fakeBackend) LoadDashboard(context.Context) (DashboardData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data, f.loadErr
}

func (f *fakeBackend) TriggerBackup(context.Context, bool, api.Destination) error {
	f.mu.Lock()
	f.triggers++
	f.mu.Unlock()
	return nil
}

func (f *fakeBackend) DownloadArchive(_ context.Context, dir string) (string, error) {
	f.mu.Lock()
	f.downloads = append(f.downloads, dir)
	f.mu.Unlock()
	return dir + "/velog_backup.zip", nil
}

func (f *fakeBackend) SetTheme(name string) error {
	f.themes = append(f.themes, name)
	return nil
}

func keyMsg(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func loadedApp(t *testing.T, backend *fakeBackend) App {
	t.Helper()
	app := NewApp(context.Background(), backend, DarkTheme(), "/tmp/dl")
	m, _ := app.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	m, _ = m.(App).Update(dashboardMsg{data: backend.data})
	return m.(App)
}

func TestAppUpdate_LoadFillsRows(t *testing.T) {
	backend := &fakeBackend{data: DashboardData{
		User: api.User{ID: 1, Email: "me@example.com"},
		Stats: api.BackupStats{
			TotalPosts: 3,
			RecentLogs: []api.BackupLog{{ID: 1, Status: api.StatusSuccess}, {ID: 2, Status: api.StatusFailed}},
		},
		ShowGuide: true,
	}}
	app := loadedApp(t, backend)
	if !app.loaded || app.busy != "" {
		t.Fatalf("loaded=%v busy=%q", app.loaded, app.busy)
	}
	if got := len(app.logs.Rows()); got != 2 {
		t.Fatalf("rows=%d, want 2", got)
	}
	view := app.View()
	for _, want := range []string{"Total posts: 3", "me@example.com", "Getting started"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestAppUpdate_BackupRequiresDestination(t *testing.T) {
	backend := &fakeBackend{}
	app := loadedApp(t, backend)

	m, cmd := app.Update(keyMsg('b'))
	updated := m.(App)
	if updated.busy != "" || cmd != nil {
		t.Fatalf("backup should be disabled without a destination")
	}
	if updated.notice.Level != NoticeWarn {
		t.Fatalf("expected warning notice, got %+v", updated.notice)
	}
}

func TestAppUpdate_BackupInFlightIsDisabled(t *testing.T) {
	backend := &fakeBackend{data: DashboardData{Stats: api.BackupStats{GitHubConnected: true}}}
	app := loadedApp(t, backend)

	m, cmd := app.Update(keyMsg('b'))
	updated := m.(App)
	if updated.busy != "backup" || cmd == nil {
		t.Fatalf("busy=%q cmd=%v", updated.busy, cmd)
	}

	m, cmd = updated.Update(keyMsg('b'))
	again := m.(App)
	if cmd != nil || again.notice.Text != "A backup request is already being sent" {
		t.Fatalf("second trigger should be refused, notice=%+v", again.notice)
	}

	m, cmd = again.Update(triggerDoneMsg{})
	done := m.(App)
	if done.busy != "load" || cmd == nil {
		t.Fatalf("trigger completion should reload, busy=%q", done.busy)
	}

	m, _ = done.Update(triggerDoneMsg{err: errors.New("boom")})
	if m.(App).busy != "" {
		t.Fatalf("failed trigger should clear busy")
	}
}

func TestAppUpdate_StatsMsgReplacesRows(t *testing.T) {
	backend := &fakeBackend{}
	app := loadedApp(t, backend)

	stats := api.BackupStats{RecentLogs: []api.BackupLog{{ID: 5, Status: api.StatusInProgress}}}
	m, cmd := app.Update(StatsMsg{Stats: stats, Polling: true})
	updated := m.(App)
	if !updated.data.Polling || cmd == nil {
		t.Fatalf("polling should start the spinner")
	}
	if len(updated.logs.Rows()) != 1 || updated.logs.Rows()[0][1] != "In progress" {
		t.Fatalf("rows=%v", updated.logs.Rows())
	}
}

func TestAppUpdate_ThemeAndQuit(t *testing.T) {
	backend := &fakeBackend{}
	app := loadedApp(t, backend)

	m, _ := app.Update(keyMsg('t'))
	updated := m.(App)
	if updated.theme.Name != "light" || len(backend.themes) != 1 || backend.themes[0] != "light" {
		t.Fatalf("theme=%q saved=%v", updated.theme.Name, backend.themes)
	}

	_, cmd := updated.Update(keyMsg('q'))
	if cmd == nil {
		t.Fatal("quit should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("quit command should produce tea.QuitMsg")
	}
}

func TestAppUpdate_DownloadUsesConfiguredDir(t *testing.T) {
	backend := &fakeBackend{}
	app := loadedApp(t, backend)

	m, cmd := app.Update(keyMsg('d'))
	if m.(App).busy != "download" || cmd == nil {
		t.Fatalf("download should mark busy")
	}
	msg := m.(App).downloadCmd()()
	done, ok := msg.(downloadDoneMsg)
	if !ok || done.path != "/tmp/dl/velog_backup.zip" {
		t.Fatalf("unexpected msg %#v", msg)
	}
	m, _ = m.(App).Update(done)
	if m.(App).busy != "" {
		t.Fatal("download completion should clear busy")
	}
}
