package tui

import (
	"context"
	"fmt"
	"strings"

	"vbackup/internal/api"
	"vbackup/internal/i18n"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// NoticeLevel 通知级别 / NoticeLevel is the severity of a notification
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeSuccess
	NoticeWarn
	NoticeError
)

// Style 返回通知级别对应的样式
// Style returns the style used for a notice level
func (l NoticeLevel) Style(t Theme) lipgloss.Style {
	switch l {
	case NoticeSuccess:
		return t.SuccessStyle
	case NoticeWarn:
		return t.WarningStyle
	case NoticeError:
		return t.ErrorStyle
	default:
		return t.InfoStyle
	}
}

// DashboardData 仪表盘一次完整加载的结果
// DashboardData is the result of one complete dashboard load
type DashboardData struct {
	User      api.User
	Stats     api.BackupStats
	ShowGuide bool
	Polling   bool
}

// Backend 仪表盘需要的操作，由 app.App 实现
// Backend is the set of dashboard operations, implemented by app.App
type Backend interface {
	LoadDashboard(ctx context.Context) (DashboardData, error)
	TriggerBackup(ctx context.Context, force bool, dest api.Destination) error
	DownloadArchive(ctx context.Context, dir string) (string, error)
	SetTheme(name string) error
}

// --- Tea Messages ---

// NoticeMsg 短暂通知 / NoticeMsg is a transient notification
type NoticeMsg struct {
	Level NoticeLevel
	Text  string
}

// StatsMsg 轮询得到的最新统计
// StatsMsg carries stats delivered by the poller
type StatsMsg struct {
	Stats   api.BackupStats
	Polling bool
}

type dashboardMsg struct {
	data DashboardData
	err  error
}

type triggerDoneMsg struct{ err error }

type downloadDoneMsg struct {
	path string
	err  error
}

// App Bubble Tea 仪表盘 Model
// App is the Bubble Tea dashboard model
type App struct {
	// 布局 / Layout
	width  int
	height int

	spinner spinner.Model
	logs    table.Model

	// 状态 / State
	data    DashboardData
	loaded  bool
	busy    string
	notice  NoticeMsg
	dlDir   string
	backend Backend
	ctx     context.Context

	// 配置 / Config
	theme  Theme
	keys   KeyMap
	locale *i18n.I18n
}

// NewApp 创建仪表盘 TUI
// NewApp creates the dashboard TUI
func NewApp(ctx context.Context, backend Backend, theme Theme, downloadDir string) App {
	if ctx == nil {
		ctx = context.Background()
	}
	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(theme.Primary)),
	)
	logs := table.New(
		table.WithColumns(logColumns(100)),
		table.WithFocused(true),
		table.WithHeight(8),
	)
	a := App{
		spinner: sp,
		logs:    logs,
		dlDir:   downloadDir,
		backend: backend,
		ctx:     ctx,
		theme:   theme,
		keys:    DefaultKeyMap(),
		locale:  i18n.Global(),
		busy:    "load",
	}
	a.applyTableStyles()
	return a
}

func (a App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.loadCmd())
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.relayout()
		return a, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, a.keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, a.keys.Refresh):
			if a.busy != "" {
				return a, nil
			}
			a.busy = "load"
			return a, tea.Batch(a.spinner.Tick, a.loadCmd())
		case key.Matches(msg, a.keys.Backup):
			return a.startBackup()
		case key.Matches(msg, a.keys.Download):
			if a.busy != "" {
				return a, nil
			}
			a.busy = "download"
			return a, tea.Batch(a.spinner.Tick, a.downloadCmd())
		case key.Matches(msg, a.keys.Theme):
			next := a.theme.Toggle()
			if err := a.backend.SetTheme(next.Name); err != nil {
				a.notice = NoticeMsg{Level: NoticeError, Text: err.Error()}
				return a, nil
			}
			a.theme = next
			a.spinner.Style = lipgloss.NewStyle().Foreground(next.Primary)
			a.applyTableStyles()
			a.notice = NoticeMsg{Level: NoticeInfo, Text: a.locale.T("theme.set", next.Name)}
			return a, nil
		}

	case spinner.TickMsg:
		if a.busy == "" && !a.data.Polling {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case dashboardMsg:
		a.busy = ""
		if msg.err != nil {
			return a, nil
		}
		a.loaded = true
		a.data = msg.data
		a.logs.SetRows(logRows(a.data.Stats.RecentLogs))
		if a.data.Polling {
			return a, a.spinner.Tick
		}
		return a, nil

	case StatsMsg:
		wasPolling := a.data.Polling
		a.data.Stats = msg.Stats
		a.data.Polling = msg.Polling
		a.logs.SetRows(logRows(msg.Stats.RecentLogs))
		if msg.Polling && !wasPolling && a.busy == "" {
			return a, a.spinner.Tick
		}
		return a, nil

	case triggerDoneMsg:
		a.busy = ""
		if msg.err != nil {
			return a, nil
		}
		a.busy = "load"
		return a, tea.Batch(a.spinner.Tick, a.loadCmd())

	case downloadDoneMsg:
		a.busy = ""
		return a, nil

	case NoticeMsg:
		a.notice = msg
		return a, nil
	}

	var cmd tea.Cmd
	a.logs, cmd = a.logs.Update(msg)
	cmds = append(cmds, cmd)
	return a, tea.Batch(cmds...)
}

func (a App) View() string {
	if a.width == 0 || a.height == 0 {
		return a.locale.T("tui.loading")
	}

	var sections []string
	sections = append(sections, a.renderHeader())
	if a.loaded {
		sections = append(sections, a.renderStats())
		if a.data.ShowGuide {
			sections = append(sections, a.theme.WarningStyle.Render(a.locale.T("dashboard.setup_guide")))
		}
		if len(a.data.Stats.RecentLogs) == 0 {
			sections = append(sections, a.theme.MutedStyle.Render(a.locale.T("dashboard.no_logs")))
		} else {
			sections = append(sections, a.logs.View())
		}
	}
	sections = append(sections, a.renderStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// --- 内部方法 / Internal methods ---

func (a App) startBackup() (tea.Model, tea.Cmd) {
	if a.busy != "" {
		a.notice = NoticeMsg{Level: NoticeWarn, Text: a.locale.T("backup.in_flight")}
		return a, nil
	}
	if !a.data.Stats.HasDestination() {
		a.notice = NoticeMsg{Level: NoticeWarn, Text: a.locale.T("backup.no_destination")}
		return a, nil
	}
	a.busy = "backup"
	backend, ctx := a.backend, a.ctx
	return a, tea.Batch(a.spinner.Tick, func() tea.Msg {
		return triggerDoneMsg{err: backend.TriggerBackup(ctx, false, "")}
	})
}

func (a App) loadCmd() tea.Cmd {
	backend, ctx := a.backend, a.ctx
	return func() tea.Msg {
		data, err := backend.LoadDashboard(ctx)
		return dashboardMsg{data: data, err: err}
	}
}

func (a App) downloadCmd() tea.Cmd {
	backend, ctx, dir := a.backend, a.ctx, a.dlDir
	return func() tea.Msg {
		path, err := backend.DownloadArchive(ctx, dir)
		return downloadDoneMsg{path: path, err: err}
	}
}

func (a *App) relayout() {
	a.logs.SetColumns(logColumns(a.width))
	a.logs.SetWidth(a.width)
	height := a.height - 9
	if height < 3 {
		height = 3
	}
	a.logs.SetHeight(height)
}

func (a *App) applyTableStyles() {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(a.theme.Border).
		BorderBottom(true).
		Foreground(a.theme.TextDim).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(a.theme.Text).
		Background(a.theme.Border).
		Bold(false)
	a.logs.SetStyles(s)
}

func logColumns(width int) []table.Column {
	msg := width
	for _, w := range logColumnWidths {
		msg -= w + 2
	}
	if msg < 10 {
		msg = 10
	}
	return []table.Column{
		{Title: i18n.T("logs.col.started"), Width: logColumnWidths[0]},
		{Title: i18n.T("logs.col.status"), Width: logColumnWidths[1]},
		{Title: i18n.T("logs.col.destination"), Width: logColumnWidths[2]},
		{Title: i18n.T("logs.col.posts"), Width: logColumnWidths[3]},
		{Title: i18n.T("logs.col.message"), Width: msg},
	}
}

func logRows(logs []api.BackupLog) []table.Row {
	rows := make([]table.Row, 0, len(logs))
	for _, l := range logs {
		rows = append(rows, table.Row{
			l.StartedAt.String(),
			StatusLabel(l.Status),
			DestinationLabel(l.Destination),
			PostsCell(l),
			strings.ReplaceAll(strings.TrimSpace(l.Message), "\n", " "),
		})
	}
	return rows
}

// --- 渲染方法 / Render methods ---

func (a App) renderHeader() string {
	title := a.theme.TitleStyle.Render(a.locale.T("entry.title") + " · " + a.locale.T("dashboard.title"))
	if !a.loaded {
		return title
	}
	return title + "  " + a.theme.MutedStyle.Render(a.data.User.DisplayName())
}

func (a App) renderStats() string {
	s := a.data.Stats
	lines := []string{
		a.locale.T("dashboard.total_posts", s.TotalPosts) + "   " + a.locale.T("dashboard.last_backup", s.LastBackup.String()),
		a.locale.T("dashboard.connections",
			a.connection(s.VelogConnected), a.connection(s.GoogleDriveConnected), a.connection(s.GitHubConnected)),
	}
	return a.theme.PanelStyle.Render(strings.Join(lines, "\n"))
}

func (a App) connection(ok bool) string {
	if ok {
		return a.theme.SuccessStyle.Render(a.locale.T("dashboard.connected"))
	}
	return a.theme.MutedStyle.Render(a.locale.T("dashboard.disconnected"))
}

func (a App) renderStatusBar() string {
	var left string
	switch {
	case a.busy != "":
		left = a.spinner.View() + " " + a.locale.T("tui.loading")
	case a.data.Polling:
		left = a.spinner.View() + " " + a.locale.T("status.in_progress")
	}
	if a.notice.Text != "" {
		if left != "" {
			left += "  "
		}
		left += a.notice.Level.Style(a.theme).Render(a.notice.Text)
	}
	help := a.keys.ShortHelp()
	gap := a.width - lipgloss.Width(left) - lipgloss.Width(help) - 1
	if gap < 1 {
		gap = 1
	}
	return a.theme.StatusBarStyle.Width(a.width).Render(fmt.Sprintf("%s%s%s", left, strings.Repeat(" ", gap), help))
}
