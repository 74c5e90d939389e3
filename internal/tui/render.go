package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-runewidth"

	"vbackup/internal/api"
	"vbackup/internal/i18n"
)

// RenderMarkdown 使用 Glamour 渲染 markdown 文本
// RenderMarkdown renders markdown text using Glamour
func RenderMarkdown(content string, width int) string {
	return renderMarkdown(content, width, glamour.WithAutoStyle())
}

// Markdown 按主题选择 glamour 的标准样式
// Markdown renders with the glamour standard style matching the theme
func (t Theme) Markdown(content string, width int) string {
	return renderMarkdown(content, width, glamour.WithStandardStyle(t.Name))
}

func renderMarkdown(content string, width int, style glamour.TermRendererOption) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}

	r, err := glamour.NewTermRenderer(
		style,
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content
	}

	return strings.TrimRight(rendered, "\n")
}

// StatusLabel 备份状态的本地化名称
// StatusLabel is the localized name of a backup status
func StatusLabel(status api.BackupStatus) string {
	switch status {
	case api.StatusInProgress:
		return i18n.T("status.in_progress")
	case api.StatusSuccess:
		return i18n.T("status.success")
	case api.StatusFailed:
		return i18n.T("status.failed")
	default:
		return i18n.T("status.pending")
	}
}

// DestinationLabel 目的地的显示名 / DestinationLabel is the display name of a destination
func DestinationLabel(d api.Destination) string {
	switch d {
	case api.DestinationGoogleDrive:
		return "Google Drive"
	case api.DestinationGitHub:
		return "GitHub"
	case api.DestinationBoth:
		return "Drive + GitHub"
	default:
		return "-"
	}
}

// PostsCell "已备份/总数" / PostsCell renders backed-up over total
func PostsCell(l api.BackupLog) string {
	if l.PostsTotal == 0 && l.PostsBackedUp == 0 {
		return "-"
	}
	return fmt.Sprintf("%d/%d", l.PostsBackedUp, l.PostsTotal)
}

// Truncate 按显示宽度截断（中日韩字符占两列）
// Truncate cuts s to the given display width; CJK runes count as two columns
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = strings.ReplaceAll(strings.TrimSpace(s), "\n", " ")
	return runewidth.Truncate(s, width, "…")
}

var logColumnWidths = []int{16, 12, 14, 8}

// RenderLogs 渲染备份日志表；消息列占用剩余宽度
// RenderLogs renders the backup log table; the message column takes the remaining width
func RenderLogs(logs []api.BackupLog, theme Theme, width int) string {
	if len(logs) == 0 {
		return theme.MutedStyle.Render(i18n.T("dashboard.no_logs"))
	}
	if width <= 0 {
		width = 100
	}
	fixed := 0
	for _, w := range logColumnWidths {
		fixed += w + 1
	}
	msgWidth := width - fixed
	if msgWidth < 10 {
		msgWidth = 10
	}

	header := []string{
		i18n.T("logs.col.started"),
		i18n.T("logs.col.status"),
		i18n.T("logs.col.destination"),
		i18n.T("logs.col.posts"),
		i18n.T("logs.col.message"),
	}
	var b strings.Builder
	b.WriteString(theme.HeaderStyle.Render(joinRow(header, msgWidth)))
	for _, l := range logs {
		status := cell(StatusLabel(l.Status), logColumnWidths[1])
		row := []string{
			cell(l.StartedAt.String(), logColumnWidths[0]),
			theme.StatusStyle(l.Status).Render(status),
			cell(DestinationLabel(l.Destination), logColumnWidths[2]),
			cell(PostsCell(l), logColumnWidths[3]),
			Truncate(l.Message, msgWidth),
		}
		b.WriteString("\n")
		b.WriteString(strings.Join(row, " "))
	}
	return b.String()
}

func joinRow(cols []string, msgWidth int) string {
	out := make([]string, 0, len(cols))
	for i, c := range cols {
		if i < len(logColumnWidths) {
			out = append(out, cell(c, logColumnWidths[i]))
			continue
		}
		out = append(out, Truncate(c, msgWidth))
	}
	return strings.Join(out, " ")
}

func cell(s string, width int) string {
	return runewidth.FillRight(Truncate(s, width), width)
}
