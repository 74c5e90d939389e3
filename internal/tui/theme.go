package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"vbackup/internal/api"
)

// Theme 定义终端主题色彩和样式
// Theme defines terminal colors and styles
type Theme struct {
	Name string

	// 基础色 / Base colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Danger    lipgloss.Color
	Warning   lipgloss.Color
	Success   lipgloss.Color
	Muted     lipgloss.Color
	Text      lipgloss.Color
	TextDim   lipgloss.Color
	BgBar     lipgloss.Color
	Border    lipgloss.Color

	// 预构建样式 / Pre-built styles
	TitleStyle     lipgloss.Style
	StatusBarStyle lipgloss.Style
	PanelStyle     lipgloss.Style
	HeaderStyle    lipgloss.Style
	ErrorStyle     lipgloss.Style
	SuccessStyle   lipgloss.Style
	WarningStyle   lipgloss.Style
	InfoStyle      lipgloss.Style
	MutedStyle     lipgloss.Style
	DangerStyle    lipgloss.Style
}

// DarkTheme 暗色主题（默认）
// DarkTheme is the default dark theme
func DarkTheme() Theme {
	return buildTheme(Theme{
		Name:      "dark",
		Primary:   lipgloss.Color("#20C997"),
		Secondary: lipgloss.Color("#06B6D4"),
		Danger:    lipgloss.Color("#EF4444"),
		Warning:   lipgloss.Color("#F59E0B"),
		Success:   lipgloss.Color("#10B981"),
		Muted:     lipgloss.Color("#6B7280"),
		Text:      lipgloss.Color("#E5E7EB"),
		TextDim:   lipgloss.Color("#9CA3AF"),
		BgBar:     lipgloss.Color("#111827"),
		Border:    lipgloss.Color("#374151"),
	})
}

// LightTheme 亮色主题 / LightTheme is the light variant
func LightTheme() Theme {
	return buildTheme(Theme{
		Name:      "light",
		Primary:   lipgloss.Color("#0CA678"),
		Secondary: lipgloss.Color("#0E7490"),
		Danger:    lipgloss.Color("#B91C1C"),
		Warning:   lipgloss.Color("#B45309"),
		Success:   lipgloss.Color("#047857"),
		Muted:     lipgloss.Color("#6B7280"),
		Text:      lipgloss.Color("#111827"),
		TextDim:   lipgloss.Color("#4B5563"),
		BgBar:     lipgloss.Color("#F3F4F6"),
		Border:    lipgloss.Color("#D1D5DB"),
	})
}

// ThemeByName 未知名称回退到暗色
// ThemeByName falls back to the dark theme for unknown names
func ThemeByName(name string) Theme {
	if strings.EqualFold(strings.TrimSpace(name), "light") {
		return LightTheme()
	}
	return DarkTheme()
}

// Toggle 返回另一种主题 / Toggle returns the other theme
func (t Theme) Toggle() Theme {
	if t.Name == "light" {
		return DarkTheme()
	}
	return LightTheme()
}

// StatusStyle 备份状态对应的颜色
// StatusStyle returns the style for a backup status
func (t Theme) StatusStyle(status api.BackupStatus) lipgloss.Style {
	switch status {
	case api.StatusSuccess:
		return t.SuccessStyle
	case api.StatusFailed:
		return t.ErrorStyle
	case api.StatusInProgress:
		return t.InfoStyle
	default:
		return t.MutedStyle
	}
}

func buildTheme(t Theme) Theme {
	t.TitleStyle = lipgloss.NewStyle().
		Foreground(t.Primary).
		Bold(true)

	t.StatusBarStyle = lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.BgBar)

	t.PanelStyle = lipgloss.NewStyle().
		Foreground(t.Text).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 1)

	t.HeaderStyle = lipgloss.NewStyle().
		Foreground(t.TextDim).
		Bold(true)

	t.ErrorStyle = lipgloss.NewStyle().
		Foreground(t.Danger).
		Bold(true)

	t.SuccessStyle = lipgloss.NewStyle().
		Foreground(t.Success)

	t.WarningStyle = lipgloss.NewStyle().
		Foreground(t.Warning)

	t.InfoStyle = lipgloss.NewStyle().
		Foreground(t.Secondary)

	t.MutedStyle = lipgloss.NewStyle().
		Foreground(t.Muted)

	t.DangerStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(t.Danger).
		Bold(true).
		Padding(0, 1)

	return t
}
