package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// KeyMap 定义仪表盘快捷键绑定
// KeyMap defines dashboard keybindings
type KeyMap struct {
	Backup   key.Binding
	Download key.Binding
	Refresh  key.Binding
	Theme    key.Binding
	Quit     key.Binding
}

// DefaultKeyMap 默认快捷键
// DefaultKeyMap returns default keybindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Backup: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "backup"),
		),
		Download: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "download zip"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Theme: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "theme"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp 一行帮助 / ShortHelp renders the one-line key help
func (k KeyMap) ShortHelp() string {
	parts := make([]string, 0, 5)
	for _, b := range []key.Binding{k.Backup, k.Download, k.Refresh, k.Theme, k.Quit} {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " · ")
}
