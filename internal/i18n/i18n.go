package i18n

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
)

// I18n 是一个不可变的目录：先查当前语言，再回退到英文。
// I18n is an immutable catalog: the active locale first, English as the fallback.
type I18n struct {
	locale  string
	overlay map[string]string
}

// global 会被 REPL 之外的 goroutine（轮询、TUI）读取，所以整体替换而不是原地修改
// global is read from the poller and TUI goroutines, so it is swapped whole, never mutated
var global atomic.Pointer[I18n]

// Global 返回全局实例；未调用 Init 时按环境检测语言
// Global returns the global instance, detecting the locale from the environment before Init
func Global() *I18n {
	if i := global.Load(); i != nil {
		return i
	}
	global.CompareAndSwap(nil, New(""))
	return global.Load()
}

// Init 替换全局实例 / Init replaces the global instance
func Init(locale string) {
	global.Store(New(locale))
}

func T(key string, args ...any) string {
	return Global().T(key, args...)
}

func New(locale string) *I18n {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		locale = DetectLocale()
	}
	locale = normalizeLocale(locale)
	i := &I18n{locale: locale}
	if locale == "ko" {
		i.overlay = KoMessages
	}
	return i
}

// T 缺失的键原样返回 / T returns the key itself when no catalog has it
func (i *I18n) T(key string, args ...any) string {
	tmpl, ok := i.overlay[key]
	if !ok {
		tmpl, ok = EnMessages[key]
	}
	if !ok {
		return key
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

// Locale 返回当前 locale
// Locale returns current locale
func (i *I18n) Locale() string {
	return i.locale
}

// DetectLocale 自动检测 locale
// DetectLocale auto-detects locale from environment
func DetectLocale() string {
	for _, env := range []string{"VBACKUP_LANG", "LC_ALL", "LC_MESSAGES", "LANG"} {
		v := strings.TrimSpace(os.Getenv(env))
		if v == "" {
			continue
		}
		return normalizeLocale(v)
	}
	return "en"
}

func normalizeLocale(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "en"
	}
	// 去掉 .UTF-8 等后缀 / Remove .UTF-8 suffix
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		s = s[:idx]
	}
	s = strings.ReplaceAll(s, "_", "-")
	lower := strings.ToLower(s)

	if strings.HasPrefix(lower, "ko") {
		return "ko"
	}
	if strings.HasPrefix(lower, "en") {
		return "en"
	}
	// 默认返回原始值 / Default return original
	return s
}
