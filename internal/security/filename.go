package security

import (
	"errors"
	"regexp"
	"strings"
)

var ErrUnsafeFilename = errors.New("unsafe file name")

var unsafeNameChars = regexp.MustCompile(`[\x00-\x1f<>:"|?*]`)

// SafeFilename 只保留最后一段路径，替换控制字符与保留字符；
// 清洗后为空或仅为点号时失败（fail closed）。
// SafeFilename keeps only the last path element and replaces reserved characters.
func SafeFilename(name string) (string, error) {
	trimmed := strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		trimmed = trimmed[i+1:]
	}
	trimmed = unsafeNameChars.ReplaceAllString(trimmed, "_")
	trimmed = strings.TrimSpace(trimmed)
	if trimmed == "" || strings.Trim(trimmed, ".") == "" {
		return "", ErrUnsafeFilename
	}
	if len(trimmed) > 200 {
		ext := ""
		if i := strings.LastIndex(trimmed, "."); i > 0 && len(trimmed)-i <= 10 {
			ext = trimmed[i:]
		}
		trimmed = trimmed[:200-len(ext)] + ext
	}
	return trimmed, nil
}
