package posts

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"vbackup/internal/api"
)

var ErrEmptyContent = errors.New("post has no content")

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()

	pageTemplate = template.Must(template.New("post").Parse(`<!doctype html>
<html lang="ko">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<article>
<h1>{{.Title}}</h1>
{{- if .Published}}
<p><time>{{.Published}}</time></p>
{{- end}}
{{- if .Tags}}
<p>{{range $i, $t := .Tags}}{{if $i}} {{end}}#{{$t}}{{end}}</p>
{{- end}}
{{.Body}}
</article>
</body>
</html>
`))
)

type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// Filename 导出文件名为 <slug>.<ext>
// Filename is <slug>.<ext>
func Filename(p api.Post, f Format) string {
	slug := strings.TrimSpace(p.Slug)
	if slug == "" {
		slug = fmt.Sprintf("post-%d", p.ID)
	}
	return slug + "." + string(f)
}

// Export 按格式渲染帖子；内容为空时返回 ErrEmptyContent
// Export renders the post in the given format; empty content yields ErrEmptyContent
func Export(p api.Post, f Format) ([]byte, error) {
	switch f {
	case FormatHTML:
		return HTML(p)
	default:
		return Markdown(p)
	}
}

func Markdown(p api.Post) ([]byte, error) {
	if strings.TrimSpace(p.Content) == "" {
		return nil, ErrEmptyContent
	}
	return []byte(p.Content), nil
}

// HTML 用 goldmark 渲染并经 bluemonday 清洗后套进独立页面
// HTML renders with goldmark, sanitizes with bluemonday and wraps a standalone page
func HTML(p api.Post) ([]byte, error) {
	if strings.TrimSpace(p.Content) == "" {
		return nil, ErrEmptyContent
	}
	body, err := RenderHTML(p.Content)
	if err != nil {
		return nil, err
	}
	data := struct {
		Title     string
		Published string
		Tags      []string
		Body      template.HTML
	}{
		Title: p.Title,
		Tags:  p.Tags,
		Body:  body,
	}
	if !p.VelogPublishedAt.IsZero() {
		data.Published = p.VelogPublishedAt.Time.Format("2006-01-02")
	}
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), nil
}

func RenderHTML(content string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	safe := sanitizer.SanitizeBytes(buf.Bytes())
	return template.HTML(safe), nil
}
