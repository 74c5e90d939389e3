package api

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
)

// DefaultArchiveName 响应未给出文件名时使用
// DefaultArchiveName is used when the response carries no filename
const DefaultArchiveName = "velog_backup.zip"

type BackupAPI struct{ c *Client }

type TriggerRequest struct {
	Force       bool        `json:"force"`
	Destination Destination `json:"destination,omitempty"`
}

// Trigger POST /backup/trigger
func (b BackupAPI) Trigger(ctx context.Context, req TriggerRequest) (Message, error) {
	var out Message
	err := b.c.doJSON(ctx, http.MethodPost, "/backup/trigger", nil, req, &out)
	return out, err
}

// Stats GET /backup/stats
func (b BackupAPI) Stats(ctx context.Context) (BackupStats, error) {
	var out BackupStats
	err := b.c.doJSON(ctx, http.MethodGet, "/backup/stats", nil, nil, &out)
	return out, err
}

// Logs GET /backup/logs?limit=
func (b BackupAPI) Logs(ctx context.Context, limit int) ([]BackupLog, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out BackupLogs
	if err := b.c.doJSON(ctx, http.MethodGet, "/backup/logs", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Archive 下载结果：文件名与内容
// Archive is a downloaded blob with its filename
type Archive struct {
	Filename string
	Data     []byte
}

// DownloadZip GET /backup/download-zip，文件名取自 Content-Disposition
// DownloadZip fetches the archive; the filename comes from Content-Disposition
func (b BackupAPI) DownloadZip(ctx context.Context) (Archive, error) {
	resp, err := b.c.send(ctx, http.MethodGet, "/backup/download-zip", nil, nil)
	if err != nil {
		return Archive{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Archive{}, fmt.Errorf("read archive: %w", err)
	}
	return Archive{
		Filename: FilenameFromDisposition(resp.Header.Get("Content-Disposition"), DefaultArchiveName),
		Data:     data,
	}, nil
}

var dispositionFilename = regexp.MustCompile(`filename=(.+)`)

// FilenameFromDisposition 解析 Content-Disposition；失败时回退到 fallback。
// 结果只保留最后一段路径，防止服务端文件名写出下载目录。
// FilenameFromDisposition parses Content-Disposition, falling back when absent.
// Only the base name is kept so a server-supplied name cannot escape the download dir.
func FilenameFromDisposition(header, fallback string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return fallback
	}
	name := ""
	if _, params, err := mime.ParseMediaType(header); err == nil {
		name = params["filename"]
	}
	if name == "" {
		if m := dispositionFilename.FindStringSubmatch(header); len(m) == 2 {
			name = strings.Trim(strings.TrimSpace(strings.SplitN(m[1], ";", 2)[0]), `"'`)
		}
	}
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if name == "" || name == "." || name == "/" || name == ".." {
		return fallback
	}
	return name
}
