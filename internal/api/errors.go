package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized 服务端返回 401；会话协调器据此清除凭证并回到入口页
	// ErrUnauthorized marks a 401 response; the session coordinator clears credentials on it
	ErrUnauthorized = errors.New("api: unauthorized")
	// ErrNotFound 服务端返回 404
	// ErrNotFound marks a 404 response
	ErrNotFound = errors.New("api: not found")
	// ErrInvalidResponse 响应体不符合约定的结构
	// ErrInvalidResponse marks a body that failed schema validation
	ErrInvalidResponse = errors.New("api: invalid response")
)

// Error 非 2xx 响应
// Error is a non-2xx response
type Error struct {
	Method string
	Path   string
	Status int
	// Detail 来自响应体的 detail 字段，可能为空
	// Detail is the server-supplied detail message, possibly empty
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s failed: status=%d detail=%s", e.Method, e.Path, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s %s failed: status=%d", e.Method, e.Path, e.Status)
}

func (e *Error) Unauthorized() bool { return e.Status == http.StatusUnauthorized }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// Detail 返回错误中的服务端消息；非 API 错误或无消息时返回 false。
// Detail returns the server message carried by err, if any.
func Detail(err error) (string, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Detail) != "" {
		return apiErr.Detail, true
	}
	return "", false
}

// parseDetail 解析 {"detail": "..."} 或 {"detail": [{"msg": "..."}]}
// parseDetail reads {"detail": "..."} or a validation array {"detail": [{"msg": "..."}]}
func parseDetail(body []byte) string {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if len(payload.Detail) == 0 {
		return strings.TrimSpace(payload.Message)
	}
	var text string
	if err := json.Unmarshal(payload.Detail, &text); err == nil {
		return strings.TrimSpace(text)
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if m := strings.TrimSpace(it.Msg); m != "" {
				msgs = append(msgs, m)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
