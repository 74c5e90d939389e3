package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"vbackup/internal/config"

	"github.com/google/uuid"
)

const userAgent = "vbackup-cli/1.0"

// TokenSource 提供当前会话令牌；空字符串表示未登录
// TokenSource yields the current session token; empty means anonymous
type TokenSource interface {
	Token() string
}

// TokenFunc 函数适配器 / TokenFunc adapts a function to TokenSource
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// UnauthorizedHandler 收到 401 时在返回错误之前被调用
// UnauthorizedHandler runs on every 401 before the error is returned
type UnauthorizedHandler func(err *Error)

// Client 后端 REST 客户端：每次调用一个请求，不重试
// Client talks to the backend REST API; one request per call, no retries
type Client struct {
	baseURL    string
	mePath     string
	httpClient *http.Client
	tokens     TokenSource

	mu             sync.RWMutex
	onUnauthorized UnauthorizedHandler
}

func NewClient(cfg config.APIConfig, tokens TokenSource) *Client {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	mePath := cfg.MePath
	if mePath == "" {
		mePath = "/user/me"
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/") + "/api/v1",
		mePath:  mePath,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL 返回带 /api/v1 前缀的根地址
// BaseURL returns the root including the /api/v1 prefix
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetUnauthorizedHandler 安装唯一的 401 处理器，后装覆盖先装
// SetUnauthorizedHandler installs the single 401 handler, replacing any previous one
func (c *Client) SetUnauthorizedHandler(fn UnauthorizedHandler) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

func (c *Client) unauthorizedHandler() UnauthorizedHandler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.onUnauthorized
}

// Auth 等方法返回按资源分组的端点集合
// Auth and friends return endpoint groups sharing this client
func (c *Client) Auth() AuthAPI                 { return AuthAPI{c: c} }
func (c *Client) Backup() BackupAPI             { return BackupAPI{c: c} }
func (c *Client) Posts() PostsAPI               { return PostsAPI{c: c} }
func (c *Client) Settings() SettingsAPI         { return SettingsAPI{c: c} }
func (c *Client) Integrations() IntegrationsAPI { return IntegrationsAPI{c: c} }

type validator interface {
	Validate() error
}

// doJSON 发送 JSON 请求并把响应解码到 out；out 实现 Validate 时在边界处校验
// doJSON sends a JSON request and decodes into out, validating it when out implements Validate
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	resp, err := c.send(ctx, method, path, query, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s response: %w", method, path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrInvalidResponse, method, path, err)
	}
	if v, ok := out.(validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%w: %s %s: %v", ErrInvalidResponse, method, path, err)
		}
	}
	return nil
}

// send 构造请求、附加令牌并处理非 2xx；成功时调用方负责关闭 Body
// send builds the request, attaches the token and maps non-2xx; callers close Body on success
func (c *Client) send(ctx context.Context, method, path string, query url.Values, in any) (*http.Response, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("marshal %s %s request: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create %s %s request: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.tokens != nil {
		if token := strings.TrimSpace(c.tokens.Token()); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("api request failed", slog.String("method", method), slog.String("path", path), slog.String("err", err.Error()))
		return nil, fmt.Errorf("send %s %s: %w", method, path, err)
	}
	slog.Debug("api request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(started)),
	)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer resp.Body.Close()
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &Error{
		Method: method,
		Path:   path,
		Status: resp.StatusCode,
		Detail: parseDetail(data),
	}
	if apiErr.Unauthorized() {
		if handler := c.unauthorizedHandler(); handler != nil {
			handler(apiErr)
		}
	}
	return nil, apiErr
}

// IsUnauthorized 是 errors.Is(err, ErrUnauthorized) 的简写
// IsUnauthorized is shorthand for errors.Is(err, ErrUnauthorized)
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
