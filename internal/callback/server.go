package callback

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vbackup/internal/api"
	"vbackup/internal/config"
	"vbackup/internal/i18n"
)

// Outcome 回调结果 / Outcome is the result delivered by the loopback listener
type Outcome struct {
	User api.User
	Err  error
}

// Server 在本地回环地址上接收 OAuth 重定向
// Server receives the OAuth redirect on a loopback address
type Server struct {
	cfg     config.OAuthConfig
	handler *Handler
	engine  *gin.Engine
	srv     *http.Server
	results chan Outcome
}

func NewServer(cfg config.OAuthConfig, handler *Handler) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery())
	s := &Server{
		cfg:     cfg,
		handler: handler,
		engine:  engine,
		results: make(chan Outcome, 1),
	}
	engine.GET(cfg.CallbackPath, s.handleCallback)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start 监听 callback_addr，返回实际地址（端口为 0 时由系统分配）
// Start listens on callback_addr and returns the bound address
func (s *Server) Start() (string, error) {
	ln, err := net.Listen("tcp", s.cfg.CallbackAddr)
	if err != nil {
		return "", fmt.Errorf("listen %s: %w", s.cfg.CallbackAddr, err)
	}
	s.srv = &http.Server{Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("callback server stopped", slog.String("err", err.Error()))
		}
	}()
	addr := ln.Addr().String()
	slog.Info("callback server listening", slog.String("addr", addr), slog.String("path", s.cfg.CallbackPath))
	return addr, nil
}

// Wait 等待第一次回调结果，或超时/取消
// Wait blocks until the first callback completes, the context ends or oauth.timeout_ms passes
func (s *Server) Wait(ctx context.Context) (api.User, error) {
	timeout := time.Duration(s.cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case out := <-s.results:
		return out.User, out.Err
	case <-timer.C:
		return api.User{}, fmt.Errorf("no callback within %s", timeout)
	case <-ctx.Done():
		return api.User{}, ctx.Err()
	}
}

func (s *Server) Close(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleCallback(c *gin.Context) {
	params := FromQuery(c.Request.URL.Query())
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), 30*time.Second)
	defer cancel()

	user, err := s.handler.Handle(ctx, params)
	if errors.Is(err, ErrAlreadyHandled) {
		writePage(c, http.StatusConflict, Message(err))
		return
	}
	select {
	case s.results <- Outcome{User: user, Err: err}:
	default:
	}
	if err != nil {
		slog.Warn("oauth callback failed", slog.String("err", err.Error()))
		writePage(c, http.StatusBadRequest, Message(err))
		return
	}
	writePage(c, http.StatusOK, i18n.T("auth.callback_page_ok"))
}

// Message 把回调错误映射为用户可见文本
// Message maps a callback error to user-facing text
func Message(err error) string {
	switch {
	case err == nil:
		return i18n.T("auth.login_success")
	case errors.Is(err, ErrCancelled):
		return i18n.T("auth.github_cancelled")
	case errors.Is(err, ErrMissingCode):
		return i18n.T("auth.no_code")
	case errors.Is(err, ErrStateMismatch):
		return i18n.T("auth.state_mismatch")
	case errors.Is(err, ErrAlreadyHandled):
		return i18n.T("auth.already_handled")
	default:
		return i18n.T("auth.github_failed")
	}
}

func writePage(c *gin.Context, status int, text string) {
	body := fmt.Sprintf("<!doctype html><html><head><meta charset=\"utf-8\"><title>vbackup</title></head>"+
		"<body style=\"font-family:sans-serif;text-align:center;margin-top:4em\"><p>%s</p></body></html>",
		html.EscapeString(text))
	c.Data(status, "text/html; charset=utf-8", []byte(body))
}
