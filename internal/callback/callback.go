// Package callback 处理 OAuth 回调：解析 code/state/error，并保证同一个回调只换取一次令牌。
//
// Package callback handles the OAuth redirect: it parses code, state and error
// and exchanges a code at most once per handler.
package callback

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"vbackup/internal/api"
)

var (
	ErrAlreadyHandled = errors.New("callback already handled")
	ErrCancelled      = errors.New("authorization cancelled")
	ErrMissingCode    = errors.New("authorization code missing")
	ErrStateMismatch  = errors.New("oauth state mismatch")
)

// Params 回调查询参数 / Params are the redirect query parameters
type Params struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

func FromQuery(q url.Values) Params {
	return Params{
		Code:             strings.TrimSpace(q.Get("code")),
		State:            strings.TrimSpace(q.Get("state")),
		Error:            strings.TrimSpace(q.Get("error")),
		ErrorDescription: strings.TrimSpace(q.Get("error_description")),
	}
}

// Parse 接受完整的重定向 URL、查询串或裸授权码
// Parse accepts a full redirect URL, a bare query string or a bare code
func Parse(raw string) (Params, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Params{}, ErrMissingCode
	}
	if !strings.ContainsAny(raw, "?=&") {
		return Params{Code: raw}, nil
	}
	query := raw
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		query = raw[i+1:]
	}
	if i := strings.IndexByte(query, '#'); i >= 0 {
		query = query[:i]
	}
	q, err := url.ParseQuery(query)
	if err != nil {
		return Params{}, fmt.Errorf("parse callback query: %w", err)
	}
	return FromQuery(q), nil
}

// Exchanger 用授权码换取令牌（api.AuthAPI）
// Exchanger trades an authorization code for tokens
type Exchanger interface {
	GitHubCallback(ctx context.Context, code, state string) (api.TokenPair, error)
}

// SessionLogin 持久化令牌并解析用户（session.Store）
// SessionLogin persists tokens and resolves the user
type SessionLogin interface {
	Login(ctx context.Context, tokens api.TokenPair) (api.User, error)
}

// Handler 对应一次回调页面的挂载；Handle 只会真正执行一次。
// Handler corresponds to one mount of the callback view; Handle runs its exchange once.
type Handler struct {
	exchanger     Exchanger
	session       SessionLogin
	expectedState string

	once sync.Once
	user api.User
	err  error
}

func NewHandler(exchanger Exchanger, session SessionLogin, expectedState string) *Handler {
	return &Handler{exchanger: exchanger, session: session, expectedState: strings.TrimSpace(expectedState)}
}

// Handle 第一次调用执行换取；之后的调用返回 ErrAlreadyHandled，不再发请求。
// Handle performs the exchange on first call; later calls return ErrAlreadyHandled without a request.
func (h *Handler) Handle(ctx context.Context, p Params) (api.User, error) {
	ran := false
	h.once.Do(func() {
		ran = true
		h.user, h.err = h.handle(ctx, p)
	})
	if !ran {
		return api.User{}, ErrAlreadyHandled
	}
	return h.user, h.err
}

// Result 返回第一次调用的结果 / Result returns the outcome of the first call
func (h *Handler) Result() (api.User, error) {
	return h.user, h.err
}

func (h *Handler) handle(ctx context.Context, p Params) (api.User, error) {
	if p.Error != "" {
		if p.ErrorDescription != "" {
			return api.User{}, fmt.Errorf("%w: %s (%s)", ErrCancelled, p.Error, p.ErrorDescription)
		}
		return api.User{}, fmt.Errorf("%w: %s", ErrCancelled, p.Error)
	}
	if p.Code == "" {
		return api.User{}, ErrMissingCode
	}
	if h.expectedState != "" && p.State != h.expectedState {
		return api.User{}, ErrStateMismatch
	}
	tokens, err := h.exchanger.GitHubCallback(ctx, p.Code, p.State)
	if err != nil {
		return api.User{}, fmt.Errorf("exchange code: %w", err)
	}
	user, err := h.session.Login(ctx, tokens)
	if err != nil {
		return api.User{}, fmt.Errorf("sign in: %w", err)
	}
	return user, nil
}
