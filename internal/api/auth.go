package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

type AuthAPI struct{ c *Client }

// GitHubAuthURL GET /auth/github/url
func (a AuthAPI) GitHubAuthURL(ctx context.Context) (AuthURL, error) {
	var out AuthURL
	err := a.c.doJSON(ctx, http.MethodGet, "/auth/github/url", nil, nil, &out)
	return out, err
}

// GitHubCallback POST /auth/github/callback，用授权码换取会话令牌
// GitHubCallback exchanges the OAuth code for a session token
func (a AuthAPI) GitHubCallback(ctx context.Context, code, state string) (TokenPair, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return TokenPair{}, fmt.Errorf("authorization code is empty")
	}
	in := map[string]string{"code": code}
	if state = strings.TrimSpace(state); state != "" {
		in["state"] = state
	}
	var out TokenPair
	err := a.c.doJSON(ctx, http.MethodPost, "/auth/github/callback", nil, in, &out)
	return out, err
}

// Google POST /auth/google，用 Google ID token 登录
// Google signs in with a Google ID token
func (a AuthAPI) Google(ctx context.Context, idToken string) (TokenPair, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return TokenPair{}, fmt.Errorf("google id token is empty")
	}
	var out TokenPair
	err := a.c.doJSON(ctx, http.MethodPost, "/auth/google", nil, map[string]string{"token": idToken}, &out)
	return out, err
}

type RegisterRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	FullName      string `json:"full_name,omitempty"`
	VelogUsername string `json:"velog_username,omitempty"`
}

func (r RegisterRequest) validate() error {
	if !strings.Contains(r.Email, "@") {
		return fmt.Errorf("invalid email %q", r.Email)
	}
	if len(r.Password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	return nil
}

// Register POST /auth/register
func (a AuthAPI) Register(ctx context.Context, req RegisterRequest) (User, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.VelogUsername = strings.TrimPrefix(strings.TrimSpace(req.VelogUsername), "@")
	if err := req.validate(); err != nil {
		return User{}, err
	}
	var out User
	err := a.c.doJSON(ctx, http.MethodPost, "/auth/register", nil, req, &out)
	return out, err
}

// Login POST /auth/login（邮箱密码）
// Login signs in with email and password
func (a AuthAPI) Login(ctx context.Context, email, password string) (TokenPair, error) {
	in := map[string]string{"email": strings.TrimSpace(email), "password": password}
	var out TokenPair
	err := a.c.doJSON(ctx, http.MethodPost, "/auth/login", nil, in, &out)
	return out, err
}

// Me 当前用户（路径可配置，默认 /user/me）
// Me fetches the current user (path configurable, default /user/me)
func (a AuthAPI) Me(ctx context.Context) (User, error) {
	var out User
	err := a.c.doJSON(ctx, http.MethodGet, a.c.mePath, nil, nil, &out)
	return out, err
}

// VerifyVelog POST /user/velog/verify，用户名前导 @ 会被去掉
// VerifyVelog links a velog username; a leading @ is stripped
func (a AuthAPI) VerifyVelog(ctx context.Context, username string) (Message, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return Message{}, fmt.Errorf("velog username is empty")
	}
	var out Message
	err := a.c.doJSON(ctx, http.MethodPost, "/user/velog/verify", nil, map[string]string{"username": username}, &out)
	return out, err
}
