package app

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"vbackup/internal/api"
	"vbackup/internal/callback"
	"vbackup/internal/i18n"
	"vbackup/internal/session"
	"vbackup/internal/tui"
)

// ErrNoLoopback 未配置回调监听地址，只能粘贴回调 URL
// ErrNoLoopback means no callback listener is configured and the redirect URL must be pasted
var ErrNoLoopback = errors.New("app: loopback callback disabled")

type callbackMount struct {
	handler *callback.Handler
	state   string
}

func (a *App) enterEntry() error {
	if a.session.State() == session.Authenticated {
		a.Navigate(session.RouteDashboard)
		return nil
	}
	theme := a.Theme()
	a.println(theme.TitleStyle.Render(i18n.T("entry.title")))
	a.println(i18n.T("entry.intro"))
	a.println(theme.MutedStyle.Render(i18n.T("entry.options")))
	return nil
}

// GitHubLoginURL 获取授权地址并记住 state，供之后的回调校验
// GitHubLoginURL fetches the authorization URL and remembers its state for the callback
func (a *App) GitHubLoginURL(ctx context.Context) (api.AuthURL, error) {
	u, err := a.client.Auth().GitHubAuthURL(ctx)
	if err != nil {
		return api.AuthURL{}, a.fail(err, "auth.github_failed")
	}
	a.mu.Lock()
	a.callback.state = u.State
	a.mu.Unlock()
	a.println(i18n.T("auth.open_url", u.AuthURL))
	return u, nil
}

// LoginGitHub 通过本地回环监听完成 GitHub OAuth
// LoginGitHub completes GitHub OAuth through the loopback listener
func (a *App) LoginGitHub(ctx context.Context) error {
	if strings.TrimSpace(a.cfg.OAuth.CallbackAddr) == "" {
		return ErrNoLoopback
	}
	u, err := a.GitHubLoginURL(ctx)
	if err != nil {
		return err
	}
	handler := a.mountCallback(u.State)
	srv := callback.NewServer(a.cfg.OAuth, handler)
	addr, err := srv.Start()
	if err != nil {
		a.warn(err.Error())
		return ErrNoLoopback
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Close(shutdownCtx)
	}()
	a.println(i18n.T("auth.waiting_callback", addr, a.cfg.OAuth.CallbackPath))

	user, err := srv.Wait(ctx)
	return a.finishCallback(user, err)
}

// CompleteCallback 处理手动粘贴的回调 URL（或裸授权码）
// CompleteCallback handles a pasted redirect URL or bare code
func (a *App) CompleteCallback(ctx context.Context, raw string) error {
	params, err := callback.Parse(raw)
	if err != nil {
		return a.finishCallback(api.User{}, err)
	}
	q := url.Values{}
	for k, v := range map[string]string{
		"code":              params.Code,
		"state":             params.State,
		"error":             params.Error,
		"error_description": params.ErrorDescription,
	} {
		if v != "" {
			q.Set(k, v)
		}
	}
	route := session.RouteCallback
	if len(q) > 0 {
		route += "?" + q.Encode()
	}
	return a.Enter(ctx, route)
}

// HandleCallback 在当前挂载上处理回调参数；同一挂载只交换一次
// HandleCallback runs params against the current mount; one mount exchanges at most once
func (a *App) HandleCallback(ctx context.Context, params callback.Params) error {
	a.mu.Lock()
	handler := a.callback.handler
	a.mu.Unlock()
	if handler == nil {
		handler = a.mountCallback(a.expectedState())
	}
	user, err := handler.Handle(ctx, params)
	return a.finishCallback(user, err)
}

// enterCallback 每次进入回调页都是一次新的挂载
// enterCallback treats every entry into the callback view as a fresh mount
func (a *App) enterCallback(ctx context.Context, query url.Values) error {
	a.mountCallback(a.expectedState())
	return a.HandleCallback(ctx, callback.FromQuery(query))
}

func (a *App) mountCallback(state string) *callback.Handler {
	handler := callback.NewHandler(a.client.Auth(), a.session, state)
	a.mu.Lock()
	a.callback = callbackMount{handler: handler, state: state}
	a.mu.Unlock()
	return handler
}

func (a *App) expectedState() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.callback.state
}

func (a *App) finishCallback(user api.User, err error) error {
	switch {
	case err == nil:
		a.success(i18n.T("auth.login_success"))
		a.Navigate(session.RouteDashboard)
		return nil
	case errors.Is(err, callback.ErrAlreadyHandled):
		a.info(callback.Message(err))
		return err
	case errors.Is(err, context.Canceled):
		return err
	}
	a.notify.Notify(tui.NoticeError, callback.Message(err))
	a.Navigate(session.RouteEntry)
	return err
}

// LoginGoogle 用 Google ID 令牌登录
// LoginGoogle signs in with a Google ID token
func (a *App) LoginGoogle(ctx context.Context, idToken string) error {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		a.warn(i18n.T("error.usage", "/login google <id_token>"))
		return errors.New("google id token is empty")
	}
	tokens, err := a.client.Auth().Google(ctx, idToken)
	if err != nil {
		return a.fail(err, "auth.login_failed")
	}
	return a.login(ctx, tokens)
}

// LoginPassword 邮箱密码登录 / LoginPassword signs in with email and password
func (a *App) LoginPassword(ctx context.Context, email, password string) error {
	tokens, err := a.client.Auth().Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return a.fail(err, "auth.login_failed")
	}
	return a.login(ctx, tokens)
}

func (a *App) login(ctx context.Context, tokens api.TokenPair) error {
	if _, err := a.session.Login(ctx, tokens); err != nil {
		return a.fail(err, "auth.login_failed")
	}
	a.success(i18n.T("auth.login_success"))
	a.Navigate(session.RouteDashboard)
	return nil
}

func (a *App) Register(ctx context.Context, req api.RegisterRequest) (api.User, error) {
	user, err := a.client.Auth().Register(ctx, req)
	if err != nil {
		return api.User{}, a.fail(err, "error.generic")
	}
	a.success(i18n.T("auth.register_success", user.Email))
	return user, nil
}

// Logout 只清除本地状态，不发网络请求
// Logout clears local state only; no network call is made
func (a *App) Logout() error {
	err := a.session.Logout()
	a.SessionCleared()
	if a.store != nil {
		_ = a.store.ClearPosts()
	}
	a.info(i18n.T("auth.logged_out"))
	a.Navigate(session.RouteEntry)
	return err
}

func (a *App) WhoAmI() (api.User, error) {
	user, ok := a.session.User()
	if !ok {
		a.warn(i18n.T("auth.required"))
		return api.User{}, ErrNotSignedIn
	}
	a.println(i18n.T("auth.whoami", user.DisplayName(), user.Email, user.ID))
	if user.VelogUsername != "" {
		a.println("velog: @" + user.VelogUsername)
	}
	if exp, ok := session.TokenExpiry(a.session.Token()); ok {
		a.println(i18n.T("auth.token_expires", exp.Local().Format("2006-01-02 15:04")))
	}
	return user, nil
}
