// Package session 持有唯一的会话令牌与当前用户快照。
// 令牌只由 Login、Logout 和 401 处理器写入；视图通过 Store 读取，不直接访问存储。
//
// Package session owns the single session token and the current user snapshot.
// Only Login, Logout and the 401 handler write the token; views read through Store.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"vbackup/internal/api"
	"vbackup/internal/storage"
)

// State 会话解析状态 / State is the resolution state of the session
type State int

const (
	Unresolved State = iota
	Authenticated
	Anonymous
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return "unresolved"
	}
}

// 路由常量 / Route constants
const (
	RouteEntry     = "/"
	RouteCallback  = "/auth/callback"
	RouteDashboard = "/dashboard"
)

var publicRoutes = []string{RouteEntry, RouteCallback}

// IsPublicRoute "/" 只精确匹配，其余公开路由按前缀匹配
// IsPublicRoute matches "/" exactly and other public routes by prefix
func IsPublicRoute(route string) bool {
	route = strings.TrimSpace(route)
	if i := strings.IndexAny(route, "?#"); i >= 0 {
		route = route[:i]
	}
	for _, p := range publicRoutes {
		if p == RouteEntry {
			if route == p || route == "" {
				return true
			}
			continue
		}
		if route == p || strings.HasPrefix(route, p+"/") {
			return true
		}
	}
	return false
}

// Navigator 由协调器实现，用于跳转路由
// Navigator is implemented by the coordinator to change routes
type Navigator interface {
	Navigate(route string)
}

// UserFetcher who-am-I 查询 / UserFetcher resolves the current user
type UserFetcher interface {
	Me(ctx context.Context) (api.User, error)
}

// Snapshot 某一时刻的会话视图
// Snapshot is a point-in-time view of the session
type Snapshot struct {
	State State
	User  api.User
}

type Options struct {
	// OnCleared 在凭证被清除、状态变为匿名之后调用（登出、401、初始化失败）
	// OnCleared runs after credentials are cleared and the store is anonymous (logout, 401, failed init)
	OnCleared func()
	Now       func() time.Time
}

type Store struct {
	mu    sync.RWMutex
	state State
	user  api.User

	// generation 每次进入 Authenticated 自增；handled 记录已处理 401 的代
	// generation bumps on every transition into Authenticated; handled records the generation whose 401 was handled
	generation uint64
	handled    uint64

	local     storage.KV
	sessionKV storage.KV
	users     UserFetcher
	nav       Navigator
	opts      Options
}

func New(local, sessionKV storage.KV, users UserFetcher, nav Navigator, opts Options) *Store {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		state:     Unresolved,
		local:     local,
		sessionKV: sessionKV,
		users:     users,
		nav:       nav,
		opts:      opts,
	}
}

// SetUserFetcher 打破构造期的循环依赖（客户端需要 Store 作为 TokenSource）
// SetUserFetcher breaks the construction cycle where the client needs Store as its TokenSource
func (s *Store) SetUserFetcher(users UserFetcher) {
	s.mu.Lock()
	s.users = users
	s.mu.Unlock()
}

func (s *Store) SetNavigator(nav Navigator) {
	s.mu.Lock()
	s.nav = nav
	s.mu.Unlock()
}

// Token 实现 api.TokenSource；已过期的 JWT 视为不存在
// Token implements api.TokenSource; an expired JWT reads as absent
func (s *Store) Token() string {
	token, err := s.local.Get(storage.KeyAccessToken)
	if err != nil {
		return ""
	}
	if tokenExpired(token, s.opts.Now()) {
		return ""
	}
	return token
}

// HasToken 是否持有有效令牌 / HasToken reports whether a usable token is stored
func (s *Store) HasToken() bool {
	return s.Token() != ""
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{State: s.state, User: s.user}
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User 仅在 Authenticated 时返回 true
// User returns the snapshot user; ok is true only when authenticated
func (s *Store) User() (api.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.state == Authenticated
}

// Init 解析会话：无令牌直接匿名；令牌无效时清除，并在非公开路由上跳回入口页。
// Init resolves the session; an invalid token is cleared and non-public routes are sent back to the entry page.
func (s *Store) Init(ctx context.Context, route string) error {
	if !s.HasToken() {
		if _, err := s.local.Get(storage.KeyAccessToken); err == nil {
			slog.Info("stored token expired, clearing")
			s.clearCredentials()
			s.setAnonymous()
			s.cleared()
			return nil
		}
		s.setAnonymous()
		return nil
	}

	s.mu.RLock()
	handledBefore := s.handled
	s.mu.RUnlock()

	user, err := s.fetchUser(ctx)
	if err != nil {
		slog.Warn("session init failed", slog.String("route", route), slog.String("err", err.Error()))
		s.clearCredentials()
		s.setAnonymous()
		s.mu.RLock()
		alreadyNavigated := s.handled != handledBefore
		s.mu.RUnlock()
		if !alreadyNavigated && !IsPublicRoute(route) {
			s.navigate(RouteEntry)
		}
		s.cleared()
		return err
	}
	s.setAuthenticated(user)
	return nil
}

// Refresh 重新拉取当前用户并替换快照；失败时保留旧快照。
// Refresh re-fetches the user and replaces the snapshot; the old snapshot survives a failure.
func (s *Store) Refresh(ctx context.Context) error {
	if !s.HasToken() {
		s.setAnonymous()
		return nil
	}
	user, err := s.fetchUser(ctx)
	if err != nil {
		return err
	}
	// 请求期间凭证可能已被 401 清除 / a concurrent 401 may have cleared the credentials meanwhile
	if !s.HasToken() {
		return nil
	}
	s.mu.Lock()
	if s.state != Authenticated {
		s.generation++
	}
	s.state = Authenticated
	s.user = user
	s.mu.Unlock()
	return nil
}

// Login 持久化令牌后刷新用户；who-am-I 失败时回滚令牌。
// Login persists the tokens and then resolves the user; the tokens are rolled back if that fails.
func (s *Store) Login(ctx context.Context, tokens api.TokenPair) (api.User, error) {
	if err := tokens.Validate(); err != nil {
		return api.User{}, err
	}
	if err := s.local.Set(storage.KeyAccessToken, tokens.AccessToken); err != nil {
		return api.User{}, fmt.Errorf("persist access token: %w", err)
	}
	if tokens.RefreshToken != "" {
		if err := s.local.Set(storage.KeyRefreshToken, tokens.RefreshToken); err != nil {
			return api.User{}, fmt.Errorf("persist refresh token: %w", err)
		}
	}

	user, err := s.fetchUser(ctx)
	if err != nil {
		s.clearCredentials()
		s.setAnonymous()
		s.cleared()
		return api.User{}, err
	}
	s.setAuthenticated(user)
	slog.Info("signed in", slog.Int64("user_id", user.ID))
	return user, nil
}

// Logout 清除令牌与会话级标记，不发网络请求
// Logout clears tokens and session-scoped flags without any network call
func (s *Store) Logout() error {
	err := s.clearCredentials()
	s.mu.Lock()
	s.handled = s.generation
	s.mu.Unlock()
	s.setAnonymous()
	s.cleared()
	return err
}

// HandleUnauthorized 安装为 api.Client 的 401 处理器：
// 每次请求都清除凭证，但每个已认证代只跳转一次入口页。
// HandleUnauthorized is installed as the api.Client 401 handler:
// credentials are cleared on every 401, navigation happens once per authenticated generation.
func (s *Store) HandleUnauthorized(apiErr *api.Error) {
	s.mu.Lock()
	shouldNavigate := s.generation > s.handled
	if shouldNavigate {
		s.handled = s.generation
	}
	wasAuthenticated := s.state == Authenticated
	s.mu.Unlock()

	if wasAuthenticated || shouldNavigate {
		path := ""
		if apiErr != nil {
			path = apiErr.Path
		}
		slog.Warn("unauthorized response, clearing session", slog.String("path", path))
	}
	s.clearCredentials()
	s.setAnonymous()
	if shouldNavigate {
		s.navigate(RouteEntry)
	}
	s.cleared()
}

// DismissSetup 记录本会话内关闭了设置引导
// DismissSetup remembers that the setup guide was dismissed for this session
func (s *Store) DismissSetup() error {
	return s.sessionKV.Set(storage.KeySetupDismissed, "true")
}

func (s *Store) SetupDismissed() bool {
	v, err := s.sessionKV.Get(storage.KeySetupDismissed)
	return err == nil && v == "true"
}

func (s *Store) fetchUser(ctx context.Context) (api.User, error) {
	s.mu.RLock()
	users := s.users
	s.mu.RUnlock()
	if users == nil {
		return api.User{}, errors.New("session: user fetcher not configured")
	}
	return users.Me(ctx)
}

func (s *Store) clearCredentials() error {
	err := s.local.Delete(storage.KeyAccessToken, storage.KeyRefreshToken)
	if s.sessionKV != nil {
		_ = s.sessionKV.Delete(storage.KeySetupDismissed)
	}
	return err
}

// cleared 在状态已变为匿名、跳转已排队之后通知外部；回调可能运行在轮询任务的 goroutine 上
// cleared runs OnCleared once the store is anonymous and any redirect is queued
func (s *Store) cleared() {
	if s.opts.OnCleared != nil {
		s.opts.OnCleared()
	}
}

func (s *Store) setAnonymous() {
	s.mu.Lock()
	s.state = Anonymous
	s.user = api.User{}
	s.mu.Unlock()
}

func (s *Store) setAuthenticated(user api.User) {
	s.mu.Lock()
	s.generation++
	s.state = Authenticated
	s.user = user
	s.mu.Unlock()
}

func (s *Store) navigate(route string) {
	s.mu.RLock()
	nav := s.nav
	s.mu.RUnlock()
	if nav != nil {
		nav.Navigate(route)
	}
}
