package app

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"vbackup/internal/i18n"
	"vbackup/internal/session"
)

// 路由常量 / Route constants
const (
	RouteSettings     = "/settings"
	RouteIntegrations = "/integrations"
	RoutePosts        = "/posts"
)

// maxHops 防止两个视图互相跳转形成死循环
// maxHops bounds one Flush so two views cannot bounce forever
const maxHops = 8

// Route 解析后的路由 / Route is a parsed route
type Route struct {
	Path   string
	Query  url.Values
	PostID int64
}

// ParseRoute 解析 "/posts/12"、"/posts?page=2"、"/auth/callback?code=..." 等
// ParseRoute parses routes such as "/posts/12", "/posts?page=2" and "/auth/callback?code=..."
func ParseRoute(raw string) Route {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = session.RouteEntry
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Route{Path: raw, Query: url.Values{}}
	}
	r := Route{Path: strings.TrimRight(u.Path, "/"), Query: u.Query()}
	if r.Path == "" {
		r.Path = session.RouteEntry
	}
	if rest, ok := strings.CutPrefix(r.Path, RoutePosts+"/"); ok {
		if id, err := strconv.ParseInt(rest, 10, 64); err == nil && id > 0 {
			r.PostID = id
		}
	}
	return r
}

func PostsRoute(page int) string {
	if page <= 1 {
		return RoutePosts
	}
	return fmt.Sprintf("%s?page=%d", RoutePosts, page)
}

func PostRoute(id int64) string {
	return fmt.Sprintf("%s/%d", RoutePosts, id)
}

// Navigate 实现 session.Navigator：只记录目标路由，由 Flush 渲染，
// 所以在 API 调用中途（401 处理器里）调用也是安全的。
// Navigate implements session.Navigator. It only queues the route; Flush renders
// it, so calling it from inside an API call (the 401 handler) is safe.
func (a *App) Navigate(route string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n := len(a.pending); n > 0 && a.pending[n-1] == route {
		return
	}
	a.pending = append(a.pending, route)
}

func (a *App) hasPending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending) > 0
}

func (a *App) takePending() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.pending) == 0 {
		return "", false
	}
	route := a.pending[0]
	a.pending = a.pending[1:]
	return route, true
}

// Flush 依次进入排队的路由
// Flush enters queued routes in order
func (a *App) Flush(ctx context.Context) {
	for hops := 0; hops < maxHops; hops++ {
		route, ok := a.takePending()
		if !ok {
			return
		}
		_ = a.Enter(ctx, route)
	}
	a.mu.Lock()
	a.pending = nil
	a.mu.Unlock()
}

// Route 当前路由 / Route returns the current route
func (a *App) Route() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.route
}

func (a *App) onDashboard() bool {
	return ParseRoute(a.Route()).Path == session.RouteDashboard
}

// Enter 立即进入路由并渲染对应视图；离开仪表盘时停止轮询
// Enter switches to route and renders its view; leaving the dashboard stops polling
func (a *App) Enter(ctx context.Context, raw string) error {
	r := ParseRoute(raw)

	a.mu.Lock()
	prev := ParseRoute(a.route)
	a.route = raw
	a.mu.Unlock()

	if prev.Path == session.RouteDashboard && r.Path != session.RouteDashboard {
		a.watcher.Close()
	}

	switch {
	case r.Path == session.RouteEntry:
		return a.enterEntry()
	case r.Path == session.RouteCallback:
		return a.enterCallback(ctx, r.Query)
	case r.Path == session.RouteDashboard:
		a.watcher.Reopen()
		return a.EnterDashboard(ctx)
	case r.Path == RouteSettings:
		return a.EnterSettings(ctx)
	case r.Path == RouteIntegrations:
		return a.EnterIntegrations(ctx)
	case r.Path == RoutePosts:
		page, _ := strconv.Atoi(r.Query.Get("page"))
		return a.EnterPosts(ctx, page)
	case r.PostID > 0:
		return a.EnterPost(ctx, r.PostID)
	}
	a.warn(i18n.T("error.unknown_command", raw))
	return fmt.Errorf("%w: %s", ErrUnknownRoute, raw)
}
