package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"vbackup/internal/api"
	"vbackup/internal/i18n"
	"vbackup/internal/permission"
	"vbackup/internal/posts"
	"vbackup/internal/session"
	"vbackup/internal/storage"
	"vbackup/internal/tui"
)

// EnterPosts 渲染服务器返回的那一页；失败时回到仪表盘
// EnterPosts renders exactly the page the server returned; on failure it returns to the dashboard
func (a *App) EnterPosts(ctx context.Context, page int) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	if page < 1 {
		page = 1
	}
	result, err := a.client.Posts().List(ctx, page, a.cfg.Posts.PageSize)
	if err != nil {
		a.fail(err, "error.load_failed")
		if !api.IsUnauthorized(err) {
			a.Navigate(session.RouteDashboard)
		}
		return err
	}
	a.rememberTitles(result.Posts)
	if a.store != nil {
		if err := posts.CacheAll(a.store, result.Posts); err != nil {
			slog.Warn("cache posts", slog.String("err", err.Error()))
		}
	}
	a.renderPostList(result)
	return nil
}

func (a *App) renderPostList(result api.PostPage) {
	theme := a.Theme()
	pager := posts.NewPager(result)
	a.println(theme.TitleStyle.Render(i18n.T("posts.title")))
	if len(result.Posts) == 0 {
		a.println(theme.MutedStyle.Render(i18n.T("posts.none")))
		return
	}
	width := a.currentWidth()
	for _, p := range result.Posts {
		a.println(postLine(theme, p, width))
	}

	nav := i18n.T("posts.page", pager.Page, pager.TotalPages(), pager.Total)
	if pager.HasPrev() {
		nav = "/posts " + fmt.Sprint(pager.Prev()) + " ◀  " + nav
	}
	if pager.HasNext() {
		nav += "  ▶ /posts " + fmt.Sprint(pager.Next())
	}
	a.println(theme.MutedStyle.Render(nav))
}

func postLine(theme tui.Theme, p api.Post, width int) string {
	id := fmt.Sprintf("#%-6d", p.ID)
	date := "-         "
	if !p.VelogPublishedAt.IsZero() {
		date = p.VelogPublishedAt.Local().Format("2006-01-02")
	}
	line := theme.MutedStyle.Render(id) + " " + date + " " + tui.Truncate(p.Title, width-30)
	if len(p.Tags) > 0 {
		line += " " + theme.InfoStyle.Render(tui.Truncate("#"+strings.Join(p.Tags, " #"), 30))
	}
	return line
}

func (a *App) rememberTitles(list []api.Post) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, p := range list {
		a.titles[p.ID] = p.Title
	}
}

// EnterPost 渲染单篇文章；404 显示 not-found，网络失败时退回本地缓存
// EnterPost renders one post; a 404 shows not-found and a network failure falls back to the cache
func (a *App) EnterPost(ctx context.Context, id int64) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	post, cached, err := a.fetchPost(ctx, id)
	theme := a.Theme()
	if errors.Is(err, api.ErrNotFound) {
		a.println(theme.WarningStyle.Render(i18n.T("posts.not_found")))
		return err
	}
	if err != nil {
		a.fail(err, "error.load_failed")
		if !api.IsUnauthorized(err) {
			a.Navigate(RoutePosts)
		}
		return err
	}

	a.println(theme.TitleStyle.Render(post.Title))
	meta := []string{fmt.Sprintf("#%d", post.ID)}
	if !post.VelogPublishedAt.IsZero() {
		meta = append(meta, post.VelogPublishedAt.String())
	}
	if len(post.Tags) > 0 {
		meta = append(meta, "#"+strings.Join(post.Tags, " #"))
	}
	if cached {
		meta = append(meta, i18n.T("posts.cached_copy"))
	}
	a.println(theme.MutedStyle.Render(strings.Join(meta, " · ")))
	if body := theme.Markdown(post.Content, a.currentWidth()); body != "" {
		a.println(body)
	}
	return nil
}

// fetchPost 从后端获取文章并写入缓存；非 API 错误（离线）时读取缓存
// fetchPost loads the post from the backend and caches it; on a non-API error (offline) it reads the cache
func (a *App) fetchPost(ctx context.Context, id int64) (api.Post, bool, error) {
	post, err := a.client.Posts().Get(ctx, id)
	if err == nil {
		a.rememberTitles([]api.Post{post})
		if a.store != nil {
			if cerr := posts.CacheAll(a.store, []api.Post{post}); cerr != nil {
				slog.Warn("cache post", slog.Int64("id", id), slog.String("err", cerr.Error()))
			}
		}
		return post, false, nil
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) || errors.Is(err, context.Canceled) || a.store == nil {
		return api.Post{}, false, err
	}
	row, cerr := a.store.CachedPost(id)
	if cerr != nil || strings.TrimSpace(row.Content) == "" {
		return api.Post{}, false, err
	}
	slog.Info("serving cached post", slog.Int64("id", id), slog.String("err", err.Error()))
	return posts.FromCached(row), true, nil
}

func (a *App) postTitle(ctx context.Context, id int64) string {
	a.mu.Lock()
	title, ok := a.titles[id]
	a.mu.Unlock()
	if ok && title != "" {
		return title
	}
	if a.store != nil {
		if row, err := a.store.CachedPost(id); err == nil && row.Title != "" {
			return row.Title
		}
	}
	if post, err := a.client.Posts().Get(ctx, id); err == nil {
		return post.Title
	}
	return fmt.Sprintf("#%d", id)
}

// DeletePost 删除前确认；在详情页删除后回到列表
// DeletePost confirms first; deleting from the detail view returns to the list
func (a *App) DeletePost(ctx context.Context, id int64) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	ok, err := a.confirmAction(ctx, permission.ActionDeletePost, i18n.T("posts.delete_confirm", a.postTitle(ctx, id)))
	if err != nil {
		return err
	}
	if !ok {
		return ErrCancelled
	}
	if err := a.client.Posts().Delete(ctx, id); err != nil {
		return a.fail(err, "posts.delete_failed")
	}
	a.mu.Lock()
	delete(a.titles, id)
	a.mu.Unlock()
	if a.store != nil {
		if err := a.store.ForgetPost(id); err != nil && !errors.Is(err, storage.ErrNotFound) {
			slog.Warn("forget cached post", slog.Int64("id", id), slog.String("err", err.Error()))
		}
	}
	a.success(i18n.T("posts.deleted"))

	current := ParseRoute(a.Route())
	switch {
	case current.PostID == id:
		a.Navigate(RoutePosts)
	case current.Path == RoutePosts:
		a.Navigate(a.Route())
	}
	return nil
}

// ExportPost 导出为 <slug>.md 或 <slug>.html；正文为空时拒绝
// ExportPost writes <slug>.md or <slug>.html; empty content is refused
func (a *App) ExportPost(ctx context.Context, id int64, format posts.Format, dir string) (string, error) {
	if err := a.requireSession(); err != nil {
		return "", err
	}
	post, _, err := a.fetchPost(ctx, id)
	if err != nil {
		return "", a.failPost(err)
	}
	data, err := posts.Export(post, format)
	if errors.Is(err, posts.ErrEmptyContent) {
		a.warn(i18n.T("posts.empty_content"))
		return "", err
	}
	if err != nil {
		return "", a.fail(err, "error.generic")
	}
	path, err := a.writeDownload(dir, posts.Filename(post, format), data)
	if err != nil {
		a.notify.Notify(tui.NoticeError, err.Error())
		return "", err
	}
	a.success(i18n.T("posts.exported", path))
	return path, nil
}

// CopyPost 把正文写到文件；目标为空或 "-" 时写到标准输出
// CopyPost writes the content to a file, or to stdout when target is empty or "-"
func (a *App) CopyPost(ctx context.Context, id int64, target string) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	post, _, err := a.fetchPost(ctx, id)
	if err != nil {
		return a.failPost(err)
	}
	if strings.TrimSpace(post.Content) == "" {
		a.warn(i18n.T("posts.empty_content"))
		return posts.ErrEmptyContent
	}
	target = strings.TrimSpace(target)
	if target == "" || target == "-" {
		a.println(post.Content)
		return nil
	}
	dir, name := filepath.Split(target)
	if dir == "" {
		dir = "."
	}
	path, err := a.writeDownload(dir, name, []byte(post.Content))
	if err != nil {
		a.notify.Notify(tui.NoticeError, err.Error())
		return err
	}
	a.success(i18n.T("posts.copied", path))
	return nil
}

func (a *App) failPost(err error) error {
	if errors.Is(err, api.ErrNotFound) {
		a.warn(i18n.T("posts.not_found"))
		return err
	}
	return a.fail(err, "error.load_failed")
}

// CachedPosts 列出离线缓存 / CachedPosts lists the offline cache
func (a *App) CachedPosts(limit int) ([]storage.CachedPost, error) {
	if a.store == nil {
		return nil, nil
	}
	rows, err := a.store.CachedPosts(limit)
	if err != nil {
		a.notify.Notify(tui.NoticeError, i18n.T("error.load_failed"))
		return nil, err
	}
	theme := a.Theme()
	a.println(theme.TitleStyle.Render(i18n.T("posts.cached_header")))
	if len(rows) == 0 {
		a.println(theme.MutedStyle.Render(i18n.T("posts.none")))
		return rows, nil
	}
	width := a.currentWidth()
	for _, row := range rows {
		line := postLine(theme, posts.FromCached(row), width)
		if strings.TrimSpace(row.Content) == "" {
			line += theme.MutedStyle.Render(" ("+i18n.T("posts.no_content")+")")
		}
		a.println(line)
	}
	return rows, nil
}
