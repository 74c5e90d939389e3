// Package posts 提供帖子列表分页、导出（Markdown/HTML）和离线缓存转换。
//
// Package posts holds paging, Markdown/HTML export and offline-cache conversion for backed-up posts.
package posts

import "vbackup/internal/api"

// Pager 只描述服务器返回的那一页，不做本地切片
// Pager describes the page the server returned; it never slices locally
type Pager struct {
	Page  int
	Limit int
	Total int
}

func NewPager(p api.PostPage) Pager {
	pg := Pager{Page: p.Page, Limit: p.Limit, Total: p.Total}
	if pg.Page < 1 {
		pg.Page = 1
	}
	if pg.Limit < 1 {
		pg.Limit = 20
	}
	return pg
}

func (p Pager) TotalPages() int {
	if p.Total <= 0 || p.Limit <= 0 {
		return 1
	}
	return (p.Total + p.Limit - 1) / p.Limit
}

func (p Pager) HasPrev() bool { return p.Page > 1 }

func (p Pager) HasNext() bool { return p.Page < p.TotalPages() }

// Prev/Next 越界时停在首页/末页
// Prev and Next clamp at the first and last page
func (p Pager) Prev() int {
	if !p.HasPrev() {
		return p.Page
	}
	return p.Page - 1
}

func (p Pager) Next() int {
	if !p.HasNext() {
		return p.Page
	}
	return p.Page + 1
}
