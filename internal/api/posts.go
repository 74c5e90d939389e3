package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

type PostsAPI struct{ c *Client }

// List GET /backup/posts?page=&limit=，页码从 1 开始
// List fetches one page; pages are 1-based
func (p PostsAPI) List(ctx context.Context, page, limit int) (PostPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var out PostPage
	if err := p.c.doJSON(ctx, http.MethodGet, "/backup/posts", q, nil, &out); err != nil {
		return PostPage{}, err
	}
	if out.Page == 0 {
		out.Page = page
	}
	if out.Limit == 0 {
		out.Limit = limit
	}
	return out, nil
}

// Get GET /backup/posts/{id}
func (p PostsAPI) Get(ctx context.Context, id int64) (Post, error) {
	if id <= 0 {
		return Post{}, fmt.Errorf("invalid post id %d", id)
	}
	var out Post
	err := p.c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/backup/posts/%d", id), nil, nil, &out)
	return out, err
}

// Delete DELETE /backup/posts/{id}
func (p PostsAPI) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("invalid post id %d", id)
	}
	return p.c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/backup/posts/%d", id), nil, nil, nil)
}
