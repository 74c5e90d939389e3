package posts

import (
	"time"

	"vbackup/internal/api"
	"vbackup/internal/storage"
)

func ToCached(p api.Post) storage.CachedPost {
	return storage.CachedPost{
		ID:               p.ID,
		Slug:             p.Slug,
		Title:            p.Title,
		Content:          p.Content,
		Tags:             p.Tags.Encode(),
		VelogPublishedAt: formatTime(p.VelogPublishedAt),
		LastBackedUp:     formatTime(p.LastBackedUp),
	}
}

func FromCached(c storage.CachedPost) api.Post {
	return api.Post{
		ID:               c.ID,
		Slug:             c.Slug,
		Title:            c.Title,
		Content:          c.Content,
		Tags:             api.ParseTags(c.Tags),
		VelogPublishedAt: api.ParseTimestamp(c.VelogPublishedAt),
		LastBackedUp:     api.ParseTimestamp(c.LastBackedUp),
	}
}

// CacheAll 列表页的文章通常没有正文；存储层会保留已缓存的正文
// CacheAll stores a page of posts; list entries usually lack content and the store keeps any cached body
func CacheAll(cache storage.PostCache, list []api.Post) error {
	if len(list) == 0 {
		return nil
	}
	rows := make([]storage.CachedPost, 0, len(list))
	for _, p := range list {
		rows = append(rows, ToCached(p))
	}
	return cache.CachePosts(rows)
}

func formatTime(t api.Timestamp) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
