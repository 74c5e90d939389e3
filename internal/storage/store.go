package storage

import "errors"

// ErrNotFound 键或缓存条目不存在
// ErrNotFound is returned when a key or cached entry is absent
var ErrNotFound = errors.New("storage: not found")

// 持久化键名 / Persisted key names
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyTheme        = "theme"
	// KeySetupDismissed 只存放在会话级存储中，进程退出即失效。
	// KeySetupDismissed lives in session-scoped storage only and dies with the process.
	KeySetupDismissed = "setup_dismissed"
)

// KV 键值存储接口，SQLite（跨进程持久）与内存（会话级）两种实现
// KV is a key/value store; SQLite backs the persistent one, memory backs the session-scoped one
type KV interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(keys ...string) error
}

// PostCache 已拉取文章的本地缓存
// PostCache is the local cache of fetched posts
type PostCache interface {
	CachePosts(posts []CachedPost) error
	CachedPosts(limit int) ([]CachedPost, error)
	CachedPost(id int64) (CachedPost, error)
	ForgetPost(id int64) error
	ClearPosts() error
}

// Store 本地持久化接口 / Store is the local persistence interface
type Store interface {
	KV
	PostCache
	Close() error
}

// CachedPost 缓存中的文章行
// CachedPost is one cached post row
type CachedPost struct {
	ID               int64  `db:"id"`
	Slug             string `db:"slug"`
	Title            string `db:"title"`
	Content          string `db:"content"`
	Tags             string `db:"tags"`
	VelogPublishedAt string `db:"velog_published_at"`
	LastBackedUp     string `db:"last_backed_up"`
	CachedAt         string `db:"cached_at"`
}
