package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// SQLiteStore 基于 SQLite (WAL 模式) 的本地存储，替代浏览器 localStorage
// SQLiteStore is the WAL-mode SQLite store standing in for browser local storage
type SQLiteStore struct {
	db   *sqlx.DB
	path string
}

// NewSQLiteStore 打开数据库并执行内嵌迁移
// NewSQLiteStore opens the database and applies embedded migrations
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sqlx.Connect("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// 启用 WAL 模式和优化 PRAGMA / Enable WAL and performance PRAGMAs
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}

	store := &SQLiteStore{db: db, path: dbPath}
	if err := store.applyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) applyMigrations() error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(string(goose.DialectSQLite3)); err != nil {
		return err
	}
	return goose.Up(s.db.DB, "migrations")
}

// Path 返回数据库文件路径 / Path returns the database file path
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close 关闭数据库连接 / Close the database connection
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// --- KV ---

func (s *SQLiteStore) Get(key string) (string, error) {
	var value string
	err := s.db.Get(&value, "SELECT value FROM kv WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %q: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) Set(key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("key is empty")
	}
	_, err := s.db.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
		value = excluded.value,
		updated_at = excluded.updated_at`,
		key, value, nowUTC())
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	query, args, err := sqlx.In("DELETE FROM kv WHERE key IN (?)", keys)
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := s.db.Exec(s.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("delete keys: %w", err)
	}
	return nil
}

// --- Post cache ---

func (s *SQLiteStore) CachePosts(posts []CachedPost) error {
	if len(posts) == 0 {
		return nil
	}
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := nowUTC()
	for _, p := range posts {
		p.CachedAt = now
		// 列表接口不带正文时保留已缓存的正文 / Keep cached content when the list payload omits it
		if _, err := tx.NamedExec(`
			INSERT INTO posts_cache (id, slug, title, content, tags, velog_published_at, last_backed_up, cached_at)
			VALUES (:id, :slug, :title, :content, :tags, :velog_published_at, :last_backed_up, :cached_at)
			ON CONFLICT (id) DO UPDATE SET
			slug = excluded.slug,
			title = excluded.title,
			content = CASE WHEN excluded.content = '' THEN posts_cache.content ELSE excluded.content END,
			tags = excluded.tags,
			velog_published_at = excluded.velog_published_at,
			last_backed_up = excluded.last_backed_up,
			cached_at = excluded.cached_at`, p); err != nil {
			return fmt.Errorf("cache post %d: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) CachedPosts(limit int) ([]CachedPost, error) {
	if limit <= 0 {
		limit = 50
	}
	posts := []CachedPost{}
	if err := s.db.Select(&posts, `
		SELECT id, slug, title, content, tags, velog_published_at, last_backed_up, cached_at
		FROM posts_cache ORDER BY velog_published_at DESC, id DESC LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("list cached posts: %w", err)
	}
	return posts, nil
}

func (s *SQLiteStore) CachedPost(id int64) (CachedPost, error) {
	var p CachedPost
	err := s.db.Get(&p, `
		SELECT id, slug, title, content, tags, velog_published_at, last_backed_up, cached_at
		FROM posts_cache WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return CachedPost{}, ErrNotFound
	}
	if err != nil {
		return CachedPost{}, fmt.Errorf("get cached post %d: %w", id, err)
	}
	return p, nil
}

func (s *SQLiteStore) ForgetPost(id int64) error {
	if _, err := s.db.Exec("DELETE FROM posts_cache WHERE id = ?", id); err != nil {
		return fmt.Errorf("forget post %d: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) ClearPosts() error {
	if _, err := s.db.Exec("DELETE FROM posts_cache"); err != nil {
		return fmt.Errorf("clear post cache: %w", err)
	}
	return nil
}

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}
