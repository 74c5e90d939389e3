package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/jmoiron/sqlx"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_KV(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Get(KeyAccessToken); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing key err=%v, want ErrNotFound", err)
	}

	if err := store.Set(KeyAccessToken, "tok-1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set(KeyAccessToken, "tok-2"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	if err := store.Set(KeyRefreshToken, "ref"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set(KeyTheme, "light"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := store.Get(KeyAccessToken)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "tok-2" {
		t.Fatalf("access_token=%q, want %q", got, "tok-2")
	}

	if err := store.Delete(KeyAccessToken, KeyRefreshToken); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(KeyRefreshToken); !errors.Is(err, ErrNotFound) {
		t.Fatalf("refresh_token should be gone, err=%v", err)
	}
	if theme, _ := store.Get(KeyTheme); theme != "light" {
		t.Fatalf("theme=%q, want %q", theme, "light")
	}
}

func TestSQLiteStore_SetRejectsEmptyKey(t *testing.T) {
	store := newTestStore(t)
	if err := store.Set("  ", "v"); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

func TestSQLiteStore_ReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reopen.db")
	first, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Set(KeyAccessToken, "persisted"); err != nil {
		t.Fatal(err)
	}
	_ = first.Close()

	second, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = second.Close() })
	got, err := second.Get(KeyAccessToken)
	if err != nil || got != "persisted" {
		t.Fatalf("Get after reopen=%q err=%v", got, err)
	}
}

func TestSQLiteStore_PostCache(t *testing.T) {
	store := newTestStore(t)

	err := store.CachePosts([]CachedPost{
		{ID: 1, Slug: "first", Title: "First", Content: "# body", VelogPublishedAt: "2024-01-01T00:00:00Z"},
		{ID: 2, Slug: "second", Title: "Second", VelogPublishedAt: "2024-02-01T00:00:00Z"},
	})
	if err != nil {
		t.Fatalf("CachePosts: %v", err)
	}

	// 列表刷新不带正文时不应覆盖已缓存正文
	if err := store.CachePosts([]CachedPost{{ID: 1, Slug: "first", Title: "First (edited)"}}); err != nil {
		t.Fatalf("CachePosts update: %v", err)
	}
	p, err := store.CachedPost(1)
	if err != nil {
		t.Fatalf("CachedPost: %v", err)
	}
	if p.Title != "First (edited)" || p.Content != "# body" {
		t.Fatalf("cached post=%+v", p)
	}

	list, err := store.CachedPosts(10)
	if err != nil {
		t.Fatalf("CachedPosts: %v", err)
	}
	var ids []int64
	for _, item := range list {
		ids = append(ids, item.ID)
	}
	if diff := cmp.Diff([]int64{2, 1}, ids); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}

	if err := store.ForgetPost(2); err != nil {
		t.Fatalf("ForgetPost: %v", err)
	}
	if _, err := store.CachedPost(2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("CachedPost(2) err=%v, want ErrNotFound", err)
	}

	if err := store.ClearPosts(); err != nil {
		t.Fatalf("ClearPosts: %v", err)
	}
	list, _ = store.CachedPosts(10)
	if len(list) != 0 {
		t.Fatalf("cache not cleared: %d rows", len(list))
	}
}

func TestSQLiteStore_GetQueryShape(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("SELECT value FROM kv WHERE key = \\?").
		WithArgs(KeyTheme).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("dark"))

	store := &SQLiteStore{db: sqlx.NewDb(db, "sqlmock")}
	got, err := store.Get(KeyTheme)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "dark" {
		t.Fatalf("theme=%q, want %q", got, "dark")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestMemoryKV(t *testing.T) {
	kv := NewMemoryKV()
	_ = kv.Set(KeySetupDismissed, "true")
	if v, err := kv.Get(KeySetupDismissed); err != nil || v != "true" {
		t.Fatalf("Get=%q err=%v", v, err)
	}
	_ = kv.Delete(KeySetupDismissed)
	if _, err := kv.Get(KeySetupDismissed); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v, want ErrNotFound", err)
	}
}
