package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostsListSendsPaging(t *testing.T) {
	c, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/backup/posts", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		_, _ = io.WriteString(w, `{"posts": [
			{"id": 21, "slug": "go-generics", "title": "Go Generics", "tags": "[\"go\", \"generics\"]", "velog_published_at": "2024-05-01T09:00:00Z"},
			{"id": 22, "slug": "rust", "title": "Rust", "tags": ["rust"], "velog_published_at": null}
		], "total": 42}`)
	})

	page, err := c.Posts().List(context.Background(), 3, 10)
	require.NoError(t, err)
	assert.Equal(t, 42, page.Total)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 10, page.Limit)
	require.Len(t, page.Posts, 2)
	assert.Equal(t, TagList{"go", "generics"}, page.Posts[0].Tags)
	assert.Equal(t, TagList{"rust"}, page.Posts[1].Tags)
	assert.True(t, page.Posts[1].VelogPublishedAt.IsZero())
}

func TestPostsGetNotFound(t *testing.T) {
	c, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"detail": "Post not found"}`)
	})
	_, err := c.Posts().Get(context.Background(), 99)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPostsDelete(t *testing.T) {
	var method, path string
	c, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})
	require.NoError(t, c.Posts().Delete(context.Background(), 5))
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/api/v1/backup/posts/5", path)
}

func TestStatsNormalizesUnknownStatus(t *testing.T) {
	c, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{
			"total_posts": 12,
			"last_backup": "2024-06-01T12:00:00+09:00",
			"google_drive_connected": true,
			"github_connected": false,
			"velog_connected": true,
			"recent_logs": [
				{"id": 1, "status": "IN_PROGRESS", "posts_total": 3, "started_at": "2024-06-01T12:00:00"},
				{"id": 2, "status": "queued", "started_at": "2024-06-01T11:00:00"}
			]
		}`)
	})
	stats, err := c.Backup().Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, stats.RecentLogs[0].Status)
	assert.Equal(t, StatusPending, stats.RecentLogs[1].Status)
	assert.True(t, stats.AnyInProgress())
	assert.True(t, stats.HasDestination())
}

func TestTriggerSendsDestination(t *testing.T) {
	var body map[string]any
	c, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = io.WriteString(w, `{"message": "백업이 시작되었습니다"}`)
	})
	out, err := c.Backup().Trigger(context.Background(), TriggerRequest{Force: true, Destination: DestinationGitHub})
	require.NoError(t, err)
	assert.Equal(t, true, body["force"])
	assert.Equal(t, "github", body["destination"])
	assert.Equal(t, "백업이 시작되었습니다", out.Message)
}

func TestDownloadZip(t *testing.T) {
	c, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", `attachment; filename="velog_backup_20240601.zip"`)
		_, _ = w.Write([]byte("PK\x03\x04"))
	})
	archive, err := c.Backup().DownloadZip(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "velog_backup_20240601.zip", archive.Filename)
	assert.Equal(t, []byte("PK\x03\x04"), archive.Data)
}

func TestFilenameFromDisposition(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", DefaultArchiveName},
		{"attachment", DefaultArchiveName},
		{"attachment; filename=backup.zip", "backup.zip"},
		{`attachment; filename="my backup.zip"`, "my backup.zip"},
		{"attachment; filename=../../etc/passwd", "passwd"},
		{`attachment; filename="..\..\evil.zip"`, "evil.zip"},
		{"inline; filename=a.zip; size=10", "a.zip"},
		{"garbage filename=x.zip", "x.zip"},
	}
	for _, tc := range tests {
		if got := FilenameFromDisposition(tc.header, DefaultArchiveName); got != tc.want {
			t.Fatalf("FilenameFromDisposition(%q)=%q, want %q", tc.header, got, tc.want)
		}
	}
}

func TestCheckRepoAndUpdateSettings(t *testing.T) {
	var putBody map[string]any
	c, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/user/github/repo/check":
			assert.Equal(t, "my-blog", r.URL.Query().Get("name"))
			_, _ = io.WriteString(w, `{"exists": true, "url": "https://github.com/me/my-blog"}`)
		case "/api/v1/user/settings":
			require.Equal(t, http.MethodPut, r.Method)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&putBody))
			_, _ = io.WriteString(w, `{"github_repo": "my-blog", "github_sync_enabled": true, "email_notification_enabled": false}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	check, err := c.Settings().CheckRepo(context.Background(), " my-blog ")
	require.NoError(t, err)
	assert.True(t, check.Exists)
	assert.Equal(t, "my-blog", check.Name)

	out, err := c.Settings().Update(context.Background(), SettingsUpdate{GitHubRepo: String("my-blog"), GitHubSyncEnabled: Bool(true)})
	require.NoError(t, err)
	assert.Equal(t, "my-blog", out.GitHubRepo)
	assert.Equal(t, map[string]any{"github_repo": "my-blog", "github_sync_enabled": true}, putBody)

	_, err = c.Settings().Update(context.Background(), SettingsUpdate{})
	assert.Error(t, err)
}

func TestIntegrationsConnectGitHubDefaultsRepo(t *testing.T) {
	var body map[string]string
	c, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = io.WriteString(w, `{"message": "GitHub connected successfully", "repo_url": "https://github.com/me/velog-backup"}`)
	})
	out, err := c.Integrations().ConnectGitHub(context.Background(), "code-1", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultRepoName, body["repo_name"])
	assert.Equal(t, "https://github.com/me/velog-backup", out.RepoURL)
}

func TestIntegrationsUpdateRejectsUnknownFrequency(t *testing.T) {
	c, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("request should not be sent")
	})
	_, err := c.Integrations().Update(context.Background(), IntegrationsUpdate{BackupFrequency: String("hourly")})
	assert.Error(t, err)
}

func TestConnectAppValidatesInput(t *testing.T) {
	c, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("request should not be sent")
	})
	_, err := c.Integrations().ConnectApp(context.Background(), 0, "me/repo")
	assert.Error(t, err)
	_, err = c.Integrations().ConnectApp(context.Background(), 12, "repo-without-owner")
	assert.Error(t, err)
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, TagList{"a", "b"}, ParseTags(`["a", " b ", ""]`))
	assert.Equal(t, TagList{"x", "y"}, ParseTags("x, y"))
	assert.Nil(t, ParseTags(""))
	assert.Equal(t, `["go"]`, TagList{"go"}.Encode())
}

func TestParseDestination(t *testing.T) {
	d, err := ParseDestination("gdrive")
	require.NoError(t, err)
	assert.Equal(t, DestinationGoogleDrive, d)
	d, err = ParseDestination("")
	require.NoError(t, err)
	assert.Equal(t, DestinationBoth, d)
	_, err = ParseDestination("dropbox")
	assert.Error(t, err)
}
