package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"vbackup/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, token string, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(config.APIConfig{BaseURL: srv.URL, TimeoutMS: 5000}, TokenFunc(func() string { return token }))
	return c, srv
}

func TestClientAttachesBearerToken(t *testing.T) {
	var gotAuth, gotRequestID, gotPath string
	c, _ := newTestClient(t, "tok-123", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		gotPath = r.URL.Path
		_, _ = io.WriteString(w, `{"id": 7, "email": "a@b.c", "is_active": true, "created_at": "2024-03-01T10:00:00.123456"}`)
	})

	user, err := c.Auth().Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, "/api/v1/user/me", gotPath)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, 2024, user.CreatedAt.Year())
}

func TestClientOmitsAuthorizationWithoutToken(t *testing.T) {
	var hasAuth bool
	c, _ := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		_, hasAuth = r.Header["Authorization"]
		_, _ = io.WriteString(w, `{"auth_url": "https://github.com/login/oauth/authorize?client_id=x"}`)
	})

	out, err := c.Auth().GitHubAuthURL(context.Background())
	require.NoError(t, err)
	assert.False(t, hasAuth)
	assert.Contains(t, out.AuthURL, "github.com")
}

func TestClientUnauthorizedInvokesHandlerAndPropagates(t *testing.T) {
	c, _ := newTestClient(t, "expired", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"detail": "Could not validate credentials"}`)
	})
	var calls int32
	c.SetUnauthorizedHandler(func(err *Error) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/backup/stats", err.Path)
	})

	_, err := c.Backup().Stats(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	detail, ok := Detail(err)
	assert.True(t, ok)
	assert.Equal(t, "Could not validate credentials", detail)
}

func TestClientErrorDetailVariants(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
		wantOK     bool
		notFound   bool
	}{
		{name: "string detail", status: 400, body: `{"detail": "Velog 계정을 먼저 연동해주세요"}`, wantDetail: "Velog 계정을 먼저 연동해주세요", wantOK: true},
		{name: "validation array", status: 422, body: `{"detail": [{"msg": "field required"}, {"msg": "too short"}]}`, wantDetail: "field required; too short", wantOK: true},
		{name: "not found", status: 404, body: `{"detail": "Velog 사용자를 찾을 수 없습니다"}`, wantDetail: "Velog 사용자를 찾을 수 없습니다", wantOK: true, notFound: true},
		{name: "html body", status: 502, body: `<html>bad gateway</html>`, wantOK: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})
			_, err := c.Auth().VerifyVelog(context.Background(), "@someone")
			require.Error(t, err)

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tc.status, apiErr.Status)
			assert.Equal(t, tc.notFound, errors.Is(err, ErrNotFound))
			assert.False(t, errors.Is(err, ErrUnauthorized))

			detail, ok := Detail(err)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantDetail, detail)
		})
	}
}

func TestClientRejectsInvalidSchema(t *testing.T) {
	c, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"posts": [{"id": 0, "slug": ""}], "total": 1}`)
	})
	_, err := c.Posts().List(context.Background(), 1, 20)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidResponse))
}

func TestClientNetworkErrorIsNotAPIError(t *testing.T) {
	c := NewClient(config.APIConfig{BaseURL: "http://127.0.0.1:1", TimeoutMS: 500}, nil)
	_, err := c.Backup().Stats(context.Background())
	require.Error(t, err)
	var apiErr *Error
	assert.False(t, errors.As(err, &apiErr))
	_, ok := Detail(err)
	assert.False(t, ok)
}

func TestVerifyVelogStripsAtPrefix(t *testing.T) {
	var body map[string]string
	c, _ := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = io.WriteString(w, `{"message": "Velog 계정이 연동되었습니다", "username": "someone"}`)
	})
	out, err := c.Auth().VerifyVelog(context.Background(), " @someone ")
	require.NoError(t, err)
	assert.Equal(t, "someone", body["username"])
	assert.Equal(t, "someone", out.Username)
}

func TestRegisterValidatesLocally(t *testing.T) {
	var hits int32
	c, _ := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	})
	_, err := c.Auth().Register(context.Background(), RegisterRequest{Email: "nope", Password: "123456"})
	assert.Error(t, err)
	_, err = c.Auth().Register(context.Background(), RegisterRequest{Email: "a@b.c", Password: "123"})
	assert.Error(t, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}
