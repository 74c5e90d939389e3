package callback

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vbackup/internal/api"
	"vbackup/internal/config"
	"vbackup/internal/i18n"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	i18n.Init("ko")
	os.Exit(m.Run())
}

type countingExchanger struct {
	calls int32
	err   error
}

func (e *countingExchanger) GitHubCallback(_ context.Context, code, _ string) (api.TokenPair, error) {
	atomic.AddInt32(&e.calls, 1)
	if e.err != nil {
		return api.TokenPair{}, e.err
	}
	return api.TokenPair{AccessToken: "token-for-" + code}, nil
}

type fakeSession struct {
	mu     sync.Mutex
	tokens []api.TokenPair
}

func (s *fakeSession) Login(_ context.Context, tokens api.TokenPair) (api.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = append(s.tokens, tokens)
	return api.User{ID: 1, Email: "me@example.com"}, nil
}

func TestParse(t *testing.T) {
	tests := []struct {
		raw  string
		want Params
	}{
		{"http://127.0.0.1:8765/auth/callback?code=abc&state=xyz", Params{Code: "abc", State: "xyz"}},
		{"code=abc", Params{Code: "abc"}},
		{"?error=access_denied&error_description=denied", Params{Error: "access_denied", ErrorDescription: "denied"}},
		{"  plain-code  ", Params{Code: "plain-code"}},
		{"http://localhost:3000/auth/callback?code=c1#frag", Params{Code: "c1"}},
	}
	for _, tc := range tests {
		got, err := Parse(tc.raw)
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, got, tc.raw)
	}
	_, err := Parse("   ")
	assert.ErrorIs(t, err, ErrMissingCode)
}

func TestHandleExchangesOnlyOnce(t *testing.T) {
	exch := &countingExchanger{}
	sess := &fakeSession{}
	h := NewHandler(exch, sess, "")

	var wg sync.WaitGroup
	var ok, already int32
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.Handle(context.Background(), Params{Code: "same-code"})
			switch {
			case err == nil:
				atomic.AddInt32(&ok, 1)
			case errors.Is(err, ErrAlreadyHandled):
				atomic.AddInt32(&already, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&exch.calls))
	assert.Equal(t, int32(1), ok)
	assert.Equal(t, int32(4), already)
	require.Len(t, sess.tokens, 1)
	assert.Equal(t, "token-for-same-code", sess.tokens[0].AccessToken)
}

func TestHandleTerminalStates(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		state   string
		wantErr error
		wantMsg string
	}{
		{name: "provider error", params: Params{Error: "access_denied", Code: "x"}, wantErr: ErrCancelled, wantMsg: "GitHub 인증이 취소되었습니다"},
		{name: "missing code", params: Params{}, wantErr: ErrMissingCode, wantMsg: "인증 코드가 없습니다"},
		{name: "state mismatch", params: Params{Code: "c", State: "other"}, state: "expected", wantErr: ErrStateMismatch},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			exch := &countingExchanger{}
			h := NewHandler(exch, &fakeSession{}, tc.state)
			_, err := h.Handle(context.Background(), tc.params)
			require.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, int32(0), exch.calls, "no exchange on terminal state")
			if tc.wantMsg != "" {
				assert.Equal(t, tc.wantMsg, Message(err))
			}
		})
	}
}

func TestHandleExchangeFailure(t *testing.T) {
	exch := &countingExchanger{err: &api.Error{Status: 400, Detail: "bad code"}}
	h := NewHandler(exch, &fakeSession{}, "")
	_, err := h.Handle(context.Background(), Params{Code: "c"})
	require.Error(t, err)
	assert.Equal(t, "GitHub 인증에 실패했습니다", Message(err))
}

func TestServerDeliversFirstOutcome(t *testing.T) {
	exch := &countingExchanger{}
	sess := &fakeSession{}
	srv := NewServer(config.OAuthConfig{CallbackPath: "/auth/callback", TimeoutMS: 2000}, NewHandler(exch, sess, ""))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "로그인 성공!")

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	user, err := srv.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, int32(1), exch.calls)
}

func TestServerReportsCancellation(t *testing.T) {
	srv := NewServer(config.OAuthConfig{CallbackPath: "/auth/callback", TimeoutMS: 2000}, NewHandler(&countingExchanger{}, &fakeSession{}, ""))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?error=access_denied", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "GitHub 인증이 취소되었습니다")

	_, err := srv.Wait(context.Background())
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestServerListensOnLoopback(t *testing.T) {
	srv := NewServer(config.OAuthConfig{CallbackAddr: "127.0.0.1:0", CallbackPath: "/cb", TimeoutMS: 2000}, NewHandler(&countingExchanger{}, &fakeSession{}, ""))
	addr, err := srv.Start()
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close(context.Background()) })

	resp, err := http.Get("http://" + addr + "/cb?code=live")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	user, err := srv.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", user.Email)
}

func TestWaitTimesOut(t *testing.T) {
	srv := NewServer(config.OAuthConfig{CallbackPath: "/cb", TimeoutMS: 20}, NewHandler(&countingExchanger{}, &fakeSession{}, ""))
	_, err := srv.Wait(context.Background())
	assert.Error(t, err)
}
