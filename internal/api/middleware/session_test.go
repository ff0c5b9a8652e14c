package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/casefold-ai/lexgate/internal/auth"
	"github.com/casefold-ai/lexgate/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRefresher struct {
	mock.Mock
}

func (m *MockRefresher) Refresh(ctx context.Context, refreshToken string) (domain.SessionAuth, error) {
	args := m.Called(ctx, refreshToken)
	return args.Get(0).(domain.SessionAuth), args.Error(1)
}

func sessionRequest(t *testing.T, codec *auth.CookieCodec, session domain.SessionAuth) *http.Request {
	t.Helper()
	w := httptest.NewRecorder()
	require.NoError(t, codec.SetCookie(w, session))

	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestSessionAuthPassesFreshSession(t *testing.T) {
	codec := auth.NewCookieCodec([]byte("secret"), false)
	refresher := new(MockRefresher)

	now := time.Now()
	oldNow := timeNow
	timeNow = func() time.Time { return now }
	defer func() { timeNow = oldNow }()

	session := domain.NewSessionAuth("id-token", "refresh", now.Add(-10*time.Minute))

	var gotSession domain.SessionAuth
	handler := SessionAuth(codec, refresher)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession = GetSession(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, sessionRequest(t, codec, session))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "id-token", gotSession.IDToken)
	refresher.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)
}

func TestSessionAuthRefreshesStaleToken(t *testing.T) {
	codec := auth.NewCookieCodec([]byte("secret"), false)
	refresher := new(MockRefresher)

	now := time.Now()
	oldNow := timeNow
	timeNow = func() time.Time { return now }
	defer func() { timeNow = oldNow }()

	stale := domain.NewSessionAuth("old-id", "old-refresh", now.Add(-56*time.Minute))
	fresh := domain.NewSessionAuth("new-id", "new-refresh", now)
	refresher.On("Refresh", mock.Anything, "old-refresh").Return(fresh, nil)

	var gotSession domain.SessionAuth
	handler := SessionAuth(codec, refresher)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession = GetSession(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, sessionRequest(t, codec, stale))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "new-id", gotSession.IDToken)
	refresher.AssertExpectations(t)

	// The rewritten cookie carries the refreshed session.
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	decoded, err := codec.Decode(cookies[len(cookies)-1].Value)
	require.NoError(t, err)
	assert.Equal(t, "new-id", decoded.IDToken)
}

func TestSessionAuthFailedRefreshClearsSession(t *testing.T) {
	codec := auth.NewCookieCodec([]byte("secret"), false)
	refresher := new(MockRefresher)

	now := time.Now()
	oldNow := timeNow
	timeNow = func() time.Time { return now }
	defer func() { timeNow = oldNow }()

	stale := domain.NewSessionAuth("old-id", "dead-refresh", now.Add(-2*time.Hour))
	refresher.On("Refresh", mock.Anything, "dead-refresh").
		Return(domain.SessionAuth{}, domain.ErrSessionExpired)

	handler := SessionAuth(codec, refresher)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, sessionRequest(t, codec, stale))

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	cleared := cookies[len(cookies)-1]
	assert.Equal(t, auth.SessionCookieName, cleared.Name)
	assert.Less(t, cleared.MaxAge, 0)
}

func TestSessionAuthMissingCookie(t *testing.T) {
	codec := auth.NewCookieCodec([]byte("secret"), false)
	refresher := new(MockRefresher)

	handler := SessionAuth(codec, refresher)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/search", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionAuthRedirectsBrowserToLogin(t *testing.T) {
	codec := auth.NewCookieCodec([]byte("secret"), false)
	refresher := new(MockRefresher)

	handler := SessionAuth(codec, refresher)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}
