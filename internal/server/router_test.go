package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casefold-ai/lexgate/internal/api/handlers"
	"github.com/casefold-ai/lexgate/internal/auth"
	"github.com/casefold-ai/lexgate/internal/backend"
	"github.com/casefold-ai/lexgate/internal/domain"
)

// stubBackend satisfies every backend-facing handler interface with
// canned data, enough to exercise routing and the session gate.
type stubBackend struct {
	statusErr error
}

func (s *stubBackend) ViewBot(ctx context.Context, bearerToken, botID string) (*backend.Bot, error) {
	return &backend.Bot{ID: botID}, nil
}

func (s *stubBackend) ViewBots(ctx context.Context, bearerToken string) ([]backend.Bot, error) {
	return []backend.Bot{{ID: "bot-1"}}, nil
}

func (s *stubBackend) CreateBot(ctx context.Context, bearerToken string, config map[string]interface{}) (string, error) {
	return "bot-1", nil
}

func (s *stubBackend) DeleteBot(ctx context.Context, bearerToken, botID string) error {
	return nil
}

func (s *stubBackend) InitializeSession(ctx context.Context, bearerToken, botID string) (string, error) {
	return "sess-1", nil
}

func (s *stubBackend) UploadFiles(ctx context.Context, bearerToken, sessionID string, files []backend.UploadFile) error {
	return nil
}

func (s *stubBackend) ChatSessionStream(ctx context.Context, bearerToken string, req backend.ChatRequest) (*backend.ChatStream, error) {
	return nil, errors.New("not streaming in tests")
}

func (s *stubBackend) SearchCollection(ctx context.Context, bearerToken string, req backend.SearchRequest) ([]domain.RawResult, error) {
	return nil, nil
}

func (s *stubBackend) BrowseCollection(ctx context.Context, bearerToken string, req backend.SearchRequest) ([]domain.RawResult, error) {
	return nil, nil
}

func (s *stubBackend) Summary(ctx context.Context, bearerToken, resourceID string) (string, error) {
	return "summary", nil
}

func (s *stubBackend) ResourceCount(ctx context.Context, bearerToken, name string) (int, error) {
	return 0, nil
}

func (s *stubBackend) FetchSession(ctx context.Context, bearerToken, sessionID string) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (s *stubBackend) FetchFormattedHistory(ctx context.Context, bearerToken, sessionID string) ([]backend.HistoryMessage, error) {
	return nil, nil
}

func (s *stubBackend) SessionFeedback(ctx context.Context, bearerToken string, payload map[string]interface{}) error {
	return nil
}

func (s *stubBackend) CreateDataset(ctx context.Context, bearerToken string, name string, examples []backend.DatasetExample) (string, error) {
	return "ds-1", nil
}

func (s *stubBackend) FetchDataset(ctx context.Context, bearerToken, datasetID string) (*backend.Dataset, error) {
	return &backend.Dataset{ID: datasetID}, nil
}

func (s *stubBackend) LabelDatasetExample(ctx context.Context, bearerToken, datasetID, exampleID, label string) error {
	return nil
}

func (s *stubBackend) Status(ctx context.Context) error {
	return s.statusErr
}

type stubIdentity struct{}

func (stubIdentity) SignIn(ctx context.Context, email, password string) (domain.SessionAuth, error) {
	return domain.NewSessionAuth("id-token", "refresh", time.Now()), nil
}

func (stubIdentity) SignUp(ctx context.Context, email, password string) (domain.SessionAuth, error) {
	return domain.NewSessionAuth("id-token", "refresh", time.Now()), nil
}

type stubRefresher struct{}

func (stubRefresher) Refresh(ctx context.Context, refreshToken string) (domain.SessionAuth, error) {
	return domain.NewSessionAuth("refreshed-token", refreshToken, time.Now()), nil
}

func newTestRouter(t *testing.T, be *stubBackend) (http.Handler, *auth.CookieCodec) {
	t.Helper()
	codec := auth.NewCookieCodec([]byte("router-test-secret"), false)
	return NewRouter(RouterConfig{
		SessionCodec:   codec,
		TokenRefresher: stubRefresher{},
		StatusChecker:  be,
		AuthHandler:    handlers.NewAuthHandler(stubIdentity{}, codec),
		AgentHandler:   handlers.NewAgentHandler(be),
		ChatHandler:    handlers.NewChatHandler(be),
		SearchHandler:  handlers.NewSearchHandler(be),
		SessionHandler: handlers.NewSessionHandler(be),
		DatasetHandler: handlers.NewDatasetHandler(be),
	}), codec
}

func sessionRequest(t *testing.T, codec *auth.CookieCodec, method, url string) *http.Request {
	t.Helper()
	value, err := codec.Encode(domain.NewSessionAuth("id-token", "refresh", time.Now()))
	require.NoError(t, err)
	req := httptest.NewRequest(method, url, nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: value})
	return req
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, &stubBackend{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestRouter_StatusEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, &stubBackend{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_StatusEndpoint_BackendDown(t *testing.T) {
	router, _ := newTestRouter(t, &stubBackend{statusErr: errors.New("connection refused")})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestRouter_ProtectedRoutes_RequireSession(t *testing.T) {
	router, _ := newTestRouter(t, &stubBackend{})

	protected := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/agents"},
		{http.MethodPost, "/search"},
		{http.MethodGet, "/sessions/sess-1/history"},
		{http.MethodGet, "/datasets/ds-1"},
	}

	for _, route := range protected {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(route.method, route.path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", route.method, route.path)
	}
}

func TestRouter_ProtectedRoutes_WithValidSession(t *testing.T) {
	router, codec := newTestRouter(t, &stubBackend{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, sessionRequest(t, codec, http.MethodGet, "/agents"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "bot-1")
}

func TestRouter_BrowserRedirectsToLogin(t *testing.T) {
	router, _ := newTestRouter(t, &stubBackend{})

	req := httptest.NewRequest(http.MethodGet, "/agents", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestRouter_LoginRouteIsOpen(t *testing.T) {
	router, _ := newTestRouter(t, &stubBackend{})

	body := `{"email":"user@example.com","password":"hunter2"}`
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Result().Cookies())
}
