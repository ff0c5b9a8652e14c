//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/casefold-ai/lexgate/internal/api/handlers"
	"github.com/casefold-ai/lexgate/internal/auth"
	"github.com/casefold-ai/lexgate/internal/backend"
	"github.com/casefold-ai/lexgate/internal/server"
)

// E2ETestEnv runs the full gateway against an in-process fake of the
// research backend and the identity provider.
type E2ETestEnv struct {
	T          *testing.T
	Gateway    *httptest.Server
	Backend    *FakeBackend
	Identity   *httptest.Server
	HTTPClient *http.Client
	Cookies    []*http.Cookie
}

// FakeBackend is an in-memory stand-in for the research API. It records
// enough state to let multi-step flows (start chat, upload, stream)
// run end to end.
type FakeBackend struct {
	mu sync.Mutex

	Server *httptest.Server

	Bots            map[string]map[string]interface{}
	Sessions        map[string]string // session id -> bot id
	Uploads         map[string][]string
	Feedback        []map[string]interface{}
	DatasetExamples []map[string]string
	Labels          []map[string]string
	SearchResults   json.RawMessage
	StreamLines     []string
}

func NewFakeBackend(t *testing.T) *FakeBackend {
	fb := &FakeBackend{
		Bots:     map[string]map[string]interface{}{},
		Sessions: map[string]string{},
		Uploads:  map[string][]string{},
		SearchResults: json.RawMessage(`[
			{"id":"opinion-1","type":"opinion","entity":{"pk":10,"text":"due process requires notice","metadata":{"case_name":"Mullane v. Central Hanover Bank","court_name":"Supreme Court","cluster_id":104200,"slug":"mullane-v-central-hanover"}}},
			{"id":"opinion-1","type":"opinion","entity":{"pk":2,"text":"an elementary and fundamental requirement","metadata":{"case_name":"Mullane v. Central Hanover Bank","court_name":"Supreme Court","cluster_id":104200,"slug":"mullane-v-central-hanover"}}}
		]`),
		StreamLines: []string{`{"token":"Due"}`, `{"token":" process"}`},
	}

	r := chi.NewRouter()
	r.Use(requireBearer(t))

	r.Get("/view_bots", func(w http.ResponseWriter, req *http.Request) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		bots := []map[string]interface{}{}
		for id, cfg := range fb.Bots {
			bot := map[string]interface{}{"id": id}
			for k, v := range cfg {
				bot[k] = v
			}
			bots = append(bots, bot)
		}
		writeJSON(w, map[string]interface{}{"message": "ok", "data": bots})
	})

	r.Get("/view_bot", func(w http.ResponseWriter, req *http.Request) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		id := req.URL.Query().Get("bot_id")
		cfg, ok := fb.Bots[id]
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		bot := map[string]interface{}{"id": id}
		for k, v := range cfg {
			bot[k] = v
		}
		writeJSON(w, map[string]interface{}{"message": "ok", "data": bot})
	})

	r.Post("/create_bot", func(w http.ResponseWriter, req *http.Request) {
		var cfg map[string]interface{}
		if err := json.NewDecoder(req.Body).Decode(&cfg); err != nil {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		id := uuid.NewString()
		fb.mu.Lock()
		fb.Bots[id] = cfg
		fb.mu.Unlock()
		writeJSON(w, map[string]interface{}{"message": "ok", "bot_id": id})
	})

	r.Delete("/delete_bot/{id}", func(w http.ResponseWriter, req *http.Request) {
		fb.mu.Lock()
		delete(fb.Bots, chi.URLParam(req, "id"))
		fb.mu.Unlock()
		writeJSON(w, map[string]interface{}{"message": "ok"})
	})

	r.Post("/initialize_session", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			BotID string `json:"bot_id"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.BotID == "" {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		id := uuid.NewString()
		fb.mu.Lock()
		fb.Sessions[id] = body.BotID
		fb.mu.Unlock()
		writeJSON(w, map[string]interface{}{"message": "ok", "session_id": id})
	})

	r.Post("/upload_files", func(w http.ResponseWriter, req *http.Request) {
		sessionID := req.URL.Query().Get("session_id")
		if err := req.ParseMultipartForm(32 << 20); err != nil {
			http.Error(w, "bad multipart", http.StatusBadRequest)
			return
		}
		fb.mu.Lock()
		for _, header := range req.MultipartForm.File["files"] {
			fb.Uploads[sessionID] = append(fb.Uploads[sessionID], header.Filename)
		}
		fb.mu.Unlock()
		writeJSON(w, map[string]interface{}{"message": "ok"})
	})

	r.Post("/chat_session_stream", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		fb.mu.Lock()
		lines := append([]string(nil), fb.StreamLines...)
		fb.mu.Unlock()
		for _, line := range lines {
			fmt.Fprintln(w, line)
		}
	})

	r.Post("/fetch_session", func(w http.ResponseWriter, req *http.Request) {
		var payload map[string]string
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		writeJSON(w, map[string]interface{}{"message": "ok", "data": map[string]string{
			"session_id": payload["session_id"],
		}})
	})

	r.Post("/fetch_session_formatted_history", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, map[string]interface{}{"message": "ok", "history": []map[string]string{
			{"role": "user", "content": "what does due process require?"},
			{"role": "assistant", "content": "Notice and an opportunity to be heard."},
		}})
	})

	r.Post("/session_feedback", func(w http.ResponseWriter, req *http.Request) {
		var payload map[string]interface{}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		fb.mu.Lock()
		fb.Feedback = append(fb.Feedback, payload)
		fb.mu.Unlock()
		writeJSON(w, map[string]interface{}{"message": "ok"})
	})

	r.Post("/search_collection", func(w http.ResponseWriter, req *http.Request) {
		fb.mu.Lock()
		results := fb.SearchResults
		fb.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"message":"ok","results":%s}`, results)
	})

	r.Post("/browse_collection", func(w http.ResponseWriter, req *http.Request) {
		fb.mu.Lock()
		results := fb.SearchResults
		fb.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"message":"ok","results":%s}`, results)
	})

	r.Get("/summary", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, map[string]interface{}{"message": "ok", "summary": "A landmark notice case."})
	})

	r.Get("/resource_count/{name}", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, map[string]interface{}{"message": "ok", "resource_count": 7})
	})

	r.Post("/create_dataset", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Name     string              `json:"name"`
			Examples []map[string]string `json:"examples"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Name == "" {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		fb.mu.Lock()
		fb.DatasetExamples = body.Examples
		fb.mu.Unlock()
		writeJSON(w, map[string]interface{}{"message": "ok", "dataset_id": uuid.NewString()})
	})

	r.Get("/fetch_dataset", func(w http.ResponseWriter, req *http.Request) {
		fb.mu.Lock()
		examples := append([]map[string]string(nil), fb.DatasetExamples...)
		fb.mu.Unlock()
		writeJSON(w, map[string]interface{}{"message": "ok", "dataset": map[string]interface{}{
			"id":       req.URL.Query().Get("dataset_id"),
			"name":     "regression set",
			"examples": examples,
		}})
	})

	r.Post("/label_dataset_example", func(w http.ResponseWriter, req *http.Request) {
		var payload map[string]string
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		fb.mu.Lock()
		fb.Labels = append(fb.Labels, payload)
		fb.mu.Unlock()
		writeJSON(w, map[string]interface{}{"message": "ok"})
	})

	fb.Server = httptest.NewServer(statusAware(r))
	return fb
}

// statusAware lets /status through without a bearer token.
func statusAware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/status" {
			writeJSON(w, map[string]interface{}{"message": "ok"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requireBearer(t *testing.T) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				t.Errorf("backend called without bearer token: %s %s", r.Method, r.URL.Path)
				http.Error(w, "missing token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// newFakeIdentity accepts any password except "wrong" and hands back
// static tokens.
func newFakeIdentity() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/accounts:signInWithPassword", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Password == "wrong" {
			http.Error(w, "INVALID_PASSWORD", http.StatusBadRequest)
			return
		}
		writeJSON(w, map[string]string{"idToken": "e2e-id-token", "refreshToken": "e2e-refresh-token"})
	})
	mux.HandleFunc("/accounts:signUp", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"idToken": "e2e-id-token", "refreshToken": "e2e-refresh-token"})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.PostForm.Get("refresh_token") == "" {
			http.Error(w, "invalid grant", http.StatusBadRequest)
			return
		}
		writeJSON(w, map[string]string{"id_token": "e2e-refreshed-token", "refresh_token": "e2e-refresh-token"})
	})
	return httptest.NewServer(mux)
}

// SetupE2EEnv starts the fake dependencies and the gateway itself.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	fakeBackend := NewFakeBackend(t)
	fakeIdentity := newFakeIdentity()

	backendClient := backend.NewClient(fakeBackend.Server.URL, "e2e-api-key")
	codec := auth.NewCookieCodec([]byte("e2e-session-secret"), false)
	refresher := auth.NewRefresher("e2e-firebase-key", fakeIdentity.URL+"/token")
	identity := auth.NewIdentityClient("e2e-firebase-key", fakeIdentity.URL)

	router := server.NewRouter(server.RouterConfig{
		SessionCodec:   codec,
		TokenRefresher: refresher,
		StatusChecker:  backendClient,
		AuthHandler:    handlers.NewAuthHandler(identity, codec),
		AgentHandler:   handlers.NewAgentHandler(backendClient),
		ChatHandler:    handlers.NewChatHandler(backendClient),
		SearchHandler:  handlers.NewSearchHandler(backendClient),
		SessionHandler: handlers.NewSessionHandler(backendClient),
		DatasetHandler: handlers.NewDatasetHandler(backendClient),
	})

	gateway := httptest.NewServer(router)

	return &E2ETestEnv{
		T:          t,
		Gateway:    gateway,
		Backend:    fakeBackend,
		Identity:   fakeIdentity,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup shuts the servers down.
func (e *E2ETestEnv) Cleanup() {
	e.Gateway.Close()
	e.Backend.Server.Close()
	e.Identity.Close()
}

// Login authenticates and stores the session cookie for later requests.
func (e *E2ETestEnv) Login(email, password string) *http.Response {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := e.HTTPClient.Post(e.Gateway.URL+"/login", "application/json", bytes.NewReader(body))
	if err != nil {
		e.T.Fatalf("login request failed: %v", err)
	}
	if resp.StatusCode == http.StatusOK {
		e.Cookies = resp.Cookies()
	}
	return resp
}

// APIResponse is the gateway's JSON envelope.
type APIResponse struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func (e *E2ETestEnv) do(req *http.Request) (*http.Response, error) {
	for _, c := range e.Cookies {
		req.AddCookie(c)
	}
	return e.HTTPClient.Do(req)
}

// Get issues an authenticated GET and decodes the envelope.
func (e *E2ETestEnv) Get(path string) (*APIResponse, int) {
	req, _ := http.NewRequest(http.MethodGet, e.Gateway.URL+path, nil)
	return e.roundTrip(req)
}

// Post issues an authenticated JSON POST and decodes the envelope.
func (e *E2ETestEnv) Post(path string, payload interface{}) (*APIResponse, int) {
	body, err := json.Marshal(payload)
	if err != nil {
		e.T.Fatalf("failed to marshal payload: %v", err)
	}
	req, _ := http.NewRequest(http.MethodPost, e.Gateway.URL+path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return e.roundTrip(req)
}

// PostMultipart issues a multipart POST, used by the chat start flow.
func (e *E2ETestEnv) PostMultipart(path string, fields map[string]string, files map[string]string) (*APIResponse, int) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			e.T.Fatalf("failed to write form field: %v", err)
		}
	}
	for name, contents := range files {
		part, err := writer.CreateFormFile("files", name)
		if err != nil {
			e.T.Fatalf("failed to create form file: %v", err)
		}
		if _, err := part.Write([]byte(contents)); err != nil {
			e.T.Fatalf("failed to write form file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		e.T.Fatalf("failed to close multipart writer: %v", err)
	}

	req, _ := http.NewRequest(http.MethodPost, e.Gateway.URL+path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return e.roundTrip(req)
}

func (e *E2ETestEnv) roundTrip(req *http.Request) (*APIResponse, int) {
	resp, err := e.do(req)
	if err != nil {
		e.T.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		e.T.Fatalf("failed to read response: %v", err)
	}

	parsed := &APIResponse{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, parsed); err != nil {
			e.T.Fatalf("failed to parse response %q: %v", raw, err)
		}
	}
	return parsed, resp.StatusCode
}
