package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/casefold-ai/lexgate/internal/api"
	"github.com/casefold-ai/lexgate/internal/api/middleware"
	"github.com/casefold-ai/lexgate/internal/backend"
)

// ChatBackend is the slice of the backend client the chat routes use.
type ChatBackend interface {
	InitializeSession(ctx context.Context, bearerToken, botID string) (string, error)
	UploadFiles(ctx context.Context, bearerToken, sessionID string, files []backend.UploadFile) error
	ChatSessionStream(ctx context.Context, bearerToken string, req backend.ChatRequest) (*backend.ChatStream, error)
}

type ChatHandler struct {
	backend ChatBackend
}

func NewChatHandler(b ChatBackend) *ChatHandler {
	return &ChatHandler{backend: b}
}

// Start opens a chat turn: it creates a backend session for the chosen
// agent and forwards any attached files. The browser then calls Stream
// with the returned session id.
func (h *ChatHandler) Start(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid form data")
		return
	}

	botID := r.FormValue("bot_id")
	if botID == "" {
		api.Error(w, http.StatusBadRequest, "bot_id is required")
		return
	}

	sessionID, err := h.backend.InitializeSession(r.Context(), session.IDToken, botID)
	if err != nil {
		upstreamError(w, r, err, "failed to initialize session")
		return
	}

	var files []backend.UploadFile
	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()

	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["files"] {
			f, err := header.Open()
			if err != nil {
				api.Error(w, http.StatusBadRequest, "unreadable file upload")
				return
			}
			closers = append(closers, f)
			files = append(files, backend.UploadFile{
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Reader:      f,
			})
		}
	}

	if len(files) > 0 {
		if err := h.backend.UploadFiles(r.Context(), session.IDToken, sessionID, files); err != nil {
			upstreamError(w, r, err, "failed to upload files")
			return
		}
	}

	api.Success(w, http.StatusOK, map[string]string{"session_id": sessionID})
}

// Stream proxies the backend's chat event stream to the browser as
// Server-Sent Events. Each backend line becomes one event; success,
// mid-stream failure, and clean completion all converge on the done
// sentinel, so the client-visible stream always closes deterministically.
func (h *ChatHandler) Stream(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	sessionID := r.URL.Query().Get("session_id")
	botID := r.URL.Query().Get("bot_id")
	message := r.URL.Query().Get("message")
	if sessionID == "" || botID == "" {
		api.Error(w, http.StatusBadRequest, "session_id and bot_id are required")
		return
	}

	events, err := api.NewEventWriter(w)
	if err != nil {
		api.Error(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	defer events.Done()

	stream, err := h.backend.ChatSessionStream(r.Context(), session.IDToken, backend.ChatRequest{
		BotID:     botID,
		SessionID: sessionID,
		Message:   message,
	})
	if err != nil {
		events.SendError("failed to reach the research service")
		return
	}
	defer stream.Close()

	for {
		line, err := stream.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			events.SendError("the response stream was interrupted")
			return
		}
		events.SendRaw(line)
	}
}
