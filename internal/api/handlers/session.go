package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/casefold-ai/lexgate/internal/api"
	"github.com/casefold-ai/lexgate/internal/api/middleware"
	"github.com/casefold-ai/lexgate/internal/backend"
)

// SessionBackend covers the chat session routes.
type SessionBackend interface {
	FetchSession(ctx context.Context, bearerToken, sessionID string) (json.RawMessage, error)
	FetchFormattedHistory(ctx context.Context, bearerToken, sessionID string) ([]backend.HistoryMessage, error)
	SessionFeedback(ctx context.Context, bearerToken string, payload map[string]interface{}) error
}

type SessionHandler struct {
	backend SessionBackend
}

func NewSessionHandler(b SessionBackend) *SessionHandler {
	return &SessionHandler{backend: b}
}

// Get returns the raw session record from the backend.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	record, err := h.backend.FetchSession(r.Context(), session.IDToken, sessionID)
	if err != nil {
		upstreamError(w, r, err, "failed to load session")
		return
	}

	api.Success(w, http.StatusOK, record)
}

// History returns the session transcript as a list of role/content
// messages suitable for rendering.
func (h *SessionHandler) History(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	history, err := h.backend.FetchFormattedHistory(r.Context(), session.IDToken, sessionID)
	if err != nil {
		upstreamError(w, r, err, "failed to load history")
		return
	}

	api.Success(w, http.StatusOK, map[string]interface{}{"history": history})
}

// Export streams the transcript back as a JSON attachment so the
// browser offers it as a download.
func (h *SessionHandler) Export(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	history, err := h.backend.FetchFormattedHistory(r.Context(), session.IDToken, sessionID)
	if err != nil {
		upstreamError(w, r, err, "failed to export session")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="session-%s.json"`, sessionID))
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(history)
}

type FeedbackRequest struct {
	SessionID string `json:"session_id"`
	MessageID string `json:"message_id,omitempty"`
	Rating    string `json:"rating"`
	Comment   string `json:"comment,omitempty"`
}

// Feedback forwards a user rating of a chat response to the backend.
func (h *SessionHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" || req.Rating == "" {
		api.Error(w, http.StatusBadRequest, "session_id and rating are required")
		return
	}

	payload := map[string]interface{}{
		"session_id": req.SessionID,
		"rating":     req.Rating,
	}
	if req.MessageID != "" {
		payload["message_id"] = req.MessageID
	}
	if req.Comment != "" {
		payload["comment"] = req.Comment
	}

	if err := h.backend.SessionFeedback(r.Context(), session.IDToken, payload); err != nil {
		upstreamError(w, r, err, "failed to record feedback")
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"status": "recorded"})
}
