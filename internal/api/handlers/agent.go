// Package handlers maps HTTP routes onto the backend client and the
// aggregation/presentation pipeline. Handlers translate upstream
// failures into generic user-facing errors; raw backend errors never
// reach the browser.
package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/casefold-ai/lexgate/internal/api"
	"github.com/casefold-ai/lexgate/internal/api/middleware"
	"github.com/casefold-ai/lexgate/internal/backend"
	"github.com/go-chi/chi/v5"
)

// AgentBackend is the slice of the backend client the agent routes use.
type AgentBackend interface {
	ViewBot(ctx context.Context, bearerToken, botID string) (*backend.Bot, error)
	ViewBots(ctx context.Context, bearerToken string) ([]backend.Bot, error)
	CreateBot(ctx context.Context, bearerToken string, config map[string]interface{}) (string, error)
	DeleteBot(ctx context.Context, bearerToken, botID string) error
}

type AgentHandler struct {
	backend AgentBackend
}

func NewAgentHandler(b AgentBackend) *AgentHandler {
	return &AgentHandler{backend: b}
}

// List returns the caller's agents for the dashboard.
func (h *AgentHandler) List(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	bots, err := h.backend.ViewBots(r.Context(), session.IDToken)
	if err != nil {
		upstreamError(w, r, err, "failed to load agents")
		return
	}

	api.Success(w, http.StatusOK, map[string]interface{}{"agents": bots})
}

// Get returns one agent configuration.
func (h *AgentHandler) Get(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())
	botID := chi.URLParam(r, "id")
	if botID == "" {
		api.Error(w, http.StatusBadRequest, "agent id is required")
		return
	}

	bot, err := h.backend.ViewBot(r.Context(), session.IDToken, botID)
	if err != nil {
		upstreamError(w, r, err, "failed to load agent")
		return
	}

	api.Success(w, http.StatusOK, bot)
}

// Create creates an agent from the posted configuration.
func (h *AgentHandler) Create(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	var config map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&config); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	botID, err := h.backend.CreateBot(r.Context(), session.IDToken, config)
	if err != nil {
		upstreamError(w, r, err, "failed to create agent")
		return
	}

	api.Success(w, http.StatusCreated, map[string]string{"bot_id": botID})
}

// Delete removes an agent.
func (h *AgentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())
	botID := chi.URLParam(r, "id")
	if botID == "" {
		api.Error(w, http.StatusBadRequest, "agent id is required")
		return
	}

	if err := h.backend.DeleteBot(r.Context(), session.IDToken, botID); err != nil {
		upstreamError(w, r, err, "failed to delete agent")
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// upstreamError logs the real failure and hands the browser a generic
// message with a gateway status.
func upstreamError(w http.ResponseWriter, r *http.Request, err error, message string) {
	log.Printf("upstream error (request_id=%s): %v", middleware.GetRequestID(r.Context()), err)

	status := http.StatusBadGateway
	if apiErr, ok := err.(*backend.APIError); ok && apiErr.StatusCode == http.StatusUnauthorized {
		status = http.StatusUnauthorized
	}
	api.Error(w, status, message)
}
