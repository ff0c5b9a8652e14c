package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/casefold-ai/lexgate/internal/api"
	"github.com/casefold-ai/lexgate/internal/api/middleware"
	"github.com/casefold-ai/lexgate/internal/backend"
	"github.com/casefold-ai/lexgate/internal/domain"
	"github.com/casefold-ai/lexgate/internal/sources"
)

// SearchBackend is the slice of the backend client the search and
// collection routes use.
type SearchBackend interface {
	SearchCollection(ctx context.Context, bearerToken string, req backend.SearchRequest) ([]domain.RawResult, error)
	BrowseCollection(ctx context.Context, bearerToken string, req backend.SearchRequest) ([]domain.RawResult, error)
	Summary(ctx context.Context, bearerToken, resourceID string) (string, error)
	ResourceCount(ctx context.Context, bearerToken, name string) (int, error)
}

type SearchHandler struct {
	backend SearchBackend
}

func NewSearchHandler(b SearchBackend) *SearchHandler {
	return &SearchHandler{backend: b}
}

type SearchRequest struct {
	Collection string `json:"collection"`
	Query      string `json:"query"`
	Keyword    string `json:"keyword,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Offset     int    `json:"offset,omitempty"`
}

type SearchResponse struct {
	Sources []*domain.PresentedSource `json:"sources"`
}

// Search runs an embeddings search against a collection and returns the
// hits grouped by source and formatted for display, with the optional
// keyword highlighted in every passage.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	results, err := h.backend.SearchCollection(r.Context(), session.IDToken, backend.SearchRequest{
		Collection: req.Collection,
		Query:      req.Query,
		Keyword:    req.Keyword,
		Limit:      req.Limit,
		Offset:     req.Offset,
	})
	if err != nil {
		upstreamError(w, r, err, "search failed")
		return
	}

	presented, err := sources.PresentAll(results, req.Keyword)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, SearchResponse{Sources: presented})
}

// Browse pages through a collection without a semantic query.
func (h *SearchHandler) Browse(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Collection == "" {
		api.Error(w, http.StatusBadRequest, "collection is required")
		return
	}

	results, err := h.backend.BrowseCollection(r.Context(), session.IDToken, backend.SearchRequest{
		Collection: req.Collection,
		Keyword:    req.Keyword,
		Limit:      req.Limit,
		Offset:     req.Offset,
	})
	if err != nil {
		upstreamError(w, r, err, "browse failed")
		return
	}

	presented, err := sources.PresentAll(results, req.Keyword)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, SearchResponse{Sources: presented})
}

// Summary returns the AI summary of a collection resource.
func (h *SearchHandler) Summary(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	resourceID := r.URL.Query().Get("resource_id")
	if resourceID == "" {
		api.Error(w, http.StatusBadRequest, "resource_id is required")
		return
	}

	summary, err := h.backend.Summary(r.Context(), session.IDToken, resourceID)
	if err != nil {
		upstreamError(w, r, err, "failed to load summary")
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"summary": summary})
}

// ResourceCount returns the number of stored chunks for a resource.
func (h *SearchHandler) ResourceCount(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	name := r.URL.Query().Get("name")
	if name == "" {
		api.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	count, err := h.backend.ResourceCount(r.Context(), session.IDToken, name)
	if err != nil {
		upstreamError(w, r, err, "failed to count resources")
		return
	}

	api.Success(w, http.StatusOK, map[string]int{"count": count})
}
