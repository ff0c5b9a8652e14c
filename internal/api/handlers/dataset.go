package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/casefold-ai/lexgate/internal/api"
	"github.com/casefold-ai/lexgate/internal/api/middleware"
	"github.com/casefold-ai/lexgate/internal/backend"
)

// DatasetBackend covers the evaluation dataset routes.
type DatasetBackend interface {
	CreateDataset(ctx context.Context, bearerToken string, name string, examples []backend.DatasetExample) (string, error)
	FetchDataset(ctx context.Context, bearerToken, datasetID string) (*backend.Dataset, error)
	LabelDatasetExample(ctx context.Context, bearerToken, datasetID, exampleID, label string) error
}

type DatasetHandler struct {
	backend DatasetBackend
}

func NewDatasetHandler(b DatasetBackend) *DatasetHandler {
	return &DatasetHandler{backend: b}
}

type CreateDatasetRequest struct {
	Name     string                   `json:"name"`
	Examples []backend.DatasetExample `json:"examples"`
}

func (h *DatasetHandler) Create(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	var req CreateDatasetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		api.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	datasetID, err := h.backend.CreateDataset(r.Context(), session.IDToken, req.Name, req.Examples)
	if err != nil {
		upstreamError(w, r, err, "failed to create dataset")
		return
	}

	api.Success(w, http.StatusCreated, map[string]string{"dataset_id": datasetID})
}

func (h *DatasetHandler) Get(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())
	datasetID := chi.URLParam(r, "datasetID")

	dataset, err := h.backend.FetchDataset(r.Context(), session.IDToken, datasetID)
	if err != nil {
		upstreamError(w, r, err, "failed to load dataset")
		return
	}

	api.Success(w, http.StatusOK, dataset)
}

type LabelRequest struct {
	Label string `json:"label"`
}

func (h *DatasetHandler) Label(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())
	datasetID := chi.URLParam(r, "datasetID")
	exampleID := chi.URLParam(r, "exampleID")

	var req LabelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Label == "" {
		api.Error(w, http.StatusBadRequest, "label is required")
		return
	}

	if err := h.backend.LabelDatasetExample(r.Context(), session.IDToken, datasetID, exampleID, req.Label); err != nil {
		upstreamError(w, r, err, "failed to label example")
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"status": "labeled"})
}
