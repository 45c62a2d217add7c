package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"partyreg/internal/snapshot/models"
	id "partyreg/pkg/domain"
	dErrors "partyreg/pkg/domain-errors"
	"partyreg/pkg/platform/httputil"
	"partyreg/pkg/requestcontext"
)

// Service defines the snapshot operations the HTTP layer depends on.
type Service interface {
	CaptureBatch(ctx context.Context, start id.PartyID, batchSize int) (next id.PartyID, processed int, err error)
	SetRetention(ctx context.Context, n int) error
	LatestSnapshot(ctx context.Context, partyID id.PartyID) (models.Snapshot, error)
	SnapshotHistory(ctx context.Context, partyID id.PartyID, startIndex, count int) ([]models.Snapshot, error)
	SnapshotStatus(ctx context.Context) models.Status
}

// Handler wires snapshot endpoints to the snapshot service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the read-only ledger endpoints.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/parties/{partyID}/snapshots/latest", h.HandleLatest)
	r.Get("/parties/{partyID}/snapshots", h.HandleHistory)
	r.Get("/snapshots/status", h.HandleStatus)
}

// RegisterAdmin mounts capture control endpoints behind the admin token.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/snapshots/capture", h.HandleCapture)
	r.Put("/snapshots/retention", h.HandleSetRetention)
}

// CaptureRequest is the HTTP request body for POST /admin/snapshots/capture.
type CaptureRequest struct {
	Start     uint64 `json:"start"`
	BatchSize int    `json:"batch_size"`
}

func (r *CaptureRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Start == 0 {
		r.Start = 1
	}
	if r.BatchSize <= 0 {
		return dErrors.New(dErrors.CodeValidation, "batch_size must be positive")
	}
	return nil
}

// CaptureResponse reports batch progress. Next is 0 once the pass completed.
type CaptureResponse struct {
	Next      uint64 `json:"next"`
	Processed int    `json:"processed"`
}

// RetentionRequest is the HTTP request body for PUT /admin/snapshots/retention.
type RetentionRequest struct {
	Retention int `json:"retention"`
}

func (r *RetentionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Retention < 0 {
		return dErrors.New(dErrors.CodeValidation, "retention cannot be negative")
	}
	return nil
}

func (h *Handler) HandleCapture(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[*CaptureRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	next, processed, err := h.service.CaptureBatch(ctx, id.PartyID(req.Start), req.BatchSize)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "snapshot batch captured",
		"request_id", requestID,
		"start", req.Start,
		"processed", processed,
		"next", uint64(next),
	)
	httputil.WriteJSON(w, http.StatusOK, CaptureResponse{Next: uint64(next), Processed: processed})
}

func (h *Handler) HandleSetRetention(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[*RetentionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if err := h.service.SetRetention(ctx, req.Retention); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	partyID, err := id.ParsePartyID(chi.URLParam(r, "partyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	snap, err := h.service.LatestSnapshot(r.Context(), partyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snap)
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	partyID, err := id.ParsePartyID(chi.URLParam(r, "partyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	startIndex, err := queryInt(r, "start", 0)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	count, err := queryInt(r, "count", 50)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	history, err := h.service.SnapshotHistory(r.Context(), partyID, startIndex, count)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, history)
}

func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.service.SnapshotStatus(r.Context()))
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, key+" must be a non-negative integer")
	}
	return value, nil
}
