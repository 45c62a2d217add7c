package rewards

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	dErrors "partyreg/pkg/domain-errors"
	"partyreg/pkg/platform/httputil"
	"partyreg/pkg/requestcontext"
)

// Handler wires reward endpoints to the reward service.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the authenticated reward endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/rewards/claim", h.HandleClaim)
	r.Get("/rewards/claimed", h.HandleClaimed)
}

// ClaimedResponse reports whether the caller claimed in the current period.
type ClaimedResponse struct {
	Claimed bool `json:"claimed"`
}

func (h *Handler) HandleClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	if err := h.service.Claim(ctx, caller); err != nil {
		h.logger.WarnContext(ctx, "reward claim rejected",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleClaimed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	claimed := h.service.Claimed(ctx, caller, requestcontext.Now(ctx))
	httputil.WriteJSON(w, http.StatusOK, ClaimedResponse{Claimed: claimed})
}
