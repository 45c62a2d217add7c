package letters

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	id "partyreg/pkg/domain"
	dErrors "partyreg/pkg/domain-errors"
	"partyreg/pkg/platform/httputil"
	"partyreg/pkg/requestcontext"
)

// Handler wires letter endpoints to the letter service.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the authenticated letter endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/letters", h.HandleCreate)
	r.Post("/letters/{letterID}/signatures", h.HandleSign)
}

// RegisterPublic mounts the read-only letter endpoints.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/letters/{letterID}", h.HandleGet)
	r.Get("/letters/{letterID}/signatures", h.HandleSignatures)
}

// CreateLetterRequest is the HTTP request body for POST /letters.
type CreateLetterRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (r *CreateLetterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Title) > MaxTitleLen {
		return dErrors.New(dErrors.CodeValidation, "title exceeds maximum length")
	}
	if len(r.Content) > MaxContentLen {
		return dErrors.New(dErrors.CodeValidation, "content exceeds maximum length")
	}
	return nil
}

// SignaturesResponse lists co-signers in signing order.
type SignaturesResponse struct {
	LetterID   id.LetterID   `json:"letter_id"`
	Signatures []id.Identity `json:"signatures"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[*CreateLetterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	letter, err := h.service.CreateLetter(ctx, caller, req.Title, req.Content)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, letter)
}

func (h *Handler) HandleSign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	letterID, err := id.ParseLetterID(chi.URLParam(r, "letterID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.SignLetter(ctx, letterID, caller); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	letterID, err := id.ParseLetterID(chi.URLParam(r, "letterID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	letter, err := h.service.GetLetter(r.Context(), letterID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, letter)
}

func (h *Handler) HandleSignatures(w http.ResponseWriter, r *http.Request) {
	letterID, err := id.ParseLetterID(chi.URLParam(r, "letterID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	startIndex, count := 0, 50
	if raw := r.URL.Query().Get("start"); raw != "" {
		if startIndex, err = strconv.Atoi(raw); err != nil || startIndex < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "start must be a non-negative integer"))
			return
		}
	}
	if raw := r.URL.Query().Get("count"); raw != "" {
		if count, err = strconv.Atoi(raw); err != nil || count < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "count must be a non-negative integer"))
			return
		}
	}
	signatures, err := h.service.GetSignatures(r.Context(), letterID, startIndex, count)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, SignaturesResponse{LetterID: letterID, Signatures: signatures})
}
