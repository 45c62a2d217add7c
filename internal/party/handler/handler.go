package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"partyreg/internal/party/models"
	"partyreg/internal/party/service"
	"partyreg/internal/verify"
	id "partyreg/pkg/domain"
	dErrors "partyreg/pkg/domain-errors"
	"partyreg/pkg/platform/httputil"
	"partyreg/pkg/requestcontext"
)

// Service defines the registry operations the HTTP layer depends on.
type Service interface {
	CreateParty(ctx context.Context, req service.CreatePartyRequest) (*models.Party, error)
	ApproveParty(ctx context.Context, partyID id.PartyID) (*models.Party, error)
	DeactivateParty(ctx context.Context, partyID id.PartyID, caller id.Identity) error
	ReactivateParty(ctx context.Context, partyID id.PartyID) error
	JoinParty(ctx context.Context, partyID id.PartyID, caller id.Identity) error
	JoinPartyWithProof(ctx context.Context, partyID id.PartyID, caller id.Identity, proof verify.Proof) error
	LeaveParty(ctx context.Context, partyID id.PartyID, caller id.Identity) error
	RemoveMember(ctx context.Context, partyID id.PartyID, caller, target id.Identity) error
	BanMember(ctx context.Context, partyID id.PartyID, caller, target id.Identity) error
	UnbanMember(ctx context.Context, partyID id.PartyID, caller, target id.Identity) error
	TransferLeadership(ctx context.Context, partyID id.PartyID, caller, newLeader id.Identity) error
	ForceLeadershipChange(ctx context.Context, partyID id.PartyID, newLeader id.Identity) error
	UpdateName(ctx context.Context, partyID id.PartyID, caller id.Identity, name string) error
	UpdateShortName(ctx context.Context, partyID id.PartyID, caller id.Identity, shortName string) error
	UpdateDescription(ctx context.Context, partyID id.PartyID, caller id.Identity, description string) error
	UpdateLink(ctx context.Context, partyID id.PartyID, caller id.Identity, link string) error
	TogglePause(ctx context.Context) (bool, error)
	Paused() bool
	GetPartyDetails(ctx context.Context, partyID id.PartyID) (*models.Party, error)
	GetPartyStats(ctx context.Context, partyID id.PartyID) (models.Stats, error)
	GetLeadershipHistoryEntry(ctx context.Context, partyID id.PartyID, index int) (models.LeadershipChange, error)
	GetUserParties(ctx context.Context, identity id.Identity) ([]id.PartyID, error)
	GetUserLeaderships(ctx context.Context, identity id.Identity) ([]id.PartyID, error)
	Counts(ctx context.Context) (pending, active int, err error)
}

// Handler wires registry endpoints to the registry service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a registry handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts caller-facing registry endpoints. The router is expected to
// run the identity middleware in front of these routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/parties", h.HandleCreateParty)
	r.Patch("/parties/{partyID}", h.HandleUpdateParty)
	r.Post("/parties/{partyID}/join", h.HandleJoin)
	r.Post("/parties/{partyID}/join-verified", h.HandleJoinWithProof)
	r.Post("/parties/{partyID}/leave", h.HandleLeave)
	r.Post("/parties/{partyID}/deactivate", h.HandleDeactivate)
	r.Delete("/parties/{partyID}/members/{identity}", h.HandleRemoveMember)
	r.Post("/parties/{partyID}/bans/{identity}", h.HandleBan)
	r.Delete("/parties/{partyID}/bans/{identity}", h.HandleUnban)
	r.Post("/parties/{partyID}/leader", h.HandleTransferLeadership)
	r.Get("/me/parties", h.HandleMyParties)
	r.Get("/me/leaderships", h.HandleMyLeaderships)
}

// RegisterPublic mounts the read-only endpoints that need no caller identity.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/parties/{partyID}", h.HandleGetParty)
	r.Get("/parties/{partyID}/stats", h.HandleGetStats)
	r.Get("/parties/{partyID}/leadership/{index}", h.HandleGetLeadershipEntry)
	r.Get("/registry/status", h.HandleStatus)
}

// RegisterAdmin mounts admin-only registry endpoints. The router is expected
// to run the admin-token middleware in front of these routes.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/parties/{partyID}/approve", h.HandleApprove)
	r.Post("/parties/{partyID}/deactivate", h.HandleDeactivate)
	r.Post("/parties/{partyID}/reactivate", h.HandleReactivate)
	r.Post("/parties/{partyID}/leader", h.HandleForceLeadership)
	r.Post("/registry/pause", h.HandleTogglePause)
}

func (h *Handler) HandleCreateParty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[*CreatePartyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	p, err := h.service.CreateParty(ctx, service.CreatePartyRequest{
		Name:        req.Name,
		ShortName:   req.ShortName,
		Description: req.Description,
		Link:        req.Link,
		Founder:     caller,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "party creation failed",
			"request_id", requestID,
			"founder", caller,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "party created",
		"request_id", requestID,
		"party_id", p.ID,
		"founder", caller,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) HandleGetParty(w http.ResponseWriter, r *http.Request) {
	partyID, ok := h.partyID(w, r)
	if !ok {
		return
	}
	p, err := h.service.GetPartyDetails(r.Context(), partyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) HandleUpdateParty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}
	partyID, ok := h.partyID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[*UpdatePartyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	updates := []struct {
		value *string
		apply func(context.Context, id.PartyID, id.Identity, string) error
	}{
		{req.Name, h.service.UpdateName},
		{req.ShortName, h.service.UpdateShortName},
		{req.Description, h.service.UpdateDescription},
		{req.Link, h.service.UpdateLink},
	}
	for _, u := range updates {
		if u.value == nil {
			continue
		}
		if err := u.apply(ctx, partyID, caller, *u.value); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}

	p, err := h.service.GetPartyDetails(ctx, partyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	partyID, ok := h.partyID(w, r)
	if !ok {
		return
	}
	stats, err := h.service.GetPartyStats(r.Context(), partyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) HandleGetLeadershipEntry(w http.ResponseWriter, r *http.Request) {
	partyID, ok := h.partyID(w, r)
	if !ok {
		return
	}
	index, err := parseIndex(chi.URLParam(r, "index"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entry, err := h.service.GetLeadershipHistoryEntry(r.Context(), partyID, index)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entry)
}

func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	h.memberAction(w, r, "member joined", func(ctx context.Context, partyID id.PartyID, caller id.Identity) error {
		return h.service.JoinParty(ctx, partyID, caller)
	})
}

func (h *Handler) HandleJoinWithProof(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}
	partyID, ok := h.partyID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[*ProofJoinRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.JoinPartyWithProof(ctx, partyID, caller, req.ToProof()); err != nil {
		h.logger.ErrorContext(ctx, "verified join failed",
			"request_id", requestID,
			"party_id", partyID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	h.memberAction(w, r, "member left", func(ctx context.Context, partyID id.PartyID, caller id.Identity) error {
		return h.service.LeaveParty(ctx, partyID, caller)
	})
}

func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	h.targetAction(w, r, h.service.RemoveMember)
}

func (h *Handler) HandleBan(w http.ResponseWriter, r *http.Request) {
	h.targetAction(w, r, h.service.BanMember)
}

func (h *Handler) HandleUnban(w http.ResponseWriter, r *http.Request) {
	h.targetAction(w, r, h.service.UnbanMember)
}

func (h *Handler) HandleTransferLeadership(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}
	partyID, ok := h.partyID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[*TransferLeadershipRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.TransferLeadership(ctx, partyID, caller, req.ParsedLeader()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleMyParties(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}
	parties, err := h.service.GetUserParties(ctx, caller)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, UserPartiesResponse{PartyIDs: parties})
}

func (h *Handler) HandleMyLeaderships(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}
	parties, err := h.service.GetUserLeaderships(ctx, caller)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, UserPartiesResponse{PartyIDs: parties})
}

func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	pending, active, err := h.service.Counts(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{
		Paused:       h.service.Paused(),
		PendingCount: pending,
		ActiveCount:  active,
	})
}

// --- admin handlers ---

func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	partyID, ok := h.partyID(w, r)
	if !ok {
		return
	}
	p, err := h.service.ApproveParty(ctx, partyID)
	if err != nil {
		h.logger.ErrorContext(ctx, "party approval failed",
			"request_id", requestcontext.RequestID(ctx),
			"party_id", partyID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	partyID, ok := h.partyID(w, r)
	if !ok {
		return
	}
	// Caller may be zero when the admin middleware authorized the request.
	caller := requestcontext.Caller(ctx)
	if err := h.service.DeactivateParty(ctx, partyID, caller); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleReactivate(w http.ResponseWriter, r *http.Request) {
	partyID, ok := h.partyID(w, r)
	if !ok {
		return
	}
	if err := h.service.ReactivateParty(r.Context(), partyID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleForceLeadership(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	partyID, ok := h.partyID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[*TransferLeadershipRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.ForceLeadershipChange(ctx, partyID, req.ParsedLeader()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleTogglePause(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	paused, err := h.service.TogglePause(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "registry pause toggled",
		"request_id", requestcontext.RequestID(ctx),
		"paused", paused,
	)
	httputil.WriteJSON(w, http.StatusOK, PauseResponse{Paused: paused})
}

// --- shared helpers ---

func (h *Handler) requireCaller(w http.ResponseWriter, ctx context.Context) (id.Identity, bool) {
	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.ZeroIdentity, false
	}
	return caller, true
}

func (h *Handler) partyID(w http.ResponseWriter, r *http.Request) (id.PartyID, bool) {
	partyID, err := id.ParsePartyID(chi.URLParam(r, "partyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.NoParty, false
	}
	return partyID, true
}

// memberAction runs a caller-scoped mutation identified only by the party in
// the URL.
func (h *Handler) memberAction(w http.ResponseWriter, r *http.Request, logMsg string, fn func(context.Context, id.PartyID, id.Identity) error) {
	ctx := r.Context()
	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}
	partyID, ok := h.partyID(w, r)
	if !ok {
		return
	}
	if err := fn(ctx, partyID, caller); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, logMsg,
		"request_id", requestcontext.RequestID(ctx),
		"party_id", partyID,
		"caller", caller,
	)
	w.WriteHeader(http.StatusNoContent)
}

// targetAction runs a leader-scoped mutation against the member named in the
// URL.
func (h *Handler) targetAction(w http.ResponseWriter, r *http.Request, fn func(context.Context, id.PartyID, id.Identity, id.Identity) error) {
	ctx := r.Context()
	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}
	partyID, ok := h.partyID(w, r)
	if !ok {
		return
	}
	target, err := id.ParseIdentity(chi.URLParam(r, "identity"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := fn(ctx, partyID, caller, target); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseIndex(raw string) (int, error) {
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "index must be a non-negative integer")
	}
	return index, nil
}
