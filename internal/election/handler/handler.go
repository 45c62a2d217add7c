package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "partyreg/pkg/domain"
	dErrors "partyreg/pkg/domain-errors"
	"partyreg/pkg/platform/httputil"
	"partyreg/pkg/requestcontext"
)

// Service defines the election operations the HTTP layer depends on.
type Service interface {
	StartNewElection(ctx context.Context) (id.ElectionID, error)
	Vote(ctx context.Context, caller id.Identity, partyID id.PartyID) error
	RemoveVote(ctx context.Context, caller id.Identity) error
	CurrentElection(ctx context.Context) id.ElectionID
	VoteCount(ctx context.Context, election id.ElectionID, partyID id.PartyID) (uint64, error)
	UserVote(ctx context.Context, election id.ElectionID, identity id.Identity) (id.PartyID, error)
	Results(ctx context.Context, election id.ElectionID) (map[id.PartyID]uint64, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts caller-facing vote endpoints behind the identity
// middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/elections/current/votes", h.HandleVote)
	r.Delete("/elections/current/votes", h.HandleRemoveVote)
	r.Get("/elections/current/votes/me", h.HandleMyVote)
}

// RegisterPublic mounts the read-only tally endpoints.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/elections/current", h.HandleCurrent)
	r.Get("/elections/{electionID}/results", h.HandleResults)
	r.Get("/elections/{electionID}/parties/{partyID}", h.HandleVoteCount)
}

// RegisterAdmin mounts election control endpoints behind the admin token.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/elections", h.HandleStartElection)
}

// VoteRequest is the HTTP request body for POST /elections/current/votes.
type VoteRequest struct {
	PartyID uint64 `json:"party_id"`
}

func (r *VoteRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.PartyID == 0 {
		return dErrors.New(dErrors.CodeValidation, "party_id is required")
	}
	return nil
}

// ElectionResponse reports an election ID.
type ElectionResponse struct {
	ElectionID id.ElectionID `json:"election_id"`
}

// VoteCountResponse reports one party's tally in one election.
type VoteCountResponse struct {
	ElectionID id.ElectionID `json:"election_id"`
	PartyID    id.PartyID    `json:"party_id"`
	Votes      uint64        `json:"votes"`
}

// MyVoteResponse reports the caller's live vote; PartyID 0 means no vote.
type MyVoteResponse struct {
	ElectionID id.ElectionID `json:"election_id"`
	PartyID    id.PartyID    `json:"party_id"`
}

// ResultsResponse reports all non-zero tallies of an election.
type ResultsResponse struct {
	ElectionID id.ElectionID         `json:"election_id"`
	Results    map[id.PartyID]uint64 `json:"results"`
}

func (h *Handler) HandleVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[*VoteRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.Vote(ctx, caller, id.PartyID(req.PartyID)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleRemoveVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	if err := h.service.RemoveVote(ctx, caller); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleMyVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	election := h.service.CurrentElection(ctx)
	vote, err := h.service.UserVote(ctx, election, caller)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MyVoteResponse{ElectionID: election, PartyID: vote})
}

func (h *Handler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, ElectionResponse{
		ElectionID: h.service.CurrentElection(r.Context()),
	})
}

func (h *Handler) HandleResults(w http.ResponseWriter, r *http.Request) {
	election, err := id.ParseElectionID(chi.URLParam(r, "electionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	results, err := h.service.Results(r.Context(), election)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ResultsResponse{ElectionID: election, Results: results})
}

func (h *Handler) HandleVoteCount(w http.ResponseWriter, r *http.Request) {
	election, err := id.ParseElectionID(chi.URLParam(r, "electionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	partyID, err := id.ParsePartyID(chi.URLParam(r, "partyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	votes, err := h.service.VoteCount(r.Context(), election, partyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, VoteCountResponse{
		ElectionID: election,
		PartyID:    partyID,
		Votes:      votes,
	})
}

func (h *Handler) HandleStartElection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	election, err := h.service.StartNewElection(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "election started",
		"request_id", requestcontext.RequestID(ctx),
		"election_id", election,
	)
	httputil.WriteJSON(w, http.StatusCreated, ElectionResponse{ElectionID: election})
}
