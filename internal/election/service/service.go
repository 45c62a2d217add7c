// Package service implements the election tally: one live vote per identity
// per election, gated on verification tier. Vote targets are plain party
// IDs; the tally deliberately accepts IDs the registry has never allocated,
// matching the permissive write model of the upstream vote log.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"partyreg/internal/election/store"
	"partyreg/internal/events"
	"partyreg/internal/verify"
	id "partyreg/pkg/domain"
	dErrors "partyreg/pkg/domain-errors"
	"partyreg/pkg/platform/sentinel"
	"partyreg/pkg/requestcontext"
)

// Service orchestrates election operations.
type Service struct {
	tally    *store.Tally
	verifier verify.Verifier

	logger    *slog.Logger
	publisher events.Publisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithPublisher(publisher events.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func New(tally *store.Tally, verifier verify.Verifier, opts ...Option) *Service {
	s := &Service{
		tally:    tally,
		verifier: verifier,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartNewElection opens the next election cycle. Prior tallies stay
// queryable under their own IDs.
func (s *Service) StartNewElection(ctx context.Context) (id.ElectionID, error) {
	if !requestcontext.IsAdmin(ctx) {
		return 0, dErrors.New(dErrors.CodeForbidden, "admin privileges required")
	}
	election := s.tally.StartNewElection()
	s.emit(ctx, events.Event{
		Kind:   events.KindElectionStarted,
		Detail: map[string]string{"election_id": strconv.FormatUint(uint64(election), 10)},
	})
	s.logger.InfoContext(ctx, "election started", "election_id", election)
	return election, nil
}

// Vote records the caller's vote for a party in the current election. The
// caller must hold a verification tier above none; the tier is queried live
// on every call. Voting again for the same party is rejected, voting for a
// different party atomically moves the earlier vote.
func (s *Service) Vote(ctx context.Context, caller id.Identity, partyID id.PartyID) error {
	if caller.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "identity is required")
	}
	if partyID == id.NoParty {
		return dErrors.New(dErrors.CodeValidation, "party id is required")
	}

	tier, err := s.verifier.Tier(ctx, caller)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check verification tier")
	}
	if !tier.Verified() {
		return dErrors.New(dErrors.CodeForbidden, "voter is not verified")
	}

	election, err := s.tally.Vote(caller, partyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "already voted for this party")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record vote")
	}

	s.emit(ctx, events.Event{
		Kind:    events.KindVoteCast,
		PartyID: partyID,
		Subject: caller,
		Actor:   caller,
		Detail:  map[string]string{"election_id": strconv.FormatUint(uint64(election), 10)},
	})
	s.logger.InfoContext(ctx, "vote cast",
		"election_id", election,
		"party_id", partyID,
	)
	return nil
}

// RemoveVote clears the caller's live vote in the current election.
func (s *Service) RemoveVote(ctx context.Context, caller id.Identity) error {
	if caller.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "identity is required")
	}
	election, previous, err := s.tally.RemoveVote(caller)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "no vote to remove")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove vote")
	}

	s.emit(ctx, events.Event{
		Kind:    events.KindVoteRemoved,
		PartyID: previous,
		Subject: caller,
		Actor:   caller,
		Detail:  map[string]string{"election_id": strconv.FormatUint(uint64(election), 10)},
	})
	s.logger.InfoContext(ctx, "vote removed",
		"election_id", election,
		"party_id", previous,
	)
	return nil
}

// CurrentElection returns the live election ID.
func (s *Service) CurrentElection(context.Context) id.ElectionID {
	return s.tally.CurrentElection()
}

// VoteCount reads one party's tally for an election.
func (s *Service) VoteCount(_ context.Context, election id.ElectionID, partyID id.PartyID) (uint64, error) {
	if election == 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "election id is required")
	}
	return s.tally.VoteCount(election, partyID), nil
}

// UserVote reads an identity's live vote for an election. NoParty means the
// identity has not voted.
func (s *Service) UserVote(_ context.Context, election id.ElectionID, identity id.Identity) (id.PartyID, error) {
	if election == 0 {
		return id.NoParty, dErrors.New(dErrors.CodeValidation, "election id is required")
	}
	return s.tally.UserVote(election, identity), nil
}

// Results returns all non-zero tallies for an election.
func (s *Service) Results(_ context.Context, election id.ElectionID) (map[id.PartyID]uint64, error) {
	if election == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "election id is required")
	}
	return s.tally.Results(election), nil
}

func (s *Service) emit(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	event.Timestamp = requestcontext.Now(ctx)
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit event", "kind", event.Kind, "error", err)
	}
}
