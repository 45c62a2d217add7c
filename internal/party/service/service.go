// Package service implements the party registry operations: lifecycle,
// membership, bans, leadership and metadata. All mutations run inside a
// single store transaction with every precondition checked before the first
// write, so a failed operation leaves no trace.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"partyreg/internal/events"
	"partyreg/internal/party/metrics"
	"partyreg/internal/party/models"
	"partyreg/internal/party/store"
	"partyreg/internal/verify"
	id "partyreg/pkg/domain"
	dErrors "partyreg/pkg/domain-errors"
	"partyreg/pkg/platform/sentinel"
	"partyreg/pkg/requestcontext"
)

// NullifierStore tracks consumed personhood-proof nullifiers.
type NullifierStore interface {
	Consume(ctx context.Context, nullifierHash string) error
	Used(ctx context.Context, nullifierHash string) (bool, error)
}

// Service orchestrates the party registry.
type Service struct {
	registry   *store.Registry
	verifier   verify.Verifier
	oracle     verify.Oracle
	nullifiers NullifierStore
	policy     models.Policy

	logger    *slog.Logger
	metrics   *metrics.Metrics
	publisher events.Publisher
	tracer    trace.Tracer

	paused atomic.Bool
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithPublisher(publisher events.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

// WithOracle enables proof-of-personhood joins. Both the oracle and the
// nullifier store are required for the document-tier paths.
func WithOracle(oracle verify.Oracle, nullifiers NullifierStore) Option {
	return func(s *Service) {
		s.oracle = oracle
		s.nullifiers = nullifiers
	}
}

// New constructs the registry service.
func New(registry *store.Registry, verifier verify.Verifier, policy models.Policy, opts ...Option) *Service {
	s := &Service{
		registry: registry,
		verifier: verifier,
		policy:   policy,
		tracer:   otel.Tracer("partyreg/party"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the deployment's policy flags.
func (s *Service) Policy() models.Policy {
	return s.policy
}

// Paused reports the global pause switch.
func (s *Service) Paused() bool {
	return s.paused.Load()
}

// TogglePause flips the global pause switch. Admin only; it is the one
// mutating entry point that works while paused.
func (s *Service) TogglePause(ctx context.Context) (bool, error) {
	if err := requireAdmin(ctx); err != nil {
		return s.paused.Load(), s.fail(err)
	}
	paused := !s.paused.Load()
	s.paused.Store(paused)
	s.emit(ctx, events.Event{
		Kind:  events.KindPauseToggled,
		Actor: requestcontext.Caller(ctx),
		Detail: map[string]string{
			"paused": boolString(paused),
		},
	})
	s.logInfo(ctx, "pause toggled", "paused", paused)
	return paused, nil
}

// CreatePartyRequest carries the validated creation fields.
type CreatePartyRequest struct {
	Name        string
	ShortName   string
	Description string
	Link        string
	Founder     id.Identity
}

// CreateParty allocates a new Pending party with the founder as sole member
// and leader. The founder's verification tier is queried live to seed the
// tier counters.
func (s *Service) CreateParty(ctx context.Context, req CreatePartyRequest) (*models.Party, error) {
	ctx, span := s.tracer.Start(ctx, "registry.CreateParty")
	defer span.End()

	if err := s.gate(ctx); err != nil {
		return nil, err
	}
	if req.Founder.IsZero() {
		return nil, s.fail(dErrors.New(dErrors.CodeValidation, "founder identity is required"))
	}

	tier, err := s.verifier.Tier(ctx, req.Founder)
	if err != nil {
		return nil, s.fail(dErrors.Wrap(err, dErrors.CodeInternal, "failed to query verification tier"))
	}

	now := requestcontext.Now(ctx)
	var created *models.Party
	err = s.registry.Update(ctx, func(tx *store.Tx) error {
		if s.policy.SingleMembership && tx.MembershipCount(req.Founder) > 0 {
			return dErrors.New(dErrors.CodeConflict, "identity already belongs to a party")
		}

		effective := s.effectiveTier(tx, req.Founder, tier)
		p, err := models.NewParty(tx.AllocateID(), req.Name, req.ShortName, req.Description, req.Link, req.Founder, effective, now)
		if err != nil {
			return err
		}
		tx.Put(p)
		tx.AddMembership(req.Founder, p.ID)
		tx.SetLeadership(req.Founder, p.ID)
		created = p
		return nil
	})
	if err != nil {
		return nil, s.fail(err)
	}

	if s.metrics != nil {
		s.metrics.PartiesCreated.Inc()
	}
	s.emit(ctx, events.Event{
		Kind:    events.KindPartyCreated,
		PartyID: created.ID,
		Subject: req.Founder,
		Actor:   req.Founder,
	})
	s.logInfo(ctx, "party created", "party_id", created.ID, "founder", req.Founder)
	return created, nil
}

// ApproveParty activates a pending party. Admin only. Rejected when the
// current leader already leads a different Active party; the global
// leadership invariant is enforced here and at transfer time.
func (s *Service) ApproveParty(ctx context.Context, partyID id.PartyID) (*models.Party, error) {
	ctx, span := s.tracer.Start(ctx, "registry.ApproveParty")
	defer span.End()

	if err := s.gate(ctx); err != nil {
		return nil, err
	}
	if err := requireAdmin(ctx); err != nil {
		return nil, s.fail(err)
	}

	now := requestcontext.Now(ctx)
	var approved *models.Party
	err := s.registry.Update(ctx, func(tx *store.Tx) error {
		p, err := tx.Party(partyID)
		if err != nil {
			return err
		}
		if err := p.CanApprove(); err != nil {
			return err
		}
		if conflicting, leads := tx.LeadsOtherActiveParty(p.CurrentLeader, partyID); leads {
			return dErrors.New(dErrors.CodeConflict,
				"leader already leads active party "+conflicting.String())
		}
		tx.RecountStatus(p.Status, models.StatusActive)
		p.ApplyApprove(now)
		approved = p
		return nil
	})
	if err != nil {
		return nil, s.fail(translateStoreErr(err))
	}

	if s.metrics != nil {
		s.metrics.PartiesApproved.Inc()
	}
	s.emit(ctx, events.Event{
		Kind:    events.KindPartyApproved,
		PartyID: partyID,
		Actor:   requestcontext.Caller(ctx),
	})
	s.logInfo(ctx, "party approved", "party_id", partyID)
	return approved, nil
}

// DeactivateParty moves a party to Inactive. Allowed for admins and the
// current leader.
func (s *Service) DeactivateParty(ctx context.Context, partyID id.PartyID, caller id.Identity) error {
	ctx, span := s.tracer.Start(ctx, "registry.DeactivateParty")
	defer span.End()

	if err := s.gate(ctx); err != nil {
		return err
	}

	now := requestcontext.Now(ctx)
	err := s.registry.Update(ctx, func(tx *store.Tx) error {
		p, err := tx.Party(partyID)
		if err != nil {
			return err
		}
		if !requestcontext.IsAdmin(ctx) && !p.IsLeader(caller) {
			return dErrors.New(dErrors.CodeForbidden, "only an admin or the party leader may deactivate")
		}
		if err := p.CanDeactivate(); err != nil {
			return err
		}
		tx.RecountStatus(p.Status, models.StatusInactive)
		p.ApplyDeactivate(now)
		return nil
	})
	if err != nil {
		return s.fail(translateStoreErr(err))
	}

	s.emit(ctx, events.Event{
		Kind:    events.KindPartyDeactivated,
		PartyID: partyID,
		Actor:   caller,
	})
	s.logInfo(ctx, "party deactivated", "party_id", partyID)
	return nil
}

// ReactivateParty returns an Inactive party to Pending. Admin only; a fresh
// approval is always required afterwards.
func (s *Service) ReactivateParty(ctx context.Context, partyID id.PartyID) error {
	ctx, span := s.tracer.Start(ctx, "registry.ReactivateParty")
	defer span.End()

	if err := s.gate(ctx); err != nil {
		return err
	}
	if err := requireAdmin(ctx); err != nil {
		return s.fail(err)
	}

	now := requestcontext.Now(ctx)
	err := s.registry.Update(ctx, func(tx *store.Tx) error {
		p, err := tx.Party(partyID)
		if err != nil {
			return err
		}
		if err := p.CanReactivate(); err != nil {
			return err
		}
		tx.RecountStatus(p.Status, models.StatusPending)
		p.ApplyReactivate(now)
		return nil
	})
	if err != nil {
		return s.fail(translateStoreErr(err))
	}

	s.emit(ctx, events.Event{
		Kind:    events.KindPartyReactivated,
		PartyID: partyID,
		Actor:   requestcontext.Caller(ctx),
	})
	s.logInfo(ctx, "party reactivated", "party_id", partyID)
	return nil
}

// --- shared helpers ---

// gate rejects mutating operations while the registry is paused.
func (s *Service) gate(_ context.Context) error {
	if s.paused.Load() {
		return s.fail(dErrors.New(dErrors.CodeConflict, "registry is paused"))
	}
	return nil
}

func requireAdmin(ctx context.Context) error {
	if !requestcontext.IsAdmin(ctx) {
		return dErrors.New(dErrors.CodeForbidden, "admin privileges required")
	}
	return nil
}

// effectiveTier folds the permanent document-verified flag into a live tier
// reading when the policy supports the document tier.
func (s *Service) effectiveTier(tx *store.Tx, identity id.Identity, tier verify.Tier) verify.Tier {
	if s.policy.DocumentTier && tx.IsDocumentVerified(identity) && tier < verify.TierDocument {
		return verify.TierDocument
	}
	return tier
}

func translateStoreErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "party not found")
	}
	return err
}

func (s *Service) fail(err error) error {
	if err != nil && s.metrics != nil {
		s.metrics.RejectedOperations.WithLabelValues(string(dErrors.CodeOf(err))).Inc()
	}
	return err
}

func (s *Service) emit(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	_ = s.publisher.Emit(ctx, event)
}

func (s *Service) logInfo(ctx context.Context, msg string, args ...any) {
	if s.logger == nil {
		return
	}
	args = append(args, "request_id", requestcontext.RequestID(ctx))
	s.logger.InfoContext(ctx, msg, args...)
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
