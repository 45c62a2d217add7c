// Package rewards pays a fixed amount per claim period to verified
// identities. A claim requires a verification tier above none, checked live,
// and each identity claims at most once per period.
package rewards

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"partyreg/internal/events"
	"partyreg/internal/ledger"
	"partyreg/internal/verify"
	id "partyreg/pkg/domain"
	dErrors "partyreg/pkg/domain-errors"
	"partyreg/pkg/requestcontext"
)

// DefaultPeriod is one claim window.
const DefaultPeriod = 7 * 24 * time.Hour

// DefaultAmount is paid per successful claim.
const DefaultAmount uint64 = 100

// Service hands out periodic rewards through the ledger port.
type Service struct {
	ledger   ledger.Ledger
	verifier verify.Verifier
	period   time.Duration
	amount   uint64

	logger    *slog.Logger
	publisher events.Publisher

	mu      sync.Mutex
	claimed map[string]bool // "<period>/<identity>"
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithPublisher(publisher events.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

// WithPayout overrides the claim window and per-claim amount.
func WithPayout(period time.Duration, amount uint64) Option {
	return func(s *Service) {
		if period > 0 {
			s.period = period
		}
		if amount > 0 {
			s.amount = amount
		}
	}
}

func NewService(l ledger.Ledger, verifier verify.Verifier, opts ...Option) *Service {
	s := &Service{
		ledger:   l,
		verifier: verifier,
		period:   DefaultPeriod,
		amount:   DefaultAmount,
		logger:   slog.Default(),
		claimed:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Period returns the claim window index for a point in time.
func (s *Service) Period(t time.Time) uint64 {
	return uint64(t.Unix()) / uint64(s.period.Seconds())
}

// Claim pays the caller the fixed reward for the current period.
func (s *Service) Claim(ctx context.Context, caller id.Identity) error {
	if caller.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "identity is required")
	}

	tier, err := s.verifier.Tier(ctx, caller)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check verification tier")
	}
	if !tier.Verified() {
		return dErrors.New(dErrors.CodeForbidden, "claimant is not verified")
	}

	period := s.Period(requestcontext.Now(ctx))
	key := claimKey(period, caller)

	s.mu.Lock()
	if s.claimed[key] {
		s.mu.Unlock()
		return dErrors.New(dErrors.CodeConflict, "reward already claimed this period")
	}
	// Reserve before the transfer so a concurrent claim cannot double-pay;
	// released again if the transfer fails.
	s.claimed[key] = true
	s.mu.Unlock()

	if err := s.ledger.Transfer(ctx, caller, s.amount); err != nil {
		s.mu.Lock()
		delete(s.claimed, key)
		s.mu.Unlock()
		if errors.Is(err, ledger.ErrInsufficientBalance) {
			return dErrors.New(dErrors.CodeConflict, "reward pool is exhausted")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "reward transfer failed")
	}

	s.emit(ctx, events.Event{
		Kind:    events.KindRewardClaimed,
		Subject: caller,
		Actor:   caller,
		Detail: map[string]string{
			"period": fmt.Sprintf("%d", period),
			"amount": fmt.Sprintf("%d", s.amount),
		},
	})
	s.logger.InfoContext(ctx, "reward claimed", "period", period, "amount", s.amount)
	return nil
}

// Claimed reports whether an identity already claimed in the period covering
// the given time.
func (s *Service) Claimed(_ context.Context, caller id.Identity, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.claimed[claimKey(s.Period(at), caller)]
}

func claimKey(period uint64, caller id.Identity) string {
	return fmt.Sprintf("%d/%s", period, caller)
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
