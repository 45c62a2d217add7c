// Package service implements resumable snapshot capture over the party
// registry. Capture walks the party ID space in bounded batches so a caller
// (usually the background worker) can spread a full pass over several calls;
// each batch commits its snapshots even if a later batch never runs.
package service

import (
	"context"
	"errors"
	"log/slog"

	"partyreg/internal/party/models"
	"partyreg/internal/party/store"
	"partyreg/internal/snapshot/metrics"
	snapmodels "partyreg/internal/snapshot/models"
	snapstore "partyreg/internal/snapshot/store"
	id "partyreg/pkg/domain"
	dErrors "partyreg/pkg/domain-errors"
	"partyreg/pkg/platform/sentinel"
	"partyreg/pkg/requestcontext"
)

// Archive receives a copy of every captured snapshot.
type Archive interface {
	Append(ctx context.Context, snap snapmodels.Snapshot) error
}

// Service drives snapshot capture and serves ledger reads.
type Service struct {
	registry *store.Registry
	ledger   *snapstore.Ledger
	archive  Archive
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithArchive mirrors captured snapshots into a durable sink. Archive
// failures are logged and counted, never propagated: the in-memory ledger
// remains correct without the sink.
func WithArchive(archive Archive) Option {
	return func(s *Service) { s.archive = archive }
}

func New(registry *store.Registry, ledger *snapstore.Ledger, opts ...Option) *Service {
	s := &Service{
		registry: registry,
		ledger:   ledger,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CaptureBatch snapshots every Active party in the half-open ID range
// [start, start+batchSize), clamped to the allocated ID space. It returns
// the first unprocessed ID, or 0 when the range reached the end of the ID
// space and the pass is complete. Only a completing call moves the
// last-full-pass marker.
func (s *Service) CaptureBatch(ctx context.Context, start id.PartyID, batchSize int) (next id.PartyID, processed int, err error) {
	if batchSize <= 0 {
		return 0, 0, dErrors.New(dErrors.CodeValidation, "batch size must be positive")
	}
	if start == id.NoParty {
		return 0, 0, dErrors.New(dErrors.CodeValidation, "start party id must be positive")
	}

	total := id.PartyID(s.registry.TotalParties(ctx))
	if total == id.NoParty {
		// Empty registry: the pass completes trivially.
		s.ledger.MarkFullPass(requestcontext.Now(ctx))
		return 0, 0, nil
	}
	if start > total {
		return 0, 0, dErrors.New(dErrors.CodeValidation, "start party id is out of range")
	}

	end := start + id.PartyID(batchSize)
	if end > total+1 {
		end = total + 1
	}

	now := requestcontext.Now(ctx)
	sequence := s.ledger.NextSequence()
	for _, counts := range s.registry.CountsInRange(ctx, start, end) {
		if counts.Status != models.StatusActive {
			continue
		}
		snap := snapmodels.Snapshot{
			PartyID:                     counts.PartyID,
			Sequence:                    sequence,
			Timestamp:                   now,
			MemberCount:                 counts.MemberCount,
			VerifiedMemberCount:         counts.VerifiedMemberCount,
			DocumentVerifiedMemberCount: counts.DocumentVerifiedMemberCount,
		}
		s.ledger.Append(ctx, snap)
		processed++
		if s.metrics != nil {
			s.metrics.SnapshotsCaptured.Inc()
		}
		if s.archive != nil {
			if archiveErr := s.archive.Append(ctx, snap); archiveErr != nil {
				if s.metrics != nil {
					s.metrics.ArchiveErrors.Inc()
				}
				s.logger.WarnContext(ctx, "snapshot archive write failed",
					"party_id", snap.PartyID,
					"sequence", snap.Sequence,
					"error", archiveErr,
				)
			}
		}
	}

	if s.metrics != nil {
		s.metrics.BatchesProcessed.Inc()
	}
	if end == total+1 {
		s.ledger.MarkFullPass(now)
		if s.metrics != nil {
			s.metrics.FullPasses.Inc()
		}
		s.logger.InfoContext(ctx, "snapshot pass completed",
			"sequence", sequence,
			"total_parties", uint64(total),
		)
		return 0, processed, nil
	}
	return end, processed, nil
}

// SetRetention bounds every party's series to the newest n snapshots.
// Zero disables pruning.
func (s *Service) SetRetention(ctx context.Context, n int) error {
	if !requestcontext.IsAdmin(ctx) {
		return dErrors.New(dErrors.CodeForbidden, "admin privileges required")
	}
	if n < 0 {
		return dErrors.New(dErrors.CodeValidation, "retention cannot be negative")
	}
	s.ledger.SetRetention(n)
	s.logger.InfoContext(ctx, "snapshot retention updated", "retention", n)
	return nil
}

// LatestSnapshot returns the newest snapshot for a party.
func (s *Service) LatestSnapshot(ctx context.Context, partyID id.PartyID) (snapmodels.Snapshot, error) {
	snap, err := s.ledger.Latest(ctx, partyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return snapmodels.Snapshot{}, dErrors.New(dErrors.CodeNotFound, "no snapshots for party")
		}
		return snapmodels.Snapshot{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read snapshot")
	}
	return snap, nil
}

// SnapshotHistory returns up to count snapshots beginning at startIndex in
// the party's series. Count is clamped to the series length.
func (s *Service) SnapshotHistory(ctx context.Context, partyID id.PartyID, startIndex, count int) ([]snapmodels.Snapshot, error) {
	history, err := s.ledger.History(ctx, partyID, startIndex, count)
	if err != nil {
		if errors.Is(err, sentinel.ErrOutOfRange) {
			return nil, dErrors.New(dErrors.CodeNotFound, "start index is out of range")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read snapshot history")
	}
	return history, nil
}

// SnapshotStatus reports the ledger's global capture state.
func (s *Service) SnapshotStatus(ctx context.Context) snapmodels.Status {
	return snapmodels.Status{
		LastFullPass:  s.ledger.LastFullPass(),
		TotalParties:  s.registry.TotalParties(ctx),
		Retention:     s.ledger.Retention(),
		NextSequence:  s.ledger.Sequence() + 1,
		TrackedSeries: s.ledger.TrackedSeries(),
	}
}
