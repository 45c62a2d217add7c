package service

import (
	"context"

	"partyreg/internal/party/models"
	"partyreg/internal/party/store"
	id "partyreg/pkg/domain"
	dErrors "partyreg/pkg/domain-errors"
)

// GetPartyDetails returns a detached copy of the full aggregate.
func (s *Service) GetPartyDetails(ctx context.Context, partyID id.PartyID) (*models.Party, error) {
	p, err := s.registry.GetParty(ctx, partyID)
	if err != nil {
		return nil, s.fail(translateStoreErr(err))
	}
	return p, nil
}

// GetPartyStats returns the four activity counters.
func (s *Service) GetPartyStats(ctx context.Context, partyID id.PartyID) (models.Stats, error) {
	p, err := s.registry.GetParty(ctx, partyID)
	if err != nil {
		return models.Stats{}, s.fail(translateStoreErr(err))
	}
	return p.Stats, nil
}

// GetLeadershipHistoryEntry returns one history entry by index,
// bounds-checked.
func (s *Service) GetLeadershipHistoryEntry(ctx context.Context, partyID id.PartyID, index int) (models.LeadershipChange, error) {
	p, err := s.registry.GetParty(ctx, partyID)
	if err != nil {
		return models.LeadershipChange{}, s.fail(translateStoreErr(err))
	}
	if index < 0 || index >= len(p.LeadershipHistory) {
		return models.LeadershipChange{}, s.fail(dErrors.New(dErrors.CodeNotFound, "leadership history index out of range"))
	}
	return p.LeadershipHistory[index], nil
}

// GetUserParties returns every party the identity belongs to, ascending by
// ID. Under the single-membership policy the slice has at most one entry.
func (s *Service) GetUserParties(ctx context.Context, identity id.Identity) ([]id.PartyID, error) {
	var parties []id.PartyID
	err := s.registry.View(ctx, func(tx *store.Tx) error {
		parties = tx.Memberships(identity)
		return nil
	})
	if err != nil {
		return nil, s.fail(err)
	}
	return parties, nil
}

// GetUserLeaderships returns every party the identity currently leads.
func (s *Service) GetUserLeaderships(ctx context.Context, identity id.Identity) ([]id.PartyID, error) {
	var parties []id.PartyID
	err := s.registry.View(ctx, func(tx *store.Tx) error {
		parties = tx.Leaderships(identity)
		return nil
	})
	if err != nil {
		return nil, s.fail(err)
	}
	return parties, nil
}

// Counts returns the pending/active lifecycle counters.
func (s *Service) Counts(ctx context.Context) (pending, active int, err error) {
	err = s.registry.View(ctx, func(tx *store.Tx) error {
		pending = tx.PendingCount()
		active = tx.ActiveCount()
		return nil
	})
	if err != nil {
		return 0, 0, s.fail(err)
	}
	return pending, active, nil
}
