package service

import (
	"context"

	"partyreg/internal/events"
	"partyreg/internal/party/models"
	"partyreg/internal/party/store"
	id "partyreg/pkg/domain"
	dErrors "partyreg/pkg/domain-errors"
	"partyreg/pkg/requestcontext"
)

// TransferLeadership hands leadership to another member. Only the sitting
// leader may transfer. For Active parties the new leader must not already
// lead a different Active party.
func (s *Service) TransferLeadership(ctx context.Context, partyID id.PartyID, caller, newLeader id.Identity) error {
	ctx, span := s.tracer.Start(ctx, "registry.TransferLeadership")
	defer span.End()

	if err := s.gate(ctx); err != nil {
		return err
	}
	return s.changeLeadership(ctx, partyID, caller, newLeader, false)
}

// ForceLeadershipChange is the admin override: it skips the sitting-leader
// check and records the history entry as forced. The conflicting-leadership
// check is skipped only when the conflict is this very party.
func (s *Service) ForceLeadershipChange(ctx context.Context, partyID id.PartyID, newLeader id.Identity) error {
	ctx, span := s.tracer.Start(ctx, "registry.ForceLeadershipChange")
	defer span.End()

	if err := s.gate(ctx); err != nil {
		return err
	}
	if err := requireAdmin(ctx); err != nil {
		return s.fail(err)
	}
	return s.changeLeadership(ctx, partyID, requestcontext.Caller(ctx), newLeader, true)
}

func (s *Service) changeLeadership(ctx context.Context, partyID id.PartyID, caller, newLeader id.Identity, forced bool) error {
	now := requestcontext.Now(ctx)
	var previous id.Identity
	err := s.registry.Update(ctx, func(tx *store.Tx) error {
		p, err := tx.Party(partyID)
		if err != nil {
			return err
		}
		if !forced && !p.IsLeader(caller) {
			return dErrors.New(dErrors.CodeForbidden, "only the current leader may transfer leadership")
		}
		if err := p.CanTransferLeadership(newLeader); err != nil {
			return err
		}
		if p.Status == models.StatusActive {
			if conflicting, leads := tx.LeadsOtherActiveParty(newLeader, partyID); leads {
				return dErrors.New(dErrors.CodeConflict,
					"new leader already leads active party "+conflicting.String())
			}
		}

		previous = p.CurrentLeader
		tx.UnsetLeadership(previous, partyID)
		tx.SetLeadership(newLeader, partyID)
		p.ApplyLeadershipChange(newLeader, forced, now)
		return nil
	})
	if err != nil {
		return s.fail(translateStoreErr(err))
	}

	if s.metrics != nil {
		s.metrics.LeadershipChanges.Inc()
	}
	s.emit(ctx, events.Event{
		Kind:    events.KindLeadershipChange,
		PartyID: partyID,
		Subject: newLeader,
		Actor:   caller,
		Detail: map[string]string{
			"previous_leader": previous.String(),
			"forced":          boolString(forced),
		},
	})
	s.logInfo(ctx, "leadership changed",
		"party_id", partyID,
		"previous", previous,
		"new_leader", newLeader,
		"forced", forced,
	)
	return nil
}

// --- Metadata updates ---

// updateField runs a leader-gated metadata mutation and emits the
// field-specific change notification.
func (s *Service) updateField(ctx context.Context, partyID id.PartyID, caller id.Identity, field string, apply func(p *models.Party) error) error {
	if err := s.gate(ctx); err != nil {
		return err
	}
	err := s.registry.Update(ctx, func(tx *store.Tx) error {
		p, err := tx.Party(partyID)
		if err != nil {
			return err
		}
		if !p.IsLeader(caller) {
			return dErrors.New(dErrors.CodeForbidden, "only the party leader may update party details")
		}
		return apply(p)
	})
	if err != nil {
		return s.fail(translateStoreErr(err))
	}

	s.emit(ctx, events.Event{
		Kind:    events.KindPartyUpdated,
		PartyID: partyID,
		Actor:   caller,
		Detail:  map[string]string{"field": field},
	})
	s.logInfo(ctx, "party updated", "party_id", partyID, "field", field)
	return nil
}

func (s *Service) UpdateName(ctx context.Context, partyID id.PartyID, caller id.Identity, name string) error {
	now := requestcontext.Now(ctx)
	return s.updateField(ctx, partyID, caller, "name", func(p *models.Party) error {
		return p.ApplyUpdateName(name, now)
	})
}

func (s *Service) UpdateShortName(ctx context.Context, partyID id.PartyID, caller id.Identity, shortName string) error {
	now := requestcontext.Now(ctx)
	return s.updateField(ctx, partyID, caller, "short_name", func(p *models.Party) error {
		return p.ApplyUpdateShortName(shortName, now)
	})
}

func (s *Service) UpdateDescription(ctx context.Context, partyID id.PartyID, caller id.Identity, description string) error {
	now := requestcontext.Now(ctx)
	return s.updateField(ctx, partyID, caller, "description", func(p *models.Party) error {
		return p.ApplyUpdateDescription(description, now)
	})
}

func (s *Service) UpdateLink(ctx context.Context, partyID id.PartyID, caller id.Identity, link string) error {
	now := requestcontext.Now(ctx)
	return s.updateField(ctx, partyID, caller, "link", func(p *models.Party) error {
		return p.ApplyUpdateLink(link, now)
	})
}
