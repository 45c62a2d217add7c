package service

import (
	"context"
	"errors"

	"partyreg/internal/events"
	"partyreg/internal/party/store"
	"partyreg/internal/verify"
	id "partyreg/pkg/domain"
	dErrors "partyreg/pkg/domain-errors"
	"partyreg/pkg/platform/sentinel"
	"partyreg/pkg/requestcontext"
)

// JoinParty adds the caller to a party. The caller's verification tier is
// queried live so the tier counters reflect the verifier's current view.
func (s *Service) JoinParty(ctx context.Context, partyID id.PartyID, caller id.Identity) error {
	ctx, span := s.tracer.Start(ctx, "registry.JoinParty")
	defer span.End()

	if err := s.gate(ctx); err != nil {
		return err
	}
	if caller.IsZero() {
		return s.fail(dErrors.New(dErrors.CodeValidation, "identity is required"))
	}

	tier, err := s.verifier.Tier(ctx, caller)
	if err != nil {
		return s.fail(dErrors.Wrap(err, dErrors.CodeInternal, "failed to query verification tier"))
	}

	now := requestcontext.Now(ctx)
	err = s.registry.Update(ctx, func(tx *store.Tx) error {
		p, err := tx.Party(partyID)
		if err != nil {
			return err
		}
		if err := p.CanJoin(caller); err != nil {
			return err
		}
		if s.policy.SingleMembership && tx.MembershipCount(caller) > 0 {
			return dErrors.New(dErrors.CodeConflict, "identity already belongs to a party")
		}
		p.ApplyJoin(caller, s.effectiveTier(tx, caller, tier), now)
		tx.AddMembership(caller, partyID)
		return nil
	})
	if err != nil {
		return s.fail(translateStoreErr(err))
	}

	if s.metrics != nil {
		s.metrics.MemberJoins.Inc()
	}
	s.emit(ctx, events.Event{
		Kind:    events.KindMemberJoined,
		PartyID: partyID,
		Subject: caller,
		Actor:   caller,
	})
	s.logInfo(ctx, "member joined", "party_id", partyID, "member", caller)
	return nil
}

// JoinPartyWithProof joins with a one-time personhood proof. On success the
// caller is permanently document-verified across all parties. The nullifier
// is consumed only after every other precondition holds, so a rejected join
// never burns a proof.
func (s *Service) JoinPartyWithProof(ctx context.Context, partyID id.PartyID, caller id.Identity, proof verify.Proof) error {
	ctx, span := s.tracer.Start(ctx, "registry.JoinPartyWithProof")
	defer span.End()

	if err := s.gate(ctx); err != nil {
		return err
	}
	if !s.policy.DocumentTier {
		return s.fail(dErrors.New(dErrors.CodeBadRequest, "document verification is not enabled"))
	}
	if s.oracle == nil || s.nullifiers == nil {
		return s.fail(dErrors.New(dErrors.CodeInternal, "personhood oracle is not configured"))
	}
	if caller.IsZero() {
		return s.fail(dErrors.New(dErrors.CodeValidation, "identity is required"))
	}

	used, err := s.nullifiers.Used(ctx, proof.NullifierHash)
	if err != nil {
		return s.fail(dErrors.Wrap(err, dErrors.CodeInternal, "failed to check nullifier"))
	}
	if used {
		return s.fail(dErrors.New(dErrors.CodeConflict, "nullifier already used"))
	}
	if err := s.oracle.Verify(ctx, proof); err != nil {
		return s.fail(err)
	}

	now := requestcontext.Now(ctx)
	err = s.registry.Update(ctx, func(tx *store.Tx) error {
		p, err := tx.Party(partyID)
		if err != nil {
			return err
		}
		if err := p.CanJoin(caller); err != nil {
			return err
		}
		if s.policy.SingleMembership && tx.MembershipCount(caller) > 0 {
			return dErrors.New(dErrors.CodeConflict, "identity already belongs to a party")
		}
		// Last possible failure point: consume before the first mutation so
		// a lost race fails the whole operation cleanly.
		if err := s.nullifiers.Consume(ctx, proof.NullifierHash); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.New(dErrors.CodeConflict, "nullifier already used")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to consume nullifier")
		}
		tx.MarkDocumentVerified(caller)
		p.ApplyJoin(caller, verify.TierDocument, now)
		tx.AddMembership(caller, partyID)
		return nil
	})
	if err != nil {
		return s.fail(translateStoreErr(err))
	}

	if s.metrics != nil {
		s.metrics.MemberJoins.Inc()
	}
	s.emit(ctx, events.Event{
		Kind:    events.KindMemberJoined,
		PartyID: partyID,
		Subject: caller,
		Actor:   caller,
		Detail:  map[string]string{"document_verified": "true"},
	})
	s.logInfo(ctx, "member joined with proof", "party_id", partyID, "member", caller)
	return nil
}

// LeaveParty removes the caller from a party. Leaders must transfer
// leadership first.
func (s *Service) LeaveParty(ctx context.Context, partyID id.PartyID, caller id.Identity) error {
	ctx, span := s.tracer.Start(ctx, "registry.LeaveParty")
	defer span.End()

	if err := s.gate(ctx); err != nil {
		return err
	}
	return s.removeMembership(ctx, partyID, caller, caller, events.KindMemberLeft, false)
}

// RemoveMember is the leader-initiated counterpart of LeaveParty.
func (s *Service) RemoveMember(ctx context.Context, partyID id.PartyID, caller, target id.Identity) error {
	ctx, span := s.tracer.Start(ctx, "registry.RemoveMember")
	defer span.End()

	if err := s.gate(ctx); err != nil {
		return err
	}
	return s.removeMembership(ctx, partyID, caller, target, events.KindMemberRemoved, true)
}

// BanMember bans an identity from a party. If the target is currently a
// member the removal bookkeeping runs in the same transaction. The ban flag
// persists independently of membership.
func (s *Service) BanMember(ctx context.Context, partyID id.PartyID, caller, target id.Identity) error {
	ctx, span := s.tracer.Start(ctx, "registry.BanMember")
	defer span.End()

	if err := s.gate(ctx); err != nil {
		return err
	}
	if !s.policy.SupportsBan {
		return s.fail(dErrors.New(dErrors.CodeBadRequest, "bans are not enabled"))
	}

	// Tier read happens before removal so the counters shrink by what the
	// member contributed.
	tier, err := s.verifier.Tier(ctx, target)
	if err != nil {
		return s.fail(dErrors.Wrap(err, dErrors.CodeInternal, "failed to query verification tier"))
	}

	now := requestcontext.Now(ctx)
	var wasMember bool
	err = s.registry.Update(ctx, func(tx *store.Tx) error {
		p, err := tx.Party(partyID)
		if err != nil {
			return err
		}
		if !p.IsLeader(caller) {
			return dErrors.New(dErrors.CodeForbidden, "only the party leader may ban members")
		}
		if err := p.CanBan(target); err != nil {
			return err
		}
		wasMember = p.IsMember(target)
		p.ApplyBan(target)
		if wasMember {
			p.ApplyLeave(target, s.effectiveTier(tx, target, tier), now)
			tx.RemoveMembership(target, partyID)
		}
		return nil
	})
	if err != nil {
		return s.fail(translateStoreErr(err))
	}

	if wasMember && s.metrics != nil {
		s.metrics.MemberLeaves.Inc()
	}
	s.emit(ctx, events.Event{
		Kind:    events.KindMemberBanned,
		PartyID: partyID,
		Subject: target,
		Actor:   caller,
	})
	s.logInfo(ctx, "member banned", "party_id", partyID, "target", target)
	return nil
}

// UnbanMember clears a ban flag so the identity may rejoin.
func (s *Service) UnbanMember(ctx context.Context, partyID id.PartyID, caller, target id.Identity) error {
	ctx, span := s.tracer.Start(ctx, "registry.UnbanMember")
	defer span.End()

	if err := s.gate(ctx); err != nil {
		return err
	}
	if !s.policy.SupportsBan {
		return s.fail(dErrors.New(dErrors.CodeBadRequest, "bans are not enabled"))
	}

	err := s.registry.Update(ctx, func(tx *store.Tx) error {
		p, err := tx.Party(partyID)
		if err != nil {
			return err
		}
		if !p.IsLeader(caller) {
			return dErrors.New(dErrors.CodeForbidden, "only the party leader may unban members")
		}
		if err := p.CanUnban(target); err != nil {
			return err
		}
		p.ApplyUnban(target)
		return nil
	})
	if err != nil {
		return s.fail(translateStoreErr(err))
	}

	s.emit(ctx, events.Event{
		Kind:    events.KindMemberUnbanned,
		PartyID: partyID,
		Subject: target,
		Actor:   caller,
	})
	s.logInfo(ctx, "member unbanned", "party_id", partyID, "target", target)
	return nil
}

// removeMembership shares the leave/remove bookkeeping. When leaderOnly is
// set the caller must be the party leader and the target an ordinary member.
func (s *Service) removeMembership(ctx context.Context, partyID id.PartyID, caller, target id.Identity, kind events.Kind, leaderOnly bool) error {
	tier, err := s.verifier.Tier(ctx, target)
	if err != nil {
		return s.fail(dErrors.Wrap(err, dErrors.CodeInternal, "failed to query verification tier"))
	}

	now := requestcontext.Now(ctx)
	err = s.registry.Update(ctx, func(tx *store.Tx) error {
		p, err := tx.Party(partyID)
		if err != nil {
			return err
		}
		if leaderOnly {
			if !p.IsLeader(caller) {
				return dErrors.New(dErrors.CodeForbidden, "only the party leader may remove members")
			}
			if err := p.CanRemove(target); err != nil {
				return err
			}
		} else {
			if err := p.CanLeave(target); err != nil {
				return err
			}
		}
		p.ApplyLeave(target, s.effectiveTier(tx, target, tier), now)
		tx.RemoveMembership(target, partyID)
		return nil
	})
	if err != nil {
		return s.fail(translateStoreErr(err))
	}

	if s.metrics != nil {
		s.metrics.MemberLeaves.Inc()
	}
	s.emit(ctx, events.Event{
		Kind:    kind,
		PartyID: partyID,
		Subject: target,
		Actor:   caller,
	})
	s.logInfo(ctx, "membership removed", "party_id", partyID, "target", target, "kind", string(kind))
	return nil
}
