package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"partyreg/internal/party/models"
	"partyreg/internal/verify"
	id "partyreg/pkg/domain"
	"partyreg/pkg/platform/sentinel"
)

type RegistryStoreSuite struct {
	suite.Suite
	store *Registry
	ctx   context.Context
}

func (s *RegistryStoreSuite) SetupTest() {
	s.store = NewRegistry()
	s.ctx = context.Background()
}

func TestRegistryStoreSuite(t *testing.T) {
	suite.Run(t, new(RegistryStoreSuite))
}

func (s *RegistryStoreSuite) createParty(founder id.Identity) id.PartyID {
	var partyID id.PartyID
	err := s.store.Update(s.ctx, func(tx *Tx) error {
		partyID = tx.AllocateID()
		p, err := models.NewParty(partyID, "Party "+partyID.String(), "P"+partyID.String(), "desc", "https://example.org", founder, verify.TierNone, time.Now())
		if err != nil {
			return err
		}
		tx.Put(p)
		tx.AddMembership(founder, partyID)
		tx.SetLeadership(founder, partyID)
		return nil
	})
	s.Require().NoError(err)
	return partyID
}

func (s *RegistryStoreSuite) TestIDAllocation() {
	s.Run("IDs start at 1 and increase monotonically", func() {
		first := s.createParty("alice")
		second := s.createParty("bob")
		s.Equal(id.PartyID(1), first)
		s.Equal(id.PartyID(2), second)
		s.Equal(uint64(2), s.store.TotalParties(s.ctx))
	})
}

func (s *RegistryStoreSuite) TestPartyLookup() {
	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.GetParty(s.ctx, 99)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returns a copy detached from registry state", func() {
		partyID := s.createParty("alice")
		p, err := s.store.GetParty(s.ctx, partyID)
		s.Require().NoError(err)

		p.Members["intruder"] = true

		fresh, err := s.store.GetParty(s.ctx, partyID)
		s.Require().NoError(err)
		s.False(fresh.IsMember("intruder"))
	})
}

func (s *RegistryStoreSuite) TestLeadershipIndex() {
	s.Run("detects a conflicting active-party leadership", func() {
		partyID := s.createParty("alice")
		otherID := s.createParty("alice")

		err := s.store.Update(s.ctx, func(tx *Tx) error {
			p, err := tx.Party(partyID)
			if err != nil {
				return err
			}
			tx.RecountStatus(p.Status, models.StatusActive)
			p.ApplyApprove(time.Now())

			_, leads := tx.LeadsOtherActiveParty("alice", otherID)
			s.True(leads, "alice leads party 1 which is now active")

			_, leads = tx.LeadsOtherActiveParty("alice", partyID)
			s.False(leads, "excluding the active party itself")
			return nil
		})
		s.Require().NoError(err)
	})
}

func (s *RegistryStoreSuite) TestStatusCounters() {
	partyID := s.createParty("alice")
	s.createParty("bob")

	err := s.store.View(s.ctx, func(tx *Tx) error {
		s.Equal(2, tx.PendingCount())
		s.Equal(0, tx.ActiveCount())
		return nil
	})
	s.Require().NoError(err)

	err = s.store.Update(s.ctx, func(tx *Tx) error {
		p, err := tx.Party(partyID)
		if err != nil {
			return err
		}
		tx.RecountStatus(p.Status, models.StatusActive)
		p.ApplyApprove(time.Now())
		return nil
	})
	s.Require().NoError(err)

	err = s.store.View(s.ctx, func(tx *Tx) error {
		s.Equal(1, tx.PendingCount())
		s.Equal(1, tx.ActiveCount())
		return nil
	})
	s.Require().NoError(err)
}

func (s *RegistryStoreSuite) TestMembershipIndex() {
	partyID := s.createParty("alice")

	err := s.store.Update(s.ctx, func(tx *Tx) error {
		tx.AddMembership("carol", partyID)
		s.Equal([]id.PartyID{partyID}, tx.Memberships("carol"))
		s.Equal(1, tx.MembershipCount("carol"))

		tx.RemoveMembership("carol", partyID)
		s.Empty(tx.Memberships("carol"))
		s.Equal(0, tx.MembershipCount("carol"))
		return nil
	})
	s.Require().NoError(err)
}

func (s *RegistryStoreSuite) TestCountsInRangeSkipsGaps() {
	s.createParty("alice")
	s.createParty("bob")

	counts := s.store.CountsInRange(s.ctx, 1, 3)
	s.Require().Len(counts, 2)
	s.Equal(id.PartyID(1), counts[0].PartyID)
	s.Equal(id.PartyID(2), counts[1].PartyID)
	s.Equal(1, counts[0].MemberCount)
}
