package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"partyreg/internal/party/models"
	partyservice "partyreg/internal/party/service"
	"partyreg/internal/party/store"
	snapstore "partyreg/internal/snapshot/store"
	"partyreg/internal/verify"
	id "partyreg/pkg/domain"
	dErrors "partyreg/pkg/domain-errors"
	"partyreg/pkg/requestcontext"
)

type SnapshotServiceSuite struct {
	suite.Suite
	registry *store.Registry
	parties  *partyservice.Service
	ledger   *snapstore.Ledger
	svc      *Service
	ctx      context.Context
	adminCtx context.Context
}

func (s *SnapshotServiceSuite) SetupTest() {
	s.registry = store.NewRegistry()
	s.parties = partyservice.New(s.registry, verify.NewStaticVerifier(), models.DefaultPolicy())
	s.ledger = snapstore.NewLedger(0)
	s.svc = New(s.registry, s.ledger)
	base := requestcontext.WithTime(context.Background(), time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC))
	s.ctx = base
	s.adminCtx = requestcontext.WithAdmin(base)
}

func TestSnapshotServiceSuite(t *testing.T) {
	suite.Run(t, new(SnapshotServiceSuite))
}

// seedParties creates n parties and approves those whose index is listed.
func (s *SnapshotServiceSuite) seedParties(n int, approved ...int) {
	approve := make(map[int]bool, len(approved))
	for _, i := range approved {
		approve[i] = true
	}
	for i := 1; i <= n; i++ {
		founder := id.Identity(fmt.Sprintf("founder-%d", i))
		p, err := s.parties.CreateParty(s.ctx, partyservice.CreatePartyRequest{
			Name:        fmt.Sprintf("Party %d", i),
			ShortName:   fmt.Sprintf("P%d", i),
			Description: "seeded",
			Link:        "https://example.org",
			Founder:     founder,
		})
		s.Require().NoError(err)
		if approve[i] {
			_, err := s.parties.ApproveParty(s.adminCtx, p.ID)
			s.Require().NoError(err)
		}
	}
}

func (s *SnapshotServiceSuite) TestCaptureValidation() {
	s.seedParties(2, 1)

	_, _, err := s.svc.CaptureBatch(s.ctx, 1, 0)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, _, err = s.svc.CaptureBatch(s.ctx, 0, 5)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, _, err = s.svc.CaptureBatch(s.ctx, 3, 5)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *SnapshotServiceSuite) TestCaptureSkipsInactiveAndPending() {
	s.seedParties(3, 2)

	next, processed, err := s.svc.CaptureBatch(s.ctx, 1, 10)
	s.Require().NoError(err)
	s.Equal(id.NoParty, next)
	s.Equal(1, processed)

	_, err = s.svc.LatestSnapshot(s.ctx, 1)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	snap, err := s.svc.LatestSnapshot(s.ctx, 2)
	s.Require().NoError(err)
	s.Equal(1, snap.MemberCount)
}

func (s *SnapshotServiceSuite) TestFullPassMarkedOnlyOnCompletion() {
	s.seedParties(5, 1, 2, 3, 4, 5)

	next, processed, err := s.svc.CaptureBatch(s.ctx, 1, 2)
	s.Require().NoError(err)
	s.Equal(id.PartyID(3), next)
	s.Equal(2, processed)
	s.True(s.svc.SnapshotStatus(s.ctx).LastFullPass.IsZero())

	next, processed, err = s.svc.CaptureBatch(s.ctx, next, 2)
	s.Require().NoError(err)
	s.Equal(id.PartyID(5), next)
	s.Equal(2, processed)
	s.True(s.svc.SnapshotStatus(s.ctx).LastFullPass.IsZero())

	next, processed, err = s.svc.CaptureBatch(s.ctx, next, 2)
	s.Require().NoError(err)
	s.Equal(id.NoParty, next)
	s.Equal(1, processed)
	s.False(s.svc.SnapshotStatus(s.ctx).LastFullPass.IsZero())
}

// Resuming with the returned cursor until 0 must visit every active party
// exactly once and match a single whole-range call.
func (s *SnapshotServiceSuite) TestResumedPassEqualsSingleCall() {
	s.seedParties(7, 1, 3, 4, 6, 7)

	totalProcessed := 0
	cursor := id.PartyID(1)
	for {
		next, processed, err := s.svc.CaptureBatch(s.ctx, cursor, 3)
		s.Require().NoError(err)
		totalProcessed += processed
		if next == id.NoParty {
			break
		}
		s.Require().Greater(next, cursor)
		cursor = next
	}
	s.Equal(5, totalProcessed)
	for _, partyID := range []id.PartyID{1, 3, 4, 6, 7} {
		s.Equal(1, s.ledger.SeriesLength(partyID))
	}
	for _, partyID := range []id.PartyID{2, 5} {
		s.Equal(0, s.ledger.SeriesLength(partyID))
	}

	// A single whole-range call against a fresh ledger yields the same series
	// lengths.
	fresh := snapstore.NewLedger(0)
	single := New(s.registry, fresh)
	next, processed, err := single.CaptureBatch(s.ctx, 1, 100)
	s.Require().NoError(err)
	s.Equal(id.NoParty, next)
	s.Equal(totalProcessed, processed)
	for _, partyID := range []id.PartyID{1, 3, 4, 6, 7} {
		s.Equal(1, fresh.SeriesLength(partyID))
	}
}

func (s *SnapshotServiceSuite) TestRetentionBoundsSeries() {
	s.seedParties(1, 1)
	s.Require().NoError(s.svc.SetRetention(s.adminCtx, 3))

	for i := 0; i < 6; i++ {
		_, _, err := s.svc.CaptureBatch(s.ctx, 1, 10)
		s.Require().NoError(err)
	}
	s.Equal(3, s.ledger.SeriesLength(1))

	history, err := s.svc.SnapshotHistory(s.ctx, 1, 0, 10)
	s.Require().NoError(err)
	s.Require().Len(history, 3)
	// Newest three sequences survive.
	s.Equal(history[0].Sequence+2, history[2].Sequence)
}

func (s *SnapshotServiceSuite) TestSetRetentionRequiresAdmin() {
	err := s.svc.SetRetention(s.ctx, 5)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *SnapshotServiceSuite) TestEmptyRegistryCompletesTrivially() {
	next, processed, err := s.svc.CaptureBatch(s.ctx, 1, 10)
	s.Require().NoError(err)
	s.Equal(id.NoParty, next)
	s.Equal(0, processed)
	s.False(s.svc.SnapshotStatus(s.ctx).LastFullPass.IsZero())
}

func (s *SnapshotServiceSuite) TestHistoryPagination() {
	s.seedParties(1, 1)
	for i := 0; i < 4; i++ {
		_, _, err := s.svc.CaptureBatch(s.ctx, 1, 10)
		s.Require().NoError(err)
	}

	page, err := s.svc.SnapshotHistory(s.ctx, 1, 1, 2)
	s.Require().NoError(err)
	s.Require().Len(page, 2)

	_, err = s.svc.SnapshotHistory(s.ctx, 1, 4, 1)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
