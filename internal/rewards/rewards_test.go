package rewards

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"partyreg/internal/ledger"
	"partyreg/internal/verify"
	dErrors "partyreg/pkg/domain-errors"
	"partyreg/pkg/requestcontext"
)

func newTestService(treasury uint64) (*Service, *ledger.InMemory, *verify.StaticVerifier) {
	l := ledger.NewInMemory()
	l.Mint(ledger.Treasury, treasury)
	verifier := verify.NewStaticVerifier()
	return NewService(l, verifier, WithPayout(time.Hour, 10)), l, verifier
}

func at(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

func TestClaimPaysVerifiedIdentity(t *testing.T) {
	svc, l, verifier := newTestService(100)
	verifier.Set("human", verify.TierOrb)
	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, svc.Claim(at(now), "human"))

	balance, err := l.Balance(context.Background(), "human")
	require.NoError(t, err)
	require.Equal(t, uint64(10), balance)
	require.True(t, svc.Claimed(context.Background(), "human", now))
}

func TestClaimRequiresVerification(t *testing.T) {
	svc, _, _ := newTestService(100)
	err := svc.Claim(at(time.Now()), "stranger")
	require.Error(t, err)
	require.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestOneClaimPerPeriod(t *testing.T) {
	svc, _, verifier := newTestService(100)
	verifier.Set("human", verify.TierOrb)
	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, svc.Claim(at(now), "human"))

	err := svc.Claim(at(now.Add(10*time.Minute)), "human")
	require.Error(t, err)
	require.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	// A new period opens a new claim.
	require.NoError(t, svc.Claim(at(now.Add(time.Hour)), "human"))
}

func TestExhaustedPoolReleasesClaim(t *testing.T) {
	svc, l, verifier := newTestService(5)
	verifier.Set("human", verify.TierOrb)
	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

	err := svc.Claim(at(now), "human")
	require.Error(t, err)
	require.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	require.False(t, svc.Claimed(context.Background(), "human", now))

	// Refilling the pool lets the same period's claim through.
	l.Mint(ledger.Treasury, 100)
	require.NoError(t, svc.Claim(at(now), "human"))
}
