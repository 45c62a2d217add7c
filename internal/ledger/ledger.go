// Package ledger defines the token-movement port. The registry core never
// moves value; only the reward payouts call through this interface, so the
// real custody backend stays out of scope.
package ledger

import (
	"context"
	"errors"
	"sync"

	id "partyreg/pkg/domain"
)

// ErrInsufficientBalance is returned when the source account cannot cover a
// transfer.
var ErrInsufficientBalance = errors.New("insufficient balance")

// Ledger moves tokens between accounts. Transfer draws from the service's
// own treasury account; TransferFrom moves between two named accounts.
type Ledger interface {
	Transfer(ctx context.Context, to id.Identity, amount uint64) error
	TransferFrom(ctx context.Context, from, to id.Identity, amount uint64) error
	Balance(ctx context.Context, account id.Identity) (uint64, error)
}

// Treasury is the implicit source account for Transfer.
const Treasury = id.Identity("treasury")

// InMemory is the test and single-node adapter.
type InMemory struct {
	mu       sync.Mutex
	balances map[id.Identity]uint64
}

func NewInMemory() *InMemory {
	return &InMemory{balances: make(map[id.Identity]uint64)}
}

// Mint credits an account out of thin air. Test setup only.
func (l *InMemory) Mint(account id.Identity, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] += amount
}

func (l *InMemory) Transfer(ctx context.Context, to id.Identity, amount uint64) error {
	return l.TransferFrom(ctx, Treasury, to, amount)
}

func (l *InMemory) TransferFrom(_ context.Context, from, to id.Identity, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[from] < amount {
		return ErrInsufficientBalance
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}

func (l *InMemory) Balance(_ context.Context, account id.Identity) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account], nil
}
