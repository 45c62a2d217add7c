package verify

import (
	"context"
	"sync"

	id "partyreg/pkg/domain"
)

// StaticVerifier is an in-memory Verifier for development and tests. Unknown
// identities report TierNone.
type StaticVerifier struct {
	mu    sync.RWMutex
	tiers map[id.Identity]Tier
}

func NewStaticVerifier() *StaticVerifier {
	return &StaticVerifier{tiers: make(map[id.Identity]Tier)}
}

func (v *StaticVerifier) Set(identity id.Identity, tier Tier) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tiers[identity] = tier
}

func (v *StaticVerifier) Tier(_ context.Context, identity id.Identity) (Tier, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.tiers[identity], nil
}
