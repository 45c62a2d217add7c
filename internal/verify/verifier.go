// Package verify holds the external verification ports: the identity tier
// verifier and the personhood oracle. The registry consumes both as live
// queries and never caches results.
package verify

import (
	"context"

	id "partyreg/pkg/domain"
)

// Tier is the verification level reported for an identity. Ordering matters:
// a higher tier implies every lower one.
type Tier int

const (
	TierNone Tier = iota
	TierOrb
	TierDocument
)

func (t Tier) String() string {
	switch t {
	case TierOrb:
		return "orb"
	case TierDocument:
		return "document"
	default:
		return "none"
	}
}

// Verified reports whether the tier grants participation rights (vote,
// reward claims).
func (t Tier) Verified() bool {
	return t > TierNone
}

// Verifier reports the verification tier for an identity. Implementations
// must be side-effect-free; callers re-query on every operation that needs
// tier information.
type Verifier interface {
	Tier(ctx context.Context, identity id.Identity) (Tier, error)
}
