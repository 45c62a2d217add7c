package models

// Policy collapses the registry's deployment variants into flags. The
// historical deployments differed only along these three axes, so one
// parameterized registry replaces the near-duplicate versions.
type Policy struct {
	// SingleMembership restricts each identity to at most one party.
	SingleMembership bool
	// SupportsBan enables the per-party ban list and its operations.
	SupportsBan bool
	// DocumentTier enables proof-of-personhood joins and the
	// document-verified counters.
	DocumentTier bool
}

// DefaultPolicy matches the primary production deployment.
func DefaultPolicy() Policy {
	return Policy{SingleMembership: true, SupportsBan: true, DocumentTier: true}
}
