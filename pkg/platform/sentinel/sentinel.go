package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into coded domain errors.
//
// These represent factual states about stored resources, not validation
// failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: uniqueness or single-membership constraint hit
// - ErrInvalidState: entity in wrong lifecycle state for the operation
// - ErrAlreadyUsed: one-shot resource (nullifier, claim period) consumed
// - ErrOutOfRange: index past the end of an ordered sequence
// - ErrUnavailable: backing sink temporarily unreachable
//
// For input validation use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrAlreadyUsed  = errors.New("already used")
	ErrOutOfRange   = errors.New("out of range")
	ErrUnavailable  = errors.New("unavailable")
)
