// Package models defines the snapshot ledger's records.
package models

import (
	"time"

	id "partyreg/pkg/domain"
)

// Snapshot is one immutable membership-count observation for a party.
// Sequence is the capture pass number that produced it; entries within a
// party's series are strictly ordered by (Sequence, Timestamp).
type Snapshot struct {
	PartyID                     id.PartyID `json:"party_id"`
	Sequence                    uint64     `json:"sequence"`
	Timestamp                   time.Time  `json:"timestamp"`
	MemberCount                 int        `json:"member_count"`
	VerifiedMemberCount         int        `json:"verified_member_count"`
	DocumentVerifiedMemberCount int        `json:"document_verified_member_count"`
}

// Status reports the ledger's global capture state.
type Status struct {
	LastFullPass  time.Time `json:"last_full_pass"`
	TotalParties  uint64    `json:"total_parties"`
	Retention     int       `json:"retention"`
	NextSequence  uint64    `json:"next_sequence"`
	TrackedSeries int       `json:"tracked_series"`
}
