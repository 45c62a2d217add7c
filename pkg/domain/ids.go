package domain

import (
	"strconv"
	"strings"

	dErrors "partyreg/pkg/domain-errors"
)

// Identity is the caller-visible principal key: a host-agnostic account
// string (for chain-backed deployments, a hex address). The empty string is
// the zero identity and is rejected at every trust boundary.
type Identity string

// ZeroIdentity is the absent-principal sentinel.
const ZeroIdentity Identity = ""

func (i Identity) IsZero() bool {
	return i == ZeroIdentity
}

func (i Identity) String() string {
	return string(i)
}

// ParseIdentity validates a principal string at a trust boundary.
func ParseIdentity(s string) (Identity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ZeroIdentity, dErrors.New(dErrors.CodeValidation, "identity is required")
	}
	return Identity(s), nil
}

// PartyID identifies a party. IDs are allocated from a monotonic counter
// starting at 1; 0 is the NoParty sentinel, which lets single-membership
// indexes express "belongs to no party" without an extra presence map.
type PartyID uint64

// NoParty is the "no party" sentinel.
const NoParty PartyID = 0

func (p PartyID) IsNone() bool {
	return p == NoParty
}

func (p PartyID) String() string {
	return strconv.FormatUint(uint64(p), 10)
}

// ParsePartyID parses a positive party ID from a route parameter.
func ParsePartyID(s string) (PartyID, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || n == 0 {
		return NoParty, dErrors.New(dErrors.CodeValidation, "party id must be a positive integer")
	}
	return PartyID(n), nil
}

// ElectionID identifies a voting cycle. Cycles are numbered from 1; election
// 0 never exists.
type ElectionID uint64

func (e ElectionID) String() string {
	return strconv.FormatUint(uint64(e), 10)
}

// ParseElectionID parses a positive election ID from a route parameter.
func ParseElectionID(s string) (ElectionID, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || n == 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "election id must be a positive integer")
	}
	return ElectionID(n), nil
}

// LetterID identifies an open letter. Numbered from 1.
type LetterID uint64

func (l LetterID) String() string {
	return strconv.FormatUint(uint64(l), 10)
}

// ParseLetterID parses a positive letter ID from a route parameter.
func ParseLetterID(s string) (LetterID, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || n == 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "letter id must be a positive integer")
	}
	return LetterID(n), nil
}
