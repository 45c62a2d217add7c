// Package store keeps election vote state in memory. Elections are additive:
// starting a new one only bumps the current ID, old tallies stay queryable
// forever under their own election ID.
package store

import (
	"sync"

	id "partyreg/pkg/domain"
	"partyreg/pkg/platform/sentinel"
)

// Tally owns per-election vote counts and per-identity vote records.
//
// Invariant: for any election, the sum of party tallies equals the number of
// identities with a live vote. Every mutation moves both sides together
// under one lock.
type Tally struct {
	mu      sync.RWMutex
	current id.ElectionID
	// votes[electionID][partyID] -> count
	votes map[id.ElectionID]map[id.PartyID]uint64
	// userVotes[electionID][identity] -> party voted for
	userVotes map[id.ElectionID]map[id.Identity]id.PartyID
}

func NewTally() *Tally {
	return &Tally{
		current:   1,
		votes:     make(map[id.ElectionID]map[id.PartyID]uint64),
		userVotes: make(map[id.ElectionID]map[id.Identity]id.PartyID),
	}
}

// CurrentElection returns the live election ID.
func (t *Tally) CurrentElection() id.ElectionID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

// StartNewElection bumps the election counter and returns the new ID.
func (t *Tally) StartNewElection() id.ElectionID {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current++
	return t.current
}

// Vote records the caller's vote in the current election. A repeat vote for
// the same party fails with ErrConflict; a vote for a different party moves
// the previous tally in the same critical section.
func (t *Tally) Vote(identity id.Identity, partyID id.PartyID) (id.ElectionID, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	election := t.current
	users := t.userVotes[election]
	if users == nil {
		users = make(map[id.Identity]id.PartyID)
		t.userVotes[election] = users
	}
	tallies := t.votes[election]
	if tallies == nil {
		tallies = make(map[id.PartyID]uint64)
		t.votes[election] = tallies
	}

	previous := users[identity]
	if previous == partyID {
		return election, sentinel.ErrConflict
	}
	if previous != id.NoParty {
		tallies[previous]--
	}
	tallies[partyID]++
	users[identity] = partyID
	return election, nil
}

// RemoveVote clears the caller's live vote in the current election.
func (t *Tally) RemoveVote(identity id.Identity) (id.ElectionID, id.PartyID, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	election := t.current
	users := t.userVotes[election]
	previous := users[identity]
	if previous == id.NoParty {
		return election, id.NoParty, sentinel.ErrNotFound
	}
	t.votes[election][previous]--
	delete(users, identity)
	return election, previous, nil
}

// VoteCount reads one party's tally for an election.
func (t *Tally) VoteCount(election id.ElectionID, partyID id.PartyID) uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.votes[election][partyID]
}

// UserVote reads an identity's live vote for an election. NoParty means no
// vote.
func (t *Tally) UserVote(election id.ElectionID, identity id.Identity) id.PartyID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.userVotes[election][identity]
}

// Results returns a copy of all non-zero tallies for an election.
func (t *Tally) Results(election id.ElectionID) map[id.PartyID]uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[id.PartyID]uint64, len(t.votes[election]))
	for partyID, count := range t.votes[election] {
		if count > 0 {
			out[partyID] = count
		}
	}
	return out
}

// TotalVotes counts identities with a live vote in an election.
func (t *Tally) TotalVotes(election id.ElectionID) uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return uint64(len(t.userVotes[election]))
}
