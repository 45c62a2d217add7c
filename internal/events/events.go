// Package events captures the registry's domain events. Services emit; a
// background worker fans events out to the configured sinks.
package events

import (
	"context"
	"time"

	id "partyreg/pkg/domain"
)

// Kind names a domain event.
type Kind string

const (
	KindPartyCreated     Kind = "party_created"
	KindPartyApproved    Kind = "party_approved"
	KindPartyDeactivated Kind = "party_deactivated"
	KindPartyReactivated Kind = "party_reactivated"
	KindPartyUpdated     Kind = "party_updated"
	KindMemberJoined     Kind = "member_joined"
	KindMemberLeft       Kind = "member_left"
	KindMemberRemoved    Kind = "member_removed"
	KindMemberBanned     Kind = "member_banned"
	KindMemberUnbanned   Kind = "member_unbanned"
	KindLeadershipChange Kind = "leadership_changed"
	KindPauseToggled     Kind = "pause_toggled"
	KindSnapshotPass     Kind = "snapshot_pass_completed"
	KindElectionStarted  Kind = "election_started"
	KindVoteCast         Kind = "vote_cast"
	KindVoteRemoved      Kind = "vote_removed"
	KindLetterCreated    Kind = "letter_created"
	KindLetterSigned     Kind = "letter_signed"
	KindRewardClaimed    Kind = "reward_claimed"
)

// Event is an immutable fact about a completed mutation. Subject is the
// identity the event is about; Actor is who triggered it (they differ for
// removals, bans and forced leadership changes).
type Event struct {
	ID        string            `json:"id"`
	Kind      Kind              `json:"kind"`
	PartyID   id.PartyID        `json:"party_id,omitempty"`
	Subject   id.Identity       `json:"subject,omitempty"`
	Actor     id.Identity       `json:"actor,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Detail    map[string]string `json:"detail,omitempty"`
}

// Publisher accepts events at the end of a committed mutation. Emit must be
// cheap; sinks that can block hang off the worker instead.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// Store is an append-only event sink.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByParty(ctx context.Context, partyID id.PartyID) ([]Event, error)
}
