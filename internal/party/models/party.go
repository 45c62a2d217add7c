package models

import (
	"strings"
	"time"

	"partyreg/internal/verify"
	id "partyreg/pkg/domain"
	dErrors "partyreg/pkg/domain-errors"
)

// Field length limits. Short names are display handles and kept tight; the
// remaining text fields share one generous bound.
const (
	MaxShortNameLen = 16
	MaxFieldLen     = 256
)

// LeadershipChange is an append-only history entry. Never mutated once
// recorded.
type LeadershipChange struct {
	PreviousLeader id.Identity `json:"previous_leader"`
	NewLeader      id.Identity `json:"new_leader"`
	Timestamp      time.Time   `json:"timestamp"`
	Forced         bool        `json:"forced"`
}

// Stats are the per-party activity counters.
type Stats struct {
	LeadershipChanges uint64    `json:"leadership_changes"`
	MemberJoins       uint64    `json:"member_joins"`
	MemberLeaves      uint64    `json:"member_leaves"`
	LastActivity      time.Time `json:"last_activity"`
}

// Party is the aggregate root for a membership group.
//
// Invariants:
//   - All text fields are non-empty and within their length bounds
//   - Founder is immutable; CurrentLeader is always a current member
//   - MemberCount >= 1 (the founder seeds membership and the leader can
//     never be removed, so the count cannot reach zero)
//   - VerifiedMemberCount <= MemberCount and
//     DocumentVerifiedMemberCount <= MemberCount after every operation
//   - LeadershipHistory is append-only
//
// The cross-party invariant (an identity leads at most one Active party)
// cannot live here; the store's global leadership index enforces it at
// approval and transfer time.
type Party struct {
	ID          id.PartyID  `json:"id"`
	Name        string      `json:"name"`
	ShortName   string      `json:"short_name"`
	Description string      `json:"description"`
	Link        string      `json:"link"`
	Founder     id.Identity `json:"founder"`

	CurrentLeader id.Identity `json:"current_leader"`
	Status        Status      `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`

	MemberCount                 int `json:"member_count"`
	VerifiedMemberCount         int `json:"verified_member_count"`
	DocumentVerifiedMemberCount int `json:"document_verified_member_count"`

	Members map[id.Identity]bool `json:"-"`
	Banned  map[id.Identity]bool `json:"-"`

	Stats             Stats              `json:"stats"`
	LeadershipHistory []LeadershipChange `json:"-"`
}

// NewParty allocates a Pending party with the founder as sole member and
// leader. The founder's verification tier seeds the tier counters.
func NewParty(partyID id.PartyID, name, shortName, description, link string, founder id.Identity, founderTier verify.Tier, now time.Time) (*Party, error) {
	name = strings.TrimSpace(name)
	shortName = strings.TrimSpace(shortName)
	description = strings.TrimSpace(description)
	link = strings.TrimSpace(link)

	if err := ValidateField("name", name, MaxFieldLen); err != nil {
		return nil, err
	}
	if err := ValidateField("short_name", shortName, MaxShortNameLen); err != nil {
		return nil, err
	}
	if err := ValidateField("description", description, MaxFieldLen); err != nil {
		return nil, err
	}
	if err := ValidateField("link", link, MaxFieldLen); err != nil {
		return nil, err
	}
	if founder.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "founder identity is required")
	}

	p := &Party{
		ID:            partyID,
		Name:          name,
		ShortName:     shortName,
		Description:   description,
		Link:          link,
		Founder:       founder,
		CurrentLeader: founder,
		Status:        StatusPending,
		CreatedAt:     now,
		MemberCount:   1,
		Members:       map[id.Identity]bool{founder: true},
		Banned:        make(map[id.Identity]bool),
		Stats:         Stats{LastActivity: now},
	}
	p.applyTier(founderTier, +1)
	return p, nil
}

// ValidateField enforces the shared non-empty, bounded-length rule.
func ValidateField(field, value string, max int) error {
	if value == "" {
		return dErrors.New(dErrors.CodeValidation, field+" cannot be empty")
	}
	if len(value) > max {
		return dErrors.New(dErrors.CodeValidation, field+" exceeds maximum length")
	}
	return nil
}

func (p *Party) IsMember(identity id.Identity) bool {
	return p.Members[identity]
}

func (p *Party) IsBanned(identity id.Identity) bool {
	return p.Banned[identity]
}

func (p *Party) IsLeader(identity id.Identity) bool {
	return p.CurrentLeader == identity
}

// --- Lifecycle ---

func (p *Party) CanApprove() error {
	if p.Status != StatusPending {
		return dErrors.New(dErrors.CodeInvariantViolation, "party is not pending approval")
	}
	return nil
}

func (p *Party) ApplyApprove(now time.Time) {
	p.Status = StatusActive
	p.Stats.LastActivity = now
}

func (p *Party) CanDeactivate() error {
	if p.Status == StatusInactive {
		return dErrors.New(dErrors.CodeInvariantViolation, "party is already inactive")
	}
	return nil
}

func (p *Party) ApplyDeactivate(now time.Time) {
	p.Status = StatusInactive
	p.Stats.LastActivity = now
}

func (p *Party) CanReactivate() error {
	if p.Status != StatusInactive {
		return dErrors.New(dErrors.CodeInvariantViolation, "party is not inactive")
	}
	return nil
}

// ApplyReactivate returns the party to Pending: reactivation always requires
// a fresh approval.
func (p *Party) ApplyReactivate(now time.Time) {
	p.Status = StatusPending
	p.Stats.LastActivity = now
}

// --- Membership ---

func (p *Party) CanJoin(identity id.Identity) error {
	if p.Members[identity] {
		return dErrors.New(dErrors.CodeConflict, "identity is already a member")
	}
	if p.Banned[identity] {
		return dErrors.New(dErrors.CodeForbidden, "identity is banned from this party")
	}
	return nil
}

func (p *Party) ApplyJoin(identity id.Identity, tier verify.Tier, now time.Time) {
	p.Members[identity] = true
	p.MemberCount++
	p.applyTier(tier, +1)
	p.Stats.MemberJoins++
	p.Stats.LastActivity = now
}

// CanLeave covers voluntary exit. The leader must transfer leadership first;
// this is what keeps CurrentLeader ∈ Members an invariant.
func (p *Party) CanLeave(identity id.Identity) error {
	if !p.Members[identity] {
		return dErrors.New(dErrors.CodeNotFound, "identity is not a member")
	}
	if p.CurrentLeader == identity {
		return dErrors.New(dErrors.CodeConflict, "leader cannot leave; transfer leadership first")
	}
	return nil
}

// ApplyLeave removes membership. The caller must read the member's tier
// before calling so the tier counters shrink by what the member contributed.
func (p *Party) ApplyLeave(identity id.Identity, tier verify.Tier, now time.Time) {
	delete(p.Members, identity)
	p.MemberCount--
	p.applyTier(tier, -1)
	p.Stats.MemberLeaves++
	p.Stats.LastActivity = now
}

// CanRemove covers leader-initiated removal of another member.
func (p *Party) CanRemove(target id.Identity) error {
	if !p.Members[target] {
		return dErrors.New(dErrors.CodeNotFound, "target is not a member")
	}
	if p.CurrentLeader == target {
		return dErrors.New(dErrors.CodeConflict, "cannot remove the current leader")
	}
	return nil
}

// CanBan rejects banning the leader. The target need not be a member: a ban
// flag persists independently of membership.
func (p *Party) CanBan(target id.Identity) error {
	if p.CurrentLeader == target {
		return dErrors.New(dErrors.CodeConflict, "cannot ban the current leader")
	}
	if p.Banned[target] {
		return dErrors.New(dErrors.CodeConflict, "target is already banned")
	}
	return nil
}

func (p *Party) ApplyBan(target id.Identity) {
	p.Banned[target] = true
}

func (p *Party) CanUnban(target id.Identity) error {
	if !p.Banned[target] {
		return dErrors.New(dErrors.CodeNotFound, "target is not banned")
	}
	return nil
}

func (p *Party) ApplyUnban(target id.Identity) {
	delete(p.Banned, target)
}

// --- Leadership ---

// CanTransferLeadership validates the party-local rules; the store checks
// the global one-active-leadership rule.
func (p *Party) CanTransferLeadership(newLeader id.Identity) error {
	if newLeader.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "new leader identity is required")
	}
	if !p.Members[newLeader] {
		return dErrors.New(dErrors.CodeNotFound, "new leader is not a member")
	}
	if p.CurrentLeader == newLeader {
		return dErrors.New(dErrors.CodeConflict, "identity is already the leader")
	}
	return nil
}

func (p *Party) ApplyLeadershipChange(newLeader id.Identity, forced bool, now time.Time) {
	p.LeadershipHistory = append(p.LeadershipHistory, LeadershipChange{
		PreviousLeader: p.CurrentLeader,
		NewLeader:      newLeader,
		Timestamp:      now,
		Forced:         forced,
	})
	p.CurrentLeader = newLeader
	p.Stats.LeadershipChanges++
	p.Stats.LastActivity = now
}

// --- Metadata updates ---

func (p *Party) ApplyUpdateName(name string, now time.Time) error {
	name = strings.TrimSpace(name)
	if err := ValidateField("name", name, MaxFieldLen); err != nil {
		return err
	}
	p.Name = name
	p.Stats.LastActivity = now
	return nil
}

func (p *Party) ApplyUpdateShortName(shortName string, now time.Time) error {
	shortName = strings.TrimSpace(shortName)
	if err := ValidateField("short_name", shortName, MaxShortNameLen); err != nil {
		return err
	}
	p.ShortName = shortName
	p.Stats.LastActivity = now
	return nil
}

func (p *Party) ApplyUpdateDescription(description string, now time.Time) error {
	description = strings.TrimSpace(description)
	if err := ValidateField("description", description, MaxFieldLen); err != nil {
		return err
	}
	p.Description = description
	p.Stats.LastActivity = now
	return nil
}

func (p *Party) ApplyUpdateLink(link string, now time.Time) error {
	link = strings.TrimSpace(link)
	if err := ValidateField("link", link, MaxFieldLen); err != nil {
		return err
	}
	p.Link = link
	p.Stats.LastActivity = now
	return nil
}

func (p *Party) applyTier(tier verify.Tier, delta int) {
	if tier >= verify.TierOrb {
		p.VerifiedMemberCount += delta
	}
	if tier >= verify.TierDocument {
		p.DocumentVerifiedMemberCount += delta
	}
}

// AdjustTierCounts is the exported form used when a member's global
// document-verified flag flips mid-membership.
func (p *Party) AdjustTierCounts(tier verify.Tier, delta int) {
	p.applyTier(tier, delta)
}
