// Package store holds the authoritative registry state. A single RWMutex
// serializes all mutations, which is the intended execution model: every
// operation is applied as an atomic unit and no caller ever observes a
// half-applied mutation.
package store

import (
	"context"
	"sort"
	"sync"

	"partyreg/internal/party/models"
	id "partyreg/pkg/domain"
	"partyreg/pkg/platform/sentinel"
)

// Registry owns every party plus the cross-party indexes (membership,
// leadership, global document-verification flags) and the lifecycle
// counters.
type Registry struct {
	mu sync.RWMutex

	parties map[id.PartyID]*models.Party
	nextID  id.PartyID

	// identity -> set of parties the identity belongs to. In the
	// single-membership policy the set never exceeds one entry.
	memberships map[id.Identity]map[id.PartyID]bool

	// identity -> set of parties the identity currently leads.
	leaderships map[id.Identity]map[id.PartyID]bool

	// identities that passed a personhood proof; global and permanent.
	documentVerified map[id.Identity]bool

	pendingCount int
	activeCount  int
}

func NewRegistry() *Registry {
	return &Registry{
		parties:          make(map[id.PartyID]*models.Party),
		nextID:           1,
		memberships:      make(map[id.Identity]map[id.PartyID]bool),
		leaderships:      make(map[id.Identity]map[id.PartyID]bool),
		documentVerified: make(map[id.Identity]bool),
	}
}

// Tx exposes registry state to Update/View callbacks. Callers must follow
// validate-then-mutate: perform every precondition check before the first
// index or aggregate write, because the store does not roll back.
type Tx struct {
	r *Registry
}

// Update runs fn with exclusive access to the registry.
func (r *Registry) Update(_ context.Context, fn func(tx *Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(&Tx{r: r})
}

// View runs fn with shared read access. fn must not mutate.
func (r *Registry) View(_ context.Context, fn func(tx *Tx) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return fn(&Tx{r: r})
}

// Party returns the live aggregate for mutation inside a callback.
func (tx *Tx) Party(partyID id.PartyID) (*models.Party, error) {
	p, ok := tx.r.parties[partyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return p, nil
}

// AllocateID hands out the next party ID. IDs start at 1 and are never
// reused; 0 stays the NoParty sentinel.
func (tx *Tx) AllocateID() id.PartyID {
	allocated := tx.r.nextID
	tx.r.nextID++
	return allocated
}

// Put registers a newly created party and bumps the pending counter.
func (tx *Tx) Put(p *models.Party) {
	tx.r.parties[p.ID] = p
	tx.r.pendingCount++
}

// TotalParties is the count of IDs ever allocated, which doubles as the
// exclusive upper bound of the snapshot scan range.
func (tx *Tx) TotalParties() uint64 {
	return uint64(tx.r.nextID - 1)
}

// RecountStatus adjusts the lifecycle counters for a status move.
func (tx *Tx) RecountStatus(from, to models.Status) {
	switch from {
	case models.StatusPending:
		tx.r.pendingCount--
	case models.StatusActive:
		tx.r.activeCount--
	}
	switch to {
	case models.StatusPending:
		tx.r.pendingCount++
	case models.StatusActive:
		tx.r.activeCount++
	}
}

func (tx *Tx) PendingCount() int { return tx.r.pendingCount }
func (tx *Tx) ActiveCount() int  { return tx.r.activeCount }

// --- Membership index ---

func (tx *Tx) AddMembership(identity id.Identity, partyID id.PartyID) {
	set, ok := tx.r.memberships[identity]
	if !ok {
		set = make(map[id.PartyID]bool)
		tx.r.memberships[identity] = set
	}
	set[partyID] = true
}

func (tx *Tx) RemoveMembership(identity id.Identity, partyID id.PartyID) {
	set := tx.r.memberships[identity]
	delete(set, partyID)
	if len(set) == 0 {
		delete(tx.r.memberships, identity)
	}
}

// Memberships returns the identity's parties in ascending ID order.
func (tx *Tx) Memberships(identity id.Identity) []id.PartyID {
	return sortedIDs(tx.r.memberships[identity])
}

// MembershipCount supports the single-membership policy check.
func (tx *Tx) MembershipCount(identity id.Identity) int {
	return len(tx.r.memberships[identity])
}

// --- Leadership index ---

func (tx *Tx) SetLeadership(identity id.Identity, partyID id.PartyID) {
	set, ok := tx.r.leaderships[identity]
	if !ok {
		set = make(map[id.PartyID]bool)
		tx.r.leaderships[identity] = set
	}
	set[partyID] = true
}

func (tx *Tx) UnsetLeadership(identity id.Identity, partyID id.PartyID) {
	set := tx.r.leaderships[identity]
	delete(set, partyID)
	if len(set) == 0 {
		delete(tx.r.leaderships, identity)
	}
}

// Leaderships returns the identity's led parties in ascending ID order.
func (tx *Tx) Leaderships(identity id.Identity) []id.PartyID {
	return sortedIDs(tx.r.leaderships[identity])
}

// LeadsOtherActiveParty reports whether the identity currently leads an
// Active party other than excluding. This is the global leadership
// invariant's enforcement point, consulted at approval and transfer time.
func (tx *Tx) LeadsOtherActiveParty(identity id.Identity, excluding id.PartyID) (id.PartyID, bool) {
	for partyID := range tx.r.leaderships[identity] {
		if partyID == excluding {
			continue
		}
		if p, ok := tx.r.parties[partyID]; ok && p.Status == models.StatusActive {
			return partyID, true
		}
	}
	return id.NoParty, false
}

// --- Global document-verification flags ---

func (tx *Tx) IsDocumentVerified(identity id.Identity) bool {
	return tx.r.documentVerified[identity]
}

func (tx *Tx) MarkDocumentVerified(identity id.Identity) {
	tx.r.documentVerified[identity] = true
}

// --- Read-side helpers outside the Tx callback API ---

// GetParty returns a deep copy so callers can serialize it without holding
// the registry lock.
func (r *Registry) GetParty(_ context.Context, partyID id.PartyID) (*models.Party, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.parties[partyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneParty(p), nil
}

// PartyCounts is the snapshot ledger's read model.
type PartyCounts struct {
	PartyID                     id.PartyID
	Status                      models.Status
	MemberCount                 int
	VerifiedMemberCount         int
	DocumentVerifiedMemberCount int
}

// CountsInRange returns membership counts for the half-open ID range
// [start, end) under one read lock, so a snapshot batch observes a
// consistent view.
func (r *Registry) CountsInRange(_ context.Context, start, end id.PartyID) []PartyCounts {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make([]PartyCounts, 0, int(end-start))
	for partyID := start; partyID < end; partyID++ {
		p, ok := r.parties[partyID]
		if !ok {
			continue
		}
		counts = append(counts, PartyCounts{
			PartyID:                     partyID,
			Status:                      p.Status,
			MemberCount:                 p.MemberCount,
			VerifiedMemberCount:         p.VerifiedMemberCount,
			DocumentVerifiedMemberCount: p.DocumentVerifiedMemberCount,
		})
	}
	return counts
}

// TotalParties without a transaction, for snapshot status reads.
func (r *Registry) TotalParties(_ context.Context) uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return uint64(r.nextID - 1)
}

func sortedIDs(set map[id.PartyID]bool) []id.PartyID {
	ids := make([]id.PartyID, 0, len(set))
	for partyID := range set {
		ids = append(ids, partyID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func cloneParty(p *models.Party) *models.Party {
	cp := *p
	cp.Members = make(map[id.Identity]bool, len(p.Members))
	for member := range p.Members {
		cp.Members[member] = true
	}
	cp.Banned = make(map[id.Identity]bool, len(p.Banned))
	for banned := range p.Banned {
		cp.Banned[banned] = true
	}
	cp.LeadershipHistory = append([]models.LeadershipChange(nil), p.LeadershipHistory...)
	return &cp
}
