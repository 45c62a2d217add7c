// Package store holds the in-memory snapshot series. The ledger is the
// authoritative copy; the optional postgres archive only mirrors appends.
package store

import (
	"context"
	"sync"
	"time"

	"partyreg/internal/snapshot/models"
	id "partyreg/pkg/domain"
	"partyreg/pkg/platform/sentinel"
)

// Ledger keeps an ordered snapshot series per party with keep-last-N
// retention. Retention 0 keeps everything.
type Ledger struct {
	mu           sync.RWMutex
	series       map[id.PartyID][]models.Snapshot
	retention    int
	sequence     uint64
	lastFullPass time.Time
}

func NewLedger(retention int) *Ledger {
	if retention < 0 {
		retention = 0
	}
	return &Ledger{
		series:    make(map[id.PartyID][]models.Snapshot),
		retention: retention,
	}
}

// NextSequence advances and returns the capture pass counter.
func (l *Ledger) NextSequence() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sequence++
	return l.sequence
}

// Append adds a snapshot to its party's series and prunes the oldest entries
// beyond the retention bound in the same operation.
func (l *Ledger) Append(_ context.Context, snap models.Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := append(l.series[snap.PartyID], snap)
	if l.retention > 0 && len(s) > l.retention {
		s = append(s[:0:0], s[len(s)-l.retention:]...)
	}
	l.series[snap.PartyID] = s
}

func (l *Ledger) SetRetention(retention int) {
	if retention < 0 {
		retention = 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.retention = retention
}

func (l *Ledger) Retention() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.retention
}

// Latest returns the newest snapshot for a party.
func (l *Ledger) Latest(_ context.Context, partyID id.PartyID) (models.Snapshot, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s := l.series[partyID]
	if len(s) == 0 {
		return models.Snapshot{}, sentinel.ErrNotFound
	}
	return s[len(s)-1], nil
}

// History returns a slice of the party's series beginning at startIndex.
// Count is clamped so the slice never runs past the end of the series.
func (l *Ledger) History(_ context.Context, partyID id.PartyID, startIndex, count int) ([]models.Snapshot, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s := l.series[partyID]
	if startIndex < 0 || startIndex >= len(s) {
		return nil, sentinel.ErrOutOfRange
	}
	if count < 0 {
		count = 0
	}
	end := startIndex + count
	if end > len(s) {
		end = len(s)
	}
	out := make([]models.Snapshot, end-startIndex)
	copy(out, s[startIndex:end])
	return out, nil
}

// SeriesLength reports the stored snapshot count for a party.
func (l *Ledger) SeriesLength(partyID id.PartyID) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.series[partyID])
}

// MarkFullPass records the completion time of a full capture pass.
func (l *Ledger) MarkFullPass(t time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastFullPass = t
}

func (l *Ledger) LastFullPass() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastFullPass
}

// TrackedSeries reports how many parties have at least one snapshot.
func (l *Ledger) TrackedSeries() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.series)
}

// Sequence reports the last issued capture pass number.
func (l *Ledger) Sequence() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sequence
}
