// Package letters implements the open-letter signature log: anyone
// authenticated can publish a letter, every identity can co-sign a letter at
// most once. Signatures are append-only.
package letters

import (
	"strings"
	"sync"
	"time"

	id "partyreg/pkg/domain"
	dErrors "partyreg/pkg/domain-errors"
	"partyreg/pkg/platform/sentinel"
)

const (
	MaxTitleLen   = 256
	MaxContentLen = 8192
)

// Letter is an open letter with its co-signature log.
type Letter struct {
	ID        id.LetterID `json:"id"`
	Title     string      `json:"title"`
	Content   string      `json:"content"`
	Author    id.Identity `json:"author"`
	CreatedAt time.Time   `json:"created_at"`

	SignatureCount int                  `json:"signature_count"`
	signatures     map[id.Identity]bool
	signedOrder    []id.Identity
}

// Signed reports whether an identity has co-signed.
func (l *Letter) Signed(identity id.Identity) bool {
	return l.signatures[identity]
}

func newLetter(letterID id.LetterID, title, content string, author id.Identity, now time.Time) (*Letter, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "title cannot be empty")
	}
	if len(title) > MaxTitleLen {
		return nil, dErrors.New(dErrors.CodeValidation, "title exceeds maximum length")
	}
	if content == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "content cannot be empty")
	}
	if len(content) > MaxContentLen {
		return nil, dErrors.New(dErrors.CodeValidation, "content exceeds maximum length")
	}
	if author.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "author identity is required")
	}
	return &Letter{
		ID:             letterID,
		Title:          title,
		Content:        content,
		Author:         author,
		CreatedAt:      now,
		SignatureCount: 1,
		signatures:     map[id.Identity]bool{author: true},
		signedOrder:    []id.Identity{author},
	}, nil
}

// Store keeps letters in memory. The author's signature is implicit at
// creation, mirroring the signature log this replaces.
type Store struct {
	mu      sync.RWMutex
	letters map[id.LetterID]*Letter
	nextID  id.LetterID
}

func NewStore() *Store {
	return &Store{
		letters: make(map[id.LetterID]*Letter),
		nextID:  1,
	}
}

// Create appends a new letter and returns a detached copy.
func (s *Store) Create(title, content string, author id.Identity, now time.Time) (*Letter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	letter, err := newLetter(s.nextID, title, content, author, now)
	if err != nil {
		return nil, err
	}
	s.letters[letter.ID] = letter
	s.nextID++
	return cloneLetter(letter), nil
}

// Sign records a co-signature. A repeat signature fails with ErrConflict.
func (s *Store) Sign(letterID id.LetterID, signer id.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	letter, ok := s.letters[letterID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if letter.signatures[signer] {
		return sentinel.ErrConflict
	}
	letter.signatures[signer] = true
	letter.signedOrder = append(letter.signedOrder, signer)
	letter.SignatureCount++
	return nil
}

// Get returns a detached copy of a letter.
func (s *Store) Get(letterID id.LetterID) (*Letter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	letter, ok := s.letters[letterID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneLetter(letter), nil
}

// Signatures returns a page of co-signers in signing order.
func (s *Store) Signatures(letterID id.LetterID, startIndex, count int) ([]id.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	letter, ok := s.letters[letterID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if startIndex < 0 || startIndex >= len(letter.signedOrder) {
		return nil, sentinel.ErrOutOfRange
	}
	end := startIndex + count
	if count < 0 {
		end = startIndex
	}
	if end > len(letter.signedOrder) {
		end = len(letter.signedOrder)
	}
	out := make([]id.Identity, end-startIndex)
	copy(out, letter.signedOrder[startIndex:end])
	return out, nil
}

func cloneLetter(l *Letter) *Letter {
	cp := *l
	cp.signatures = make(map[id.Identity]bool, len(l.signatures))
	for signer := range l.signatures {
		cp.signatures[signer] = true
	}
	cp.signedOrder = append([]id.Identity(nil), l.signedOrder...)
	return &cp
}
