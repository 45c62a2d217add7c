package letters

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"partyreg/internal/events"
	id "partyreg/pkg/domain"
	dErrors "partyreg/pkg/domain-errors"
	"partyreg/pkg/platform/sentinel"
	"partyreg/pkg/requestcontext"
)

// Service wraps the letter store with coded errors and event emission.
type Service struct {
	store     *Store
	logger    *slog.Logger
	publisher events.Publisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithPublisher(publisher events.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func NewService(store *Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateLetter publishes a letter. The author signs implicitly.
func (s *Service) CreateLetter(ctx context.Context, author id.Identity, title, content string) (*Letter, error) {
	letter, err := s.store.Create(title, content, author, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.Event{
		Kind:    events.KindLetterCreated,
		Subject: author,
		Actor:   author,
		Detail:  map[string]string{"letter_id": strconv.FormatUint(uint64(letter.ID), 10)},
	})
	s.logger.InfoContext(ctx, "letter created", "letter_id", letter.ID, "author", author)
	return letter, nil
}

// SignLetter records a one-time co-signature.
func (s *Service) SignLetter(ctx context.Context, letterID id.LetterID, signer id.Identity) error {
	if signer.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "identity is required")
	}
	if err := s.store.Sign(letterID, signer); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "letter not found")
		case errors.Is(err, sentinel.ErrConflict):
			return dErrors.New(dErrors.CodeConflict, "letter already signed")
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign letter")
		}
	}
	s.emit(ctx, events.Event{
		Kind:    events.KindLetterSigned,
		Subject: signer,
		Actor:   signer,
		Detail:  map[string]string{"letter_id": strconv.FormatUint(uint64(letterID), 10)},
	})
	return nil
}

// GetLetter returns a letter with its signature count.
func (s *Service) GetLetter(ctx context.Context, letterID id.LetterID) (*Letter, error) {
	letter, err := s.store.Get(letterID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "letter not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read letter")
	}
	return letter, nil
}

// GetSignatures returns a page of co-signers in signing order.
func (s *Service) GetSignatures(ctx context.Context, letterID id.LetterID, startIndex, count int) ([]id.Identity, error) {
	signatures, err := s.store.Signatures(letterID, startIndex, count)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "letter not found")
		case errors.Is(err, sentinel.ErrOutOfRange):
			return nil, dErrors.New(dErrors.CodeNotFound, "start index is out of range")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read signatures")
		}
	}
	return signatures, nil
}

func (s *Service) emit(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	event.Timestamp = requestcontext.Now(ctx)
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit event", "kind", event.Kind, "error", err)
	}
}
