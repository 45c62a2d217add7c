package events

import (
	"context"
	"log/slog"

	id "partyreg/pkg/domain"
)

// Sink accepts committed events one at a time.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Fanout serves reads from the primary store and mirrors every append to
// best-effort sinks. A mirror failure is logged, never propagated: the
// in-memory log stays authoritative when a durable sink is down.
type Fanout struct {
	primary Store
	mirrors []Sink
	logger  *slog.Logger
}

func NewFanout(primary Store, logger *slog.Logger, mirrors ...Sink) *Fanout {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fanout{primary: primary, mirrors: mirrors, logger: logger}
}

func (f *Fanout) Append(ctx context.Context, event Event) error {
	if err := f.primary.Append(ctx, event); err != nil {
		return err
	}
	for _, mirror := range f.mirrors {
		if err := mirror.Append(ctx, event); err != nil {
			f.logger.WarnContext(ctx, "event mirror append failed",
				"kind", event.Kind,
				"event_id", event.ID,
				"error", err,
			)
		}
	}
	return nil
}

func (f *Fanout) ListByParty(ctx context.Context, partyID id.PartyID) ([]Event, error) {
	return f.primary.ListByParty(ctx, partyID)
}

// PublisherSink adapts a Publisher into a Sink so brokers can ride the same
// fanout as stores.
type PublisherSink struct {
	Publisher Publisher
}

func (s PublisherSink) Append(ctx context.Context, event Event) error {
	return s.Publisher.Emit(ctx, event)
}
