package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ChannelPublisher hands events to the worker's inbox. Emit never blocks the
// mutating operation: when the inbox is full the event is dropped and
// counted, because registry liveness outranks sink completeness.
type ChannelPublisher struct {
	inbox   chan Event
	dropped func()
}

func NewChannelPublisher(buffer int, onDrop func()) *ChannelPublisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &ChannelPublisher{inbox: make(chan Event, buffer), dropped: onDrop}
}

// Inbox is consumed by the worker.
func (p *ChannelPublisher) Inbox() <-chan Event {
	return p.inbox
}

func (p *ChannelPublisher) Emit(_ context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
		if p.dropped != nil {
			p.dropped()
		}
	}
	return nil
}

// Worker drains an inbox into a store. It keeps background processing
// testable without wiring a broker.
type Worker struct {
	store Store
	inbox <-chan Event
}

func NewWorker(store Store, inbox <-chan Event) *Worker {
	return &Worker{store: store, inbox: inbox}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				return err
			}
		}
	}
}
