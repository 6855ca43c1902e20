package audit

import (
	"context"
	"log/slog"
)

// Publisher hands events to the background worker without blocking the
// request path. A full inbox drops the event and logs; audit must never
// stall a resolution.
type Publisher struct {
	inbox  chan Event
	logger *slog.Logger
}

// NewPublisher creates a publisher with a bounded inbox.
func NewPublisher(buffer int, logger *slog.Logger) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Publisher{inbox: make(chan Event, buffer), logger: logger}
}

// Publish enqueues the event, dropping it when the inbox is full.
func (p *Publisher) Publish(ctx context.Context, event Event) {
	select {
	case p.inbox <- event:
	default:
		if p.logger != nil {
			p.logger.WarnContext(ctx, "audit inbox full, dropping event",
				"action", event.Action,
			)
		}
	}
}

// Inbox exposes the receive side for the worker.
func (p *Publisher) Inbox() <-chan Event {
	return p.inbox
}

// Close closes the inbox so a draining worker can finish.
func (p *Publisher) Close() {
	close(p.inbox)
}
