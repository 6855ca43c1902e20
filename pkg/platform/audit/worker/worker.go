// Package worker drains the audit inbox into a store in the background.
package worker

import (
	"context"

	"clinid/pkg/platform/audit"
)

// Worker consumes audit events from a channel and persists them. It keeps
// background processing testable without wiring queue implementations.
type Worker struct {
	store audit.Store
	inbox <-chan audit.Event
}

func New(store audit.Store, inbox <-chan audit.Event) *Worker {
	return &Worker{store: store, inbox: inbox}
}

// Run processes events until the context is cancelled or the inbox closes.
// A closed inbox drains cleanly and returns nil, so shutdown can flush the
// remaining trail.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			if err := w.store.Append(ctx, event); err != nil {
				return err
			}
		}
	}
}
