package worker

import (
	"context"

	audit "rtbconsent/pkg/platform/audit"
)

// Worker consumes audit events from a channel and persists them. A failed
// append is reported to onError and the worker moves on; audit never blocks
// bid traffic.
type Worker struct {
	store   audit.Store
	inbox   <-chan audit.Event
	onError func(audit.Event, error)
}

func NewWorker(store audit.Store, inbox <-chan audit.Event, onError func(audit.Event, error)) *Worker {
	return &Worker{store: store, inbox: inbox, onError: onError}
}

// Run persists events until the inbox is closed and drained. Once ctx is done
// the remaining events are reported to onError without touching the store, so
// a cancelled drain finishes promptly.
func (w *Worker) Run(ctx context.Context) {
	for event := range w.inbox {
		err := ctx.Err()
		if err == nil {
			err = w.store.Append(ctx, event)
		}
		if err != nil && w.onError != nil {
			w.onError(event, err)
		}
	}
}
