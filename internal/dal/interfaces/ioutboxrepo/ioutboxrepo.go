package ioutboxrepo

import (
	"context"
	"time"

	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/outbox"
)

// IOutboxRepository stores order events until the relay has published them.
type IOutboxRepository interface {
	Enqueue(ctx context.Context, event outbox.Event) error

	// Due returns unpublished, non-exhausted events available at now, oldest first.
	Due(ctx context.Context, now time.Time, limit int) ([]outbox.Event, error)

	MarkPublished(ctx context.Context, id int64, at time.Time) error

	// Reschedule persists the attempt counters of a failed event.
	Reschedule(ctx context.Context, event outbox.Event) error

	// Purge removes events published before the cutoff.
	Purge(ctx context.Context, before time.Time) (int64, error)
}
