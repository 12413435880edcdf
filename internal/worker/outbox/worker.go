package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/corray333/backend-labs/coffeeshop/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/outbox"
	"github.com/spf13/viper"
)

type publisher interface {
	Publish(ctx context.Context, event outbox.Event) error
}

// Worker relays order events from the outbox to the broker.
type Worker struct {
	events      ioutboxrepo.IOutboxRepository
	publisher   publisher
	interval    time.Duration
	batchSize   int
	baseBackoff time.Duration
	maxBackoff  time.Duration
	retention   time.Duration
	now         func() time.Time
	stopCh      chan struct{}
	done        chan struct{}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func NewWorker(events ioutboxrepo.IOutboxRepository, publisher publisher) *Worker {
	w := &Worker{
		events:      events,
		publisher:   publisher,
		interval:    10 * time.Second,
		batchSize:   100,
		baseBackoff: 30 * time.Second,
		maxBackoff:  time.Hour,
		retention:   7 * 24 * time.Hour,
		now:         time.Now,
		stopCh:      make(chan struct{}),
		done:        make(chan struct{}),
	}

	if v := viper.GetInt("rabbitmq.outbox.poll_interval_seconds"); v > 0 {
		w.interval = time.Duration(v) * time.Second
	}
	if v := viper.GetInt("rabbitmq.outbox.batch_size"); v > 0 {
		w.batchSize = v
	}
	if v := viper.GetInt("rabbitmq.outbox.retry_interval_seconds"); v > 0 {
		w.baseBackoff = time.Duration(v) * time.Second
	}
	if v := viper.GetDuration("rabbitmq.outbox.max_backoff"); v > 0 {
		w.maxBackoff = v
	}
	if v := viper.GetDuration("rabbitmq.outbox.retention"); v > 0 {
		w.retention = v
	}

	return w
}

// Start relays due events on every tick until ctx is done or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	slog.Info("Order event relay started", "interval", w.interval, "batch_size", w.batchSize)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Order event relay shutting down")
			return
		case <-w.stopCh:
			slog.Info("Order event relay stopped")
			return
		case <-ticker.C:
			w.Relay(ctx)
			w.purge(ctx)
		}
	}
}

// Stop asks a running Start to return and waits until the current tick has
// finished or ctx is done.
func (w *Worker) Stop(ctx context.Context) error {
	close(w.stopCh)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Relay publishes one batch of due events and returns how many the broker
// confirmed. Due yields only the oldest waiting event of each order, so a
// status change is never published before the order itself.
func (w *Worker) Relay(ctx context.Context) int {
	events, err := w.events.Due(ctx, w.now(), w.batchSize)
	if err != nil {
		slog.Error("Failed to load due order events", "error", err)
		return 0
	}

	published := 0
	for _, event := range events {
		if err := w.publisher.Publish(ctx, event); err != nil {
			w.reschedule(ctx, event, err)
			continue
		}

		if err := w.events.MarkPublished(ctx, event.ID, w.now()); err != nil {
			// The event stays due and is published again on the next tick.
			slog.Error("Failed to mark order event published", "event_id", event.ID, "error", err)
			continue
		}
		published++
	}

	if published > 0 {
		slog.Info("Order events published", "count", published, "due", len(events))
	}

	return published
}

func (w *Worker) reschedule(ctx context.Context, event outbox.Event, cause error) {
	event.Failed(cause, w.now().Add(w.backoff(event.Attempts+1)))

	if event.Exhausted() {
		slog.Error("Giving up on order event",
			"event_id", event.ID,
			"order_id", event.OrderID,
			"routing_key", event.RoutingKey,
			"attempts", event.Attempts,
			"error", cause,
		)
	} else {
		slog.Warn("Failed to publish order event, will retry",
			"event_id", event.ID,
			"order_id", event.OrderID,
			"routing_key", event.RoutingKey,
			"attempts", event.Attempts,
			"next_attempt", event.AvailableAt,
			"error", cause,
		)
	}

	if err := w.events.Reschedule(ctx, event); err != nil {
		slog.Error("Failed to reschedule order event", "event_id", event.ID, "error", err)
	}
}

func (w *Worker) purge(ctx context.Context) {
	n, err := w.events.Purge(ctx, w.now().Add(-w.retention))
	if err != nil {
		slog.Error("Failed to purge published order events", "error", err)
		return
	}
	if n > 0 {
		slog.Debug("Purged published order events", "count", n)
	}
}

// backoff doubles from baseBackoff with every attempt, capped at maxBackoff.
func (w *Worker) backoff(attempt int) time.Duration {
	d := w.baseBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= w.maxBackoff {
			return w.maxBackoff
		}
	}

	return min(d, w.maxBackoff)
}
