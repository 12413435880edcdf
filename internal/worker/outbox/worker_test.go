package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/corray333/backend-labs/coffeeshop/internal/dal/memory"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/outbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tick = time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)

type fakePublisher struct {
	published []int64
	failOrder int64
	entered   chan struct{}
	release   chan struct{}
}

func (p *fakePublisher) Publish(_ context.Context, event outbox.Event) error {
	if p.entered != nil {
		p.entered <- struct{}{}
		<-p.release
	}
	if event.OrderID == p.failOrder {
		return errors.New("channel closed")
	}
	p.published = append(p.published, event.ID)

	return nil
}

type seeded struct {
	orderID int64
	key     string
}

func seed(t *testing.T, store *memory.Store, events ...seeded) {
	t.Helper()

	repo := store.NewUnitOfWork().OutboxRepository()
	for _, s := range events {
		e, err := outbox.NewOrderEvent("coffeeshop", s.key, s.orderID, map[string]int64{"orderId": s.orderID}, tick.Add(-time.Minute))
		require.NoError(t, err)
		require.NoError(t, repo.Enqueue(context.Background(), e))
	}
}

func newWorker(store *memory.Store, pub publisher) *Worker {
	w := NewWorker(store.NewUnitOfWork().OutboxRepository(), pub)
	w.now = func() time.Time { return tick }

	return w
}

func TestRelayMarksPublished(t *testing.T) {
	store := memory.NewStore()
	seed(t, store,
		seeded{1, outbox.RoutingKeyOrderCreated},
		seeded{1, outbox.RoutingKeyOrderStatusChanged},
	)

	pub := &fakePublisher{}
	assert.Equal(t, 2, newWorker(store, pub).Relay(context.Background()))
	assert.Equal(t, []int64{1, 2}, pub.published)

	for _, e := range store.OutboxEvents() {
		require.True(t, e.Published())
		assert.Equal(t, tick, *e.PublishedAt)
	}

	assert.Zero(t, newWorker(store, pub).Relay(context.Background()))
}

func TestRelayHoldsBackLaterEventsOfFailedOrder(t *testing.T) {
	store := memory.NewStore()
	seed(t, store,
		seeded{1, outbox.RoutingKeyOrderCreated},
		seeded{2, outbox.RoutingKeyOrderCreated},
		seeded{1, outbox.RoutingKeyOrderStatusChanged},
	)

	pub := &fakePublisher{failOrder: 1}
	assert.Equal(t, 1, newWorker(store, pub).Relay(context.Background()))
	assert.Equal(t, []int64{2}, pub.published)

	events := store.OutboxEvents()
	require.Len(t, events, 3)

	failed := events[0]
	assert.False(t, failed.Published())
	assert.Equal(t, 1, failed.Attempts)
	assert.Equal(t, "channel closed", failed.LastError)
	assert.Equal(t, tick.Add(30*time.Second), failed.AvailableAt)

	held := events[2]
	assert.False(t, held.Published())
	assert.Zero(t, held.Attempts)
}

func TestRelayKeepsOrderAcrossTicks(t *testing.T) {
	store := memory.NewStore()
	seed(t, store,
		seeded{1, outbox.RoutingKeyOrderCreated},
		seeded{1, outbox.RoutingKeyOrderStatusChanged},
	)

	pub := &fakePublisher{failOrder: 1}
	w := newWorker(store, pub)
	assert.Zero(t, w.Relay(context.Background()))

	// broker is back, but the created event is still backing off
	pub.failOrder = 0
	w.now = func() time.Time { return tick.Add(15 * time.Second) }
	assert.Zero(t, w.Relay(context.Background()))
	assert.Empty(t, pub.published)

	w.now = func() time.Time { return tick.Add(31 * time.Second) }
	assert.Equal(t, 1, w.Relay(context.Background()))
	assert.Equal(t, 1, w.Relay(context.Background()))
	assert.Equal(t, []int64{1, 2}, pub.published)
}

func TestRelayMovesOnAfterEarlierEventIsExhausted(t *testing.T) {
	store := memory.NewStore()
	seed(t, store,
		seeded{1, outbox.RoutingKeyOrderCreated},
		seeded{1, outbox.RoutingKeyOrderStatusChanged},
	)

	pub := &fakePublisher{failOrder: 1}
	w := newWorker(store, pub)
	for i := 0; i < outbox.DefaultMaxAttempts; i++ {
		w.now = func() time.Time { return tick.Add(48 * time.Hour * time.Duration(i)) }
		w.Relay(context.Background())
	}
	assert.True(t, store.OutboxEvents()[0].Exhausted())
	assert.Zero(t, store.OutboxEvents()[1].Attempts)

	pub.failOrder = 0
	w.now = func() time.Time { return tick.Add(365 * 24 * time.Hour) }
	assert.Equal(t, 1, w.Relay(context.Background()))
	assert.Equal(t, []int64{2}, pub.published)
}

func TestRelayGivesUpAfterMaxAttempts(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, seeded{1, outbox.RoutingKeyOrderCreated})

	pub := &fakePublisher{failOrder: 1}
	w := newWorker(store, pub)
	for i := 0; i < outbox.DefaultMaxAttempts; i++ {
		w.now = func() time.Time { return tick.Add(48 * time.Hour * time.Duration(i)) }
		w.Relay(context.Background())
	}

	event := store.OutboxEvents()[0]
	assert.True(t, event.Exhausted())

	w.now = func() time.Time { return tick.Add(365 * 24 * time.Hour) }
	due, err := store.NewUnitOfWork().OutboxRepository().Due(context.Background(), w.now(), 10)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestRelayLoadFailure(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, seeded{1, outbox.RoutingKeyOrderCreated})
	store.FailOn("outbox.Due", errors.New("connection refused"))

	pub := &fakePublisher{}
	assert.Zero(t, newWorker(store, pub).Relay(context.Background()))
	assert.Empty(t, pub.published)
}

func TestPurgeDropsOldPublishedEvents(t *testing.T) {
	store := memory.NewStore()
	seed(t, store,
		seeded{1, outbox.RoutingKeyOrderCreated},
		seeded{2, outbox.RoutingKeyOrderCreated},
	)

	w := newWorker(store, &fakePublisher{failOrder: 2})
	w.Relay(context.Background())

	w.now = func() time.Time { return tick.Add(w.retention + time.Minute) }
	w.purge(context.Background())

	events := store.OutboxEvents()
	require.Len(t, events, 1)
	assert.Equal(t, int64(2), events[0].OrderID)
}

func TestBackoff(t *testing.T) {
	w := NewWorker(memory.NewStore().NewUnitOfWork().OutboxRepository(), &fakePublisher{})
	w.maxBackoff = 5 * time.Minute

	assert.Equal(t, 30*time.Second, w.backoff(1))
	assert.Equal(t, 60*time.Second, w.backoff(2))
	assert.Equal(t, 120*time.Second, w.backoff(3))
	assert.Equal(t, 240*time.Second, w.backoff(4))
	assert.Equal(t, 5*time.Minute, w.backoff(5))
	assert.Equal(t, 5*time.Minute, w.backoff(20))
}

func TestStartStops(t *testing.T) {
	w := NewWorker(memory.NewStore().NewUnitOfWork().OutboxRepository(), &fakePublisher{})

	go w.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, w.Stop(ctx))
}

func TestStopWaitsForInFlightTick(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, seeded{1, outbox.RoutingKeyOrderCreated})

	pub := &fakePublisher{entered: make(chan struct{}), release: make(chan struct{})}
	w := newWorker(store, pub)
	w.interval = time.Millisecond
	go w.Start(context.Background())
	<-pub.entered

	stopped := make(chan error, 1)
	go func() { stopped <- w.Stop(context.Background()) }()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a publish was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(pub.release)
	select {
	case err := <-stopped:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
	assert.True(t, store.OutboxEvents()[0].Published())
}

func TestStopGivesUpWhenContextEnds(t *testing.T) {
	w := NewWorker(memory.NewStore().NewUnitOfWork().OutboxRepository(), &fakePublisher{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, w.Stop(ctx), context.Canceled)
}
