package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/postgres"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/outbox"
)

const table = "outbox_events"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// OutboxRepository keeps order events in outbox_events. Enqueue runs on the
// caller's transaction; the relay uses the pool.
type OutboxRepository struct {
	conn postgres.GenericConn
}

func NewOutboxRepository(conn postgres.GenericConn) *OutboxRepository {
	return &OutboxRepository{conn: conn}
}

func (r *OutboxRepository) Enqueue(ctx context.Context, event outbox.Event) error {
	query, args, err := psql.Insert(table).
		Columns("order_id", "exchange", "routing_key", "payload", "max_attempts", "created_at", "available_at").
		Values(event.OrderID, event.Exchange, event.RoutingKey, event.Payload, event.MaxAttempts, event.CreatedAt, event.AvailableAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build outbox insert: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to enqueue %s event for order %d: %w", event.RoutingKey, event.OrderID, err)
	}

	return nil
}

// Due orders by id and skips every event whose order still has an earlier
// event waiting, so the events of one order reach the broker in write order
// even when the earlier one is backing off.
func (r *OutboxRepository) Due(ctx context.Context, now time.Time, limit int) ([]outbox.Event, error) {
	query, args, err := psql.Select(
		"e.id", "e.order_id", "e.exchange", "e.routing_key", "e.payload",
		"e.attempts", "e.max_attempts", "e.last_error", "e.created_at", "e.available_at",
	).
		From(table + " e").
		Where(sq.Eq{"e.published_at": nil}).
		Where(sq.LtOrEq{"e.available_at": now}).
		Where("e.attempts < e.max_attempts").
		Where(`NOT EXISTS (
			SELECT 1 FROM ` + table + ` p
			WHERE p.order_id = e.order_id
			  AND p.id < e.id
			  AND p.published_at IS NULL
			  AND p.attempts < p.max_attempts
		)`).
		OrderBy("e.id").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build outbox select: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load due order events: %w", err)
	}
	defer rows.Close()

	events := []outbox.Event{}
	for rows.Next() {
		var e outbox.Event
		if err := rows.Scan(
			&e.ID, &e.OrderID, &e.Exchange, &e.RoutingKey, &e.Payload,
			&e.Attempts, &e.MaxAttempts, &e.LastError, &e.CreatedAt, &e.AvailableAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order event: %w", err)
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, id int64, at time.Time) error {
	query, args, err := psql.Update(table).
		Set("published_at", at).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build outbox update: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to mark order event %d published: %w", id, err)
	}

	return nil
}

func (r *OutboxRepository) Reschedule(ctx context.Context, event outbox.Event) error {
	query, args, err := psql.Update(table).
		SetMap(map[string]any{
			"attempts":     event.Attempts,
			"last_error":   event.LastError,
			"available_at": event.AvailableAt,
		}).
		Where(sq.Eq{"id": event.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build outbox update: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to reschedule order event %d: %w", event.ID, err)
	}

	return nil
}

func (r *OutboxRepository) Purge(ctx context.Context, before time.Time) (int64, error) {
	query, args, err := psql.Delete(table).
		Where(sq.NotEq{"published_at": nil}).
		Where(sq.Lt{"published_at": before}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build outbox delete: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to purge published order events: %w", err)
	}

	return tag.RowsAffected(), nil
}
