package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/postgres"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/auditlog"
)

// AuditRepository implements the order status audit trail for PostgreSQL.
type AuditRepository struct {
	conn postgres.GenericConn
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(conn postgres.GenericConn) *AuditRepository {
	return &AuditRepository{
		conn: conn,
	}
}

// LogStatusChange saves one status change entry.
func (r *AuditRepository) LogStatusChange(ctx context.Context, change auditlog.OrderStatusChange) error {
	query, args, err := sq.Insert("order_status_audit").
		Columns(
			"order_id",
			"old_status",
			"new_status",
			"changed_by",
			"created_at",
		).
		Values(
			change.OrderID,
			change.OldStatus,
			change.NewStatus,
			change.ChangedBy,
			change.CreatedAt,
		).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build audit log insert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	return nil
}

// ListByOrder returns the status history of an order, oldest first.
func (r *AuditRepository) ListByOrder(ctx context.Context, orderID int64) ([]auditlog.OrderStatusChange, error) {
	query, args, err := sq.Select("id", "order_id", "old_status", "new_status", "changed_by", "created_at").
		From("order_status_audit").
		Where(sq.Eq{"order_id": orderID}).
		OrderBy("id ASC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build audit log select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	changes := []auditlog.OrderStatusChange{}
	for rows.Next() {
		var c auditlog.OrderStatusChange
		if err := rows.Scan(&c.ID, &c.OrderID, &c.OldStatus, &c.NewStatus, &c.ChangedBy, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		changes = append(changes, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit logs: %w", err)
	}

	return changes, nil
}
