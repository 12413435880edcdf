package iauditrepo

import (
	"context"

	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/auditlog"
)

// IAuditRepository is interface for the order status audit trail.
type IAuditRepository interface {
	LogStatusChange(ctx context.Context, change auditlog.OrderStatusChange) error
	ListByOrder(ctx context.Context, orderID int64) ([]auditlog.OrderStatusChange, error)
}
