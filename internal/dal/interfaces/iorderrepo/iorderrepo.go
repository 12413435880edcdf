package iorderrepo

import (
	"context"
	"time"

	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/order"
)

// IOrderRepository is an interface for order postgres repository.
type IOrderRepository interface {
	// Insert stores the order with its line snapshots and returns it with its assigned id.
	Insert(ctx context.Context, o order.Order) (order.Order, error)
	Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error)
	GetByID(ctx context.Context, id int64) (order.Order, error)

	// UpdateStatus sets the status and returns the previous one.
	UpdateStatus(ctx context.Context, id int64, status order.Status) (order.Status, error)
	Delete(ctx context.Context, id int64) error

	// SumTotals sums persisted order totals created in [from, to).
	SumTotals(ctx context.Context, from, to time.Time) (int64, error)
}
