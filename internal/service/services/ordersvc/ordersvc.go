package ordersvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/corray333/backend-labs/coffeeshop/internal/dal/interfaces/iauditrepo"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/interfaces/icartrepo"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/interfaces/imenurepo"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/interfaces/iuserrepo"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/postgres"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/uow"
	"github.com/corray333/backend-labs/coffeeshop/internal/metrics"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/errs"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/auditlog"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/menu"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/order"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/outbox"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/user"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/receipt"
	"go.opentelemetry.io/otel"
)

// OrderService is a service for placing and managing orders.
type OrderService struct {
	newUOW   func() unitOfWork
	exporter receiptExporter
	exchange string
	now      func() time.Time
}

type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	MenuRepository() imenurepo.IMenuRepository
	CartRepository() icartrepo.ICartRepository
	OrderRepository() iorderrepo.IOrderRepository
	UserRepository() iuserrepo.IUserRepository
	OutboxRepository() ioutboxrepo.IOutboxRepository
	AuditRepository() iauditrepo.IAuditRepository
}

type receiptExporter interface {
	ConvertHTML(ctx context.Context, html string) ([]byte, error)
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService.
func MustNewOrderService(opts ...option) *OrderService {
	s := &OrderService{
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.newUOW == nil {
		panic("ordersvc: storage is not configured")
	}

	return s
}

// WithPostgresClient sets the Postgres client for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *OrderService) {
		s.newUOW = func() unitOfWork {
			return uow.NewUnitOfWork(pgClient)
		}
	}
}

// WithUnitOfWork sets a custom unit of work constructor.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWork(factory func() uow.UnitOfWork) option {
	return func(s *OrderService) {
		s.newUOW = func() unitOfWork {
			return factory()
		}
	}
}

// WithReceiptExporter sets the HTML to PDF converter used for receipts.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithReceiptExporter(exporter receiptExporter) option {
	return func(s *OrderService) {
		s.exporter = exporter
	}
}

// WithExchange sets the exchange order events are published to. Without it
// events go to the default exchange.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithExchange(exchange string) option {
	return func(s *OrderService) {
		s.exchange = exchange
	}
}

// WithClock overrides the time source.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(s *OrderService) {
		s.now = now
	}
}

// Checkout turns the cart of userEmail into a NEW order. Line snapshots,
// sold counters, the cleared cart and the order.created event are written in
// one transaction; a line pointing at a missing menu item aborts all of it.
func (s *OrderService) Checkout(ctx context.Context, userEmail string) (order.Order, error) {
	ctx, span := otel.Tracer("ordersvc").Start(ctx, "Checkout")
	defer span.End()

	created, err := s.checkout(ctx, userEmail)
	if err != nil {
		metrics.CheckoutsTotal.WithLabelValues(checkoutResult(err)).Inc()
		return order.Order{}, err
	}

	metrics.CheckoutsTotal.WithLabelValues("success").Inc()
	metrics.OrderValue.Observe(float64(created.TotalPriceMinor))
	slog.Info("Order placed", "order_id", created.ID, "user", userEmail, "total", created.TotalPriceMinor)

	return created, nil
}

func checkoutResult(err error) string {
	switch {
	case errors.Is(err, errs.ErrStaleReference):
		return "stale_reference"
	case errors.Is(err, errs.ErrConcurrentModification):
		return "conflict"
	default:
		return "error"
	}
}

func (s *OrderService) checkout(ctx context.Context, userEmail string) (order.Order, error) {
	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return order.Order{}, err
	}
	defer func() { _ = work.Rollback(ctx) }()

	c, err := work.CartRepository().Lock(ctx, userEmail)
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to lock cart: %w", err)
	}

	items := map[string]menu.MenuItem{}
	if ids := c.MenuIDs(); len(ids) > 0 {
		found, err := work.MenuRepository().Query(ctx, &menu.QueryMenuModel{MenuIDs: ids})
		if err != nil {
			return order.Order{}, err
		}
		items = menu.ByID(found)
	}

	lines := make([]order.LineSnapshot, 0, len(c.Lines))
	for _, l := range c.Lines {
		item, ok := items[l.MenuID]
		if !ok {
			return order.Order{}, &errs.StaleReferenceError{MenuID: l.MenuID}
		}
		lines = append(lines, order.LineSnapshot{
			MenuID:     l.MenuID,
			Name:       item.Name,
			PriceMinor: item.PriceMinor,
			Quantity:   l.Quantity,
			Option1:    l.Option1,
			Option2:    l.Option2,
			ImageRef:   item.ImageRef,
		})
	}

	now := s.now()
	created, err := work.OrderRepository().Insert(ctx, order.Order{
		UserEmail:       userEmail,
		Lines:           lines,
		TotalPriceMinor: order.TotalOf(lines),
		Status:          order.StatusNew,
		CreatedAt:       now,
	})
	if err != nil {
		return order.Order{}, err
	}

	for _, l := range lines {
		if err := work.MenuRepository().IncrementSold(ctx, l.MenuID, l.Quantity); err != nil {
			return order.Order{}, err
		}
	}

	c.Clear()
	if _, err := work.CartRepository().Save(ctx, c); err != nil {
		return order.Order{}, err
	}

	event, err := outbox.NewOrderEvent(s.exchange, outbox.RoutingKeyOrderCreated, created.ID, outbox.OrderCreatedEvent{
		OrderID:         created.ID,
		UserEmail:       created.UserEmail,
		TotalPriceMinor: created.TotalPriceMinor,
		Items:           len(created.Lines),
		CreatedAt:       created.CreatedAt,
	}, now)
	if err != nil {
		return order.Order{}, err
	}
	if err := work.OutboxRepository().Enqueue(ctx, event); err != nil {
		return order.Order{}, err
	}

	if err := work.Commit(ctx); err != nil {
		return order.Order{}, err
	}

	return created, nil
}

// GetOrders lists the orders of userEmail, newest first. page starts at 1.
func (s *OrderService) GetOrders(ctx context.Context, userEmail string, page, pageSize int) ([]order.Order, error) {
	ctx, span := otel.Tracer("ordersvc").Start(ctx, "GetOrders")
	defer span.End()

	query := &order.QueryOrdersModel{UserEmails: []string{userEmail}}
	if pageSize > 0 {
		if page < 1 {
			page = 1
		}
		query.Limit = pageSize
		query.Offset = (page - 1) * pageSize
	}

	return s.newUOW().OrderRepository().Query(ctx, query)
}

// GetOrder returns an order visible to viewer: the owner or an admin.
// Other users get errs.ErrNotFound.
func (s *OrderService) GetOrder(ctx context.Context, viewer user.User, orderID int64) (order.Order, error) {
	ctx, span := otel.Tracer("ordersvc").Start(ctx, "GetOrder")
	defer span.End()

	return s.getVisible(ctx, s.newUOW(), viewer, orderID)
}

func (s *OrderService) getVisible(ctx context.Context, work unitOfWork, viewer user.User, orderID int64) (order.Order, error) {
	o, err := work.OrderRepository().GetByID(ctx, orderID)
	if err != nil {
		return order.Order{}, err
	}
	if o.UserEmail != viewer.Email && !viewer.IsAdmin() {
		return order.Order{}, errs.NotFound("order", orderID)
	}

	return o, nil
}

// UpdateStatus sets the status of an order, records the change in the audit
// trail and queues an order.status_changed event.
func (s *OrderService) UpdateStatus(
	ctx context.Context,
	changedBy string,
	orderID int64,
	rawStatus string,
) (order.Order, error) {
	ctx, span := otel.Tracer("ordersvc").Start(ctx, "UpdateStatus")
	defer span.End()

	status, err := order.ParseStatus(rawStatus)
	if err != nil {
		return order.Order{}, err
	}

	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return order.Order{}, err
	}
	defer func() { _ = work.Rollback(ctx) }()

	old, err := work.OrderRepository().UpdateStatus(ctx, orderID, status)
	if err != nil {
		return order.Order{}, err
	}

	now := s.now()
	err = work.AuditRepository().LogStatusChange(ctx, auditlog.OrderStatusChange{
		OrderID:   orderID,
		OldStatus: old.String(),
		NewStatus: status.String(),
		ChangedBy: changedBy,
		CreatedAt: now,
	})
	if err != nil {
		return order.Order{}, err
	}

	event, err := outbox.NewOrderEvent(s.exchange, outbox.RoutingKeyOrderStatusChanged, orderID, outbox.OrderStatusChangedEvent{
		OrderID:   orderID,
		OldStatus: old.String(),
		NewStatus: status.String(),
		ChangedBy: changedBy,
		ChangedAt: now,
	}, now)
	if err != nil {
		return order.Order{}, err
	}
	if err := work.OutboxRepository().Enqueue(ctx, event); err != nil {
		return order.Order{}, err
	}

	updated, err := work.OrderRepository().GetByID(ctx, orderID)
	if err != nil {
		return order.Order{}, err
	}

	if err := work.Commit(ctx); err != nil {
		return order.Order{}, err
	}

	metrics.OrderStatusChanges.WithLabelValues(status.String()).Inc()

	return updated, nil
}

// DeleteOrder removes an order with its lines.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID int64) error {
	ctx, span := otel.Tracer("ordersvc").Start(ctx, "DeleteOrder")
	defer span.End()

	return s.newUOW().OrderRepository().Delete(ctx, orderID)
}

// StatusHistory returns the audited status changes of an order, oldest first.
func (s *OrderService) StatusHistory(ctx context.Context, orderID int64) ([]auditlog.OrderStatusChange, error) {
	ctx, span := otel.Tracer("ordersvc").Start(ctx, "StatusHistory")
	defer span.End()

	return s.newUOW().AuditRepository().ListByOrder(ctx, orderID)
}

// ExportReceipt renders the receipt of an order visible to viewer as a PDF.
func (s *OrderService) ExportReceipt(ctx context.Context, viewer user.User, orderID int64) ([]byte, error) {
	ctx, span := otel.Tracer("ordersvc").Start(ctx, "ExportReceipt")
	defer span.End()

	if s.exporter == nil {
		return nil, &errs.UpstreamError{Provider: "receipt", Message: "receipt export is not configured"}
	}

	work := s.newUOW()

	o, err := s.getVisible(ctx, work, viewer, orderID)
	if err != nil {
		return nil, err
	}

	owner := viewer
	if o.UserEmail != viewer.Email {
		owner, err = work.UserRepository().GetByEmail(ctx, o.UserEmail)
		if errors.Is(err, errs.ErrNotFound) {
			owner = user.User{Email: o.UserEmail, UserName: o.UserEmail}
		} else if err != nil {
			return nil, err
		}
	}

	html, err := receipt.Render(o, owner)
	if err != nil {
		return nil, err
	}

	return s.exporter.ConvertHTML(ctx, html)
}
