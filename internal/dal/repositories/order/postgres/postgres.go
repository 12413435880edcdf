package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/postgres"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/errs"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/order"
	"github.com/jackc/pgx/v5"
)

// OrderDal represents order data access layer model
type OrderDal struct {
	Id              int64     `db:"id"`
	UserEmail       string    `db:"user_email"`
	TotalPriceMinor int64     `db:"total_price_minor"`
	Status          string    `db:"status"`
	CreatedAt       time.Time `db:"created_at"`
}

// ToModel converts OrderDal to service layer Order model
func (o *OrderDal) ToModel() order.Order {
	return order.Order{
		ID:              o.Id,
		UserEmail:       o.UserEmail,
		TotalPriceMinor: o.TotalPriceMinor,
		Status:          order.Status(o.Status),
		CreatedAt:       o.CreatedAt,
		Lines:           []order.LineSnapshot{}, // Will be populated separately
	}
}

// PostgresOrderRepository stores orders and their line snapshots.
type PostgresOrderRepository struct {
	conn postgres.GenericConn
}

func NewPostgresOrderRepository(conn postgres.GenericConn) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		conn: conn,
	}
}

// Insert stores the order header, letting the identity sequence assign its id, then its lines.
func (r *PostgresOrderRepository) Insert(ctx context.Context, o order.Order) (order.Order, error) {
	query, args, err := sq.Insert("orders").
		Columns("user_email", "total_price_minor", "status", "created_at").
		Values(o.UserEmail, o.TotalPriceMinor, o.Status.String(), o.CreatedAt).
		Suffix("RETURNING id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to build insert query: %w", err)
	}

	if err := r.conn.QueryRow(ctx, query, args...).Scan(&o.ID); err != nil {
		return order.Order{}, fmt.Errorf("failed to insert order: %w", err)
	}

	if len(o.Lines) == 0 {
		o.Lines = []order.LineSnapshot{}
		return o, nil
	}

	builder := sq.Insert("order_lines").
		Columns(
			"order_id",
			"position",
			"menu_id",
			"name",
			"price_minor",
			"quantity",
			"option1",
			"option2",
			"image_ref",
		).
		PlaceholderFormat(sq.Dollar)
	for i, l := range o.Lines {
		option2 := l.Option2
		if option2 == nil {
			option2 = []string{}
		}
		builder = builder.Values(o.ID, i, l.MenuID, l.Name, l.PriceMinor, l.Quantity, l.Option1, option2, l.ImageRef)
	}

	query, args, err = builder.ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to build insert query: %w", err)
	}
	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return order.Order{}, fmt.Errorf("failed to insert order lines: %w", err)
	}

	return o, nil
}

// Query retrieves orders based on filter criteria, newest first.
func (r *PostgresOrderRepository) Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	builder := sq.Select("id", "user_email", "total_price_minor", "status", "created_at").
		From("orders").
		OrderBy("created_at DESC", "id DESC").
		PlaceholderFormat(sq.Dollar)

	if len(filter.Ids) > 0 {
		builder = builder.Where(sq.Eq{"id": filter.Ids})
	}
	if len(filter.UserEmails) > 0 {
		builder = builder.Where(sq.Eq{"user_email": filter.UserEmails})
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, s.String())
		}
		builder = builder.Where(sq.Eq{"status": statuses})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	result := []order.Order{}
	for rows.Next() {
		var dal OrderDal
		err := rows.Scan(
			&dal.Id,
			&dal.UserEmail,
			&dal.TotalPriceMinor,
			&dal.Status,
			&dal.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		result = append(result, dal.ToModel())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	rows.Close()

	if len(result) == 0 {
		return result, nil
	}

	ids := make([]int64, 0, len(result))
	for _, o := range result {
		ids = append(ids, o.ID)
	}
	lines, err := r.lines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range result {
		if l, ok := lines[result[i].ID]; ok {
			result[i].Lines = l
		}
	}

	return result, nil
}

// GetByID retrieves a single order with its lines.
func (r *PostgresOrderRepository) GetByID(ctx context.Context, id int64) (order.Order, error) {
	orders, err := r.Query(ctx, &order.QueryOrdersModel{Ids: []int64{id}})
	if err != nil {
		return order.Order{}, err
	}
	if len(orders) == 0 {
		return order.Order{}, errs.NotFound("order", id)
	}

	return orders[0], nil
}

// UpdateStatus sets a new status and returns the previous one under a row lock.
func (r *PostgresOrderRepository) UpdateStatus(
	ctx context.Context,
	id int64,
	status order.Status,
) (order.Status, error) {
	query, args, err := sq.Select("status").
		From("orders").
		Where(sq.Eq{"id": id}).
		Suffix("FOR UPDATE").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("failed to build select query: %w", err)
	}

	var old string
	err = r.conn.QueryRow(ctx, query, args...).Scan(&old)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", errs.NotFound("order", id)
	}
	if err != nil {
		return "", fmt.Errorf("failed to lock order: %w", err)
	}

	query, args, err = sq.Update("orders").
		Set("status", status.String()).
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("failed to build update query: %w", err)
	}
	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return "", fmt.Errorf("failed to update order status: %w", err)
	}

	return order.Status(old), nil
}

// Delete removes an order; its lines cascade.
func (r *PostgresOrderRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := sq.Delete("orders").
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFound("order", id)
	}

	return nil
}

// SumTotals sums total_price_minor over orders created in [from, to).
func (r *PostgresOrderRepository) SumTotals(ctx context.Context, from, to time.Time) (int64, error) {
	query, args, err := sq.Select("COALESCE(SUM(total_price_minor), 0)").
		From("orders").
		Where(sq.GtOrEq{"created_at": from}).
		Where(sq.Lt{"created_at": to}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build select query: %w", err)
	}

	var total int64
	if err := r.conn.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum order totals: %w", err)
	}

	return total, nil
}

func (r *PostgresOrderRepository) lines(ctx context.Context, orderIDs []int64) (map[int64][]order.LineSnapshot, error) {
	query, args, err := sq.Select(
		"order_id",
		"menu_id",
		"name",
		"price_minor",
		"quantity",
		"option1",
		"option2",
		"image_ref",
	).
		From("order_lines").
		Where(sq.Eq{"order_id": orderIDs}).
		OrderBy("order_id", "position").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()

	result := make(map[int64][]order.LineSnapshot, len(orderIDs))
	for rows.Next() {
		var (
			orderID int64
			l       order.LineSnapshot
		)
		err := rows.Scan(
			&orderID,
			&l.MenuID,
			&l.Name,
			&l.PriceMinor,
			&l.Quantity,
			&l.Option1,
			&l.Option2,
			&l.ImageRef,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		result[orderID] = append(result[orderID], l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
