package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/postgres"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/errs"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/menu"
	"github.com/jackc/pgx/v5"
)

var menuColumns = []string{
	"menu_id",
	"name",
	"price_minor",
	"description",
	"categories",
	"image_ref",
	"sold",
	"rating_1",
	"rating_2",
	"rating_3",
	"rating_4",
	"rating_5",
	"created_at",
	"updated_at",
}

// MenuRepository implements the catalog store for PostgreSQL.
type MenuRepository struct {
	conn postgres.GenericConn
}

// NewMenuRepository creates a new menu repository.
func NewMenuRepository(conn postgres.GenericConn) *MenuRepository {
	return &MenuRepository{
		conn: conn,
	}
}

func scanMenuItem(row pgx.Row) (menu.MenuItem, error) {
	var item menu.MenuItem
	err := row.Scan(
		&item.MenuID,
		&item.Name,
		&item.PriceMinor,
		&item.Description,
		&item.Categories,
		&item.ImageRef,
		&item.Sold,
		&item.Ratings[0],
		&item.Ratings[1],
		&item.Ratings[2],
		&item.Ratings[3],
		&item.Ratings[4],
		&item.CreatedAt,
		&item.UpdatedAt,
	)

	return item, err
}

// Query retrieves menu items based on filter criteria.
func (r *MenuRepository) Query(ctx context.Context, filter *menu.QueryMenuModel) ([]menu.MenuItem, error) {
	builder := sq.Select(menuColumns...).
		From("menu_items").
		OrderBy("menu_id ASC").
		PlaceholderFormat(sq.Dollar)

	if len(filter.MenuIDs) > 0 {
		builder = builder.Where(sq.Eq{"menu_id": filter.MenuIDs})
	}
	if len(filter.Categories) > 0 {
		builder = builder.Where(sq.Expr("categories && ?", filter.Categories))
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query menu items: %w", err)
	}
	defer rows.Close()

	items := []menu.MenuItem{}
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating menu items: %w", err)
	}

	return items, nil
}

// GetByID retrieves a single menu item.
func (r *MenuRepository) GetByID(ctx context.Context, menuID string) (menu.MenuItem, error) {
	query, args, err := sq.Select(menuColumns...).
		From("menu_items").
		Where(sq.Eq{"menu_id": menuID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return menu.MenuItem{}, fmt.Errorf("failed to build select query: %w", err)
	}

	item, err := scanMenuItem(r.conn.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return menu.MenuItem{}, errs.NotFound("menu item", menuID)
	}
	if err != nil {
		return menu.MenuItem{}, fmt.Errorf("failed to get menu item: %w", err)
	}

	return item, nil
}

// LockPrefix takes a transaction-scoped advisory lock on the id prefix.
func (r *MenuRepository) LockPrefix(ctx context.Context, prefix string) error {
	_, err := r.conn.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", "menu_id:"+prefix)
	if err != nil {
		return fmt.Errorf("failed to lock menu id prefix: %w", err)
	}

	return nil
}

// ListIDsWithPrefix returns every menu id starting with prefix.
func (r *MenuRepository) ListIDsWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	query, args, err := sq.Select("menu_id").
		From("menu_items").
		Where(sq.Expr("starts_with(menu_id, ?)", prefix)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query menu ids: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to collect menu ids: %w", err)
	}

	return ids, nil
}

// Insert adds a new menu item.
func (r *MenuRepository) Insert(ctx context.Context, item menu.MenuItem) error {
	query, args, err := sq.Insert("menu_items").
		Columns(menuColumns...).
		Values(
			item.MenuID,
			item.Name,
			item.PriceMinor,
			item.Description,
			item.Categories,
			item.ImageRef,
			item.Sold,
			item.Ratings[0],
			item.Ratings[1],
			item.Ratings[2],
			item.Ratings[3],
			item.Ratings[4],
			item.CreatedAt,
			item.UpdatedAt,
		).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert menu item: %w", err)
	}

	return nil
}

// Update overwrites the editable attributes. An empty image keeps the current one.
func (r *MenuRepository) Update(
	ctx context.Context,
	menuID string,
	in menu.ItemInput,
	updatedAt time.Time,
) error {
	builder := sq.Update("menu_items").
		Set("name", in.Name).
		Set("price_minor", in.PriceMinor).
		Set("description", in.Description).
		Set("updated_at", updatedAt).
		Where(sq.Eq{"menu_id": menuID}).
		PlaceholderFormat(sq.Dollar)
	if in.ImageRef != "" {
		builder = builder.Set("image_ref", in.ImageRef)
	}
	if len(in.Categories) > 0 {
		builder = builder.Set("categories", in.Categories)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update menu item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFound("menu item", menuID)
	}

	return nil
}

// Delete removes a menu item.
func (r *MenuRepository) Delete(ctx context.Context, menuID string) error {
	query, args, err := sq.Delete("menu_items").
		Where(sq.Eq{"menu_id": menuID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete menu item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFound("menu item", menuID)
	}

	return nil
}

// IncrementSold atomically adds delta to the sold counter.
func (r *MenuRepository) IncrementSold(ctx context.Context, menuID string, delta int64) error {
	return r.increment(ctx, menuID, "sold", delta)
}

// IncrementRatingBucket atomically adds one to the counter of star.
func (r *MenuRepository) IncrementRatingBucket(ctx context.Context, menuID string, star int) error {
	if star < 1 || star > menu.MaxStars {
		return fmt.Errorf("rating bucket %d out of range", star)
	}

	return r.increment(ctx, menuID, fmt.Sprintf("rating_%d", star), 1)
}

func (r *MenuRepository) increment(ctx context.Context, menuID, column string, delta int64) error {
	query, args, err := sq.Update("menu_items").
		Set(column, sq.Expr(column+" + ?", delta)).
		Where(sq.Eq{"menu_id": menuID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to increment %s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return &errs.StaleReferenceError{MenuID: menuID}
	}

	return nil
}
