package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/postgres"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/errs"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/cart"
	"github.com/jackc/pgx/v5"
)

// CartRepository stores carts as a versioned header row plus ordered lines.
type CartRepository struct {
	conn postgres.GenericConn
}

// NewCartRepository creates a new cart repository.
func NewCartRepository(conn postgres.GenericConn) *CartRepository {
	return &CartRepository{
		conn: conn,
	}
}

// Get returns the cart without locking it.
func (r *CartRepository) Get(ctx context.Context, userEmail string) (cart.Cart, error) {
	query, args, err := sq.Select("version").
		From("carts").
		Where(sq.Eq{"user_email": userEmail}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return cart.Cart{}, fmt.Errorf("failed to build select query: %w", err)
	}

	c := cart.Cart{UserEmail: userEmail, Lines: []cart.Line{}}
	err = r.conn.QueryRow(ctx, query, args...).Scan(&c.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return c, nil
	}
	if err != nil {
		return cart.Cart{}, fmt.Errorf("failed to get cart: %w", err)
	}

	c.Lines, err = r.lines(ctx, userEmail)
	if err != nil {
		return cart.Cart{}, err
	}

	return c, nil
}

// Lock creates the cart row if needed and locks it for the current transaction.
func (r *CartRepository) Lock(ctx context.Context, userEmail string) (cart.Cart, error) {
	query, args, err := sq.Insert("carts").
		Columns("user_email", "version", "updated_at").
		Values(userEmail, 0, time.Now()).
		Suffix("ON CONFLICT (user_email) DO NOTHING").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return cart.Cart{}, fmt.Errorf("failed to build insert query: %w", err)
	}
	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return cart.Cart{}, fmt.Errorf("failed to create cart: %w", err)
	}

	query, args, err = sq.Select("version").
		From("carts").
		Where(sq.Eq{"user_email": userEmail}).
		Suffix("FOR UPDATE").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return cart.Cart{}, fmt.Errorf("failed to build select query: %w", err)
	}

	c := cart.Cart{UserEmail: userEmail}
	if err := r.conn.QueryRow(ctx, query, args...).Scan(&c.Version); err != nil {
		return cart.Cart{}, fmt.Errorf("failed to lock cart: %w", err)
	}

	c.Lines, err = r.lines(ctx, userEmail)
	if err != nil {
		return cart.Cart{}, err
	}

	return c, nil
}

// Save bumps the version with a compare-and-swap and rewrites the lines.
func (r *CartRepository) Save(ctx context.Context, c cart.Cart) (cart.Cart, error) {
	query, args, err := sq.Update("carts").
		Set("version", c.Version+1).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"user_email": c.UserEmail, "version": c.Version}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return cart.Cart{}, fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return cart.Cart{}, fmt.Errorf("failed to update cart version: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return cart.Cart{}, fmt.Errorf("cart of %s: %w", c.UserEmail, errs.ErrConcurrentModification)
	}

	query, args, err = sq.Delete("cart_lines").
		Where(sq.Eq{"user_email": c.UserEmail}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return cart.Cart{}, fmt.Errorf("failed to build delete query: %w", err)
	}
	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return cart.Cart{}, fmt.Errorf("failed to clear cart lines: %w", err)
	}

	if len(c.Lines) > 0 {
		builder := sq.Insert("cart_lines").
			Columns("item_id", "user_email", "position", "menu_id", "quantity", "option1", "option2").
			PlaceholderFormat(sq.Dollar)
		for i, l := range c.Lines {
			option2 := l.Option2
			if option2 == nil {
				option2 = []string{}
			}
			builder = builder.Values(l.ItemID, c.UserEmail, i, l.MenuID, l.Quantity, l.Option1, option2)
		}

		query, args, err = builder.ToSql()
		if err != nil {
			return cart.Cart{}, fmt.Errorf("failed to build insert query: %w", err)
		}
		if _, err := r.conn.Exec(ctx, query, args...); err != nil {
			return cart.Cart{}, fmt.Errorf("failed to insert cart lines: %w", err)
		}
	}

	c.Version++

	return c, nil
}

func (r *CartRepository) lines(ctx context.Context, userEmail string) ([]cart.Line, error) {
	query, args, err := sq.Select("item_id::text", "menu_id", "quantity", "option1", "option2").
		From("cart_lines").
		Where(sq.Eq{"user_email": userEmail}).
		OrderBy("position ASC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart lines: %w", err)
	}
	defer rows.Close()

	lines := []cart.Line{}
	for rows.Next() {
		var l cart.Line
		if err := rows.Scan(&l.ItemID, &l.MenuID, &l.Quantity, &l.Option1, &l.Option2); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		lines = append(lines, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart lines: %w", err)
	}

	return lines, nil
}
