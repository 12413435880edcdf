package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/postgres"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/errs"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/review"
)

// ReviewRepository implements review storage for PostgreSQL.
type ReviewRepository struct {
	conn postgres.GenericConn
}

// NewReviewRepository creates a new review repository.
func NewReviewRepository(conn postgres.GenericConn) *ReviewRepository {
	return &ReviewRepository{
		conn: conn,
	}
}

// Exists reports whether a review with key was already submitted.
func (r *ReviewRepository) Exists(ctx context.Context, key review.Key) (bool, error) {
	query, args, err := sq.Select("1").
		Prefix("SELECT EXISTS (").
		From("reviews").
		Where(sq.Eq{
			"menu_id":    key.MenuID,
			"user_email": key.UserEmail,
			"order_id":   key.OrderID,
		}).
		Suffix(")").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build select query: %w", err)
	}

	var exists bool
	if err := r.conn.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check review: %w", err)
	}

	return exists, nil
}

// Insert stores a review. The unique key turns a concurrent duplicate into ErrAlreadyReviewed.
func (r *ReviewRepository) Insert(ctx context.Context, rv review.Review) error {
	query, args, err := sq.Insert("reviews").
		Columns("menu_id", "user_email", "order_id", "review_text", "rating", "created_at").
		Values(rv.MenuID, rv.UserEmail, rv.OrderID, rv.Text, rv.Rating, rv.CreatedAt).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return errs.ErrAlreadyReviewed
		}
		return fmt.Errorf("failed to insert review: %w", err)
	}

	return nil
}

// ListByMenu returns the reviews of an item, newest first.
func (r *ReviewRepository) ListByMenu(ctx context.Context, menuID string) ([]review.Review, error) {
	query, args, err := sq.Select("menu_id", "user_email", "order_id", "review_text", "rating", "created_at").
		From("reviews").
		Where(sq.Eq{"menu_id": menuID}).
		OrderBy("created_at DESC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	reviews := []review.Review{}
	for rows.Next() {
		var rv review.Review
		err := rows.Scan(&rv.MenuID, &rv.UserEmail, &rv.OrderID, &rv.Text, &rv.Rating, &rv.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return reviews, nil
}
