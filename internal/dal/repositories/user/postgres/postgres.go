package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/postgres"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/errs"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/user"
	"github.com/jackc/pgx/v5"
)

var userColumns = []string{"email", "user_name", "role", "profile_image", "created_at"}

// UserRepository reads users from PostgreSQL.
type UserRepository struct {
	conn postgres.GenericConn
}

// NewUserRepository creates a new user repository.
func NewUserRepository(conn postgres.GenericConn) *UserRepository {
	return &UserRepository{
		conn: conn,
	}
}

func scanUser(row pgx.Row) (user.User, error) {
	var (
		u    user.User
		role string
	)
	err := row.Scan(&u.Email, &u.UserName, &role, &u.ProfileImage, &u.CreatedAt)
	u.Role = user.Role(role)

	return u, err
}

// GetByEmail retrieves a single user.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	query, args, err := sq.Select(userColumns...).
		From("users").
		Where(sq.Eq{"email": email}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return user.User{}, fmt.Errorf("failed to build select query: %w", err)
	}

	u, err := scanUser(r.conn.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return user.User{}, errs.NotFound("user", email)
	}
	if err != nil {
		return user.User{}, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

// GetByEmails retrieves the users that exist among emails.
func (r *UserRepository) GetByEmails(ctx context.Context, emails []string) (map[string]user.User, error) {
	result := make(map[string]user.User, len(emails))
	if len(emails) == 0 {
		return result, nil
	}

	query, args, err := sq.Select(userColumns...).
		From("users").
		Where(sq.Eq{"email": emails}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		result[u.Email] = u
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return result, nil
}

// Count returns the number of registered users.
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	query, args, err := sq.Select("COUNT(*)").
		From("users").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build select query: %w", err)
	}

	var count int64
	if err := r.conn.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}

	return count, nil
}
