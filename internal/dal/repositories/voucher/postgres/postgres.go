package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/postgres"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/voucher"
	"github.com/jackc/pgx/v5"
)

// VoucherRepository reads vouchers from PostgreSQL.
type VoucherRepository struct {
	conn postgres.GenericConn
}

// NewVoucherRepository creates a new voucher repository.
func NewVoucherRepository(conn postgres.GenericConn) *VoucherRepository {
	return &VoucherRepository{
		conn: conn,
	}
}

// GetByCode returns the voucher with code, or nil if there is none.
func (r *VoucherRepository) GetByCode(ctx context.Context, code string) (*voucher.Voucher, error) {
	query, args, err := sq.Select("code", "discount_minor", "is_valid").
		From("vouchers").
		Where(sq.Eq{"code": code}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	var v voucher.Voucher
	err = r.conn.QueryRow(ctx, query, args...).Scan(&v.Code, &v.DiscountMinor, &v.IsValid)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get voucher: %w", err)
	}

	return &v, nil
}
