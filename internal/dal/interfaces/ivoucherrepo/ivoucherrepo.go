package ivoucherrepo

import (
	"context"

	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/voucher"
)

// IVoucherRepository is an interface for voucher lookups.
type IVoucherRepository interface {
	// GetByCode returns nil without error when no voucher has that code.
	GetByCode(ctx context.Context, code string) (*voucher.Voucher, error)
}
