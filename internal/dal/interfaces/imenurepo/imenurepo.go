package imenurepo

import (
	"context"
	"time"

	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/menu"
)

// IMenuRepository is an interface for the catalog store.
type IMenuRepository interface {
	Query(ctx context.Context, filter *menu.QueryMenuModel) ([]menu.MenuItem, error)
	// GetByID returns errs.ErrNotFound when the item does not exist.
	GetByID(ctx context.Context, menuID string) (menu.MenuItem, error)

	// LockPrefix serializes id allocation for prefix until the transaction ends.
	LockPrefix(ctx context.Context, prefix string) error
	ListIDsWithPrefix(ctx context.Context, prefix string) ([]string, error)

	Insert(ctx context.Context, item menu.MenuItem) error
	Update(ctx context.Context, menuID string, in menu.ItemInput, updatedAt time.Time) error
	Delete(ctx context.Context, menuID string) error

	IncrementSold(ctx context.Context, menuID string, delta int64) error
	IncrementRatingBucket(ctx context.Context, menuID string, star int) error
}
