package icartrepo

import (
	"context"

	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/cart"
)

// ICartRepository is an interface for per-user cart storage.
type ICartRepository interface {
	// Get returns the user's cart without locking it. A missing cart is empty.
	Get(ctx context.Context, userEmail string) (cart.Cart, error)

	// Lock creates the cart on first use and locks it until the transaction ends.
	Lock(ctx context.Context, userEmail string) (cart.Cart, error)

	// Save replaces the cart lines if the stored version still equals c.Version
	// and returns the cart with its new version. A version mismatch yields
	// errs.ErrConcurrentModification.
	Save(ctx context.Context, c cart.Cart) (cart.Cart, error)
}
