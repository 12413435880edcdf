package ireviewrepo

import (
	"context"

	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/review"
)

// IReviewRepository is an interface for review storage.
type IReviewRepository interface {
	Exists(ctx context.Context, key review.Key) (bool, error)
	// Insert returns errs.ErrAlreadyReviewed when the key is taken.
	Insert(ctx context.Context, r review.Review) error
	ListByMenu(ctx context.Context, menuID string) ([]review.Review, error)
}
