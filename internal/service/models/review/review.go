package review

import (
	"time"

	"github.com/corray333/backend-labs/coffeeshop/internal/service/errs"
)

// UnknownAuthor is shown for reviews whose author no longer exists.
const UnknownAuthor = "Unknown User"

var ErrInvalidRating = errs.NewValidation("Rating must be between 1 and 5")

// Key identifies a review: one per item, user and order.
type Key struct {
	MenuID    string `json:"itemId"`
	UserEmail string `json:"user"`
	OrderID   int64  `json:"orderId"`
}

// Review is a user's rating of an item bought in a specific order.
type Review struct {
	Key
	Text      string    `json:"reviewText"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"timestamp"`
}

// ValidateRating checks that rating is a star value.
func ValidateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}

	return nil
}

// WithAuthor is a review annotated with its author's display data.
type WithAuthor struct {
	Review
	AuthorName   string `json:"userName"`
	ProfileImage string `json:"profileImage"`
}
