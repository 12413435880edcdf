package menu

import (
	"time"

	"github.com/corray333/backend-labs/coffeeshop/internal/service/errs"
)

// MaxStars is the highest rating a review can give.
const MaxStars = 5

// RatingCounters holds the per-star review counters; index 0 counts one-star reviews.
type RatingCounters [MaxStars]int64

// Count returns the counter for star (1..5), or 0 for an out-of-range star.
func (r RatingCounters) Count(star int) int64 {
	if star < 1 || star > MaxStars {
		return 0
	}

	return r[star-1]
}

// MenuItem represents a catalog entry.
type MenuItem struct {
	MenuID      string         `json:"menuId"`
	Name        string         `json:"name"`
	PriceMinor  int64          `json:"price"`
	Description string         `json:"description"`
	Categories  []string       `json:"categories"`
	ImageRef    string         `json:"image"`
	Sold        int64          `json:"sold"`
	Ratings     RatingCounters `json:"ratings"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// ListedItem is a menu item annotated with its average rating.
type ListedItem struct {
	MenuItem
	AverageRating float64 `json:"average_rating"`
}

// NewListedItem annotates item with its aggregated average rating.
func NewListedItem(item MenuItem) ListedItem {
	return ListedItem{
		MenuItem:      item,
		AverageRating: Aggregate(item.Ratings).AverageRating,
	}
}

// ItemInput carries the admin-editable attributes of a menu item.
type ItemInput struct {
	Name        string
	PriceMinor  int64
	Description string
	Categories  []string
	ImageRef    string
}

// Validate checks the invariants a stored menu item must satisfy.
func (in ItemInput) Validate(requireCategories bool) error {
	if in.Name == "" {
		return errs.NewValidation("Product name is required")
	}
	if in.PriceMinor < 0 {
		return errs.NewValidation("Price must not be negative")
	}
	if requireCategories && len(in.Categories) == 0 {
		return errs.NewValidation("At least one category is required")
	}

	return nil
}
