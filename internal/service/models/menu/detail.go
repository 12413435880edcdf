package menu

import "github.com/corray333/backend-labs/coffeeshop/internal/service/models/review"

// ProductDetail is everything the product page shows about one item.
type ProductDetail struct {
	Item         MenuItem            `json:"item"`
	Rating       RatingSummary       `json:"rating"`
	Similar      []ListedItem        `json:"similar"`
	Reviews      []review.WithAuthor `json:"reviews"`
	TotalReviews int                 `json:"totalReviews"`
}
