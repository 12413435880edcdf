package reviews

import (
	"context"
	"net/http"

	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/review"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/services/reviewsvc"
	"github.com/corray333/backend-labs/coffeeshop/internal/transport/http/request"
	"github.com/corray333/backend-labs/coffeeshop/internal/transport/http/response"
	"github.com/corray333/backend-labs/coffeeshop/pkg/http/middleware/auth"
)

const MessageReviewSubmitted = "Thank you for your review"

type service interface {
	CheckReview(ctx context.Context, userEmail string, orderID int64, menuID string) (bool, error)
	SubmitReview(ctx context.Context, userEmail string, in reviewsvc.SubmitInput) (review.Review, error)
}

type checkReviewRequest struct {
	OrderID int64  `json:"orderId" validate:"required,gte=1"`
	ItemID  string `json:"itemId"  validate:"required"`
}

type submitReviewRequest struct {
	OrderID    int64  `json:"orderId"    validate:"required,gte=1"`
	ItemID     string `json:"itemId"     validate:"required"`
	Rating     int    `json:"rating"`
	ReviewText string `json:"reviewText" validate:"max=2000"`
}

// CheckReview reports whether the current user already reviewed an item of an order.
func CheckReview(w http.ResponseWriter, r *http.Request, service service) {
	u, _ := auth.UserFrom(r.Context())

	req := checkReviewRequest{}
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}

	reviewed, err := service.CheckReview(r.Context(), u.Email, req.OrderID, req.ItemID)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, "", map[string]bool{"reviewed": reviewed})
}

// SubmitReview stores a review of an ordered item.
func SubmitReview(w http.ResponseWriter, r *http.Request, service service) {
	u, _ := auth.UserFrom(r.Context())

	req := submitReviewRequest{}
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}

	rv, err := service.SubmitReview(r.Context(), u.Email, reviewsvc.SubmitInput{
		OrderID: req.OrderID,
		MenuID:  req.ItemID,
		Rating:  req.Rating,
		Text:    req.ReviewText,
	})
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, MessageReviewSubmitted, rv)
}
