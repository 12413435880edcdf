package cart

import (
	"context"
	"net/http"

	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/cart"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/pricing"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/services/cartsvc"
	"github.com/corray333/backend-labs/coffeeshop/internal/transport/http/request"
	"github.com/corray333/backend-labs/coffeeshop/internal/transport/http/response"
	"github.com/corray333/backend-labs/coffeeshop/pkg/http/middleware/auth"
	"github.com/go-chi/chi/v5"
)

const (
	MessageItemAdded   = "Item added to cart"
	MessageItemRemoved = "Item removed successfully"
)

type service interface {
	View(ctx context.Context, userEmail string) (cart.View, error)
	AddItem(ctx context.Context, userEmail string, in cartsvc.AddItemInput) (cart.Line, error)
	SetQuantity(ctx context.Context, userEmail, menuID string, quantity int64) (cartsvc.QuantityUpdate, error)
	RemoveItem(ctx context.Context, userEmail, itemID string) error
	ApplyVoucher(ctx context.Context, userEmail, code string) (pricing.VoucherPreview, error)
}

type addItemRequest struct {
	MenuID   string   `json:"menuId"   validate:"required"`
	Quantity int64    `json:"quantity"`
	Option1  *string  `json:"option1"`
	Option2  []string `json:"option2"  validate:"omitempty,dive,required"`
}

type setQuantityRequest struct {
	MenuID   string `json:"menuId"   validate:"required"`
	Quantity int64  `json:"quantity"`
}

type applyVoucherRequest struct {
	Code string `json:"code"`
}

// View returns the priced cart of the current user.
func View(w http.ResponseWriter, r *http.Request, service service) {
	u, _ := auth.UserFrom(r.Context())

	view, err := service.View(r.Context(), u.Email)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, "", view)
}

// AddItem merges a line into the current user's cart.
func AddItem(w http.ResponseWriter, r *http.Request, service service) {
	u, _ := auth.UserFrom(r.Context())

	req := addItemRequest{}
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}

	line, err := service.AddItem(r.Context(), u.Email, cartsvc.AddItemInput{
		MenuID:   req.MenuID,
		Quantity: req.Quantity,
		Option1:  req.Option1,
		Option2:  req.Option2,
	})
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, MessageItemAdded, line)
}

// SetQuantity sets the quantity of the first line for a menu id and returns
// the repriced cart.
func SetQuantity(w http.ResponseWriter, r *http.Request, service service) {
	u, _ := auth.UserFrom(r.Context())

	req := setQuantityRequest{}
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}

	update, err := service.SetQuantity(r.Context(), u.Email, req.MenuID, req.Quantity)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, "", update)
}

// RemoveItem drops the line {itemId} from the cart.
func RemoveItem(w http.ResponseWriter, r *http.Request, service service) {
	u, _ := auth.UserFrom(r.Context())

	if err := service.RemoveItem(r.Context(), u.Email, chi.URLParam(r, "itemId")); err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, MessageItemRemoved, nil)
}

// ApplyVoucher previews the cart total with a voucher code. success reports
// whether a discount was applied.
func ApplyVoucher(w http.ResponseWriter, r *http.Request, service service) {
	u, _ := auth.UserFrom(r.Context())

	req := applyVoucherRequest{}
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}

	preview, err := service.ApplyVoucher(r.Context(), u.Email, req.Code)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"success":  preview.Applied,
		"message":  preview.Message,
		"subtotal": preview.Subtotal,
		"discount": preview.Discount,
		"tax":      preview.Tax,
		"total":    preview.Total,
	})
}
