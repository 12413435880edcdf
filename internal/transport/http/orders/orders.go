package orders

import (
	"context"
	"net/http"
	"strconv"

	"github.com/corray333/backend-labs/coffeeshop/internal/service/errs"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/order"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/user"
	"github.com/corray333/backend-labs/coffeeshop/internal/transport/http/response"
	"github.com/corray333/backend-labs/coffeeshop/pkg/http/middleware/auth"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/schema"
)

const MessagePurchaseConfirmed = "Purchase confirmed and cart cleared"

type service interface {
	Checkout(ctx context.Context, userEmail string) (order.Order, error)
	GetOrders(ctx context.Context, userEmail string, page, pageSize int) ([]order.Order, error)
	GetOrder(ctx context.Context, viewer user.User, orderID int64) (order.Order, error)
	ExportReceipt(ctx context.Context, viewer user.User, orderID int64) ([]byte, error)
}

type listOrdersRequest struct {
	Page     int `schema:"page,omitempty"`
	PageSize int `schema:"page_size,omitempty"`
}

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)

	return d
}

// OrderID parses the {orderId} path parameter. A malformed id cannot name
// an order, so it is reported as not found.
func OrderID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "orderId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, errs.NotFound("order", raw)
	}

	return id, nil
}

// Checkout places an order from the current user's cart.
func Checkout(w http.ResponseWriter, r *http.Request, service service) {
	u, _ := auth.UserFrom(r.Context())

	created, err := service.Checkout(r.Context(), u.Email)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, MessagePurchaseConfirmed, created)
}

// ListOrders returns the current user's order history, newest first.
func ListOrders(w http.ResponseWriter, r *http.Request, service service) {
	u, _ := auth.UserFrom(r.Context())

	query := &listOrdersRequest{}
	if err := decoder.Decode(query, r.URL.Query()); err != nil {
		response.BadRequest(w, err)
		return
	}

	list, err := service.GetOrders(r.Context(), u.Email, query.Page, query.PageSize)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusOK, list)
}

// GetOrder returns one order of the current user. Admins see every order.
func GetOrder(w http.ResponseWriter, r *http.Request, service service) {
	u, _ := auth.UserFrom(r.Context())

	id, err := OrderID(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	o, err := service.GetOrder(r.Context(), u, id)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusOK, o)
}

// Receipt streams the order receipt as a PDF attachment.
func Receipt(w http.ResponseWriter, r *http.Request, service service) {
	u, _ := auth.UserFrom(r.Context())

	id, err := OrderID(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	pdf, err := service.ExportReceipt(r.Context(), u, id)
	if err != nil {
		response.Error(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="receipt.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
