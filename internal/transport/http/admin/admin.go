package admin

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/corray333/backend-labs/coffeeshop/internal/service/errs"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/auditlog"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/menu"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/order"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/report"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/services/catalogsvc"
	"github.com/corray333/backend-labs/coffeeshop/internal/transport/http/orders"
	"github.com/corray333/backend-labs/coffeeshop/internal/transport/http/request"
	"github.com/corray333/backend-labs/coffeeshop/internal/transport/http/response"
	"github.com/corray333/backend-labs/coffeeshop/pkg/http/middleware/auth"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/schema"
)

const (
	MessageProductSaved   = "Product saved"
	MessageProductDeleted = "Product deleted"
	MessageStatusUpdated  = "Order status updated successfully"
	MessageOrderDeleted   = "Order deleted"
	MessageUploadFailed   = "Error occurred while uploading image. "
)

const maxUploadSize = 10 << 20

type catalogService interface {
	CreateItem(ctx context.Context, in menu.ItemInput, image *catalogsvc.Image) (menu.MenuItem, error)
	UpdateItem(ctx context.Context, menuID string, in menu.ItemInput, image *catalogsvc.Image) (menu.MenuItem, error)
	DeleteItem(ctx context.Context, menuID string) error
}

type orderService interface {
	UpdateStatus(ctx context.Context, changedBy string, orderID int64, rawStatus string) (order.Order, error)
	DeleteOrder(ctx context.Context, orderID int64) error
	StatusHistory(ctx context.Context, orderID int64) ([]auditlog.OrderStatusChange, error)
}

type reportService interface {
	Overview(ctx context.Context) (report.Overview, error)
	OrderReport(ctx context.Context) ([]report.OrderRow, error)
}

type productForm struct {
	Name        string   `schema:"name"        validate:"required"`
	Price       int64    `schema:"price"       validate:"gte=0"`
	Description string   `schema:"description"`
	Categories  []string `schema:"categories"  validate:"omitempty,dive,required"`
}

func (f productForm) toModel() menu.ItemInput {
	return menu.ItemInput{
		Name:        f.Name,
		PriceMinor:  f.Price,
		Description: f.Description,
		Categories:  f.Categories,
	}
}

type updateStatusRequest struct {
	OrderID int64  `json:"orderId" validate:"required,gte=1"`
	Status  string `json:"status"  validate:"required"`
}

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)

	return d
}

// parseProductForm reads the multipart product form. The returned file, if
// any, must be closed by the caller.
func parseProductForm(r *http.Request) (productForm, *catalogsvc.Image, multipart.File, error) {
	form := productForm{}
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return form, nil, nil, errs.NewValidation("Invalid product form")
	}
	if err := decoder.Decode(&form, r.MultipartForm.Value); err != nil {
		return form, nil, nil, errs.NewValidation("Invalid product form")
	}
	if err := request.Validate(&form); err != nil {
		return form, nil, nil, err
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return form, nil, nil, nil
	}
	if err != nil {
		return form, nil, nil, errs.NewValidation("Invalid image upload")
	}

	return form, &catalogsvc.Image{File: file, Name: header.Filename}, file, nil
}

func writeCatalogError(w http.ResponseWriter, err error) {
	var upstreamErr *errs.UpstreamError
	if errors.As(err, &upstreamErr) {
		slog.Error("Image upload failed", "error", err)
		response.Fail(w, http.StatusOK, MessageUploadFailed+upstreamErr.Message)
		return
	}

	response.Error(w, err)
}

// CreateItem adds a menu item from a multipart form with an optional image.
func CreateItem(w http.ResponseWriter, r *http.Request, service catalogService) {
	form, image, file, err := parseProductForm(r)
	if err != nil {
		response.Error(w, err)
		return
	}
	if file != nil {
		defer file.Close()
	}

	item, err := service.CreateItem(r.Context(), form.toModel(), image)
	if err != nil {
		writeCatalogError(w, err)
		return
	}

	response.OK(w, MessageProductSaved, item)
}

// UpdateItem edits the menu item {menuId}.
func UpdateItem(w http.ResponseWriter, r *http.Request, service catalogService) {
	form, image, file, err := parseProductForm(r)
	if err != nil {
		response.Error(w, err)
		return
	}
	if file != nil {
		defer file.Close()
	}

	item, err := service.UpdateItem(r.Context(), chi.URLParam(r, "menuId"), form.toModel(), image)
	if err != nil {
		writeCatalogError(w, err)
		return
	}

	response.OK(w, MessageProductSaved, item)
}

// DeleteItem removes the menu item {menuId}.
func DeleteItem(w http.ResponseWriter, r *http.Request, service catalogService) {
	if err := service.DeleteItem(r.Context(), chi.URLParam(r, "menuId")); err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, MessageProductDeleted, nil)
}

// UpdateStatus changes the status of an order on behalf of the current admin.
func UpdateStatus(w http.ResponseWriter, r *http.Request, service orderService) {
	u, _ := auth.UserFrom(r.Context())

	req := updateStatusRequest{}
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}

	updated, err := service.UpdateStatus(r.Context(), u.Email, req.OrderID, req.Status)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, MessageStatusUpdated, updated)
}

// DeleteOrder removes the order {orderId}.
func DeleteOrder(w http.ResponseWriter, r *http.Request, service orderService) {
	id, err := orders.OrderID(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	if err := service.DeleteOrder(r.Context(), id); err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, MessageOrderDeleted, nil)
}

// StatusHistory lists the audited status changes of the order {orderId}.
func StatusHistory(w http.ResponseWriter, r *http.Request, service orderService) {
	id, err := orders.OrderID(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	history, err := service.StatusHistory(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusOK, history)
}

// Overview returns the dashboard revenue figures.
func Overview(w http.ResponseWriter, r *http.Request, service reportService) {
	overview, err := service.Overview(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusOK, overview)
}

// OrdersReport returns one denormalized row per order.
func OrdersReport(w http.ResponseWriter, r *http.Request, service reportService) {
	rows, err := service.OrderReport(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusOK, rows)
}
