package catalog

import (
	"context"
	"net/http"

	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/menu"
	"github.com/corray333/backend-labs/coffeeshop/internal/transport/http/response"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/schema"
)

type service interface {
	ListMenu(ctx context.Context, categories []string) ([]menu.ListedItem, error)
	GetProduct(ctx context.Context, menuID string) (menu.ProductDetail, error)
}

type listMenuRequest struct {
	Categories []string `schema:"category,omitempty"`
}

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)

	return d
}

// ListMenu lists the menu, optionally filtered by one or more ?category= values.
func ListMenu(w http.ResponseWriter, r *http.Request, service service) {
	query := &listMenuRequest{}
	if err := decoder.Decode(query, r.URL.Query()); err != nil {
		response.BadRequest(w, err)
		return
	}

	items, err := service.ListMenu(r.Context(), query.Categories)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusOK, items)
}

// GetProduct returns the product page payload for {menuId}.
func GetProduct(w http.ResponseWriter, r *http.Request, service service) {
	detail, err := service.GetProduct(r.Context(), chi.URLParam(r, "menuId"))
	if err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusOK, detail)
}
