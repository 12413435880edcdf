package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/corray333/backend-labs/coffeeshop/internal/service/errs"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/menu"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	categories []string
}

func (f *fakeService) ListMenu(_ context.Context, categories []string) ([]menu.ListedItem, error) {
	f.categories = categories

	return []menu.ListedItem{{
		MenuItem:      menu.MenuItem{MenuID: "CF01", Name: "Kopi Susu", PriceMinor: 15000},
		AverageRating: 4.8,
	}}, nil
}

func (f *fakeService) GetProduct(_ context.Context, menuID string) (menu.ProductDetail, error) {
	if menuID != "CF01" {
		return menu.ProductDetail{}, errs.NotFound("menu item", menuID)
	}

	return menu.ProductDetail{Item: menu.MenuItem{MenuID: "CF01"}, TotalReviews: 2}, nil
}

func newRouter(svc *fakeService) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/menu", func(w http.ResponseWriter, r *http.Request) { ListMenu(w, r, svc) })
	r.Get("/api/menu/{menuId}", func(w http.ResponseWriter, r *http.Request) { GetProduct(w, r, svc) })

	return r
}

func TestListMenuDecodesCategories(t *testing.T) {
	svc := &fakeService{}
	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/menu?category=coffee&category=snack", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"coffee", "snack"}, svc.categories)

	var items []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "CF01", items[0]["menuId"])
	assert.Equal(t, 4.8, items[0]["average_rating"])
}

func TestListMenuWithoutFilter(t *testing.T) {
	svc := &fakeService{}
	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/menu", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, svc.categories)
}

func TestGetProduct(t *testing.T) {
	svc := &fakeService{}

	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/menu/CF01", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var detail map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.EqualValues(t, 2, detail["totalReviews"])

	rec = httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/menu/XX99", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
