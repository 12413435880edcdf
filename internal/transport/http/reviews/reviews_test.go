package reviews

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/corray333/backend-labs/coffeeshop/internal/dal/memory"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/errs"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/menu"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/order"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/user"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/services/reviewsvc"
	"github.com/corray333/backend-labs/coffeeshop/pkg/http/middleware/auth"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var customer = user.User{Email: "sari@example.com", UserName: "Sari", Role: user.RoleUser}

func newFixture(t *testing.T) (*memory.Store, http.Handler) {
	t.Helper()

	store := memory.NewStore()
	store.PutMenuItem(menu.MenuItem{MenuID: "CF01", Name: "Kopi Susu", PriceMinor: 15000, Categories: []string{"coffee"}})
	store.PutUser(customer)
	store.PutOrder(order.Order{
		ID:        2,
		UserEmail: customer.Email,
		Lines:     []order.LineSnapshot{{MenuID: "CF01", Name: "Kopi Susu", PriceMinor: 15000, Quantity: 1}},
		Status:    order.StatusCompleted,
		CreatedAt: time.Now(),
	})

	svc := reviewsvc.MustNewReviewService(reviewsvc.WithUnitOfWork(store.Factory()))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), customer)))
		})
	})
	r.Post("/api/reviews/check", func(w http.ResponseWriter, r *http.Request) { CheckReview(w, r, svc) })
	r.Post("/api/reviews", func(w http.ResponseWriter, r *http.Request) { SubmitReview(w, r, svc) })

	return store, r
}

func post(t *testing.T, h http.Handler, path, body string) map[string]any {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))

	return out
}

func TestSubmitAndCheck(t *testing.T) {
	store, h := newFixture(t)

	before := post(t, h, "/api/reviews/check", `{"orderId":2,"itemId":"CF01"}`)
	assert.Equal(t, false, before["reviewed"])

	submitted := post(t, h, "/api/reviews", `{"orderId":2,"itemId":"CF01","rating":5,"reviewText":"Mantap"}`)
	assert.Equal(t, true, submitted["success"])
	assert.Equal(t, MessageReviewSubmitted, submitted["message"])

	after := post(t, h, "/api/reviews/check", `{"orderId":2,"itemId":"CF01"}`)
	assert.Equal(t, true, after["reviewed"])

	duplicate := post(t, h, "/api/reviews", `{"orderId":2,"itemId":"CF01","rating":1,"reviewText":"again"}`)
	assert.Equal(t, false, duplicate["success"])
	assert.Equal(t, errs.ErrAlreadyReviewed.Message, duplicate["message"])

	item, ok := store.MenuItem("CF01")
	require.True(t, ok)
	assert.Equal(t, int64(1), item.Ratings.Count(5))
	assert.Equal(t, int64(0), item.Ratings.Count(1))
	assert.Len(t, store.Reviews(), 1)
}

func TestSubmitReviewRejects(t *testing.T) {
	store, h := newFixture(t)

	for _, body := range []string{
		`{"orderId":2,"itemId":"CF01","rating":0}`,
		`{"orderId":2,"itemId":"CF01","rating":6}`,
		`{"orderId":2,"rating":5}`,
		`{"orderId":2,"itemId":"SN01","rating":5}`,
	} {
		out := post(t, h, "/api/reviews", body)
		assert.Equal(t, false, out["success"], body)
		assert.NotEmpty(t, out["message"], body)
	}

	assert.Empty(t, store.Reviews())
}
