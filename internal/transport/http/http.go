package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/corray333/backend-labs/coffeeshop/internal/metrics"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/auditlog"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/cart"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/menu"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/order"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/pricing"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/report"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/review"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/user"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/services/cartsvc"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/services/catalogsvc"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/services/reviewsvc"
	"github.com/corray333/backend-labs/coffeeshop/internal/transport/http/admin"
	carthandlers "github.com/corray333/backend-labs/coffeeshop/internal/transport/http/cart"
	"github.com/corray333/backend-labs/coffeeshop/internal/transport/http/catalog"
	"github.com/corray333/backend-labs/coffeeshop/internal/transport/http/orders"
	"github.com/corray333/backend-labs/coffeeshop/internal/transport/http/reviews"
	"github.com/corray333/backend-labs/coffeeshop/pkg/http/middleware/auth"
	"github.com/corray333/backend-labs/coffeeshop/pkg/http/middleware/trace"
	"github.com/corray333/backend-labs/coffeeshop/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
)

type catalogService interface {
	ListMenu(ctx context.Context, categories []string) ([]menu.ListedItem, error)
	GetProduct(ctx context.Context, menuID string) (menu.ProductDetail, error)
	CreateItem(ctx context.Context, in menu.ItemInput, image *catalogsvc.Image) (menu.MenuItem, error)
	UpdateItem(ctx context.Context, menuID string, in menu.ItemInput, image *catalogsvc.Image) (menu.MenuItem, error)
	DeleteItem(ctx context.Context, menuID string) error
}

type cartService interface {
	View(ctx context.Context, userEmail string) (cart.View, error)
	AddItem(ctx context.Context, userEmail string, in cartsvc.AddItemInput) (cart.Line, error)
	SetQuantity(ctx context.Context, userEmail, menuID string, quantity int64) (cartsvc.QuantityUpdate, error)
	RemoveItem(ctx context.Context, userEmail, itemID string) error
	ApplyVoucher(ctx context.Context, userEmail, code string) (pricing.VoucherPreview, error)
}

type orderService interface {
	Checkout(ctx context.Context, userEmail string) (order.Order, error)
	GetOrders(ctx context.Context, userEmail string, page, pageSize int) ([]order.Order, error)
	GetOrder(ctx context.Context, viewer user.User, orderID int64) (order.Order, error)
	ExportReceipt(ctx context.Context, viewer user.User, orderID int64) ([]byte, error)
	UpdateStatus(ctx context.Context, changedBy string, orderID int64, rawStatus string) (order.Order, error)
	DeleteOrder(ctx context.Context, orderID int64) error
	StatusHistory(ctx context.Context, orderID int64) ([]auditlog.OrderStatusChange, error)
}

type reviewService interface {
	CheckReview(ctx context.Context, userEmail string, orderID int64, menuID string) (bool, error)
	SubmitReview(ctx context.Context, userEmail string, in reviewsvc.SubmitInput) (review.Review, error)
}

type reportService interface {
	Overview(ctx context.Context) (report.Overview, error)
	OrderReport(ctx context.Context) ([]report.OrderRow, error)
}

type authenticator interface {
	RequireUser(next http.Handler) http.Handler
	RequirePageUser(next http.Handler) http.Handler
}

// Services groups the services behind the HTTP API.
type Services struct {
	Catalog catalogService
	Cart    cartService
	Orders  orderService
	Reviews reviewService
	Reports reportService
}

type HTTPTransport struct {
	server   *http.Server
	router   *chi.Mux
	services Services
	authn    authenticator
}

//goland:noinspection GoExportedFuncWithUnexportedType
func NewHTTPTransport(services Services, authn authenticator) *HTTPTransport {
	router := newRouter()
	server := newServer(router)
	return &HTTPTransport{
		server:   server,
		router:   router,
		services: services,
		authn:    authn,
	}
}

func (h *HTTPTransport) Run() error {
	return h.server.ListenAndServe()
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// Handler exposes the router, mainly for tests.
func (h *HTTPTransport) Handler() http.Handler {
	return h.router
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	h.router.Handle("/metrics", promhttp.Handler())

	h.router.Route("/api", func(r chi.Router) {
		r.Get("/menu", h.listMenu)
		r.Get("/menu/{menuId}", h.getProduct)

		r.With(h.authn.RequirePageUser).Get("/orders/{orderId}/receipt", h.receipt)

		r.Group(func(r chi.Router) {
			r.Use(h.authn.RequireUser)

			r.Get("/cart", h.viewCart)
			r.Post("/cart/items", h.addCartItem)
			r.Patch("/cart/items", h.setCartQuantity)
			r.Delete("/cart/items/{itemId}", h.removeCartItem)
			r.Post("/cart/voucher", h.applyVoucher)
			r.Post("/cart/checkout", h.checkout)

			r.Get("/orders", h.listOrders)
			r.Get("/orders/{orderId}", h.getOrder)

			r.Post("/reviews/check", h.checkReview)
			r.Post("/reviews", h.submitReview)

			r.Route("/admin", func(r chi.Router) {
				r.Use(auth.RequireAdmin)

				r.Post("/menu", h.createMenuItem)
				r.Put("/menu/{menuId}", h.updateMenuItem)
				r.Delete("/menu/{menuId}", h.deleteMenuItem)
				r.Post("/orders/status", h.updateOrderStatus)
				r.Get("/orders", h.ordersReport)
				r.Delete("/orders/{orderId}", h.deleteOrder)
				r.Get("/orders/{orderId}/history", h.orderStatusHistory)
				r.Get("/overview", h.overview)
			})
		})
	})
}

func (h *HTTPTransport) listMenu(w http.ResponseWriter, r *http.Request) {
	catalog.ListMenu(w, r, h.services.Catalog)
}

func (h *HTTPTransport) getProduct(w http.ResponseWriter, r *http.Request) {
	catalog.GetProduct(w, r, h.services.Catalog)
}

func (h *HTTPTransport) viewCart(w http.ResponseWriter, r *http.Request) {
	carthandlers.View(w, r, h.services.Cart)
}

func (h *HTTPTransport) addCartItem(w http.ResponseWriter, r *http.Request) {
	carthandlers.AddItem(w, r, h.services.Cart)
}

func (h *HTTPTransport) setCartQuantity(w http.ResponseWriter, r *http.Request) {
	carthandlers.SetQuantity(w, r, h.services.Cart)
}

func (h *HTTPTransport) removeCartItem(w http.ResponseWriter, r *http.Request) {
	carthandlers.RemoveItem(w, r, h.services.Cart)
}

func (h *HTTPTransport) applyVoucher(w http.ResponseWriter, r *http.Request) {
	carthandlers.ApplyVoucher(w, r, h.services.Cart)
}

func (h *HTTPTransport) checkout(w http.ResponseWriter, r *http.Request) {
	orders.Checkout(w, r, h.services.Orders)
}

func (h *HTTPTransport) listOrders(w http.ResponseWriter, r *http.Request) {
	orders.ListOrders(w, r, h.services.Orders)
}

func (h *HTTPTransport) getOrder(w http.ResponseWriter, r *http.Request) {
	orders.GetOrder(w, r, h.services.Orders)
}

func (h *HTTPTransport) receipt(w http.ResponseWriter, r *http.Request) {
	orders.Receipt(w, r, h.services.Orders)
}

func (h *HTTPTransport) checkReview(w http.ResponseWriter, r *http.Request) {
	reviews.CheckReview(w, r, h.services.Reviews)
}

func (h *HTTPTransport) submitReview(w http.ResponseWriter, r *http.Request) {
	reviews.SubmitReview(w, r, h.services.Reviews)
}

func (h *HTTPTransport) createMenuItem(w http.ResponseWriter, r *http.Request) {
	admin.CreateItem(w, r, h.services.Catalog)
}

func (h *HTTPTransport) updateMenuItem(w http.ResponseWriter, r *http.Request) {
	admin.UpdateItem(w, r, h.services.Catalog)
}

func (h *HTTPTransport) deleteMenuItem(w http.ResponseWriter, r *http.Request) {
	admin.DeleteItem(w, r, h.services.Catalog)
}

func (h *HTTPTransport) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	admin.UpdateStatus(w, r, h.services.Orders)
}

func (h *HTTPTransport) deleteOrder(w http.ResponseWriter, r *http.Request) {
	admin.DeleteOrder(w, r, h.services.Orders)
}

func (h *HTTPTransport) orderStatusHistory(w http.ResponseWriter, r *http.Request) {
	admin.StatusHistory(w, r, h.services.Orders)
}

func (h *HTTPTransport) overview(w http.ResponseWriter, r *http.Request) {
	admin.Overview(w, r, h.services.Reports)
}

func (h *HTTPTransport) ordersReport(w http.ResponseWriter, r *http.Request) {
	admin.OrdersReport(w, r, h.services.Reports)
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))
	router.Use(metrics.PrometheusMiddleware)
	router.Use(trace.NewTraceMiddleware)

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	return router
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:    "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler: router,
	}
}
