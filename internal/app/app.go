package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/corray333/backend-labs/coffeeshop/internal/dal/imagekit"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/pdfcrowd"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/postgres"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/rabbitmq"
	eventsrepo "github.com/corray333/backend-labs/coffeeshop/internal/dal/repositories/events/rabbitmq"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/uow"
	"github.com/corray333/backend-labs/coffeeshop/internal/otel"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/services/cartsvc"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/services/catalogsvc"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/services/ordersvc"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/services/reportsvc"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/services/reviewsvc"
	httptransport "github.com/corray333/backend-labs/coffeeshop/internal/transport/http"
	"github.com/corray333/backend-labs/coffeeshop/internal/worker/outbox"
	"github.com/corray333/backend-labs/coffeeshop/pkg/http/middleware/auth"
	"github.com/spf13/viper"
)

const defaultExchange = "coffeeshop"

// App represents the application.
type App struct {
	transport      *httptransport.HTTPTransport
	outboxWorker   *outbox.Worker
	postgresClient *postgres.Client
	rabbitClient   *rabbitmq.Client
	otel           *otel.OtelController
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel()
	postgresClient := postgres.MustNewClient()
	rabbitClient := rabbitmq.MustNewClient()

	exchange := viper.GetString("rabbitmq.exchange")
	if exchange == "" {
		exchange = defaultExchange
	}

	catalogSvc := catalogsvc.MustNewCatalogService(
		catalogsvc.WithPostgresClient(postgresClient),
		catalogsvc.WithImageUploader(imagekit.NewClient()),
	)
	cartSvc := cartsvc.MustNewCartService(
		cartsvc.WithPostgresClient(postgresClient),
	)
	orderSvc := ordersvc.MustNewOrderService(
		ordersvc.WithPostgresClient(postgresClient),
		ordersvc.WithReceiptExporter(pdfcrowd.NewClient()),
		ordersvc.WithExchange(exchange),
	)
	reviewSvc := reviewsvc.MustNewReviewService(
		reviewsvc.WithPostgresClient(postgresClient),
	)
	reportSvc := reportsvc.MustNewReportService(
		reportsvc.WithPostgresClient(postgresClient),
	)

	authenticator := auth.NewAuthenticator(uow.NewUnitOfWork(postgresClient).UserRepository())

	transport := httptransport.NewHTTPTransport(httptransport.Services{
		Catalog: catalogSvc,
		Cart:    cartSvc,
		Orders:  orderSvc,
		Reviews: reviewSvc,
		Reports: reportSvc,
	}, authenticator)
	transport.RegisterRoutes()

	outboxWorker := outbox.NewWorker(
		uow.NewUnitOfWork(postgresClient).OutboxRepository(),
		eventsrepo.NewEventsRabbitMQRepository(rabbitClient, exchange),
	)

	return &App{
		transport:      transport,
		outboxWorker:   outboxWorker,
		postgresClient: postgresClient,
		rabbitClient:   rabbitClient,
		otel:           otelController,
	}
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	// Create a channel to receive OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	workerCtx, cancelWorker := context.WithCancel(context.Background())
	defer cancelWorker()

	go a.outboxWorker.Start(workerCtx)

	go func() {
		slog.Info("Starting HTTP server", "port", viper.GetString("server.http.port"))
		if err := a.transport.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	<-stop
	slog.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.transport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	if err := a.outboxWorker.Stop(ctx); err != nil {
		slog.Error("Order event relay did not stop in time", "error", err)
	}
	cancelWorker()

	if err := a.rabbitClient.Close(); err != nil {
		slog.Error("RabbitMQ connection close error", "error", err)
	} else {
		slog.Info("RabbitMQ connection closed gracefully")
	}

	a.postgresClient.Close()
	slog.Info("Database connection closed")

	if err := a.otel.Shutdown(ctx); err != nil {
		slog.Error("Tracer provider shutdown error", "error", err)
	}

	slog.Info("Application shutdown complete")
}
