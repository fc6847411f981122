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

	"github.com/corray333/backend-labs/food-ordering/internal/dal/kafka"
	"github.com/corray333/backend-labs/food-ordering/internal/dal/postgres"
	"github.com/corray333/backend-labs/food-ordering/internal/dal/rabbitmq"
	customerrepo "github.com/corray333/backend-labs/food-ordering/internal/dal/repositories/customer/postgres"
	inboxrepo "github.com/corray333/backend-labs/food-ordering/internal/dal/repositories/inbox/postgres"
	outboxrepo "github.com/corray333/backend-labs/food-ordering/internal/dal/repositories/outbox/postgres"
	restaurantrepo "github.com/corray333/backend-labs/food-ordering/internal/dal/repositories/restaurant/postgres"
	"github.com/corray333/backend-labs/food-ordering/internal/dal/uow"
	"github.com/corray333/backend-labs/food-ordering/internal/otel"
	"github.com/corray333/backend-labs/food-ordering/internal/service/services/ordersvc"
	"github.com/corray333/backend-labs/food-ordering/internal/service/services/sagasvc"
	"github.com/corray333/backend-labs/food-ordering/internal/transport/consumer"
	grpctransport "github.com/corray333/backend-labs/food-ordering/internal/transport/grpc"
	httptransport "github.com/corray333/backend-labs/food-ordering/internal/transport/http"
	inboxworker "github.com/corray333/backend-labs/food-ordering/internal/worker/inbox"
	outboxworker "github.com/corray333/backend-labs/food-ordering/internal/worker/outbox"
	"github.com/corray333/backend-labs/food-ordering/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

// App represents the application.
type App struct {
	otel           *otel.OtelController
	postgresClient *postgres.Client
	rabbitClient   *rabbitmq.Client
	kafkaClient    *kafka.Client
	httpTransport  *httptransport.HTTPTransport
	grpcTransport  *grpctransport.GRPCTransport
	consumer       *consumer.Consumer
	outboxWorker   *outboxworker.Worker
	inboxWorker    *inboxworker.Worker
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel()
	postgresClient := postgres.MustNewClient()
	rabbitClient := rabbitmq.MustNewClient()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	pool := postgresClient.Pool()
	exchange := viper.GetString("rabbitmq.exchange")
	maxRetries := viper.GetInt("outbox.max_retries")

	orderSvc := ordersvc.MustNewOrderService(
		ordersvc.WithCustomerRepository(customerrepo.NewCustomerRepository(pool)),
		ordersvc.WithRestaurantRepository(restaurantrepo.NewRestaurantRepository(pool)),
		ordersvc.WithUnitOfWorkFactory(uow.NewFactory(postgresClient)),
		ordersvc.WithOutbox(exchange, maxRetries),
		ordersvc.WithMetrics(m),
	)
	sagaSvc := sagasvc.MustNewSagaService(
		sagasvc.WithUnitOfWorkFactory(uow.NewFactory(postgresClient)),
		sagasvc.WithOutbox(exchange, maxRetries),
		sagasvc.WithMetrics(m),
	)

	httpTransport := httptransport.NewHTTPTransport(orderSvc, m)
	httpTransport.RegisterRoutes()

	inboxRepo := inboxrepo.NewInboxRepository(pool)
	dispatcher := consumer.NewDispatcher(sagaSvc)

	a := &App{
		otel:           otelController,
		postgresClient: postgresClient,
		rabbitClient:   rabbitClient,
		httpTransport:  httpTransport,
		grpcTransport:  grpctransport.NewGRPCTransport(orderSvc, m),
		consumer:       consumer.NewConsumer(rabbitClient, inboxRepo, dispatcher),
		inboxWorker:    inboxworker.NewWorker(inboxRepo, dispatcher),
	}

	outboxRepo := outboxrepo.NewOutboxRepository(pool)
	switch broker := viper.GetString("outbox.broker"); broker {
	case "kafka":
		a.kafkaClient = kafka.MustNewClient()
		a.outboxWorker = outboxworker.NewWorker(outboxRepo, a.kafkaClient, m)
	case "rabbitmq", "":
		a.outboxWorker = outboxworker.NewWorker(outboxRepo, rabbitClient, m)
	default:
		panic("unknown outbox.broker: " + broker)
	}

	return a
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.httpTransport.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})
	g.Go(a.grpcTransport.Run)
	g.Go(func() error {
		return a.consumer.Run(gctx)
	})
	g.Go(func() error {
		a.outboxWorker.Start(gctx)

		return nil
	})
	g.Go(func() error {
		a.inboxWorker.Start(gctx)

		return nil
	})

	<-gctx.Done()
	slog.Info("Shutdown signal received")

	a.shutdown()

	if err := g.Wait(); err != nil {
		slog.Error("Application stopped with error", "error", err)
	}

	a.close()
	slog.Info("Application shutdown complete")
}

// shutdown stops accepting work; the errgroup members return afterwards.
func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpTransport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	if err := a.grpcTransport.Shutdown(ctx); err != nil {
		slog.Error("gRPC server shutdown error", "error", err)
	} else {
		slog.Info("gRPC server stopped gracefully")
	}

	if err := a.consumer.Shutdown(); err != nil {
		slog.Error("Consumer shutdown error", "error", err)
	}
}

// close releases broker, database and tracing resources.
func (a *App) close() {
	if a.kafkaClient != nil {
		if err := a.kafkaClient.Close(); err != nil {
			slog.Error("Kafka writer close error", "error", err)
		}
	}

	if err := a.rabbitClient.Close(); err != nil {
		slog.Error("RabbitMQ connection close error", "error", err)
	} else {
		slog.Info("RabbitMQ connection closed gracefully")
	}

	a.postgresClient.Close()
	slog.Info("Database connection closed gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.otel.Shutdown(ctx); err != nil {
		slog.Error("Tracer shutdown error", "error", err)
	}
}
