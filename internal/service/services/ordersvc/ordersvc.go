package ordersvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/corray333/backend-labs/food-ordering/internal/dal/interfaces/icustomerrepo"
	"github.com/corray333/backend-labs/food-ordering/internal/dal/interfaces/irestaurantrepo"
	"github.com/corray333/backend-labs/food-ordering/internal/dal/interfaces/iuow"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/customer"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/event"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/ids"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/order"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/outbox"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/restaurant"
	"github.com/corray333/backend-labs/food-ordering/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultExchange   = "food-ordering"
	defaultMaxRetries = 5
)

// OrderService is a service for placing and tracking orders.
type OrderService struct {
	customerRepo   icustomerrepo.ICustomerRepository
	restaurantRepo irestaurantrepo.IRestaurantRepository
	newUOW         iuow.Factory
	exchange       string
	maxRetries     int
	metrics        *metrics.Metrics
	now            func() time.Time
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService. It panics if a repository is missing.
func MustNewOrderService(opts ...option) *OrderService {
	s := &OrderService{
		exchange:   defaultExchange,
		maxRetries: defaultMaxRetries,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.customerRepo == nil || s.restaurantRepo == nil || s.newUOW == nil {
		panic("ordersvc: customer repository, restaurant repository and unit of work are required")
	}

	return s
}

// WithCustomerRepository sets the customer repository for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithCustomerRepository(repo icustomerrepo.ICustomerRepository) option {
	return func(s *OrderService) {
		s.customerRepo = repo
	}
}

// WithRestaurantRepository sets the restaurant repository for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithRestaurantRepository(repo irestaurantrepo.IRestaurantRepository) option {
	return func(s *OrderService) {
		s.restaurantRepo = repo
	}
}

// WithUnitOfWorkFactory sets the unit of work factory for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWorkFactory(factory iuow.Factory) option {
	return func(s *OrderService) {
		s.newUOW = factory
	}
}

// WithOutbox sets the exchange and the delivery attempts of outbound events.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOutbox(exchange string, maxRetries int) option {
	return func(s *OrderService) {
		if exchange != "" {
			s.exchange = exchange
		}
		if maxRetries > 0 {
			s.maxRetries = maxRetries
		}
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithMetrics(m *metrics.Metrics) option {
	return func(s *OrderService) {
		s.metrics = m
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(s *OrderService) {
		s.now = now
	}
}

// CreateOrder validates the command against the current customer and
// restaurant data, stores the order and queues the payment request.
func (s *OrderService) CreateOrder(
	ctx context.Context,
	cmd order.CreateOrderCommand,
) (order.CreateOrderResponse, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "OrderService.CreateOrder")
	defer span.End()

	// Structural checks run first so zero ids never reach the repositories.
	o, err := cmd.Build()
	if err != nil {
		return order.CreateOrderResponse{}, err
	}

	if _, err := s.customerRepo.FindByID(ctx, cmd.CustomerID); err != nil {
		if errors.Is(err, customer.ErrCustomerNotFound) {
			return order.CreateOrderResponse{}, order.NotFoundf("Customer with id %s not found", cmd.CustomerID)
		}

		return order.CreateOrderResponse{}, fmt.Errorf("failed to find customer: %w", err)
	}

	r, err := s.restaurantRepo.FindRestaurant(ctx, cmd.RestaurantQuery())
	if err != nil {
		if errors.Is(err, restaurant.ErrRestaurantNotFound) {
			return order.CreateOrderResponse{}, order.NotFoundf("Restaurant with id %s not found", cmd.RestaurantID)
		}

		return order.CreateOrderResponse{}, fmt.Errorf("failed to find restaurant: %w", err)
	}

	o, err = o.Validate(r)
	if err != nil {
		slog.InfoContext(ctx, "Order rejected", "customer_id", cmd.CustomerID, "reason", err.Error())

		return order.CreateOrderResponse{}, err
	}

	p, err := s.persist(ctx, o)
	if err != nil {
		return order.CreateOrderResponse{}, err
	}

	span.SetAttributes(
		attribute.String("order.id", p.ID().String()),
		attribute.String("order.saga_id", p.SagaID().String()),
	)
	s.metrics.OrderCreated()
	slog.InfoContext(ctx, "Order created",
		"order_id", p.ID(),
		"tracking_id", p.TrackingID(),
		"saga_id", p.SagaID(),
	)

	return order.CreateOrderResponse{
		OrderID:    p.ID(),
		TrackingID: p.TrackingID(),
		Status:     p.Status(),
		Message:    order.CreatedMessage,
	}, nil
}

// persist stores the order and its order-created event in one transaction.
func (s *OrderService) persist(ctx context.Context, o order.Order) (*order.Persisted, error) {
	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return nil, err
	}

	p, err := work.OrderRepository().Insert(ctx, o)
	if err != nil {
		rollback(ctx, work)

		return nil, err
	}

	msg, err := outbox.NewMessage(s.exchange, event.OrderCreated(p, s.now()), s.maxRetries, s.now())
	if err != nil {
		rollback(ctx, work)

		return nil, err
	}
	if err := work.OutboxRepository().Insert(ctx, msg); err != nil {
		rollback(ctx, work)

		return nil, err
	}

	if err := work.Commit(ctx); err != nil {
		rollback(ctx, work)

		return nil, err
	}

	return p, nil
}

// TrackOrder returns the current status of the order with the given tracking id.
func (s *OrderService) TrackOrder(
	ctx context.Context,
	trackingID ids.TrackingID,
) (order.TrackOrderResponse, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "OrderService.TrackOrder")
	defer span.End()

	p, err := s.newUOW().OrderRepository().FindByTrackingID(ctx, trackingID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			return order.TrackOrderResponse{}, order.NotFoundf("Could not find order with tracking id: %s", trackingID)
		}

		return order.TrackOrderResponse{}, fmt.Errorf("failed to find order: %w", err)
	}

	messages := p.FailureMessages()
	if messages == nil {
		messages = []string{}
	}

	return order.TrackOrderResponse{
		TrackingID:      p.TrackingID(),
		Status:          p.Status(),
		FailureMessages: messages,
	}, nil
}

func rollback(ctx context.Context, work iuow.UnitOfWork) {
	if err := work.Rollback(ctx); err != nil {
		slog.ErrorContext(ctx, "Failed to rollback transaction", "error", err)
	}
}
