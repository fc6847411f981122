// Package sagasvc drives stored orders through payment, restaurant approval
// and compensation as the responses of the other services arrive.
package sagasvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/corray333/backend-labs/food-ordering/internal/dal/interfaces/iuow"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/event"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/ids"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/message"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/order"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/outbox"
	"github.com/corray333/backend-labs/food-ordering/pkg/keymutex"
	"github.com/corray333/backend-labs/food-ordering/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultExchange   = "food-ordering"
	defaultMaxRetries = 5
)

// Reasons a response is dropped, used as metric labels.
const (
	reasonUnknownStatus     = "unknown_status"
	reasonUnknownSaga       = "unknown_saga"
	reasonOrderMismatch     = "order_mismatch"
	reasonIllegalTransition = "illegal_transition"
)

// SagaService applies saga responses to orders.
type SagaService struct {
	newUOW     iuow.Factory
	locks      keymutex.KeyMutex[ids.SagaID]
	exchange   string
	maxRetries int
	metrics    *metrics.Metrics
	now        func() time.Time
}

// option is a function that configures the SagaService.
type option func(*SagaService)

// MustNewSagaService creates a new SagaService. It panics without a unit of work factory.
func MustNewSagaService(opts ...option) *SagaService {
	s := &SagaService{
		exchange:   defaultExchange,
		maxRetries: defaultMaxRetries,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.newUOW == nil {
		panic("sagasvc: unit of work factory is required")
	}

	return s
}

// WithUnitOfWorkFactory sets the unit of work factory for the SagaService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWorkFactory(factory iuow.Factory) option {
	return func(s *SagaService) {
		s.newUOW = factory
	}
}

// WithOutbox sets the exchange and the delivery attempts of outbound events.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOutbox(exchange string, maxRetries int) option {
	return func(s *SagaService) {
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
	return func(s *SagaService) {
		s.metrics = m
	}
}

// HandlePaymentResponse applies a payment or refund outcome.
func (s *SagaService) HandlePaymentResponse(ctx context.Context, r message.PaymentResponse) error {
	ctx, span := otel.Tracer("service").Start(ctx, "SagaService.HandlePaymentResponse")
	defer span.End()
	span.SetAttributes(
		attribute.String("saga.id", r.SagaID.String()),
		attribute.String("payment.status", string(r.PaymentStatus)),
	)

	e, err := r.SagaEvent()
	if err != nil {
		slog.WarnContext(ctx, "Dropping payment response", "saga_id", r.SagaID, "error", err)
		s.metrics.Ignored(reasonUnknownStatus)

		return nil
	}

	return s.handle(ctx, r.SagaID, r.OrderID, e)
}

// HandleRestaurantResponse applies a restaurant approval outcome.
func (s *SagaService) HandleRestaurantResponse(
	ctx context.Context,
	r message.RestaurantApprovalResponse,
) error {
	ctx, span := otel.Tracer("service").Start(ctx, "SagaService.HandleRestaurantResponse")
	defer span.End()
	span.SetAttributes(
		attribute.String("saga.id", r.SagaID.String()),
		attribute.String("approval.status", string(r.OrderApprovalStatus)),
	)

	e, err := r.SagaEvent()
	if err != nil {
		slog.WarnContext(ctx, "Dropping restaurant response", "saga_id", r.SagaID, "error", err)
		s.metrics.Ignored(reasonUnknownStatus)

		return nil
	}

	return s.handle(ctx, r.SagaID, r.OrderID, e)
}

// handle runs one read-modify-write of the order under the saga lock.
// Only storage errors are returned; the caller redelivers on error.
func (s *SagaService) handle(ctx context.Context, sagaID ids.SagaID, orderID ids.OrderID, e order.SagaEvent) error {
	unlock := s.locks.Lock(sagaID)
	defer unlock()

	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return err
	}

	p, err := work.OrderRepository().FindBySagaID(ctx, sagaID)
	if err != nil {
		rollback(ctx, work)
		if errors.Is(err, order.ErrOrderNotFound) {
			slog.WarnContext(ctx, "No order for saga, dropping response", "saga_id", sagaID, "event", e.Kind)
			s.metrics.Ignored(reasonUnknownSaga)

			return nil
		}

		return fmt.Errorf("failed to find order by saga id: %w", err)
	}

	if !orderID.IsZero() && orderID != p.ID() {
		rollback(ctx, work)
		slog.WarnContext(ctx, "Response order id does not match saga, dropping",
			"saga_id", sagaID,
			"order_id", p.ID(),
			"response_order_id", orderID,
		)
		s.metrics.Ignored(reasonOrderMismatch)

		return nil
	}

	from := p.Status()
	effect, err := p.Apply(e)
	if err != nil {
		rollback(ctx, work)
		if errors.Is(err, order.ErrIllegalTransition) {
			slog.DebugContext(ctx, "Ignoring duplicate or out-of-order response",
				"saga_id", sagaID,
				"status", from,
				"event", e.Kind,
			)
			s.metrics.Ignored(reasonIllegalTransition)

			return nil
		}

		return err
	}

	if err := s.save(ctx, work, p, effect); err != nil {
		rollback(ctx, work)

		return err
	}

	s.metrics.Transition(string(from), string(p.Status()))
	slog.InfoContext(ctx, "Order status changed",
		"order_id", p.ID(),
		"saga_id", sagaID,
		"from", from,
		"to", p.Status(),
		"emitted", effect,
	)

	return nil
}

// save writes the new status and the transition's event, then commits.
func (s *SagaService) save(ctx context.Context, work iuow.UnitOfWork, p *order.Persisted, effect order.Effect) error {
	if err := work.OrderRepository().Update(ctx, p); err != nil {
		return err
	}

	e, err := event.ForEffect(effect, p, s.now())
	if err != nil {
		return err
	}
	msg, err := outbox.NewMessage(s.exchange, e, s.maxRetries, s.now())
	if err != nil {
		return err
	}
	if err := work.OutboxRepository().Insert(ctx, msg); err != nil {
		return err
	}

	return work.Commit(ctx)
}

func rollback(ctx context.Context, work iuow.UnitOfWork) {
	if err := work.Rollback(ctx); err != nil {
		slog.ErrorContext(ctx, "Failed to rollback transaction", "error", err)
	}
}
