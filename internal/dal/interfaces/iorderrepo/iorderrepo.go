package iorderrepo

import (
	"context"

	"github.com/corray333/backend-labs/food-ordering/internal/service/models/ids"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/order"
)

// IOrderRepository stores order aggregates.
type IOrderRepository interface {
	// Insert stores a validated order and assigns its identity.
	Insert(ctx context.Context, o order.Order) (*order.Persisted, error)

	// Update writes status and failure messages if the stored version still
	// matches p.Version(); otherwise it returns order.ErrConcurrentUpdate.
	Update(ctx context.Context, p *order.Persisted) error

	FindBySagaID(ctx context.Context, sagaID ids.SagaID) (*order.Persisted, error)
	FindByTrackingID(ctx context.Context, trackingID ids.TrackingID) (*order.Persisted, error)
}
