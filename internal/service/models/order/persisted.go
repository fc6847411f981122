package order

import (
	"slices"
	"time"

	"github.com/corray333/backend-labs/food-ordering/internal/service/models/ids"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/money"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/orderitem"
)

// Persisted is an order that has been stored and therefore has an identity.
// Only the saga changes it, through Apply.
type Persisted struct {
	Order

	id        ids.OrderID
	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// Persist attaches the identity assigned by storage.
func (o Order) Persist(id ids.OrderID, at time.Time) *Persisted {
	o.items = slices.Clone(o.items)
	o.failureMessages = slices.Clone(o.failureMessages)

	return &Persisted{
		Order:     o,
		id:        id,
		version:   1,
		createdAt: at,
		updatedAt: at,
	}
}

func (p *Persisted) ID() ids.OrderID      { return p.id }
func (p *Persisted) Version() int64       { return p.version }
func (p *Persisted) CreatedAt() time.Time { return p.createdAt }
func (p *Persisted) UpdatedAt() time.Time { return p.updatedAt }

// MarkUpdated records a successful versioned write.
func (p *Persisted) MarkUpdated(at time.Time) {
	p.version++
	p.updatedAt = at
}

// Clone returns a deep copy.
func (p *Persisted) Clone() *Persisted {
	c := *p
	c.items = slices.Clone(p.items)
	c.failureMessages = slices.Clone(p.failureMessages)

	return &c
}

// Snapshot is the flat form of a stored order used by repositories.
type Snapshot struct {
	ID              ids.OrderID
	Version         int64
	CustomerID      ids.CustomerID
	RestaurantID    ids.RestaurantID
	Address         Address
	Items           []orderitem.OrderItem
	Price           money.Money
	TrackingID      ids.TrackingID
	SagaID          ids.SagaID
	Status          Status
	FailureMessages []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Restore rebuilds a stored order from its snapshot.
func Restore(s Snapshot) *Persisted {
	return &Persisted{
		Order: Order{
			customerID:      s.CustomerID,
			restaurantID:    s.RestaurantID,
			address:         s.Address,
			items:           slices.Clone(s.Items),
			price:           s.Price,
			trackingID:      s.TrackingID,
			sagaID:          s.SagaID,
			status:          s.Status,
			failureMessages: slices.Clone(s.FailureMessages),
		},
		id:        s.ID,
		version:   s.Version,
		createdAt: s.CreatedAt,
		updatedAt: s.UpdatedAt,
	}
}

// Snapshot flattens the order for storage.
func (p *Persisted) Snapshot() Snapshot {
	return Snapshot{
		ID:              p.id,
		Version:         p.version,
		CustomerID:      p.customerID,
		RestaurantID:    p.restaurantID,
		Address:         p.address,
		Items:           p.Items(),
		Price:           p.price,
		TrackingID:      p.trackingID,
		SagaID:          p.sagaID,
		Status:          p.status,
		FailureMessages: p.FailureMessages(),
		CreatedAt:       p.createdAt,
		UpdatedAt:       p.updatedAt,
	}
}
