// Package event defines the events the ordering service publishes.
package event

import (
	"fmt"
	"time"

	"github.com/corray333/backend-labs/food-ordering/internal/service/models/ids"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/money"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/order"
	"github.com/google/uuid"
)

// Type is the event type; it doubles as the broker routing key.
type Type string

const (
	// TypeOrderCreated asks the payment service to charge the customer.
	TypeOrderCreated                Type = "order.created"
	TypeRestaurantApprovalRequested Type = "restaurant.approval.requested"
	TypePaymentCancelRequested      Type = "payment.cancel.requested"
	TypeOrderApproved               Type = "order.approved"
	TypeOrderCancelled              Type = "order.cancelled"
)

var effectTypes = map[order.Effect]Type{
	order.EffectRequestApproval: TypeRestaurantApprovalRequested,
	order.EffectCancelPayment:   TypePaymentCancelRequested,
	order.EffectApproved:        TypeOrderApproved,
	order.EffectCancelled:       TypeOrderCancelled,
}

// Product is an ordered product as sent to the restaurant.
type Product struct {
	ID       ids.ProductID `json:"id"`
	Quantity int           `json:"quantity"`
}

// Event is the envelope of every outbound event.
type Event struct {
	ID              uuid.UUID        `json:"id"`
	Type            Type             `json:"type"`
	SagaID          ids.SagaID       `json:"sagaId"`
	OrderID         ids.OrderID      `json:"orderId"`
	CustomerID      ids.CustomerID   `json:"customerId"`
	RestaurantID    ids.RestaurantID `json:"restaurantId"`
	TrackingID      ids.TrackingID   `json:"trackingId"`
	Price           money.Money      `json:"price"`
	Status          order.Status     `json:"status"`
	Products        []Product        `json:"products,omitempty"`
	FailureMessages []string         `json:"failureMessages,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// Key is the partitioning key; all events of one saga share it.
func (e Event) Key() string {
	return e.SagaID.String()
}

func newEvent(t Type, p *order.Persisted, at time.Time) Event {
	return Event{
		ID:           uuid.New(),
		Type:         t,
		SagaID:       p.SagaID(),
		OrderID:      p.ID(),
		CustomerID:   p.CustomerID(),
		RestaurantID: p.RestaurantID(),
		TrackingID:   p.TrackingID(),
		Price:        p.Price(),
		Status:       p.Status(),
		CreatedAt:    at.UTC(),
	}
}

// OrderCreated builds the payment request for a newly stored order.
func OrderCreated(p *order.Persisted, at time.Time) Event {
	return newEvent(TypeOrderCreated, p, at)
}

// ForEffect builds the event a saga transition emits.
func ForEffect(effect order.Effect, p *order.Persisted, at time.Time) (Event, error) {
	t, ok := effectTypes[effect]
	if !ok {
		return Event{}, fmt.Errorf("no event for effect %q", effect)
	}

	e := newEvent(t, p, at)
	switch effect {
	case order.EffectRequestApproval:
		e.Products = products(p)
	case order.EffectCancelled, order.EffectCancelPayment:
		e.FailureMessages = p.FailureMessages()
	}

	return e, nil
}

// products sums quantities per product, keeping first-seen order.
func products(p *order.Persisted) []Product {
	var out []Product
	index := make(map[ids.ProductID]int)
	for _, item := range p.Items() {
		if i, ok := index[item.ProductID]; ok {
			out[i].Quantity += item.Quantity

			continue
		}
		index[item.ProductID] = len(out)
		out = append(out, Product{ID: item.ProductID, Quantity: item.Quantity})
	}

	return out
}
