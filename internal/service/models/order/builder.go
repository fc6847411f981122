package order

import (
	"slices"

	"github.com/corray333/backend-labs/food-ordering/internal/service/models/ids"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/money"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/orderitem"
)

// Builder assembles an Order and checks its structure.
type Builder struct {
	o Order
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) CustomerID(id ids.CustomerID) *Builder {
	b.o.customerID = id

	return b
}

func (b *Builder) RestaurantID(id ids.RestaurantID) *Builder {
	b.o.restaurantID = id

	return b
}

func (b *Builder) Address(a Address) *Builder {
	b.o.address = a

	return b
}

func (b *Builder) Items(items []orderitem.OrderItem) *Builder {
	b.o.items = slices.Clone(items)

	return b
}

func (b *Builder) Price(price money.Money) *Builder {
	b.o.price = price

	return b
}

// Build returns the assembled order or the first structural violation.
func (b *Builder) Build() (Order, error) {
	if b.o.customerID.IsZero() {
		return Order{}, Validationf("Customer id must be provided!")
	}
	if b.o.restaurantID.IsZero() {
		return Order{}, Validationf("Restaurant id must be provided!")
	}
	if !b.o.address.isComplete() {
		return Order{}, Validationf("Delivery address is incomplete!")
	}
	if len(b.o.items) == 0 {
		return Order{}, Validationf("Order must contain at least one item!")
	}
	for _, item := range b.o.items {
		if item.Quantity <= 0 {
			return Order{}, Validationf("Order item quantity must be positive for product %s!", item.ProductID)
		}
	}

	o := b.o
	o.items = slices.Clone(b.o.items)

	return o, nil
}
