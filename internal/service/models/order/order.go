package order

import (
	"slices"

	"github.com/corray333/backend-labs/food-ordering/internal/service/models/ids"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/money"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/restaurant"
)

// Address is the delivery address of an order.
type Address struct {
	Street     string `json:"street"`
	PostalCode string `json:"postalCode"`
	City       string `json:"city"`
}

func (a Address) isComplete() bool {
	return a.Street != "" && a.PostalCode != "" && a.City != ""
}

// Order is the order aggregate before it has been stored. Values are built
// with Builder and never change afterwards; Validate returns a new value.
type Order struct {
	customerID      ids.CustomerID
	restaurantID    ids.RestaurantID
	address         Address
	items           []orderitem.OrderItem
	price           money.Money
	trackingID      ids.TrackingID
	sagaID          ids.SagaID
	status          Status
	failureMessages []string
}

func (o Order) CustomerID() ids.CustomerID     { return o.customerID }
func (o Order) RestaurantID() ids.RestaurantID { return o.restaurantID }
func (o Order) Address() Address               { return o.address }
func (o Order) Price() money.Money             { return o.price }
func (o Order) TrackingID() ids.TrackingID     { return o.trackingID }
func (o Order) SagaID() ids.SagaID             { return o.sagaID }
func (o Order) Status() Status                 { return o.status }

// Items returns a copy of the order lines.
func (o Order) Items() []orderitem.OrderItem {
	return slices.Clone(o.items)
}

// FailureMessages returns a copy of the accumulated failure messages.
func (o Order) FailureMessages() []string {
	return slices.Clone(o.failureMessages)
}

// Validate checks the order against a restaurant snapshot. Checks run in a
// fixed order so the first failure is deterministic: total, item prices,
// restaurant availability. On success the returned order is PENDING and
// carries fresh tracking and saga ids.
func (o Order) Validate(r restaurant.Restaurant) (Order, error) {
	if len(o.items) == 0 {
		return Order{}, Validationf("Order must contain at least one item!")
	}
	if !o.price.IsPositive() {
		return Order{}, Validationf("Total price must be greater than zero!")
	}

	sum := money.Zero
	for _, item := range o.items {
		sum = sum.Add(item.SubTotal)
	}
	if !sum.Equal(o.price) {
		return Order{}, Validationf("Total price: %s is not equal to Order items total: %s!", o.price, sum)
	}

	for _, item := range o.items {
		productPrice, ok := r.PriceOf(item.ProductID)
		if !ok {
			return Order{}, Validationf(
				"Product with id %s is not available in restaurant %s!", item.ProductID, r.ID,
			)
		}
		if !item.IsPriceValid(productPrice) {
			return Order{}, Validationf(
				"Order item price: %s is not valid for product %s", item.Price, item.ProductID,
			)
		}
	}

	if !r.Active {
		return Order{}, Validationf("Restaurant with id %s is currently not active!", o.restaurantID)
	}

	validated := o
	validated.items = slices.Clone(o.items)
	validated.trackingID = ids.NewTrackingID()
	validated.sagaID = ids.NewSagaID()
	validated.status = StatusPending
	validated.failureMessages = nil

	return validated, nil
}
