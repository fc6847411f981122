package order

import (
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/ids"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/money"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/restaurant"
)

// CreatedMessage is returned to clients when an order was accepted.
const CreatedMessage = "Order Created Successfully"

// CreateOrderCommand is a client's request to place an order.
type CreateOrderCommand struct {
	CustomerID   ids.CustomerID        `json:"customerId"`
	RestaurantID ids.RestaurantID      `json:"restaurantId"`
	Address      Address               `json:"address"`
	Price        money.Money           `json:"price"`
	Items        []orderitem.OrderItem `json:"items"`
}

// Build turns the command into an unvalidated Order.
func (c CreateOrderCommand) Build() (Order, error) {
	return NewBuilder().
		CustomerID(c.CustomerID).
		RestaurantID(c.RestaurantID).
		Address(c.Address).
		Items(c.Items).
		Price(c.Price).
		Build()
}

// RestaurantQuery selects the restaurant and the distinct products the command refers to.
func (c CreateOrderCommand) RestaurantQuery() restaurant.Query {
	q := restaurant.Query{RestaurantID: c.RestaurantID}
	seen := make(map[ids.ProductID]struct{}, len(c.Items))
	for _, item := range c.Items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		q.ProductIDs = append(q.ProductIDs, item.ProductID)
	}

	return q
}

// CreateOrderResponse is returned after an order was accepted.
type CreateOrderResponse struct {
	OrderID    ids.OrderID    `json:"orderId"`
	TrackingID ids.TrackingID `json:"orderTrackingId"`
	Status     Status         `json:"orderStatus"`
	Message    string         `json:"message"`
}

// TrackOrderResponse describes the current state of an order.
type TrackOrderResponse struct {
	TrackingID      ids.TrackingID `json:"orderTrackingId"`
	Status          Status         `json:"orderStatus"`
	FailureMessages []string       `json:"failureMessages"`
}
