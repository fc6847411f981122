package irestaurantrepo

import (
	"context"

	"github.com/corray333/backend-labs/food-ordering/internal/service/models/restaurant"
)

// IRestaurantRepository returns restaurant snapshots.
type IRestaurantRepository interface {
	// FindRestaurant returns the restaurant with only the queried products.
	FindRestaurant(ctx context.Context, q restaurant.Query) (restaurant.Restaurant, error)
}
