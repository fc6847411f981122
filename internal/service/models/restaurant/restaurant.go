package restaurant

import (
	"errors"

	"github.com/corray333/backend-labs/food-ordering/internal/service/models/ids"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/money"
)

// ErrRestaurantNotFound is returned by lookups when no restaurant matches.
var ErrRestaurantNotFound = errors.New("restaurant not found")

// Product is a product as currently offered by a restaurant.
type Product struct {
	ID    ids.ProductID `json:"id"`
	Name  string        `json:"name"`
	Price money.Money   `json:"price"`
}

// Restaurant is a read-only snapshot of a restaurant and the products an
// order refers to.
type Restaurant struct {
	ID       ids.RestaurantID
	Active   bool
	Products []Product
}

// PriceOf returns the current price of the product.
func (r Restaurant) PriceOf(productID ids.ProductID) (money.Money, bool) {
	for _, p := range r.Products {
		if p.ID == productID {
			return p.Price, true
		}
	}

	return money.Money{}, false
}

// Query selects a restaurant and restricts its products to ProductIDs.
type Query struct {
	RestaurantID ids.RestaurantID
	ProductIDs   []ids.ProductID
}
