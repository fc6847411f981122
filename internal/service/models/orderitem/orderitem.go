package orderitem

import (
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/ids"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/money"
)

// OrderItem is a single order line.
type OrderItem struct {
	ProductID ids.ProductID `json:"productId"`
	Quantity  int           `json:"quantity"`
	Price     money.Money   `json:"price"`
	SubTotal  money.Money   `json:"subTotal"`
}

// IsPriceValid reports whether the item is priced at productPrice and its
// subtotal equals price times quantity.
func (i OrderItem) IsPriceValid(productPrice money.Money) bool {
	return i.Price.IsPositive() &&
		i.Price.Equal(productPrice) &&
		i.Price.Multiply(i.Quantity).Equal(i.SubTotal)
}
