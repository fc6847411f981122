package restaurant

import (
	"testing"

	"github.com/corray333/backend-labs/food-ordering/internal/service/models/ids"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/money"
	"github.com/stretchr/testify/assert"
)

func TestPriceOf(t *testing.T) {
	known, _ := ids.ParseProductID("7406dd7b-a796-41b0-af89-17bc03399f60")
	r := Restaurant{
		Active: true,
		Products: []Product{
			{ID: known, Name: "product-1", Price: money.MustParse("50.00")},
		},
	}

	price, ok := r.PriceOf(known)
	assert.True(t, ok)
	assert.Equal(t, "50.00", price.String())

	unknown, _ := ids.ParseProductID("d215b5f8-0249-4dc5-89a3-51fd148cfb41")
	_, ok = r.PriceOf(unknown)
	assert.False(t, ok)
}
