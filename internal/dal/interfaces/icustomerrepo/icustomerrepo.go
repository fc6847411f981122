package icustomerrepo

import (
	"context"

	"github.com/corray333/backend-labs/food-ordering/internal/service/models/customer"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/ids"
)

// ICustomerRepository looks customers up by id.
type ICustomerRepository interface {
	FindByID(ctx context.Context, id ids.CustomerID) (customer.Customer, error)
}
