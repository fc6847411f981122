package customer

import (
	"errors"

	"github.com/corray333/backend-labs/food-ordering/internal/service/models/ids"
)

// ErrCustomerNotFound is returned by lookups when no customer matches.
var ErrCustomerNotFound = errors.New("customer not found")

// Customer is the local projection of a customer.
type Customer struct {
	ID        ids.CustomerID
	Username  string
	FirstName string
	LastName  string
}
