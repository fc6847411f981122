// Package ids defines the typed identifiers used across the ordering domain.
// Every identifier wraps a UUID; distinct types keep an order id from being
// passed where a customer id is expected.
package ids

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidID is returned when an identifier cannot be parsed.
var ErrInvalidID = errors.New("invalid identifier")

type (
	orderKind      struct{}
	customerKind   struct{}
	restaurantKind struct{}
	productKind    struct{}
	trackingKind   struct{}
	sagaKind       struct{}
)

// ID is a UUID tagged with the kind of entity it identifies.
// The zero value means "absent".
type ID[K any] struct {
	value uuid.UUID
}

type (
	OrderID      = ID[orderKind]
	CustomerID   = ID[customerKind]
	RestaurantID = ID[restaurantKind]
	ProductID    = ID[productKind]
	TrackingID   = ID[trackingKind]
	SagaID       = ID[sagaKind]
)

func newID[K any]() ID[K] {
	return ID[K]{value: uuid.New()}
}

func parse[K any](s string) (ID[K], error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ID[K]{}, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}

	return ID[K]{value: u}, nil
}

func NewOrderID() OrderID       { return newID[orderKind]() }
func NewTrackingID() TrackingID { return newID[trackingKind]() }
func NewSagaID() SagaID         { return newID[sagaKind]() }

func ParseOrderID(s string) (OrderID, error)           { return parse[orderKind](s) }
func ParseCustomerID(s string) (CustomerID, error)     { return parse[customerKind](s) }
func ParseRestaurantID(s string) (RestaurantID, error) { return parse[restaurantKind](s) }
func ParseProductID(s string) (ProductID, error)       { return parse[productKind](s) }
func ParseTrackingID(s string) (TrackingID, error)     { return parse[trackingKind](s) }
func ParseSagaID(s string) (SagaID, error)             { return parse[sagaKind](s) }

// String returns the canonical UUID text, or "" for the zero value.
func (id ID[K]) String() string {
	if id.IsZero() {
		return ""
	}

	return id.value.String()
}

// IsZero reports whether the identifier is absent.
func (id ID[K]) IsZero() bool {
	return id.value == uuid.Nil
}

// UUID returns the wrapped value.
func (id ID[K]) UUID() uuid.UUID {
	return id.value
}

// MarshalText implements encoding.TextMarshaler.
func (id ID[K]) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty text yields the zero value.
func (id *ID[K]) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*id = ID[K]{}

		return nil
	}

	parsed, err := parse[K](string(text))
	if err != nil {
		return err
	}
	*id = parsed

	return nil
}

// Value implements driver.Valuer.
func (id ID[K]) Value() (driver.Value, error) {
	if id.IsZero() {
		return nil, nil
	}

	return id.value.String(), nil
}

// Scan implements sql.Scanner.
func (id *ID[K]) Scan(src any) error {
	if src == nil {
		*id = ID[K]{}

		return nil
	}

	var u uuid.UUID
	if err := u.Scan(src); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	id.value = u

	return nil
}
