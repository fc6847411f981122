package order

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks pricing and structural violations. Never retried.
	ErrValidation = errors.New("order validation failed")
	// ErrNotFound marks a missing customer, restaurant or order.
	ErrNotFound = errors.New("not found")
	// ErrOrderNotFound is returned by order repositories.
	ErrOrderNotFound = fmt.Errorf("order %w", ErrNotFound)
	// ErrIllegalTransition marks a saga event that does not fit the current status.
	ErrIllegalTransition = errors.New("illegal state transition")
	// ErrConcurrentUpdate is returned when a versioned update lost a race.
	ErrConcurrentUpdate = errors.New("order was updated concurrently")
)

// Error is a domain error whose message is shown to callers verbatim.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Validationf builds an ErrValidation domain error.
func Validationf(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf builds an ErrNotFound domain error.
func NotFoundf(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

// TransitionError reports an event that has no row in the transition table
// for the order's current status.
type TransitionError struct {
	From  Status
	Event EventKind
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot apply %q to order in status %s", e.Event, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrIllegalTransition
}
