package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/corray333/backend-labs/food-ordering/internal/service/models/message"
	"github.com/google/uuid"
)

// Sources name the inbound streams; they are stored with inbox rows.
const (
	SourcePaymentResponse    = "payment-response"
	SourceRestaurantResponse = "restaurant-approval-response"
)

var (
	// ErrMalformed marks a payload that can never be handled.
	ErrMalformed = errors.New("malformed message")
	// ErrUnknownSource marks a payload from a stream nobody handles.
	ErrUnknownSource = errors.New("unknown message source")
)

// sagaService handles decoded saga responses.
type sagaService interface {
	HandlePaymentResponse(ctx context.Context, r message.PaymentResponse) error
	HandleRestaurantResponse(ctx context.Context, r message.RestaurantApprovalResponse) error
}

// Dispatcher decodes a payload by source and calls the saga handler.
type Dispatcher struct {
	saga sagaService
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(saga sagaService) *Dispatcher {
	return &Dispatcher{saga: saga}
}

// Dispatch handles one payload.
func (d *Dispatcher) Dispatch(ctx context.Context, source string, payload []byte) error {
	switch source {
	case SourcePaymentResponse:
		var r message.PaymentResponse
		if err := json.Unmarshal(payload, &r); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		return d.saga.HandlePaymentResponse(ctx, r)
	case SourceRestaurantResponse:
		var r message.RestaurantApprovalResponse
		if err := json.Unmarshal(payload, &r); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		return d.saga.HandleRestaurantResponse(ctx, r)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownSource, source)
	}
}

// messageNamespace seeds ids derived from payloads that carry none.
var messageNamespace = uuid.MustParse("5b0c7f61-4a8e-4f3b-9a4e-2d1f6c9e8a10")

// MessageID returns the deduplication key of a payload: its "id" field, or a
// name-based uuid of the payload when the id is missing.
func MessageID(source string, payload []byte) (string, error) {
	var envelope struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if envelope.ID != "" {
		return source + ":" + envelope.ID, nil
	}

	return source + ":" + uuid.NewSHA1(messageNamespace, payload).String(), nil
}
