package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/corray333/backend-labs/food-ordering/internal/service/models/event"
)

const contentTypeJSON = "application/json"

// Message is an event waiting in the outbox table to be relayed to the broker.
type Message struct {
	ID           int64
	EventType    string
	ExchangeName string
	RoutingKey   string
	MessageKey   string
	Payload      []byte
	ContentType  string
	RetryCount   int
	MaxRetries   int
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	NextRetryAt  time.Time
}

// NewMessage serializes an event into an outbox row that is due immediately.
func NewMessage(exchange string, e event.Event, maxRetries int, now time.Time) (Message, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return Message{}, fmt.Errorf("failed to marshal %s event: %w", e.Type, err)
	}

	return Message{
		EventType:    string(e.Type),
		ExchangeName: exchange,
		RoutingKey:   string(e.Type),
		MessageKey:   e.Key(),
		Payload:      payload,
		ContentType:  contentTypeJSON,
		MaxRetries:   maxRetries,
		CreatedAt:    now,
		UpdatedAt:    now,
		NextRetryAt:  now,
	}, nil
}
