package ioutboxrepo

import (
	"context"
	"time"

	"github.com/corray333/backend-labs/food-ordering/internal/service/models/outbox"
)

// IOutboxRepository stores events until the relay hands them to the broker.
type IOutboxRepository interface {
	Insert(ctx context.Context, msg outbox.Message) error

	// Claim leases up to limit due messages. A claimed message is not returned
	// again until the lease expires or it is rescheduled.
	Claim(ctx context.Context, limit int, lease time.Duration) ([]outbox.Message, error)

	// Delete removes a delivered message.
	Delete(ctx context.Context, id int64) error

	// Reschedule records a failed delivery attempt.
	Reschedule(ctx context.Context, id int64, retryCount int, lastError string, nextRetryAt time.Time) error
}
