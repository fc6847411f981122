package iinboxrepo

import (
	"context"
	"time"

	"github.com/corray333/backend-labs/food-ordering/internal/service/models/inbox"
)

// IInboxRepository records inbound messages for deduplication and retry.
type IInboxRepository interface {
	// Insert returns the row id of a new message. The flag is false when the
	// message id is already known.
	Insert(ctx context.Context, msg inbox.Message) (int64, bool, error)

	// Claim leases up to limit unprocessed messages that are due.
	Claim(ctx context.Context, limit int, lease time.Duration) ([]inbox.Message, error)

	// MarkProcessed keeps the row for deduplication and takes it out of the retry queue.
	MarkProcessed(ctx context.Context, id int64) error

	Reschedule(ctx context.Context, id int64, retryCount int, lastError string, nextRetryAt time.Time) error
}
