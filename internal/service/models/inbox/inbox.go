package inbox

import (
	"time"
)

// Message is an inbound broker message recorded for deduplication and retry.
type Message struct {
	ID          int64
	MessageID   string
	Source      string
	Payload     []byte
	ContentType string
	RetryCount  int
	MaxRetries  int
	LastError   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	NextRetryAt time.Time
}
