package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/corray333/backend-labs/food-ordering/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/outbox"
	"github.com/corray333/backend-labs/food-ordering/internal/worker/poll"
	"github.com/corray333/backend-labs/food-ordering/pkg/metrics"
)

// publisher delivers one outbox message to the broker.
type publisher interface {
	Publish(ctx context.Context, msg outbox.Message) error
}

// Worker relays saga events from the outbox table to the broker.
type Worker struct {
	*poll.Loop

	outboxRepo ioutboxrepo.IOutboxRepository
	publisher  publisher
	metrics    *metrics.Metrics
	schedule   poll.Schedule
}

// NewWorker creates an outbox relay configured from the outbox.* keys.
func NewWorker(
	outboxRepo ioutboxrepo.IOutboxRepository,
	publisher publisher,
	m *metrics.Metrics,
) *Worker {
	w := &Worker{
		outboxRepo: outboxRepo,
		publisher:  publisher,
		metrics:    m,
		schedule:   poll.ScheduleFromConfig("outbox"),
	}
	w.Loop = poll.NewLoop("outbox", w.schedule.Interval, w.relay)

	return w
}

// relay publishes one claimed batch in claim order.
func (w *Worker) relay(ctx context.Context) {
	messages, err := w.outboxRepo.Claim(ctx, w.schedule.BatchSize, w.schedule.Lease)
	if err != nil {
		slog.Error("Failed to claim outbox messages", "error", err)

		return
	}
	if len(messages) == 0 {
		return
	}

	slog.Debug("Relaying outbox messages", "count", len(messages))

	for _, msg := range messages {
		err := w.publisher.Publish(ctx, msg)
		w.metrics.Published(err == nil)
		if err != nil {
			w.reschedule(ctx, msg, err)

			continue
		}

		if err := w.outboxRepo.Delete(ctx, msg.ID); err != nil {
			// The lease expires and the event goes out again; consumers dedupe by event id.
			slog.Error("Failed to delete published outbox message",
				"outbox_id", msg.ID,
				"error", err,
			)

			continue
		}

		slog.Debug("Outbox message published",
			"outbox_id", msg.ID,
			"event_type", msg.EventType,
			"saga_id", msg.MessageKey,
		)
	}
}

func (w *Worker) reschedule(ctx context.Context, msg outbox.Message, cause error) {
	attempt := msg.RetryCount + 1
	nextRetryAt := time.Now().Add(w.schedule.Backoff(attempt))

	if attempt >= msg.MaxRetries {
		slog.Error("Giving up on outbox message",
			"outbox_id", msg.ID,
			"event_type", msg.EventType,
			"saga_id", msg.MessageKey,
			"retry_count", attempt,
			"error", cause,
		)
	} else {
		slog.Warn("Failed to publish outbox message, will retry",
			"outbox_id", msg.ID,
			"retry_count", attempt,
			"next_retry", nextRetryAt,
			"error", cause,
		)
	}

	if err := w.outboxRepo.Reschedule(ctx, msg.ID, attempt, cause.Error(), nextRetryAt); err != nil {
		slog.Error("Failed to reschedule outbox message", "outbox_id", msg.ID, "error", err)
	}
}
