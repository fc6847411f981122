package inbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/corray333/backend-labs/food-ordering/internal/dal/interfaces/iinboxrepo"
	"github.com/corray333/backend-labs/food-ordering/internal/worker/poll"
)

// dispatcher hands a stored payload to the handler registered for its source.
type dispatcher interface {
	Dispatch(ctx context.Context, source string, payload []byte) error
}

// Worker retries saga responses whose first handling failed.
type Worker struct {
	*poll.Loop

	inboxRepo  iinboxrepo.IInboxRepository
	dispatcher dispatcher
	schedule   poll.Schedule
}

// NewWorker creates an inbox retrier configured from the inbox.* keys.
func NewWorker(inboxRepo iinboxrepo.IInboxRepository, d dispatcher) *Worker {
	w := &Worker{
		inboxRepo:  inboxRepo,
		dispatcher: d,
		schedule:   poll.ScheduleFromConfig("inbox"),
	}
	w.Loop = poll.NewLoop("inbox", w.schedule.Interval, w.retry)

	return w
}

func (w *Worker) retry(ctx context.Context) {
	messages, err := w.inboxRepo.Claim(ctx, w.schedule.BatchSize, w.schedule.Lease)
	if err != nil {
		slog.Error("Failed to claim inbox messages", "error", err)

		return
	}

	for _, msg := range messages {
		if err := w.dispatcher.Dispatch(ctx, msg.Source, msg.Payload); err != nil {
			attempt := msg.RetryCount + 1
			nextRetryAt := time.Now().Add(w.schedule.Backoff(attempt))

			slog.Warn("Inbox message failed again",
				"inbox_id", msg.ID,
				"message_id", msg.MessageID,
				"retry_count", attempt,
				"max_retries", msg.MaxRetries,
				"next_retry", nextRetryAt,
				"error", err,
			)

			if err := w.inboxRepo.Reschedule(ctx, msg.ID, attempt, err.Error(), nextRetryAt); err != nil {
				slog.Error("Failed to reschedule inbox message", "inbox_id", msg.ID, "error", err)
			}

			continue
		}

		if err := w.inboxRepo.MarkProcessed(ctx, msg.ID); err != nil {
			slog.Error("Failed to mark inbox message processed", "inbox_id", msg.ID, "error", err)

			continue
		}

		slog.Info("Inbox message processed on retry",
			"inbox_id", msg.ID,
			"message_id", msg.MessageID,
			"source", msg.Source,
		)
	}
}
