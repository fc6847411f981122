package memory

import (
	"context"
	"slices"
	"time"

	"github.com/corray333/backend-labs/food-ordering/internal/service/models/inbox"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/outbox"
)

// OutboxRepository is the in-memory outbox.
type OutboxRepository struct {
	store *Store
}

func (r *OutboxRepository) Insert(_ context.Context, msg outbox.Message) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.insertOutbox(msg)

	return nil
}

func (r *OutboxRepository) Claim(_ context.Context, limit int, lease time.Duration) ([]outbox.Message, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	t := now()
	var claimed []outbox.Message
	for i := range r.store.outbox {
		if len(claimed) == limit {
			break
		}
		msg := &r.store.outbox[i]
		if msg.NextRetryAt.After(t) || msg.RetryCount >= msg.MaxRetries {
			continue
		}
		msg.NextRetryAt = t.Add(lease)
		msg.UpdatedAt = t
		claimed = append(claimed, *msg)
	}

	return claimed, nil
}

func (r *OutboxRepository) Delete(_ context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.outbox = slices.DeleteFunc(r.store.outbox, func(m outbox.Message) bool { return m.ID == id })

	return nil
}

func (r *OutboxRepository) Reschedule(
	_ context.Context,
	id int64,
	retryCount int,
	lastError string,
	nextRetryAt time.Time,
) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if i := slices.IndexFunc(r.store.outbox, func(m outbox.Message) bool { return m.ID == id }); i >= 0 {
		msg := &r.store.outbox[i]
		msg.RetryCount = retryCount
		msg.LastError = lastError
		msg.NextRetryAt = nextRetryAt
		msg.UpdatedAt = now()
	}

	return nil
}

// InboxRepository is the in-memory inbox.
type InboxRepository struct {
	store *Store
}

func (r *InboxRepository) Insert(_ context.Context, msg inbox.Message) (int64, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.store.inboxIndex(msg.MessageID) >= 0 {
		return 0, false, nil
	}
	r.store.nextID++
	msg.ID = r.store.nextID
	r.store.inbox = append(r.store.inbox, inboxRow{msg: msg})

	return msg.ID, true, nil
}

func (r *InboxRepository) Claim(_ context.Context, limit int, lease time.Duration) ([]inbox.Message, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	t := now()
	var claimed []inbox.Message
	for i := range r.store.inbox {
		if len(claimed) == limit {
			break
		}
		row := &r.store.inbox[i]
		if row.processed || row.msg.NextRetryAt.After(t) || row.msg.RetryCount >= row.msg.MaxRetries {
			continue
		}
		row.msg.NextRetryAt = t.Add(lease)
		row.msg.UpdatedAt = t
		claimed = append(claimed, row.msg)
	}

	return claimed, nil
}

func (r *InboxRepository) MarkProcessed(_ context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for i := range r.store.inbox {
		if r.store.inbox[i].msg.ID == id {
			r.store.inbox[i].processed = true
		}
	}

	return nil
}

func (r *InboxRepository) Reschedule(
	_ context.Context,
	id int64,
	retryCount int,
	lastError string,
	nextRetryAt time.Time,
) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for i := range r.store.inbox {
		if msg := &r.store.inbox[i].msg; msg.ID == id {
			msg.RetryCount = retryCount
			msg.LastError = lastError
			msg.NextRetryAt = nextRetryAt
			msg.UpdatedAt = now()
		}
	}

	return nil
}

// Message returns the inbox row recorded for messageID.
func (r *InboxRepository) Message(messageID string) (inbox.Message, bool) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if i := r.store.inboxIndex(messageID); i >= 0 {
		return r.store.inbox[i].msg, true
	}

	return inbox.Message{}, false
}

// Processed reports whether the inbox message with messageID was handled.
func (r *InboxRepository) Processed(messageID string) bool {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	i := r.store.inboxIndex(messageID)

	return i >= 0 && r.store.inbox[i].processed
}

func (s *Store) inboxIndex(messageID string) int {
	return slices.IndexFunc(s.inbox, func(row inboxRow) bool { return row.msg.MessageID == messageID })
}
