package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/corray333/backend-labs/food-ordering/internal/dal/postgres/pgtest"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/outbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsert(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	msg := outbox.Message{
		EventType:    "order.created",
		ExchangeName: "orders",
		RoutingKey:   "order.created",
		MessageKey:   "saga-1",
		Payload:      []byte(`{"type":"order.created"}`),
		ContentType:  "application/json",
		MaxRetries:   3,
		CreatedAt:    now,
		UpdatedAt:    now,
		NextRetryAt:  now,
	}
	conn := &pgtest.Conn{RowsAffected: 1}

	require.NoError(t, NewOutboxRepository(conn).Insert(context.Background(), msg))

	calls := conn.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t,
		"INSERT INTO outbox (event_type,exchange_name,routing_key,message_key,payload,content_type,"+
			"retry_count,max_retries,last_error,created_at,updated_at,next_retry_at) "+
			"VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)",
		calls[0].SQL,
	)
	assert.Equal(t, []any{
		"order.created", "orders", "order.created", "saga-1", msg.Payload, "application/json",
		0, 3, "", now, now, now,
	}, calls[0].Args)
}

func TestClaim(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	leased := created.Add(time.Minute)
	conn := &pgtest.Conn{}
	conn.Push([]any{
		int64(7), "order.created", "orders", "order.created", "saga-1", []byte(`{}`), "application/json",
		1, 3, "broker down", created, created, leased,
	})

	msgs, err := NewOutboxRepository(conn).Claim(context.Background(), 10, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, []outbox.Message{{
		ID:           7,
		EventType:    "order.created",
		ExchangeName: "orders",
		RoutingKey:   "order.created",
		MessageKey:   "saga-1",
		Payload:      []byte(`{}`),
		ContentType:  "application/json",
		RetryCount:   1,
		MaxRetries:   3,
		LastError:    "broker down",
		CreatedAt:    created,
		UpdatedAt:    created,
		NextRetryAt:  leased,
	}}, msgs)

	calls := conn.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t,
		"UPDATE outbox SET next_retry_at = $1, updated_at = $2 WHERE id IN ("+
			"SELECT id FROM outbox WHERE next_retry_at <= $3 AND retry_count < max_retries "+
			"ORDER BY next_retry_at ASC, id ASC LIMIT 10 FOR UPDATE SKIP LOCKED) "+
			"RETURNING id, event_type, exchange_name, routing_key, message_key, payload, content_type, "+
			"retry_count, max_retries, last_error, created_at, updated_at, next_retry_at",
		calls[0].SQL,
	)

	args := calls[0].Args
	require.Len(t, args, 3)
	now, ok := args[1].(time.Time)
	require.True(t, ok)
	assert.Equal(t, now, args[2], "rows due at the claim instant are included")
	assert.Equal(t, now.Add(time.Minute), args[0], "the lease starts at the claim instant")
}

func TestClaim_Empty(t *testing.T) {
	msgs, err := NewOutboxRepository(&pgtest.Conn{}).Claim(context.Background(), 10, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestDeleteAndReschedule(t *testing.T) {
	next := time.Date(2024, 5, 1, 12, 1, 0, 0, time.UTC)
	conn := &pgtest.Conn{RowsAffected: 1}
	repo := NewOutboxRepository(conn)

	require.NoError(t, repo.Reschedule(context.Background(), 7, 2, "broker down", next))
	require.NoError(t, repo.Delete(context.Background(), 7))

	calls := conn.Calls()
	require.Len(t, calls, 2)

	assert.Equal(t,
		"UPDATE outbox SET last_error = $1, next_retry_at = $2, retry_count = $3, updated_at = $4 WHERE id = $5",
		calls[0].SQL,
	)
	require.Len(t, calls[0].Args, 5)
	assert.Equal(t, "broker down", calls[0].Args[0])
	assert.Equal(t, next, calls[0].Args[1])
	assert.Equal(t, 2, calls[0].Args[2])
	assert.Equal(t, int64(7), calls[0].Args[4])

	assert.Equal(t, "DELETE FROM outbox WHERE id = $1", calls[1].SQL)
	assert.Equal(t, []any{int64(7)}, calls[1].Args)
}
