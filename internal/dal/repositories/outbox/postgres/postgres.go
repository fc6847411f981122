package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/food-ordering/internal/dal/postgres"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/outbox"
	"github.com/jackc/pgx/v5"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// columns follow the field order of outbox.Message so rows scan by position.
var columns = []string{
	"id",
	"event_type",
	"exchange_name",
	"routing_key",
	"message_key",
	"payload",
	"content_type",
	"retry_count",
	"max_retries",
	"last_error",
	"created_at",
	"updated_at",
	"next_retry_at",
}

// OutboxRepository implements the outbox repository for PostgreSQL.
type OutboxRepository struct {
	conn postgres.Conn
}

// NewOutboxRepository creates a repository bound to a pool or a transaction.
func NewOutboxRepository(conn postgres.Conn) *OutboxRepository {
	return &OutboxRepository{conn: conn}
}

// Insert stages the message. Inside a unit of work it commits with the order change.
func (r *OutboxRepository) Insert(ctx context.Context, msg outbox.Message) error {
	query, args, err := psql.Insert("outbox").
		Columns(columns[1:]...).
		Values(
			msg.EventType,
			msg.ExchangeName,
			msg.RoutingKey,
			msg.MessageKey,
			msg.Payload,
			msg.ContentType,
			msg.RetryCount,
			msg.MaxRetries,
			msg.LastError,
			msg.CreatedAt,
			msg.UpdatedAt,
			msg.NextRetryAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert outbox query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert outbox message for %s: %w", msg.EventType, err)
	}

	return nil
}

// Claim pushes next_retry_at of the due rows past the lease and returns them.
// SKIP LOCKED lets several relays claim disjoint batches.
func (r *OutboxRepository) Claim(
	ctx context.Context,
	limit int,
	lease time.Duration,
) ([]outbox.Message, error) {
	now := time.Now()

	due, dueArgs, err := sq.Select("id").
		From("outbox").
		Where(sq.LtOrEq{"next_retry_at": now}).
		Where("retry_count < max_retries").
		OrderBy("next_retry_at ASC", "id ASC").
		Limit(uint64(limit)).
		Suffix("FOR UPDATE SKIP LOCKED").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build due outbox query: %w", err)
	}

	query, args, err := psql.Update("outbox").
		Set("next_retry_at", now.Add(lease)).
		Set("updated_at", now).
		Where("id IN ("+due+")", dueArgs...).
		Suffix("RETURNING " + strings.Join(columns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build claim outbox query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to claim outbox messages: %w", err)
	}

	messages, err := pgx.CollectRows(rows, pgx.RowToStructByPos[outbox.Message])
	if err != nil {
		return nil, fmt.Errorf("failed to scan outbox messages: %w", err)
	}

	return messages, nil
}

// Delete removes a delivered message.
func (r *OutboxRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := psql.Delete("outbox").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete outbox query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete outbox message %d: %w", id, err)
	}

	return nil
}

// Reschedule records a failed attempt and when the next one is due.
func (r *OutboxRepository) Reschedule(
	ctx context.Context,
	id int64,
	retryCount int,
	lastError string,
	nextRetryAt time.Time,
) error {
	query, args, err := psql.Update("outbox").
		SetMap(sq.Eq{
			"retry_count":   retryCount,
			"last_error":    lastError,
			"next_retry_at": nextRetryAt,
			"updated_at":    time.Now(),
		}).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build reschedule outbox query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to reschedule outbox message %d: %w", id, err)
	}

	return nil
}
