package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/food-ordering/internal/dal/postgres"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/inbox"
	"github.com/jackc/pgx/v5"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// columns follow the field order of inbox.Message so rows scan by position.
var columns = []string{
	"id",
	"message_id",
	"source",
	"payload",
	"content_type",
	"retry_count",
	"max_retries",
	"last_error",
	"created_at",
	"updated_at",
	"next_retry_at",
}

// InboxRepository implements the inbox repository for PostgreSQL.
type InboxRepository struct {
	conn postgres.Conn
}

// NewInboxRepository creates a repository bound to a pool or a transaction.
func NewInboxRepository(conn postgres.Conn) *InboxRepository {
	return &InboxRepository{conn: conn}
}

// Insert records the message unless its message id is already known.
func (r *InboxRepository) Insert(ctx context.Context, msg inbox.Message) (int64, bool, error) {
	query, args, err := psql.Insert("inbox").
		Columns(columns[1:]...).
		Values(
			msg.MessageID,
			msg.Source,
			msg.Payload,
			msg.ContentType,
			msg.RetryCount,
			msg.MaxRetries,
			msg.LastError,
			msg.CreatedAt,
			msg.UpdatedAt,
			msg.NextRetryAt,
		).
		Suffix("ON CONFLICT (message_id) DO NOTHING RETURNING id").
		ToSql()
	if err != nil {
		return 0, false, fmt.Errorf("failed to build insert inbox query: %w", err)
	}

	var id int64
	err = r.conn.QueryRow(ctx, query, args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to insert inbox message %s: %w", msg.MessageID, err)
	}

	return id, true, nil
}

// Claim leases the unprocessed rows that are due for another attempt.
func (r *InboxRepository) Claim(
	ctx context.Context,
	limit int,
	lease time.Duration,
) ([]inbox.Message, error) {
	now := time.Now()

	due, dueArgs, err := sq.Select("id").
		From("inbox").
		Where(sq.Eq{"processed_at": nil}).
		Where(sq.LtOrEq{"next_retry_at": now}).
		Where("retry_count < max_retries").
		OrderBy("next_retry_at ASC", "id ASC").
		Limit(uint64(limit)).
		Suffix("FOR UPDATE SKIP LOCKED").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build due inbox query: %w", err)
	}

	query, args, err := psql.Update("inbox").
		Set("next_retry_at", now.Add(lease)).
		Set("updated_at", now).
		Where("id IN ("+due+")", dueArgs...).
		Suffix("RETURNING " + strings.Join(columns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build claim inbox query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to claim inbox messages: %w", err)
	}

	messages, err := pgx.CollectRows(rows, pgx.RowToStructByPos[inbox.Message])
	if err != nil {
		return nil, fmt.Errorf("failed to scan inbox messages: %w", err)
	}

	return messages, nil
}

// MarkProcessed flags the message as handled.
func (r *InboxRepository) MarkProcessed(ctx context.Context, id int64) error {
	now := time.Now()
	query, args, err := psql.Update("inbox").
		Set("processed_at", now).
		Set("updated_at", now).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build mark processed query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to mark inbox message %d processed: %w", id, err)
	}

	return nil
}

// Reschedule records a failed attempt and when the next one is due.
func (r *InboxRepository) Reschedule(
	ctx context.Context,
	id int64,
	retryCount int,
	lastError string,
	nextRetryAt time.Time,
) error {
	query, args, err := psql.Update("inbox").
		SetMap(sq.Eq{
			"retry_count":   retryCount,
			"last_error":    lastError,
			"next_retry_at": nextRetryAt,
			"updated_at":    time.Now(),
		}).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build reschedule inbox query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to reschedule inbox message %d: %w", id, err)
	}

	return nil
}
