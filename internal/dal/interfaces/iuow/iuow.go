package iuow

import (
	"context"

	"github.com/corray333/backend-labs/food-ordering/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/food-ordering/internal/dal/interfaces/ioutboxrepo"
)

// UnitOfWork groups order and outbox writes into one transaction.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	OrderRepository() iorderrepo.IOrderRepository
	OutboxRepository() ioutboxrepo.IOutboxRepository
}

// Factory returns a fresh, not yet begun unit of work.
type Factory func() UnitOfWork
