package uow

import (
	"context"
	"errors"
	"fmt"

	"github.com/corray333/backend-labs/food-ordering/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/food-ordering/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/food-ordering/internal/dal/interfaces/iuow"
	"github.com/corray333/backend-labs/food-ordering/internal/dal/postgres"
	orderrepo "github.com/corray333/backend-labs/food-ordering/internal/dal/repositories/order/postgres"
	outboxrepo "github.com/corray333/backend-labs/food-ordering/internal/dal/repositories/outbox/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type unitOfWork struct {
	pool       *pgxpool.Pool
	tx         pgx.Tx
	orderRepo  *orderrepo.OrderRepository
	outboxRepo *outboxrepo.OutboxRepository
}

// NewFactory returns a factory of Postgres units of work.
func NewFactory(client *postgres.Client) iuow.Factory {
	return func() iuow.UnitOfWork {
		return NewUnitOfWork(client)
	}
}

// NewUnitOfWork creates a unit of work whose repositories use the pool until Begin.
func NewUnitOfWork(client *postgres.Client) iuow.UnitOfWork {
	return &unitOfWork{
		pool:       client.Pool(),
		orderRepo:  orderrepo.NewOrderRepository(client.Pool()),
		outboxRepo: outboxrepo.NewOutboxRepository(client.Pool()),
	}
}

func (u *unitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return u.orderRepo
}

func (u *unitOfWork) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return u.outboxRepo
}

func (u *unitOfWork) Begin(ctx context.Context) error {
	tx, err := u.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.orderRepo = orderrepo.NewOrderRepository(tx)
	u.outboxRepo = outboxrepo.NewOutboxRepository(tx)

	return nil
}

func (u *unitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	if err := u.tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Rollback is safe to defer after Commit.
func (u *unitOfWork) Rollback(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	if err := u.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	return nil
}
