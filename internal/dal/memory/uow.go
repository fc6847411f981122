package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/corray333/backend-labs/food-ordering/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/food-ordering/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/ids"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/order"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/outbox"
)

// op is a staged write. check runs for every op before any apply, all under the store lock.
type op struct {
	check func(s *Store) error
	apply func(s *Store)
}

type unitOfWork struct {
	store *Store
	begun bool
	ops   []op
}

func newUnitOfWork(s *Store) *unitOfWork {
	return &unitOfWork{store: s}
}

func (u *unitOfWork) Begin(_ context.Context) error {
	u.begun = true
	u.ops = nil

	return nil
}

func (u *unitOfWork) Commit(_ context.Context) error {
	s := u.store
	s.mu.Lock()
	defer s.mu.Unlock()

	ops := u.ops
	u.ops = nil

	if s.commitErr != nil {
		err := s.commitErr
		s.commitErr = nil

		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	for _, o := range ops {
		if o.check == nil {
			continue
		}
		if err := o.check(s); err != nil {
			return err
		}
	}
	for _, o := range ops {
		o.apply(s)
	}

	return nil
}

func (u *unitOfWork) Rollback(_ context.Context) error {
	u.ops = nil

	return nil
}

func (u *unitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return &orderRepository{uow: u}
}

func (u *unitOfWork) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return &txOutbox{uow: u, OutboxRepository: u.store.Outbox()}
}

// stage queues o inside a transaction or applies it at once outside one.
func (u *unitOfWork) stage(o op) error {
	if u.begun {
		u.ops = append(u.ops, o)

		return nil
	}

	s := u.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.check != nil {
		if err := o.check(s); err != nil {
			return err
		}
	}
	o.apply(s)

	return nil
}

type orderRepository struct {
	uow *unitOfWork
}

func (r *orderRepository) Insert(_ context.Context, o order.Order) (*order.Persisted, error) {
	p := o.Persist(ids.NewOrderID(), now())
	stored := p.Clone()

	err := r.uow.stage(op{
		apply: func(s *Store) { s.orders[stored.ID()] = stored },
	})
	if err != nil {
		return nil, err
	}

	return p, nil
}

func (r *orderRepository) Update(_ context.Context, p *order.Persisted) error {
	expected := p.Version()
	versionCheck := func(s *Store) error {
		current, ok := s.orders[p.ID()]
		if !ok {
			return order.ErrOrderNotFound
		}
		if current.Version() != expected {
			return fmt.Errorf("order %s version %d: %w", p.ID(), expected, order.ErrConcurrentUpdate)
		}

		return nil
	}

	r.uow.store.mu.Lock()
	err := versionCheck(r.uow.store)
	r.uow.store.mu.Unlock()
	if err != nil {
		return err
	}

	p.MarkUpdated(time.Now().UTC())
	stored := p.Clone()

	return r.uow.stage(op{
		check: versionCheck,
		apply: func(s *Store) { s.orders[stored.ID()] = stored },
	})
}

func (r *orderRepository) FindBySagaID(_ context.Context, sagaID ids.SagaID) (*order.Persisted, error) {
	return r.uow.store.findOrder(func(p *order.Persisted) bool { return p.SagaID() == sagaID })
}

func (r *orderRepository) FindByTrackingID(
	_ context.Context,
	trackingID ids.TrackingID,
) (*order.Persisted, error) {
	return r.uow.store.findOrder(func(p *order.Persisted) bool { return p.TrackingID() == trackingID })
}

// txOutbox stages inserts with the rest of the unit of work.
type txOutbox struct {
	*OutboxRepository
	uow *unitOfWork
}

func (t *txOutbox) Insert(_ context.Context, msg outbox.Message) error {
	return t.uow.stage(op{
		apply: func(s *Store) { s.insertOutbox(msg) },
	})
}
