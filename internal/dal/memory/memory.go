// Package memory is an in-process implementation of every repository and of
// the unit of work. It backs the service tests and local runs without Postgres.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/corray333/backend-labs/food-ordering/internal/dal/interfaces/iuow"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/customer"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/ids"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/inbox"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/order"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/outbox"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/restaurant"
)

// Store holds all state behind a single mutex.
type Store struct {
	mu          sync.Mutex
	orders      map[ids.OrderID]*order.Persisted
	customers   map[ids.CustomerID]customer.Customer
	restaurants map[ids.RestaurantID]restaurant.Restaurant
	outbox      []outbox.Message
	inbox       []inboxRow
	nextID      int64
	commitErr   error
}

type inboxRow struct {
	msg       inbox.Message
	processed bool
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		orders:      make(map[ids.OrderID]*order.Persisted),
		customers:   make(map[ids.CustomerID]customer.Customer),
		restaurants: make(map[ids.RestaurantID]restaurant.Restaurant),
	}
}

func (s *Store) AddCustomer(c customer.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[c.ID] = c
}

func (s *Store) AddRestaurant(r restaurant.Restaurant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.Products = slices.Clone(r.Products)
	s.restaurants[r.ID] = r
}

// FailNextCommit makes the next unit-of-work commit fail with err.
func (s *Store) FailNextCommit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitErr = err
}

// Orders returns copies of all committed orders.
func (s *Store) Orders() []*order.Persisted {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*order.Persisted, 0, len(s.orders))
	for _, p := range s.orders {
		out = append(out, p.Clone())
	}

	return out
}

// OutboxMessages returns the outbox in insertion order.
func (s *Store) OutboxMessages() []outbox.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.outbox)
}

// FindByID implements icustomerrepo.ICustomerRepository.
func (s *Store) FindByID(_ context.Context, id ids.CustomerID) (customer.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.customers[id]
	if !ok {
		return customer.Customer{}, customer.ErrCustomerNotFound
	}

	return c, nil
}

// FindRestaurant implements irestaurantrepo.IRestaurantRepository.
func (s *Store) FindRestaurant(_ context.Context, q restaurant.Query) (restaurant.Restaurant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.restaurants[q.RestaurantID]
	if !ok {
		return restaurant.Restaurant{}, restaurant.ErrRestaurantNotFound
	}

	snapshot := restaurant.Restaurant{ID: r.ID, Active: r.Active}
	for _, p := range r.Products {
		if slices.Contains(q.ProductIDs, p.ID) {
			snapshot.Products = append(snapshot.Products, p)
		}
	}

	return snapshot, nil
}

// UnitOfWorkFactory returns a factory of in-memory units of work.
func (s *Store) UnitOfWorkFactory() iuow.Factory {
	return func() iuow.UnitOfWork {
		return newUnitOfWork(s)
	}
}

// Outbox returns the outbox repository view of the store.
func (s *Store) Outbox() *OutboxRepository {
	return &OutboxRepository{store: s}
}

// Inbox returns the inbox repository view of the store.
func (s *Store) Inbox() *InboxRepository {
	return &InboxRepository{store: s}
}

func (s *Store) findOrder(match func(*order.Persisted) bool) (*order.Persisted, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.orders {
		if match(p) {
			return p.Clone(), nil
		}
	}

	return nil, order.ErrOrderNotFound
}

func (s *Store) insertOutbox(msg outbox.Message) {
	s.nextID++
	msg.ID = s.nextID
	s.outbox = append(s.outbox, msg)
}

func now() time.Time {
	return time.Now().UTC()
}
