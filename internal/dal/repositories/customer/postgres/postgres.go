package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/food-ordering/internal/dal/postgres"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/customer"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/ids"
	"github.com/jackc/pgx/v5"
)

// CustomerRepository reads the customers projection table.
type CustomerRepository struct {
	conn postgres.Conn
}

// NewCustomerRepository creates a new customer repository.
func NewCustomerRepository(conn postgres.Conn) *CustomerRepository {
	return &CustomerRepository{
		conn: conn,
	}
}

// FindByID returns customer.ErrCustomerNotFound when there is no such customer.
func (r *CustomerRepository) FindByID(ctx context.Context, id ids.CustomerID) (customer.Customer, error) {
	query, args, err := sq.Select("id", "username", "first_name", "last_name").
		From("customers").
		Where(sq.Eq{"id": id.String()}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return customer.Customer{}, fmt.Errorf("failed to build select customer query: %w", err)
	}

	var c customer.Customer
	err = r.conn.QueryRow(ctx, query, args...).Scan(&c.ID, &c.Username, &c.FirstName, &c.LastName)
	if errors.Is(err, pgx.ErrNoRows) {
		return customer.Customer{}, customer.ErrCustomerNotFound
	}
	if err != nil {
		return customer.Customer{}, fmt.Errorf("failed to query customer: %w", err)
	}

	return c, nil
}
