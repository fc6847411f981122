package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/corray333/backend-labs/food-ordering/internal/dal/postgres/pgtest"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/customer"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/ids"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const customerID = "f49400ba-529c-4e1f-8493-b0e880c0b3bb"

func TestFindByID(t *testing.T) {
	id, err := ids.ParseCustomerID(customerID)
	require.NoError(t, err)

	conn := &pgtest.Conn{}
	conn.Push([]any{customerID, "user_1", "First", "Last"})

	c, err := NewCustomerRepository(conn).FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, customer.Customer{ID: id, Username: "user_1", FirstName: "First", LastName: "Last"}, c)

	calls := conn.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "SELECT id, username, first_name, last_name FROM customers WHERE id = $1", calls[0].SQL)
	assert.Equal(t, []any{customerID}, calls[0].Args)
}

func TestFindByID_Errors(t *testing.T) {
	id, err := ids.ParseCustomerID(customerID)
	require.NoError(t, err)

	_, err = NewCustomerRepository(&pgtest.Conn{}).FindByID(context.Background(), id)
	assert.ErrorIs(t, err, customer.ErrCustomerNotFound)

	broken := errors.New("connection reset")
	_, err = NewCustomerRepository((&pgtest.Conn{}).PushErr(broken)).FindByID(context.Background(), id)
	require.ErrorIs(t, err, broken)
	assert.NotErrorIs(t, err, customer.ErrCustomerNotFound)
}
