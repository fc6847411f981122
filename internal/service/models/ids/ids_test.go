package ids

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	id, err := ParseCustomerID("f49400ba-529c-4e1f-8493-b0e880c0b3bb")
	require.NoError(t, err)
	assert.Equal(t, "f49400ba-529c-4e1f-8493-b0e880c0b3bb", id.String())
	assert.False(t, id.IsZero())

	_, err = ParseOrderID("not-a-uuid")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestZeroValue(t *testing.T) {
	var id OrderID
	assert.True(t, id.IsZero())
	assert.Equal(t, "", id.String())

	v, err := id.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestEqualityByValue(t *testing.T) {
	a, _ := ParseProductID("7406dd7b-a796-41b0-af89-17bc03399f60")
	b, _ := ParseProductID("7406dd7b-a796-41b0-af89-17bc03399f60")
	assert.Equal(t, a, b)

	seen := map[ProductID]int{a: 1}
	assert.Equal(t, 1, seen[b])

	assert.NotEqual(t, NewSagaID(), NewSagaID())
}

func TestJSONRoundTrip(t *testing.T) {
	type payload struct {
		SagaID SagaID `json:"sagaId"`
	}

	in := payload{SagaID: NewSagaID()}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out payload
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)

	assert.Error(t, json.Unmarshal([]byte(`{"sagaId":"zzz"}`), &out))
}

func TestScan(t *testing.T) {
	var id RestaurantID
	require.NoError(t, id.Scan("e2259847-274b-4e9c-afe1-0b0c5dd98636"))
	assert.Equal(t, "e2259847-274b-4e9c-afe1-0b0c5dd98636", id.String())

	require.NoError(t, id.Scan(nil))
	assert.True(t, id.IsZero())

	assert.ErrorIs(t, id.Scan("nope"), ErrInvalidID)
}
