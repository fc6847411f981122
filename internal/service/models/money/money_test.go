package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsNegative(t *testing.T) {
	_, err := New(decimal.NewFromInt(-1))
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = Parse("-0.01")
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse("fifty")
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestArithmetic(t *testing.T) {
	price := MustParse("50.00")

	assert.Equal(t, "150.00", price.Multiply(3).String())
	assert.Equal(t, "200.00", price.Add(price.Multiply(3)).String())
	assert.True(t, MustParse("50").Equal(price))
	assert.Equal(t, -1, price.Cmp(MustParse("60.00")))
	assert.True(t, price.IsPositive())
	assert.False(t, Zero.IsPositive())
}

func TestParse_SubCentPrecision(t *testing.T) {
	tests := []struct {
		in    string
		want  string
		valid bool
	}{
		{in: "50.005", valid: false},
		{in: "0.125", valid: false},
		{in: "0.001", valid: false},
		{in: "50.000", want: "50.00", valid: true},
		{in: "50.1", want: "50.10", valid: true},
		{in: "7", want: "7.00", valid: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := Parse(tt.in)
			if !tt.valid {
				require.ErrorIs(t, err, ErrInvalidAmount)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.String())
		})
	}
}

func TestRound(t *testing.T) {
	assert.Equal(t, "0.12", round(decimal.RequireFromString("0.125")).String())
	assert.Equal(t, "0.14", round(decimal.RequireFromString("0.135")).String())
	assert.Equal(t, "0.99", MustParse("0.33").Multiply(3).String())
}

func TestJSON(t *testing.T) {
	data, err := json.Marshal(MustParse("12.5"))
	require.NoError(t, err)
	assert.Equal(t, `"12.50"`, string(data))

	var m Money
	require.NoError(t, json.Unmarshal([]byte(`49.99`), &m))
	assert.Equal(t, "49.99", m.String())

	require.NoError(t, json.Unmarshal([]byte(`"10"`), &m))
	assert.Equal(t, "10.00", m.String())

	assert.ErrorIs(t, json.Unmarshal([]byte(`"-3"`), &m), ErrInvalidAmount)
	assert.ErrorIs(t, json.Unmarshal([]byte(`50.005`), &m), ErrInvalidAmount)
	assert.ErrorIs(t, json.Unmarshal([]byte(`"50.005"`), &m), ErrInvalidAmount)
}
