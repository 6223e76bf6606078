package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoneyFromDecimal_RoundsHalfUp(t *testing.T) {
	cases := []struct {
		amount string
		cents  int64
	}{
		{"59.90", 5990},
		{"10.005", 1001},
		{"10.004", 1000},
		{"0", 0},
		{"-4.50", -450},
	}
	for _, tc := range cases {
		m := NewMoneyFromDecimal(decimal.RequireFromString(tc.amount), EUR)
		assert.Equal(t, tc.cents, m.Cents(), "amount %s", tc.amount)
	}
}

func TestMoney_DefaultCurrency(t *testing.T) {
	m := NewMoney(100, "")
	assert.Equal(t, DefaultCurrency, m.Currency())
}

func TestMoney_AddRejectsCurrencyMismatch(t *testing.T) {
	eur := NewMoney(100, EUR)
	usd := NewMoney(100, USD)

	_, err := eur.Add(usd)
	require.Error(t, err)

	sum, err := eur.Add(NewMoney(250, EUR))
	require.NoError(t, err)
	assert.Equal(t, int64(350), sum.Cents())
}

func TestMoney_String(t *testing.T) {
	m := NewMoney(1250, EUR)
	assert.Equal(t, "12.50 EUR", m.String())
}
