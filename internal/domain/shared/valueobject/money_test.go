package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================
// Money Construction Tests
// ============================================

func TestNewMoney(t *testing.T) {
	m, err := NewMoney(decimal.NewFromInt(100), USD)
	require.NoError(t, err)
	assert.True(t, m.Amount().Equal(decimal.NewFromInt(100)))
	assert.Equal(t, USD, m.Currency())

	_, err = NewMoney(decimal.NewFromInt(100), "")
	assert.Error(t, err)
}

func TestNewMoneyFromString(t *testing.T) {
	m, err := NewMoneyFromString("123.45", EUR)
	require.NoError(t, err)
	assert.Equal(t, "123.45", m.StringFixed(2))
	assert.Equal(t, EUR, m.Currency())

	_, err = NewMoneyFromString("not-a-number", USD)
	assert.Error(t, err)
}

func TestZeroUSD(t *testing.T) {
	m := ZeroUSD()
	assert.True(t, m.IsZero())
	assert.False(t, m.IsPositive())
	assert.Equal(t, USD, m.Currency())
}

// ============================================
// Money Arithmetic Tests
// ============================================

func TestMoney_Add(t *testing.T) {
	a := NewMoneyUSD(decimal.NewFromInt(100))
	b := NewMoneyUSD(decimal.NewFromInt(50))

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, sum.Amount().Equal(decimal.NewFromInt(150)))

	// Operands are unchanged
	assert.True(t, a.Amount().Equal(decimal.NewFromInt(100)))
}

func TestMoney_Add_CurrencyMismatch(t *testing.T) {
	a := NewMoneyUSD(decimal.NewFromInt(100))
	b, err := NewMoney(decimal.NewFromInt(50), EUR)
	require.NoError(t, err)

	_, err = a.Add(b)
	assert.Error(t, err)
}

func TestMoney_Subtract(t *testing.T) {
	a := NewMoneyUSD(decimal.NewFromInt(100))
	b := NewMoneyUSD(decimal.NewFromInt(150))

	diff, err := a.Subtract(b)
	require.NoError(t, err)
	assert.True(t, diff.IsNegative())
	assert.True(t, diff.Amount().Equal(decimal.NewFromInt(-50)))
}

func TestMoney_CalculatePercentage(t *testing.T) {
	budget := NewMoneyUSD(decimal.NewFromInt(100000))

	share := budget.CalculatePercentage(decimal.NewFromInt(25))
	assert.True(t, share.Amount().Equal(decimal.NewFromInt(25000)), "got %s", share.Amount())
	assert.Equal(t, USD, share.Currency())
}

func TestMoney_Comparisons(t *testing.T) {
	a := NewMoneyUSD(decimal.NewFromInt(100))
	b := NewMoneyUSD(decimal.NewFromInt(200))

	less, err := a.LessThan(b)
	require.NoError(t, err)
	assert.True(t, less)

	greater, err := b.GreaterThan(a)
	require.NoError(t, err)
	assert.True(t, greater)

	assert.True(t, a.Equals(NewMoneyUSD(decimal.NewFromInt(100))))
	assert.False(t, a.Equals(b))
}

// ============================================
// Money Serialization Tests
// ============================================

func TestMoney_JSONRoundTrip(t *testing.T) {
	original := NewMoneyUSD(decimal.RequireFromString("1234.56"))

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Money
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, original.Equals(decoded))
}

func TestMoney_Scan(t *testing.T) {
	var m Money
	require.NoError(t, m.Scan("99.95"))
	assert.Equal(t, "99.95", m.StringFixed(2))
	assert.Equal(t, DefaultCurrency, m.Currency())

	var fromBytes Money
	require.NoError(t, fromBytes.Scan([]byte("10")))
	assert.True(t, fromBytes.Amount().Equal(decimal.NewFromInt(10)))

	var fromNil Money
	require.NoError(t, fromNil.Scan(nil))
	assert.True(t, fromNil.IsZero())

	var bad Money
	assert.Error(t, bad.Scan(42))
}
