package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderFill(t *testing.T) {
	order := NewOrder(GoodTillCancel, 1, Buy, 100, 10)

	assert.Equal(t, Quantity(10), order.InitialQuantity())
	assert.Equal(t, Quantity(10), order.RemainingQuantity())
	assert.Equal(t, Quantity(0), order.FilledQuantity())
	assert.False(t, order.IsFilled())

	err := order.Fill(4)
	assert.NoError(t, err)
	assert.Equal(t, Quantity(6), order.RemainingQuantity())
	assert.Equal(t, Quantity(4), order.FilledQuantity())

	err = order.Fill(6)
	assert.NoError(t, err)
	assert.True(t, order.IsFilled())
}

func TestOrderOverfill(t *testing.T) {
	order := NewOrder(GoodTillCancel, 7, Sell, 100, 5)

	err := order.Fill(6)
	assert.ErrorIs(t, err, ErrOverfill)

	// The order must be left unmodified on failure.
	assert.Equal(t, Quantity(5), order.RemainingQuantity())
	assert.Equal(t, Quantity(0), order.FilledQuantity())
}

func TestOrderModifyToOrder(t *testing.T) {
	modify := OrderModify{ID: 42, Side: Sell, Price: 90, Quantity: 12}

	order := modify.ToOrder(GoodTillCancel)
	assert.Equal(t, OrderID(42), order.ID)
	assert.Equal(t, Sell, order.Side)
	assert.Equal(t, Price(90), order.Price)
	assert.Equal(t, GoodTillCancel, order.Type)
	assert.Equal(t, Quantity(12), order.InitialQuantity())
	assert.Equal(t, Quantity(12), order.RemainingQuantity())
}

func TestIDGenerator(t *testing.T) {
	gen := NewIDGenerator()

	assert.Equal(t, OrderID(1000), gen.Next())
	assert.Equal(t, OrderID(1001), gen.Next())
	assert.Equal(t, OrderID(1002), gen.Next())

	// Independent generators produce independent sequences.
	other := NewIDGenerator()
	assert.Equal(t, OrderID(1000), other.Next())
}

func TestSideOpposite(t *testing.T) {
	assert.Equal(t, Sell, Buy.Opposite())
	assert.Equal(t, Buy, Sell.Opposite())
}
