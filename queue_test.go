package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBidQueueOrdering(t *testing.T) {
	q := newBidQueue()

	q.insertOrder(NewOrder(GoodTillCancel, 1, Buy, 90, 1))
	q.insertOrder(NewOrder(GoodTillCancel, 2, Buy, 110, 1))
	q.insertOrder(NewOrder(GoodTillCancel, 3, Buy, 100, 1))

	// Best bid is the highest price.
	assert.Equal(t, Price(110), q.bestLevel().price)

	infos := q.levelInfos(0)
	assert.Equal(t, []LevelInfo{{110, 1}, {100, 1}, {90, 1}}, infos)
}

func TestAskQueueOrdering(t *testing.T) {
	q := newAskQueue()

	q.insertOrder(NewOrder(GoodTillCancel, 1, Sell, 110, 1))
	q.insertOrder(NewOrder(GoodTillCancel, 2, Sell, 90, 1))
	q.insertOrder(NewOrder(GoodTillCancel, 3, Sell, 100, 1))

	// Best ask is the lowest price.
	assert.Equal(t, Price(90), q.bestLevel().price)

	infos := q.levelInfos(0)
	assert.Equal(t, []LevelInfo{{90, 1}, {100, 1}, {110, 1}}, infos)
}

func TestLevelFIFO(t *testing.T) {
	q := newBidQueue()

	first := NewOrder(GoodTillCancel, 1, Buy, 100, 1)
	second := NewOrder(GoodTillCancel, 2, Buy, 100, 2)
	third := NewOrder(GoodTillCancel, 3, Buy, 100, 3)
	q.insertOrder(first)
	q.insertOrder(second)
	q.insertOrder(third)

	assert.Equal(t, 1, q.levelCount())
	assert.Equal(t, 3, q.orderCount())
	assert.Equal(t, Quantity(6), q.bestLevel().totalQty)
	assert.Same(t, first, q.peekHead())

	// Removing from the middle keeps arrival order for the rest.
	q.removeOrder(second)
	assert.Same(t, first, q.peekHead())
	assert.Same(t, third, first.next)
	assert.Equal(t, Quantity(4), q.bestLevel().totalQty)

	q.removeOrder(first)
	assert.Same(t, third, q.peekHead())
}

func TestEmptyLevelIsRemoved(t *testing.T) {
	q := newAskQueue()

	order := NewOrder(GoodTillCancel, 1, Sell, 100, 5)
	q.insertOrder(order)
	assert.Equal(t, 1, q.levelCount())

	q.removeOrder(order)
	assert.Equal(t, 0, q.levelCount())
	assert.Equal(t, 0, q.orderCount())
	assert.Nil(t, q.bestLevel())
	assert.Empty(t, q.levelInfos(0))
}

func TestReduceOrderKeepsTotals(t *testing.T) {
	q := newBidQueue()

	order := NewOrder(GoodTillCancel, 1, Buy, 100, 10)
	q.insertOrder(order)

	err := q.reduceOrder(order, 4)
	assert.NoError(t, err)
	assert.Equal(t, Quantity(6), order.RemainingQuantity())
	assert.Equal(t, Quantity(6), q.bestLevel().totalQty)

	// Overfill leaves both the order and the level untouched.
	err = q.reduceOrder(order, 7)
	assert.ErrorIs(t, err, ErrOverfill)
	assert.Equal(t, Quantity(6), order.RemainingQuantity())
	assert.Equal(t, Quantity(6), q.bestLevel().totalQty)
}

func TestLevelInfosLimit(t *testing.T) {
	q := newAskQueue()
	for i := 1; i <= 5; i++ {
		q.insertOrder(NewOrder(GoodTillCancel, OrderID(i), Sell, Price(100+i), 1))
	}

	top := q.levelInfos(2)
	assert.Equal(t, []LevelInfo{{101, 1}, {102, 1}}, top)

	all := q.levelInfos(0)
	assert.Len(t, all, 5)
}
