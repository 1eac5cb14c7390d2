package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregatedBookReplay(t *testing.T) {
	ab := NewAggregatedBook()

	require.NoError(t, ab.Replay(&BookLog{SequenceID: 1, Type: LogTypeOpen, Side: Buy, Price: 100, Quantity: 10}))
	require.NoError(t, ab.Replay(&BookLog{SequenceID: 2, Type: LogTypeOpen, Side: Buy, Price: 100, Quantity: 5}))
	require.NoError(t, ab.Replay(&BookLog{SequenceID: 3, Type: LogTypeOpen, Side: Sell, Price: 105, Quantity: 8}))

	assert.Equal(t, Quantity(15), ab.Depth(Buy, 100))
	assert.Equal(t, Quantity(8), ab.Depth(Sell, 105))

	// A match consumes both sides at their own prices.
	require.NoError(t, ab.Replay(&BookLog{
		SequenceID: 4, Type: LogTypeMatch,
		BidPrice: 100, AskPrice: 105, Quantity: 5,
	}))
	assert.Equal(t, Quantity(10), ab.Depth(Buy, 100))
	assert.Equal(t, Quantity(3), ab.Depth(Sell, 105))

	// Cancel drains the level; fully drained levels disappear.
	require.NoError(t, ab.Replay(&BookLog{SequenceID: 5, Type: LogTypeCancel, Side: Sell, Price: 105, Quantity: 3}))
	assert.Equal(t, Quantity(0), ab.Depth(Sell, 105))
	assert.Empty(t, ab.TopLevels(Sell, 0))

	// Rejects advance the sequence without touching state.
	require.NoError(t, ab.Replay(&BookLog{SequenceID: 6, Type: LogTypeReject, Side: Buy, Price: 50, Quantity: 1}))
	assert.Equal(t, Quantity(0), ab.Depth(Buy, 50))
	assert.Equal(t, uint64(6), ab.SequenceID())
}

func TestAggregatedBookDedupAndGaps(t *testing.T) {
	ab := NewAggregatedBook()

	require.NoError(t, ab.Replay(&BookLog{SequenceID: 1, Type: LogTypeOpen, Side: Buy, Price: 100, Quantity: 10}))

	// Replaying an already-applied event is a no-op.
	require.NoError(t, ab.Replay(&BookLog{SequenceID: 1, Type: LogTypeOpen, Side: Buy, Price: 100, Quantity: 10}))
	assert.Equal(t, Quantity(10), ab.Depth(Buy, 100))

	// Skipping an event is detected.
	err := ab.Replay(&BookLog{SequenceID: 3, Type: LogTypeOpen, Side: Buy, Price: 101, Quantity: 1})
	assert.ErrorIs(t, err, ErrSequenceGap)
	assert.Equal(t, uint64(1), ab.SequenceID())
}

func TestAggregatedBookTopLevels(t *testing.T) {
	ab := NewAggregatedBook()

	seq := uint64(0)
	open := func(side Side, price Price, quantity Quantity) {
		seq++
		require.NoError(t, ab.Replay(&BookLog{SequenceID: seq, Type: LogTypeOpen, Side: side, Price: price, Quantity: quantity}))
	}

	open(Buy, 100, 1)
	open(Buy, 102, 2)
	open(Buy, 101, 3)
	open(Sell, 110, 4)
	open(Sell, 108, 5)

	// Bids best-first descending, asks ascending.
	assert.Equal(t, []LevelInfo{{102, 2}, {101, 3}}, ab.TopLevels(Buy, 2))
	assert.Equal(t, []LevelInfo{{108, 5}, {110, 4}}, ab.TopLevels(Sell, 0))
}

func TestAggregatedBookRebuild(t *testing.T) {
	ab := NewAggregatedBook()
	require.NoError(t, ab.Replay(&BookLog{SequenceID: 1, Type: LogTypeOpen, Side: Buy, Price: 50, Quantity: 1}))

	snapshot := LevelInfos{
		Bids: []LevelInfo{{100, 10}, {99, 5}},
		Asks: []LevelInfo{{101, 7}},
	}
	ab.Rebuild(snapshot, 42)

	assert.Equal(t, uint64(42), ab.SequenceID())
	assert.Equal(t, Quantity(0), ab.Depth(Buy, 50))
	assert.Equal(t, []LevelInfo{{100, 10}, {99, 5}}, ab.TopLevels(Buy, 0))
	assert.Equal(t, []LevelInfo{{101, 7}}, ab.TopLevels(Sell, 0))

	// Replay resumes from the snapshot's sequence id.
	require.NoError(t, ab.Replay(&BookLog{SequenceID: 43, Type: LogTypeCancel, Side: Sell, Price: 101, Quantity: 7}))
	assert.Empty(t, ab.TopLevels(Sell, 0))
}
