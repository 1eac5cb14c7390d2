package book

import (
	"sync/atomic"

	"github.com/igrmk/treemap/v2"
)

// AggregatedBook maintains a simplified view of the order book, tracking
// only price levels and their aggregated quantities. It is designed for
// downstream consumers (renderers, feeds) that rebuild book state from the
// BookLog event stream instead of holding the live book.
type AggregatedBook struct {
	seqID atomic.Uint64 // last applied SequenceID, for dedup and gap detection
	bids  *treemap.TreeMap[Price, Quantity]
	asks  *treemap.TreeMap[Price, Quantity]
}

// NewAggregatedBook creates an empty aggregated book. Bids iterate best
// (highest) price first, asks best (lowest) first.
func NewAggregatedBook() *AggregatedBook {
	return &AggregatedBook{
		bids: treemap.NewWithKeyCompare[Price, Quantity](func(a, b Price) bool {
			return a > b
		}),
		asks: treemap.NewWithKeyCompare[Price, Quantity](func(a, b Price) bool {
			return a < b
		}),
	}
}

// SequenceID returns the last applied sequence ID.
func (ab *AggregatedBook) SequenceID() uint64 {
	return ab.seqID.Load()
}

func (ab *AggregatedBook) sideMap(side Side) *treemap.TreeMap[Price, Quantity] {
	if side == Buy {
		return ab.bids
	}
	return ab.asks
}

func (ab *AggregatedBook) add(side Side, price Price, quantity Quantity) {
	m := ab.sideMap(side)
	current, _ := m.Get(price)
	m.Set(price, current+quantity)
}

func (ab *AggregatedBook) reduce(side Side, price Price, quantity Quantity) {
	m := ab.sideMap(side)
	current, ok := m.Get(price)
	if !ok {
		return
	}
	if current <= quantity {
		m.Del(price)
		return
	}
	m.Set(price, current-quantity)
}

// Replay applies one BookLog event. Events already applied (sequence id at
// or below the current one) are skipped; a sequence id more than one ahead
// means the stream lost an event and returns ErrSequenceGap. Reject events
// do not affect book state but still advance the sequence ID.
func (ab *AggregatedBook) Replay(log *BookLog) error {
	last := ab.seqID.Load()
	if log.SequenceID <= last {
		return nil
	}
	if log.SequenceID != last+1 {
		return ErrSequenceGap
	}

	switch log.Type {
	case LogTypeOpen:
		ab.add(log.Side, log.Price, log.Quantity)
	case LogTypeCancel:
		ab.reduce(log.Side, log.Price, log.Quantity)
	case LogTypeMatch:
		// A match consumes resting quantity from both sides, each at its
		// own order's price.
		ab.reduce(Buy, log.BidPrice, log.Quantity)
		ab.reduce(Sell, log.AskPrice, log.Quantity)
	case LogTypeReject:
	}

	ab.seqID.Store(log.SequenceID)
	return nil
}

// Rebuild resets the aggregated book from a level snapshot, typically
// obtained via GetOrderInfos, before resuming replay at seqID.
func (ab *AggregatedBook) Rebuild(infos LevelInfos, seqID uint64) {
	ab.bids.Clear()
	ab.asks.Clear()
	for _, level := range infos.Bids {
		ab.bids.Set(level.Price, level.Quantity)
	}
	for _, level := range infos.Asks {
		ab.asks.Set(level.Price, level.Quantity)
	}
	ab.seqID.Store(seqID)
}

// Depth returns the aggregated quantity at a specific price level, or zero
// when the level does not exist.
func (ab *AggregatedBook) Depth(side Side, price Price) Quantity {
	quantity, _ := ab.sideMap(side).Get(price)
	return quantity
}

// TopLevels returns up to limit levels of one side in its natural order.
// limit <= 0 returns all levels.
func (ab *AggregatedBook) TopLevels(side Side, limit int) []LevelInfo {
	m := ab.sideMap(side)
	n := m.Len()
	if limit > 0 && limit < n {
		n = limit
	}
	infos := make([]LevelInfo, 0, n)

	for it := m.Iterator(); it.Valid() && len(infos) < n; it.Next() {
		infos = append(infos, LevelInfo{Price: it.Key(), Quantity: it.Value()})
	}

	return infos
}
