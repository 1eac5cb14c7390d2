package book

// Book is a single-instrument limit order book matching under price/time
// priority. It is single-threaded: every method runs to completion and the
// caller must serialize access (Engine provides a channel-based serialization
// point for multi-producer use).
type Book struct {
	bids   *queue
	asks   *queue
	orders map[OrderID]*Order
}

// NewBook creates an empty book.
func NewBook() *Book {
	return &Book{
		bids:   newBidQueue(),
		asks:   newAskQueue(),
		orders: make(map[OrderID]*Order),
	}
}

func (b *Book) validate(side Side, price Price, quantity Quantity) error {
	if side != Buy && side != Sell {
		return ErrInvalidSide
	}
	if quantity == 0 {
		return ErrInvalidQuantity
	}
	if price <= 0 {
		return ErrInvalidPrice
	}
	return nil
}

func (b *Book) sideQueue(side Side) *queue {
	if side == Buy {
		return b.bids
	}
	return b.asks
}

// canMatch reports whether an order at the given side and price would cross
// the opposing best level.
func (b *Book) canMatch(side Side, price Price) bool {
	if side == Buy {
		best := b.asks.bestLevel()
		return best != nil && price >= best.price
	}
	best := b.bids.bestLevel()
	return best != nil && price <= best.price
}

// AddOrder submits an order and returns the trades it produced.
//
// A duplicate order id is a benign no-op: duplicates are a caller bug but
// must not corrupt book state. A FillAndKill order that cannot immediately
// cross is discarded without entering the book. Zero quantity or a
// non-positive price is rejected with an error.
func (b *Book) AddOrder(order *Order) (Trades, error) {
	if err := b.validate(order.Side, order.Price, order.remainingQuantity); err != nil {
		return nil, err
	}
	if order.Type != GoodTillCancel && order.Type != FillAndKill {
		return nil, ErrInvalidType
	}

	if _, ok := b.orders[order.ID]; ok {
		return nil, nil
	}

	if order.Type == FillAndKill && !b.canMatch(order.Side, order.Price) {
		return nil, nil
	}

	b.sideQueue(order.Side).insertOrder(order)
	b.orders[order.ID] = order

	trades := b.matchOrders()

	// A FillAndKill remainder must never rest.
	if order.Type == FillAndKill {
		if _, ok := b.orders[order.ID]; ok {
			b.remove(order)
		}
	}

	return trades, nil
}

// matchOrders repeatedly crosses the best bid and best ask levels. Each
// iteration fills the two head orders by the smaller remaining quantity and
// records a trade where each side executes at its own order's price. Fully
// filled orders leave their FIFO and the index; emptied levels leave the
// book before the next price pair is examined.
func (b *Book) matchOrders() Trades {
	var trades Trades

	for {
		bidLevel := b.bids.bestLevel()
		askLevel := b.asks.bestLevel()
		if bidLevel == nil || askLevel == nil {
			break
		}
		if bidLevel.price < askLevel.price {
			break
		}

		bid := bidLevel.head
		ask := askLevel.head

		quantity := bid.remainingQuantity
		if ask.remainingQuantity < quantity {
			quantity = ask.remainingQuantity
		}

		// The quantity is min(remaining, remaining); a failure here means
		// the book's own bookkeeping diverged.
		mustFill(b.bids.reduceOrder(bid, quantity))
		mustFill(b.asks.reduceOrder(ask, quantity))

		trades = append(trades, Trade{
			Bid: TradeInfo{OrderID: bid.ID, Price: bid.Price, Quantity: quantity},
			Ask: TradeInfo{OrderID: ask.ID, Price: ask.Price, Quantity: quantity},
		})

		if bid.IsFilled() {
			b.remove(bid)
		}
		if ask.IsFilled() {
			b.remove(ask)
		}
	}

	return trades
}

func mustFill(err error) {
	if err != nil {
		panic("book: fill invariant violated: " + err.Error())
	}
}

// remove takes an order out of its FIFO, its level (dropping the level when
// it empties), and the index, atomically with respect to the current
// operation.
func (b *Book) remove(order *Order) {
	b.sideQueue(order.Side).removeOrder(order)
	delete(b.orders, order.ID)
}

// CancelOrder removes a resting order. Canceling an unknown id is a no-op,
// which gives callers at-least-once cancel semantics.
func (b *Book) CancelOrder(id OrderID) {
	order, ok := b.orders[id]
	if !ok {
		return
	}
	b.remove(order)
}

// MatchOrder replaces an existing order with the modify request's
// side/price/quantity, preserving the original time in force. The order is
// canceled and resubmitted, so it always loses queue priority; this is the
// intended semantics, not an optimization target. An unknown id is a no-op.
func (b *Book) MatchOrder(modify OrderModify) (Trades, error) {
	existing, ok := b.orders[modify.ID]
	if !ok {
		return nil, nil
	}

	if err := b.validate(modify.Side, modify.Price, modify.Quantity); err != nil {
		return nil, err
	}

	orderType := existing.Type
	b.remove(existing)
	return b.AddOrder(modify.ToOrder(orderType))
}

// Size returns the number of currently resting orders.
func (b *Book) Size() int {
	return len(b.orders)
}

// Contains reports whether an order id currently rests in the book.
func (b *Book) Contains(id OrderID) bool {
	_, ok := b.orders[id]
	return ok
}

// Order returns the resting order with the given id, or nil.
func (b *Book) order(id OrderID) *Order {
	return b.orders[id]
}

// BestBid returns the highest resting bid price.
func (b *Book) BestBid() (Price, bool) {
	level := b.bids.bestLevel()
	if level == nil {
		return 0, false
	}
	return level.price, true
}

// BestAsk returns the lowest resting ask price.
func (b *Book) BestAsk() (Price, bool) {
	level := b.asks.bestLevel()
	if level == nil {
		return 0, false
	}
	return level.price, true
}

// GetOrderInfos aggregates every occupied level on both sides into a
// consistent instantaneous snapshot.
func (b *Book) GetOrderInfos() LevelInfos {
	return LevelInfos{
		Bids: b.bids.levelInfos(0),
		Asks: b.asks.levelInfos(0),
	}
}

// Depth returns the top levels of each side up to limit.
func (b *Book) Depth(limit int) LevelInfos {
	return LevelInfos{
		Bids: b.bids.levelInfos(limit),
		Asks: b.asks.levelInfos(limit),
	}
}
