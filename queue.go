package book

import (
	"github.com/huandu/skiplist"
)

// priceLevel is the FIFO of orders resting at one exact price on one side.
// Orders are linked intrusively; totalQty is maintained on every mutation so
// depth queries never walk the list.
type priceLevel struct {
	price    Price
	totalQty Quantity
	head     *Order
	tail     *Order
	count    int
}

// enqueue appends an order at the tail (lowest time priority).
func (l *priceLevel) enqueue(o *Order) {
	o.prev = l.tail
	o.next = nil
	if l.tail != nil {
		l.tail.next = o
	} else {
		l.head = o
	}
	l.tail = o
	l.totalQty += o.remainingQuantity
	l.count++
	o.level = l
}

// unlink removes an order from anywhere in the FIFO in O(1).
func (l *priceLevel) unlink(o *Order) {
	if o.prev != nil {
		o.prev.next = o.next
	} else {
		l.head = o.next
	}
	if o.next != nil {
		o.next.prev = o.prev
	} else {
		l.tail = o.prev
	}
	o.next = nil
	o.prev = nil
	o.level = nil
	l.totalQty -= o.remainingQuantity
	l.count--
}

// queue is one side of the book: price levels ordered best-first in a skip
// list (bids descending, asks ascending), with a hash map from price to the
// skip list element for O(log P) insert and O(1)-amortized level lookup.
type queue struct {
	side        Side
	totalOrders int
	levelList   *skiplist.SkipList
	levels      map[Price]*skiplist.Element
}

// newBidQueue creates the buy side. Best bid (highest price) iterates first.
func newBidQueue() *queue {
	return &queue{
		side: Buy,
		levelList: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			p1, _ := lhs.(int64)
			p2, _ := rhs.(int64)

			if p1 < p2 {
				return 1
			} else if p1 > p2 {
				return -1
			}

			return 0
		})),
		levels: make(map[Price]*skiplist.Element),
	}
}

// newAskQueue creates the sell side. Best ask (lowest price) iterates first.
func newAskQueue() *queue {
	return &queue{
		side: Sell,
		levelList: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			p1, _ := lhs.(int64)
			p2, _ := rhs.(int64)

			if p1 > p2 {
				return 1
			} else if p1 < p2 {
				return -1
			}

			return 0
		})),
		levels: make(map[Price]*skiplist.Element),
	}
}

// insertOrder appends the order at the tail of its price level, creating the
// level if absent.
func (q *queue) insertOrder(o *Order) {
	el, ok := q.levels[o.Price]
	var level *priceLevel
	if ok {
		level, _ = el.Value.(*priceLevel)
	} else {
		level = &priceLevel{price: o.Price}
		q.levels[o.Price] = q.levelList.Set(int64(o.Price), level)
	}
	level.enqueue(o)
	q.totalOrders++
}

// removeOrder unlinks a resting order and drops its level when it empties.
// A level exists in the skip list iff its FIFO is non-empty.
func (q *queue) removeOrder(o *Order) {
	level := o.level
	if level == nil {
		return
	}
	level.unlink(o)
	q.totalOrders--

	if level.count == 0 {
		el, ok := q.levels[level.price]
		if ok {
			q.levelList.RemoveElement(el)
			delete(q.levels, level.price)
		}
	}
}

// reduceOrder fills a resting order in place, keeping the level total in
// sync. The order keeps its queue position; the caller removes it once fully
// filled.
func (q *queue) reduceOrder(o *Order, quantity Quantity) error {
	if err := o.Fill(quantity); err != nil {
		return err
	}
	if o.level != nil {
		o.level.totalQty -= quantity
	}
	return nil
}

// bestLevel returns the most aggressive price level, or nil when the side is
// empty.
func (q *queue) bestLevel() *priceLevel {
	el := q.levelList.Front()
	if el == nil {
		return nil
	}
	level, _ := el.Value.(*priceLevel)
	return level
}

// peekHead returns the highest-priority order on this side without removing
// it.
func (q *queue) peekHead() *Order {
	level := q.bestLevel()
	if level == nil {
		return nil
	}
	return level.head
}

func (q *queue) orderCount() int {
	return q.totalOrders
}

func (q *queue) levelCount() int {
	return q.levelList.Len()
}

// levelInfos aggregates every occupied level in the side's natural order.
// limit <= 0 returns all levels.
func (q *queue) levelInfos(limit int) []LevelInfo {
	n := q.levelList.Len()
	if limit > 0 && limit < n {
		n = limit
	}
	infos := make([]LevelInfo, 0, n)

	el := q.levelList.Front()
	for el != nil && len(infos) < n {
		level, _ := el.Value.(*priceLevel)
		infos = append(infos, LevelInfo{Price: level.price, Quantity: level.totalQty})
		el = el.Next()
	}

	return infos
}
