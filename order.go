package book

import (
	"fmt"
	"sync/atomic"
)

type Side int8

const (
	Buy  Side = 1
	Sell Side = 2
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	}
	return "unknown"
}

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

type OrderType string

const (
	GoodTillCancel OrderType = "gtc" // rests until filled or canceled
	FillAndKill    OrderType = "fak" // executes immediately, remainder discarded
)

type (
	// OrderID is a process-unique, monotonically assigned identifier.
	OrderID uint64

	// Price is expressed in ticks, a signed integer unit smaller than the currency.
	Price int64

	// Quantity is a count of units; remaining quantity only ever decreases.
	Quantity uint64
)

// Order is the state of a single resting or incoming order.
// The book owns every Order it has accepted; callers must not mutate one
// after submission.
type Order struct {
	ID    OrderID
	Type  OrderType
	Side  Side
	Price Price

	initialQuantity   Quantity
	remainingQuantity Quantity

	// Intrusive FIFO links, valid only while resting in a price level.
	next  *Order
	prev  *Order
	level *priceLevel
}

// NewOrder creates an unfilled order.
func NewOrder(orderType OrderType, id OrderID, side Side, price Price, quantity Quantity) *Order {
	return &Order{
		ID:                id,
		Type:              orderType,
		Side:              side,
		Price:             price,
		initialQuantity:   quantity,
		remainingQuantity: quantity,
	}
}

func (o *Order) InitialQuantity() Quantity {
	return o.initialQuantity
}

func (o *Order) RemainingQuantity() Quantity {
	return o.remainingQuantity
}

func (o *Order) FilledQuantity() Quantity {
	return o.initialQuantity - o.remainingQuantity
}

func (o *Order) IsFilled() bool {
	return o.remainingQuantity == 0
}

// Fill decrements the remaining quantity. Filling more than remains is a
// contract violation; the order is left unmodified and ErrOverfill returned.
func (o *Order) Fill(quantity Quantity) error {
	if quantity > o.remainingQuantity {
		return fmt.Errorf("order %d: requested %d, remaining %d: %w",
			o.ID, quantity, o.remainingQuantity, ErrOverfill)
	}
	o.remainingQuantity -= quantity
	return nil
}

// OrderModify is a transient request to replace an existing order's
// side/price/quantity. The time in force is not part of the request; it is
// inherited from the order being replaced.
type OrderModify struct {
	ID       OrderID
	Side     Side
	Price    Price
	Quantity Quantity
}

// ToOrder builds a fresh, unfilled order from the modify request.
func (m OrderModify) ToOrder(orderType OrderType) *Order {
	return NewOrder(orderType, m.ID, m.Side, m.Price, m.Quantity)
}

// reservedIDRange keeps low ids free for well-known or test fixtures.
const reservedIDRange = 1000

// IDGenerator issues monotonically increasing order ids. It is explicit
// state rather than a process-wide counter so that engines are independently
// testable and id sequences deterministic per instance.
type IDGenerator struct {
	current atomic.Uint64
}

func NewIDGenerator() *IDGenerator {
	g := &IDGenerator{}
	g.current.Store(reservedIDRange - 1)
	return g
}

// Next returns the next order id. Safe for concurrent use.
func (g *IDGenerator) Next() OrderID {
	return OrderID(g.current.Add(1))
}
