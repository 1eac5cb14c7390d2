package book

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type LogType string

const (
	LogTypeOpen   LogType = "open"   // order rested in the book
	LogTypeMatch  LogType = "match"  // one executed trade
	LogTypeCancel LogType = "cancel" // order removed without (further) execution
	LogTypeReject LogType = "reject" // order never entered the book
)

// RejectReason explains a reject event.
type RejectReason string

const (
	RejectReasonNone         RejectReason = ""
	RejectReasonDuplicateID  RejectReason = "duplicate_id"  // id already resting
	RejectReasonUnmatchable  RejectReason = "unmatchable"   // FillAndKill with no cross
	RejectReasonInvalidParam RejectReason = "invalid_param" // failed validation
)

// BookLog is one event in the book's output stream. SequenceID increases by
// one per event and lets downstream consumers order, deduplicate, and detect
// gaps. Open, Match, and Cancel affect book state; Reject does not.
//
// Match events carry both sides: each order executes at its own price, so
// there is no single trade price.
type BookLog struct {
	SequenceID uint64  `json:"seq_id"`
	TradeID    uint64  `json:"trade_id,omitempty"` // only set for Match events
	Type       LogType `json:"type"`
	Symbol     string  `json:"symbol"`
	Ref        string  `json:"ref,omitempty"` // command correlation id

	// Open/Cancel/Reject fields.
	Side     Side     `json:"side,omitempty"`
	OrderID  OrderID  `json:"order_id,omitempty"`
	Price    Price    `json:"price,omitempty"`
	Quantity Quantity `json:"quantity,omitempty"`

	// Match fields.
	BidOrderID OrderID         `json:"bid_order_id,omitempty"`
	BidPrice   Price           `json:"bid_price,omitempty"`
	BidAmount  decimal.Decimal `json:"bid_amount,omitempty"` // notional at the bid's price
	AskOrderID OrderID         `json:"ask_order_id,omitempty"`
	AskPrice   Price           `json:"ask_price,omitempty"`
	AskAmount  decimal.Decimal `json:"ask_amount,omitempty"` // notional at the ask's price

	RejectReason RejectReason `json:"reject_reason,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

var bookLogPool = sync.Pool{
	New: func() interface{} {
		return new(BookLog)
	},
}

func acquireBookLog() *BookLog {
	return bookLogPool.Get().(*BookLog)
}

func releaseBookLog(log *BookLog) {
	// Reset to zero values. decimal.Decimal's zero value represents 0.
	*log = BookLog{}
	bookLogPool.Put(log)
}

// Notional converts a tick price and quantity into a currency amount using
// the instrument's tick size.
func Notional(price Price, quantity Quantity, tickSize decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(int64(price)).
		Mul(tickSize).
		Mul(decimal.NewFromInt(int64(quantity)))
}
