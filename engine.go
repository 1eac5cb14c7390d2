package book

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/rs/xid"
	"github.com/shopspring/decimal"
)

type commandType int

const (
	cmdAddOrder commandType = iota
	cmdCancelOrder
	cmdMatchOrder
	cmdSize
	cmdLevelInfos
	cmdDepth
)

type command struct {
	typ     commandType
	ref     string
	payload any
	resp    chan any
}

type addOrderRequest struct {
	order *Order
}

type matchOrderRequest struct {
	modify OrderModify
}

type opResult struct {
	trades Trades
	err    error
}

// Config holds the engine's instrument parameters.
type Config struct {
	// Symbol identifies the instrument on emitted events.
	Symbol string

	// TickSize converts tick prices into currency amounts for event
	// notionals. Defaults to 1.
	TickSize decimal.Decimal

	// CommandBuffer is the capacity of the command channel. Defaults to 4096.
	CommandBuffer int
}

// Engine wraps a Book with a single serialization point. Matching is a
// multi-structure transaction, so the book is never locked piecemeal:
// commands from any number of producers funnel through one channel and one
// consumer goroutine applies them in order against the book. Every public
// operation is synchronous from the caller's point of view.
type Engine struct {
	symbol   string
	tickSize decimal.Decimal

	book  *Book
	idGen *IDGenerator

	seqID      atomic.Uint64 // event stream sequence, one per BookLog
	tradeID    atomic.Uint64 // sequential trade ids, Match events only
	isShutdown atomic.Bool

	cmdChan          chan command
	done             chan struct{}
	shutdownComplete chan struct{}
	publisher        PublishLog
}

// NewEngine creates an engine around a fresh book. Start must be called
// before submitting commands.
func NewEngine(cfg Config, publisher PublishLog) *Engine {
	if cfg.Symbol == "" {
		cfg.Symbol = "UNKNOWN"
	}
	if cfg.TickSize.IsZero() {
		cfg.TickSize = decimal.NewFromInt(1)
	}
	if cfg.CommandBuffer <= 0 {
		cfg.CommandBuffer = 4096
	}

	return &Engine{
		symbol:           cfg.Symbol,
		tickSize:         cfg.TickSize,
		book:             NewBook(),
		idGen:            NewIDGenerator(),
		cmdChan:          make(chan command, cfg.CommandBuffer),
		done:             make(chan struct{}),
		shutdownComplete: make(chan struct{}),
		publisher:        publisher,
	}
}

// NextOrderID issues the next order id. Ids are monotonic for the engine's
// lifetime regardless of how submission is serialized.
func (e *Engine) NextOrderID() OrderID {
	return e.idGen.Next()
}

// AddOrder submits an order and blocks until it has been applied, returning
// the trades it produced. Duplicate ids and unmatchable FillAndKill orders
// are benign no-ops with an empty trade list.
func (e *Engine) AddOrder(ctx context.Context, orderType OrderType, id OrderID, side Side, price Price, quantity Quantity) (Trades, error) {
	order := NewOrder(orderType, id, side, price, quantity)
	res, err := e.submit(ctx, command{typ: cmdAddOrder, payload: &addOrderRequest{order: order}})
	if err != nil {
		return nil, err
	}
	r, _ := res.(opResult)
	return r.trades, r.err
}

// CancelOrder removes a resting order. Canceling an unknown id is a no-op,
// so cancels are safe to retry.
func (e *Engine) CancelOrder(ctx context.Context, id OrderID) error {
	_, err := e.submit(ctx, command{typ: cmdCancelOrder, payload: id})
	return err
}

// MatchOrder replaces an existing order with new side/price/quantity while
// preserving its time in force. The order is treated as a cancel plus a new
// arrival and always loses queue priority. An unknown id returns no trades.
func (e *Engine) MatchOrder(ctx context.Context, id OrderID, newSide Side, newPrice Price, newQuantity Quantity) (Trades, error) {
	modify := OrderModify{ID: id, Side: newSide, Price: newPrice, Quantity: newQuantity}
	res, err := e.submit(ctx, command{typ: cmdMatchOrder, payload: &matchOrderRequest{modify: modify}})
	if err != nil {
		return nil, err
	}
	r, _ := res.(opResult)
	return r.trades, r.err
}

// Size returns the number of currently resting orders.
func (e *Engine) Size(ctx context.Context) (int, error) {
	res, err := e.submit(ctx, command{typ: cmdSize})
	if err != nil {
		return 0, err
	}
	n, _ := res.(int)
	return n, nil
}

// GetOrderInfos returns a consistent snapshot of every occupied price level.
func (e *Engine) GetOrderInfos(ctx context.Context) (LevelInfos, error) {
	res, err := e.submit(ctx, command{typ: cmdLevelInfos})
	if err != nil {
		return LevelInfos{}, err
	}
	infos, _ := res.(LevelInfos)
	return infos, nil
}

// Depth returns the top levels of each side up to limit.
func (e *Engine) Depth(ctx context.Context, limit int) (LevelInfos, error) {
	res, err := e.submit(ctx, command{typ: cmdDepth, payload: limit})
	if err != nil {
		return LevelInfos{}, err
	}
	infos, _ := res.(LevelInfos)
	return infos, nil
}

// SequenceID returns the sequence id of the last emitted event.
func (e *Engine) SequenceID() uint64 {
	return e.seqID.Load()
}

func (e *Engine) submit(ctx context.Context, cmd command) (any, error) {
	if e.isShutdown.Load() {
		return nil, ErrShutdown
	}

	cmd.ref = xid.New().String()
	cmd.resp = make(chan any, 1)

	select {
	case e.cmdChan <- cmd:
	case <-e.done:
		return nil, ErrShutdown
	case <-ctx.Done():
		return nil, ErrTimeout
	}

	select {
	case res := <-cmd.resp:
		return res, nil
	case <-ctx.Done():
		return nil, ErrTimeout
	}
}

// Start runs the engine loop, applying commands in arrival order. It returns
// nil once Shutdown has been called and all pending commands are drained.
func (e *Engine) Start() error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for {
		select {
		case <-e.done:
			return e.drain()
		case cmd := <-e.cmdChan:
			e.apply(cmd)
		}
	}
}

// Shutdown signals the engine to stop accepting new commands and waits for
// pending commands to drain, or for the context to expire.
func (e *Engine) Shutdown(ctx context.Context) error {
	if e.isShutdown.CompareAndSwap(false, true) {
		close(e.done)
	}

	select {
	case <-e.shutdownComplete:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// drain applies all remaining commands before completing shutdown. Read
// commands still get a reply so that blocked callers are released.
func (e *Engine) drain() error {
	defer close(e.shutdownComplete)

	for {
		select {
		case cmd := <-e.cmdChan:
			e.apply(cmd)
		default:
			return nil
		}
	}
}

func (e *Engine) apply(cmd command) {
	var res any

	switch cmd.typ {
	case cmdAddOrder:
		req, _ := cmd.payload.(*addOrderRequest)
		trades, err := e.applyAdd(req.order, cmd.ref)
		res = opResult{trades: trades, err: err}
	case cmdCancelOrder:
		id, _ := cmd.payload.(OrderID)
		e.applyCancel(id, cmd.ref)
		res = opResult{}
	case cmdMatchOrder:
		req, _ := cmd.payload.(*matchOrderRequest)
		trades, err := e.applyMatch(req.modify, cmd.ref)
		res = opResult{trades: trades, err: err}
	case cmdSize:
		res = e.book.Size()
	case cmdLevelInfos:
		res = e.book.GetOrderInfos()
	case cmdDepth:
		limit, _ := cmd.payload.(int)
		res = e.book.Depth(limit)
	}

	if cmd.resp != nil {
		select {
		case cmd.resp <- res:
		default:
		}
	}
}

func (e *Engine) applyAdd(order *Order, ref string) (Trades, error) {
	now := time.Now().UTC()

	if e.book.Contains(order.ID) {
		e.publishReject(order, ref, RejectReasonDuplicateID, now)
		logger.Warn("duplicate order id ignored", "ref", ref, "order_id", uint64(order.ID))
		return nil, nil
	}

	trades, err := e.book.AddOrder(order)
	if err != nil {
		e.publishReject(order, ref, RejectReasonInvalidParam, now)
		logger.Warn("order rejected", "ref", ref, "order_id", uint64(order.ID), "error", err.Error())
		return nil, err
	}

	logs := make([]*BookLog, 0, len(trades)+1)
	logs = e.appendMatchLogs(logs, trades, ref, now)

	if e.book.Contains(order.ID) {
		logs = append(logs, e.openLog(order, ref, now))
	} else if len(trades) == 0 {
		// Unmatchable FillAndKill: discarded without entering the book.
		logs = append(logs, e.rejectLog(order, ref, RejectReasonUnmatchable, now))
	}

	e.publish(logs)
	return trades, nil
}

func (e *Engine) applyCancel(id OrderID, ref string) {
	order := e.book.order(id)
	if order == nil {
		return
	}

	remaining := order.RemainingQuantity()
	e.book.CancelOrder(id)

	log := acquireBookLog()
	log.SequenceID = e.seqID.Add(1)
	log.Type = LogTypeCancel
	log.Symbol = e.symbol
	log.Ref = ref
	log.Side = order.Side
	log.OrderID = order.ID
	log.Price = order.Price
	log.Quantity = remaining
	log.CreatedAt = time.Now().UTC()
	e.publisher.Publish(log)
	releaseBookLog(log)
}

func (e *Engine) applyMatch(modify OrderModify, ref string) (Trades, error) {
	existing := e.book.order(modify.ID)
	if existing == nil {
		return nil, nil
	}

	oldSide := existing.Side
	oldPrice := existing.Price
	oldRemaining := existing.RemainingQuantity()

	trades, err := e.book.MatchOrder(modify)
	if err != nil {
		logger.Warn("modify rejected", "ref", ref, "order_id", uint64(modify.ID), "error", err.Error())
		return nil, err
	}

	now := time.Now().UTC()
	logs := make([]*BookLog, 0, len(trades)+2)

	// The replacement is a cancel plus a new arrival on the event stream too.
	cancel := acquireBookLog()
	cancel.SequenceID = e.seqID.Add(1)
	cancel.Type = LogTypeCancel
	cancel.Symbol = e.symbol
	cancel.Ref = ref
	cancel.Side = oldSide
	cancel.OrderID = modify.ID
	cancel.Price = oldPrice
	cancel.Quantity = oldRemaining
	cancel.CreatedAt = now
	logs = append(logs, cancel)

	logs = e.appendMatchLogs(logs, trades, ref, now)

	if resting := e.book.order(modify.ID); resting != nil {
		logs = append(logs, e.openLog(resting, ref, now))
	}

	e.publish(logs)
	return trades, nil
}

func (e *Engine) appendMatchLogs(logs []*BookLog, trades Trades, ref string, now time.Time) []*BookLog {
	for _, trade := range trades {
		log := acquireBookLog()
		log.SequenceID = e.seqID.Add(1)
		log.TradeID = e.tradeID.Add(1)
		log.Type = LogTypeMatch
		log.Symbol = e.symbol
		log.Ref = ref
		log.Quantity = trade.Bid.Quantity
		log.BidOrderID = trade.Bid.OrderID
		log.BidPrice = trade.Bid.Price
		log.BidAmount = Notional(trade.Bid.Price, trade.Bid.Quantity, e.tickSize)
		log.AskOrderID = trade.Ask.OrderID
		log.AskPrice = trade.Ask.Price
		log.AskAmount = Notional(trade.Ask.Price, trade.Ask.Quantity, e.tickSize)
		log.CreatedAt = now
		logs = append(logs, log)
	}
	return logs
}

func (e *Engine) openLog(order *Order, ref string, now time.Time) *BookLog {
	log := acquireBookLog()
	log.SequenceID = e.seqID.Add(1)
	log.Type = LogTypeOpen
	log.Symbol = e.symbol
	log.Ref = ref
	log.Side = order.Side
	log.OrderID = order.ID
	log.Price = order.Price
	log.Quantity = order.RemainingQuantity()
	log.CreatedAt = now
	return log
}

func (e *Engine) rejectLog(order *Order, ref string, reason RejectReason, now time.Time) *BookLog {
	log := acquireBookLog()
	log.SequenceID = e.seqID.Add(1)
	log.Type = LogTypeReject
	log.Symbol = e.symbol
	log.Ref = ref
	log.Side = order.Side
	log.OrderID = order.ID
	log.Price = order.Price
	log.Quantity = order.RemainingQuantity()
	log.RejectReason = reason
	log.CreatedAt = now
	return log
}

func (e *Engine) publishReject(order *Order, ref string, reason RejectReason, now time.Time) {
	log := e.rejectLog(order, ref, reason, now)
	e.publisher.Publish(log)
	releaseBookLog(log)
}

func (e *Engine) publish(logs []*BookLog) {
	if len(logs) == 0 {
		return
	}
	e.publisher.Publish(logs...)
	for _, log := range logs {
		releaseBookLog(log)
	}
}
