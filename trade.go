package book

// TradeInfo is one side's fill record: the order that traded, the price that
// side executed at (its own order price), and the executed quantity.
type TradeInfo struct {
	OrderID  OrderID
	Price    Price
	Quantity Quantity
}

// Trade records one matched quantity between a buy-side and a sell-side
// order. Both sides always carry the same quantity; the prices may differ
// when the aggressor crossed the resting price, since each side executes at
// its own order's price.
type Trade struct {
	Bid TradeInfo
	Ask TradeInfo
}

type Trades []Trade
