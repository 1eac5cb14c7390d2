package book

// LevelInfo is one aggregated price level: the price and the sum of the
// remaining quantities of every order resting there.
type LevelInfo struct {
	Price    Price
	Quantity Quantity
}

// LevelInfos is a read-only, point-in-time projection of the book: bids in
// descending price order, asks ascending. It must never be used to mutate
// book state.
type LevelInfos struct {
	Bids []LevelInfo
	Asks []LevelInfo
}
