package main

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	book "github.com/quantfill/limitbook"
)

func formatPrice(price book.Price, tickSize decimal.Decimal) string {
	return decimal.NewFromInt(int64(price)).Mul(tickSize).String()
}

// renderBook produces a fixed-depth two-column view of the book. It never
// assumes more than depth levels exist; missing levels render as blanks.
func renderBook(infos book.LevelInfos, depth int, tickSize decimal.Decimal) string {
	const colWidth = 21

	var sb strings.Builder
	sb.WriteString("\033[2J\033[1;1H")
	sb.WriteString(fmt.Sprintf("%-*s | %-*s\n", colWidth, "      BIDS (BUY)", colWidth, "     ASKS (SELL)"))
	sb.WriteString(fmt.Sprintf("%-*s | %-*s\n", colWidth, "   price       qty", colWidth, "   price       qty"))
	sb.WriteString(strings.Repeat("-", colWidth*2+3) + "\n")

	for i := 0; i < depth; i++ {
		bid := strings.Repeat(" ", colWidth)
		ask := strings.Repeat(" ", colWidth)

		if i < len(infos.Bids) {
			bid = fmt.Sprintf("%10s %10d", formatPrice(infos.Bids[i].Price, tickSize), infos.Bids[i].Quantity)
		}
		if i < len(infos.Asks) {
			ask = fmt.Sprintf("%10s %10d", formatPrice(infos.Asks[i].Price, tickSize), infos.Asks[i].Quantity)
		}

		sb.WriteString(fmt.Sprintf("%-*s | %-*s\n", colWidth, bid, colWidth, ask))
	}

	return sb.String()
}
