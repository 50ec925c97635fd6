package book

import (
	orderbookv1 "github.com/sm-nvws/limit-order-book/internal/domain/orderbook/v1"
)

// LevelSummary is one price level in a depth view.
type LevelSummary struct {
	Price  orderbookv1.Price    `json:"price"`
	Qty    orderbookv1.Quantity `json:"qty"`
	Orders int                  `json:"orders"`
}

// Depth is an ordered view of the book: bid levels descending,
// ask levels ascending, each with total resting quantity.
type Depth struct {
	Bids []LevelSummary `json:"bids"`
	Asks []LevelSummary `json:"asks"`
}

// BestBid returns the highest resting buy price, or false if no bids rest.
func (b *Book) BestBid() (orderbookv1.Price, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bids.Best()
}

// BestAsk returns the lowest resting sell price, or false if no asks rest.
func (b *Book) BestAsk() (orderbookv1.Price, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.asks.Best()
}

// Spread returns best ask minus best bid, or false unless both are present.
func (b *Book) Spread() (orderbookv1.Price, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	bid, okBid := b.bids.Best()
	ask, okAsk := b.asks.Best()
	if !okBid || !okAsk {
		return 0, false
	}
	return ask - bid, true
}

// SnapshotDepth returns the current depth view of both sides.
func (b *Book) SnapshotDepth() Depth {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return Depth{
		Bids: summarize(b.bids),
		Asks: summarize(b.asks),
	}
}

func summarize(side *orderbookv1.SideBook) []LevelSummary {
	prices := side.PricesSorted()
	summaries := make([]LevelSummary, 0, len(prices))
	for _, price := range prices {
		level := side.Level(price)
		summaries = append(summaries, LevelSummary{
			Price:  price,
			Qty:    level.TotalQuantity(),
			Orders: level.OrderCount(),
		})
	}
	return summaries
}

// Trades returns a copy of the trade ledger in append order.
func (b *Book) Trades() []orderbookv1.Trade {
	b.mu.RLock()
	defer b.mu.RUnlock()

	trades := make([]orderbookv1.Trade, len(b.trades))
	copy(trades, b.trades)
	return trades
}

// OrderCount returns the number of resting orders across both sides.
func (b *Book) OrderCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.orders)
}

// BidTotalQuantity returns total resting bid quantity.
func (b *Book) BidTotalQuantity() orderbookv1.Quantity {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bids.TotalQuantity()
}

// AskTotalQuantity returns total resting ask quantity.
func (b *Book) AskTotalQuantity() orderbookv1.Quantity {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.asks.TotalQuantity()
}
