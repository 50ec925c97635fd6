package orderbookv1

import "sort"

// SideBook maps price to PriceLevel for one side of the book and caches the
// best price: the max key for bids, the min key for asks. The cache always
// equals the true extreme key, or is absent iff the mapping is empty.
type SideBook struct {
	side    Side
	levels  map[Price]*PriceLevel
	best    Price
	hasBest bool
}

// NewSideBook creates an empty side book for the given side.
func NewSideBook(side Side) *SideBook {
	return &SideBook{
		side:   side,
		levels: make(map[Price]*PriceLevel),
	}
}

// Side returns which side this book holds.
func (b *SideBook) Side() Side {
	return b.side
}

// better reports whether a is a better price than b for this side.
func (b *SideBook) better(a, other Price) bool {
	if b.side == SideBuy {
		return a > other
	}
	return a < other
}

// Insert appends the order to the level at the given price, creating the level
// if absent. The cached best price is updated in O(1) by comparison against
// the new price.
func (b *SideBook) Insert(price Price, order *Order) {
	level, ok := b.levels[price]
	if !ok {
		level = NewPriceLevel(price)
		b.levels[price] = level
	}
	level.Append(order)

	if !b.hasBest || b.better(price, b.best) {
		b.best = price
		b.hasBest = true
	}
}

// Level returns the level at the given price, or nil if absent.
func (b *SideBook) Level(price Price) *PriceLevel {
	return b.levels[price]
}

// RemoveLevelIfEmpty deletes the mapping entry if its queue is empty and
// recomputes the cached best price. The recomputation rescans all remaining
// keys; this is O(levels) per removal and is a recognized cost, acceptable at
// the book depths this engine targets.
func (b *SideBook) RemoveLevelIfEmpty(price Price) {
	level, ok := b.levels[price]
	if !ok || !level.IsEmpty() {
		return
	}
	delete(b.levels, price)
	b.refreshBest()
}

func (b *SideBook) refreshBest() {
	b.hasBest = false
	for price := range b.levels {
		if !b.hasBest || b.better(price, b.best) {
			b.best = price
			b.hasBest = true
		}
	}
}

// Best returns the cached best price, or false if the side is empty.
func (b *SideBook) Best() (Price, bool) {
	return b.best, b.hasBest
}

// BestLevel returns the level at the current best price for matching,
// or nil if the side is empty.
func (b *SideBook) BestLevel() *PriceLevel {
	if !b.hasBest {
		return nil
	}
	return b.levels[b.best]
}

// IsEmpty checks if the side holds no levels.
func (b *SideBook) IsEmpty() bool {
	return len(b.levels) == 0
}

// LevelCount returns the number of populated price levels.
func (b *SideBook) LevelCount() int {
	return len(b.levels)
}

// PricesSorted returns all populated prices in priority order:
// descending for bids, ascending for asks.
func (b *SideBook) PricesSorted() []Price {
	prices := make([]Price, 0, len(b.levels))
	for price := range b.levels {
		prices = append(prices, price)
	}
	sort.Slice(prices, func(i, j int) bool {
		return b.better(prices[i], prices[j])
	})
	return prices
}

// TotalQuantity returns the total resting quantity on this side.
func (b *SideBook) TotalQuantity() Quantity {
	var total Quantity
	for _, level := range b.levels {
		total += level.TotalQuantity()
	}
	return total
}
