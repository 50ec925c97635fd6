package orderbookv1

// Trade is one record in the trade ledger. The buyer's order id is always
// listed first, regardless of which side initiated the match. Records are
// immutable once appended.
type Trade struct {
	BuyOrderID  string   `json:"buyOrderID"`
	SellOrderID string   `json:"sellOrderID"`
	Price       Price    `json:"price"`
	Qty         Quantity `json:"qty"`
	Timestamp   int64    `json:"timestamp"`
}

// NewTrade builds a buyer-first trade record from an incoming/resting pair.
func NewTrade(incoming, resting *Order, price Price, qty Quantity, timestamp int64) Trade {
	buy, sell := incoming, resting
	if incoming.IsSell() {
		buy, sell = resting, incoming
	}
	return Trade{
		BuyOrderID:  buy.ID,
		SellOrderID: sell.ID,
		Price:       price,
		Qty:         qty,
		Timestamp:   timestamp,
	}
}
