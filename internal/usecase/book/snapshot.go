package book

import (
	"fmt"

	orderbookv1 "github.com/sm-nvws/limit-order-book/internal/domain/orderbook/v1"
	snapshotv1 "github.com/sm-nvws/limit-order-book/internal/domain/snapshot/v1"
)

// CreateSnapshot captures the current book state. Orders are emitted level by
// level in FIFO order so a restore reproduces time priority exactly.
func (b *Book) CreateSnapshot() *snapshotv1.Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var bookOrders []snapshotv1.BookOrder
	for _, side := range []*orderbookv1.SideBook{b.bids, b.asks} {
		for _, price := range side.PricesSorted() {
			for _, order := range side.Level(price).Orders {
				bookOrders = append(bookOrders, snapshotv1.BookOrder{
					OrderID:   order.ID,
					UserID:    order.UserID,
					Side:      order.Side,
					Price:     price,
					Qty:       order.Qty,
					Timestamp: order.Timestamp,
				})
			}
		}
	}

	trades := make([]orderbookv1.Trade, len(b.trades))
	copy(trades, b.trades)

	return &snapshotv1.Snapshot{
		// OrderOffset is set by the engine.
		Orders: bookOrders,
		Trades: trades,
	}
}

// Restore replaces the book state with the snapshot's contents.
func (b *Book) Restore(snapshot *snapshotv1.Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.bids = orderbookv1.NewSideBook(orderbookv1.SideBuy)
	b.asks = orderbookv1.NewSideBook(orderbookv1.SideSell)
	b.orders = make(map[string]*orderbookv1.Order)
	b.trades = append([]orderbookv1.Trade(nil), snapshot.Trades...)

	for _, bookOrder := range snapshot.Orders {
		if !bookOrder.Side.IsValid() {
			return fmt.Errorf("failed to restore order %s: %w", bookOrder.OrderID, orderbookv1.ErrInvalidSide)
		}
		if bookOrder.Qty <= 0 {
			return fmt.Errorf("failed to restore order %s: %w", bookOrder.OrderID, orderbookv1.ErrInvalidQuantity)
		}

		order := &orderbookv1.Order{
			ID:        bookOrder.OrderID,
			UserID:    bookOrder.UserID,
			Side:      bookOrder.Side,
			Kind:      orderbookv1.KindLimit,
			Price:     bookOrder.Price,
			Qty:       bookOrder.Qty,
			Timestamp: bookOrder.Timestamp,
		}

		b.sideBook(order.Side).Insert(order.Price, order)
		b.orders[order.ID] = order
	}

	return nil
}
