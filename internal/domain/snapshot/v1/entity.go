package snapshotv1

import (
	orderbookv1 "github.com/sm-nvws/limit-order-book/internal/domain/orderbook/v1"
)

// BookOrder is one resting order captured in a snapshot. Orders appear in
// FIFO order within their level so that time priority survives a restore.
type BookOrder struct {
	OrderID   string               `json:"orderID"`
	UserID    string               `json:"userID"`
	Side      orderbookv1.Side     `json:"side"`
	Price     orderbookv1.Price    `json:"price"`
	Qty       orderbookv1.Quantity `json:"qty"`
	Timestamp int64                `json:"timestamp"`
}

// Snapshot captures the full book state at a stream offset.
type Snapshot struct {
	OrderOffset int64               `json:"orderOffset"`
	Orders      []BookOrder         `json:"orders"`
	Trades      []orderbookv1.Trade `json:"trades"`
}
