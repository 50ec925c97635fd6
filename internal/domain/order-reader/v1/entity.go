package orderreaderv1

import (
	orderbookv1 "github.com/sm-nvws/limit-order-book/internal/domain/orderbook/v1"
)

// Action represents the requested book operation.
type Action string

const (
	// ActionPlace admits a new order into the book.
	ActionPlace Action = "place"
	// ActionCancel cancels a resting order.
	ActionCancel Action = "cancel"
	// ActionModify replaces a resting order's quantity and/or price.
	ActionModify Action = "modify"
)

// OrderRequest is the wire payload carried on the orders topic.
type OrderRequest struct {
	Action Action `json:"action"`
	UserID string `json:"userID"`

	// Place fields.
	Side  orderbookv1.Side      `json:"side,omitempty"`
	Kind  orderbookv1.OrderKind `json:"kind,omitempty"`
	Price orderbookv1.Price     `json:"price,omitempty"`
	Qty   orderbookv1.Quantity  `json:"qty,omitempty"`

	// Cancel/Modify target.
	OrderID string `json:"orderID,omitempty"`

	// Modify fields; absent fields inherit the prior values.
	NewQty   *orderbookv1.Quantity `json:"newQty,omitempty"`
	NewPrice *orderbookv1.Price    `json:"newPrice,omitempty"`

	// Offset of the request in the stream, set by the reader.
	Offset int64 `json:"-"`
}
