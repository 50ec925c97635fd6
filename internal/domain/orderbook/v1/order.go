package orderbookv1

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Side represents which side of the book an order belongs to.
type Side string

const (
	// SideBuy represents a buy (bid) order.
	SideBuy Side = "buy"
	// SideSell represents a sell (ask) order.
	SideSell Side = "sell"
)

// IsValid reports whether the side is one of the two defined values.
func (s Side) IsValid() bool {
	return s == SideBuy || s == SideSell
}

// Opposite returns the opposing side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// OrderKind represents the kind of order.
type OrderKind string

const (
	// KindLimit represents a limit order.
	KindLimit OrderKind = "limit"
	// KindMarket represents a market order.
	KindMarket OrderKind = "market"
)

// IsValid reports whether the kind is one of the two defined values.
func (k OrderKind) IsValid() bool {
	return k == KindLimit || k == KindMarket
}

// Price is a fixed-precision price expressed in integer ticks.
type Price int64

// Quantity is an order quantity, strictly positive while an order is live.
type Quantity int64

// Order represents a single order in the order book.
type Order struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userID"`
	Side      Side      `json:"side"`
	Kind      OrderKind `json:"kind"`
	Price     Price     `json:"price"`
	Qty       Quantity  `json:"qty"`
	Timestamp int64     `json:"timestamp"`

	// Level points at the price level currently holding this order,
	// nil while the order is not resting.
	Level *PriceLevel `json:"-"`
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewOrderID returns a new globally unique, opaque order id. Ids are ULIDs,
// so they are not derivable from insertion order by other users.
func NewOrderID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// NewOrder creates a new order with a fresh id.
func NewOrder(userID string, side Side, kind OrderKind, price Price, qty Quantity) *Order {
	return &Order{
		ID:        NewOrderID(),
		UserID:    userID,
		Side:      side,
		Kind:      kind,
		Price:     price,
		Qty:       qty,
		Timestamp: time.Now().UnixNano(),
	}
}

// IsBuy checks if the order is a buy (bid) order.
func (o *Order) IsBuy() bool {
	return o.Side == SideBuy
}

// IsSell checks if the order is a sell (ask) order.
func (o *Order) IsSell() bool {
	return o.Side == SideSell
}

// IsFilled checks if the order is filled (quantity is zero).
func (o *Order) IsFilled() bool {
	return o.Qty == 0
}
