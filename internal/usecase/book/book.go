package book

import (
	"sync"
	"time"

	orderbookv1 "github.com/sm-nvws/limit-order-book/internal/domain/orderbook/v1"
)

// Config holds the tuning limits of a book.
type Config struct {
	// MaxOrderQty bounds the quantity of a single admitted order.
	MaxOrderQty orderbookv1.Quantity
	// MaxLevelDepth bounds the number of resting orders per price level.
	MaxLevelDepth int
	// PriceCollar is the tick offset applied to the opposing best quote when
	// deriving the protective price of a market order.
	PriceCollar orderbookv1.Price
}

// DefaultConfig returns the default book limits.
func DefaultConfig() Config {
	return Config{
		MaxOrderQty:   1_000_000,
		MaxLevelDepth: 1024,
		PriceCollar:   100,
	}
}

// Book is a two-sided limit order book with price-time priority matching.
//
// All mutable state (both side books, the order index and the trade ledger)
// is guarded by one lock; Admit, Cancel and Modify each run to completion
// inside a single critical section, so no two operations interleave. The
// public entry points acquire the lock exactly once and call unlocked
// primitives; Modify composes cancel and admit under that single acquisition
// instead of reacquiring.
type Book struct {
	mu sync.RWMutex

	bids   *orderbookv1.SideBook
	asks   *orderbookv1.SideBook
	orders map[string]*orderbookv1.Order
	trades []orderbookv1.Trade

	cfg Config
}

// NewBook creates an empty book with the given limits.
func NewBook(cfg Config) *Book {
	return &Book{
		bids:   orderbookv1.NewSideBook(orderbookv1.SideBuy),
		asks:   orderbookv1.NewSideBook(orderbookv1.SideSell),
		orders: make(map[string]*orderbookv1.Order),
		cfg:    cfg,
	}
}

// AdmitResult reports the outcome of an admission.
type AdmitResult struct {
	// OrderID identifies the admitted order. It is set whenever the order
	// produced fills or rests in the book; a full rejection carries no id.
	OrderID string
	// Trades are the ledger records appended by this admission, in fill order.
	Trades []orderbookv1.Trade
	// Resting reports whether an unfilled remainder rests in the book.
	Resting bool
}

// Admit validates and admits an order, matching it against the opposing side
// and resting any unfilled limit remainder.
//
// Validation failures reject before any state mutation. A market order with
// no opposing liquidity is rejected with ErrNoLiquidity, also before any
// mutation. If the resting step hits the per-level depth limit the admission
// returns ErrLevelOverflow, but fills recorded earlier in the same call stand:
// the result then carries the order id and those trades alongside the error.
func (b *Book) Admit(userID string, side orderbookv1.Side, kind orderbookv1.OrderKind, price orderbookv1.Price, qty orderbookv1.Quantity) (*AdmitResult, error) {
	if err := b.validate(side, kind, price, qty); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.admitLocked(userID, side, kind, price, qty)
}

// Cancel removes the caller's resting order. Canceling an unknown or already
// canceled id returns ErrOrderNotFound; a second cancel of the same id reports
// the same. An owner mismatch returns ErrNotOwner with no mutation.
func (b *Book) Cancel(userID, orderID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cancelLocked(userID, orderID)
}

// Modify cancels the caller's resting order and re-admits it with any supplied
// new quantity or price, as one atomic unit. Absent fields inherit the prior
// values. The replacement is treated as brand new: it loses the original time
// priority even when the price is unchanged, and may trade immediately.
//
// If the cancel step fails, nothing changed. If the cancel succeeded but the
// re-admission was rejected, the original order is already gone; that outcome
// is surfaced as ErrModifyPartial wrapping the rejection, with any fills from
// the re-admission attempt in the result.
func (b *Book) Modify(userID, orderID string, newQty *orderbookv1.Quantity, newPrice *orderbookv1.Price) (*AdmitResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	order, ok := b.orders[orderID]
	if !ok {
		return nil, orderbookv1.ErrOrderNotFound
	}
	if order.UserID != userID {
		return nil, orderbookv1.ErrNotOwner
	}

	qty := order.Qty
	if newQty != nil {
		qty = *newQty
	}
	price := order.Price
	if newPrice != nil {
		price = *newPrice
	}
	side := order.Side

	// Reject plainly invalid replacements before touching the original.
	if err := b.validate(side, orderbookv1.KindLimit, price, qty); err != nil {
		return nil, err
	}

	if err := b.cancelLocked(userID, orderID); err != nil {
		return nil, err
	}

	result, err := b.admitLocked(userID, side, orderbookv1.KindLimit, price, qty)
	if err != nil {
		return result, errModifyPartial(err)
	}
	return result, nil
}

// validate checks an admission request. No state is read or mutated.
func (b *Book) validate(side orderbookv1.Side, kind orderbookv1.OrderKind, price orderbookv1.Price, qty orderbookv1.Quantity) error {
	if !side.IsValid() {
		return orderbookv1.ErrInvalidSide
	}
	if !kind.IsValid() {
		return orderbookv1.ErrInvalidKind
	}
	if qty <= 0 || qty > b.cfg.MaxOrderQty {
		return orderbookv1.ErrInvalidQuantity
	}
	if kind == orderbookv1.KindLimit && price <= 0 {
		return orderbookv1.ErrInvalidPrice
	}
	return nil
}

// admitLocked is the unlocked admission primitive. Callers hold b.mu.
func (b *Book) admitLocked(userID string, side orderbookv1.Side, kind orderbookv1.OrderKind, price orderbookv1.Price, qty orderbookv1.Quantity) (*AdmitResult, error) {
	if kind == orderbookv1.KindMarket {
		collared, err := b.collarPrice(side)
		if err != nil {
			return nil, err
		}
		price = collared
	}

	order := orderbookv1.NewOrder(userID, side, kind, price, qty)

	trades, err := b.matchLocked(order)
	if err != nil {
		return nil, err
	}

	result := &AdmitResult{
		OrderID: order.ID,
		Trades:  trades,
	}

	// A market order never rests; any remainder after the crossable liquidity
	// is exhausted is discarded.
	if order.Qty == 0 || kind == orderbookv1.KindMarket {
		return result, nil
	}

	own := b.sideBook(side)
	if level := own.Level(order.Price); level != nil && level.OrderCount() >= b.cfg.MaxLevelDepth {
		if len(trades) == 0 {
			return nil, orderbookv1.ErrLevelOverflow
		}
		// Fills recorded above stand; only the resting step is rejected.
		return result, orderbookv1.ErrLevelOverflow
	}

	own.Insert(order.Price, order)
	b.orders[order.ID] = order
	result.Resting = true

	return result, nil
}

// cancelLocked is the unlocked cancel primitive. Callers hold b.mu.
func (b *Book) cancelLocked(userID, orderID string) error {
	order, ok := b.orders[orderID]
	if !ok {
		return orderbookv1.ErrOrderNotFound
	}
	if order.UserID != userID {
		return orderbookv1.ErrNotOwner
	}

	level := order.Level
	level.Remove(orderID)
	delete(b.orders, orderID)

	if level.IsEmpty() {
		b.sideBook(order.Side).RemoveLevelIfEmpty(level.Price)
	}

	return nil
}

// matchLocked crosses the incoming order against the opposing side under
// price-time priority, appending trades to the ledger. The incoming order's
// remaining quantity reflects the fills on return. Callers hold b.mu.
func (b *Book) matchLocked(incoming *orderbookv1.Order) ([]orderbookv1.Trade, error) {
	opposing := b.sideBook(incoming.Side.Opposite())

	var trades []orderbookv1.Trade
	for incoming.Qty > 0 && !opposing.IsEmpty() {
		best, _ := opposing.Best()
		if incoming.Kind == orderbookv1.KindLimit && !crosses(incoming.Side, incoming.Price, best) {
			break
		}

		level := opposing.BestLevel()
		for incoming.Qty > 0 && !level.IsEmpty() {
			resting := level.Front()
			if incoming.Qty < 0 || resting.Qty < 0 {
				return trades, orderbookv1.ErrInternalConsistency
			}

			fill := incoming.Qty
			if resting.Qty < fill {
				fill = resting.Qty
			}
			incoming.Qty -= fill
			resting.Qty -= fill
			if incoming.Qty < 0 || resting.Qty < 0 {
				return trades, orderbookv1.ErrInternalConsistency
			}

			trade := orderbookv1.NewTrade(incoming, resting, level.Price, fill, time.Now().UnixNano())
			b.trades = append(b.trades, trade)
			trades = append(trades, trade)

			if resting.Qty == 0 {
				level.PopFront()
				delete(b.orders, resting.ID)
			}
		}

		if level.IsEmpty() {
			opposing.RemoveLevelIfEmpty(level.Price)
		}
	}

	return trades, nil
}

// collarPrice derives the protective price for a market order: the opposing
// best quote offset by the configured collar. An empty opposing book rejects
// the order outright; a market order never rests.
func (b *Book) collarPrice(side orderbookv1.Side) (orderbookv1.Price, error) {
	best, ok := b.sideBook(side.Opposite()).Best()
	if !ok {
		return 0, orderbookv1.ErrNoLiquidity
	}
	if side == orderbookv1.SideBuy {
		return best + b.cfg.PriceCollar, nil
	}
	return best - b.cfg.PriceCollar, nil
}

func (b *Book) sideBook(side orderbookv1.Side) *orderbookv1.SideBook {
	if side == orderbookv1.SideBuy {
		return b.bids
	}
	return b.asks
}

func crosses(side orderbookv1.Side, price, best orderbookv1.Price) bool {
	if side == orderbookv1.SideBuy {
		return price >= best
	}
	return price <= best
}

func errModifyPartial(cause error) error {
	return &modifyPartialError{cause: cause}
}

// modifyPartialError marks a modify whose cancel step succeeded but whose
// re-admission was rejected. It matches orderbookv1.ErrModifyPartial via
// errors.Is and exposes the rejection through Unwrap.
type modifyPartialError struct {
	cause error
}

func (e *modifyPartialError) Error() string {
	return orderbookv1.ErrModifyPartial.Error() + ": " + e.cause.Error()
}

func (e *modifyPartialError) Unwrap() error {
	return e.cause
}

func (e *modifyPartialError) Is(target error) bool {
	return target == orderbookv1.ErrModifyPartial
}
