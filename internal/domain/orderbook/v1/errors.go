package orderbookv1

import "errors"

var (
	// ErrInvalidSide is returned when a request carries a side outside the two defined values.
	ErrInvalidSide = errors.New("invalid side")
	// ErrInvalidKind is returned when a request carries an unknown order kind.
	ErrInvalidKind = errors.New("invalid order kind")
	// ErrInvalidQuantity is returned when a quantity is not a positive integer
	// within the configured maximum.
	ErrInvalidQuantity = errors.New("quantity must be positive and within the configured maximum")
	// ErrInvalidPrice is returned when a limit order is missing a positive price.
	ErrInvalidPrice = errors.New("limit order requires a positive price")

	// ErrNoLiquidity is returned when a market order arrives with no opposing book.
	ErrNoLiquidity = errors.New("no opposing liquidity for market order")

	// ErrLevelOverflow is returned when the resting step of an admission would
	// exceed the configured per-level depth. Fills recorded earlier in the same
	// call are not rolled back.
	ErrLevelOverflow = errors.New("price level depth limit reached")

	// ErrOrderNotFound is returned when an order id is not present in the index.
	ErrOrderNotFound = errors.New("order not found")
	// ErrNotOwner is returned when the caller does not own the targeted order.
	ErrNotOwner = errors.New("order belongs to another user")

	// ErrModifyPartial is returned when a modify canceled the original order but
	// the re-admission was rejected. The original order is gone.
	ErrModifyPartial = errors.New("modify partially failed, original order lost")

	// ErrInternalConsistency is returned when matching observes a negative
	// quantity. The operation aborts rather than continue silently.
	ErrInternalConsistency = errors.New("internal consistency violation: negative quantity")
)
