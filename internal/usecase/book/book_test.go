package book

import (
	"math/rand"
	"testing"

	orderbookv1 "github.com/sm-nvws/limit-order-book/internal/domain/orderbook/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBook() *Book {
	return NewBook(DefaultConfig())
}

func mustAdmit(t *testing.T, b *Book, userID string, side orderbookv1.Side, kind orderbookv1.OrderKind, price orderbookv1.Price, qty orderbookv1.Quantity) *AdmitResult {
	t.Helper()
	result, err := b.Admit(userID, side, kind, price, qty)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

// Test 1: Basic constructor
func TestNewBook(t *testing.T) {
	b := newTestBook()

	assert.NotNil(t, b)
	assert.Equal(t, 0, b.OrderCount())
	assert.Empty(t, b.Trades())

	_, ok := b.BestBid()
	assert.False(t, ok)
	_, ok = b.BestAsk()
	assert.False(t, ok)
	_, ok = b.Spread()
	assert.False(t, ok)
}

// Test 2: A lone limit order rests
func TestBook_Admit_RestingLimit(t *testing.T) {
	b := newTestBook()

	result := mustAdmit(t, b, "user1", orderbookv1.SideBuy, orderbookv1.KindLimit, 100, 10)

	assert.NotEmpty(t, result.OrderID)
	assert.True(t, result.Resting)
	assert.Empty(t, result.Trades)
	assert.Equal(t, 1, b.OrderCount())

	best, ok := b.BestBid()
	require.True(t, ok)
	assert.Equal(t, orderbookv1.Price(100), best)
}

// Test 3: Validation failures reject with no state change
func TestBook_Admit_Validation(t *testing.T) {
	b := newTestBook()

	testCases := []struct {
		name        string
		side        orderbookv1.Side
		kind        orderbookv1.OrderKind
		price       orderbookv1.Price
		qty         orderbookv1.Quantity
		expectedErr error
	}{
		{
			name:        "invalid side",
			side:        orderbookv1.Side("hold"),
			kind:        orderbookv1.KindLimit,
			price:       100,
			qty:         10,
			expectedErr: orderbookv1.ErrInvalidSide,
		},
		{
			name:        "invalid kind",
			side:        orderbookv1.SideBuy,
			kind:        orderbookv1.OrderKind("stop"),
			price:       100,
			qty:         10,
			expectedErr: orderbookv1.ErrInvalidKind,
		},
		{
			name:        "zero quantity",
			side:        orderbookv1.SideBuy,
			kind:        orderbookv1.KindLimit,
			price:       100,
			qty:         0,
			expectedErr: orderbookv1.ErrInvalidQuantity,
		},
		{
			name:        "negative quantity",
			side:        orderbookv1.SideSell,
			kind:        orderbookv1.KindLimit,
			price:       100,
			qty:         -5,
			expectedErr: orderbookv1.ErrInvalidQuantity,
		},
		{
			name:        "quantity above configured maximum",
			side:        orderbookv1.SideBuy,
			kind:        orderbookv1.KindLimit,
			price:       100,
			qty:         DefaultConfig().MaxOrderQty + 1,
			expectedErr: orderbookv1.ErrInvalidQuantity,
		},
		{
			name:        "limit order without price",
			side:        orderbookv1.SideBuy,
			kind:        orderbookv1.KindLimit,
			price:       0,
			qty:         10,
			expectedErr: orderbookv1.ErrInvalidPrice,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := b.Admit("user1", tc.side, tc.kind, tc.price, tc.qty)

			assert.ErrorIs(t, err, tc.expectedErr)
			assert.Nil(t, result)
			assert.Equal(t, 0, b.OrderCount())
			assert.Empty(t, b.Trades())
		})
	}
}

// Test 4: Partial fill scenario, Buy 10@100 then Sell 5@100
func TestBook_Admit_PartialFill(t *testing.T) {
	b := newTestBook()

	buy := mustAdmit(t, b, "buyer", orderbookv1.SideBuy, orderbookv1.KindLimit, 100, 10)
	sell := mustAdmit(t, b, "seller", orderbookv1.SideSell, orderbookv1.KindLimit, 100, 5)

	require.Len(t, sell.Trades, 1)
	trade := sell.Trades[0]
	assert.Equal(t, buy.OrderID, trade.BuyOrderID)
	assert.Equal(t, sell.OrderID, trade.SellOrderID)
	assert.Equal(t, orderbookv1.Price(100), trade.Price)
	assert.Equal(t, orderbookv1.Quantity(5), trade.Qty)
	assert.False(t, sell.Resting)

	// The buy order rests with the remaining 5 at 100.
	best, ok := b.BestBid()
	require.True(t, ok)
	assert.Equal(t, orderbookv1.Price(100), best)
	assert.Equal(t, orderbookv1.Quantity(5), b.BidTotalQuantity())
	assert.Equal(t, 1, b.OrderCount())

	ledger := b.Trades()
	require.Len(t, ledger, 1)
	assert.Equal(t, trade, ledger[0])
}

// Test 5: Buyer id is listed first regardless of the initiating side
func TestBook_Ledger_BuyerFirst(t *testing.T) {
	b := newTestBook()

	sell := mustAdmit(t, b, "seller", orderbookv1.SideSell, orderbookv1.KindLimit, 100, 5)
	buy := mustAdmit(t, b, "buyer", orderbookv1.SideBuy, orderbookv1.KindLimit, 100, 5)

	require.Len(t, buy.Trades, 1)
	assert.Equal(t, buy.OrderID, buy.Trades[0].BuyOrderID)
	assert.Equal(t, sell.OrderID, buy.Trades[0].SellOrderID)
}

// Test 6: Crossing condition stops matching for limit orders
func TestBook_Admit_NoCross(t *testing.T) {
	b := newTestBook()

	mustAdmit(t, b, "seller", orderbookv1.SideSell, orderbookv1.KindLimit, 105, 10)
	buy := mustAdmit(t, b, "buyer", orderbookv1.SideBuy, orderbookv1.KindLimit, 100, 10)

	assert.Empty(t, buy.Trades)
	assert.True(t, buy.Resting)

	spread, ok := b.Spread()
	require.True(t, ok)
	assert.Equal(t, orderbookv1.Price(5), spread)
}

// Test 7: An incoming order sweeps multiple levels in price priority
func TestBook_Admit_MultiLevelSweep(t *testing.T) {
	b := newTestBook()

	mustAdmit(t, b, "s1", orderbookv1.SideSell, orderbookv1.KindLimit, 100, 5)
	mustAdmit(t, b, "s2", orderbookv1.SideSell, orderbookv1.KindLimit, 101, 3)
	mustAdmit(t, b, "s3", orderbookv1.SideSell, orderbookv1.KindLimit, 102, 7)

	buy := mustAdmit(t, b, "buyer", orderbookv1.SideBuy, orderbookv1.KindLimit, 102, 12)

	require.Len(t, buy.Trades, 3)
	assert.Equal(t, orderbookv1.Price(100), buy.Trades[0].Price)
	assert.Equal(t, orderbookv1.Quantity(5), buy.Trades[0].Qty)
	assert.Equal(t, orderbookv1.Price(101), buy.Trades[1].Price)
	assert.Equal(t, orderbookv1.Quantity(3), buy.Trades[1].Qty)
	assert.Equal(t, orderbookv1.Price(102), buy.Trades[2].Price)
	assert.Equal(t, orderbookv1.Quantity(4), buy.Trades[2].Qty)

	assert.False(t, buy.Resting)

	// Only the partially consumed 102 level remains.
	best, ok := b.BestAsk()
	require.True(t, ok)
	assert.Equal(t, orderbookv1.Price(102), best)
	assert.Equal(t, orderbookv1.Quantity(3), b.AskTotalQuantity())
}

// Test 8: Price-time priority at a single level
func TestBook_PriceTimePriority(t *testing.T) {
	b := newTestBook()

	first := mustAdmit(t, b, "s1", orderbookv1.SideSell, orderbookv1.KindLimit, 100, 5)
	second := mustAdmit(t, b, "s2", orderbookv1.SideSell, orderbookv1.KindLimit, 100, 5)

	buy := mustAdmit(t, b, "buyer", orderbookv1.SideBuy, orderbookv1.KindLimit, 100, 7)

	require.Len(t, buy.Trades, 2)
	assert.Equal(t, first.OrderID, buy.Trades[0].SellOrderID)
	assert.Equal(t, orderbookv1.Quantity(5), buy.Trades[0].Qty)
	assert.Equal(t, second.OrderID, buy.Trades[1].SellOrderID)
	assert.Equal(t, orderbookv1.Quantity(2), buy.Trades[1].Qty)
}

// Test 9: Market order with no opposing liquidity is rejected outright
func TestBook_MarketOrder_NoLiquidity(t *testing.T) {
	b := newTestBook()

	result, err := b.Admit("buyer", orderbookv1.SideBuy, orderbookv1.KindMarket, 0, 10)

	assert.ErrorIs(t, err, orderbookv1.ErrNoLiquidity)
	assert.Nil(t, result)
	assert.Equal(t, 0, b.OrderCount())
	assert.Empty(t, b.Trades())
}

// Test 10: Market order fills and never rests
func TestBook_MarketOrder_FillsAndDiscardsRemainder(t *testing.T) {
	b := newTestBook()

	mustAdmit(t, b, "s1", orderbookv1.SideSell, orderbookv1.KindLimit, 100, 5)
	mustAdmit(t, b, "s2", orderbookv1.SideSell, orderbookv1.KindLimit, 101, 5)

	market := mustAdmit(t, b, "buyer", orderbookv1.SideBuy, orderbookv1.KindMarket, 0, 20)

	require.Len(t, market.Trades, 2)
	assert.Equal(t, orderbookv1.Quantity(5), market.Trades[0].Qty)
	assert.Equal(t, orderbookv1.Quantity(5), market.Trades[1].Qty)
	assert.False(t, market.Resting)

	// The unfilled remainder is discarded, not rested.
	assert.Equal(t, 0, b.OrderCount())
	_, ok := b.BestBid()
	assert.False(t, ok)
}

// Test 11: Market sell against bids
func TestBook_MarketSell(t *testing.T) {
	b := newTestBook()

	mustAdmit(t, b, "b1", orderbookv1.SideBuy, orderbookv1.KindLimit, 100, 5)
	mustAdmit(t, b, "b2", orderbookv1.SideBuy, orderbookv1.KindLimit, 99, 5)

	market := mustAdmit(t, b, "seller", orderbookv1.SideSell, orderbookv1.KindMarket, 0, 8)

	require.Len(t, market.Trades, 2)
	assert.Equal(t, orderbookv1.Price(100), market.Trades[0].Price)
	assert.Equal(t, orderbookv1.Quantity(5), market.Trades[0].Qty)
	assert.Equal(t, orderbookv1.Price(99), market.Trades[1].Price)
	assert.Equal(t, orderbookv1.Quantity(3), market.Trades[1].Qty)

	assert.Equal(t, orderbookv1.Quantity(2), b.BidTotalQuantity())
}

// Test 12: Per-level depth cap rejects the third resting order
func TestBook_Admit_LevelOverflow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxLevelDepth = 2
	b := NewBook(cfg)

	first := mustAdmit(t, b, "s1", orderbookv1.SideSell, orderbookv1.KindLimit, 100, 3)
	second := mustAdmit(t, b, "s2", orderbookv1.SideSell, orderbookv1.KindLimit, 100, 3)

	result, err := b.Admit("s3", orderbookv1.SideSell, orderbookv1.KindLimit, 100, 3)

	assert.ErrorIs(t, err, orderbookv1.ErrLevelOverflow)
	assert.Nil(t, result)

	// The first two orders remain resting and untouched.
	assert.Equal(t, 2, b.OrderCount())
	assert.Equal(t, orderbookv1.Quantity(6), b.AskTotalQuantity())
	require.NoError(t, b.Cancel("s1", first.OrderID))
	require.NoError(t, b.Cancel("s2", second.OrderID))
}

// Test 13: Cancel happy path and level cleanup
func TestBook_Cancel(t *testing.T) {
	b := newTestBook()

	result := mustAdmit(t, b, "user1", orderbookv1.SideBuy, orderbookv1.KindLimit, 100, 10)

	require.NoError(t, b.Cancel("user1", result.OrderID))
	assert.Equal(t, 0, b.OrderCount())
	_, ok := b.BestBid()
	assert.False(t, ok)
}

// Test 14: Cancel is idempotent via NotFound
func TestBook_Cancel_NotFoundTwice(t *testing.T) {
	b := newTestBook()

	result := mustAdmit(t, b, "user1", orderbookv1.SideBuy, orderbookv1.KindLimit, 100, 10)
	require.NoError(t, b.Cancel("user1", result.OrderID))

	assert.ErrorIs(t, b.Cancel("user1", result.OrderID), orderbookv1.ErrOrderNotFound)
	assert.ErrorIs(t, b.Cancel("user1", result.OrderID), orderbookv1.ErrOrderNotFound)
	assert.ErrorIs(t, b.Cancel("user1", "unknown-id"), orderbookv1.ErrOrderNotFound)
}

// Test 15: Cancel by a different user is unauthorized
func TestBook_Cancel_Unauthorized(t *testing.T) {
	b := newTestBook()

	result := mustAdmit(t, b, "user1", orderbookv1.SideBuy, orderbookv1.KindLimit, 100, 10)

	assert.ErrorIs(t, b.Cancel("intruder", result.OrderID), orderbookv1.ErrNotOwner)
	assert.Equal(t, 1, b.OrderCount())
}

// Test 16: Cancel refreshes the best price
func TestBook_Cancel_RefreshesBest(t *testing.T) {
	b := newTestBook()

	top := mustAdmit(t, b, "user1", orderbookv1.SideBuy, orderbookv1.KindLimit, 105, 10)
	mustAdmit(t, b, "user2", orderbookv1.SideBuy, orderbookv1.KindLimit, 100, 10)

	require.NoError(t, b.Cancel("user1", top.OrderID))

	best, ok := b.BestBid()
	require.True(t, ok)
	assert.Equal(t, orderbookv1.Price(100), best)
}

// Test 17: Modify replaces the order and drops time priority
func TestBook_Modify_LosesTimePriority(t *testing.T) {
	b := newTestBook()

	first := mustAdmit(t, b, "u1", orderbookv1.SideSell, orderbookv1.KindLimit, 100, 5)
	second := mustAdmit(t, b, "u2", orderbookv1.SideSell, orderbookv1.KindLimit, 100, 5)

	// Modify the first order without changing anything; it must requeue
	// behind the second.
	modified, err := b.Modify("u1", first.OrderID, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, modified)
	assert.NotEqual(t, first.OrderID, modified.OrderID)
	assert.True(t, modified.Resting)

	buy := mustAdmit(t, b, "buyer", orderbookv1.SideBuy, orderbookv1.KindLimit, 100, 5)
	require.Len(t, buy.Trades, 1)
	assert.Equal(t, second.OrderID, buy.Trades[0].SellOrderID)
}

// Test 18: Modify to a new price reorders to the back of the new level
func TestBook_Modify_NewPriceBackOfQueue(t *testing.T) {
	b := newTestBook()

	sitting := mustAdmit(t, b, "u1", orderbookv1.SideSell, orderbookv1.KindLimit, 101, 5)
	moved := mustAdmit(t, b, "u2", orderbookv1.SideSell, orderbookv1.KindLimit, 102, 5)

	newPrice := orderbookv1.Price(101)
	modified, err := b.Modify("u2", moved.OrderID, nil, &newPrice)
	require.NoError(t, err)

	// Both now rest at 101; the modified order is behind the original resident.
	buy := mustAdmit(t, b, "buyer", orderbookv1.SideBuy, orderbookv1.KindLimit, 101, 10)
	require.Len(t, buy.Trades, 2)
	assert.Equal(t, sitting.OrderID, buy.Trades[0].SellOrderID)
	assert.Equal(t, modified.OrderID, buy.Trades[1].SellOrderID)
}

// Test 19: Modify inherits absent fields
func TestBook_Modify_InheritsFields(t *testing.T) {
	b := newTestBook()

	orig := mustAdmit(t, b, "u1", orderbookv1.SideBuy, orderbookv1.KindLimit, 100, 10)

	newQty := orderbookv1.Quantity(4)
	modified, err := b.Modify("u1", orig.OrderID, &newQty, nil)
	require.NoError(t, err)

	best, ok := b.BestBid()
	require.True(t, ok)
	assert.Equal(t, orderbookv1.Price(100), best)
	assert.Equal(t, orderbookv1.Quantity(4), b.BidTotalQuantity())
	assert.True(t, modified.Resting)
}

// Test 20: Modify failure modes
func TestBook_Modify_Failures(t *testing.T) {
	t.Run("Unknown id", func(t *testing.T) {
		b := newTestBook()
		result, err := b.Modify("u1", "missing", nil, nil)
		assert.ErrorIs(t, err, orderbookv1.ErrOrderNotFound)
		assert.Nil(t, result)
	})

	t.Run("Owner mismatch leaves the order untouched", func(t *testing.T) {
		b := newTestBook()
		orig := mustAdmit(t, b, "u1", orderbookv1.SideBuy, orderbookv1.KindLimit, 100, 10)

		result, err := b.Modify("intruder", orig.OrderID, nil, nil)
		assert.ErrorIs(t, err, orderbookv1.ErrNotOwner)
		assert.Nil(t, result)
		assert.Equal(t, 1, b.OrderCount())
	})

	t.Run("Invalid replacement rejected before cancel", func(t *testing.T) {
		b := newTestBook()
		orig := mustAdmit(t, b, "u1", orderbookv1.SideBuy, orderbookv1.KindLimit, 100, 10)

		badQty := orderbookv1.Quantity(-1)
		result, err := b.Modify("u1", orig.OrderID, &badQty, nil)
		assert.ErrorIs(t, err, orderbookv1.ErrInvalidQuantity)
		assert.Nil(t, result)

		// The original still rests.
		assert.Equal(t, orderbookv1.Quantity(10), b.BidTotalQuantity())
	})

	t.Run("Re-admission overflow loses the original", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MaxLevelDepth = 2
		b := NewBook(cfg)

		mustAdmit(t, b, "s1", orderbookv1.SideSell, orderbookv1.KindLimit, 100, 3)
		mustAdmit(t, b, "s2", orderbookv1.SideSell, orderbookv1.KindLimit, 100, 3)
		victim := mustAdmit(t, b, "s3", orderbookv1.SideSell, orderbookv1.KindLimit, 110, 3)

		newPrice := orderbookv1.Price(100)
		result, err := b.Modify("s3", victim.OrderID, nil, &newPrice)

		assert.ErrorIs(t, err, orderbookv1.ErrModifyPartial)
		assert.ErrorIs(t, err, orderbookv1.ErrLevelOverflow)
		assert.Nil(t, result)

		// The original order is gone; a cancel now reports not found.
		assert.ErrorIs(t, b.Cancel("s3", victim.OrderID), orderbookv1.ErrOrderNotFound)
		assert.Equal(t, 2, b.OrderCount())
	})
}

// Test 21: The book never stays crossed
func TestBook_NeverCrossed(t *testing.T) {
	b := newTestBook()
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		side := orderbookv1.SideBuy
		if rng.Intn(2) == 0 {
			side = orderbookv1.SideSell
		}
		price := orderbookv1.Price(95 + rng.Intn(11))
		qty := orderbookv1.Quantity(1 + rng.Intn(20))

		_, err := b.Admit("user", side, orderbookv1.KindLimit, price, qty)
		require.NoError(t, err)

		bid, okBid := b.BestBid()
		ask, okAsk := b.BestAsk()
		if okBid && okAsk {
			require.Less(t, bid, ask, "book crossed after %d admits: bid %d >= ask %d", i+1, bid, ask)
		}
	}
}

// Test 22: Quantity conservation across an arbitrary admit sequence
func TestBook_QuantityConservation(t *testing.T) {
	b := newTestBook()
	rng := rand.New(rand.NewSource(42))

	var admittedBuy, admittedSell orderbookv1.Quantity
	for i := 0; i < 1000; i++ {
		side := orderbookv1.SideBuy
		if rng.Intn(2) == 0 {
			side = orderbookv1.SideSell
		}
		price := orderbookv1.Price(90 + rng.Intn(21))
		qty := orderbookv1.Quantity(1 + rng.Intn(50))

		_, err := b.Admit("user", side, orderbookv1.KindLimit, price, qty)
		require.NoError(t, err)

		if side == orderbookv1.SideBuy {
			admittedBuy += qty
		} else {
			admittedSell += qty
		}
	}

	var traded orderbookv1.Quantity
	for _, trade := range b.Trades() {
		require.Positive(t, trade.Qty)
		traded += trade.Qty
	}

	// Each trade consumes equal quantity from one buy and one sell order.
	assert.Equal(t, admittedBuy, b.BidTotalQuantity()+traded)
	assert.Equal(t, admittedSell, b.AskTotalQuantity()+traded)
}

// Test 23: Depth view ordering and totals
func TestBook_SnapshotDepth(t *testing.T) {
	b := newTestBook()

	mustAdmit(t, b, "b1", orderbookv1.SideBuy, orderbookv1.KindLimit, 99, 10)
	mustAdmit(t, b, "b2", orderbookv1.SideBuy, orderbookv1.KindLimit, 100, 5)
	mustAdmit(t, b, "b3", orderbookv1.SideBuy, orderbookv1.KindLimit, 100, 5)
	mustAdmit(t, b, "s1", orderbookv1.SideSell, orderbookv1.KindLimit, 101, 7)
	mustAdmit(t, b, "s2", orderbookv1.SideSell, orderbookv1.KindLimit, 103, 2)

	depth := b.SnapshotDepth()

	require.Len(t, depth.Bids, 2)
	assert.Equal(t, orderbookv1.Price(100), depth.Bids[0].Price)
	assert.Equal(t, orderbookv1.Quantity(10), depth.Bids[0].Qty)
	assert.Equal(t, 2, depth.Bids[0].Orders)
	assert.Equal(t, orderbookv1.Price(99), depth.Bids[1].Price)

	require.Len(t, depth.Asks, 2)
	assert.Equal(t, orderbookv1.Price(101), depth.Asks[0].Price)
	assert.Equal(t, orderbookv1.Price(103), depth.Asks[1].Price)
}

// Test 24: Snapshot round trip preserves orders, priority and the ledger
func TestBook_SnapshotRoundTrip(t *testing.T) {
	b := newTestBook()

	first := mustAdmit(t, b, "s1", orderbookv1.SideSell, orderbookv1.KindLimit, 100, 5)
	second := mustAdmit(t, b, "s2", orderbookv1.SideSell, orderbookv1.KindLimit, 100, 5)
	mustAdmit(t, b, "b1", orderbookv1.SideBuy, orderbookv1.KindLimit, 99, 4)
	mustAdmit(t, b, "buyer", orderbookv1.SideBuy, orderbookv1.KindLimit, 100, 3) // trades against s1

	snapshot := b.CreateSnapshot()

	restored := newTestBook()
	require.NoError(t, restored.Restore(snapshot))

	assert.Equal(t, b.OrderCount(), restored.OrderCount())
	assert.Equal(t, b.BidTotalQuantity(), restored.BidTotalQuantity())
	assert.Equal(t, b.AskTotalQuantity(), restored.AskTotalQuantity())
	assert.Equal(t, b.Trades(), restored.Trades())

	// FIFO priority survives the restore: s1's remainder still fills first.
	buy := mustAdmit(t, restored, "buyer2", orderbookv1.SideBuy, orderbookv1.KindLimit, 100, 3)
	require.Len(t, buy.Trades, 2)
	assert.Equal(t, first.OrderID, buy.Trades[0].SellOrderID)
	assert.Equal(t, second.OrderID, buy.Trades[1].SellOrderID)
}

// Test 25: Restore rejects malformed snapshots
func TestBook_Restore_Invalid(t *testing.T) {
	b := newTestBook()

	assert.Error(t, b.Restore(nil))
}
