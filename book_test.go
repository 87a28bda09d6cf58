package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBook() *OrderBook {
	var tick int64
	clock := func() int64 {
		tick++
		return tick
	}
	return newOrderBook(NewAllocator(16), clock)
}

func TestAddOrderRejectsZeroQuantityAndDuplicateID(t *testing.T) {
	b := newTestBook()

	assert.False(t, b.AddOrder(1, Buy, Limit, 100, 0))
	assert.Equal(t, 0, b.OrderCount())

	require.True(t, b.AddOrder(1, Buy, Limit, 100, 10))
	assert.False(t, b.AddOrder(1, Buy, Limit, 100, 10))
	assert.Equal(t, 1, b.OrderCount())
}

func TestBestBidAskAndSpread(t *testing.T) {
	b := newTestBook()
	require.True(t, b.AddOrder(1, Buy, Limit, 100, 10))
	require.True(t, b.AddOrder(2, Buy, Limit, 105, 10))
	require.True(t, b.AddOrder(3, Sell, Limit, 110, 10))
	require.True(t, b.AddOrder(4, Sell, Limit, 108, 10))

	bid, ok := b.BestBid()
	require.True(t, ok)
	assert.Equal(t, Price(105), bid)

	ask, ok := b.BestAsk()
	require.True(t, ok)
	assert.Equal(t, Price(108), ask)

	spread, ok := b.Spread()
	require.True(t, ok)
	assert.Equal(t, Price(3), spread)
}

func TestCancelOrderRoundTripsToPreAddState(t *testing.T) {
	b := newTestBook()
	require.True(t, b.AddOrder(1, Buy, Limit, 100, 10))

	assert.True(t, b.CancelOrder(1))
	assert.Equal(t, 0, b.OrderCount())
	_, ok := b.BestBid()
	assert.False(t, ok)

	assert.False(t, b.CancelOrder(1), "second cancel of the same id must fail")
}

func TestModifyOrderInPlacePreservesTimePriority(t *testing.T) {
	b := newTestBook()
	require.True(t, b.AddOrder(1, Buy, Limit, 100, 10))
	require.True(t, b.AddOrder(2, Buy, Limit, 100, 10))

	require.True(t, b.ModifyOrder(1, 100, 20))

	lvl, ok := b.bidLevels.get(100)
	require.True(t, ok)
	assert.Equal(t, OrderID(1), lvl.front().ID, "in-place modify must not move the order in the FIFO")
	assert.Equal(t, Quantity(30), lvl.TotalQuantity)
}

func TestModifyOrderReplacePathLosesTimePriority(t *testing.T) {
	b := newTestBook()
	require.True(t, b.AddOrder(1, Buy, Limit, 100, 10))
	require.True(t, b.AddOrder(2, Buy, Limit, 101, 10))

	require.True(t, b.ModifyOrder(1, 101, 10))

	lvl, ok := b.bidLevels.get(101)
	require.True(t, ok)
	assert.Equal(t, OrderID(2), lvl.front().ID, "replace-path modify must re-seat behind existing resting orders")

	_, stillAt100 := b.bidLevels.get(100)
	assert.False(t, stillAt100, "the vacated level must be erased")
}

func TestModifyOrderRejectsInvalidQuantities(t *testing.T) {
	b := newTestBook()
	require.True(t, b.AddOrder(1, Buy, Limit, 100, 10))

	assert.False(t, b.ModifyOrder(1, 100, 0))
	assert.False(t, b.ModifyOrder(99, 100, 5))
}

func TestModifyOrderNoopWhenUnchanged(t *testing.T) {
	b := newTestBook()
	require.True(t, b.AddOrder(1, Buy, Limit, 100, 10))

	assert.True(t, b.ModifyOrder(1, 100, 10))
	view, ok := b.GetOrder(1)
	require.True(t, ok)
	assert.Equal(t, Quantity(10), view.Quantity)
}

func TestGetLevelsOrdersBidsDescendingAsksAscending(t *testing.T) {
	b := newTestBook()
	require.True(t, b.AddOrder(1, Buy, Limit, 100, 10))
	require.True(t, b.AddOrder(2, Buy, Limit, 102, 10))
	require.True(t, b.AddOrder(3, Sell, Limit, 110, 10))
	require.True(t, b.AddOrder(4, Sell, Limit, 108, 10))

	bids := b.GetLevels(Buy, 10)
	require.Len(t, bids, 2)
	assert.Equal(t, Price(102), bids[0].Price)
	assert.Equal(t, Price(100), bids[1].Price)

	asks := b.GetLevels(Sell, 10)
	require.Len(t, asks, 2)
	assert.Equal(t, Price(108), asks[0].Price)
	assert.Equal(t, Price(110), asks[1].Price)
}

func TestDepthAtPriceAndFirstOrderAtPrice(t *testing.T) {
	b := newTestBook()
	require.True(t, b.AddOrder(1, Sell, Limit, 100, 6))
	require.True(t, b.AddOrder(2, Sell, Limit, 100, 4))

	assert.Equal(t, Quantity(10), b.DepthAtPrice(Sell, 100))
	assert.Equal(t, Quantity(0), b.DepthAtPrice(Sell, 101))

	head := b.firstOrderAtPrice(Sell, 100)
	require.NotNil(t, head)
	assert.Equal(t, OrderID(1), head.ID)

	assert.Nil(t, b.firstOrderAtPrice(Buy, 100))
}

func TestUpdateLevelTotalIncrementalAppliesToEitherSideOfATrade(t *testing.T) {
	b := newTestBook()
	require.True(t, b.AddOrder(1, Buy, Limit, 100, 10))

	o := b.byID[1]
	oldRemaining := o.Remaining()
	o.FilledQuantity += 4
	b.updateLevelTotalIncremental(o, oldRemaining)

	assert.Equal(t, Quantity(6), b.DepthAtPrice(Buy, 100),
		"a resting order's own level must reflect its remaining quantity after a partial fill, whether it is the maker or the aggressor")
}

func TestAddOrderRejectsWhenAllocatorExhausted(t *testing.T) {
	alloc := NewAllocator(1)
	alloc.setMaxSlabs(1)
	var tick int64
	b := newOrderBook(alloc, func() int64 { tick++; return tick })

	require.True(t, b.AddOrder(1, Buy, Limit, 100, 10))
	assert.False(t, b.AddOrder(2, Buy, Limit, 100, 10), "allocator exhaustion must surface as a rejection, not a panic")
	assert.Equal(t, 1, b.OrderCount())
}

func TestRemoveFilledOrderPanicsOnBrokenInvariant(t *testing.T) {
	b := newTestBook()
	require.True(t, b.AddOrder(1, Buy, Limit, 100, 10))
	o := b.byID[1]

	assert.Panics(t, func() { b.removeFilledOrder(o) }, "removeFilledOrder must refuse a non-filled order")
}

func TestClearEmptiesBook(t *testing.T) {
	b := newTestBook()
	require.True(t, b.AddOrder(1, Buy, Limit, 100, 10))
	require.True(t, b.AddOrder(2, Sell, Limit, 101, 10))

	b.Clear()

	assert.Equal(t, 0, b.OrderCount())
	_, ok := b.BestBid()
	assert.False(t, ok)
	_, ok = b.BestAsk()
	assert.False(t, ok)
}
