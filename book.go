package match

import (
	"github.com/huandu/skiplist"
)

// levelMap is one side's ordered collection of PriceLevels: a skiplist
// keyed by Price (comparator direction depends on side) paired with an
// auxiliary map for O(1) repeated lookups by price, mirroring the
// teacher's queue/priceList pairing.
type levelMap struct {
	list    *skiplist.SkipList
	byPrice map[Price]*skiplist.Element
}

func newBidLevelMap() *levelMap {
	return &levelMap{
		list: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			a, b := lhs.(Price), rhs.(Price)
			switch {
			case a < b:
				return 1
			case a > b:
				return -1
			default:
				return 0
			}
		})),
		byPrice: make(map[Price]*skiplist.Element),
	}
}

func newAskLevelMap() *levelMap {
	return &levelMap{
		list: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			a, b := lhs.(Price), rhs.(Price)
			switch {
			case a > b:
				return 1
			case a < b:
				return -1
			default:
				return 0
			}
		})),
		byPrice: make(map[Price]*skiplist.Element),
	}
}

func (m *levelMap) get(price Price) (*PriceLevel, bool) {
	el, ok := m.byPrice[price]
	if !ok {
		return nil, false
	}
	return el.Value.(*PriceLevel), true
}

func (m *levelMap) getOrCreate(price Price) *PriceLevel {
	if lvl, ok := m.get(price); ok {
		return lvl
	}
	lvl := newPriceLevel(price)
	el := m.list.Set(price, lvl)
	m.byPrice[price] = el
	return lvl
}

func (m *levelMap) remove(price Price) {
	el, ok := m.byPrice[price]
	if !ok {
		return
	}
	m.list.RemoveElement(el)
	delete(m.byPrice, price)
}

func (m *levelMap) front() (*PriceLevel, bool) {
	el := m.list.Front()
	if el == nil {
		return nil, false
	}
	return el.Value.(*PriceLevel), true
}

// OrderBook holds every resting order for a single instrument: two
// price-ordered level maps and an id index. It never matches orders
// itself; the engine drives matching and mutates the book through its
// public and engine-facing operations.
type OrderBook struct {
	bidLevels *levelMap
	askLevels *levelMap
	byID      map[OrderID]*Order

	alloc *Allocator
	clock func() int64
}

func newOrderBook(alloc *Allocator, clock func() int64) *OrderBook {
	return &OrderBook{
		bidLevels: newBidLevelMap(),
		askLevels: newAskLevelMap(),
		byID:      make(map[OrderID]*Order),
		alloc:     alloc,
		clock:     clock,
	}
}

func (b *OrderBook) levelsFor(side Side) *levelMap {
	if side == Buy {
		return b.bidLevels
	}
	return b.askLevels
}

// AddOrder inserts a new resting order at the tail of its price level. It
// never matches. Returns false (no state change) if quantity is zero, id
// is already live, or the allocator cannot provide storage.
func (b *OrderBook) AddOrder(id OrderID, side Side, typ OrderType, price Price, quantity Quantity) bool {
	if quantity == 0 {
		return false
	}
	if _, exists := b.byID[id]; exists {
		return false
	}

	o := b.alloc.acquire()
	if o == nil {
		return false
	}
	o.ID = id
	o.Side = side
	o.Type = typ
	o.Price = price
	o.Quantity = quantity
	o.FilledQuantity = 0
	o.Status = New
	o.Timestamp = b.clock()

	lvl := b.levelsFor(side).getOrCreate(price)
	lvl.pushBack(o)
	b.byID[id] = o
	return true
}

// CancelOrder removes a live, not-fully-filled order from the book and
// releases its storage. Returns false if id is unknown or already fully
// filled.
func (b *OrderBook) CancelOrder(id OrderID) bool {
	o, ok := b.byID[id]
	if !ok || o.IsFilled() {
		return false
	}
	b.detachAndRelease(o)
	return true
}

// detachAndRelease unlinks o from its level (erasing the level if it
// becomes empty), removes it from the id index, and releases it to the
// allocator. o must currently be live and indexed.
func (b *OrderBook) detachAndRelease(o *Order) {
	levels := b.levelsFor(o.Side)
	lvl, ok := levels.get(o.Price)
	if ok {
		lvl.unlink(o)
		if lvl.empty() {
			levels.remove(o.Price)
		}
	}
	delete(b.byID, o.ID)
	b.alloc.release(o)
}

// ModifyOrder changes price and/or quantity of a live order. Same price
// with a non-shrinking quantity is applied in place and keeps time
// priority; any other change re-seats the order with a fresh timestamp,
// losing time priority, or removes it when no unfilled quantity would
// remain (new quantity equal to the filled amount). Returns false if
// quantity is zero, id is
// unknown, the order is fully filled, or the new quantity is below the
// already-filled amount.
func (b *OrderBook) ModifyOrder(id OrderID, newPrice Price, newQuantity Quantity) bool {
	o, ok := b.byID[id]
	if !ok || o.IsFilled() {
		return false
	}
	if newQuantity == 0 || newQuantity < o.FilledQuantity {
		return false
	}

	if newPrice == o.Price && newQuantity >= o.Quantity {
		lvl, ok := b.levelsFor(o.Side).get(o.Price)
		if !ok {
			return false
		}
		oldRemaining := o.Remaining()
		o.Quantity = newQuantity
		lvl.updateTotal(o, oldRemaining)
		return true
	}

	side, typ, filled := o.Side, o.Type, o.FilledQuantity
	residual := newQuantity - filled
	b.detachAndRelease(o)

	if residual == 0 {
		return true
	}

	fresh := b.alloc.acquire()
	if fresh == nil {
		// id has already been detached above; under a bounded allocator a
		// growth failure here loses the residual rather than leaving a
		// half-modified order in two places at once.
		return false
	}
	fresh.ID = id
	fresh.Side = side
	fresh.Type = typ
	fresh.Price = newPrice
	fresh.Quantity = residual
	fresh.FilledQuantity = 0
	fresh.Status = New
	fresh.Timestamp = b.clock()

	lvl := b.levelsFor(side).getOrCreate(newPrice)
	lvl.pushBack(fresh)
	b.byID[id] = fresh
	return true
}

// BestBid returns the highest live bid price.
func (b *OrderBook) BestBid() (Price, bool) {
	lvl, ok := b.bidLevels.front()
	if !ok {
		return 0, false
	}
	return lvl.Price, true
}

// BestAsk returns the lowest live ask price.
func (b *OrderBook) BestAsk() (Price, bool) {
	lvl, ok := b.askLevels.front()
	if !ok {
		return 0, false
	}
	return lvl.Price, true
}

// Spread returns BestAsk - BestBid, or false if either side is empty.
func (b *OrderBook) Spread() (Price, bool) {
	bid, ok := b.BestBid()
	if !ok {
		return 0, false
	}
	ask, ok := b.BestAsk()
	if !ok {
		return 0, false
	}
	return ask - bid, true
}

// DepthAtPrice returns the total resting quantity at price on side, or
// zero if the level does not exist.
func (b *OrderBook) DepthAtPrice(side Side, price Price) Quantity {
	lvl, ok := b.levelsFor(side).get(price)
	if !ok {
		return 0
	}
	return lvl.TotalQuantity
}

// GetLevels returns up to n price levels on side, ordered bids-descending
// or asks-ascending as appropriate.
func (b *OrderBook) GetLevels(side Side, n int) []PriceLevelView {
	levels := b.levelsFor(side)
	out := make([]PriceLevelView, 0, n)
	el := levels.list.Front()
	for el != nil && len(out) < n {
		lvl := el.Value.(*PriceLevel)
		out = append(out, PriceLevelView{Price: lvl.Price, TotalQuantity: lvl.TotalQuantity})
		el = el.Next()
	}
	return out
}

// GetOrder returns a read-only snapshot of a live order, or false if id
// is unknown.
func (b *OrderBook) GetOrder(id OrderID) (OrderView, bool) {
	o, ok := b.byID[id]
	if !ok {
		return OrderView{}, false
	}
	return viewOf(o), true
}

// OrderCount returns the number of live orders in the book.
func (b *OrderBook) OrderCount() int {
	return len(b.byID)
}

// Clear releases every live order and drops both level maps and the id
// index, leaving an empty book. Pending trades already recorded by the
// engine are untouched.
func (b *OrderBook) Clear() {
	for _, o := range b.byID {
		b.alloc.release(o)
	}
	b.bidLevels = newBidLevelMap()
	b.askLevels = newAskLevelMap()
	b.byID = make(map[OrderID]*Order)
}

// firstOrderAtPrice returns the time-priority winner resting at price on
// side, or nil if the level does not exist.
func (b *OrderBook) firstOrderAtPrice(side Side, price Price) *Order {
	lvl, ok := b.levelsFor(side).get(price)
	if !ok {
		return nil
	}
	return lvl.front()
}

// removeFilledOrder unlinks a fully filled resting order and releases it.
// o must satisfy o.IsFilled(); violating that precondition is a programmer
// error per spec §7, not a recoverable runtime condition.
func (b *OrderBook) removeFilledOrder(o *Order) {
	if !o.IsFilled() {
		logger.Error(ErrInternal.Error(), "detail", "removeFilledOrder called on a non-filled order", "order_id", o.ID)
		panic(ErrInternal)
	}
	b.detachAndRelease(o)
}

// updateLevelTotalIncremental adjusts the level holding o's remaining
// quantity after a fill, given o's pre-fill remaining quantity.
func (b *OrderBook) updateLevelTotalIncremental(o *Order, oldRemaining Quantity) {
	lvl, ok := b.levelsFor(o.Side).get(o.Price)
	if !ok {
		return
	}
	lvl.updateTotal(o, oldRemaining)
}
