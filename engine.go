package match

import (
	"time"

	"github.com/rs/xid"
)

// TradeCallback is invoked synchronously, once per trade, in generation
// order, from within SubmitOrder. It must not call back into the engine.
type TradeCallback func(Trade)

// BookEventType classifies an entry in the engine's in-process event log.
type BookEventType uint8

const (
	EventOpen BookEventType = iota
	EventMatch
	EventCancel
	EventAmend
	EventReject
)

// BookEvent is a structured record of one state-changing operation,
// mirroring the teacher's publish-log idiom but kept in-process only.
type BookEvent struct {
	Type      BookEventType
	OrderID   OrderID
	Timestamp int64
}

// BookEventSubscriber receives a BookEvent synchronously, analogous to
// TradeCallback.
type BookEventSubscriber func(BookEvent)

// Option configures a MatchingEngine at construction.
type Option func(*engineConfig)

type engineConfig struct {
	tradeCallback TradeCallback
	eventSub      BookEventSubscriber
	clock         func() int64
	slabSize      int32
	maxSlabs      int32
}

// WithTradeCallback installs a callback invoked once per trade during
// SubmitOrder, in generation order.
func WithTradeCallback(cb TradeCallback) Option {
	return func(c *engineConfig) { c.tradeCallback = cb }
}

// WithEventSubscriber installs a callback invoked once per book-changing
// operation (open, match, cancel, amend, reject).
func WithEventSubscriber(sub BookEventSubscriber) Option {
	return func(c *engineConfig) { c.eventSub = sub }
}

// WithClock overrides the monotonic nanosecond source used to stamp
// order timestamps and trades. Defaults to time.Now().UnixNano().
func WithClock(clock func() int64) Option {
	return func(c *engineConfig) { c.clock = clock }
}

// WithSlabSize sets the allocator's per-slab record count. Defaults to
// defaultSlabSize.
func WithSlabSize(size int32) Option {
	return func(c *engineConfig) { c.slabSize = size }
}

// WithMaxSlabs bounds the allocator to at most n slabs; once every slab is
// full with no released slot to recycle, further AddOrder calls are
// rejected instead of growing indefinitely. Omitting this option keeps
// the default unbounded growth policy spec.md §4.1 describes.
func WithMaxSlabs(n int32) Option {
	return func(c *engineConfig) { c.maxSlabs = n }
}

// MatchingEngine drives price-time-priority matching over a single
// OrderBook. It is not safe for concurrent use; callers serialize access
// externally exactly as spec'd for the scheduling model this package
// targets.
type MatchingEngine struct {
	book  *OrderBook
	alloc *Allocator
	clock func() int64

	recorder *tradeRecorder
	eventSub BookEventSubscriber
}

// NewMatchingEngine builds an engine with its own allocator and book.
func NewMatchingEngine(opts ...Option) *MatchingEngine {
	cfg := engineConfig{
		clock:    func() int64 { return time.Now().UnixNano() },
		slabSize: defaultSlabSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	alloc := NewAllocator(cfg.slabSize)
	if cfg.maxSlabs > 0 {
		alloc.setMaxSlabs(cfg.maxSlabs)
	}
	return &MatchingEngine{
		book:     newOrderBook(alloc, cfg.clock),
		alloc:    alloc,
		clock:    cfg.clock,
		recorder: newTradeRecorder(cfg.tradeCallback),
		eventSub: cfg.eventSub,
	}
}

// OrderBook returns the engine's order book for depth and quote
// introspection.
func (e *MatchingEngine) OrderBook() *OrderBook {
	return e.book
}

// AllocatorStats exposes the underlying allocator's occupancy profile.
func (e *MatchingEngine) AllocatorStats() AllocatorStats {
	return e.alloc.Stats()
}

func (e *MatchingEngine) emitEvent(typ BookEventType, id OrderID) {
	if e.eventSub == nil {
		return
	}
	e.eventSub(BookEvent{Type: typ, OrderID: id, Timestamp: e.clock()})
}

// SubmitOrder accepts a new order and drives it through matching
// according to its type, returning the observable end status.
func (e *MatchingEngine) SubmitOrder(id OrderID, side Side, typ OrderType, price Price, quantity Quantity) OrderStatus {
	if quantity == 0 {
		e.emitEvent(EventReject, id)
		return Rejected
	}

	if typ == PostOnly && e.wouldCross(side, price) {
		e.emitEvent(EventReject, id)
		return Rejected
	}

	if !e.book.AddOrder(id, side, typ, price, quantity) {
		e.emitEvent(EventReject, id)
		return Rejected
	}
	e.emitEvent(EventOpen, id)

	o := e.book.byID[id]

	if typ == FOK && !e.fokCanFillFully(side, price, quantity) {
		e.book.CancelOrder(id)
		e.emitEvent(EventCancel, id)
		return Cancelled
	}

	switch typ {
	case Market:
		e.matchCross(o, true)
	default:
		e.matchCross(o, false)
	}

	return e.finalStatus(id, o)
}

// wouldCross reports whether an order at (side, price) would immediately
// be able to trade against the best opposing quote.
func (e *MatchingEngine) wouldCross(side Side, price Price) bool {
	if side == Buy {
		ask, ok := e.book.BestAsk()
		return ok && price >= ask
	}
	bid, ok := e.book.BestBid()
	return ok && price <= bid
}

// fokCanFillFully performs the dry-run phase of Fill-or-Kill: it walks
// the opposing levels, summing crossable depth, without mutating any
// state, and reports whether the full quantity could be filled.
func (e *MatchingEngine) fokCanFillFully(side Side, price Price, quantity Quantity) bool {
	opp := e.book.levelsFor(opposite(side))
	var covered Quantity
	el := opp.list.Front()
	for el != nil && covered < quantity {
		lvl := el.Value.(*PriceLevel)
		if !crosses(side, price, lvl.Price) {
			break
		}
		covered += lvl.TotalQuantity
		el = el.Next()
	}
	return covered >= quantity
}

func opposite(side Side) Side {
	if side == Buy {
		return Sell
	}
	return Buy
}

// crosses reports whether an order on side at price may trade against a
// resting level at oppPrice.
func crosses(side Side, price Price, oppPrice Price) bool {
	if side == Buy {
		return price >= oppPrice
	}
	return price <= oppPrice
}

// matchCross repeatedly trades the aggressing order against the best
// opposing price level until it is filled, no crossable level remains,
// or (for bounded orders) the limit price no longer crosses. unbounded
// disables the price-cross test, implementing Market semantics.
func (e *MatchingEngine) matchCross(aggressor *Order, unbounded bool) {
	opp := e.book.levelsFor(opposite(aggressor.Side))

	for aggressor.Remaining() > 0 {
		lvl, ok := opp.front()
		if !ok {
			break
		}
		if !unbounded && !crosses(aggressor.Side, aggressor.Price, lvl.Price) {
			break
		}

		head := lvl.front()
		if head == nil {
			break
		}

		qty := aggressor.Remaining()
		if head.Remaining() < qty {
			qty = head.Remaining()
		}

		headOldRemaining := head.Remaining()
		aggrOldRemaining := aggressor.Remaining()
		aggressor.FilledQuantity += Quantity(qty)
		head.FilledQuantity += Quantity(qty)

		e.book.updateLevelTotalIncremental(head, headOldRemaining)
		e.book.updateLevelTotalIncremental(aggressor, aggrOldRemaining)

		var buyID, sellID OrderID
		if aggressor.Side == Buy {
			buyID, sellID = aggressor.ID, head.ID
		} else {
			buyID, sellID = head.ID, aggressor.ID
		}

		trade := Trade{
			ID:        xid.New().String(),
			BuyID:     buyID,
			SellID:    sellID,
			Price:     lvl.Price,
			Quantity:  qty,
			Timestamp: e.clock(),
		}
		e.recorder.record(trade)
		e.emitEvent(EventMatch, aggressor.ID)

		if head.IsFilled() {
			head.Status = Filled
			e.book.removeFilledOrder(head)
		} else {
			head.Status = PartiallyFilled
		}

		if aggressor.IsFilled() {
			break
		}
	}
}

// finalStatus determines the observable end status for a submission
// after matching has run, per the state machine: Filled when fully
// crossed, otherwise PartiallyFilled/New/Cancelled depending on whether
// any residual remains resting or was discarded.
func (e *MatchingEngine) finalStatus(id OrderID, o *Order) OrderStatus {
	if o.IsFilled() {
		o.Status = Filled
		e.book.removeFilledOrder(o)
		return Filled
	}

	stillResting := o.Type == Limit || o.Type == PostOnly
	if !stillResting {
		filledSome := o.FilledQuantity > 0
		o.Status = Cancelled
		e.book.CancelOrder(id)
		e.emitEvent(EventCancel, id)
		if filledSome {
			return PartiallyFilled
		}
		return Cancelled
	}

	if o.FilledQuantity > 0 {
		o.Status = PartiallyFilled
		return PartiallyFilled
	}
	return New
}

// CancelOrder removes a live order from the book. See OrderBook.CancelOrder.
func (e *MatchingEngine) CancelOrder(id OrderID) bool {
	ok := e.book.CancelOrder(id)
	if ok {
		e.emitEvent(EventCancel, id)
	}
	return ok
}

// ModifyOrder changes price and/or quantity of a live order. See
// OrderBook.ModifyOrder. Modify never re-enters matching; callers that
// want the new order to immediately cross should cancel and resubmit.
func (e *MatchingEngine) ModifyOrder(id OrderID, newPrice Price, newQuantity Quantity) bool {
	ok := e.book.ModifyOrder(id, newPrice, newQuantity)
	if ok {
		e.emitEvent(EventAmend, id)
	}
	return ok
}

// DrainTrades returns every trade accumulated since the last drain and
// clears the internal buffer.
func (e *MatchingEngine) DrainTrades() []Trade {
	return e.recorder.drain()
}

// Clear empties the underlying book. Pending trades are untouched.
func (e *MatchingEngine) Clear() {
	e.book.Clear()
}
