package match

// Price is a signed integer tick. Business logic assumes non-negative
// values; the type permits negative so callers can represent "no price"
// sentinels if they wish, though this package never produces one.
type Price int64

// Quantity is an unsigned amount of the traded instrument.
type Quantity uint64

// OrderID is caller-supplied and must be unique among live orders.
type OrderID uint64

// Side identifies which book an order rests on or crosses against.
type Side uint8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// OrderType selects the matching behavior applied to a submission.
type OrderType uint8

const (
	Limit OrderType = iota
	Market
	IOC
	FOK
	// PostOnly rests the order like Limit but is rejected outright if it
	// would immediately cross the opposing side.
	PostOnly
)

func (t OrderType) String() string {
	switch t {
	case Limit:
		return "limit"
	case Market:
		return "market"
	case IOC:
		return "ioc"
	case FOK:
		return "fok"
	case PostOnly:
		return "post_only"
	default:
		return "unknown"
	}
}

// OrderStatus is the observable end-state reported to the caller of
// submit, or reflects the resting state of an order still in the book.
type OrderStatus uint8

const (
	New OrderStatus = iota
	PartiallyFilled
	Filled
	Cancelled
	Rejected
)

func (s OrderStatus) String() string {
	switch s {
	case New:
		return "new"
	case PartiallyFilled:
		return "partially_filled"
	case Filled:
		return "filled"
	case Cancelled:
		return "cancelled"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Order is the central record shared by the allocator, the price-level
// intrusive list, and the order book index. prev/next are valid only
// while the order is linked into a PriceLevel.
type Order struct {
	ID             OrderID
	Side           Side
	Type           OrderType
	Price          Price
	Quantity       Quantity
	FilledQuantity Quantity
	Status         OrderStatus
	Timestamp      int64

	prev *Order
	next *Order

	// handle is this order's own slab/offset encoding, stamped by the
	// allocator on acquire so release is O(1) without a reverse index.
	handle int64
}

// Remaining returns the quantity still open on this order.
func (o *Order) Remaining() Quantity {
	return o.Quantity - o.FilledQuantity
}

// IsFilled reports whether the order has no remaining quantity.
func (o *Order) IsFilled() bool {
	return o.FilledQuantity >= o.Quantity
}

// Trade is a single execution between an aggressor and a resting order.
type Trade struct {
	ID       string
	BuyID    OrderID
	SellID   OrderID
	Price    Price
	Quantity Quantity
	// Timestamp is the clock reading at the moment the trade was produced.
	Timestamp int64
}

// PriceLevelView is a read-only snapshot of one price level, returned by
// GetLevels so callers cannot reach into live book state.
type PriceLevelView struct {
	Price         Price
	TotalQuantity Quantity
}

// OrderView is a read-only snapshot of an order's observable fields,
// returned by GetOrder so callers never hold a live *Order handle.
type OrderView struct {
	ID             OrderID
	Side           Side
	Type           OrderType
	Price          Price
	Quantity       Quantity
	FilledQuantity Quantity
	Status         OrderStatus
	Timestamp      int64
}

// Remaining returns the quantity still open on this order.
func (v OrderView) Remaining() Quantity {
	return v.Quantity - v.FilledQuantity
}

func viewOf(o *Order) OrderView {
	return OrderView{
		ID:             o.ID,
		Side:           o.Side,
		Type:           o.Type,
		Price:          o.Price,
		Quantity:       o.Quantity,
		FilledQuantity: o.FilledQuantity,
		Status:         o.Status,
		Timestamp:      o.Timestamp,
	}
}
