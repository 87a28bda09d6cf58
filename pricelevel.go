package match

// PriceLevel is the FIFO queue of resting orders at one price on one side.
// Orders are linked intrusively through their own prev/next fields, so
// push/unlink never touch the heap.
type PriceLevel struct {
	Price         Price
	TotalQuantity Quantity

	head *Order
	tail *Order
}

func newPriceLevel(price Price) *PriceLevel {
	return &PriceLevel{Price: price}
}

// pushBack appends order at the tail of the level and adds its remaining
// quantity to TotalQuantity. The caller must not have linked order
// elsewhere.
func (l *PriceLevel) pushBack(o *Order) {
	o.prev = l.tail
	o.next = nil
	if l.tail != nil {
		l.tail.next = o
	} else {
		l.head = o
	}
	l.tail = o
	l.TotalQuantity += o.Remaining()
}

// unlink removes order from the level and subtracts its remaining
// quantity from TotalQuantity. order must currently be linked into l.
func (l *PriceLevel) unlink(o *Order) {
	if o.prev != nil {
		o.prev.next = o.next
	} else {
		l.head = o.next
	}
	if o.next != nil {
		o.next.prev = o.prev
	} else {
		l.tail = o.prev
	}
	o.prev = nil
	o.next = nil
	l.TotalQuantity -= o.Remaining()
}

// updateTotal adjusts TotalQuantity for an in-place change to order's
// remaining quantity. oldRemaining must be the value observed before the
// mutation that is being accounted for.
func (l *PriceLevel) updateTotal(o *Order, oldRemaining Quantity) {
	l.TotalQuantity = l.TotalQuantity - oldRemaining + o.Remaining()
}

// front returns the head of the FIFO, the current time-priority winner.
func (l *PriceLevel) front() *Order {
	return l.head
}

func (l *PriceLevel) empty() bool {
	return l.head == nil
}
