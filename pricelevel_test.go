package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriceLevelFIFOOrdering(t *testing.T) {
	lvl := newPriceLevel(100)

	o1 := &Order{ID: 1, Quantity: 5}
	o2 := &Order{ID: 2, Quantity: 3}
	o3 := &Order{ID: 3, Quantity: 2}

	lvl.pushBack(o1)
	lvl.pushBack(o2)
	lvl.pushBack(o3)

	assert.Equal(t, Quantity(10), lvl.TotalQuantity)
	assert.Same(t, o1, lvl.front())

	lvl.unlink(o1)
	assert.Equal(t, Quantity(5), lvl.TotalQuantity)
	assert.Same(t, o2, lvl.front())

	lvl.unlink(o2)
	lvl.unlink(o3)
	assert.True(t, lvl.empty())
	assert.Equal(t, Quantity(0), lvl.TotalQuantity)
}

func TestPriceLevelUpdateTotalOnPartialFill(t *testing.T) {
	lvl := newPriceLevel(100)
	o := &Order{ID: 1, Quantity: 10}
	lvl.pushBack(o)

	oldRemaining := o.Remaining()
	o.FilledQuantity += 4
	lvl.updateTotal(o, oldRemaining)

	assert.Equal(t, Quantity(6), lvl.TotalQuantity)
}
