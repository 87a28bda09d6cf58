package match

// An Allocator hands out *Order storage from a growable set of slabs and
// recycles released slots through a singly-linked free list, so the
// matching hot path never touches the heap after warmup.
//
// Each slab is a contiguous []orderSlot. Slabs are appended, never
// reallocated, so a *Order handed out by acquire stays valid for the
// lifetime of the allocator regardless of later growth.
type Allocator struct {
	slabs    [][]orderSlot
	slabSize int32
	maxSlabs int32 // 0 means unbounded growth, the spec's default policy

	freeHead int64 // handle of the first free slot, or noHandle
	bump     int32 // next unused offset in the current (last) slab

	live int64
}

// orderSlot stores one Order plus the free-list link used while the slot
// is not in use. The link lives inside the slot's own storage, mirroring
// the classic arena free-list trick named for released memory.
type orderSlot struct {
	order    Order
	freeNext int64
}

const noHandle int64 = -1

func encodeHandle(slabIndex int, offset int32) int64 {
	return int64(slabIndex)<<32 | int64(uint32(offset))
}

func decodeHandle(h int64) (slabIndex int, offset int32) {
	return int(h >> 32), int32(uint32(h))
}

// AllocatorStats is the snapshot returned by Allocator.Stats.
type AllocatorStats struct {
	TotalSlabs     int
	SlabSize       int32
	LiveCount      int64
	FreeListLength int64
}

// NewAllocator creates an allocator with one eagerly allocated slab of
// slabSize records. A non-positive slabSize is replaced with
// defaultSlabSize.
func NewAllocator(slabSize int32) *Allocator {
	if slabSize <= 0 {
		slabSize = defaultSlabSize
	}
	a := &Allocator{
		slabSize: slabSize,
		freeHead: noHandle,
	}
	a.addSlab()
	return a
}

func (a *Allocator) addSlab() {
	slabIndex := len(a.slabs)
	a.slabs = append(a.slabs, make([]orderSlot, a.slabSize))
	a.bump = 0
	logger.Debug("allocator: grew", "slab_index", slabIndex, "slab_size", a.slabSize, "total_slabs", len(a.slabs))
}

// setMaxSlabs bounds the allocator to n total slabs; n <= 0 restores the
// default unbounded policy. Used only by WithMaxSlabs at construction.
func (a *Allocator) setMaxSlabs(n int32) {
	if n < 0 {
		logger.Warn(ErrInvalidParam.Error(), "field", "maxSlabs", "value", n)
		n = 0
	}
	a.maxSlabs = n
}

// acquire returns storage for one Order, zeroed to its default state and
// stamped with its own handle for O(1) release. It returns nil only when
// the allocator is bounded (maxSlabs > 0) and every slab is full with no
// free slot to recycle — the "acquire failed" outcome spec.md §4.1
// describes for a bounded growth policy.
func (a *Allocator) acquire() *Order {
	if a.freeHead != noHandle {
		h := a.freeHead
		slabIndex, offset := decodeHandle(h)
		slot := &a.slabs[slabIndex][offset]
		a.freeHead = slot.freeNext
		slot.order = Order{handle: h}
		a.live++
		return &slot.order
	}

	if int(a.bump) >= len(a.slabs[len(a.slabs)-1]) {
		if a.maxSlabs > 0 && int32(len(a.slabs)) >= a.maxSlabs {
			logger.Warn(ErrAllocatorExhausted.Error(), "total_slabs", len(a.slabs), "max_slabs", a.maxSlabs)
			return nil
		}
		a.addSlab()
	}
	slabIndex := len(a.slabs) - 1
	offset := a.bump
	a.bump++

	h := encodeHandle(slabIndex, offset)
	slot := &a.slabs[slabIndex][offset]
	slot.order = Order{handle: h}
	a.live++
	return &slot.order
}

// release returns the order's slot to the free list. Releasing a handle
// not owned by this allocator, or releasing the same order twice, is
// undefined behavior per the caller contract.
func (a *Allocator) release(o *Order) {
	h := o.handle
	slabIndex, offset := decodeHandle(h)
	slot := &a.slabs[slabIndex][offset]
	slot.order = Order{}
	slot.freeNext = a.freeHead
	a.freeHead = h
	a.live--
}

// Stats reports the allocator's current memory and occupancy profile.
func (a *Allocator) Stats() AllocatorStats {
	var freeLen int64
	for h := a.freeHead; h != noHandle; {
		freeLen++
		slabIndex, offset := decodeHandle(h)
		h = a.slabs[slabIndex][offset].freeNext
	}
	return AllocatorStats{
		TotalSlabs:     len(a.slabs),
		SlabSize:       a.slabSize,
		LiveCount:      a.live,
		FreeListLength: freeLen,
	}
}
