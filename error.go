package match

import "errors"

var (
	// ErrInvalidParam is logged (not returned) when setMaxSlabs is given a
	// negative bound, which is then treated as unbounded.
	ErrInvalidParam = errors.New("the param is invalid")

	// ErrInternal signals a broken invariant, logged and then panicked on
	// rather than returned to a caller — per spec §7 this is a programmer
	// error, not a recoverable runtime condition.
	ErrInternal = errors.New("internal error")

	// ErrAllocatorExhausted is logged when a bounded allocator (WithMaxSlabs)
	// cannot grow and acquire returns nil. It never occurs under the default
	// unbounded growth policy, nor for the first slab, which is allocated
	// eagerly at construction and whose failure is fatal.
	ErrAllocatorExhausted = errors.New("allocator: slab growth failed")
)
