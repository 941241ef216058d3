package orderbookv1

import "sync/atomic"

// IDAllocator hands out order identifiers. IDs are unique and strictly
// increasing for the lifetime of the process, and allocation is safe for
// concurrent callers. The zero ID is never allocated; it marks an order the
// book has not accepted yet.
//
// One allocator is owned by the exchange and shared by every symbol book, so
// IDs are unique across symbols as well.
type IDAllocator struct {
	last atomic.Uint64
}

// NewIDAllocator creates an allocator whose first allocated ID is 1.
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{}
}

// NextID returns an identifier never returned before.
func (a *IDAllocator) NextID() uint64 {
	return a.last.Add(1)
}

// Last returns the highest ID handed out or advanced past so far, or zero
// if nothing has been allocated yet.
func (a *IDAllocator) Last() uint64 {
	return a.last.Load()
}

// Advance moves the allocator past id so subsequently allocated IDs are
// strictly greater. Used when restoring a book from a snapshot. Advancing
// backwards is a no-op.
func (a *IDAllocator) Advance(id uint64) {
	for {
		cur := a.last.Load()
		if cur >= id || a.last.CompareAndSwap(cur, id) {
			return
		}
	}
}
