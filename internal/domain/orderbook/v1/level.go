package orderbookv1

// PriceLevel holds the resting orders at one price in strict arrival order,
// which is what gives equal-priced orders their time priority. It stores
// order IDs rather than order pointers; the owning book resolves IDs through
// its index on every access.
//
// A level must never persist empty: the book removes it from its ladder the
// instant the last order leaves. The level carries no lock of its own, all
// access is serialized by the owning book.
type PriceLevel struct {
	Price int64
	ids   []uint64
}

// NewPriceLevel creates an empty level at the given price.
func NewPriceLevel(price int64) *PriceLevel {
	return &PriceLevel{
		Price: price,
		ids:   make([]uint64, 0, 4),
	}
}

// Append adds an order ID at the back of the queue (lowest time priority).
func (l *PriceLevel) Append(id uint64) {
	l.ids = append(l.ids, id)
}

// Front returns the order ID with the highest time priority.
func (l *PriceLevel) Front() (uint64, bool) {
	if len(l.ids) == 0 {
		return 0, false
	}
	return l.ids[0], true
}

// Remove deletes an order ID from the queue, preserving the arrival order of
// the rest. It reports whether the ID was present.
func (l *PriceLevel) Remove(id uint64) bool {
	for i, existing := range l.ids {
		if existing == id {
			l.ids = append(l.ids[:i], l.ids[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether the order ID rests at this level.
func (l *PriceLevel) Contains(id uint64) bool {
	for _, existing := range l.ids {
		if existing == id {
			return true
		}
	}
	return false
}

// IDs returns a copy of the queue in arrival order.
func (l *PriceLevel) IDs() []uint64 {
	out := make([]uint64, len(l.ids))
	copy(out, l.ids)
	return out
}

// Len returns the number of resting orders at this level.
func (l *PriceLevel) Len() int {
	return len(l.ids)
}

// IsEmpty checks if the level has no orders.
func (l *PriceLevel) IsEmpty() bool {
	return len(l.ids) == 0
}
