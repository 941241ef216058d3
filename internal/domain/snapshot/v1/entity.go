package snapshotv1

// Snapshot represents the full matching engine state at a specific point in
// time: every resting order of every symbol book plus the positions needed
// to resume the order stream without reallocating an already-used order ID.
type Snapshot struct {
	// OrderOffset is the order stream offset of the last request applied
	// before the snapshot was taken.
	OrderOffset int64 `json:"orderOffset"`

	// LastOrderID is the allocator high-water mark; restoring advances the
	// allocator past it.
	LastOrderID uint64 `json:"lastOrderID"`

	Books []BookSnapshot `json:"books"`
}

// BookSnapshot represents the resting orders of one symbol book.
type BookSnapshot struct {
	Symbol string `json:"symbol"`

	// Orders are listed in arrival-sequence order so a restore reproduces
	// time priority exactly.
	Orders []BookOrder `json:"orders"`
}

// BookOrder represents one resting order inside a snapshot.
type BookOrder struct {
	ID            uint64 `json:"id"`
	ClientOrderID string `json:"clientOrderID"`
	Side          string `json:"side"`
	Price         int64  `json:"price"`
	Quantity      uint64 `json:"quantity"`
	Remaining     uint64 `json:"remaining"`
	Sequence      uint64 `json:"sequence"`
}
