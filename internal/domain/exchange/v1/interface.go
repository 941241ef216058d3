package exchangev1

import (
	orderbookv1 "github.com/kingbirdogd/matching-sample/internal/domain/orderbook/v1"
	snapshotv1 "github.com/kingbirdogd/matching-sample/internal/domain/snapshot/v1"
)

// Exchange defines the multi-symbol routing surface in front of the
// per-symbol books. Implementations hold no matching logic of their own and
// never match across two different symbol books.
type Exchange interface {
	// Submit routes a new order to its symbol book and returns the order's
	// final state plus the match records in trade-sequence order.
	Submit(order *orderbookv1.Order) (orderbookv1.Order, []orderbookv1.MatchRecord)

	// Cancel removes a resting order; the returned status reflects success
	// or rejection.
	Cancel(symbol string, id uint64) orderbookv1.Order

	// Amend modifies a resting order, resubmitting it through matching when
	// the change is more than a pure size reduction.
	Amend(symbol string, id uint64, side orderbookv1.Side, price int64, quantity uint64) (orderbookv1.Order, []orderbookv1.MatchRecord)

	// Symbols lists the symbols with a live book.
	Symbols() []string

	// Snapshot captures every resting order across all books.
	Snapshot() *snapshotv1.Snapshot

	// Restore rebuilds all books from a snapshot.
	Restore(snapshot *snapshotv1.Snapshot) error
}
