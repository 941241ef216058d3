package exchange

import (
	"sort"
	"sync"

	orderbookv1 "github.com/kingbirdogd/matching-sample/internal/domain/orderbook/v1"
	snapshotv1 "github.com/kingbirdogd/matching-sample/internal/domain/snapshot/v1"
	"github.com/kingbirdogd/matching-sample/internal/usecase/orderbook"
)

// Exchange maps symbols to their books, creating each book lazily on first
// reference, and forwards every call to the right book. No matching state
// lives at this layer.
//
// The symbol map lock only guards book lookup and creation; operations on
// different symbols' books proceed fully in parallel. The single ID
// allocator is owned here and shared by all books, so order IDs are unique
// across the whole exchange.
type Exchange struct {
	mu        sync.RWMutex
	allocator *orderbookv1.IDAllocator
	books     map[string]*orderbook.SymbolBook
}

// NewExchange creates an exchange with no books; books appear as symbols
// are first referenced.
func NewExchange() *Exchange {
	return &Exchange{
		allocator: orderbookv1.NewIDAllocator(),
		books:     make(map[string]*orderbook.SymbolBook),
	}
}

// Book returns the book for a symbol, creating an empty one on first
// reference. Symbols are opaque, case-sensitive tokens.
func (e *Exchange) Book(symbol string) *orderbook.SymbolBook {
	e.mu.RLock()
	book, ok := e.books[symbol]
	e.mu.RUnlock()
	if ok {
		return book
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if book, ok = e.books[symbol]; ok {
		return book
	}
	book = orderbook.NewSymbolBook(symbol, e.allocator)
	e.books[symbol] = book
	return book
}

// Submit routes a new order by its Symbol field and returns its final state
// together with the match records produced.
func (e *Exchange) Submit(order *orderbookv1.Order) (orderbookv1.Order, []orderbookv1.MatchRecord) {
	records := e.Book(order.Symbol).NewOrder(order)
	return *order, records
}

// Cancel routes a cancellation; the returned order's status reflects
// success or rejection.
func (e *Exchange) Cancel(symbol string, id uint64) orderbookv1.Order {
	return e.Book(symbol).CancelOrder(id)
}

// Amend routes an amendment and returns the surviving order's final state
// plus any match records produced by a resubmission.
func (e *Exchange) Amend(symbol string, id uint64, side orderbookv1.Side, price int64, quantity uint64) (orderbookv1.Order, []orderbookv1.MatchRecord) {
	return e.Book(symbol).AmendOrder(id, side, price, quantity)
}

// Symbols lists the symbols with a live book, sorted for determinism.
func (e *Exchange) Symbols() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	symbols := make([]string, 0, len(e.books))
	for symbol := range e.books {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

// Snapshot captures every resting order across all books together with the
// allocator high-water mark. Each book is read under its own lock; the
// snapshot is consistent per book.
func (e *Exchange) Snapshot() *snapshotv1.Snapshot {
	e.mu.RLock()
	books := make(map[string]*orderbook.SymbolBook, len(e.books))
	for symbol, book := range e.books {
		books[symbol] = book
	}
	e.mu.RUnlock()

	symbols := make([]string, 0, len(books))
	for symbol := range books {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	snapshot := &snapshotv1.Snapshot{}

	for _, symbol := range symbols {
		orders := books[symbol].SnapshotOrders()
		if len(orders) == 0 {
			continue
		}
		snapshot.Books = append(snapshot.Books, snapshotv1.BookSnapshot{
			Symbol: symbol,
			Orders: orders,
		})
	}

	// The allocator, not the resting set, carries the high-water mark:
	// orders that filled or canceled before the snapshot still consumed
	// IDs that must never be handed out again.
	snapshot.LastOrderID = e.allocator.Last()
	return snapshot
}

// Restore rebuilds every book from a snapshot, reproducing order IDs and
// time priority, and advances the allocator past the highest restored ID so
// new orders never collide with restored ones. It is meant for an exchange
// that has processed no orders yet.
func (e *Exchange) Restore(snapshot *snapshotv1.Snapshot) error {
	if snapshot == nil {
		return nil
	}

	for _, bookSnapshot := range snapshot.Books {
		book := e.Book(bookSnapshot.Symbol)
		for _, bookOrder := range bookSnapshot.Orders {
			if err := book.RestoreOrder(bookOrder); err != nil {
				return err
			}
			e.allocator.Advance(bookOrder.ID)
		}
	}

	e.allocator.Advance(snapshot.LastOrderID)
	return nil
}
