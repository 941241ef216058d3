package orderbook

import (
	"fmt"
	"sort"
	"sync"

	orderbookv1 "github.com/kingbirdogd/matching-sample/internal/domain/orderbook/v1"
	snapshotv1 "github.com/kingbirdogd/matching-sample/internal/domain/snapshot/v1"
)

// SymbolBook is the matching core for one symbol. It owns a bid ladder, an
// ask ladder and the id index that holds the authoritative state of every
// resting order; the ladders only hold IDs into that index.
//
// Every public operation runs under one mutex and completes its entire match
// loop before returning, so callers never observe a partially matched book.
// Operations never return Go errors for caller mistakes: a refused request
// comes back with StatusRejected and the book untouched. Books for different
// symbols share no mutable state except the ID allocator, which is safe for
// concurrent use.
type SymbolBook struct {
	mu        sync.Mutex
	symbol    string
	allocator *orderbookv1.IDAllocator
	orders    map[uint64]*orderbookv1.Order
	bids      *orderbookv1.SideLadder
	asks      *orderbookv1.SideLadder
	seq       uint64 // arrival sequence for resting orders
}

// NewSymbolBook creates an empty book for the given symbol. The allocator is
// shared with the owning exchange.
func NewSymbolBook(symbol string, allocator *orderbookv1.IDAllocator) *SymbolBook {
	return &SymbolBook{
		symbol:    symbol,
		allocator: allocator,
		orders:    make(map[uint64]*orderbookv1.Order),
		bids:      orderbookv1.NewSideLadder(orderbookv1.SideBid),
		asks:      orderbookv1.NewSideLadder(orderbookv1.SideAsk),
	}
}

// Symbol returns the symbol this book matches.
func (b *SymbolBook) Symbol() string {
	return b.symbol
}

// NewOrder validates, accepts and matches an incoming order, mutating it in
// place. A rejected order keeps a zero ID and the book is untouched.
// Otherwise the order is assigned an ID, crossed against the opposite ladder
// with strict price-then-time priority, and any remainder rests at the tail
// of its price level. The returned records are in match order, which is the
// authoritative trade sequence.
func (b *SymbolBook) NewOrder(order *orderbookv1.Order) []orderbookv1.MatchRecord {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.newOrderLocked(order)
}

func (b *SymbolBook) newOrderLocked(order *orderbookv1.Order) []orderbookv1.MatchRecord {
	if !order.Side.Valid() || order.Quantity == 0 {
		order.Status = orderbookv1.StatusRejected
		return nil
	}

	order.ID = b.allocator.NextID()
	order.Symbol = b.symbol
	order.Remaining = order.Quantity
	order.Status = orderbookv1.StatusAccepted

	records := b.crossLocked(order)

	if order.Remaining > 0 {
		b.restLocked(order)
	}

	return records
}

// crossLocked scans the ladder opposite the taker from its best price
// outward, consuming makers in arrival order within each level. It mutates
// the live ladder as it goes: filled makers leave their level and the index
// immediately, and a level that empties leaves the ladder before the scan
// moves to the next price.
func (b *SymbolBook) crossLocked(taker *orderbookv1.Order) []orderbookv1.MatchRecord {
	var records []orderbookv1.MatchRecord

	opposite := b.asks
	if taker.IsAsk() {
		opposite = b.bids
	}

	for taker.Remaining > 0 {
		level, ok := opposite.Best()
		if !ok || !opposite.Crosses(level.Price, taker.Price) {
			break
		}

		for taker.Remaining > 0 {
			makerID, ok := level.Front()
			if !ok {
				break
			}

			maker, ok := b.orders[makerID]
			if !ok {
				// Index and ladder disagree; drop the stale ID rather than
				// corrupt the match sequence. Validate reports this state.
				level.Remove(makerID)
				continue
			}

			records = append(records, b.matchLocked(taker, maker, level))
		}

		if level.IsEmpty() {
			opposite.RemoveLevel(level.Price)
		}
	}

	return records
}

// matchLocked applies one match between the taker and the maker at the
// front of level, updates both orders' echo fields and statuses, and removes
// the maker from the book if it filled.
func (b *SymbolBook) matchLocked(taker, maker *orderbookv1.Order, level *orderbookv1.PriceLevel) orderbookv1.MatchRecord {
	matched := min(taker.Remaining, maker.Remaining)

	taker.Remaining -= matched
	maker.Remaining -= matched

	taker.MatchedPrice = level.Price
	maker.MatchedPrice = level.Price
	taker.MatchedQuantity = matched
	maker.MatchedQuantity = matched
	taker.MatchedCounterpartyID = maker.ID
	maker.MatchedCounterpartyID = taker.ID

	taker.Status = fillStatus(taker)
	maker.Status = fillStatus(maker)

	record := orderbookv1.MatchRecord{Taker: *taker, Maker: *maker}

	if maker.Remaining == 0 {
		level.Remove(maker.ID)
		delete(b.orders, maker.ID)
	}

	return record
}

func fillStatus(order *orderbookv1.Order) orderbookv1.Status {
	if order.Remaining == 0 {
		return orderbookv1.StatusFilled
	}
	return orderbookv1.StatusPartialFill
}

// restLocked inserts the order into the index and at the tail of its price
// level, entering both together.
func (b *SymbolBook) restLocked(order *orderbookv1.Order) {
	b.seq++
	order.Sequence = b.seq

	resting := *order
	b.orders[resting.ID] = &resting

	ladder := b.bids
	if resting.IsAsk() {
		ladder = b.asks
	}
	ladder.LevelOrNew(resting.Price).Append(resting.ID)
}

// CancelOrder removes a resting order from the book. An unknown or already
// terminal ID is rejected with no side effect, which makes cancellation
// idempotent. Cancellation never produces match records.
func (b *SymbolBook) CancelOrder(id uint64) orderbookv1.Order {
	b.mu.Lock()
	defer b.mu.Unlock()

	order, ok := b.orders[id]
	if !ok {
		return orderbookv1.Order{
			ID:     id,
			Symbol: b.symbol,
			Status: orderbookv1.StatusRejected,
		}
	}

	b.removeRestingLocked(order)
	order.Status = orderbookv1.StatusCanceled

	return *order
}

// removeRestingLocked takes the order out of its level and the index
// together; the level leaves its ladder if it became empty.
func (b *SymbolBook) removeRestingLocked(order *orderbookv1.Order) {
	ladder := b.bids
	if order.IsAsk() {
		ladder = b.asks
	}

	if level, ok := ladder.Level(order.Price); ok {
		level.Remove(order.ID)
		if level.IsEmpty() {
			ladder.RemoveLevel(level.Price)
		}
	}

	delete(b.orders, order.ID)
}

// AmendOrder modifies a resting order. An unknown or already terminal ID is
// rejected, never silently ignored.
//
// A pure size reduction at unchanged side and price is applied in place and
// keeps the order's position in its level. Any other change - price, side,
// or a size increase - cancels the resting order and resubmits the requested
// fields as a brand-new order through NewOrder: new ID, back of the queue at
// its price, full re-run through the crossing algorithm. A size increase at
// an unchanged price therefore always loses queue priority.
func (b *SymbolBook) AmendOrder(id uint64, side orderbookv1.Side, price int64, quantity uint64) (orderbookv1.Order, []orderbookv1.MatchRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()

	order, ok := b.orders[id]
	if !ok {
		return orderbookv1.Order{
			ID:     id,
			Symbol: b.symbol,
			Status: orderbookv1.StatusRejected,
		}, nil
	}

	if side == order.Side && price == order.Price && quantity > 0 && quantity <= order.Remaining {
		order.Quantity = quantity
		order.Remaining = quantity
		return *order, nil
	}

	b.removeRestingLocked(order)
	order.Status = orderbookv1.StatusCanceled

	replacement := orderbookv1.Order{
		ClientOrderID: order.ClientOrderID,
		Symbol:        b.symbol,
		Side:          side,
		Price:         price,
		Quantity:      quantity,
		Status:        orderbookv1.StatusInit,
	}
	records := b.newOrderLocked(&replacement)

	return replacement, records
}

// Order returns a copy of a resting order's current state.
func (b *SymbolBook) Order(id uint64) (orderbookv1.Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	order, ok := b.orders[id]
	if !ok {
		return orderbookv1.Order{}, false
	}
	return *order, true
}

// Bids returns the bid level prices best-first.
func (b *SymbolBook) Bids() []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bids.Prices()
}

// Asks returns the ask level prices best-first.
func (b *SymbolBook) Asks() []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.asks.Prices()
}

// BestBid returns the highest resting bid price.
func (b *SymbolBook) BestBid() (int64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	level, ok := b.bids.Best()
	if !ok {
		return 0, false
	}
	return level.Price, true
}

// BestAsk returns the lowest resting ask price.
func (b *SymbolBook) BestAsk() (int64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	level, ok := b.asks.Best()
	if !ok {
		return 0, false
	}
	return level.Price, true
}

// BidTotalVolume returns the total remaining quantity resting on the bid side.
func (b *SymbolBook) BidTotalVolume() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sideVolumeLocked(b.bids)
}

// AskTotalVolume returns the total remaining quantity resting on the ask side.
func (b *SymbolBook) AskTotalVolume() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sideVolumeLocked(b.asks)
}

func (b *SymbolBook) sideVolumeLocked(ladder *orderbookv1.SideLadder) uint64 {
	var total uint64
	for _, level := range ladder.Levels() {
		for _, id := range level.IDs() {
			if order, ok := b.orders[id]; ok {
				total += order.Remaining
			}
		}
	}
	return total
}

// DepthLevel is one aggregated price level of the book's depth.
type DepthLevel struct {
	Price    int64  `json:"price"`
	Quantity uint64 `json:"quantity"`
	Orders   int    `json:"orders"`
}

// Depth returns per-level aggregates for one side, best price first.
func (b *SymbolBook) Depth(side orderbookv1.Side) []DepthLevel {
	b.mu.Lock()
	defer b.mu.Unlock()

	ladder := b.bids
	if side == orderbookv1.SideAsk {
		ladder = b.asks
	}

	depth := make([]DepthLevel, 0, ladder.Len())
	for _, level := range ladder.Levels() {
		entry := DepthLevel{Price: level.Price, Orders: level.Len()}
		for _, id := range level.IDs() {
			if order, ok := b.orders[id]; ok {
				entry.Quantity += order.Remaining
			}
		}
		depth = append(depth, entry)
	}
	return depth
}

// LevelOrders returns the IDs resting at a price on one side, in time
// priority order.
func (b *SymbolBook) LevelOrders(side orderbookv1.Side, price int64) []uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	ladder := b.bids
	if side == orderbookv1.SideAsk {
		ladder = b.asks
	}
	level, ok := ladder.Level(price)
	if !ok {
		return nil
	}
	return level.IDs()
}

// Len returns the number of resting orders across both sides.
func (b *SymbolBook) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.orders)
}

// Validate audits the book's internal invariants: every ladder ID resolves
// through the index and vice versa, no level is empty, remaining never
// exceeds quantity, resting statuses are non-terminal. A violation is a
// programming defect, not a caller error; tests call this after mutations.
func (b *SymbolBook) Validate() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	laddered := make(map[uint64]bool, len(b.orders))

	for _, ladder := range []*orderbookv1.SideLadder{b.bids, b.asks} {
		for _, level := range ladder.Levels() {
			if level.IsEmpty() {
				return fmt.Errorf("empty level %d present in %s ladder", level.Price, ladder.Side())
			}
			for _, id := range level.IDs() {
				order, ok := b.orders[id]
				if !ok {
					return fmt.Errorf("ladder id %d missing from index", id)
				}
				if order.Side != ladder.Side() {
					return fmt.Errorf("order %d on wrong side %s", id, ladder.Side())
				}
				if order.Price != level.Price {
					return fmt.Errorf("order %d at level %d has price %d", id, level.Price, order.Price)
				}
				laddered[id] = true
			}
		}
	}

	for id, order := range b.orders {
		if !laddered[id] {
			return fmt.Errorf("indexed order %d rests in no ladder", id)
		}
		if order.Remaining == 0 || order.Remaining > order.Quantity {
			return fmt.Errorf("order %d has remaining %d of quantity %d", id, order.Remaining, order.Quantity)
		}
		if order.IsTerminal() {
			return fmt.Errorf("order %d resting with terminal status %s", id, order.Status)
		}
	}

	return nil
}

// SnapshotOrders returns every resting order in arrival-sequence order, for
// inclusion in an engine snapshot.
func (b *SymbolBook) SnapshotOrders() []snapshotv1.BookOrder {
	b.mu.Lock()
	defer b.mu.Unlock()

	orders := make([]snapshotv1.BookOrder, 0, len(b.orders))
	for _, order := range b.orders {
		orders = append(orders, snapshotv1.BookOrder{
			ID:            order.ID,
			ClientOrderID: order.ClientOrderID,
			Side:          string(order.Side),
			Price:         order.Price,
			Quantity:      order.Quantity,
			Remaining:     order.Remaining,
			Sequence:      order.Sequence,
		})
	}

	sort.Slice(orders, func(i, j int) bool {
		return orders[i].Sequence < orders[j].Sequence
	})

	return orders
}

// RestoreOrder re-inserts a snapshotted resting order with its original ID
// and arrival sequence. Callers must supply orders in ascending sequence
// order so time priority within each level is reproduced.
func (b *SymbolBook) RestoreOrder(bookOrder snapshotv1.BookOrder) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	side := orderbookv1.Side(bookOrder.Side)
	if !side.Valid() {
		return fmt.Errorf("restore order %d: invalid side %q", bookOrder.ID, bookOrder.Side)
	}
	if bookOrder.Remaining == 0 || bookOrder.Remaining > bookOrder.Quantity {
		return fmt.Errorf("restore order %d: remaining %d of quantity %d", bookOrder.ID, bookOrder.Remaining, bookOrder.Quantity)
	}
	if _, exists := b.orders[bookOrder.ID]; exists {
		return fmt.Errorf("restore order %d: id already present", bookOrder.ID)
	}

	status := orderbookv1.StatusAccepted
	if bookOrder.Remaining < bookOrder.Quantity {
		status = orderbookv1.StatusPartialFill
	}

	order := &orderbookv1.Order{
		ID:            bookOrder.ID,
		ClientOrderID: bookOrder.ClientOrderID,
		Symbol:        b.symbol,
		Side:          side,
		Price:         bookOrder.Price,
		Quantity:      bookOrder.Quantity,
		Remaining:     bookOrder.Remaining,
		Status:        status,
		Sequence:      bookOrder.Sequence,
	}

	if order.Sequence > b.seq {
		b.seq = order.Sequence
	}

	b.orders[order.ID] = order

	ladder := b.bids
	if order.IsAsk() {
		ladder = b.asks
	}
	ladder.LevelOrNew(order.Price).Append(order.ID)

	return nil
}
