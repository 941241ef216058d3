package orderbookv1

// Side represents which side of the book an order belongs to.
type Side string

const (
	// SideBid represents a buy order.
	SideBid Side = "bid"
	// SideAsk represents a sell order.
	SideAsk Side = "ask"
)

// Valid reports whether the side is one of the two tradeable sides.
func (s Side) Valid() bool {
	return s == SideBid || s == SideAsk
}

// Opposite returns the side an order of this side matches against.
func (s Side) Opposite() Side {
	if s == SideBid {
		return SideAsk
	}
	return SideBid
}

// Status represents the lifecycle state of an order.
type Status string

const (
	// StatusInit is the state of an order before the book has seen it.
	StatusInit Status = "init"
	// StatusAccepted means the order passed validation and entered the book.
	StatusAccepted Status = "accepted"
	// StatusPartialFill means the order matched but still has remaining quantity.
	StatusPartialFill Status = "partial_fill"
	// StatusFilled means the order's remaining quantity reached zero through matching.
	StatusFilled Status = "filled"
	// StatusCanceled means the order was removed from the book by request.
	StatusCanceled Status = "canceled"
	// StatusRejected means the request was refused and had no effect on the book.
	StatusRejected Status = "rejected"
)

// Terminal reports whether the order can no longer rest in or re-enter a ladder.
func (s Status) Terminal() bool {
	return s == StatusFilled || s == StatusCanceled || s == StatusRejected
}

// Order represents a single limit order and its execution state. Prices are
// integer tick units and quantities integer lots, so ordering and equality
// stay exact.
//
// While the order rests, the authoritative record lives in its book's index;
// callers only ever hold copies of its last known state.
type Order struct {
	ID            uint64 `json:"id"`
	ClientOrderID string `json:"clientOrderID"`
	Symbol        string `json:"symbol"`
	Side          Side   `json:"side"`
	Price         int64  `json:"price"`
	Quantity      uint64 `json:"quantity"`
	Remaining     uint64 `json:"remaining"`
	Status        Status `json:"status"`

	// Last-match echo fields. These hold the most recent match event's data,
	// not cumulative totals.
	MatchedPrice          int64  `json:"matchedPrice"`
	MatchedQuantity       uint64 `json:"matchedQuantity"`
	MatchedCounterpartyID uint64 `json:"matchedCounterpartyID"`

	// Sequence is the arrival sequence assigned by the book when the order
	// rests. It orders orders within a price level across snapshot cycles.
	Sequence uint64 `json:"sequence"`
}

// NewOrder creates an order request with the given parameters, ready to be
// submitted. ID, remaining quantity and status are assigned by the book.
func NewOrder(clientOrderID, symbol string, side Side, price int64, quantity uint64) *Order {
	return &Order{
		ClientOrderID: clientOrderID,
		Symbol:        symbol,
		Side:          side,
		Price:         price,
		Quantity:      quantity,
		Status:        StatusInit,
	}
}

// IsBid checks if the order is a bid (buy) order.
func (o *Order) IsBid() bool {
	return o.Side == SideBid
}

// IsAsk checks if the order is an ask (sell) order.
func (o *Order) IsAsk() bool {
	return o.Side == SideAsk
}

// IsFilled checks if the order is fully matched.
func (o *Order) IsFilled() bool {
	return o.Remaining == 0 && o.Status == StatusFilled
}

// IsTerminal checks if the order reached a terminal status.
func (o *Order) IsTerminal() bool {
	return o.Status.Terminal()
}
