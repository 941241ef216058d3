package orderreaderv1

import orderbookv1 "github.com/kingbirdogd/matching-sample/internal/domain/orderbook/v1"

// Action represents the kind of request carried by an order stream message.
type Action string

const (
	// ActionNew requests matching of a new limit order.
	ActionNew Action = "new"
	// ActionCancel requests cancellation of a resting order.
	ActionCancel Action = "cancel"
	// ActionAmend requests amendment of a resting order.
	ActionAmend Action = "amend"
)

// OrderRequest is the wire shape of one order stream message. Price and
// quantity are integer tick and lot units. OrderID targets an existing order
// for cancel and amend; ClientOrderID is an opaque caller-supplied token
// echoed back on the order.
type OrderRequest struct {
	Action        Action           `json:"action"`
	Symbol        string           `json:"symbol"`
	Side          orderbookv1.Side `json:"side"`
	Price         int64            `json:"price"`
	Quantity      uint64           `json:"quantity"`
	ClientOrderID string           `json:"clientOrderID"`
	OrderID       uint64           `json:"orderID"`

	// Offset is the request's position in the stream, set by the reader.
	Offset int64 `json:"-"`
}

// ToOrder builds the order to submit for an ActionNew request.
func (r *OrderRequest) ToOrder() *orderbookv1.Order {
	return orderbookv1.NewOrder(r.ClientOrderID, r.Symbol, r.Side, r.Price, r.Quantity)
}
