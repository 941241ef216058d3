package orderbookv1

// MatchRecord captures both parties' full state at the instant of one match.
// Taker and Maker are value snapshots taken after the match was applied, so
// a record is immutable even while the underlying orders keep trading.
//
// A single incoming order may generate zero, one or many records, one per
// maker it trades against; their order is the authoritative trade sequence.
type MatchRecord struct {
	Taker Order `json:"taker"`
	Maker Order `json:"maker"`
}

// Price returns the price the match executed at, which is always the maker's
// level price.
func (m *MatchRecord) Price() int64 {
	return m.Maker.MatchedPrice
}

// Quantity returns the quantity exchanged in this match.
func (m *MatchRecord) Quantity() uint64 {
	return m.Maker.MatchedQuantity
}

// TakerIsBid checks if the incoming side of the match was a bid.
func (m *MatchRecord) TakerIsBid() bool {
	return m.Taker.IsBid()
}
