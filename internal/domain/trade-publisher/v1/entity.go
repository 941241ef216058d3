package tradepublisherv1

import (
	"encoding/json"
	"time"

	orderbookv1 "github.com/kingbirdogd/matching-sample/internal/domain/orderbook/v1"
	"github.com/oklog/ulid/v2"
)

// TradeEvent is the wire shape of one executed match.
type TradeEvent struct {
	TradeID      string    `json:"tradeID"`
	Symbol       string    `json:"symbol"`
	Price        int64     `json:"price"`
	Quantity     uint64    `json:"quantity"`
	TakerOrderID uint64    `json:"takerOrderID"`
	MakerOrderID uint64    `json:"makerOrderID"`
	BuyOrderID   uint64    `json:"buyOrderID"`
	SellOrderID  uint64    `json:"sellOrderID"`
	TakerSide    string    `json:"takerSide"`
	Timestamp    time.Time `json:"timestamp"`
}

// CreateFromRecord creates a trade event from one match record, assigning a
// fresh ULID as the trade identifier.
func CreateFromRecord(record *orderbookv1.MatchRecord) *TradeEvent {
	event := &TradeEvent{
		TradeID:      ulid.Make().String(),
		Symbol:       record.Taker.Symbol,
		Price:        record.Price(),
		Quantity:     record.Quantity(),
		TakerOrderID: record.Taker.ID,
		MakerOrderID: record.Maker.ID,
		Timestamp:    time.Now().UTC(),
	}

	if record.TakerIsBid() {
		event.BuyOrderID = record.Taker.ID
		event.SellOrderID = record.Maker.ID
		event.TakerSide = "buy"
	} else {
		event.BuyOrderID = record.Maker.ID
		event.SellOrderID = record.Taker.ID
		event.TakerSide = "sell"
	}

	return event
}

// ToBytes converts the trade event to its wire encoding.
func ToBytes(event *TradeEvent) []byte {
	buf, err := json.Marshal(event)
	if err != nil {
		return nil
	}
	return buf
}

// FromBytes decodes a trade event from its wire encoding.
func FromBytes(data []byte) *TradeEvent {
	var event TradeEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil
	}
	return &event
}
