package orderbookv1

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSide_Valid(t *testing.T) {
	assert.True(t, SideBid.Valid())
	assert.True(t, SideAsk.Valid())
	assert.False(t, Side("").Valid())
	assert.False(t, Side("buy").Valid())
}

func TestSide_Opposite(t *testing.T) {
	assert.Equal(t, SideAsk, SideBid.Opposite())
	assert.Equal(t, SideBid, SideAsk.Opposite())
}

func TestStatus_Terminal(t *testing.T) {
	testCases := []struct {
		status   Status
		terminal bool
	}{
		{StatusInit, false},
		{StatusAccepted, false},
		{StatusPartialFill, false},
		{StatusFilled, true},
		{StatusCanceled, true},
		{StatusRejected, true},
	}

	for _, tc := range testCases {
		t.Run(string(tc.status), func(t *testing.T) {
			assert.Equal(t, tc.terminal, tc.status.Terminal())
		})
	}
}

func TestNewOrder(t *testing.T) {
	order := NewOrder("client-1", "BTC-USD", SideBid, 50000, 10)

	assert.Equal(t, uint64(0), order.ID)
	assert.Equal(t, "client-1", order.ClientOrderID)
	assert.Equal(t, "BTC-USD", order.Symbol)
	assert.Equal(t, SideBid, order.Side)
	assert.Equal(t, int64(50000), order.Price)
	assert.Equal(t, uint64(10), order.Quantity)
	assert.Equal(t, StatusInit, order.Status)
	assert.True(t, order.IsBid())
	assert.False(t, order.IsAsk())
	assert.False(t, order.IsFilled())
	assert.False(t, order.IsTerminal())
}

func TestMatchRecord_Accessors(t *testing.T) {
	record := MatchRecord{
		Taker: Order{ID: 2, Side: SideBid, MatchedPrice: 101, MatchedQuantity: 40},
		Maker: Order{ID: 1, Side: SideAsk, MatchedPrice: 101, MatchedQuantity: 40},
	}

	assert.Equal(t, int64(101), record.Price())
	assert.Equal(t, uint64(40), record.Quantity())
	assert.True(t, record.TakerIsBid())
}
