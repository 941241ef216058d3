package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	orderreaderv1 "github.com/kingbirdogd/matching-sample/internal/domain/order-reader/v1"
	orderreadermock "github.com/kingbirdogd/matching-sample/internal/domain/order-reader/v1/mock"
	orderbookv1 "github.com/kingbirdogd/matching-sample/internal/domain/orderbook/v1"
	snapshotv1 "github.com/kingbirdogd/matching-sample/internal/domain/snapshot/v1"
	snapshotmock "github.com/kingbirdogd/matching-sample/internal/domain/snapshot/v1/mock"
	tradepublishermock "github.com/kingbirdogd/matching-sample/internal/domain/trade-publisher/v1/mock"
	"github.com/kingbirdogd/matching-sample/internal/usecase/exchange"
	"github.com/kingbirdogd/matching-sample/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test fixtures and helpers
type testFixture struct {
	ctrl               *gomock.Controller
	mockOrderReader    *orderreadermock.MockOrderReader
	mockTradePublisher *tradepublishermock.MockTradePublisher
	mockSnapshotStore  *snapshotmock.MockStore
	exchange           *exchange.Exchange
	logger             *logger.Logger
}

func setupTestFixture(t *testing.T) *testFixture {
	ctrl := gomock.NewController(t)

	log, err := logger.NewLogger()
	require.NoError(t, err)

	return &testFixture{
		ctrl:               ctrl,
		mockOrderReader:    orderreadermock.NewMockOrderReader(ctrl),
		mockTradePublisher: tradepublishermock.NewMockTradePublisher(ctrl),
		mockSnapshotStore:  snapshotmock.NewMockStore(ctrl),
		exchange:           exchange.NewExchange(),
		logger:             log,
	}
}

func (f *testFixture) teardown() {
	f.ctrl.Finish()
}

func createTestRequest(action orderreaderv1.Action, symbol string, side orderbookv1.Side, price int64, quantity uint64, offset int64) *orderreaderv1.OrderRequest {
	return &orderreaderv1.OrderRequest{
		Action:   action,
		Symbol:   symbol,
		Side:     side,
		Price:    price,
		Quantity: quantity,
		Offset:   offset,
	}
}

// Helper function to create engine with initialized context
func createTestEngine(fixture *testFixture) *Engine {
	engine := NewEngine(
		fixture.exchange,
		fixture.mockOrderReader,
		fixture.mockTradePublisher,
		fixture.mockSnapshotStore,
		fixture.logger,
	)

	// Initialize context to prevent nil pointer dereference
	engine.ctx = context.Background()

	return engine
}

func TestNewEngine(t *testing.T) {
	testCases := []struct {
		name                string
		setupMocks          func(*testFixture)
		expectedOrderOffset int64
	}{
		{
			name: "successful engine creation with nil snapshot",
			setupMocks: func(f *testFixture) {
				f.mockSnapshotStore.EXPECT().
					LoadStore(gomock.Any()).
					Return(nil, nil).
					Times(1)
			},
			expectedOrderOffset: -1,
		},
		{
			name: "successful engine creation with existing snapshot",
			setupMocks: func(f *testFixture) {
				snapshot := &snapshotv1.Snapshot{
					OrderOffset: 100,
					LastOrderID: 7,
					Books: []snapshotv1.BookSnapshot{
						{
							Symbol: "BTC-USD",
							Orders: []snapshotv1.BookOrder{
								{ID: 7, Side: "bid", Price: 50000, Quantity: 10, Remaining: 10, Sequence: 1},
							},
						},
					},
				}
				f.mockSnapshotStore.EXPECT().
					LoadStore(gomock.Any()).
					Return(snapshot, nil).
					Times(1)
			},
			expectedOrderOffset: 100,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fixture := setupTestFixture(t)
			defer fixture.teardown()

			tc.setupMocks(fixture)

			engine := NewEngine(
				fixture.exchange,
				fixture.mockOrderReader,
				fixture.mockTradePublisher,
				fixture.mockSnapshotStore,
				fixture.logger,
			)

			assert.NotNil(t, engine)
			assert.Equal(t, tc.expectedOrderOffset, engine.GetOrderOffset())
			assert.Equal(t, fixture.mockOrderReader, engine.orderReader)
			assert.Equal(t, fixture.mockSnapshotStore, engine.snapshotStore)
		})
	}
}

func TestNewEngineWithOptions(t *testing.T) {
	testCases := []struct {
		name                     string
		options                  *Options
		expectedSnapshotInterval time.Duration
		expectedOffsetDelta      int64
	}{
		{
			name: "engine with custom options",
			options: &Options{
				SnapshotInterval:    10 * time.Second,
				SnapshotOffsetDelta: 500,
			},
			expectedSnapshotInterval: 10 * time.Second,
			expectedOffsetDelta:      500,
		},
		{
			name:                     "engine with default options",
			options:                  DefaultEngineOptions(),
			expectedSnapshotInterval: DefaultEngineOptions().SnapshotInterval,
			expectedOffsetDelta:      DefaultEngineOptions().SnapshotOffsetDelta,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fixture := setupTestFixture(t)
			defer fixture.teardown()

			fixture.mockSnapshotStore.EXPECT().
				LoadStore(gomock.Any()).
				Return(nil, nil).
				Times(1)

			engine := NewEngineWithOptions(
				fixture.exchange,
				fixture.mockOrderReader,
				fixture.mockTradePublisher,
				fixture.mockSnapshotStore,
				fixture.logger,
				tc.options,
			)

			assert.NotNil(t, engine)
			assert.Equal(t, tc.expectedSnapshotInterval, engine.snapshotInterval)
			assert.Equal(t, tc.expectedOffsetDelta, engine.snapshotOffsetDelta)
		})
	}
}

func TestEngine_ProcessRequest(t *testing.T) {
	testCases := []struct {
		name           string
		request        *orderreaderv1.OrderRequest
		setupMocks     func(*testFixture)
		setupExchange  func(*exchange.Exchange)
		expectedResting int
		expectedTrades  int64
		expectedRejects int64
	}{
		{
			name:            "new order rests without counterparty",
			request:         createTestRequest(orderreaderv1.ActionNew, "BTC-USD", orderbookv1.SideBid, 50000, 10, 1),
			setupMocks:      func(f *testFixture) {},
			setupExchange:   func(e *exchange.Exchange) {},
			expectedResting: 1,
			expectedTrades:  0,
			expectedRejects: 0,
		},
		{
			name:    "new order crossing a resting ask publishes a trade",
			request: createTestRequest(orderreaderv1.ActionNew, "BTC-USD", orderbookv1.SideBid, 50000, 5, 2),
			setupMocks: func(f *testFixture) {
				f.mockTradePublisher.EXPECT().
					PublishTradeEvent(gomock.Any(), gomock.Any()).
					Return(nil).
					Times(1)
			},
			setupExchange: func(e *exchange.Exchange) {
				e.Submit(orderbookv1.NewOrder("seller", "BTC-USD", orderbookv1.SideAsk, 49000, 10))
			},
			expectedResting: 1, // ask partially filled, still resting
			expectedTrades:  1,
			expectedRejects: 0,
		},
		{
			name:            "new order with zero quantity is rejected",
			request:         createTestRequest(orderreaderv1.ActionNew, "BTC-USD", orderbookv1.SideBid, 50000, 0, 3),
			setupMocks:      func(f *testFixture) {},
			setupExchange:   func(e *exchange.Exchange) {},
			expectedResting: 0,
			expectedTrades:  0,
			expectedRejects: 1,
		},
		{
			name: "cancel removes a resting order",
			request: &orderreaderv1.OrderRequest{
				Action:  orderreaderv1.ActionCancel,
				Symbol:  "BTC-USD",
				OrderID: 1,
				Offset:  4,
			},
			setupMocks: func(f *testFixture) {},
			setupExchange: func(e *exchange.Exchange) {
				e.Submit(orderbookv1.NewOrder("seller", "BTC-USD", orderbookv1.SideAsk, 49000, 10))
			},
			expectedResting: 0,
			expectedTrades:  0,
			expectedRejects: 0,
		},
		{
			name: "cancel of unknown order is rejected",
			request: &orderreaderv1.OrderRequest{
				Action:  orderreaderv1.ActionCancel,
				Symbol:  "BTC-USD",
				OrderID: 42,
				Offset:  5,
			},
			setupMocks:      func(f *testFixture) {},
			setupExchange:   func(e *exchange.Exchange) {},
			expectedResting: 0,
			expectedTrades:  0,
			expectedRejects: 1,
		},
		{
			name: "amend that crosses publishes trades",
			request: &orderreaderv1.OrderRequest{
				Action:   orderreaderv1.ActionAmend,
				Symbol:   "BTC-USD",
				OrderID:  1,
				Side:     orderbookv1.SideBid,
				Price:    50000,
				Quantity: 10,
				Offset:   6,
			},
			setupMocks: func(f *testFixture) {
				f.mockTradePublisher.EXPECT().
					PublishTradeEvent(gomock.Any(), gomock.Any()).
					Return(nil).
					Times(1)
			},
			setupExchange: func(e *exchange.Exchange) {
				e.Submit(orderbookv1.NewOrder("buyer", "BTC-USD", orderbookv1.SideBid, 48000, 10))
				e.Submit(orderbookv1.NewOrder("seller", "BTC-USD", orderbookv1.SideAsk, 49000, 10))
			},
			expectedResting: 0, // both fully filled after amend
			expectedTrades:  1,
			expectedRejects: 0,
		},
		{
			name: "unknown action is ignored",
			request: &orderreaderv1.OrderRequest{
				Action: orderreaderv1.Action("replace"),
				Symbol: "BTC-USD",
				Offset: 7,
			},
			setupMocks:      func(f *testFixture) {},
			setupExchange:   func(e *exchange.Exchange) {},
			expectedResting: 0,
			expectedTrades:  0,
			expectedRejects: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fixture := setupTestFixture(t)
			defer fixture.teardown()

			fixture.mockSnapshotStore.EXPECT().
				LoadStore(gomock.Any()).
				Return(nil, nil).
				Times(1)

			tc.setupMocks(fixture)

			engine := createTestEngine(fixture)
			tc.setupExchange(fixture.exchange)

			engine.processRequest(tc.request)

			assert.Equal(t, tc.expectedResting, fixture.exchange.Book("BTC-USD").Len())
			assert.Equal(t, tc.expectedTrades, engine.GetTotalTrades())
			assert.Equal(t, tc.expectedRejects, engine.GetRejectedRequests())
		})
	}
}

func TestEngine_PublishTradeError(t *testing.T) {
	fixture := setupTestFixture(t)
	defer fixture.teardown()

	fixture.mockSnapshotStore.EXPECT().
		LoadStore(gomock.Any()).
		Return(nil, nil).
		Times(1)
	fixture.mockTradePublisher.EXPECT().
		PublishTradeEvent(gomock.Any(), gomock.Any()).
		Return(errors.New("broker unavailable")).
		Times(1)

	engine := createTestEngine(fixture)
	fixture.exchange.Submit(orderbookv1.NewOrder("seller", "BTC-USD", orderbookv1.SideAsk, 49000, 5))

	// A publish failure must not stop request processing
	engine.processRequest(createTestRequest(orderreaderv1.ActionNew, "BTC-USD", orderbookv1.SideBid, 49000, 5, 1))

	assert.Equal(t, int64(1), engine.GetTotalTrades())
	assert.Equal(t, 0, fixture.exchange.Book("BTC-USD").Len())
}

func TestEngine_SnapshotManagement(t *testing.T) {
	testCases := []struct {
		name                   string
		currentOffset          int64
		lastSnapshotOffset     int64
		snapshotOffsetDelta    int64
		setupMocks             func(*testFixture)
		expectedShouldSnapshot bool
		testCreateSnapshot     bool
		expectStoreSuccess     bool
	}{
		{
			name:                "should create snapshot when offset delta exceeded",
			currentOffset:       1000,
			lastSnapshotOffset:  0,
			snapshotOffsetDelta: 500,
			setupMocks: func(f *testFixture) {
				f.mockSnapshotStore.EXPECT().
					Store(gomock.Any(), gomock.Any()).
					Return(nil).
					Times(1)
			},
			expectedShouldSnapshot: true,
			testCreateSnapshot:     true,
			expectStoreSuccess:     true,
		},
		{
			name:                   "should not create snapshot when offset delta not exceeded",
			currentOffset:          100,
			lastSnapshotOffset:     50,
			snapshotOffsetDelta:    500,
			setupMocks:             func(f *testFixture) {},
			expectedShouldSnapshot: false,
		},
		{
			name:                   "should not create snapshot with zero current offset",
			currentOffset:          0,
			lastSnapshotOffset:     0,
			snapshotOffsetDelta:    100,
			setupMocks:             func(f *testFixture) {},
			expectedShouldSnapshot: false,
		},
		{
			name:                "should create snapshot and handle store error",
			currentOffset:       1000,
			lastSnapshotOffset:  0,
			snapshotOffsetDelta: 500,
			setupMocks: func(f *testFixture) {
				f.mockSnapshotStore.EXPECT().
					Store(gomock.Any(), gomock.Any()).
					Return(errors.New("store error")).
					Times(1)
			},
			expectedShouldSnapshot: true,
			testCreateSnapshot:     true,
			expectStoreSuccess:     false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fixture := setupTestFixture(t)
			defer fixture.teardown()

			fixture.mockSnapshotStore.EXPECT().
				LoadStore(gomock.Any()).
				Return(nil, nil).
				Times(1)

			tc.setupMocks(fixture)

			options := &Options{
				SnapshotInterval:    1 * time.Minute,
				SnapshotOffsetDelta: tc.snapshotOffsetDelta,
			}

			engine := NewEngineWithOptions(
				fixture.exchange,
				fixture.mockOrderReader,
				fixture.mockTradePublisher,
				fixture.mockSnapshotStore,
				fixture.logger,
				options,
			)
			engine.ctx = context.Background()

			engine.setOrderOffset(tc.currentOffset)
			engine.setLastSnapshotOffset(tc.lastSnapshotOffset)

			shouldSnapshot := engine.shouldCreateSnapshot()
			assert.Equal(t, tc.expectedShouldSnapshot, shouldSnapshot)

			if tc.testCreateSnapshot {
				initialLastSnapshot := engine.GetLastSnapshotOffset()

				engine.createAndStoreSnapshot()

				if tc.expectStoreSuccess {
					assert.Equal(t, tc.currentOffset, engine.GetLastSnapshotOffset())
				} else {
					// If store failed, last snapshot offset should remain unchanged
					assert.Equal(t, initialLastSnapshot, engine.GetLastSnapshotOffset())
				}
			}
		})
	}
}

func TestEngine_SnapshotCarriesOffset(t *testing.T) {
	fixture := setupTestFixture(t)
	defer fixture.teardown()

	fixture.mockSnapshotStore.EXPECT().
		LoadStore(gomock.Any()).
		Return(nil, nil).
		Times(1)

	var stored *snapshotv1.Snapshot
	fixture.mockSnapshotStore.EXPECT().
		Store(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, s *snapshotv1.Snapshot) error {
			stored = s
			return nil
		}).
		Times(1)

	engine := createTestEngine(fixture)
	fixture.exchange.Submit(orderbookv1.NewOrder("maker", "ETH-USD", orderbookv1.SideAsk, 3000, 4))
	engine.setOrderOffset(1234)

	engine.createAndStoreSnapshot()

	require.NotNil(t, stored)
	assert.Equal(t, int64(1234), stored.OrderOffset)
	require.Len(t, stored.Books, 1)
	assert.Equal(t, "ETH-USD", stored.Books[0].Symbol)
}

func TestEngine_ConcurrentAccess(t *testing.T) {
	fixture := setupTestFixture(t)
	defer fixture.teardown()

	fixture.mockSnapshotStore.EXPECT().
		LoadStore(gomock.Any()).
		Return(nil, nil).
		Times(1)

	engine := createTestEngine(fixture)

	const numGoroutines = 5
	const numOperations = 10

	done := make(chan bool, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(goroutineID int) {
			defer func() { done <- true }()
			for j := 0; j < numOperations; j++ {
				engine.setOrderOffset(int64(goroutineID*1000 + j))
				engine.setLastSnapshotOffset(int64(goroutineID*500 + j))

				_ = engine.GetOrderOffset()
				_ = engine.GetLastSnapshotOffset()
				_ = engine.GetTotalTrades()
			}
		}(i)
	}

	for i := 0; i < numGoroutines; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("Test timeout - goroutines didn't complete")
		}
	}

	assert.GreaterOrEqual(t, engine.GetOrderOffset(), int64(-1))
}

func TestEngine_GetTotalTrades(t *testing.T) {
	fixture := setupTestFixture(t)
	defer fixture.teardown()

	fixture.mockSnapshotStore.EXPECT().
		LoadStore(gomock.Any()).
		Return(nil, nil).
		Times(1)
	fixture.mockTradePublisher.EXPECT().
		PublishTradeEvent(gomock.Any(), gomock.Any()).
		Return(nil).
		Times(1)

	engine := createTestEngine(fixture)

	// Initially should be 0
	assert.Equal(t, int64(0), engine.GetTotalTrades())

	fixture.exchange.Submit(orderbookv1.NewOrder("seller", "BTC-USD", orderbookv1.SideAsk, 50000, 10))
	engine.processRequest(createTestRequest(orderreaderv1.ActionNew, "BTC-USD", orderbookv1.SideBid, 50000, 5, 1))

	assert.Equal(t, int64(1), engine.GetTotalTrades())
}
