package engine

import (
	"context"
	"sync"
	"time"

	exchangev1 "github.com/kingbirdogd/matching-sample/internal/domain/exchange/v1"
	orderbookv1 "github.com/kingbirdogd/matching-sample/internal/domain/orderbook/v1"
	orderreaderv1 "github.com/kingbirdogd/matching-sample/internal/domain/order-reader/v1"
	snapshotv1 "github.com/kingbirdogd/matching-sample/internal/domain/snapshot/v1"
	tradepublisherv1 "github.com/kingbirdogd/matching-sample/internal/domain/trade-publisher/v1"
	"github.com/kingbirdogd/matching-sample/pkg/logger"
	"go.uber.org/zap"
)

// Engine drives the matching core: it reads order requests from the stream,
// applies them to the exchange, publishes the resulting trades, and
// maintains periodic snapshots for recovery.
type Engine struct {
	// Core components
	exchange       exchangev1.Exchange
	orderReader    orderreaderv1.OrderReader
	tradePublisher tradepublisherv1.TradePublisher
	snapshotStore  snapshotv1.Store
	logger         *logger.Logger

	// Stream position tracking
	mu                 sync.RWMutex
	orderOffset        int64
	lastSnapshotOffset int64

	// Shutdown coordination
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Snapshot policy
	snapshotInterval    time.Duration
	snapshotOffsetDelta int64

	// Trade statistics
	totalTrades  int64
	tradesMutex  sync.RWMutex
	rejectedReqs int64
}

// NewEngine creates a new Engine with default options.
func NewEngine(
	exchange exchangev1.Exchange,
	orderReader orderreaderv1.OrderReader,
	tradePublisher tradepublisherv1.TradePublisher,
	snapshotStore snapshotv1.Store,
	logger *logger.Logger,
) *Engine {
	return NewEngineWithOptions(exchange, orderReader, tradePublisher, snapshotStore, logger, DefaultEngineOptions())
}

// NewEngineWithOptions creates a new engine with custom options.
func NewEngineWithOptions(
	exchange exchangev1.Exchange,
	orderReader orderreaderv1.OrderReader,
	tradePublisher tradepublisherv1.TradePublisher,
	snapshotStore snapshotv1.Store,
	logger *logger.Logger,
	options *Options,
) *Engine {
	e := &Engine{
		exchange:       exchange,
		orderReader:    orderReader,
		tradePublisher: tradePublisher,
		snapshotStore:  snapshotStore,
		logger:         logger,

		snapshotInterval:    options.SnapshotInterval,
		snapshotOffsetDelta: options.SnapshotOffsetDelta,
		orderOffset:         -1,
	}

	// Restore state before any order is read
	if err := e.loadSnapshot(context.Background()); err != nil {
		e.logger.GetZap().Fatal("Failed to load snapshot", zap.Error(err))
	}

	return e
}

// Start initializes the engine and starts processing routines.
func (e *Engine) Start(ctx context.Context) error {
	e.ctx, e.cancel = context.WithCancel(ctx)

	e.wg.Add(2)
	go e.runOrderProcessor()
	go e.runSnapshotManager()

	e.logger.Info("Matching engine started", logger.Field{
		Key:   "symbols",
		Value: e.exchange.Symbols(),
	})

	return nil
}

// Stop gracefully shuts down the engine.
func (e *Engine) Stop(ctx context.Context) error {
	if e.cancel != nil {
		e.cancel()
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.logger.Info("Matching engine stopped gracefully")
		return nil
	case <-ctx.Done():
		e.logger.Warn("Engine stop timeout exceeded")
		return ctx.Err()
	}
}

// runOrderProcessor reads and applies order requests in a single goroutine,
// which serializes the whole stream and keeps trade sequences reproducible.
func (e *Engine) runOrderProcessor() {
	defer e.wg.Done()

	e.logger.Info("Starting order processor")

	// Any non-negative restored offset has already been applied; resume
	// at the message after it. -1 means no snapshot and maps to the
	// reader's latest-offset sentinel.
	currentOffset := e.getOrderOffset()
	if currentOffset >= 0 {
		currentOffset++
	}

	if err := e.orderReader.SetOffset(currentOffset); err != nil {
		e.logger.GetZap().Fatal("Failed to set offset for order reader", zap.Error(err))
	}

	for {
		select {
		case <-e.ctx.Done():
			e.logger.Info("Order processor shutting down")
			e.orderReader.Close()
			return
		default:
			msg, request, err := e.orderReader.ReadMessage(e.ctx)
			if err != nil {
				e.logger.ErrorContext(e.ctx, err, logger.Field{
					Key:   "action",
					Value: "read_order_message",
				})
				// Simple backoff
				time.Sleep(100 * time.Millisecond)
				continue
			}

			if err := e.orderReader.CommitMessages(e.ctx, msg); err != nil {
				e.logger.ErrorContext(e.ctx, err, logger.Field{
					Key:   "action",
					Value: "commit_order_message",
				})
			}

			e.processRequest(request)
			e.setOrderOffset(msg.Offset)
		}
	}
}

// runSnapshotManager handles periodic snapshots.
func (e *Engine) runSnapshotManager() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.snapshotInterval)
	defer ticker.Stop()

	e.logger.Info("Starting snapshot manager")

	for {
		select {
		case <-e.ctx.Done():
			e.logger.Info("Snapshot manager shutting down")
			return
		case <-ticker.C:
			if e.shouldCreateSnapshot() {
				e.createAndStoreSnapshot()
			}
		}
	}
}

// processRequest applies a single order request to the exchange and
// publishes any resulting trades. Rejections are not errors; they are logged
// and counted.
func (e *Engine) processRequest(request *orderreaderv1.OrderRequest) {
	e.logger.Debug("Processing request",
		logger.Field{Key: "action", Value: request.Action},
		logger.Field{Key: "symbol", Value: request.Symbol},
		logger.Field{Key: "offset", Value: request.Offset},
	)

	var (
		final   orderbookv1.Order
		records []orderbookv1.MatchRecord
	)

	switch request.Action {
	case orderreaderv1.ActionNew:
		final, records = e.exchange.Submit(request.ToOrder())
	case orderreaderv1.ActionCancel:
		final = e.exchange.Cancel(request.Symbol, request.OrderID)
	case orderreaderv1.ActionAmend:
		final, records = e.exchange.Amend(request.Symbol, request.OrderID, request.Side, request.Price, request.Quantity)
	default:
		e.logger.Warn("Unknown request action",
			logger.Field{Key: "action", Value: request.Action},
			logger.Field{Key: "offset", Value: request.Offset},
		)
		return
	}

	if final.Status == orderbookv1.StatusRejected {
		e.tradesMutex.Lock()
		e.rejectedReqs++
		e.tradesMutex.Unlock()

		e.logger.Warn("Request rejected",
			logger.Field{Key: "action", Value: request.Action},
			logger.Field{Key: "symbol", Value: request.Symbol},
			logger.Field{Key: "orderID", Value: final.ID},
			logger.Field{Key: "clientOrderID", Value: request.ClientOrderID},
		)
	}

	if len(records) > 0 {
		e.publishTrades(records)
	}
}

// publishTrades emits one trade event per match record, in match order.
func (e *Engine) publishTrades(records []orderbookv1.MatchRecord) {
	e.tradesMutex.Lock()
	e.totalTrades += int64(len(records))
	currentTotal := e.totalTrades
	e.tradesMutex.Unlock()

	for i := range records {
		event := tradepublisherv1.CreateFromRecord(&records[i])
		if err := e.tradePublisher.PublishTradeEvent(e.ctx, event); err != nil {
			e.logger.ErrorContext(e.ctx, err, logger.Field{
				Key:   "action",
				Value: "publish_trade_event",
			})
			continue
		}

		e.logger.Info("Trade executed",
			logger.Field{Key: "tradeID", Value: event.TradeID},
			logger.Field{Key: "symbol", Value: event.Symbol},
			logger.Field{Key: "price", Value: event.Price},
			logger.Field{Key: "quantity", Value: event.Quantity},
			logger.Field{Key: "takerOrderID", Value: event.TakerOrderID},
			logger.Field{Key: "makerOrderID", Value: event.MakerOrderID},
			logger.Field{Key: "takerSide", Value: event.TakerSide},
		)
	}

	e.logger.Debug("Trades published",
		logger.Field{Key: "tradeCount", Value: len(records)},
		logger.Field{Key: "totalTrades", Value: currentTotal},
	)
}

// shouldCreateSnapshot checks if a snapshot should be created.
func (e *Engine) shouldCreateSnapshot() bool {
	e.mu.RLock()
	currentOffset := e.orderOffset
	lastSnapshotOffset := e.lastSnapshotOffset
	e.mu.RUnlock()

	if currentOffset <= 0 {
		return false
	}

	delta := currentOffset - lastSnapshotOffset
	return delta >= e.snapshotOffsetDelta
}

// createAndStoreSnapshot creates and stores a snapshot.
func (e *Engine) createAndStoreSnapshot() {
	currentOffset := e.getOrderOffset()

	snapshot := e.exchange.Snapshot()
	snapshot.OrderOffset = currentOffset

	if err := e.snapshotStore.Store(e.ctx, snapshot); err != nil {
		e.logger.ErrorContext(e.ctx, err, logger.Field{
			Key:   "action",
			Value: "store_snapshot",
		})
		return
	}

	e.setLastSnapshotOffset(currentOffset)
	e.logger.Info("Snapshot stored successfully",
		logger.Field{Key: "offset", Value: currentOffset},
		logger.Field{Key: "books", Value: len(snapshot.Books)},
	)
}

// Thread-safe getters and setters
func (e *Engine) getOrderOffset() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.orderOffset
}

func (e *Engine) setOrderOffset(offset int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.orderOffset = offset
}

func (e *Engine) getLastSnapshotOffset() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastSnapshotOffset
}

func (e *Engine) setLastSnapshotOffset(offset int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastSnapshotOffset = offset
}

// loadSnapshot loads and restores the exchange from the latest snapshot.
func (e *Engine) loadSnapshot(ctx context.Context) error {
	snapshot, err := e.snapshotStore.LoadStore(ctx)
	if err != nil {
		return err
	}

	if snapshot != nil {
		if err := e.exchange.Restore(snapshot); err != nil {
			return err
		}

		e.mu.Lock()
		e.orderOffset = snapshot.OrderOffset
		e.lastSnapshotOffset = snapshot.OrderOffset
		e.mu.Unlock()

		e.logger.Info("Exchange restored from snapshot",
			logger.Field{Key: "orderOffset", Value: snapshot.OrderOffset},
			logger.Field{Key: "books", Value: len(snapshot.Books)},
		)
	}

	return nil
}

// GetOrderOffset returns the current order offset.
func (e *Engine) GetOrderOffset() int64 {
	return e.getOrderOffset()
}

// GetLastSnapshotOffset returns the last snapshot offset.
func (e *Engine) GetLastSnapshotOffset() int64 {
	return e.getLastSnapshotOffset()
}

// GetTotalTrades returns the total number of trades published.
func (e *Engine) GetTotalTrades() int64 {
	e.tradesMutex.RLock()
	defer e.tradesMutex.RUnlock()
	return e.totalTrades
}

// GetRejectedRequests returns the total number of rejected requests.
func (e *Engine) GetRejectedRequests() int64 {
	e.tradesMutex.RLock()
	defer e.tradesMutex.RUnlock()
	return e.rejectedReqs
}
