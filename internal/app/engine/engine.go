package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	orderreaderv1 "github.com/sm-nvws/limit-order-book/internal/domain/order-reader/v1"
	orderbookv1 "github.com/sm-nvws/limit-order-book/internal/domain/orderbook/v1"
	snapshotv1 "github.com/sm-nvws/limit-order-book/internal/domain/snapshot/v1"
	tradepublisherv1 "github.com/sm-nvws/limit-order-book/internal/domain/trade-publisher/v1"
	"github.com/sm-nvws/limit-order-book/internal/usecase/book"
	"github.com/sm-nvws/limit-order-book/pkg/config"
	"github.com/sm-nvws/limit-order-book/pkg/logger"
)

// Engine is the main loop wiring the order request stream to the book and the
// trade ledger to the trades topic.
type Engine struct {
	book           *book.Book
	orderReader    orderreaderv1.OrderReader
	tradePublisher tradepublisherv1.TradePublisher
	snapshotStore  snapshotv1.Store
	logger         *logger.Logger
	config         *config.Config

	mu                 sync.RWMutex
	orderOffset        int64
	lastSnapshotOffset int64
	totalTrades        int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	snapshotInterval    time.Duration
	snapshotOffsetDelta int64
}

// NewEngine creates a new Engine with default options and restores the book
// from the latest snapshot, if any.
func NewEngine(
	b *book.Book,
	orderReader orderreaderv1.OrderReader,
	tradePublisher tradepublisherv1.TradePublisher,
	snapshotStore snapshotv1.Store,
	logger *logger.Logger,
	config *config.Config,
) (*Engine, error) {
	return NewEngineWithOptions(b, orderReader, tradePublisher, snapshotStore, logger, config, DefaultEngineOptions())
}

// NewEngineWithOptions creates a new engine with custom options.
func NewEngineWithOptions(
	b *book.Book,
	orderReader orderreaderv1.OrderReader,
	tradePublisher tradepublisherv1.TradePublisher,
	snapshotStore snapshotv1.Store,
	logger *logger.Logger,
	config *config.Config,
	options *Options,
) (*Engine, error) {
	e := &Engine{
		book:           b,
		orderReader:    orderReader,
		tradePublisher: tradePublisher,
		snapshotStore:  snapshotStore,
		logger:         logger,
		config:         config,

		snapshotInterval:    options.SnapshotInterval,
		snapshotOffsetDelta: options.SnapshotOffsetDelta,
		orderOffset:         -1,
	}

	if err := e.loadSnapshot(context.Background()); err != nil {
		return nil, err
	}

	return e, nil
}

// Start initializes the engine and starts processing routines.
func (e *Engine) Start(ctx context.Context) error {
	e.ctx, e.cancel = context.WithCancel(ctx)

	e.wg.Add(2)
	go e.runRequestProcessor()
	go e.runSnapshotManager()

	e.logger.Info("Engine started", logger.Field{
		Key:   "pair",
		Value: e.config.Pair,
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
		e.logger.Info("Engine stopped gracefully")
		return nil
	case <-ctx.Done():
		e.logger.Warn("Engine stop timeout exceeded")
		return ctx.Err()
	}
}

// runRequestProcessor reads and applies order requests in a single goroutine.
func (e *Engine) runRequestProcessor() {
	defer e.wg.Done()

	e.logger.Info("Starting request processor", logger.Field{
		Key:   "pair",
		Value: e.config.Pair,
	})

	currentOffset := e.getOrderOffset()
	if currentOffset > 0 {
		currentOffset++
	}

	if err := e.orderReader.SetOffset(currentOffset); err != nil {
		e.logger.Error(err, logger.Field{
			Key:   "action",
			Value: "set_reader_offset",
		})
		return
	}

	for {
		select {
		case <-e.ctx.Done():
			e.logger.Info("Request processor shutting down")
			e.orderReader.Close()
			return
		default:
			msg, request, err := e.orderReader.ReadMessage(e.ctx)
			if err != nil {
				e.logger.ErrorContext(e.ctx, err, logger.Field{
					Key:   "action",
					Value: "read_order_message",
				})
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

// processRequest applies one request to the book. Rejections are logged and
// absorbed; a consistency violation is surfaced loudly but does not stop the
// processor, since the failed operation already aborted without mutating
// further state.
func (e *Engine) processRequest(request *orderreaderv1.OrderRequest) {
	switch request.Action {
	case orderreaderv1.ActionPlace:
		result, err := e.book.Admit(request.UserID, request.Side, request.Kind, request.Price, request.Qty)
		e.handleAdmitOutcome(request, result, err)

	case orderreaderv1.ActionCancel:
		if err := e.book.Cancel(request.UserID, request.OrderID); err != nil {
			e.logger.Warn("Cancel rejected",
				logger.Field{Key: "orderID", Value: request.OrderID},
				logger.Field{Key: "userID", Value: request.UserID},
				logger.Field{Key: "reason", Value: err.Error()},
			)
			return
		}
		e.logger.Info("Order canceled",
			logger.Field{Key: "orderID", Value: request.OrderID},
			logger.Field{Key: "userID", Value: request.UserID},
		)

	case orderreaderv1.ActionModify:
		result, err := e.book.Modify(request.UserID, request.OrderID, request.NewQty, request.NewPrice)
		if err != nil && errors.Is(err, orderbookv1.ErrModifyPartial) {
			// The original order is gone; any fills from the re-admission stand.
			e.logger.Warn("Modify partially failed, original order lost",
				logger.Field{Key: "orderID", Value: request.OrderID},
				logger.Field{Key: "reason", Value: err.Error()},
			)
			if result != nil {
				e.publishTrades(result.Trades)
			}
			return
		}
		e.handleAdmitOutcome(request, result, err)

	default:
		e.logger.Warn("Unknown request action", logger.Field{
			Key:   "action",
			Value: request.Action,
		})
	}
}

// handleAdmitOutcome logs and publishes the result of an admit or modify.
func (e *Engine) handleAdmitOutcome(request *orderreaderv1.OrderRequest, result *book.AdmitResult, err error) {
	if err != nil {
		if errors.Is(err, orderbookv1.ErrInternalConsistency) {
			e.logger.Error(err,
				logger.Field{Key: "action", Value: request.Action},
				logger.Field{Key: "userID", Value: request.UserID},
			)
			return
		}
		if errors.Is(err, orderbookv1.ErrLevelOverflow) && result != nil {
			// Fills already recorded in this call stand; only the resting
			// step was rejected.
			e.logger.Warn("Resting step rejected, fills stand",
				logger.Field{Key: "orderID", Value: result.OrderID},
				logger.Field{Key: "fills", Value: len(result.Trades)},
			)
			e.publishTrades(result.Trades)
			return
		}
		e.logger.Warn("Order rejected",
			logger.Field{Key: "action", Value: request.Action},
			logger.Field{Key: "userID", Value: request.UserID},
			logger.Field{Key: "reason", Value: err.Error()},
		)
		return
	}

	e.logger.Info("Order admitted",
		logger.Field{Key: "orderID", Value: result.OrderID},
		logger.Field{Key: "userID", Value: request.UserID},
		logger.Field{Key: "resting", Value: result.Resting},
		logger.Field{Key: "fills", Value: len(result.Trades)},
	)
	e.publishTrades(result.Trades)
}

// publishTrades publishes ledger records and updates statistics.
func (e *Engine) publishTrades(trades []orderbookv1.Trade) {
	if len(trades) == 0 {
		return
	}

	e.mu.Lock()
	e.totalTrades += int64(len(trades))
	currentTotal := e.totalTrades
	e.mu.Unlock()

	for _, trade := range trades {
		event := &tradepublisherv1.TradeEvent{
			Pair:  e.config.Pair,
			Trade: trade,
		}
		if err := e.tradePublisher.PublishTrade(e.ctx, event); err != nil {
			e.logger.ErrorContext(e.ctx, err, logger.Field{
				Key:   "action",
				Value: "publish_trade",
			})
		}
	}

	e.logger.Info("Trades executed",
		logger.Field{Key: "tradeCount", Value: len(trades)},
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

	return currentOffset-lastSnapshotOffset >= e.snapshotOffsetDelta
}

// createAndStoreSnapshot creates and stores a snapshot.
func (e *Engine) createAndStoreSnapshot() {
	currentOffset := e.getOrderOffset()

	e.logger.Info("Creating snapshot", logger.Field{
		Key:   "currentOffset",
		Value: currentOffset,
	})

	snapshot := e.book.CreateSnapshot()
	snapshot.OrderOffset = currentOffset

	if err := e.snapshotStore.Store(e.ctx, snapshot); err != nil {
		e.logger.ErrorContext(e.ctx, err, logger.Field{
			Key:   "action",
			Value: "store_snapshot",
		})
		return
	}

	e.setLastSnapshotOffset(currentOffset)
}

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

// loadSnapshot loads and restores the book from the latest snapshot.
func (e *Engine) loadSnapshot(ctx context.Context) error {
	snapshot, err := e.snapshotStore.Load(ctx)
	if err != nil {
		return err
	}

	if snapshot != nil {
		if err := e.book.Restore(snapshot); err != nil {
			return err
		}
		e.mu.Lock()
		e.orderOffset = snapshot.OrderOffset
		e.lastSnapshotOffset = snapshot.OrderOffset
		e.mu.Unlock()

		e.logger.Info("Book restored from snapshot", logger.Field{
			Key:   "orderOffset",
			Value: snapshot.OrderOffset,
		})
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
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.totalTrades
}
