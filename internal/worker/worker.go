package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/tuanphung2005/fluxify-sub001/internal/broker"
	"github.com/tuanphung2005/fluxify-sub001/internal/models"
	"github.com/tuanphung2005/fluxify-sub001/internal/redisclient"
	"github.com/tuanphung2005/fluxify-sub001/internal/store"
	"github.com/tuanphung2005/fluxify-sub001/internal/util"
)

// StockCacheWorker keeps the Redis stock read cache in step with the
// database by consuming order events. The cache is advisory only; the
// database guards remain the stock authority.
type StockCacheWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	store        *store.Store
	redis        *redisclient.Client
	logger       *zap.Logger
}

// NewStockCacheWorker creates a new stock cache worker
func NewStockCacheWorker(consumer *broker.Consumer, store *store.Store, redis *redisclient.Client) *StockCacheWorker {
	w := &StockCacheWorker{
		consumer: consumer,
		store:    store,
		redis:    redis,
		logger:   util.NamedLogger("stockcache"),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderPlaced(w.handleOrderPlaced)
	eventHandler.OnOrderCancelled(w.handleOrderCancelled)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *StockCacheWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting stock cache worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *StockCacheWorker) Stop() error {
	w.logger.Info("Stopping stock cache worker")
	return w.consumer.Close()
}

func (w *StockCacheWorker) handleOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	return w.refreshProducts(ctx, event.Items)
}

func (w *StockCacheWorker) handleOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error {
	return w.refreshProducts(ctx, event.Items)
}

// refreshProducts re-reads authoritative stock for every product touched
// by an order and rewrites its cache entry. Failures are logged and the
// entry invalidated; a stale miss just falls through to the database.
func (w *StockCacheWorker) refreshProducts(ctx context.Context, items []models.OrderItemData) error {
	seen := make(map[int64]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}

		if err := w.refreshProduct(ctx, item.ProductID); err != nil {
			w.logger.Warn("Failed to refresh stock cache",
				zap.Int64("product_id", item.ProductID),
				zap.Error(err))
			_ = w.redis.InvalidateStock(ctx, item.ProductID)
		}
	}
	return nil
}

func (w *StockCacheWorker) refreshProduct(ctx context.Context, productID int64) error {
	product, err := w.store.GetProductByID(ctx, nil, productID)
	if err != nil {
		return err
	}

	if err := w.redis.SetStock(ctx, product.ID, product.Stock); err != nil {
		return err
	}

	if product.HasVariants() {
		rows, err := w.store.GetVariantStocks(ctx, product.ID)
		if err != nil {
			return err
		}
		stocks := make(map[string]int, len(rows))
		for _, row := range rows {
			stocks[row.VariantKey] = row.Quantity
		}
		if err := w.redis.SetVariantStock(ctx, product.ID, stocks); err != nil {
			return err
		}
	}

	util.StockCacheRefreshTotal.Inc()
	return nil
}
