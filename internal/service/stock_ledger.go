package service

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/tuanphung2005/fluxify-sub001/internal/apperr"
	"github.com/tuanphung2005/fluxify-sub001/internal/models"
	"github.com/tuanphung2005/fluxify-sub001/internal/store"
	"github.com/tuanphung2005/fluxify-sub001/internal/util"
	"github.com/tuanphung2005/fluxify-sub001/internal/variant"
)

// StockLedger owns stock resolution and guarded adjustment. Adjustments
// never open their own transaction: callers thread a *sqlx.Tx so that a
// failed item aborts the entire enclosing unit of work.
type StockLedger struct {
	store  *store.Store
	logger *zap.Logger
}

// NewStockLedger creates a new stock ledger
func NewStockLedger(store *store.Store) *StockLedger {
	return &StockLedger{
		store:  store,
		logger: util.NamedLogger("stock"),
	}
}

// Resolve returns the available stock for a product, or for one variant
// combination when the product carries a variant schema. Variant keys
// without a stored row resolve to 0.
func (l *StockLedger) Resolve(ctx context.Context, ext sqlx.ExtContext, product *models.Product, variantKey string) (int, error) {
	if variantKey == "" || !product.HasVariants() {
		return product.Stock, nil
	}
	return l.store.GetVariantStock(ctx, ext, product.ID, variantKey)
}

// Decrement subtracts quantity inside the caller's transaction. The store
// guard is the concurrency authority: an upfront availability snapshot may
// be stale by the time of the write, the guarded UPDATE cannot be.
func (l *StockLedger) Decrement(ctx context.Context, tx *sqlx.Tx, product *models.Product, variantKey string, quantity int) error {
	if variantKey != "" && product.HasVariants() {
		if !variant.Matches(variantKey, product.VariantSchema) {
			return &apperr.ValidationError{Field: "variant", Reason: "selection not allowed by product schema"}
		}
		ok, err := l.store.DecrementVariantStock(ctx, tx, product.ID, variantKey, quantity)
		if err != nil {
			return err
		}
		if !ok {
			util.StockAdjustmentsFailed.WithLabelValues("insufficient_variant").Inc()
			return &apperr.InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				VariantKey:  variantKey,
				Requested:   quantity,
			}
		}
		util.StockAdjustmentsTotal.WithLabelValues("decrement", "variant").Inc()
		return nil
	}

	ok, err := l.store.DecrementStock(ctx, tx, product.ID, quantity)
	if err != nil {
		return err
	}
	if !ok {
		util.StockAdjustmentsFailed.WithLabelValues("insufficient_base").Inc()
		return &apperr.InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   quantity,
		}
	}
	util.StockAdjustmentsTotal.WithLabelValues("decrement", "base").Inc()
	return nil
}

// Increment restores quantity inside the caller's transaction. Used by
// cancellation compensation, which must replay the exact quantity
// originally decremented, keyed by the item's stored variant.
func (l *StockLedger) Increment(ctx context.Context, tx *sqlx.Tx, productID int64, variantKey string, quantity int) error {
	if variantKey != "" {
		if err := l.store.IncrementVariantStock(ctx, tx, productID, variantKey, quantity); err != nil {
			return err
		}
		util.StockAdjustmentsTotal.WithLabelValues("increment", "variant").Inc()
		return nil
	}

	if err := l.store.IncrementStock(ctx, tx, productID, quantity); err != nil {
		return err
	}
	util.StockAdjustmentsTotal.WithLabelValues("increment", "base").Inc()
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, apperr.ErrProductNotFound) ||
		errors.Is(err, apperr.ErrOrderNotFound) ||
		errors.Is(err, apperr.ErrCouponNotFound) ||
		errors.Is(err, apperr.ErrUserNotFound)
}
