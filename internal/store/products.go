package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tuanphung2005/fluxify-sub001/internal/apperr"
	"github.com/tuanphung2005/fluxify-sub001/internal/models"
)

// GetProductByID retrieves a product. Pass a *sqlx.Tx as ext to read
// inside an open transaction.
func (s *Store) GetProductByID(ctx context.Context, ext sqlx.ExtContext, id int64) (*models.Product, error) {
	if ext == nil {
		ext = s.db
	}
	var product models.Product
	err := sqlx.GetContext(ctx, ext, &product, "SELECT * FROM products WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", apperr.ErrProductNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProducts retrieves all products
func (s *Store) GetProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products, "SELECT * FROM products ORDER BY id")
	return products, err
}

// GetVariantStock returns the stock entry for one variant key, defaulting
// to 0 when no row exists.
func (s *Store) GetVariantStock(ctx context.Context, ext sqlx.ExtContext, productID int64, variantKey string) (int, error) {
	if ext == nil {
		ext = s.db
	}
	var quantity int
	err := sqlx.GetContext(ctx, ext, &quantity,
		"SELECT quantity FROM product_variant_stock WHERE product_id = $1 AND variant_key = $2",
		productID, variantKey)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return quantity, nil
}

// GetVariantStocks retrieves all variant stock rows for a product.
func (s *Store) GetVariantStocks(ctx context.Context, productID int64) ([]models.VariantStock, error) {
	var rows []models.VariantStock
	err := s.db.SelectContext(ctx, &rows,
		"SELECT * FROM product_variant_stock WHERE product_id = $1 ORDER BY variant_key", productID)
	return rows, err
}

// DecrementStock atomically subtracts quantity from a product's base
// stock. The WHERE guard makes the decrement and the availability check a
// single statement, so two concurrent callers can never jointly drive the
// value negative. Returns false when stock would have gone negative.
func (s *Store) DecrementStock(ctx context.Context, ext sqlx.ExtContext, productID int64, quantity int) (bool, error) {
	if ext == nil {
		ext = s.db
	}
	res, err := ext.ExecContext(ctx,
		"UPDATE products SET stock = stock - $1 WHERE id = $2 AND stock >= $1",
		quantity, productID)
	if err != nil {
		return false, fmt.Errorf("decrement stock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// IncrementStock atomically adds quantity back to a product's base stock.
func (s *Store) IncrementStock(ctx context.Context, ext sqlx.ExtContext, productID int64, quantity int) error {
	if ext == nil {
		ext = s.db
	}
	_, err := ext.ExecContext(ctx,
		"UPDATE products SET stock = stock + $1 WHERE id = $2",
		quantity, productID)
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}
	return nil
}

// DecrementVariantStock is the conditional update on a single variant key:
// the quantity guard in the WHERE clause is the compare-and-swap that
// prevents two concurrent decrements from both reading the same pre-update
// value. Returns false on insufficient stock (including a missing row).
func (s *Store) DecrementVariantStock(ctx context.Context, ext sqlx.ExtContext, productID int64, variantKey string, quantity int) (bool, error) {
	if ext == nil {
		ext = s.db
	}
	res, err := ext.ExecContext(ctx,
		`UPDATE product_variant_stock
		 SET quantity = quantity - $1, updated_at = NOW()
		 WHERE product_id = $2 AND variant_key = $3 AND quantity >= $1`,
		quantity, productID, variantKey)
	if err != nil {
		return false, fmt.Errorf("decrement variant stock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// IncrementVariantStock restores quantity to a variant key, creating the
// row if it was never seeded.
func (s *Store) IncrementVariantStock(ctx context.Context, ext sqlx.ExtContext, productID int64, variantKey string, quantity int) error {
	if ext == nil {
		ext = s.db
	}
	_, err := ext.ExecContext(ctx,
		`INSERT INTO product_variant_stock (product_id, variant_key, quantity, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (product_id, variant_key)
		 DO UPDATE SET quantity = product_variant_stock.quantity + EXCLUDED.quantity, updated_at = NOW()`,
		productID, variantKey, quantity)
	if err != nil {
		return fmt.Errorf("increment variant stock: %w", err)
	}
	return nil
}
