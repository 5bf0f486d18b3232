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

// CreateOrder inserts an order header inside the given transaction.
func (s *Store) CreateOrder(ctx context.Context, tx *sqlx.Tx, order *models.Order) error {
	query := `
		INSERT INTO orders (user_id, address_id, status, total_amount, discount_amount, coupon_code)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	return tx.GetContext(ctx, order, query,
		order.UserID, order.AddressID, order.Status,
		order.TotalAmount, order.DiscountAmount, order.CouponCode)
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", apperr.ErrOrderNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderForUpdate loads an order with a row lock so status checks and the
// later transition happen against a stable row.
func (s *Store) GetOrderForUpdate(ctx context.Context, tx *sqlx.Tx, id int64) (*models.Order, error) {
	var order models.Order
	err := tx.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1 FOR UPDATE", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", apperr.ErrOrderNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// CancelOrder flips an order to CANCELLED. The status guard keeps the
// transition one-shot even if two cancellations race past the row lock.
// Returns false when the order was no longer cancellable.
func (s *Store) CancelOrder(ctx context.Context, tx *sqlx.Tx, orderID int64) (bool, error) {
	res, err := tx.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status IN ($3, $4)",
		models.OrderStatusCancelled, orderID, models.OrderStatusPending, models.OrderStatusProcessing)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// GetOrdersByUserID retrieves orders for a user
func (s *Store) GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return orders, err
}

// CreateOrderItem inserts an order item inside the given transaction.
func (s *Store) CreateOrderItem(ctx context.Context, tx *sqlx.Tx, item *models.OrderItem) error {
	query := `
		INSERT INTO order_items (order_id, product_id, quantity, unit_price, selected_variant)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	return tx.GetContext(ctx, &item.ID, query,
		item.OrderID, item.ProductID, item.Quantity, item.UnitPrice, item.SelectedVariant)
}

// GetOrderItems retrieves all items for an order. Pass a *sqlx.Tx as ext
// to read them inside the cancellation transaction.
func (s *Store) GetOrderItems(ctx context.Context, ext sqlx.ExtContext, orderID int64) ([]models.OrderItem, error) {
	if ext == nil {
		ext = s.db
	}
	var items []models.OrderItem
	err := sqlx.SelectContext(ctx, ext, &items,
		"SELECT * FROM order_items WHERE order_id = $1", orderID)
	return items, err
}
