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

// GetCouponByCode retrieves a coupon by its unique code.
func (s *Store) GetCouponByCode(ctx context.Context, ext sqlx.ExtContext, code string) (*models.Coupon, error) {
	if ext == nil {
		ext = s.db
	}
	var coupon models.Coupon
	err := sqlx.GetContext(ctx, ext, &coupon, "SELECT * FROM coupons WHERE code = $1", code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", apperr.ErrCouponNotFound, code)
	}
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// ConsumeCouponUsage increments used_count inside the order transaction.
// The usage_limit guard in the WHERE clause keeps used_count <= usage_limit
// under concurrent checkouts. Returns false when the limit is exhausted.
func (s *Store) ConsumeCouponUsage(ctx context.Context, tx *sqlx.Tx, code string) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE coupons SET used_count = used_count + 1
		 WHERE code = $1 AND (usage_limit IS NULL OR used_count < usage_limit)`,
		code)
	if err != nil {
		return false, fmt.Errorf("consume coupon usage: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
