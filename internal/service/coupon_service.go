package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tuanphung2005/fluxify-sub001/internal/models"
	"github.com/tuanphung2005/fluxify-sub001/internal/store"
	"github.com/tuanphung2005/fluxify-sub001/internal/util"
)

// Rejection reasons returned to clients.
const (
	CouponReasonNotFound      = "coupon_not_found"
	CouponReasonNotYetValid   = "coupon_not_yet_valid"
	CouponReasonExpired       = "coupon_expired"
	CouponReasonUsageExceeded = "usage_limit_reached"
	CouponReasonMinPurchase   = "min_purchase_not_met"
	CouponReasonWrongVendor   = "coupon_not_valid_for_vendor"
)

// CouponInfo is the coupon summary echoed back on a successful validation.
type CouponInfo struct {
	Code          string `json:"code"`
	DiscountType  string `json:"discount_type"`
	DiscountValue int64  `json:"discount_value"`
}

// CouponValidation is the result of a price-check. It never consumes
// usage; used_count moves only when an order commits.
type CouponValidation struct {
	Valid          bool        `json:"valid"`
	Reason         string      `json:"reason,omitempty"`
	DiscountAmount int64       `json:"discount_amount"`
	Coupon         *CouponInfo `json:"coupon,omitempty"`
}

// CouponService evaluates discount rules statelessly.
type CouponService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewCouponService creates a new coupon service
func NewCouponService(store *store.Store) *CouponService {
	return &CouponService{
		store:  store,
		logger: util.NamedLogger("coupon"),
	}
}

// Validate quotes a discount for a cart total. vendorID scopes the check
// for vendor-bound coupons; pass 0 for a platform-wide quote.
func (s *CouponService) Validate(ctx context.Context, code string, cartTotal int64, vendorID int64) (*CouponValidation, error) {
	ctx, span := util.StartSpan(ctx, "CouponService.Validate")
	defer span.End()

	coupon, err := s.store.GetCouponByCode(ctx, nil, code)
	if err != nil {
		if isNotFound(err) {
			util.CouponValidationsTotal.WithLabelValues("rejected").Inc()
			return &CouponValidation{Valid: false, Reason: CouponReasonNotFound}, nil
		}
		return nil, err
	}

	if reason := rejectCoupon(coupon, cartTotal, vendorID, time.Now()); reason != "" {
		util.CouponValidationsTotal.WithLabelValues("rejected").Inc()
		return &CouponValidation{Valid: false, Reason: reason}, nil
	}

	discount := ComputeDiscount(coupon, cartTotal)
	util.CouponValidationsTotal.WithLabelValues("valid").Inc()

	s.logger.Debug("Coupon validated",
		zap.String("code", coupon.Code),
		zap.Int64("cart_total", cartTotal),
		zap.Int64("discount", discount))

	return &CouponValidation{
		Valid:          true,
		DiscountAmount: discount,
		Coupon: &CouponInfo{
			Code:          coupon.Code,
			DiscountType:  coupon.DiscountType,
			DiscountValue: coupon.DiscountValue,
		},
	}, nil
}

// rejectCoupon runs the rule checks in order and returns the first
// rejection reason, or "" when the coupon applies.
func rejectCoupon(c *models.Coupon, cartTotal, vendorID int64, now time.Time) string {
	if c.ValidFrom.Valid && now.Before(c.ValidFrom.Time) {
		return CouponReasonNotYetValid
	}
	if c.ValidUntil.Valid && now.After(c.ValidUntil.Time) {
		return CouponReasonExpired
	}
	if c.UsageLimit.Valid && c.UsedCount >= c.UsageLimit.Int64 {
		return CouponReasonUsageExceeded
	}
	if c.MinPurchase.Valid && cartTotal < c.MinPurchase.Int64 {
		return CouponReasonMinPurchase
	}
	if c.VendorID.Valid && vendorID != c.VendorID.Int64 {
		return CouponReasonWrongVendor
	}
	return ""
}

// ComputeDiscount applies the coupon's discount rule to a cart total.
// Percentage discounts are capped at MaxDiscount when set. No discount
// ever exceeds the cart total, so the remainder cannot go negative even
// for a percentage value above 100.
func ComputeDiscount(c *models.Coupon, cartTotal int64) int64 {
	var discount int64
	switch c.DiscountType {
	case models.DiscountTypePercentage:
		discount = cartTotal * c.DiscountValue / 100
		if c.MaxDiscount.Valid && discount > c.MaxDiscount.Int64 {
			discount = c.MaxDiscount.Int64
		}
	case models.DiscountTypeFixed:
		discount = c.DiscountValue
	}
	if discount > cartTotal {
		discount = cartTotal
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}
