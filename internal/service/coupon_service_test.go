package service

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tuanphung2005/fluxify-sub001/internal/models"
)

func fixedCoupon(value int64) *models.Coupon {
	return &models.Coupon{
		Code:          "FIXED",
		DiscountType:  models.DiscountTypeFixed,
		DiscountValue: value,
	}
}

func TestComputeDiscountFixedCappedAtCartTotal(t *testing.T) {
	coupon := fixedCoupon(20)

	assert.Equal(t, int64(15), ComputeDiscount(coupon, 15))
	assert.Equal(t, int64(20), ComputeDiscount(coupon, 100))
}

func TestComputeDiscountPercentageWithCap(t *testing.T) {
	coupon := &models.Coupon{
		Code:          "HALF",
		DiscountType:  models.DiscountTypePercentage,
		DiscountValue: 50,
		MaxDiscount:   sql.NullInt64{Int64: 30, Valid: true},
	}

	// 50% of 100 is 50, but the cap wins.
	assert.Equal(t, int64(30), ComputeDiscount(coupon, 100))

	// Below the cap the raw percentage applies.
	assert.Equal(t, int64(20), ComputeDiscount(coupon, 40))
}

func TestComputeDiscountPercentageWithoutCap(t *testing.T) {
	coupon := &models.Coupon{
		DiscountType:  models.DiscountTypePercentage,
		DiscountValue: 10,
	}

	assert.Equal(t, int64(25), ComputeDiscount(coupon, 250))
}

func TestComputeDiscountPercentageOverHundredCappedAtCartTotal(t *testing.T) {
	coupon := &models.Coupon{
		DiscountType:  models.DiscountTypePercentage,
		DiscountValue: 150,
	}

	// A misconfigured percentage above 100 can wipe out the total but
	// never push it negative.
	assert.Equal(t, int64(100), ComputeDiscount(coupon, 100))
}

func TestComputeDiscountNeverNegative(t *testing.T) {
	assert.Equal(t, int64(0), ComputeDiscount(fixedCoupon(20), 0))
}

func TestRejectCouponValidityWindow(t *testing.T) {
	now := time.Now()
	coupon := fixedCoupon(10)
	coupon.ValidFrom = sql.NullTime{Time: now.Add(time.Hour), Valid: true}

	assert.Equal(t, CouponReasonNotYetValid, rejectCoupon(coupon, 100, 0, now))

	coupon.ValidFrom = sql.NullTime{Time: now.Add(-2 * time.Hour), Valid: true}
	coupon.ValidUntil = sql.NullTime{Time: now.Add(-time.Hour), Valid: true}

	assert.Equal(t, CouponReasonExpired, rejectCoupon(coupon, 100, 0, now))
}

func TestRejectCouponUsageLimit(t *testing.T) {
	coupon := fixedCoupon(10)
	coupon.UsageLimit = sql.NullInt64{Int64: 3, Valid: true}
	coupon.UsedCount = 3

	assert.Equal(t, CouponReasonUsageExceeded, rejectCoupon(coupon, 100, 0, time.Now()))

	coupon.UsedCount = 2
	assert.Equal(t, "", rejectCoupon(coupon, 100, 0, time.Now()))
}

func TestRejectCouponMinPurchase(t *testing.T) {
	coupon := fixedCoupon(10)
	coupon.MinPurchase = sql.NullInt64{Int64: 50, Valid: true}

	assert.Equal(t, CouponReasonMinPurchase, rejectCoupon(coupon, 49, 0, time.Now()))
	assert.Equal(t, "", rejectCoupon(coupon, 50, 0, time.Now()))
}

func TestRejectCouponVendorScope(t *testing.T) {
	coupon := fixedCoupon(10)
	coupon.VendorID = sql.NullInt64{Int64: 7, Valid: true}

	assert.Equal(t, CouponReasonWrongVendor, rejectCoupon(coupon, 100, 3, time.Now()))
	assert.Equal(t, "", rejectCoupon(coupon, 100, 7, time.Now()))
}
