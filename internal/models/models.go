package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// VariantSchema maps option names to their allowed values, e.g.
// {"Size": ["S","M","L"], "Color": ["Red","Blue"]}. Stored as JSONB.
type VariantSchema map[string][]string

func (s VariantSchema) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func (s *VariantSchema) Scan(src interface{}) error {
	if src == nil {
		*s = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unsupported variant schema type %T", src)
	}
	return json.Unmarshal(b, s)
}

// Product represents a catalog product. Stock is authoritative only when
// the product has no variant schema; per-combination stock lives in
// product_variant_stock keyed by canonical variant key.
type Product struct {
	ID            int64         `db:"id" json:"id"`
	VendorID      int64         `db:"vendor_id" json:"vendor_id"`
	SKU           string        `db:"sku" json:"sku"`
	Name          string        `db:"name" json:"name"`
	Price         int64         `db:"price" json:"price"`
	Stock         int           `db:"stock" json:"stock"`
	VariantSchema VariantSchema `db:"variant_schema" json:"variant_schema,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}

// HasVariants reports whether per-combination stock applies.
func (p *Product) HasVariants() bool {
	return len(p.VariantSchema) > 0
}

// VariantStock is one row of the typed (product, variant key) -> quantity
// ledger.
type VariantStock struct {
	ProductID  int64     `db:"product_id" json:"product_id"`
	VariantKey string    `db:"variant_key" json:"variant_key"`
	Quantity   int       `db:"quantity" json:"quantity"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// User is a storefront account. Guest checkout creates one with a
// placeholder credential that cannot be used to log in.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	IsGuest      bool      `db:"is_guest" json:"is_guest"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Address is copied per order; later edits by the user never alter a
// placed order.
type Address struct {
	ID         int64  `db:"id" json:"id"`
	UserID     int64  `db:"user_id" json:"user_id"`
	Recipient  string `db:"recipient" json:"recipient"`
	Line1      string `db:"line1" json:"line1"`
	Line2      string `db:"line2" json:"line2,omitempty"`
	City       string `db:"city" json:"city"`
	PostalCode string `db:"postal_code" json:"postal_code"`
	Country    string `db:"country" json:"country"`
}

// Order statuses. Cancellation is legal only from PENDING or PROCESSING.
const (
	OrderStatusPending    = "PENDING"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusShipped    = "SHIPPED"
	OrderStatusDelivered  = "DELIVERED"
	OrderStatusCancelled  = "CANCELLED"
)

// CancellableStatus reports whether an order in the given status may still
// be cancelled.
func CancellableStatus(status string) bool {
	return status == OrderStatusPending || status == OrderStatusProcessing
}

// Order is a committed checkout. TotalAmount always equals the sum of
// item price snapshots times quantities, minus DiscountAmount.
type Order struct {
	ID             int64          `db:"id" json:"id"`
	UserID         int64          `db:"user_id" json:"user_id"`
	AddressID      int64          `db:"address_id" json:"address_id"`
	Status         string         `db:"status" json:"status"`
	TotalAmount    int64          `db:"total_amount" json:"total_amount"`
	DiscountAmount int64          `db:"discount_amount" json:"discount_amount"`
	CouponCode     sql.NullString `db:"coupon_code" json:"coupon_code,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// OrderItem is immutable after creation. UnitPrice is snapshotted from the
// product's authoritative price at order time, never from client input.
type OrderItem struct {
	ID              int64  `db:"id" json:"id"`
	OrderID         int64  `db:"order_id" json:"order_id"`
	ProductID       int64  `db:"product_id" json:"product_id"`
	Quantity        int    `db:"quantity" json:"quantity"`
	UnitPrice       int64  `db:"unit_price" json:"unit_price"`
	SelectedVariant string `db:"selected_variant" json:"selected_variant,omitempty"`
}

// Coupon discount types.
const (
	DiscountTypePercentage = "PERCENTAGE"
	DiscountTypeFixed      = "FIXED"
)

// Coupon is a discount rule. A null VendorID means platform-wide.
type Coupon struct {
	ID            int64         `db:"id" json:"id"`
	Code          string        `db:"code" json:"code"`
	VendorID      sql.NullInt64 `db:"vendor_id" json:"vendor_id,omitempty"`
	DiscountType  string        `db:"discount_type" json:"discount_type"`
	DiscountValue int64         `db:"discount_value" json:"discount_value"`
	MinPurchase   sql.NullInt64 `db:"min_purchase" json:"min_purchase,omitempty"`
	MaxDiscount   sql.NullInt64 `db:"max_discount" json:"max_discount,omitempty"`
	UsageLimit    sql.NullInt64 `db:"usage_limit" json:"usage_limit,omitempty"`
	UsedCount     int64         `db:"used_count" json:"used_count"`
	ValidFrom     sql.NullTime  `db:"valid_from" json:"valid_from,omitempty"`
	ValidUntil    sql.NullTime  `db:"valid_until" json:"valid_until,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}
