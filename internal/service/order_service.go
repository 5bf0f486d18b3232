package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/tuanphung2005/fluxify-sub001/internal/apperr"
	"github.com/tuanphung2005/fluxify-sub001/internal/broker"
	"github.com/tuanphung2005/fluxify-sub001/internal/models"
	"github.com/tuanphung2005/fluxify-sub001/internal/store"
	"github.com/tuanphung2005/fluxify-sub001/internal/util"
	"github.com/tuanphung2005/fluxify-sub001/internal/variant"
)

// OrderService coordinates order placement and cancellation. Each
// operation is one database transaction: user resolution, address
// persistence, re-pricing, stock adjustment, and the order write all
// commit or roll back together.
type OrderService struct {
	store          *store.Store
	ledger         *StockLedger
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(store *store.Store, ledger *StockLedger, eventPublisher *broker.EventPublisher) *OrderService {
	return &OrderService{
		store:          store,
		ledger:         ledger,
		eventPublisher: eventPublisher,
		logger:         util.NamedLogger("order"),
	}
}

// PlaceOrderRequest represents a checkout submission. Item prices are
// informational only; totals always come from the store's current prices.
type PlaceOrderRequest struct {
	Email      string             `json:"email" binding:"required,email"`
	Items      []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	Address    AddressRequest     `json:"address" binding:"required"`
	CouponCode string             `json:"coupon_code,omitempty"`
}

// OrderItemRequest represents one cart line.
type OrderItemRequest struct {
	ProductID int64             `json:"product_id" binding:"required"`
	Quantity  int               `json:"quantity" binding:"required,min=1"`
	Price     int64             `json:"price"`
	Variant   map[string]string `json:"variant,omitempty"`
}

// AddressRequest is the shipping address submitted with the order.
type AddressRequest struct {
	Recipient  string `json:"recipient" binding:"required"`
	Line1      string `json:"line1" binding:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" binding:"required"`
	PostalCode string `json:"postal_code" binding:"required"`
	Country    string `json:"country" binding:"required"`
}

// PlaceOrderResponse returns the committed order with its items.
type PlaceOrderResponse struct {
	Order *models.Order      `json:"order"`
	Items []models.OrderItem `json:"items"`
}

// PlaceOrder turns a cart into a committed order. All items share one
// transaction: if any product is missing, any variant key is invalid, or
// any stock guard rejects, nothing is written.
func (s *OrderService) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*PlaceOrderResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.PlaceOrder")
	defer span.End()

	start := time.Now()
	defer func() {
		util.OrderPlacementLatency.Observe(time.Since(start).Seconds())
	}()

	var (
		order      models.Order
		orderItems []models.OrderItem
	)

	err := s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		// Guest accounts get a placeholder credential that no login
		// path will ever hash-match.
		user, err := s.store.UpsertUserByEmail(ctx, tx, req.Email, "guest:"+uuid.NewString(), true)
		if err != nil {
			return apperr.Internal(err)
		}

		addr := models.Address{
			UserID:     user.ID,
			Recipient:  req.Address.Recipient,
			Line1:      req.Address.Line1,
			Line2:      req.Address.Line2,
			City:       req.Address.City,
			PostalCode: req.Address.PostalCode,
			Country:    req.Address.Country,
		}
		if err := s.store.CreateAddress(ctx, tx, &addr); err != nil {
			return apperr.Internal(err)
		}

		products := make(map[int64]*models.Product, len(req.Items))
		vendorIDs := make(map[int64]struct{})
		orderItems = orderItems[:0]

		for _, item := range req.Items {
			product, err := s.store.GetProductByID(ctx, tx, item.ProductID)
			if err != nil {
				return err
			}
			products[product.ID] = product
			vendorIDs[product.VendorID] = struct{}{}

			key, err := s.resolveVariantKey(product, item.Variant)
			if err != nil {
				return err
			}

			available, err := s.ledger.Resolve(ctx, tx, product, key)
			if err != nil {
				return apperr.Internal(err)
			}
			if item.Quantity > available {
				return &apperr.InsufficientStockError{
					ProductID:   product.ID,
					ProductName: product.Name,
					VariantKey:  key,
					Requested:   item.Quantity,
				}
			}

			if err := s.ledger.Decrement(ctx, tx, product, key, item.Quantity); err != nil {
				return err
			}

			orderItems = append(orderItems, models.OrderItem{
				ProductID:       product.ID,
				Quantity:        item.Quantity,
				UnitPrice:       product.Price,
				SelectedVariant: key,
			})
		}

		grossTotal := calculateTotal(req.Items, products)

		var discount int64
		if req.CouponCode != "" {
			discount, err = s.applyCoupon(ctx, tx, req.CouponCode, grossTotal, vendorIDs)
			if err != nil {
				return err
			}
		}

		order = models.Order{
			UserID:         user.ID,
			AddressID:      addr.ID,
			Status:         models.OrderStatusProcessing,
			TotalAmount:    grossTotal - discount,
			DiscountAmount: discount,
		}
		if req.CouponCode != "" {
			order.CouponCode = sql.NullString{String: req.CouponCode, Valid: true}
		}
		if err := s.store.CreateOrder(ctx, tx, &order); err != nil {
			return apperr.Internal(err)
		}

		for i := range orderItems {
			orderItems[i].OrderID = order.ID
			if err := s.store.CreateOrderItem(ctx, tx, &orderItems[i]); err != nil {
				return apperr.Internal(err)
			}
		}
		return nil
	})
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}

	util.OrdersPlacedTotal.Inc()
	s.logger.Info("Order placed",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", order.UserID),
		zap.Int64("total", order.TotalAmount))

	s.publishOrderPlaced(ctx, &order, orderItems)

	return &PlaceOrderResponse{Order: &order, Items: orderItems}, nil
}

// calculateTotal sums the cart from the store's authoritative prices.
// The client-submitted item price never enters this computation.
func calculateTotal(items []OrderItemRequest, products map[int64]*models.Product) int64 {
	var total int64
	for _, item := range items {
		total += products[item.ProductID].Price * int64(item.Quantity)
	}
	return total
}

// resolveVariantKey canonicalizes the client's selections through the
// codec and checks them against the product's declared schema, so client
// and server encodings cannot drift.
func (s *OrderService) resolveVariantKey(product *models.Product, selections map[string]string) (string, error) {
	if !product.HasVariants() {
		return "", nil
	}
	if len(selections) == 0 {
		return "", &apperr.ValidationError{Field: "variant", Reason: "selection required for this product"}
	}
	key := variant.GenerateKey(selections)
	if !variant.Matches(key, product.VariantSchema) {
		return "", &apperr.ValidationError{Field: "variant", Reason: "selection not allowed by product schema"}
	}
	return key, nil
}

// applyCoupon re-validates the coupon inside the placement transaction and
// consumes one usage under the usage_limit guard. Price-check validations
// never reach this path, so they cannot exhaust a coupon.
func (s *OrderService) applyCoupon(ctx context.Context, tx *sqlx.Tx, code string, cartTotal int64, vendorIDs map[int64]struct{}) (int64, error) {
	coupon, err := s.store.GetCouponByCode(ctx, tx, code)
	if err != nil {
		if isNotFound(err) {
			return 0, &apperr.ValidationError{Field: "coupon_code", Reason: CouponReasonNotFound}
		}
		return 0, apperr.Internal(err)
	}

	if coupon.VendorID.Valid {
		for id := range vendorIDs {
			if id != coupon.VendorID.Int64 {
				return 0, &apperr.ValidationError{Field: "coupon_code", Reason: CouponReasonWrongVendor}
			}
		}
	}
	if reason := rejectCoupon(coupon, cartTotal, coupon.VendorID.Int64, time.Now()); reason != "" {
		return 0, &apperr.ValidationError{Field: "coupon_code", Reason: reason}
	}

	consumed, err := s.store.ConsumeCouponUsage(ctx, tx, code)
	if err != nil {
		return 0, apperr.Internal(err)
	}
	if !consumed {
		return 0, &apperr.ValidationError{Field: "coupon_code", Reason: CouponReasonUsageExceeded}
	}

	return ComputeDiscount(coupon, cartTotal), nil
}

// CancelOrder compensates a placed order: ownership and status are
// verified, stock is restored by the exact quantities originally
// decremented, and the status flips to CANCELLED, all in one
// transaction, so no reader ever sees one without the other.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, requesterID int64) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CancelOrder")
	defer span.End()

	var (
		order *models.Order
		items []models.OrderItem
	)

	err := s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		order, err = s.store.GetOrderForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}

		if order.UserID != requesterID {
			return apperr.ErrForbidden
		}
		if !models.CancellableStatus(order.Status) {
			return &apperr.StateTransitionError{
				OrderID: order.ID,
				From:    order.Status,
				To:      models.OrderStatusCancelled,
			}
		}

		items, err = s.store.GetOrderItems(ctx, tx, orderID)
		if err != nil {
			return apperr.Internal(err)
		}

		for _, item := range items {
			if err := s.ledger.Increment(ctx, tx, item.ProductID, item.SelectedVariant, item.Quantity); err != nil {
				return apperr.Internal(err)
			}
		}

		flipped, err := s.store.CancelOrder(ctx, tx, orderID)
		if err != nil {
			return apperr.Internal(err)
		}
		if !flipped {
			return &apperr.StateTransitionError{
				OrderID: order.ID,
				From:    order.Status,
				To:      models.OrderStatusCancelled,
			}
		}
		order.Status = models.OrderStatusCancelled
		return nil
	})
	if err != nil {
		return nil, err
	}

	util.OrdersCancelledTotal.Inc()
	s.logger.Info("Order cancelled",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", order.UserID))

	s.publishOrderCancelled(ctx, order, items)

	return order, nil
}

// GetOrder retrieves an order by ID
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*models.Order, []models.OrderItem, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	items, err := s.store.GetOrderItems(ctx, nil, orderID)
	if err != nil {
		return nil, nil, err
	}

	return order, items, nil
}

// GetUserOrders retrieves all orders for a user
func (s *OrderService) GetUserOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	return s.store.GetOrdersByUserID(ctx, userID)
}

func (s *OrderService) publishOrderPlaced(ctx context.Context, order *models.Order, items []models.OrderItem) {
	if s.eventPublisher == nil {
		return
	}
	event := &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderPlaced,
			Timestamp: time.Now(),
		},
		OrderID:        order.ID,
		UserID:         order.UserID,
		TotalAmount:    order.TotalAmount,
		DiscountAmount: order.DiscountAmount,
		Items:          eventItems(items),
	}
	if err := s.eventPublisher.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event", zap.Error(err))
	}
}

func (s *OrderService) publishOrderCancelled(ctx context.Context, order *models.Order, items []models.OrderItem) {
	if s.eventPublisher == nil {
		return
	}
	event := &models.OrderCancelledEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderCancelled,
			Timestamp: time.Now(),
		},
		OrderID: order.ID,
		UserID:  order.UserID,
		Items:   eventItems(items),
	}
	if err := s.eventPublisher.PublishOrderCancelled(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCancelled event", zap.Error(err))
	}
}

func eventItems(items []models.OrderItem) []models.OrderItemData {
	out := make([]models.OrderItemData, 0, len(items))
	for _, item := range items {
		out = append(out, models.OrderItemData{
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			SelectedVariant: item.SelectedVariant,
		})
	}
	return out
}

// failureReason buckets placement failures for metrics.
func failureReason(err error) string {
	var insufficientErr *apperr.InsufficientStockError
	var validationErr *apperr.ValidationError
	switch {
	case errors.As(err, &insufficientErr):
		return "insufficient_stock"
	case errors.As(err, &validationErr):
		return "validation"
	case isNotFound(err):
		return "not_found"
	default:
		return "internal"
	}
}
