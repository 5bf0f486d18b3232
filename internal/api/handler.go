package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tuanphung2005/fluxify-sub001/config"
	"github.com/tuanphung2005/fluxify-sub001/internal/apperr"
	"github.com/tuanphung2005/fluxify-sub001/internal/ratelimit"
	"github.com/tuanphung2005/fluxify-sub001/internal/service"
)

// Handler contains HTTP handlers
type Handler struct {
	orderService  *service.OrderService
	couponService *service.CouponService
	limiter       ratelimit.Limiter
	presets       config.RateLimitConfig
}

// NewHandler creates a new HTTP handler
func NewHandler(
	orderService *service.OrderService,
	couponService *service.CouponService,
	limiter ratelimit.Limiter,
	presets config.RateLimitConfig,
) *Handler {
	return &Handler{
		orderService:  orderService,
		couponService: couponService,
		limiter:       limiter,
		presets:       presets,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	checkout := h.limit("checkout", h.presets.Checkout)
	public := h.limit("public", h.presets.Public)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/orders", checkout, h.placeOrder)
		v1.POST("/orders/:id/cancel", checkout, h.cancelOrder)
		v1.GET("/orders/:id", public, h.getOrder)
		v1.GET("/users/:id/orders", public, h.getUserOrders)
		v1.POST("/coupons/validate", public, h.validateCoupon)
	}
}

func (h *Handler) limit(class string, preset config.RateLimitPreset) gin.HandlerFunc {
	return rateLimitMiddleware(h.limiter, class, ratelimit.Config{
		Window:      preset.Window,
		MaxRequests: preset.MaxRequests,
	})
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// placeOrder handles checkout submissions
func (h *Handler) placeOrder(c *gin.Context) {
	var req service.PlaceOrderRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	resp, err := h.orderService.PlaceOrder(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// cancelOrder handles order cancellation. The requester identity comes
// from the upstream session layer via X-User-ID.
func (h *Handler) cancelOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	requesterID, err := strconv.ParseInt(c.GetHeader("X-User-ID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing requester identity"})
		return
	}

	order, err := h.orderService.CancelOrder(c.Request.Context(), orderID, requesterID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// getOrder handles get order by ID
func (h *Handler) getOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	order, items, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": order,
		"items": items,
	})
}

// getUserOrders lists a user's orders, newest first
func (h *Handler) getUserOrders(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	orders, err := h.orderService.GetUserOrders(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

type validateCouponRequest struct {
	Code      string `json:"code" binding:"required"`
	CartTotal int64  `json:"cart_total" binding:"required,min=0"`
	VendorID  int64  `json:"vendor_id"`
}

// validateCoupon quotes a discount without consuming coupon usage
func (h *Handler) validateCoupon(c *gin.Context) {
	var req validateCouponRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	result, err := h.couponService.Validate(c.Request.Context(), req.Code, req.CartTotal, req.VendorID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// writeError maps domain errors to HTTP responses. Internal detail never
// reaches the client; services already logged it.
func (h *Handler) writeError(c *gin.Context, err error) {
	status, message := HTTPStatus(err)
	c.JSON(status, gin.H{"error": message})
}

// HTTPStatus translates the error taxonomy into status codes and
// client-safe messages.
func HTTPStatus(err error) (int, string) {
	var validationErr *apperr.ValidationError
	var stockErr *apperr.InsufficientStockError
	var stateErr *apperr.StateTransitionError
	var limitErr *apperr.RateLimitError

	switch {
	case errors.As(err, &limitErr):
		return http.StatusTooManyRequests, limitErr.Error()
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, validationErr.Error()
	case errors.As(err, &stockErr):
		return http.StatusConflict, stockErr.Error()
	case errors.As(err, &stateErr):
		return http.StatusConflict, stateErr.Error()
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperr.ErrProductNotFound):
		return http.StatusNotFound, "product not found"
	case errors.Is(err, apperr.ErrOrderNotFound):
		return http.StatusNotFound, "order not found"
	case errors.Is(err, apperr.ErrCouponNotFound):
		return http.StatusNotFound, "coupon not found"
	case errors.Is(err, apperr.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
