package handlers

import (
	"net/http"

	"wine_shop/middleware"
	"wine_shop/models"
	"wine_shop/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CheckoutHandler struct {
	checkoutService *services.CheckoutService
	logger          *zap.Logger
}

func NewCheckoutHandler(checkoutService *services.CheckoutService, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService, logger: logger}
}

type checkoutRequest struct {
	DeliveryMode    models.DeliveryMode  `json:"delivery_mode"`
	PaymentMethod   models.PaymentMethod `json:"payment_method"`
	ShippingAddress string               `json:"shipping_address" binding:"required"`
	Phone           string               `json:"phone" binding:"required"`
	Note            string               `json:"note"`
	CouponCode      string               `json:"coupon_code"`
}

func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.checkoutService.Checkout(c.Request.Context(), services.CheckoutRequest{
		Identity:        middleware.GetIdentity(c),
		DeliveryMode:    req.DeliveryMode,
		PaymentMethod:   req.PaymentMethod,
		ShippingAddress: req.ShippingAddress,
		Phone:           req.Phone,
		Note:            req.Note,
		CouponCode:      req.CouponCode,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}
