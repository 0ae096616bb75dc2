package handlers

import (
	"net/http"
	"strconv"

	"wine_shop/middleware"
	"wine_shop/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CartHandler struct {
	cartService     *services.CartService
	discountService *services.DiscountService
	logger          *zap.Logger
}

func NewCartHandler(cartService *services.CartService, discountService *services.DiscountService, logger *zap.Logger) *CartHandler {
	return &CartHandler{cartService: cartService, discountService: discountService, logger: logger}
}

type cartItemRequest struct {
	WineID   int64 `json:"wine_id" binding:"required"`
	Quantity int   `json:"quantity" binding:"required"`
}

type quantityRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

type cartItemResponse struct {
	WineID    int64           `json:"wine_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type cartResponse struct {
	ID         *int64                   `json:"id"`
	Items      []cartItemResponse       `json:"items"`
	TotalPrice decimal.Decimal          `json:"total_price"`
	Discount   *services.DiscountResult `json:"discount,omitempty"`
}

// GetCart shows the caller's cart. An optional coupon query parameter
// previews the discount checkout would apply right now.
func (h *CartHandler) GetCart(c *gin.Context) {
	ctx := c.Request.Context()
	identity := middleware.GetIdentity(c)

	resp := cartResponse{Items: []cartItemResponse{}, TotalPrice: decimal.Zero}
	if !identity.IsUser() && !identity.IsGuest() {
		c.JSON(http.StatusOK, resp)
		return
	}

	cart, err := h.cartService.FindCart(ctx, identity)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if cart == nil {
		c.JSON(http.StatusOK, resp)
		return
	}

	lines, err := h.cartService.Lines(ctx, cart.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	resp.ID = &cart.ID
	for _, line := range lines {
		subtotal := line.Subtotal()
		resp.TotalPrice = resp.TotalPrice.Add(subtotal)
		resp.Items = append(resp.Items, cartItemResponse{
			WineID:    line.WineID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Subtotal:  subtotal,
		})
	}

	if len(lines) > 0 {
		discount, err := h.discountService.Evaluate(ctx, lines, identity, c.Query("coupon"))
		if err != nil {
			h.logger.Warn("Discount preview failed", zap.Error(err))
		} else {
			resp.Discount = &discount
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	line, err := h.cartService.AddItem(c.Request.Context(), middleware.GetIdentity(c), req.WineID, req.Quantity)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, line)
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	wineID, err := strconv.ParseInt(c.Param("wine_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wine id"})
		return
	}

	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	line, err := h.cartService.UpdateItemQuantity(c.Request.Context(), middleware.GetIdentity(c), wineID, req.Quantity)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, line)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	wineID, err := strconv.ParseInt(c.Param("wine_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wine id"})
		return
	}

	if err := h.cartService.RemoveItem(c.Request.Context(), middleware.GetIdentity(c), wineID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// MergeCart moves the guest cart named by the session header into the
// authenticated user's cart.
func (h *CartHandler) MergeCart(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	if identity.SessionID == "" {
		c.JSON(http.StatusOK, gin.H{"message": "no session to merge"})
		return
	}

	cart, err := h.cartService.MergeGuestCart(c.Request.Context(), *identity.UserID, identity.SessionID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if cart == nil {
		c.JSON(http.StatusOK, gin.H{"message": "guest cart empty"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "cart merged", "cart_id": cart.ID})
}
