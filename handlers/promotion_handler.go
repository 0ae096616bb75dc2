package handlers

import (
	"net/http"
	"strconv"

	"wine_shop/models"
	"wine_shop/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PromotionHandler struct {
	discountService *services.DiscountService
	logger          *zap.Logger
}

func NewPromotionHandler(discountService *services.DiscountService, logger *zap.Logger) *PromotionHandler {
	return &PromotionHandler{discountService: discountService, logger: logger}
}

func (h *PromotionHandler) CreatePromotion(c *gin.Context) {
	var promo models.Promotion
	if err := c.ShouldBindJSON(&promo); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.discountService.CreatePromotion(c.Request.Context(), &promo); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, promo)
}

func (h *PromotionHandler) UpdatePromotion(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var promo models.Promotion
	if err := c.ShouldBindJSON(&promo); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.discountService.UpdatePromotion(c.Request.Context(), id, &promo); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, promo)
}

func (h *PromotionHandler) DeletePromotion(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.discountService.DeletePromotion(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *PromotionHandler) GetActivePromotions(c *gin.Context) {
	promos, err := h.discountService.ListActivePromotions(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, promos)
}
