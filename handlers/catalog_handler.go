package handlers

import (
	"net/http"
	"strconv"

	"wine_shop/models"
	"wine_shop/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	catalogService *services.CatalogService
	logger         *zap.Logger
}

func NewCatalogHandler(catalogService *services.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService, logger: logger}
}

type wineRequest struct {
	Name     string          `json:"name" binding:"required"`
	Price    decimal.Decimal `json:"price"`
	IsActive *bool           `json:"is_active"`
}

func (h *CatalogHandler) CreateWine(c *gin.Context) {
	var req wineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	wine := &models.Wine{Name: req.Name, Price: req.Price, IsActive: req.IsActive == nil || *req.IsActive}
	if err := h.catalogService.CreateWine(c.Request.Context(), wine); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, wine)
}

type wineUpdateRequest struct {
	Price    *decimal.Decimal `json:"price"`
	IsActive *bool            `json:"is_active"`
}

// UpdateWine changes the list price or availability. Existing cart lines keep
// the price they were snapshotted at.
func (h *CatalogHandler) UpdateWine(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req wineUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if req.Price != nil {
		if err := h.catalogService.UpdatePrice(ctx, id, *req.Price); err != nil {
			respondError(c, h.logger, err)
			return
		}
	}
	if req.IsActive != nil {
		if err := h.catalogService.SetActive(ctx, id, *req.IsActive); err != nil {
			respondError(c, h.logger, err)
			return
		}
	}

	wine, err := h.catalogService.GetWine(ctx, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, wine)
}
