package handlers

import (
	"net/http"
	"strconv"

	"wine_shop/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type InventoryHandler struct {
	inventoryService *services.InventoryService
	logger           *zap.Logger
}

func NewInventoryHandler(inventoryService *services.InventoryService, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService, logger: logger}
}

func (h *InventoryHandler) ImportBatch(c *gin.Context) {
	var req services.BatchImport
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	batch, err := h.inventoryService.ImportBatch(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, batch)
}

type adjustRequest struct {
	Delta int `json:"delta" binding:"required"`
}

func (h *InventoryHandler) AdjustBatch(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req adjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	batch, err := h.inventoryService.AdjustBatch(c.Request.Context(), id, req.Delta)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, batch)
}

func (h *InventoryHandler) GetStock(c *gin.Context) {
	wineID, err := strconv.ParseInt(c.Param("wine_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wine id"})
		return
	}

	ctx := c.Request.Context()
	batches, err := h.inventoryService.ListBatches(ctx, wineID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	available, err := h.inventoryService.Available(ctx, wineID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"wine_id": wineID, "available": available, "batches": batches})
}
