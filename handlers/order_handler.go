package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"wine_shop/middleware"
	"wine_shop/models"
	"wine_shop/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OrderHandler struct {
	orderService *services.OrderService
	staffRoles   map[string]struct{}
	logger       *zap.Logger
}

func NewOrderHandler(orderService *services.OrderService, staffRoles []string, logger *zap.Logger) *OrderHandler {
	roles := make(map[string]struct{}, len(staffRoles))
	for _, r := range staffRoles {
		roles[strings.ToLower(r)] = struct{}{}
	}
	return &OrderHandler{orderService: orderService, staffRoles: roles, logger: logger}
}

func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	orders, err := h.orderService.ListOrders(c.Request.Context(), *identity.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, orders)
}

// GetOrder serves the owner of the order and staff. Other callers get a 404
// so order ids cannot be probed.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	identity := middleware.GetIdentity(c)
	_, staff := h.staffRoles[strings.ToLower(identity.Role)]
	owner := order.UserID != nil && *order.UserID == *identity.UserID
	if !owner && !staff {
		respondError(c, h.logger, services.ErrOrderNotFound)
		return
	}

	c.JSON(http.StatusOK, order)
}

type statusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orderService.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, order)
}
