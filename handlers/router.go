package handlers

import (
	"net/http"

	"wine_shop/middleware"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Catalog    *CatalogHandler
	Cart       *CartHandler
	Checkout   *CheckoutHandler
	Orders     *OrderHandler
	Inventory  *InventoryHandler
	Promotions *PromotionHandler
}

// RegisterRoutes mounts the API. Identity headers are trusted as set by the
// upstream auth layer; staffRoles gate the admin group.
func RegisterRoutes(r *gin.Engine, h Handlers, staffRoles []string) {
	api := r.Group("/api/v1", middleware.Identity())

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	cart := api.Group("/cart")
	{
		cart.GET("", h.Cart.GetCart)
		cart.POST("/items", h.Cart.AddItem)
		cart.PUT("/items/:wine_id", h.Cart.UpdateItem)
		cart.DELETE("/items/:wine_id", h.Cart.RemoveItem)
		cart.POST("/merge", middleware.RequireUser(), h.Cart.MergeCart)
	}

	api.POST("/checkout", h.Checkout.Checkout)

	orders := api.Group("/orders", middleware.RequireUser())
	{
		orders.GET("", h.Orders.ListMyOrders)
		orders.GET("/:id", h.Orders.GetOrder)
	}

	api.GET("/promotions", h.Promotions.GetActivePromotions)

	admin := api.Group("/admin", middleware.RequireRole(staffRoles...))
	{
		admin.POST("/wines", h.Catalog.CreateWine)
		admin.PATCH("/wines/:id", h.Catalog.UpdateWine)

		admin.PUT("/orders/:id/status", h.Orders.UpdateStatus)

		admin.POST("/inventory/import", h.Inventory.ImportBatch)
		admin.PATCH("/inventory/:id/adjust", h.Inventory.AdjustBatch)
		admin.GET("/inventory/wines/:wine_id", h.Inventory.GetStock)

		admin.POST("/promotions", h.Promotions.CreatePromotion)
		admin.PUT("/promotions/:id", h.Promotions.UpdatePromotion)
		admin.DELETE("/promotions/:id", h.Promotions.DeletePromotion)
	}
}
