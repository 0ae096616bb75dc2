package handlers

import (
	"errors"
	"net/http"

	"wine_shop/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// retryAfterSeconds is sent with 503 responses to lock timeouts.
const retryAfterSeconds = "1"

func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var stockErr *services.InsufficientStockError
	var unavailableErr *services.ProductUnavailableError

	switch {
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":     "insufficient stock",
			"wine_id":   stockErr.WineID,
			"requested": stockErr.Requested,
			"available": stockErr.Available,
		})
	case errors.As(err, &unavailableErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "wine is no longer available, remove it from the cart",
			"wine_id": unavailableErr.WineID,
		})
	case errors.Is(err, services.ErrLockTimeout):
		c.Header("Retry-After", retryAfterSeconds)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "checkout is busy, please retry", "retryable": true})
	case errors.Is(err, services.ErrEmptyCart),
		errors.Is(err, services.ErrInvalidCheckout),
		errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrMissingIdentity),
		errors.Is(err, services.ErrInvalidPromotion),
		errors.Is(err, services.ErrNegativeStock):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrDuplicateBatch),
		errors.Is(err, services.ErrCartChanged):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrCartLineNotFound),
		errors.Is(err, services.ErrWineNotFound),
		errors.Is(err, services.ErrBatchNotFound),
		errors.Is(err, services.ErrPromotionNotFound),
		errors.Is(err, services.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
