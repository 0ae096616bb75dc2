package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"wine_shop/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderUserID    = "X-User-ID"
	HeaderUserRole  = "X-User-Role"
	HeaderSessionID = "X-Session-ID"

	identityKey  = "identity"
	requestIDKey = "request_id"
)

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(requestIDKey)))
	}
}

// Identity reads the caller identity established by the upstream auth layer.
// A malformed user id is rejected; no identity at all is allowed through.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		var identity models.Identity
		if raw := strings.TrimSpace(c.GetHeader(HeaderUserID)); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
				return
			}
			identity.UserID = &id
			identity.Role = strings.TrimSpace(c.GetHeader(HeaderUserRole))
		}
		identity.SessionID = strings.TrimSpace(c.GetHeader(HeaderSessionID))
		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireUser rejects callers without an authenticated user id.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetIdentity(c).IsUser() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// RequireRole rejects users whose role is not in roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[strings.ToLower(r)] = struct{}{}
	}
	return func(c *gin.Context) {
		identity := GetIdentity(c)
		if !identity.IsUser() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if _, ok := allowed[strings.ToLower(identity.Role)]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
			return
		}
		c.Next()
	}
}

func GetIdentity(c *gin.Context) models.Identity {
	if v, ok := c.Get(identityKey); ok {
		if identity, ok := v.(models.Identity); ok {
			return identity
		}
	}
	return models.Identity{}
}
