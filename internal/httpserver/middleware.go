package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront-api/internal/domain"
	authsvc "storefront-api/internal/service/auth"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "user_role"
)

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if id, ok := c.Get(ctxUserID); ok {
			fields = append(fields, zap.Int64("user_id", int64(id.(domain.ID))))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("http request", fields...)
			return
		}
		logger.Info("http request", fields...)
	}
}

type tokenVerifier interface {
	Verify(token string) (authsvc.Claims, error)
}

// authMiddleware requires a valid bearer token and stores the caller's
// id and role on the context.
func authMiddleware(v tokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, raw, ok := strings.Cut(header, " ")
		raw = strings.TrimSpace(raw)
		if !ok || !strings.EqualFold(scheme, "Bearer") || raw == "" {
			respondError(c, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
			return
		}
		claims, err := v.Verify(raw)
		if err != nil {
			respondError(c, http.StatusUnauthorized, "Unauthorized", err.Error())
			return
		}
		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

func requireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxRole) != role {
			respondError(c, http.StatusForbidden, "Forbidden", domain.ErrForbidden.Error())
			return
		}
		c.Next()
	}
}

// currentUser returns the id stored by authMiddleware.
func currentUser(c *gin.Context) domain.ID {
	v, _ := c.Get(ctxUserID)
	id, _ := v.(domain.ID)
	return id
}
