package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/policywatch/policywatch-backend/pkg/logger"
)

// RequestLogger returns a gin middleware that logs every request with structured fields
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()[:8]
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		event := logger.GetLogger().Info()
		if status >= 500 {
			event = logger.GetLogger().Error()
		} else if status >= 400 {
			event = logger.GetLogger().Warn()
		}

		event.
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("query", c.Request.URL.RawQuery).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Str("user_id", GetUserID(c)).
			Int("body_size", c.Writer.Size()).
			Msg("request")
	}
}
