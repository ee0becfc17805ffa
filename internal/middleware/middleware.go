package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/rsvpd/internal/models"
)

// RequestID middleware adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// StructuredLogger provides structured logging middleware
func StructuredLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}

		attrs := []any{
			"request_id", c.GetString("request_id"),
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if user, ok := CurrentUser(c); ok {
			attrs = append(attrs, "user_id", user.UserID)
		}

		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("HTTP Request", attrs...)
			return
		}
		logger.Info("HTTP Request", attrs...)
	}
}

// ErrorHandler logs errors attached with c.Error and answers with a generic
// 500 when the handler has not written a response yet.
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last()
		requestID := c.GetString("request_id")

		logger.Error("Request error",
			"request_id", requestID,
			"error", err.Error(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)

		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, models.InternalErrorResponse(requestID))
		}
	}
}
