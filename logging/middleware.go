package logging

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	loggerKey       = "logger"
)

// Middleware tags each request with an id and logs its completion. 4xx log at warn, 5xx at error.
func Middleware(logger *Logger) gin.HandlerFunc {
	httpLogger := logger.WithComponent(ComponentHTTP)
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)
		c.Set(loggerKey, httpLogger.With(FieldRequestID, requestID))

		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}

		args := []any{
			FieldRequestID, requestID,
			FieldMethod, c.Request.Method,
			FieldPath, c.Request.URL.Path,
			FieldQuery, c.Request.URL.RawQuery,
			FieldStatusCode, status,
			FieldDuration, time.Since(start).Milliseconds(),
			FieldClientIP, c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			args = append(args, FieldError, c.Errors.String())
		}
		httpLogger.Log(c.Request.Context(), level, "HTTP request completed", args...)
	}
}

// FromContext returns the request logger stored by Middleware, or fallback.
func FromContext(c *gin.Context, fallback *Logger) *Logger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(*Logger); ok {
			return l
		}
	}
	return fallback
}
