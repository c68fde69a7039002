package slogging

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDKey is the gin context key holding the per-request correlation ID
const RequestIDKey = "request_id"

// ContextLogger wraps the global logger with per-request fields
type ContextLogger struct {
	logger    *Logger
	requestID string
	path      string
}

// GetContextLogger returns a logger carrying the request ID and path from the
// gin context. A request ID is assigned if none is present.
func GetContextLogger(c *gin.Context) *ContextLogger {
	requestID := c.GetString(RequestIDKey)
	if requestID == "" {
		requestID = uuid.New().String()
		c.Set(RequestIDKey, requestID)
	}
	return &ContextLogger{
		logger:    Get(),
		requestID: requestID,
		path:      c.Request.URL.Path,
	}
}

// WithContext is an alias of GetContextLogger kept for call-site readability
func (l *Logger) WithContext(c *gin.Context) *ContextLogger {
	return GetContextLogger(c)
}

func (cl *ContextLogger) prefix(format string) string {
	return format + " request_id=" + cl.requestID + " path=" + cl.path
}

// Debug logs debug level messages with request context
func (cl *ContextLogger) Debug(format string, args ...any) {
	cl.logger.Debug(cl.prefix(format), args...)
}

// Info logs info level messages with request context
func (cl *ContextLogger) Info(format string, args ...any) {
	cl.logger.Info(cl.prefix(format), args...)
}

// Warn logs warning level messages with request context
func (cl *ContextLogger) Warn(format string, args ...any) {
	cl.logger.Warn(cl.prefix(format), args...)
}

// Error logs error level messages with request context
func (cl *ContextLogger) Error(format string, args ...any) {
	cl.logger.Error(cl.prefix(format), args...)
}
