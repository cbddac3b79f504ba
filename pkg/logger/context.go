package logger

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const contextKey = "logger"

// FromContext retrieves the request logger from the Echo context
func FromContext(c echo.Context) *zap.Logger {
	if l, ok := c.Get(contextKey).(*zap.Logger); ok {
		return l
	}
	return GetLogger()
}

// WithLogger stores a request-scoped logger on the Echo context
func WithLogger(c echo.Context, l *zap.Logger) {
	c.Set(contextKey, l)
}
