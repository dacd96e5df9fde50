package middleware

import (
	"context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
)

const (
	ContextKeyRequestID string = "requestID"
	ContextKeySessionID string = "sessionID"
	ContextKeyHandler   string = "handler"
)

const HeaderXRequestID = "X-Request-ID"

type requestIDContextKey struct{}

// RequestIDContextKey is the key under which the request ID is stored in the
// request's context.Context, for outbound clients that forward it.
var RequestIDContextKey = requestIDContextKey{} //nolint:gochecknoglobals

func GetRequestID(c *echo.Context) string {
	if requestID, ok := c.Get(ContextKeyRequestID).(string); ok {
		return requestID
	}

	return uuid.NewString()
}

func GetSessionID(c *echo.Context) string {
	if sessionID, ok := c.Get(ContextKeySessionID).(string); ok {
		return sessionID
	}

	return ""
}

func GetHandler(c *echo.Context) string {
	if handler, ok := c.Get(ContextKeyHandler).(string); ok {
		return handler
	}

	return ""
}

func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDContextKey).(string); ok {
		return requestID
	}

	return ""
}
