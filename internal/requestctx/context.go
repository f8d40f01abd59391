package requestctx

import (
	"context"
	"errors"
)

// Key for request scoped values in context
type contextKey string

const (
	requestIDKey contextKey = "requestID"
	clientIPKey  contextKey = "clientIP"
	adminKey     contextKey = "adminSubject"
)

// ErrNoRequestIDInContext is returned when no request ID is found in context
var ErrNoRequestIDInContext = errors.New("no request ID found in context")

// ErrNoAdminInContext is returned when the request was not authenticated as admin
var ErrNoAdminInContext = errors.New("no admin subject found in context")

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// FromRequestIDContext extracts the request ID from the context
func FromRequestIDContext(ctx context.Context) (string, error) {
	requestID, ok := ctx.Value(requestIDKey).(string)
	if !ok || requestID == "" {
		return "", ErrNoRequestIDInContext
	}
	return requestID, nil
}

// WithClientIP records the caller address resolved by the HTTP layer.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIP returns the caller address or "unknown".
func ClientIP(ctx context.Context) string {
	ip, ok := ctx.Value(clientIPKey).(string)
	if !ok || ip == "" {
		return "unknown"
	}
	return ip
}

// WithAdmin marks the context as authenticated for admin-only services.
func WithAdmin(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, adminKey, subject)
}

// AdminFromContext returns the authenticated admin subject.
func AdminFromContext(ctx context.Context) (string, error) {
	subject, ok := ctx.Value(adminKey).(string)
	if !ok || subject == "" {
		return "", ErrNoAdminInContext
	}
	return subject, nil
}
