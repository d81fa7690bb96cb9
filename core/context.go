package core

import "context"

// Context keys for review options
type contextKey string

const (
	suppressHeaderKey contextKey = "suppressHeader"
	runUUIDKey        contextKey = "runUUID"
)

// WithSuppressHeader marks the context so passes do not print headers.
// The MCP server uses this to keep stdio clean.
func WithSuppressHeader(ctx context.Context) context.Context {
	return context.WithValue(ctx, suppressHeaderKey, true)
}

// shouldSuppressHeader returns whether headers should be suppressed from context
func shouldSuppressHeader(ctx context.Context) bool {
	val := ctx.Value(suppressHeaderKey)
	if val == nil {
		return false // default: show headers
	}
	suppress, ok := val.(bool)
	return ok && suppress
}

// withRunUUID stores the tracking run UUID of a review in the context
func withRunUUID(ctx context.Context, runUUID string) context.Context {
	return context.WithValue(ctx, runUUIDKey, runUUID)
}

// getRunUUID returns the tracking run UUID from context
func getRunUUID(ctx context.Context) (string, bool) {
	val := ctx.Value(runUUIDKey)
	if val == nil {
		return "", false
	}
	runUUID, ok := val.(string)
	return runUUID, ok && runUUID != ""
}
