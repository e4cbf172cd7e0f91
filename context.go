package goAuthClient

import "context"

type requestIDContextKey struct{}

// WithRequestID attaches a correlation ID to ctx. The dispatcher stamps it
// into the X-Request-ID header and into audit events; when absent, a fresh
// UUID is generated per call.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, requestID)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	requestID, _ := ctx.Value(requestIDContextKey{}).(string)
	return requestID
}
