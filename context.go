package examAuth

import "context"

type requestIDContextKey struct{}

// WithRequestID attaches a request id to ctx. Transports send it as the
// X-Request-ID of the remote call instead of generating a fresh one, which
// lets an embedding server correlate its own request with the platform's.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, requestID)
}

// RequestIDFromContext returns the request id set by WithRequestID.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id, id != ""
}
