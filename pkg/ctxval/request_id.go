package ctxval

import "context"

type requestIDKey struct{}

// WithRequestID returns ctx carrying the request id propagated to peer calls.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
