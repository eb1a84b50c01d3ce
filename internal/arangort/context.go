package arangort

import "context"

type contextValueKey struct{}

// WithContextValue stores the value bound to @context in queries run with
// the returned context.
func WithContextValue(ctx context.Context, v any) context.Context {
	return context.WithValue(ctx, contextValueKey{}, v)
}

// ContextValue returns the value stored by WithContextValue, or nil.
func ContextValue(ctx context.Context) any {
	return ctx.Value(contextValueKey{})
}
