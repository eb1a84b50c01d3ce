package reqid

import (
	"context"

	"github.com/google/uuid"
)

// Header carries a caller-supplied request id.
const Header = "X-Request-Id"

type key struct{}

// NewContext returns a copy of parent carrying a new random request ID,
// together with the ID.
func NewContext(parent context.Context) (context.Context, string) {
	id := uuid.NewString()
	return WithID(parent, id), id
}

// WithID stores id in a copy of parent.
func WithID(parent context.Context, id string) context.Context {
	return context.WithValue(parent, key{}, id)
}

// FromContext extracts the request ID from ctx.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(key{}).(string)
	return id, ok
}
