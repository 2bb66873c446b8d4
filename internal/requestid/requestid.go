package requestid

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

const HeaderKey = "X-Request-Id"

type ctxKey struct{}

// Gen generates a new request id.
func Gen() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// WithContext attaches id to ctx.
func WithContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the request id stored in ctx, or "" when none is set.
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
