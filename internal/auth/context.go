package auth

import (
	"context"

	"github.com/lildude/strengthboard/internal/model"
)

type ctxKey struct{}

var userKey ctxKey

// WithUser returns a context carrying the resolved user.
func WithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the resolved user, or nil for anonymous callers.
func UserFromContext(ctx context.Context) *model.User {
	u, _ := ctx.Value(userKey).(*model.User)
	return u
}
