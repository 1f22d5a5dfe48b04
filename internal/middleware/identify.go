package middleware

import (
	"context"
	"net/http"

	"github.com/lildude/strengthboard/internal/auth"
	"github.com/lildude/strengthboard/internal/model"
	"github.com/lildude/strengthboard/internal/router"
)

// Resolver finds the user behind a request.
type Resolver interface {
	Resolve(ctx context.Context, r *http.Request) *model.User
}

// Identify stores the caller in the request context. Anonymous requests pass
// through unchanged; access rules are enforced per procedure.
func Identify(res Resolver) router.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if u := res.Resolve(r.Context(), r); u != nil {
				r = r.WithContext(auth.WithUser(r.Context(), u))
			}
			next.ServeHTTP(w, r)
		})
	}
}
