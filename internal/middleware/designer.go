// Package middleware provides HTTP middlewares for designer authentication,
// request logging and CORS.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/atinyakov/mockshare/internal/ownerauth"
)

type ctxKey string

const designerKey ctxKey = "designer"

// TokenVerifier validates designer bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*ownerauth.Claims, error)
}

// RequireDesigner rejects requests without a valid designer bearer token
// with 401. On success the token subject is stored in the request context.
func RequireDesigner(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := designerClaims(v, r)
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="mockshare"`)
				http.Error(w, "designer authorization required", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(withDesigner(r.Context(), claims.Subject)))
		})
	}
}

// OptionalDesigner marks the request as coming from the designer when a
// valid token is present and passes everything else through unchanged.
// Public routes use it so the designer can skip the viewer password and
// remove any comment.
func OptionalDesigner(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims, ok := designerClaims(v, r); ok {
				r = r.WithContext(withDesigner(r.Context(), claims.Subject))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IsDesigner reports whether the request context carries designer identity.
func IsDesigner(ctx context.Context) bool {
	_, ok := ctx.Value(designerKey).(string)
	return ok
}

// DesignerFromContext returns the designer subject, or "" when absent.
func DesignerFromContext(ctx context.Context) string {
	s, _ := ctx.Value(designerKey).(string)
	return s
}

func withDesigner(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, designerKey, subject)
}

func designerClaims(v TokenVerifier, r *http.Request) (*ownerauth.Claims, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || strings.TrimSpace(token) == "" {
		return nil, false
	}
	claims, err := v.Verify(strings.TrimSpace(token))
	if err != nil {
		return nil, false
	}
	return claims, true
}
