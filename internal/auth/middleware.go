package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/inventia-erp/inventia/internal/platform/httpx"
	"github.com/inventia-erp/inventia/internal/shared"
)

type roleContextKey struct{}

// RoleFromContext extracts the authenticated role, empty when absent.
func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(roleContextKey{}).(string)
	return role
}

// Middleware authenticates requests via the Authorization bearer token.
type Middleware struct {
	service *Service
}

// NewMiddleware builds the middleware around the auth service.
func NewMiddleware(service *Service) *Middleware {
	return &Middleware{service: service}
}

// Authenticate rejects requests without a valid bearer token and stores the
// user id and role in the request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			httpx.RespondError(w, shared.ErrUnauthorized)
			return
		}
		userID, role, err := m.service.Verify(token)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		ctx := shared.ContextWithUser(r.Context(), userID)
		ctx = context.WithValue(ctx, roleContextKey{}, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects authenticated requests whose role does not match.
func (m *Middleware) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if RoleFromContext(r.Context()) != role {
				httpx.RespondError(w, shared.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
