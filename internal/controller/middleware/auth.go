// Package middleware contains HTTP middleware for the controller.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"reposched/internal/auth"
	"reposched/pkg/api"
)

// ownerKey is the context key for the owner a request acts for.
type ownerKey struct{}

// AuthMiddleware requires "Authorization: Bearer <token>" matching apiToken.
// An empty apiToken disables the check.
func AuthMiddleware(apiToken string) func(http.Handler) http.Handler {
	expected := ""
	if apiToken != "" {
		expected = auth.HashKey(apiToken)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if expected == "" {
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.Fields(r.Header.Get("Authorization"))
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				unauthorized(w, "Invalid authorization header format")
				return
			}

			if !auth.TokenMatches(parts[1], expected) {
				unauthorized(w, "Invalid API token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// OwnerMiddleware scopes the request to the owner named in the X-Owner-ID
// header. With requireOwner a missing header is rejected; otherwise no
// header means single-user mode, where every job is visible.
func OwnerMiddleware(requireOwner bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner := strings.TrimSpace(r.Header.Get(api.OwnerHeader))
			if owner == "" && requireOwner {
				unauthorized(w, "Missing "+api.OwnerHeader+" header")
				return
			}
			next.ServeHTTP(w, r.WithContext(NewContextWithOwner(r.Context(), owner)))
		})
	}
}

// NewContextWithOwner returns a context carrying owner.
func NewContextWithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

// OwnerFromContext returns the owner of the request, or "" in single-user mode.
func OwnerFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ownerKey{}).(string); ok {
		return v
	}
	return ""
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(api.ErrorResponse{
		Error: message,
		Code:  "401",
	})
}
