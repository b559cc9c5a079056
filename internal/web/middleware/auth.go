package middleware

import (
	"net/http"
)

// Verifier checks a session marker.
type Verifier interface {
	Verify(marker string) bool
}

// RequireAuth is middleware that requires the current session marker.
func RequireAuth(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !v.Verify(MarkerFromRequest(r)) {
				w.Header().Set("Content-Type", "application/json")
				http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
