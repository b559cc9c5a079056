package middleware

import (
	"net/http"
	"strings"
	"time"
)

const (
	sessionCookieName = "face_compare_session"
	sessionDuration   = 24 * time.Hour
)

// SetSessionCookie sets the session cookie carrying marker on the response.
func SetSessionCookie(w http.ResponseWriter, r *http.Request, marker string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    marker,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionDuration.Seconds()),
	})
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// MarkerFromRequest extracts the session marker from the cookie or from a
// bearer Authorization header.
func MarkerFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	if marker, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		return strings.TrimSpace(marker)
	}
	return ""
}
