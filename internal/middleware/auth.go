package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// BearerToken extracts the credentials of a Bearer Authorization header.
// The scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, bool) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, cred, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	cred = strings.TrimSpace(cred)
	return cred, cred != ""
}

// Auth guards the operator routes with one static token, sent bare or as
// a Bearer token. An empty token locks the routes.
func Auth(token string) func(http.Handler) http.Handler {
	want := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := BearerToken(r)
			if !ok {
				got = strings.TrimSpace(r.Header.Get("Authorization"))
			}
			if len(want) == 0 || got == "" || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				w.Header().Set("WWW-Authenticate", `Bearer realm="operator"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
