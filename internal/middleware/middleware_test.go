package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func call(h http.Handler, remote, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remote
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuth(t *testing.T) {
	h := Auth("s3cret")(ok)
	assert.Equal(t, http.StatusNoContent, call(h, "1.1.1.1:1", "s3cret").Code)
	assert.Equal(t, http.StatusNoContent, call(h, "1.1.1.1:1", "Bearer s3cret").Code)
	assert.Equal(t, http.StatusUnauthorized, call(h, "1.1.1.1:1", "Bearer nope").Code)
	assert.Equal(t, http.StatusUnauthorized, call(h, "1.1.1.1:1", "").Code)
}

func TestAuthWithoutTokenRejectsEverything(t *testing.T) {
	h := Auth("")(ok)
	assert.Equal(t, http.StatusUnauthorized, call(h, "1.1.1.1:1", "Bearer ").Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	h := rl.Limit(ok)

	assert.Equal(t, http.StatusNoContent, call(h, "1.1.1.1:1", "").Code)
	assert.Equal(t, http.StatusNoContent, call(h, "1.1.1.1:2", "").Code)
	rec := call(h, "1.1.1.1:3", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "61", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusNoContent, call(h, "2.2.2.2:1", "").Code)

	now = now.Add(time.Minute + time.Second)
	assert.Equal(t, http.StatusNoContent, call(h, "1.1.1.1:4", "").Code)

	rl.cleanup()
	rl.mu.Lock()
	assert.Len(t, rl.visitors, 1)
	rl.mu.Unlock()
}

func TestBearerToken(t *testing.T) {
	for header, want := range map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"Bearer ":      "",
		"abc":          "",
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		got, ok := BearerToken(req)
		assert.Equal(t, want, got, header)
		assert.Equal(t, want != "", ok, header)
	}
}
