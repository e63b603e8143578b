package oauth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(100, 3, false)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("192.0.2.1"), "request %d within burst", i)
	}
	assert.False(t, rl.Allow("192.0.2.1"), "burst exhausted")

	// Other IPs have their own bucket
	assert.True(t, rl.Allow("192.0.2.2"))

	// Tokens refill at the configured rate
	time.Sleep(50 * time.Millisecond)
	assert.True(t, rl.Allow("192.0.2.1"))
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.1:1234"
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	r.Header.Set("X-Real-IP", "203.0.113.8")

	// Proxy headers are ignored unless explicitly trusted
	assert.Equal(t, "192.0.2.1", getClientIP(r, false))

	assert.Equal(t, "203.0.113.7", getClientIP(r, true))

	r.Header.Del("X-Forwarded-For")
	assert.Equal(t, "203.0.113.8", getClientIP(r, true))

	r.Header.Del("X-Real-IP")
	assert.Equal(t, "192.0.2.1", getClientIP(r, true))
}

func TestExtractIPFromAddr(t *testing.T) {
	assert.Equal(t, "192.0.2.1", extractIPFromAddr("192.0.2.1:8080"))
	assert.Equal(t, "[::1]", extractIPFromAddr("[::1]:8080"))
	assert.Equal(t, "192.0.2.1", extractIPFromAddr("192.0.2.1"))
}

func TestRateLimitMiddleware(t *testing.T) {
	h := newTestHandler(t, func(c *Config) {
		c.RateLimit.Rate = 1
		c.RateLimit.Burst = 2
	})

	var hits int
	wrapped := h.RateLimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/oauth/token", nil)
		req.RemoteAddr = "192.0.2.9:1234"
		wrapped.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/oauth/token", nil)
	req.RemoteAddr = "192.0.2.9:1234"
	wrapped.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, 2, hits)
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	h := newTestHandler(t)

	wrapped := h.RateLimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 20; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/oauth/token", nil)
		req.RemoteAddr = "192.0.2.9:1234"
		wrapped.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}
}
