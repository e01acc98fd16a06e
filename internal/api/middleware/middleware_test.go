package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// countingCache backs the rate limiter with an in-memory counter.
type countingCache struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func newCountingCache() *countingCache {
	return &countingCache{counts: map[string]int64{}}
}

func (c *countingCache) Ping(context.Context) error { return nil }
func (c *countingCache) SetJobStatus(context.Context, string, string, time.Duration) error {
	return nil
}
func (c *countingCache) GetJobStatus(context.Context, string) (string, bool, error) {
	return "", false, nil
}
func (c *countingCache) DeleteJobStatus(context.Context, string) error { return nil }
func (c *countingCache) IncrWithExpiry(_ context.Context, key string, _ time.Duration) (int64, error) {
	if c.err != nil {
		return 0, c.err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[key]++
	return c.counts[key], nil
}
func (c *countingCache) Close() error { return nil }

func hit(h http.Handler, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitAllowsUnderLimit(t *testing.T) {
	rl := NewRateLimit(newCountingCache(), 3)
	h := rl.Limit(okHandler())

	for i := 0; i < 3; i++ {
		rec := hit(h, "10.0.0.1:1234")
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimitBlocksOverLimit(t *testing.T) {
	rl := NewRateLimit(newCountingCache(), 2)
	h := rl.Limit(okHandler())

	hit(h, "10.0.0.1:1234")
	hit(h, "10.0.0.1:1234")
	rec := hit(h, "10.0.0.1:1234")

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestRateLimitKeysByClientIP(t *testing.T) {
	rl := NewRateLimit(newCountingCache(), 1)
	h := rl.Limit(okHandler())

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2:1234").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1:9999").Code)
}

func TestRateLimitFailsOpenOnCacheError(t *testing.T) {
	c := newCountingCache()
	c.err = assert.AnError
	rl := NewRateLimit(c, 1)
	h := rl.Limit(okHandler())

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1234").Code)
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", clientIP(req))

	req.Header.Del("X-Forwarded-For")
	assert.Equal(t, "10.0.0.9", clientIP(req))
}

func TestLoggerPassesThrough(t *testing.T) {
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := hit(h, "10.0.0.1:1234")
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestLoggerCountsBytes(t *testing.T) {
	var counted int64
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
		w.Write([]byte(" world"))
		counted = w.(*statusRecorder).bytes
	}))
	rec := hit(h, "10.0.0.1:1234")
	assert.Equal(t, "hello world", rec.Body.String())
	assert.Equal(t, int64(len("hello world")), counted)
}

func TestRecoveryConvertsPanic(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := hit(h, "10.0.0.1:1234")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}
