package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimit_AllowsBurstUpToRate(t *testing.T) {
	l := NewRateLimit(3)
	for i := 0; i < 3; i++ {
		assert.True(t, l.allow("10.0.0.1"), "request %d within burst", i+1)
	}
	assert.False(t, l.allow("10.0.0.1"), "request beyond burst")
	assert.True(t, l.allow("10.0.0.2"), "limits are per key")
}

func TestRateLimit_RefillsPerMinute(t *testing.T) {
	now := time.Date(2025, 7, 14, 9, 0, 0, 0, time.UTC)
	l := NewRateLimit(60)
	l.now = func() time.Time { return now }

	for i := 0; i < 60; i++ {
		assert.True(t, l.allow("10.0.0.1"))
	}
	assert.False(t, l.allow("10.0.0.1"))

	// 60/min means one token per second; 1.5s buys exactly one more
	// request.
	now = now.Add(1500 * time.Millisecond)
	assert.True(t, l.allow("10.0.0.1"))
	assert.False(t, l.allow("10.0.0.1"))
}

func TestRateLimit_EvictsIdleClients(t *testing.T) {
	now := time.Date(2025, 7, 14, 9, 0, 0, 0, time.UTC)
	l := NewRateLimit(10)
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("10.0.0.1"))
	now = now.Add(idleEviction + time.Minute)
	assert.True(t, l.allow("10.0.0.2"), "new client triggers the sweep")

	l.mu.Lock()
	_, stale := l.clients["10.0.0.1"]
	l.mu.Unlock()
	assert.False(t, stale, "idle client entry evicted")
}

func TestRateLimit_ZeroRateDisables(t *testing.T) {
	l := NewRateLimit(0)
	for i := 0; i < 100; i++ {
		assert.True(t, l.allow("10.0.0.1"))
	}
}

func TestRateLimit_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewRateLimit(1).Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate_limited")
}
