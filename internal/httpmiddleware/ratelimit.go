package httpmiddleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// evict client entries untouched this long; keeps the map bounded
// without a background goroutine.
const idleEviction = 10 * time.Minute

// RateLimit is an in-memory per-client token bucket refilling at a
// fixed per-minute rate, with burst capacity equal to that rate.
// State is per process; a multi-instance deployment limits per
// instance.
type RateLimit struct {
	perMinute float64
	now       func() time.Time

	mu      sync.Mutex
	clients map[string]*clientBucket
}

type clientBucket struct {
	tokens float64
	last   time.Time
}

// NewRateLimit creates a limiter allowing perMinute requests per
// client per minute. A non-positive rate disables limiting.
func NewRateLimit(perMinute int) *RateLimit {
	return &RateLimit{
		perMinute: float64(perMinute),
		now:       time.Now,
		clients:   make(map[string]*clientBucket),
	}
}

// Middleware enforces the limit per client IP. Rejections carry a
// Retry-After hint for when the next token arrives.
func (l *RateLimit) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !l.allow(ip) {
			c.Header("Retry-After", strconv.Itoa(l.retryAfter()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
				"code":  "rate_limited",
			})
			return
		}
		c.Next()
	}
}

func (l *RateLimit) allow(key string) bool {
	if l.perMinute <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.clients[key]
	if !ok {
		l.sweep(now)
		b = &clientBucket{tokens: l.perMinute, last: now}
		l.clients[key] = b
	}

	b.tokens += now.Sub(b.last).Minutes() * l.perMinute
	if b.tokens > l.perMinute {
		b.tokens = l.perMinute
	}
	b.last = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// retryAfter is the whole seconds until one token refills, at least 1.
func (l *RateLimit) retryAfter() int {
	secs := int(60 / l.perMinute)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// sweep drops idle client entries. Called with the lock held, only on
// the new-client path so steady traffic never pays for it.
func (l *RateLimit) sweep(now time.Time) {
	for key, b := range l.clients {
		if now.Sub(b.last) > idleEviction {
			delete(l.clients, key)
		}
	}
}
