// Package ratelimit throttles the engine's write paths (Generate,
// Simulate) per caller. The Optimizer runs in-process, so an in-memory
// golang.org/x/time/rate bucket per caller is the right granularity:
// the concern being protected is CPU-bound optimizer work, not a
// shared downstream resource multiple instances would contend on.
package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Limiter hands out one token-bucket limiter per caller identity,
// evicting idle entries so the map does not grow unbounded.
type Limiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	r        rate.Limit
	burst    int
	idleTTL  time.Duration
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New creates a Limiter allowing requestsPerMinute sustained per caller,
// with the given burst capacity.
func New(requestsPerMinute int, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		r:       rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:   burst,
		idleTTL: 10 * time.Minute,
	}
}

func (l *Limiter) allow(callerID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.buckets[callerID]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.r, l.burst)}
		l.buckets[callerID] = b
	}
	b.lastSeen = now
	l.evictIdleLocked(now)
	return b.limiter.Allow()
}

func (l *Limiter) evictIdleLocked(now time.Time) {
	for id, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.idleTTL {
			delete(l.buckets, id)
		}
	}
}

// Middleware applies the per-caller limit to state-changing routes.
// It keys on the authenticated caller identity set by auth.Required,
// falling back to the client IP for unauthenticated requests so the
// bucket always has a key.
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := c.Get(callerIDContextKey)
		callerID, _ := key.(string)
		if !ok || callerID == "" {
			callerID = "ip:" + c.ClientIP()
		}

		if !l.allow(callerID) {
			c.Header("Retry-After", "60")
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "TOO_MANY_REQUESTS",
				"message": "rate limit exceeded for this operation",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// callerIDContextKey mirrors the gin context key auth.Required sets.
const callerIDContextKey = "caller_id"
