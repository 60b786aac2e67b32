package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter enforces a per-client-IP sliding window across the whole
// API. The per-resident issue submission cap lives in issue_limiter.go
// and is Redis-backed; this one is in-memory and protects the server
// itself.
type RateLimiter struct {
	mu      sync.Mutex
	seen    map[string][]time.Time
	limit   int
	window  time.Duration
	nextGC  time.Time
	gcEvery time.Duration
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		seen:    make(map[string][]time.Time),
		limit:   limit,
		window:  window,
		nextGC:  time.Now().Add(5 * time.Minute),
		gcEvery: 5 * time.Minute,
	}
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP(), time.Now()) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(ip string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.After(rl.nextGC) {
		rl.gc(now)
		rl.nextGC = now.Add(rl.gcEvery)
	}

	recent := pruneOlder(rl.seen[ip], now.Add(-rl.window))
	if len(recent) >= rl.limit {
		rl.seen[ip] = recent
		return false
	}

	rl.seen[ip] = append(recent, now)
	return true
}

// gc runs under the mutex, piggybacked on a request instead of a
// background goroutine so an idle server holds no timers.
func (rl *RateLimiter) gc(now time.Time) {
	cutoff := now.Add(-rl.window)
	for ip, stamps := range rl.seen {
		recent := pruneOlder(stamps, cutoff)
		if len(recent) == 0 {
			delete(rl.seen, ip)
			continue
		}
		rl.seen[ip] = recent
	}
}

func pruneOlder(stamps []time.Time, cutoff time.Time) []time.Time {
	kept := stamps[:0]
	for _, t := range stamps {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}
