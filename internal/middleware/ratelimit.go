package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/rsvpd/internal/models"
	"golang.org/x/time/rate"
)

const (
	limiterTTL        = 15 * time.Minute
	limiterSweepEvery = 5 * time.Minute
)

// RateLimiter keeps one token bucket per caller. Signed in callers are keyed by
// user id, anonymous ones by client IP.
type RateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	perMinute int
	stop      chan struct{}
	stopOnce  sync.Once
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(perMinute int) *RateLimiter {
	rl := &RateLimiter{
		limiters:  make(map[string]*limiterEntry),
		perMinute: perMinute,
		stop:      make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if user, ok := CurrentUser(c); ok {
			key = "user:" + user.UserID
		}

		if !rl.limiter(key).Allow() {
			c.Header("Retry-After", fmt.Sprintf("%d", rl.retryAfterSeconds()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse("too many requests, slow down"))
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if entry, ok := rl.limiters[key]; ok {
		entry.lastSeen = time.Now()
		return entry.limiter
	}

	interval := time.Minute / time.Duration(rl.perMinute)
	limiter := rate.NewLimiter(rate.Every(interval), rl.perMinute)
	rl.limiters[key] = &limiterEntry{limiter: limiter, lastSeen: time.Now()}
	return limiter
}

func (rl *RateLimiter) retryAfterSeconds() int {
	secs := int((time.Minute / time.Duration(rl.perMinute)).Seconds())
	return max(secs, 1)
}

func (rl *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(limiterSweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep(time.Now())
		case <-rl.stop:
			return
		}
	}
}

// sweep drops buckets not used within limiterTTL of now.
func (rl *RateLimiter) sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, entry := range rl.limiters {
		if now.Sub(entry.lastSeen) > limiterTTL {
			delete(rl.limiters, key)
		}
	}
}

// Stop ends the background sweep.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}
