package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/rsvpd/internal/helpers"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2)
	defer rl.Stop()

	r := gin.New()
	r.POST("/enhance", OptionalAuth(helpers.NewJWTVerifier(testSecret, "")), rl.Middleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	do := func(sub string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/enhance", nil)
		if sub != "" {
			req.Header.Set("Authorization", "Bearer "+signToken(t, sub, time.Hour))
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, do("u1").Code)
	assert.Equal(t, http.StatusOK, do("u1").Code)
	limited := do("u1")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "30", limited.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, do("u2").Code, "buckets are per user")
	assert.Equal(t, http.StatusOK, do("").Code, "anonymous callers are keyed by ip")
}

func TestRateLimiter_SweepDropsIdleEntries(t *testing.T) {
	rl := NewRateLimiter(5)
	defer rl.Stop()

	rl.limiter("user:a")
	rl.limiter("user:b")
	rl.mu.Lock()
	rl.limiters["user:a"].lastSeen = time.Now().Add(-limiterTTL - time.Minute)
	rl.mu.Unlock()

	rl.sweep(time.Now())

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.limiters, "user:a")
	assert.Contains(t, rl.limiters, "user:b")
}
