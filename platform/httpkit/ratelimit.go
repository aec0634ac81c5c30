package httpkit

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"pestcrm_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// visitorIdle is how long an IP keeps its limiter after its last request.
const visitorIdle = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per client IP. Buckets idle for
// visitorIdle are dropped.
type IPRateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
	log       *logger.Logger
}

func NewIPRateLimiter(limit rate.Limit, burst int, log *logger.Logger) *IPRateLimiter {
	return &IPRateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		burst:    burst,
		now:      time.Now,
		log:      log,
	}
}

// NewJobTriggerRateLimiter allows 12 job triggers per minute per IP with a
// burst of 3.
func NewJobTriggerRateLimiter(log *logger.Logger) *IPRateLimiter {
	return NewIPRateLimiter(rate.Every(5*time.Second), 3, log)
}

func (l *IPRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= visitorIdle {
		for key, v := range l.visitors {
			if now.Sub(v.lastSeen) >= visitorIdle {
				delete(l.visitors, key)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// RateLimit answers 429 once the client IP's bucket is empty.
func (l *IPRateLimiter) RateLimit() gin.HandlerFunc {
	retryAfter := fmt.Sprintf("%.0f", max(1, 1/float64(l.limit)))
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !l.allow(ip) {
			if l.log != nil {
				l.log.RateLimitExceeded(ip, c.Request.URL.Path)
			}
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
