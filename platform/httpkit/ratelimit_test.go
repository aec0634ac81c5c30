package httpkit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestRateLimitRejectsAfterBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewJobTriggerRateLimiter(nil)
	engine := gin.New()
	engine.POST("/jobs", limiter.RateLimit(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/jobs", nil))
		codes = append(codes, w.Code)
		if w.Code == http.StatusTooManyRequests {
			assert.Equal(t, "5", w.Header().Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{204, 204, 204, 429}, codes)
}

func TestIdleVisitorsAreDropped(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Every(time.Hour), 1, nil)
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.allow("10.0.0.1"))
	assert.False(t, limiter.allow("10.0.0.1"))

	now = now.Add(visitorIdle)
	assert.True(t, limiter.allow("10.0.0.2"))
	assert.NotContains(t, limiter.visitors, "10.0.0.1")
	assert.True(t, limiter.allow("10.0.0.1"))
}
