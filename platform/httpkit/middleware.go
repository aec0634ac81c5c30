package httpkit

import (
	"errors"
	"net/http"
	"time"

	"pestcrm_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderRequestID carries the request ID in both directions.
const HeaderRequestID = "X-Request-ID"

const maxRequestIDLen = 128

// RequestLogger assigns a request ID, then logs the request once it is done.
// Server errors are logged with the cause recorded by HandleError or Fail.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" || len(requestID) > maxRequestIDLen {
			requestID = uuid.NewString()
		}
		c.Header(HeaderRequestID, requestID)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), requestID))

		c.Next()

		reqLog := log.WithContext(c.Request.Context())
		if id, ok := GetIdentity(c); ok {
			reqLog = reqLog.WithUserID(id.UserID().String())
		}

		latencyMs := float64(time.Since(start).Microseconds()) / 1000
		status := c.Writer.Status()
		if status >= http.StatusInternalServerError {
			cause := errors.New(http.StatusText(status))
			if last := c.Errors.Last(); last != nil {
				cause = last.Err
			}
			reqLog.HTTPError(c.Request.Method, path, status, latencyMs, cause, c.ClientIP())
			return
		}
		reqLog.HTTPRequest(c.Request.Method, path, status, latencyMs, c.ClientIP())
	}
}

// SecurityHeaders sets the response headers every API reply carries. HSTS is
// only sent over TLS.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Cache-Control", "no-store")
		if c.Request.TLS != nil {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
