package middlewares

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/carebridge/userhub/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

// RateLimit enforces a limiter for a derived key. Limiter backend errors
// (e.g. Redis down) let the request through: rate limiting protects
// availability, it is not an authorization control, so it does not get to
// take the login path down with it.
func RateLimit(l ratelimit.Limiter, keyFn func(*gin.Context) string, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)
		if key == "" {
			// fallback to IP if key cannot be derived
			key = clientIP(c)
		}

		ok, retryAfter, err := l.Allow(c.Request.Context(), key)
		if err != nil {
			log.Warn("rate limiter backend error", "err", err)
			c.Next()
			return
		}

		if !ok {
			secs := int(retryAfter.Seconds())
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "rate_limited",
					"message": "Too many requests. Please try again shortly.",
				},
			})
			return
		}

		c.Next()
	}
}

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

// for authenticated endpoints: rate limit by userID if available
func KeyByUserOrIP(c *gin.Context) string {
	id, ok := UserIDFromContext(c)

	if ok && id != "" {
		return "user:" + id
	}

	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	// Gin's ClientIP respects X-Forwarded-For / X-Real-IP if configured.
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)
	if err == nil && host != "" {
		return host
	}

	return ip
}
