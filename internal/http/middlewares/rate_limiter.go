package middlewares

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/bitminerobotics/platform/internal/observability"
	"github.com/bitminerobotics/platform/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

// RateLimit enforces limiter for a derived key. A limiter backend error lets
// the request through; losing Redis must not take login down with it.
func RateLimit(limiter ratelimit.Limiter, keyFn func(*gin.Context) string, prom *observability.Prom, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			key = clientIP(c)
		}

		route := c.FullPath()

		d, err := limiter.Allow(c.Request.Context(), route+"|"+key)
		if err != nil {
			log.WarnContext(c.Request.Context(), "rate limiter unavailable", "route", route, "err", err)
			c.Next()
			return
		}

		if !d.Allowed {
			if prom != nil {
				prom.RateLimitedRequests.WithLabelValues(route).Inc()
			}

			retryAfter := int(math.Ceil(d.RetryAfter.Seconds()))
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			abortError(c, http.StatusTooManyRequests, "rate_limited", "Too many requests. Please try again shortly.")
			return
		}

		c.Next()
	}
}

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

// For authenticated endpoints: rate limit by user id if available
func KeyByUserOrIP(c *gin.Context) string {
	id, ok := UserIDFromContext(c)

	if ok && id != 0 {
		return "user:" + strconv.FormatInt(id, 10)
	}

	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	// gin's ClientIP respects X-Forwarded-For / X-Real-IP when trusted proxies are configured
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}
