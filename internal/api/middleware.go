package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tuanphung2005/fluxify-sub001/internal/apperr"
	"github.com/tuanphung2005/fluxify-sub001/internal/ratelimit"
	"github.com/tuanphung2005/fluxify-sub001/internal/util"
)

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}

// rateLimitMiddleware gates an endpoint class behind a fixed-window quota.
// A limiter backend failure fails open: the request proceeds and the
// failure is logged, since blocking all traffic on a counter outage is
// worse than briefly not counting.
func rateLimitMiddleware(limiter ratelimit.Limiter, class string, cfg ratelimit.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		identifier := ratelimit.ClientKey(c.Request)

		result, err := limiter.Allow(c.Request.Context(), class+":"+identifier, cfg)
		if err != nil {
			util.GetLogger().Warn("Rate limiter unavailable",
				zap.String("class", class),
				zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetTime.Unix(), 10))

		if !result.Allowed {
			util.RateLimitRejectionsTotal.WithLabelValues(class).Inc()
			limitErr := &apperr.RateLimitError{
				RetryAfter: result.RetryAfter(time.Now()),
				ResetTime:  result.ResetTime,
			}
			status, message := HTTPStatus(limitErr)
			c.Header("Retry-After", strconv.Itoa(int(limitErr.RetryAfter.Seconds())+1))
			c.AbortWithStatusJSON(status, gin.H{
				"error":      message,
				"reset_time": limitErr.ResetTime.Unix(),
			})
			return
		}

		c.Next()
	}
}
