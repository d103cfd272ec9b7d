package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	APIMaxRequests     = 100
	APIWindow          = time.Minute
	CartMaxAdds        = 20
	CartWindow         = time.Minute
	SearchMaxRequests  = 30
	SearchWindow       = time.Minute
	RegisterMaxCreates = 3
	RegisterWindow     = 30 * time.Minute
)

// Counter is a fixed-window hit counter.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
	TTL(ctx context.Context, key string) time.Duration
}

// RateLimit allows limit requests per window for the key returned by keyFn.
// An empty key skips limiting. Counter failures let the request through.
func RateLimit(counter Counter, prefix string, limit int64, window time.Duration, keyFn func(*gin.Context) string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := keyFn(c)
		if id == "" {
			c.Next()
			return
		}
		key := prefix + ":" + id

		n, err := counter.Hit(c.Request.Context(), key, window)
		if err != nil {
			log.Warn("rate limit counter unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		remaining := limit - n
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.FormatInt(limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if n > limit {
			retry := counter.TTL(c.Request.Context(), key)
			if retry <= 0 {
				retry = window
			}
			c.Header("Retry-After", strconv.Itoa(int(retry.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message":     "Too many requests. Please slow down.",
				"retry_after": int(retry.Seconds()),
			})
			return
		}
		c.Next()
	}
}

func ByIP(c *gin.Context) string { return c.ClientIP() }

func ByUser(c *gin.Context) string { return c.GetString(ContextUserID) }

// APIRateLimit limits every request per client IP.
func APIRateLimit(counter Counter, log *zap.Logger) gin.HandlerFunc {
	return RateLimit(counter, "api_requests", APIMaxRequests, APIWindow, ByIP, log)
}

// CartRateLimit limits cart additions per signed-in user.
func CartRateLimit(counter Counter, log *zap.Logger) gin.HandlerFunc {
	return RateLimit(counter, "cart_add", CartMaxAdds, CartWindow, ByUser, log)
}

func SearchRateLimit(counter Counter, log *zap.Logger) gin.HandlerFunc {
	return RateLimit(counter, "search_requests", SearchMaxRequests, SearchWindow, ByIP, log)
}

// RegisterRateLimit limits account creation per IP.
func RegisterRateLimit(counter Counter, log *zap.Logger) gin.HandlerFunc {
	return RateLimit(counter, "register_attempts", RegisterMaxCreates, RegisterWindow, ByIP, log)
}
