package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quillpost/core/internal/pkg/response"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitOptions configures the fixed-window limiter.
type RateLimitOptions struct {
	Max    int
	Window time.Duration
	Logger *zap.Logger
	Now    func() time.Time
}

// RateLimit returns a middleware allowing at most Max anonymous requests per
// client IP in each Window. Authenticated callers are not limited. Redis
// failures let the request through.
func RateLimit(rdb *redis.Client, opts RateLimitOptions) gin.HandlerFunc {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Window <= 0 {
		opts.Window = time.Minute
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		if rdb == nil || opts.Max <= 0 || IsAuthenticated(c) {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		window := opts.Now().UnixNano() / int64(opts.Window)
		key := fmt.Sprintf("blog:rate_limit:%s:%d", ip, window)

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			log.Warn("rate limit unavailable", zap.Error(err))
			c.Next()
			return
		}
		if count == 1 {
			rdb.PExpire(ctx, key, opts.Window+time.Second)
		}

		remaining := int64(opts.Max) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(opts.Max))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(opts.Max) {
			c.Header("Retry-After", strconv.Itoa(int(opts.Window.Seconds())))
			response.TooManyRequests(c)
			return
		}
		c.Next()
	}
}
