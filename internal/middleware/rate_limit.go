package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"FluxTube/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

const rateLimitWindow = time.Minute

// RateLimiter 固定窗口限流：每个窗口一个计数key，INCR之后第一次顺便设置过期
type RateLimiter struct {
	rdb   *redis.Client
	limit int64
	now   func() time.Time
}

// rdb为nil或limit<=0时不限流
func NewRateLimiter(rdb *redis.Client, perMinute int64) *RateLimiter {
	return &RateLimiter{rdb: rdb, limit: perMinute, now: time.Now}
}

func (l *RateLimiter) enabled() bool {
	return l != nil && l.rdb != nil && l.limit > 0
}

// Allow 返回这次请求是否放行，以及窗口内还剩多少次
func (l *RateLimiter) Allow(ctx context.Context, subject string) (bool, int64, error) {
	if !l.enabled() {
		return true, 0, nil
	}
	window := l.now().Unix() / int64(rateLimitWindow/time.Second)
	key := fmt.Sprintf("fluxtube:ratelimit:%s:%d", subject, window)

	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, rateLimitWindow+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, 0, err
	}
	count := incr.Val()
	return count <= l.limit, l.limit - count, nil
}

// Middleware 按登录用户限流，未登录的按IP；Redis出错时放行，只记日志
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.enabled() {
			c.Next()
			return
		}
		subject := "ip:" + c.ClientIP()
		if caller, ok := CurrentCaller(c); ok {
			subject = "user:" + strconv.FormatUint(caller.UserID, 10)
		}

		allowed, remaining, err := l.Allow(c.Request.Context(), subject)
		if err != nil {
			logger.Log.WithError(err).WithField("subject", subject).Warn("限流检查失败，放行")
			c.Next()
			return
		}
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.FormatInt(l.limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(rateLimitWindow/time.Second)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "请求过于频繁，请稍后再试"})
			return
		}
		c.Next()
	}
}
