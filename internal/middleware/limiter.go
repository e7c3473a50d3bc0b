package middleware

import (
	"math"
	"strconv"

	"github.com/haierkeys/issue-note-service/pkg/app"
	"github.com/haierkeys/issue-note-service/pkg/code"
	"github.com/haierkeys/issue-note-service/pkg/limiter"

	"github.com/gin-gonic/gin"
)

// RateLimiter 按路由前缀令牌桶限流，超限时带 Retry-After 返回
func RateLimiter(l limiter.Face) gin.HandlerFunc {
	return func(c *gin.Context) {
		bucket, ok := l.GetBucket(l.Key(c))
		if !ok || bucket.TakeAvailable(1) > 0 {
			c.Next()
			return
		}

		// 下一个令牌的等待秒数，至少 1
		retry := 1
		if rate := bucket.Rate(); rate > 0 {
			retry = max(int(math.Ceil(1/rate)), 1)
		}
		c.Header("Retry-After", strconv.Itoa(retry))
		app.NewResponse(c).ToResponse(code.ErrorTooManyRequest.WithDetails(l.Key(c)))
		c.Abort()
	}
}
