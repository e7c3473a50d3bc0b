package middleware

import (
	"crypto/subtle"

	"github.com/haierkeys/issue-note-service/pkg/app"
	"github.com/haierkeys/issue-note-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// SimpleAuthTokenWithConfig 私有路由（metrics / pprof）的固定令牌认证，authToken 为空时不校验
func SimpleAuthTokenWithConfig(authToken string) gin.HandlerFunc {
	expected := []byte(authToken)
	return func(c *gin.Context) {
		if authToken == "" {
			c.Next()
			return
		}

		token := c.GetHeader("Authorization")
		if s, ok := c.GetQuery("authorization"); ok {
			token = s
		}

		if subtle.ConstantTimeCompare([]byte(stripBearer(token)), expected) != 1 {
			app.NewResponse(c).ToResponse(code.ErrorInvalidUserAuthToken)
			c.Abort()
			return
		}
		c.Next()
	}
}
