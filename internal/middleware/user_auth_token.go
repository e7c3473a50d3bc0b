package middleware

import (
	"strings"

	"github.com/haierkeys/issue-note-service/pkg/app"
	"github.com/haierkeys/issue-note-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// UserAuthToken 用户 Token 认证中间件
// 按优先级读取：Authorization 头 -> Token 头 -> authorization / token 查询参数
// 支持 "Bearer " 前缀，解析成功后将用户写入 Context
func UserAuthToken(tm app.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := app.NewResponse(c)

		token := c.GetHeader("Authorization")
		if token == "" {
			token = c.GetHeader("Token")
		}
		if token == "" {
			token = c.Query("authorization")
		}
		if token == "" {
			token = c.Query("token")
		}
		token = stripBearer(token)

		if token == "" {
			response.ToResponse(code.ErrorNotUserAuthToken)
			c.Abort()
			return
		}

		user, err := tm.Parse(token)
		if err != nil {
			response.ToResponse(code.ErrorInvalidUserAuthToken)
			c.Abort()
			return
		}
		app.SetUserToContext(c, user)

		c.Next()
	}
}

func stripBearer(token string) string {
	token = strings.TrimSpace(token)
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}
