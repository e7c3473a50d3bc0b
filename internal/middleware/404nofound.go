package middleware

import (
	"github.com/haierkeys/issue-note-service/pkg/app"
	"github.com/haierkeys/issue-note-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// NoFound 未注册路由，details 带上请求方法与路径
func NoFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		app.NewResponse(c).ToResponse(code.ErrorNotFoundAPI.WithDetails(c.Request.Method + " " + c.Request.URL.Path))
		c.Abort()
	}
}
