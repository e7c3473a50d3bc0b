package middleware

import (
	"github.com/haierkeys/issue-note-service/pkg/app"

	"github.com/gin-gonic/gin"
)

// AppInfoWithConfig 写入应用名称、版本与访问地址，并在响应头返回版本
func AppInfoWithConfig(name, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("app_name", name)
		c.Set("app_version", version)
		c.Set("access_host", app.GetAccessHost(c))
		c.Header("X-App-Version", version)

		c.Next()
	}
}
