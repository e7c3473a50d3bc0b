package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/haierkeys/issue-note-service/pkg/app"
	"github.com/haierkeys/issue-note-service/pkg/code"
	"github.com/haierkeys/issue-note-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecoveryWithLogger 捕获 handler panic，记录请求上下文并返回 500 响应
// panic 内容只写入日志，不出现在响应中
func RecoveryWithLogger(lg *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			fields := []zap.Field{
				zap.String("router", c.Request.URL.Path),
				zap.String(logger.FieldMethod, c.Request.Method),
				zap.String("query", c.Request.URL.RawQuery),
				zap.String("ip", c.ClientIP()),
				zap.String(logger.FieldUID, app.GetUID(c)),
				zap.String(logger.FieldTraceID, GetTraceIDFromGin(c)),
				zap.String("stack", string(debug.Stack())),
			}

			if err, ok := rec.(error); ok {
				fields = append(fields, zap.Error(err))
			} else {
				fields = append(fields, zap.String("panic_value", fmt.Sprintf("%v", rec)))
			}
			lg.Error("Recovered from panic", fields...)

			app.NewResponse(c).ToResponse(code.ErrorServerInternal)
			c.Abort()
		}()

		c.Next()
	}
}
