// Package api_router 提供 HTTP API 路由处理器
package api_router

import (
	"context"

	"github.com/haierkeys/issue-note-service/internal/app"
	"github.com/haierkeys/issue-note-service/internal/middleware"
	pkgapp "github.com/haierkeys/issue-note-service/pkg/app"
	"github.com/haierkeys/issue-note-service/pkg/code"
	"github.com/haierkeys/issue-note-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 基础 Handler 结构体，封装 App Container
// 所有 API Handler 都应该嵌入此结构体以获得依赖注入能力
type Handler struct {
	App *app.App
}

// NewHandler 创建基础 Handler 实例
func NewHandler(a *app.App) *Handler {
	return &Handler{App: a}
}

// bindAndAuth 绑定参数并读取当前用户，失败时已写出响应
func (h *Handler) bindAndAuth(c *gin.Context, method string, params interface{}) (string, bool) {
	response := pkgapp.NewResponse(c)

	if params != nil {
		valid, errs := pkgapp.BindAndValid(c, params)
		if !valid {
			h.App.Logger().Warn(method+".BindAndValid err", zap.Error(errs))
			response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
			return "", false
		}
	}

	uid := pkgapp.GetUID(c)
	if uid == "" {
		h.App.Logger().Error(method + " err uid empty")
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return "", false
	}
	return uid, true
}

// logError 记录带 traceId 的错误
func (h *Handler) logError(ctx context.Context, method string, err error) {
	h.App.Logger().Error(method,
		zap.Error(err),
		zap.String(logger.FieldTraceID, middleware.GetTraceID(ctx)),
	)
}
