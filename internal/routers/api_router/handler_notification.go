package api_router

import (
	"github.com/haierkeys/issue-note-service/internal/app"
	pkgapp "github.com/haierkeys/issue-note-service/pkg/app"
	"github.com/haierkeys/issue-note-service/pkg/code"
	apperrors "github.com/haierkeys/issue-note-service/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NotificationHandler 截止提醒 API 路由处理器
type NotificationHandler struct {
	*Handler
}

// NewNotificationHandler 创建 NotificationHandler 实例
func NewNotificationHandler(a *app.App) *NotificationHandler {
	return &NotificationHandler{Handler: NewHandler(a)}
}

// List 当前用户收到的提醒，按创建时间倒序分页
// @Summary 提醒列表
// @Tags 提醒
// @Security UserAuthToken
// @Produce json
// @Param page query int false "页码"
// @Param pageSize query int false "每页数量"
// @Success 200 {object} pkgapp.Res{data=pkgapp.ListRes{list=[]dto.NotificationDTO}} "成功"
// @Router /api/notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	uid, ok := h.bindAndAuth(c, "NotificationHandler.List", nil)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	pager := &pkgapp.Pager{
		Page:     pkgapp.GetPage(c),
		PageSize: pkgapp.GetPageSizeWithConfig(c, h.App.PaginationConfig()),
	}

	list, count, err := h.App.NotificationService.ListForRecipient(ctx, uid, pager)
	if err != nil {
		h.logError(ctx, "NotificationHandler.List", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponseList(code.Success, list, count)
}

// Sweep 立即执行一次提醒扫描
// @Summary 执行提醒扫描
// @Tags 提醒
// @Security UserAuthToken
// @Produce json
// @Success 200 {object} pkgapp.Res{data=domain.SweepResult} "成功"
// @Router /api/admin/sweep [post]
func (h *NotificationHandler) Sweep(c *gin.Context) {
	uid, ok := h.bindAndAuth(c, "NotificationHandler.Sweep", nil)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	h.App.Logger().Info("manual sweep requested", zap.String("uid", uid))

	result, err := h.App.SweepService.Sweep(ctx)
	if err != nil {
		h.logError(ctx, "NotificationHandler.Sweep", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.SuccessSweep.WithData(result))
}
