package api_router

import (
	"github.com/haierkeys/issue-note-service/internal/app"
	"github.com/haierkeys/issue-note-service/internal/dto"
	pkgapp "github.com/haierkeys/issue-note-service/pkg/app"
	"github.com/haierkeys/issue-note-service/pkg/code"
	apperrors "github.com/haierkeys/issue-note-service/pkg/errors"

	"github.com/gin-gonic/gin"
)

// ShareHandler 笔记分享 API 路由处理器
type ShareHandler struct {
	*Handler
}

// NewShareHandler 创建 ShareHandler 实例
func NewShareHandler(a *app.App) *ShareHandler {
	return &ShareHandler{Handler: NewHandler(a)}
}

// Share 分享给单个用户
// @Summary 分享笔记
// @Tags 分享
// @Security UserAuthToken
// @Accept json
// @Produce json
// @Param params body dto.NoteShareRequest true "分享参数"
// @Success 200 {object} pkgapp.Res{data=dto.GrantDTO} "成功"
// @Router /api/note/share [post]
func (h *ShareHandler) Share(c *gin.Context) {
	params := &dto.NoteShareRequest{}
	uid, ok := h.bindAndAuth(c, "ShareHandler.Share", params)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	grant, err := h.App.NoteService.Share(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "ShareHandler.Share", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.SuccessShare.WithData(grant))
}

// ShareMany 批量分享，返回每个用户的结果
// @Summary 批量分享笔记
// @Tags 分享
// @Security UserAuthToken
// @Accept json
// @Produce json
// @Param params body dto.NoteShareManyRequest true "分享参数"
// @Success 200 {object} pkgapp.Res{data=domain.ShareManyResult} "成功"
// @Router /api/note/share/batch [post]
func (h *ShareHandler) ShareMany(c *gin.Context) {
	params := &dto.NoteShareManyRequest{}
	uid, ok := h.bindAndAuth(c, "ShareHandler.ShareMany", params)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	result, err := h.App.NoteService.ShareMany(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "ShareHandler.ShareMany", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.SuccessShare.WithData(result))
}

// Revoke 撤销分享
// @Summary 撤销分享
// @Tags 分享
// @Security UserAuthToken
// @Produce json
// @Param params query dto.NoteRevokeRequest true "撤销参数"
// @Success 200 {object} pkgapp.Res "成功"
// @Router /api/note/share [delete]
func (h *ShareHandler) Revoke(c *gin.Context) {
	params := &dto.NoteRevokeRequest{}
	uid, ok := h.bindAndAuth(c, "ShareHandler.Revoke", params)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.App.NoteService.Revoke(ctx, uid, params); err != nil {
		h.logError(ctx, "ShareHandler.Revoke", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.SuccessRevoke)
}

// Grants 笔记的当前授权
// @Summary 分享列表
// @Tags 分享
// @Security UserAuthToken
// @Produce json
// @Param params query dto.NoteGetRequest true "笔记"
// @Success 200 {object} pkgapp.Res{data=[]dto.GrantDTO} "成功"
// @Router /api/note/shares [get]
func (h *ShareHandler) Grants(c *gin.Context) {
	params := &dto.NoteGetRequest{}
	uid, ok := h.bindAndAuth(c, "ShareHandler.Grants", params)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	grants, err := h.App.NoteService.ListGrants(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "ShareHandler.Grants", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(grants))
}

// Candidates 容器成员中可分享的用户
// @Summary 可分享用户
// @Tags 分享
// @Security UserAuthToken
// @Produce json
// @Param params query dto.NoteGetRequest true "笔记"
// @Success 200 {object} pkgapp.Res{data=[]dto.ShareCandidateDTO} "成功"
// @Router /api/note/share/candidates [get]
func (h *ShareHandler) Candidates(c *gin.Context) {
	params := &dto.NoteGetRequest{}
	uid, ok := h.bindAndAuth(c, "ShareHandler.Candidates", params)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	candidates, err := h.App.NoteService.ShareCandidates(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "ShareHandler.Candidates", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(candidates))
}
