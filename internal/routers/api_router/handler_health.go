package api_router

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/haierkeys/issue-note-service/internal/app"
	"github.com/haierkeys/issue-note-service/internal/dto"
	pkgapp "github.com/haierkeys/issue-note-service/pkg/app"
	"github.com/haierkeys/issue-note-service/pkg/code"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	*Handler
	proc *process.Process
}

// NewHealthHandler 创建健康检查处理器实例
func NewHealthHandler(a *app.App) *HealthHandler {
	h := &HealthHandler{Handler: NewHandler(a)}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		h.proc = p
	} else {
		a.Logger().Warn("process stats unavailable", zap.Error(err))
	}
	return h
}

// Check 健康检查接口，同时作为就绪探针
// @Summary 健康检查
// @Description 检查服务健康状态，包括数据库连接
// @Tags 系统
// @Produce json
// @Success 200 {object} pkgapp.Res{data=dto.HealthDTO}
// @Router /api/health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	health := dto.HealthDTO{
		Status:     "healthy",
		Database:   "connected",
		Uptime:     h.App.Uptime().Seconds(),
		Goroutines: runtime.NumGoroutine(),
	}

	if h.proc != nil {
		if mem, err := h.proc.MemoryInfoWithContext(c.Request.Context()); err == nil {
			health.MemoryRSS = mem.RSS
		}
		if cpu, err := h.proc.CPUPercentWithContext(c.Request.Context()); err == nil {
			health.CPUPercent = cpu
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.App.NoteRepo.Ping(ctx); err != nil || h.App.IsShuttingDown() {
		health.Status = "unhealthy"
		health.Database = "error"
		pkgapp.NewResponse(c).ToResponse(code.Failed.WithData(health))
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(health))
}
