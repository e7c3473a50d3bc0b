package routers

import (
	"time"

	"github.com/haierkeys/issue-note-service/internal/app"
	"github.com/haierkeys/issue-note-service/internal/middleware"
	"github.com/haierkeys/issue-note-service/internal/routers/api_router"
	"github.com/haierkeys/issue-note-service/pkg/limiter"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
)

// newMethodLimiter 写接口使用更严格的令牌桶
func newMethodLimiter(perSecond int) limiter.Face {
	l := limiter.NewMethodLimiter()
	if perSecond <= 0 {
		return l
	}
	q := int64(perSecond)
	return l.AddBuckets(
		limiter.BucketRule{Key: "/api/note/share/batch", FillInterval: time.Second, Capacity: max(q/5, 1), Quantum: max(q/5, 1)},
		limiter.BucketRule{Key: "/api/admin", FillInterval: time.Second, Capacity: 1, Quantum: 1},
		limiter.BucketRule{Key: "/api", FillInterval: time.Second, Capacity: q, Quantum: q},
	)
}

// NewRouter 创建公开 API 路由
func NewRouter(appContainer *app.App, uni *ut.UniversalTranslator) *gin.Engine {

	// 获取配置
	cfg := appContainer.Config()

	r := gin.New()

	api := r.Group("/api")
	{
		api.Use(middleware.AppInfoWithConfig(app.Name, appContainer.Version().Version))
		api.Use(middleware.TraceMiddlewareWithConfig(cfg.Tracer.Enabled, cfg.Tracer.Header)) // Trace ID 中间件
		api.Use(middleware.OpentracingSpan())
		api.Use(middleware.RateLimiter(newMethodLimiter(cfg.App.RateLimitPerSecond)))
		api.Use(middleware.ContextTimeout(time.Duration(cfg.App.DefaultContextTimeout) * time.Second))
		if uni != nil {
			api.Use(middleware.LangWithTranslator(uni))
		}
		api.Use(middleware.AccessLogWithLogger(appContainer.Logger()))
		api.Use(middleware.RecoveryWithLogger(appContainer.Logger()))

		// 创建 Handlers（注入 App Container）
		noteHandler := api_router.NewNoteHandler(appContainer)
		shareHandler := api_router.NewShareHandler(appContainer)
		notificationHandler := api_router.NewNotificationHandler(appContainer)
		healthHandler := api_router.NewHealthHandler(appContainer)
		versionHandler := api_router.NewVersionHandler(appContainer)

		// 无需认证
		api.GET("/health", healthHandler.Check)
		api.GET("/version", versionHandler.ServerVersion)

		auth := api.Group("", middleware.UserAuthToken(appContainer.TokenManager))

		auth.POST("/note", noteHandler.Create)
		auth.GET("/note", noteHandler.Get)
		auth.PATCH("/note", noteHandler.Update)
		auth.DELETE("/note", noteHandler.Delete)
		auth.GET("/notes", noteHandler.List)
		auth.GET("/notes/public", noteHandler.ListPublic)

		auth.POST("/note/share", shareHandler.Share)
		auth.POST("/note/share/batch", shareHandler.ShareMany)
		auth.DELETE("/note/share", shareHandler.Revoke)
		auth.GET("/note/shares", shareHandler.Grants)
		auth.GET("/note/share/candidates", shareHandler.Candidates)

		auth.GET("/notifications", notificationHandler.List)
		auth.POST("/admin/sweep", notificationHandler.Sweep)
	}

	r.NoRoute(middleware.NoFound())

	return r
}
