// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/haierkeys/issue-note-service/internal/dao"
	"github.com/haierkeys/issue-note-service/internal/delivery"
	"github.com/haierkeys/issue-note-service/internal/domain"
	"github.com/haierkeys/issue-note-service/internal/events"
	"github.com/haierkeys/issue-note-service/internal/membership"
	"github.com/haierkeys/issue-note-service/internal/service"
	pkgapp "github.com/haierkeys/issue-note-service/pkg/app"
	"github.com/haierkeys/issue-note-service/pkg/util"
	"github.com/haierkeys/issue-note-service/pkg/workerpool"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App 应用容器，封装所有依赖和服务
type App struct {
	// 基础设施（注入的依赖）
	config *AppConfig
	logger *zap.Logger
	DB     *gorm.DB
	Dao    *dao.Dao

	// 并发控制组件
	workerPool *workerpool.Pool

	// 外部协作方
	Directory membership.Directory
	Publisher events.Publisher
	Channel   delivery.Channel

	// Repository 层
	NoteRepo         domain.NoteRepository
	GrantRepo        domain.GrantRepository
	NotificationRepo domain.NotificationRepository

	// Service 层
	AccessService       service.AccessService
	NoteService         service.NoteService
	NotificationService service.NotificationService
	SweepService        service.SweepService

	// 基础设施组件
	TokenManager pkgapp.TokenManager

	startedAt time.Time

	// 关闭控制
	shutdownCh chan struct{}
	closeOnce  sync.Once
}

// Option 容器可选项，测试中用于替换外部协作方
type Option func(*options)

type options struct {
	directory  membership.Directory
	publisher  events.Publisher
	channel    delivery.Channel
	registerer prometheus.Registerer
}

// WithDirectory 使用指定的成员目录
func WithDirectory(d membership.Directory) Option {
	return func(o *options) { o.directory = d }
}

// WithPublisher 使用指定的事件发布者
func WithPublisher(p events.Publisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithChannel 使用指定的投递渠道
func WithChannel(ch delivery.Channel) Option {
	return func(o *options) { o.channel = ch }
}

// WithRegisterer 使用指定的 Prometheus registry
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// NewApp 创建应用容器实例
// 初始化所有依赖并进行依赖注入
// cfg: 应用配置（必须）
// logger: zap 日志器（必须）
// db: 数据库连接（必须）
func NewApp(cfg *AppConfig, logger *zap.Logger, db *gorm.DB, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	o := &options{registerer: prometheus.DefaultRegisterer}
	for _, opt := range opts {
		opt(o)
	}

	// 建表只在启动时执行一次，请求路径上不再检查
	if err := dao.EnsureSchema(db); err != nil {
		return nil, err
	}

	a := &App{
		config:     cfg,
		logger:     logger,
		DB:         db,
		startedAt:  time.Now(),
		shutdownCh: make(chan struct{}),
	}

	// 初始化 Worker Pool
	wpConfig := cfg.GetWorkerPoolConfig()
	a.workerPool = workerpool.New(&wpConfig, logger)

	a.Dao = dao.New(db, logger)

	// 初始化 TokenManager
	a.TokenManager = pkgapp.NewTokenManager(pkgapp.TokenConfig{
		SecretKey: cfg.Security.AuthTokenKey,
		Expiry:    cfg.GetTokenExpiry(),
	})

	// 成员目录：配置了 Redis 用 Redis，否则用配置文件中的静态表
	a.Directory = o.directory
	if a.Directory == nil {
		if cfg.Redis.URL != "" {
			dir, err := membership.NewRedisDirectory(cfg.Redis)
			if err != nil {
				return nil, err
			}
			a.Directory = dir
			logger.Info("membership directory: redis")
		} else {
			a.Directory = membership.NewStaticDirectory(cfg.Membership)
			logger.Info("membership directory: static",
				zap.Int("containers", len(cfg.Membership.Containers)))
		}
	}

	// 活动事件：未启用 Kafka 时丢弃
	a.Publisher = o.publisher
	if a.Publisher == nil {
		if cfg.Kafka.Enable {
			p, err := events.NewKafkaPublisher(cfg.Kafka, util.InstanceID(Name))
			if err != nil {
				_ = a.Directory.Close()
				return nil, err
			}
			a.Publisher = p
			logger.Info("activity feed: kafka", zap.Strings("brokers", cfg.Kafka.Brokers))
		} else {
			a.Publisher = events.Nop{}
		}
	}

	a.Channel = o.channel
	if a.Channel == nil {
		a.Channel = delivery.NewChannel(cfg.Notification.Channels, a.Directory, logger)
	}

	// 初始化 Repository 层
	a.NoteRepo = dao.NewNoteRepository(a.Dao)
	a.GrantRepo = dao.NewGrantRepository(a.Dao)
	a.NotificationRepo = dao.NewNotificationRepository(a.Dao)

	// 创建 ServiceConfig（从 AppConfig 提取 Service 层需要的配置）
	svcConfig := &service.ServiceConfig{
		Note: service.NoteServiceConfig{
			ShareConcurrency: cfg.Notification.ShareConcurrency,
		},
		Notification: service.NotificationServiceConfig{
			DueWindowHours: cfg.Notification.DueWindowHours,
			MaxAttempts:    cfg.Notification.MaxAttempts,
		},
	}

	// 初始化 Service 层（依赖注入）
	a.AccessService = service.NewAccessService(a.NoteRepo, a.GrantRepo)
	a.NotificationService = service.NewNotificationService(a.NoteRepo, a.GrantRepo, a.NotificationRepo, svcConfig, logger)
	a.NoteService = service.NewNoteService(a.NoteRepo, a.GrantRepo, a.AccessService, a.NotificationService,
		a.Directory, a.Publisher, svcConfig, logger)
	a.SweepService = service.NewSweepService(a.NotificationService, a.Channel, a.workerPool, o.registerer, logger)

	logger.Info("App container initialized successfully",
		zap.Int("workerPoolMaxWorkers", wpConfig.MaxWorkers),
		zap.String("deliveryChannel", a.Channel.Name()))

	return a, nil
}

// Config 获取应用配置
func (a *App) Config() *AppConfig {
	return a.config
}

// Logger 获取日志器
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// WorkerPool 获取 Worker Pool
func (a *App) WorkerPool() *workerpool.Pool {
	return a.workerPool
}

// Uptime 返回容器启动以来的时长
func (a *App) Uptime() time.Duration {
	return time.Since(a.startedAt)
}

// Version 获取版本信息
func (a *App) Version() pkgapp.VersionInfo {
	return pkgapp.VersionInfo{
		Version:   Version,
		GitTag:    GitTag,
		BuildTime: BuildTime,
	}
}

// PaginationConfig 获取分页配置
func (a *App) PaginationConfig() pkgapp.PaginationConfig {
	cfg := pkgapp.DefaultPaginationConfig
	if a.config.App.DefaultPageSize > 0 {
		cfg.DefaultPageSize = a.config.App.DefaultPageSize
	}
	if a.config.App.MaxPageSize > 0 {
		cfg.MaxPageSize = a.config.App.MaxPageSize
	}
	return cfg
}

// DefaultShutdownTimeout 默认关闭超时时间
const DefaultShutdownTimeout = 30 * time.Second

// Shutdown 优雅关闭应用容器
// 按顺序关闭：Worker Pool -> Kafka -> Redis -> Database
// ctx 用于控制关闭超时，如果为 nil 则使用默认 30 秒超时
func (a *App) Shutdown(ctx context.Context) error {
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
	}

	var errs []error
	first := false
	a.closeOnce.Do(func() {
		first = true
		close(a.shutdownCh)
	})
	if !first {
		return nil
	}

	a.logger.Info("App container shutting down...")

	// 1. 关闭 Worker Pool（停止接受新任务，等待现有投递完成）
	if a.workerPool != nil {
		if err := a.workerPool.Shutdown(ctx); err != nil {
			a.logger.Warn("Worker pool shutdown error", zap.Error(err))
			errs = append(errs, fmt.Errorf("worker pool shutdown: %w", err))
		}
	}

	// 2. 刷出并关闭事件发布者
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher close: %w", err))
		}
	}

	// 3. 关闭成员目录
	if a.Directory != nil {
		if err := a.Directory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("directory close: %w", err))
		}
	}

	// 4. 关闭数据库连接
	if err := a.closeDB(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		a.logger.Warn("App container shutdown completed with errors", zap.Int("errorCount", len(errs)))
		return fmt.Errorf("shutdown completed with %d errors: %v", len(errs), errs)
	}

	a.logger.Info("App container shutdown completed successfully")
	return nil
}

func (a *App) closeDB() error {
	if a.DB == nil {
		return nil
	}
	sqlDB, err := a.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	a.logger.Info("Database connection closed")
	return nil
}

// IsShuttingDown 检查应用是否正在关闭
func (a *App) IsShuttingDown() bool {
	select {
	case <-a.shutdownCh:
		return true
	default:
		return false
	}
}
