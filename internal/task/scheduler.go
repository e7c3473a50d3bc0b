package task

import (
	"context"
	"time"

	"github.com/haierkeys/issue-note-service/pkg/logger"
	"github.com/haierkeys/issue-note-service/pkg/safe_close"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Task 定义任务接口
type Task interface {
	Name() string                  // 任务名称
	Run(ctx context.Context) error // 执行任务
	LoopInterval() time.Duration   // 执行间隔，<= 0 时不按间隔执行
	IsStartupRun() bool            // 是否立即执行一次
}

// CronTask 按 cron 表达式执行的任务，Spec 非空时优先于 LoopInterval
type CronTask interface {
	Task
	Spec() string // 例如 "@hourly" 或 "0 * * * *"
}

// Scheduler 任务调度器
type Scheduler struct {
	logger *zap.Logger
	tasks  []Task
	sc     *safe_close.SafeClose
}

// NewScheduler 创建任务调度器
func NewScheduler(lg *zap.Logger, sc *safe_close.SafeClose) *Scheduler {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Scheduler{
		logger: lg,
		tasks:  make([]Task, 0),
		sc:     sc,
	}
}

// AddTask 添加任务，nil 会被忽略
func (s *Scheduler) AddTask(task Task) {
	if task == nil {
		return
	}
	s.tasks = append(s.tasks, task)
}

// Tasks 已添加的任务
func (s *Scheduler) Tasks() []Task {
	return s.tasks
}

// ParseSpec 校验 cron 表达式，支持 @hourly 等描述符
func ParseSpec(spec string) (cron.Schedule, error) {
	return cron.ParseStandard(spec)
}

// Start 启动所有任务
func (s *Scheduler) Start() {
	if len(s.tasks) == 0 {
		s.logger.Info("no tasks to schedule")
		return
	}

	s.logger.Info("tasks starting ", zap.Int("count", len(s.tasks)))

	for _, task := range s.tasks {
		s.startTask(task)
	}
}

// runOnce 执行一次任务并捕获 panic
func (s *Scheduler) runOnce(ctx context.Context, task Task, mode string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task panic",
				zap.String(logger.FieldTask, task.Name()),
				zap.String("mode", mode),
				zap.Any("panic", r),
				zap.Stack("stack"))
		}
	}()

	start := time.Now()
	s.logger.Info("task running", zap.String(logger.FieldTask, task.Name()), zap.String("mode", mode))
	if err := task.Run(ctx); err != nil {
		s.logger.Error("task running error",
			zap.String(logger.FieldTask, task.Name()),
			zap.String("mode", mode),
			zap.Error(err))
		return
	}
	s.logger.Debug("task finished",
		zap.String(logger.FieldTask, task.Name()),
		zap.String("mode", mode),
		zap.Duration(logger.FieldDuration, time.Since(start)))
}

// startTask 启动单个任务
func (s *Scheduler) startTask(task Task) {
	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// 如果任务需要立即执行
		if task.IsStartupRun() {
			go s.runOnce(ctx, task, "startupRun")
		}

		if ct, ok := task.(CronTask); ok && ct.Spec() != "" {
			s.runCron(ctx, ct, closeSignal)
			return
		}

		if task.LoopInterval() <= 0 {
			return
		}

		ticker := time.NewTicker(task.LoopInterval())
		defer ticker.Stop()

		// 定时执行
		for {
			select {
			case <-ticker.C:
				s.runOnce(ctx, task, "loopRun")
			case <-closeSignal:
				s.logger.Info("task stopped", zap.String(logger.FieldTask, task.Name()), zap.String("mode", "loopRun"))
				return
			}
		}
	})
}

// runCron 按 cron 表达式执行，直到收到关闭信号；同一任务不会重叠执行
func (s *Scheduler) runCron(ctx context.Context, task CronTask, closeSignal <-chan struct{}) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(task.Spec(), func() { s.runOnce(ctx, task, "cronRun") }); err != nil {
		s.logger.Error("invalid task spec",
			zap.String(logger.FieldTask, task.Name()),
			zap.String("spec", task.Spec()),
			zap.Error(err))
		return
	}
	c.Start()
	s.logger.Info("task scheduled", zap.String(logger.FieldTask, task.Name()), zap.String("spec", task.Spec()))

	<-closeSignal
	stopped := c.Stop()
	<-stopped.Done()
	s.logger.Info("task stopped", zap.String(logger.FieldTask, task.Name()), zap.String("mode", "cronRun"))
}
