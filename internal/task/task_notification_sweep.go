package task

import (
	"context"
	"time"

	"github.com/haierkeys/issue-note-service/internal/app"
	"github.com/haierkeys/issue-note-service/internal/service"
)

// DefaultSweepSpec 默认每小时扫描一次
const DefaultSweepSpec = "@hourly"

// NotificationSweepTask 到期提醒扫描任务
type NotificationSweepTask struct {
	sweep      service.SweepService
	spec       string
	startupRun bool
}

// Name 返回任务名称
func (t *NotificationSweepTask) Name() string {
	return "NotificationSweep"
}

// Spec 返回 cron 表达式
func (t *NotificationSweepTask) Spec() string {
	return t.spec
}

// LoopInterval 使用 cron 调度，不按间隔执行
func (t *NotificationSweepTask) LoopInterval() time.Duration {
	return 0
}

// IsStartupRun 是否立即执行一次
func (t *NotificationSweepTask) IsStartupRun() bool {
	return t.startupRun
}

// Run 执行一次扫描
func (t *NotificationSweepTask) Run(ctx context.Context) error {
	_, err := t.sweep.Sweep(ctx)
	return err
}

// NewNotificationSweepTask 创建扫描任务；spec 为 "-" 时禁用
func NewNotificationSweepTask(sweep service.SweepService, spec string, startupRun bool) (Task, error) {
	if spec == "-" {
		return nil, nil
	}
	if spec == "" {
		spec = DefaultSweepSpec
	}
	if _, err := ParseSpec(spec); err != nil {
		return nil, err
	}
	return &NotificationSweepTask{sweep: sweep, spec: spec, startupRun: startupRun}, nil
}

// init 自动注册扫描任务
func init() {
	RegisterWithApp(func(appContainer *app.App) (Task, error) {
		cfg := appContainer.Config().Notification
		return NewNotificationSweepTask(appContainer.SweepService, cfg.SweepCron, cfg.SweepStartupRun)
	})
}
