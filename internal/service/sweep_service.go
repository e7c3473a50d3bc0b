package service

import (
	"context"
	"sync"
	"time"

	"github.com/haierkeys/issue-note-service/internal/delivery"
	"github.com/haierkeys/issue-note-service/internal/domain"
	"github.com/haierkeys/issue-note-service/pkg/logger"
	"github.com/haierkeys/issue-note-service/pkg/workerpool"

	pkgerrors "github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// SweepService 周期性扫描到期提醒并投递
type SweepService interface {
	// Sweep 只有获取到期列表失败时才返回错误
	Sweep(ctx context.Context) (*domain.SweepResult, error)
}

type sweepService struct {
	notifications NotificationService
	channel       delivery.Channel
	pool          *workerpool.Pool
	metrics       *sweepMetrics
	logger        *zap.Logger
	mu            sync.Mutex // 同一进程内扫描串行执行
}

// NewSweepService 创建 SweepService 实例；reg 为 nil 时使用默认注册表
func NewSweepService(notifications NotificationService, channel delivery.Channel, pool *workerpool.Pool, reg prometheus.Registerer, lg *zap.Logger) SweepService {
	if lg == nil {
		lg = zap.NewNop()
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &sweepService{
		notifications: notifications,
		channel:       channel,
		pool:          pool,
		metrics:       newSweepMetrics(reg),
		logger:        lg,
	}
}

// deliverResult 单条提醒的投递结果
type deliverResult struct {
	sent      bool
	exhausted bool
	skipped   bool
}

func (s *sweepService) Sweep(ctx context.Context) (*domain.SweepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	s.metrics.runs.Inc()
	defer func() { s.metrics.duration.Observe(time.Since(start).Seconds()) }()

	due, err := s.notifications.DuePending(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "sweep")
	}
	s.metrics.due.Set(float64(len(due)))

	result := &domain.SweepResult{Total: len(due)}
	if len(due) == 0 {
		return result, nil
	}

	// 每条提醒的结果只通过自己的 channel 传回，不共享可写状态
	outs := make([]chan deliverResult, len(due))
	for i, item := range due {
		out := make(chan deliverResult, 1)
		outs[i] = out
		s.dispatch(ctx, item, out)
	}

	for i, out := range outs {
		r := s.await(out)
		switch {
		case r.skipped:
			result.Skipped++
			s.logger.Warn("reminder delivery skipped",
				zap.String(logger.FieldNotificationID, due[i].Notification.ID),
				zap.Error(ctx.Err()),
			)
		case r.sent:
			result.Sent++
		default:
			result.Failed++
			if r.exhausted {
				result.Exhausted++
			}
		}
	}
	s.metrics.sent.Add(float64(result.Sent))
	s.metrics.failed.Add(float64(result.Failed))
	s.metrics.exhausted.Add(float64(result.Exhausted))

	s.logger.Info("reminder sweep finished",
		zap.Int("total", result.Total),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
		zap.Int("exhausted", result.Exhausted),
		zap.Int("skipped", result.Skipped),
		zap.Duration(logger.FieldDuration, time.Since(start)),
	)
	return result, nil
}

// dispatch 将投递任务交给 worker pool；队列已满或池已关闭时在当前协程执行，
// 因此同时进行的投递数不超过 MaxWorkers+1
func (s *sweepService) dispatch(ctx context.Context, item *domain.DueReminder, out chan<- deliverResult) {
	run := func(context.Context) error {
		// ctx 已取消时不再投递，提醒保持 pending 等待下次扫描
		if ctx.Err() != nil {
			out <- deliverResult{skipped: true}
			return nil
		}
		out <- s.deliver(ctx, item)
		return nil
	}
	if s.pool == nil {
		_ = run(ctx)
		return
	}
	// 池内任务使用不可取消的 ctx，保证 run 一定执行并写回结果
	if err := s.pool.SubmitAsync(context.WithoutCancel(ctx), run); err != nil {
		_ = run(ctx)
	}
}

// await 等待单条投递结束；池被强制关闭而任务未执行时视为跳过
func (s *sweepService) await(out <-chan deliverResult) deliverResult {
	if s.pool == nil {
		return <-out
	}
	select {
	case r := <-out:
		return r
	case <-s.pool.Done():
		select {
		case r := <-out:
			return r
		default:
			return deliverResult{skipped: true}
		}
	}
}

// deliver 投递单条提醒；成功标记已发送，失败记录重试次数
func (s *sweepService) deliver(ctx context.Context, item *domain.DueReminder) deliverResult {
	n := item.Notification
	fields := []zap.Field{
		zap.String(logger.FieldNotificationID, n.ID),
		zap.String(logger.FieldRecipient, n.RecipientID),
		zap.String(logger.FieldNoteID, n.NoteID),
		zap.String(logger.FieldChannel, s.channel.Name()),
	}

	deliverErr := s.channel.Deliver(ctx, delivery.FromDue(item))
	if deliverErr == nil {
		// 已投递的提醒必须落库，不受扫描 ctx 取消影响
		if err := s.notifications.MarkSent(context.WithoutCancel(ctx), n.ID); err != nil {
			// 已投递但未能标记，下次扫描会重复投递
			s.logger.Error("mark reminder sent failed", append(fields, zap.Error(err))...)
			return deliverResult{}
		}
		return deliverResult{sent: true}
	}

	if ctx.Err() != nil {
		// 扫描被取消导致的失败不计入重试次数
		s.logger.Warn("reminder delivery interrupted", append(fields, zap.Error(deliverErr))...)
		return deliverResult{skipped: true}
	}

	s.logger.Warn("reminder delivery failed", append(fields, zap.Error(deliverErr))...)
	updated, err := s.notifications.RecordFailure(ctx, n.ID, deliverErr)
	if err != nil {
		s.logger.Error("record reminder failure failed", append(fields, zap.Error(err))...)
		return deliverResult{}
	}
	return deliverResult{exhausted: updated != nil && updated.Status == domain.NotificationStatusFailed}
}
