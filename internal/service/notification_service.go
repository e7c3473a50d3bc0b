package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/haierkeys/issue-note-service/internal/domain"
	"github.com/haierkeys/issue-note-service/internal/dto"
	"github.com/haierkeys/issue-note-service/pkg/app"
	"github.com/haierkeys/issue-note-service/pkg/logger"
	"github.com/haierkeys/issue-note-service/pkg/util"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
)

// NotificationService 截止提醒的生命周期管理
type NotificationService interface {
	// Recipients 所有者加上当前全部被授权用户，去重
	Recipients(ctx context.Context, note *domain.Note) ([]string, error)

	// MaterializeForDeadline 截止时间在未来时为每个接收人创建一条待发送提醒
	MaterializeForDeadline(ctx context.Context, noteID string, deadline *time.Time, containerKey string) error

	// ReplaceForDeadline 删除笔记的全部提醒，再按新截止时间重新生成
	ReplaceForDeadline(ctx context.Context, noteID string, deadline *time.Time, containerKey string) error

	// DeleteForNote 删除笔记的全部提醒
	DeleteForNote(ctx context.Context, noteID string) error

	// DeleteForRecipient 删除某接收人在该笔记上尚未发送的提醒
	DeleteForRecipient(ctx context.Context, noteID, recipientID string) error

	// DuePending 返回距截止时间不超过窗口（含已逾期）的待发送提醒
	DuePending(ctx context.Context) ([]*domain.DueReminder, error)

	// ListForRecipient 接收人的提醒列表
	ListForRecipient(ctx context.Context, recipientID string, pager *app.Pager) ([]*dto.NotificationDTO, int, error)

	// MarkSent 标记已发送，重复调用无副作用
	MarkSent(ctx context.Context, id string) error

	// RecordFailure 记录一次投递失败，达到上限后进入 failed
	RecordFailure(ctx context.Context, id string, cause error) (*domain.Notification, error)
}

type notificationService struct {
	noteRepo         domain.NoteRepository
	grantRepo        domain.GrantRepository
	notificationRepo domain.NotificationRepository
	config           *ServiceConfig
	logger           *zap.Logger
	now              func() time.Time
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(noteRepo domain.NoteRepository, grantRepo domain.GrantRepository, notificationRepo domain.NotificationRepository, config *ServiceConfig, lg *zap.Logger) NotificationService {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &notificationService{
		noteRepo:         noteRepo,
		grantRepo:        grantRepo,
		notificationRepo: notificationRepo,
		config:           config,
		logger:           lg,
		now:              time.Now,
	}
}

// ReminderTitle 提醒标题
func ReminderTitle(noteTitle string) string {
	return "Note deadline: " + noteTitle
}

// ReminderMessage 提醒正文
func ReminderMessage(noteTitle, containerKey string, deadline time.Time) string {
	return fmt.Sprintf("Reminder: note %q on %s is due %s", noteTitle, containerKey, deadline.UTC().Format(time.RFC3339))
}

func (s *notificationService) Recipients(ctx context.Context, note *domain.Note) ([]string, error) {
	grants, err := s.grantRepo.ListByNote(ctx, note.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "recipients: list grants")
	}

	seen := map[string]struct{}{note.OwnerID: {}}
	out := []string{note.OwnerID}
	for _, g := range grants {
		if _, ok := seen[g.GranteeID]; ok {
			continue
		}
		seen[g.GranteeID] = struct{}{}
		out = append(out, g.GranteeID)
	}
	sort.Strings(out[1:])
	return out, nil
}

func (s *notificationService) MaterializeForDeadline(ctx context.Context, noteID string, deadline *time.Time, containerKey string) error {
	now := s.now()
	if deadline == nil || !deadline.After(now) {
		return nil
	}

	note, err := s.noteRepo.GetByID(ctx, noteID)
	if err != nil {
		return pkgerrors.Wrap(err, "materialize: load note")
	}
	recipients, err := s.Recipients(ctx, note)
	if err != nil {
		return err
	}

	title := ReminderTitle(note.Title)
	message := ReminderMessage(note.Title, containerKey, *deadline)
	items := make([]*domain.Notification, 0, len(recipients))
	for _, uid := range recipients {
		items = append(items, &domain.Notification{
			RecipientID: uid,
			NoteID:      noteID,
			Kind:        domain.NotificationKindDeadlineReminder,
			Title:       title,
			Message:     message,
			Status:      domain.NotificationStatusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	if err := s.notificationRepo.CreateBatch(ctx, items); err != nil {
		return pkgerrors.Wrap(err, "materialize: create reminders")
	}

	s.logger.Debug("reminders materialized",
		zap.String(logger.FieldNoteID, noteID),
		zap.Int("count", len(items)),
	)
	return nil
}

func (s *notificationService) ReplaceForDeadline(ctx context.Context, noteID string, deadline *time.Time, containerKey string) error {
	if err := s.DeleteForNote(ctx, noteID); err != nil {
		return err
	}
	if deadline == nil {
		return nil
	}
	return s.MaterializeForDeadline(ctx, noteID, deadline, containerKey)
}

func (s *notificationService) DeleteForNote(ctx context.Context, noteID string) error {
	if err := s.notificationRepo.DeleteByNote(ctx, noteID); err != nil {
		return pkgerrors.Wrap(err, "delete reminders")
	}
	return nil
}

func (s *notificationService) DeleteForRecipient(ctx context.Context, noteID, recipientID string) error {
	if err := s.notificationRepo.DeletePendingByRecipient(ctx, noteID, recipientID); err != nil {
		return pkgerrors.Wrap(err, "delete recipient reminders")
	}
	return nil
}

func (s *notificationService) DuePending(ctx context.Context) ([]*domain.DueReminder, error) {
	pending, err := s.notificationRepo.ListPending(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "due: list pending")
	}

	now := s.now()
	window := s.config.dueWindowHours()
	notes := make(map[string]*domain.Note)
	due := make([]*domain.DueReminder, 0)

	for _, n := range pending {
		note, ok := notes[n.NoteID]
		if !ok {
			note, err = s.noteRepo.GetByID(ctx, n.NoteID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return nil, pkgerrors.Wrap(err, "due: load note")
			}
			// 不存在的笔记记为 nil，跳过其全部提醒
			notes[n.NoteID] = note
		}
		if !note.HasDeadline() {
			continue
		}

		hours := util.HoursUntil(*note.Deadline, now)
		if hours <= window {
			due = append(due, &domain.DueReminder{Notification: n, Note: note, HoursUntilDeadline: hours})
		}
	}
	return due, nil
}

func (s *notificationService) ListForRecipient(ctx context.Context, recipientID string, pager *app.Pager) ([]*dto.NotificationDTO, int, error) {
	if pager == nil {
		pager = &app.Pager{Page: 1, PageSize: 10}
	}
	items, err := s.notificationRepo.ListByRecipient(ctx, recipientID, pager.Page, pager.PageSize)
	if err != nil {
		return nil, 0, dbError(err)
	}
	count, err := s.notificationRepo.CountByRecipient(ctx, recipientID)
	if err != nil {
		return nil, 0, dbError(err)
	}

	out := make([]*dto.NotificationDTO, 0, len(items))
	for _, n := range items {
		out = append(out, notificationToDTO(n))
	}
	return out, int(count), nil
}

func (s *notificationService) MarkSent(ctx context.Context, id string) error {
	if err := s.notificationRepo.MarkSent(ctx, id, s.now()); err != nil {
		return pkgerrors.Wrap(err, "mark sent")
	}
	return nil
}

func (s *notificationService) RecordFailure(ctx context.Context, id string, cause error) (*domain.Notification, error) {
	reason := "unknown error"
	if cause != nil {
		reason = cause.Error()
	}
	n, err := s.notificationRepo.RecordFailure(ctx, id, reason, s.config.maxAttempts(), s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(err, "record failure")
	}
	return n, nil
}
