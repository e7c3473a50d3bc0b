package dao

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/haierkeys/issue-note-service/internal/domain"
	"github.com/haierkeys/issue-note-service/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// maxLastErrorLen last_error 列长度
const maxLastErrorLen = 1024

// notificationRepository 实现 domain.NotificationRepository 接口
type notificationRepository struct {
	dao *Dao
}

// NewNotificationRepository 创建 NotificationRepository 实例
func NewNotificationRepository(dao *Dao) domain.NotificationRepository {
	return &notificationRepository{dao: dao}
}

func (r *notificationRepository) toDomain(m *model.NoteNotification) *domain.Notification {
	if m == nil {
		return nil
	}
	return &domain.Notification{
		ID:          m.ID,
		RecipientID: m.RecipientID,
		NoteID:      m.NoteID,
		Kind:        domain.NotificationKind(m.Kind),
		Title:       m.Title,
		Message:     m.Message,
		Status:      domain.NotificationStatus(m.Status),
		Attempts:    m.Attempts,
		LastError:   m.LastError,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		SentAt:      m.SentAt,
	}
}

func (r *notificationRepository) toModel(d *domain.Notification) *model.NoteNotification {
	id := d.ID
	if id == "" {
		id = uuid.NewString()
	}
	status := d.Status
	if status == "" {
		status = domain.NotificationStatusPending
	}
	return &model.NoteNotification{
		ID:          id,
		RecipientID: d.RecipientID,
		NoteID:      d.NoteID,
		Kind:        string(d.Kind),
		Title:       d.Title,
		Message:     d.Message,
		Status:      string(status),
		Attempts:    d.Attempts,
		LastError:   d.LastError,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
		SentAt:      d.SentAt,
	}
}

func (r *notificationRepository) toDomainList(ms []*model.NoteNotification) []*domain.Notification {
	out := make([]*domain.Notification, 0, len(ms))
	for _, m := range ms {
		out = append(out, r.toDomain(m))
	}
	return out
}

func (r *notificationRepository) CreateBatch(ctx context.Context, items []*domain.Notification) error {
	if len(items) == 0 {
		return nil
	}
	ms := make([]*model.NoteNotification, 0, len(items))
	for _, item := range items {
		m := r.toModel(item)
		item.ID = m.ID // 回填生成的 ID
		item.Status = domain.NotificationStatus(m.Status)
		ms = append(ms, m)
	}
	return r.dao.WithContext(ctx).Create(&ms).Error
}

func (r *notificationRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	var m model.NoteNotification
	if err := r.dao.WithContext(ctx).Where("id = ?", id).Take(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return r.toDomain(&m), nil
}

func (r *notificationRepository) ListByNote(ctx context.Context, noteID string) ([]*domain.Notification, error) {
	var ms []*model.NoteNotification
	if err := r.dao.WithContext(ctx).Where("note_id = ?", noteID).Order("created_at ASC").Find(&ms).Error; err != nil {
		return nil, err
	}
	return r.toDomainList(ms), nil
}

func (r *notificationRepository) ListPending(ctx context.Context) ([]*domain.Notification, error) {
	var ms []*model.NoteNotification
	err := r.dao.WithContext(ctx).
		Where("status = ?", string(domain.NotificationStatusPending)).
		Order("created_at ASC").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	return r.toDomainList(ms), nil
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID string, page, pageSize int) ([]*domain.Notification, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	var ms []*model.NoteNotification
	err := r.dao.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	return r.toDomainList(ms), nil
}

func (r *notificationRepository) CountByRecipient(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	err := r.dao.WithContext(ctx).Model(&model.NoteNotification{}).
		Where("recipient_id = ?", recipientID).
		Count(&count).Error
	return count, err
}

// MarkSent 仅更新 pending 状态的记录，重复调用不会改变 sent_at
func (r *notificationRepository) MarkSent(ctx context.Context, id string, at time.Time) error {
	return r.dao.WithContext(ctx).Model(&model.NoteNotification{}).
		Where("id = ? AND status = ?", id, string(domain.NotificationStatusPending)).
		Updates(map[string]interface{}{
			"status":     string(domain.NotificationStatusSent),
			"sent_at":    at,
			"updated_at": at,
		}).Error
}

func (r *notificationRepository) RecordFailure(ctx context.Context, id string, reason string, maxAttempts int, at time.Time) (*domain.Notification, error) {
	reason = truncateUTF8(reason, maxLastErrorLen)

	err := r.dao.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.NoteNotification{}).
			Where("id = ? AND status = ?", id, string(domain.NotificationStatusPending)).
			Updates(map[string]interface{}{
				"attempts":   gorm.Expr("attempts + 1"),
				"last_error": reason,
				"updated_at": at,
			})
		if result.Error != nil {
			return result.Error
		}
		if maxAttempts <= 0 {
			return nil
		}
		return tx.Model(&model.NoteNotification{}).
			Where("id = ? AND status = ? AND attempts >= ?", id, string(domain.NotificationStatusPending), maxAttempts).
			Update("status", string(domain.NotificationStatusFailed)).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// truncateUTF8 按字节截断，但不拆分多字节字符
func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

func (r *notificationRepository) DeleteByNote(ctx context.Context, noteID string) error {
	return r.dao.WithContext(ctx).Where("note_id = ?", noteID).Delete(&model.NoteNotification{}).Error
}

func (r *notificationRepository) DeletePendingByRecipient(ctx context.Context, noteID, recipientID string) error {
	return r.dao.WithContext(ctx).
		Where("note_id = ? AND recipient_id = ? AND status = ?", noteID, recipientID, string(domain.NotificationStatusPending)).
		Delete(&model.NoteNotification{}).Error
}
