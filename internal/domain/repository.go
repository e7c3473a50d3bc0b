package domain

import (
	"context"
	"time"
)

// NoteRepository 笔记仓储接口
type NoteRepository interface {
	// Create 创建笔记
	Create(ctx context.Context, note *Note) (*Note, error)

	// GetByID 根据ID获取笔记，不存在时返回 ErrNotFound
	GetByID(ctx context.Context, id string) (*Note, error)

	// Update 保存笔记字段并递增版本；expectedVersion 非 nil 时版本不一致返回 ErrVersionConflict
	Update(ctx context.Context, note *Note, expectedVersion *int64) (*Note, error)

	// Delete 物理删除笔记
	Delete(ctx context.Context, id string) error

	// ListOwned 获取某容器下用户拥有的笔记
	ListOwned(ctx context.Context, containerKey, ownerID string) ([]*Note, error)

	// ListByIDs 获取某容器下指定 ID 的笔记
	ListByIDs(ctx context.Context, containerKey string, ids []string) ([]*Note, error)

	// ListPublic 获取某容器下的公开笔记
	ListPublic(ctx context.Context, containerKey string) ([]*Note, error)

	// Ping 检查存储连通性
	Ping(ctx context.Context) error
}

// GrantRepository 授权仓储接口
type GrantRepository interface {
	// Upsert 创建或覆盖 (NoteID, GranteeID) 的授权
	Upsert(ctx context.Context, grant *Grant) (*Grant, error)

	// Get 获取授权，不存在时返回 (nil, nil)
	Get(ctx context.Context, noteID, granteeID string) (*Grant, error)

	// ListByNote 获取笔记的全部授权
	ListByNote(ctx context.Context, noteID string) ([]*Grant, error)

	// ListNoteIDsByGrantee 获取用户被授权的笔记 ID
	ListNoteIDsByGrantee(ctx context.Context, granteeID string) ([]string, error)

	// Delete 删除授权，不存在时不报错
	Delete(ctx context.Context, noteID, granteeID string) error

	// DeleteByNote 删除笔记的全部授权
	DeleteByNote(ctx context.Context, noteID string) error
}

// NotificationRepository 提醒仓储接口
type NotificationRepository interface {
	// CreateBatch 批量创建提醒
	CreateBatch(ctx context.Context, items []*Notification) error

	// GetByID 根据ID获取提醒，不存在时返回 ErrNotFound
	GetByID(ctx context.Context, id string) (*Notification, error)

	// ListByNote 获取笔记的全部提醒
	ListByNote(ctx context.Context, noteID string) ([]*Notification, error)

	// ListPending 获取全部待发送提醒
	ListPending(ctx context.Context) ([]*Notification, error)

	// ListByRecipient 分页获取接收人的提醒
	ListByRecipient(ctx context.Context, recipientID string, page, pageSize int) ([]*Notification, error)

	// CountByRecipient 接收人的提醒数量
	CountByRecipient(ctx context.Context, recipientID string) (int64, error)

	// MarkSent 将待发送提醒标记为已发送；已是终态时不做修改
	MarkSent(ctx context.Context, id string, at time.Time) error

	// RecordFailure 记录一次投递失败，尝试次数达到 maxAttempts 时转为 failed
	RecordFailure(ctx context.Context, id string, reason string, maxAttempts int, at time.Time) (*Notification, error)

	// DeleteByNote 删除笔记的全部提醒
	DeleteByNote(ctx context.Context, noteID string) error

	// DeletePendingByRecipient 删除某接收人在该笔记上的待发送提醒
	DeletePendingByRecipient(ctx context.Context, noteID, recipientID string) error
}
