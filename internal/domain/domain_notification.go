package domain

import "time"

// NotificationKind 提醒类型
type NotificationKind string

const (
	NotificationKindDeadlineReminder NotificationKind = "deadline_reminder"
)

// NotificationStatus 提醒状态；pending -> sent 与 pending -> failed 都是终态转换
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// Notification 某个接收人针对某条笔记的截止提醒
type Notification struct {
	ID          string
	RecipientID string
	NoteID      string
	Kind        NotificationKind
	Title       string
	Message     string
	Status      NotificationStatus
	Attempts    int
	LastError   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	SentAt      *time.Time
}

// IsSent 是否已发送
func (n *Notification) IsSent() bool {
	return n.Status == NotificationStatusSent
}

// IsPending 是否待发送
func (n *Notification) IsPending() bool {
	return n.Status == NotificationStatusPending
}

// DueReminder 一次扫描中到期的提醒
type DueReminder struct {
	Notification       *Notification
	Note               *Note
	HoursUntilDeadline float64
}

// SweepResult 一次扫描的统计；Exhausted 为本次达到重试上限的提醒数，
// Skipped 为 ctx 取消后未尝试投递、仍为 pending 的提醒数
type SweepResult struct {
	Total     int `json:"total"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
	Exhausted int `json:"exhausted"`
	Skipped   int `json:"skipped"`
}
