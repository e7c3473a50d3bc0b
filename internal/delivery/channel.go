// Package delivery sends due deadline reminders to their recipients.
// Package delivery 负责投递到期提醒
package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/haierkeys/issue-note-service/internal/domain"
)

// Reminder 一次投递的内容
type Reminder struct {
	NotificationID     string    `json:"notificationId"`
	RecipientID        string    `json:"recipientId"`
	NoteID             string    `json:"noteId"`
	ContainerKey       string    `json:"containerKey"`
	NoteTitle          string    `json:"noteTitle"`
	Title              string    `json:"title"`
	Message            string    `json:"message"`
	Deadline           time.Time `json:"deadline"`
	HoursUntilDeadline float64   `json:"hoursUntilDeadline"`
}

// FromDue 由到期条目构造投递内容
func FromDue(due *domain.DueReminder) Reminder {
	r := Reminder{HoursUntilDeadline: due.HoursUntilDeadline}
	if n := due.Notification; n != nil {
		r.NotificationID = n.ID
		r.RecipientID = n.RecipientID
		r.NoteID = n.NoteID
		r.Title = n.Title
		r.Message = n.Message
	}
	if note := due.Note; note != nil {
		r.ContainerKey = note.ContainerKey
		r.NoteTitle = note.Title
		if note.Deadline != nil {
			r.Deadline = *note.Deadline
		}
	}
	return r
}

// Overdue 截止时间已过
func (r Reminder) Overdue() bool {
	return r.HoursUntilDeadline < 0
}

// Urgency 紧急程度描述
func (r Reminder) Urgency() string {
	switch {
	case r.Overdue():
		return fmt.Sprintf("overdue by %.1f hours", -r.HoursUntilDeadline)
	case r.HoursUntilDeadline < 1:
		return "due within the hour"
	default:
		return fmt.Sprintf("due in %.1f hours", r.HoursUntilDeadline)
	}
}

// Channel 投递渠道；返回 nil 表示投递成功
type Channel interface {
	Name() string
	Deliver(ctx context.Context, r Reminder) error
}
