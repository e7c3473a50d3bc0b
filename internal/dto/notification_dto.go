package dto

import "github.com/haierkeys/issue-note-service/pkg/timex"

// NotificationDTO 提醒数据传输对象
type NotificationDTO struct {
	ID        string      `json:"id"`
	NoteID    string      `json:"noteId"`
	Kind      string      `json:"kind"`
	Title     string      `json:"title"`
	Message   string      `json:"message"`
	Status    string      `json:"status"`
	Attempts  int         `json:"attempts"`
	CreatedAt timex.Time  `json:"createdAt"`
	SentAt    *timex.Time `json:"sentAt"`
}
