// Package events publishes note lifecycle events to the activity feed.
// Package events 向动态流发布笔记事件
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultTopic 动态流主题
const DefaultTopic = "issue-notes.activity"

// EventType 事件类型
type EventType string

const (
	NoteCreated EventType = "note.created"
	NoteUpdated EventType = "note.updated"
	NoteDeleted EventType = "note.deleted"
	NoteShared  EventType = "note.shared"
	NoteRevoked EventType = "note.revoked"
)

// NoteEvent 笔记事件
type NoteEvent struct {
	ID           string            `json:"id"`
	Type         EventType         `json:"type"`
	NoteID       string            `json:"noteId"`
	ContainerKey string            `json:"containerKey"`
	ActorID      string            `json:"actorId"`
	IsPublic     bool              `json:"isPublic"`
	Source       string            `json:"source,omitempty"`
	Attributes   map[string]string `json:"attributes,omitempty"`
	Timestamp    time.Time         `json:"timestamp"`
}

// NewNoteEvent 创建事件并填充 ID 与时间
func NewNoteEvent(t EventType, noteID, containerKey, actorID string, isPublic bool) *NoteEvent {
	return &NoteEvent{
		ID:           uuid.NewString(),
		Type:         t,
		NoteID:       noteID,
		ContainerKey: containerKey,
		ActorID:      actorID,
		IsPublic:     isPublic,
		Timestamp:    time.Now().UTC(),
	}
}

// With 附加属性
func (e *NoteEvent) With(key, value string) *NoteEvent {
	if e.Attributes == nil {
		e.Attributes = make(map[string]string)
	}
	e.Attributes[key] = value
	return e
}

// Publisher 事件发布接口
type Publisher interface {
	Publish(ctx context.Context, event *NoteEvent) error
	Close() error
}

// Nop 不发布任何事件
type Nop struct{}

func (Nop) Publish(context.Context, *NoteEvent) error { return nil }

func (Nop) Close() error { return nil }
