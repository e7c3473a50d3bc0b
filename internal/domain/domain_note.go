// Package domain 定义领域模型和接口
package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/haierkeys/issue-note-service/pkg/optional"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("record not found")
	// ErrVersionConflict 乐观锁版本不一致
	ErrVersionConflict = errors.New("version conflict")
)

// NoteStatus 笔记生命周期状态
type NoteStatus string

const (
	NoteStatusOpen      NoteStatus = "open"
	NoteStatusCompleted NoteStatus = "completed"
)

// Valid 是否为合法状态
func (s NoteStatus) Valid() bool {
	return s == NoteStatusOpen || s == NoteStatusCompleted
}

// Note 笔记领域模型
type Note struct {
	ID           string
	ContainerKey string
	Title        string
	Content      string
	OwnerID      string
	Deadline     *time.Time
	IsPublic     bool
	Status       NoteStatus
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsOwner 判断用户是否为笔记所有者
func (n *Note) IsOwner(uid string) bool {
	return n != nil && uid != "" && n.OwnerID == uid
}

// HasDeadline 是否设置了截止时间
func (n *Note) HasDeadline() bool {
	return n != nil && n.Deadline != nil && !n.Deadline.IsZero()
}

// NotePatch 局部更新；未设置的字段保持不变
type NotePatch struct {
	Title    optional.Value[string]
	Content  optional.Value[string]
	Deadline optional.Value[*time.Time]
	IsPublic optional.Value[bool]
	Status   optional.Value[NoteStatus]
	// ExpectedVersion 设置时必须与当前版本一致
	ExpectedVersion optional.Value[int64]
}

// Apply 将补丁应用到笔记，不做校验
func (n *Note) Apply(p NotePatch) {
	if v, ok := p.Title.Get(); ok {
		n.Title = strings.TrimSpace(v)
	}
	if v, ok := p.Content.Get(); ok {
		n.Content = v
	}
	if v, ok := p.Deadline.Get(); ok {
		n.Deadline = v
	}
	if v, ok := p.IsPublic.Get(); ok {
		n.IsPublic = v
	}
	if v, ok := p.Status.Get(); ok {
		n.Status = v
	}
}

// IsBlank 去除空白后是否为空
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
