// Package model 定义数据模型
package model

import (
	"time"

	"gorm.io/gorm"
)

// Note 笔记表
type Note struct {
	ID           string     `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	ContainerKey string     `gorm:"column:container_key;type:varchar(255);not null;index:idx_note_container;index:idx_note_container_public,priority:1" json:"containerKey"`
	Title        string     `gorm:"column:title;type:varchar(512);not null" json:"title"`
	Content      string     `gorm:"column:content;type:text" json:"content"`
	OwnerID      string     `gorm:"column:owner_id;type:varchar(128);not null;index:idx_note_owner" json:"ownerId"`
	Deadline     *time.Time `gorm:"column:deadline" json:"deadline"`
	IsPublic     bool       `gorm:"column:is_public;not null;default:false;index:idx_note_container_public,priority:2" json:"isPublic"`
	Status       string     `gorm:"column:status;type:varchar(16);not null;default:open" json:"status"`
	Version      int64      `gorm:"column:version;not null;default:1" json:"version"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime:false" json:"createdAt"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime:false" json:"updatedAt"`
}

// NoteGrant 笔记授权表，(note_id, grantee_id) 唯一
type NoteGrant struct {
	ID        string    `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	NoteID    string    `gorm:"column:note_id;type:varchar(36);not null;uniqueIndex:uk_grant_note_grantee,priority:1" json:"noteId"`
	GranteeID string    `gorm:"column:grantee_id;type:varchar(128);not null;uniqueIndex:uk_grant_note_grantee,priority:2;index:idx_grant_grantee" json:"granteeId"`
	Level     string    `gorm:"column:level;type:varchar(8);not null" json:"level"`
	GrantedBy string    `gorm:"column:granted_by;type:varchar(128);not null" json:"grantedBy"`
	GrantedAt time.Time `gorm:"column:granted_at" json:"grantedAt"`
}

// NoteNotification 截止提醒表
type NoteNotification struct {
	ID          string     `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	RecipientID string     `gorm:"column:recipient_id;type:varchar(128);not null;index:idx_notification_recipient" json:"recipientId"`
	NoteID      string     `gorm:"column:note_id;type:varchar(36);not null;index:idx_notification_note" json:"noteId"`
	Kind        string     `gorm:"column:kind;type:varchar(32);not null" json:"kind"`
	Title       string     `gorm:"column:title;type:varchar(600)" json:"title"`
	Message     string     `gorm:"column:message;type:text" json:"message"`
	Status      string     `gorm:"column:status;type:varchar(16);not null;default:pending;index:idx_notification_status" json:"status"`
	Attempts    int        `gorm:"column:attempts;not null;default:0" json:"attempts"`
	LastError   string     `gorm:"column:last_error;type:varchar(1024)" json:"lastError"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime:false" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime:false" json:"updatedAt"`
	SentAt      *time.Time `gorm:"column:sent_at" json:"sentAt"`
}

// All 返回需要迁移的全部模型
func All() []interface{} {
	return []interface{}{
		&Note{},
		&NoteGrant{},
		&NoteNotification{},
	}
}

// AutoMigrate 按名称迁移单个模型，key 为空时迁移全部
func AutoMigrate(db *gorm.DB, key string) error {
	switch key {
	case "Note":
		return db.AutoMigrate(&Note{})
	case "NoteGrant":
		return db.AutoMigrate(&NoteGrant{})
	case "NoteNotification":
		return db.AutoMigrate(&NoteNotification{})
	case "":
		return db.AutoMigrate(All()...)
	}
	return nil
}
