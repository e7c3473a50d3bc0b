package dto

import "github.com/haierkeys/issue-note-service/pkg/timex"

// NoteShareRequest 分享笔记请求参数
type NoteShareRequest struct {
	ID        string `json:"id" form:"id" binding:"required"`               // 笔记 ID
	GranteeID string `json:"granteeId" form:"granteeId" binding:"required"` // 被分享用户
	Level     string `json:"level" form:"level" binding:"required,grant_level"`
}

// NoteShareManyRequest 批量分享请求参数
type NoteShareManyRequest struct {
	ID         string   `json:"id" form:"id" binding:"required"`
	GranteeIDs []string `json:"granteeIds" form:"granteeIds" binding:"required,min=1"`
	Level      string   `json:"level" form:"level" binding:"required,grant_level"`
}

// NoteRevokeRequest 撤销分享请求参数
type NoteRevokeRequest struct {
	ID        string `json:"id" form:"id" binding:"required"`
	GranteeID string `json:"granteeId" form:"granteeId" binding:"required"`
}

// GrantDTO 授权数据传输对象
type GrantDTO struct {
	NoteID    string     `json:"noteId"`
	GranteeID string     `json:"granteeId"`
	Level     string     `json:"level"`
	GrantedBy string     `json:"grantedBy"`
	GrantedAt timex.Time `json:"grantedAt"`
}

// ShareCandidateDTO 可分享的容器成员；Level 为空表示尚未分享
type ShareCandidateDTO struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
	Level  string `json:"level,omitempty"`
}
