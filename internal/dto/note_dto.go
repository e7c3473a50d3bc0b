// Package dto Defines data transfer objects (request parameters and response structs)
// Package dto 定义数据传输对象（请求参数和响应结构体）
package dto

import (
	"time"

	"github.com/haierkeys/issue-note-service/pkg/optional"
	"github.com/haierkeys/issue-note-service/pkg/timex"
)

// NoteDTO Note data transfer object
// NoteDTO 笔记数据传输对象
type NoteDTO struct {
	ID           string      `json:"id"`
	ContainerKey string      `json:"containerKey"`
	Title        string      `json:"title"`
	Content      string      `json:"content"`
	OwnerID      string      `json:"ownerId"`
	Deadline     *timex.Time `json:"deadline"`
	IsPublic     bool        `json:"isPublic"`
	Status       string      `json:"status"`
	Version      int64       `json:"version"`
	CreatedAt    timex.Time  `json:"createdAt"`
	UpdatedAt    timex.Time  `json:"updatedAt"`
}

// NoteCreateRequest Request parameters for creating a note
// 创建笔记请求参数
type NoteCreateRequest struct {
	ContainerKey string     `json:"containerKey" form:"containerKey" binding:"required,notblank"` // 容器标识
	Title        string     `json:"title" form:"title" binding:"required"`                        // 标题
	Content      string     `json:"content" form:"content"`                                       // 内容
	Deadline     *time.Time `json:"deadline" form:"deadline"`                                     // 截止时间 (RFC3339)
	IsPublic     bool       `json:"isPublic" form:"isPublic"`                                     // 是否公开
}

// NoteGetRequest Request parameters for reading a single note
// 获取单条笔记请求参数
type NoteGetRequest struct {
	ID string `json:"id" form:"id" binding:"required"`
}

// NoteUpdateRequest Partial update; only keys present in the JSON body are changed
// 局部更新请求，只修改请求体中出现的字段；deadline 为 null 表示清除
type NoteUpdateRequest struct {
	ID       string                     `json:"id" form:"id" binding:"required"`
	Title    optional.Value[string]     `json:"title"`
	Content  optional.Value[string]     `json:"content"`
	Deadline optional.Value[*time.Time] `json:"deadline"`
	IsPublic optional.Value[bool]       `json:"isPublic"`
	Status   optional.Value[string]     `json:"status"`
	Version  optional.Value[int64]      `json:"version"` // 期望版本，提供时不一致返回冲突
}

// NoteDeleteRequest Request parameters for deleting a note
// 删除笔记请求参数
type NoteDeleteRequest struct {
	ID string `json:"id" form:"id" binding:"required"`
}

// NoteListRequest Request parameters for listing notes of a container
// 容器笔记列表请求参数
type NoteListRequest struct {
	ContainerKey string `json:"container" form:"container" binding:"required,notblank"`
}
