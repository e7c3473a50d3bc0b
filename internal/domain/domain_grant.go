package domain

import "time"

// GrantLevel 授权级别
type GrantLevel string

const (
	GrantLevelRead  GrantLevel = "read"
	GrantLevelWrite GrantLevel = "write"
)

// Valid 是否为合法级别
func (l GrantLevel) Valid() bool {
	return l == GrantLevelRead || l == GrantLevelWrite
}

// Satisfies reports whether a grant at level l covers the required level.
// A write grant covers read; a read grant never covers write.
func (l GrantLevel) Satisfies(required GrantLevel) bool {
	switch required {
	case GrantLevelRead:
		return l == GrantLevelRead || l == GrantLevelWrite
	case GrantLevelWrite:
		return l == GrantLevelWrite
	default:
		return false
	}
}

// Grant 单个用户对单条笔记的授权，(NoteID, GranteeID) 唯一
type Grant struct {
	ID        string
	NoteID    string
	GranteeID string
	Level     GrantLevel
	GrantedBy string
	GrantedAt time.Time
}

// ShareOutcome 批量分享中单个用户的结果
type ShareOutcome struct {
	GranteeID string `json:"granteeId"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// ShareManyResult 批量分享结果；部分失败不是错误
type ShareManyResult struct {
	Total     int             `json:"total"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Outcomes  []*ShareOutcome `json:"outcomes"`
}
