// Package membership looks up which users belong to a container and how to reach them.
// Package membership 查询容器成员及其联系方式
package membership

import (
	"context"
	"sort"
)

// Member 容器成员
type Member struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
}

// Directory 成员目录
type Directory interface {
	// Members 返回容器成员，按 UserID 排序
	Members(ctx context.Context, containerKey string) ([]Member, error)
	// Email 返回用户邮箱，没有记录时返回空字符串
	Email(ctx context.Context, userID string) (string, error)
	// Close 释放连接
	Close() error
}

// StaticConfig 配置文件中的静态成员表
type StaticConfig struct {
	Containers map[string][]string `yaml:"containers"` // container key -> user ids
	Emails     map[string]string   `yaml:"emails"`     // user id -> email
}

// staticDirectory 基于配置的目录
type staticDirectory struct {
	cfg StaticConfig
}

// NewStaticDirectory 创建静态目录
func NewStaticDirectory(cfg StaticConfig) Directory {
	return &staticDirectory{cfg: cfg}
}

func (d *staticDirectory) Members(_ context.Context, containerKey string) ([]Member, error) {
	ids := d.cfg.Containers[containerKey]
	members := make([]Member, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		members = append(members, Member{UserID: id, Email: d.cfg.Emails[id]})
	}
	sortMembers(members)
	return members, nil
}

func (d *staticDirectory) Email(_ context.Context, userID string) (string, error) {
	return d.cfg.Emails[userID], nil
}

func (d *staticDirectory) Close() error {
	return nil
}

func sortMembers(members []Member) {
	sort.Slice(members, func(i, j int) bool { return members[i].UserID < members[j].UserID })
}
