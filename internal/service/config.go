// Package service implements the business logic layer
// Package service 实现业务逻辑层
package service

// ServiceConfig service layer configuration
// ServiceConfig 服务层配置
type ServiceConfig struct {
	Note         NoteServiceConfig         // Note related config // 笔记相关配置
	Notification NotificationServiceConfig // Reminder related config // 提醒相关配置
}

// NoteServiceConfig note service configuration
// NoteServiceConfig 笔记服务配置
type NoteServiceConfig struct {
	ShareConcurrency int // Concurrent grantees in one batch share // 批量分享并发数
}

// NotificationServiceConfig reminder service configuration
// NotificationServiceConfig 提醒服务配置
type NotificationServiceConfig struct {
	DueWindowHours float64 // Reminders are due when the deadline is within this many hours // 距截止时间小于等于该小时数时到期
	MaxAttempts    int     // Delivery attempts before a reminder is marked failed, 0 means unlimited // 最大投递次数，0 表示不限
}

// DefaultServiceConfig 默认配置
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		Note:         NoteServiceConfig{ShareConcurrency: 8},
		Notification: NotificationServiceConfig{DueWindowHours: 24, MaxAttempts: 5},
	}
}

func (c *ServiceConfig) shareConcurrency() int {
	if c == nil || c.Note.ShareConcurrency <= 0 {
		return 8
	}
	return c.Note.ShareConcurrency
}

func (c *ServiceConfig) dueWindowHours() float64 {
	if c == nil || c.Notification.DueWindowHours <= 0 {
		return 24
	}
	return c.Notification.DueWindowHours
}

func (c *ServiceConfig) maxAttempts() int {
	if c == nil || c.Notification.MaxAttempts < 0 {
		return 0
	}
	return c.Notification.MaxAttempts
}
