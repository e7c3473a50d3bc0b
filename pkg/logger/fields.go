package logger

// 统一的日志字段命名常量
// 用于确保整个项目中日志字段命名的一致性，便于日志查询和分析
const (
	// FieldTraceID 追踪 ID 字段
	FieldTraceID = "traceId"

	// FieldUID 用户 ID 字段
	FieldUID = "uid"

	// FieldAction 操作类型字段
	FieldAction = "action"

	// FieldNoteID 笔记 ID 字段
	FieldNoteID = "noteId"

	// FieldContainer 容器标识字段
	FieldContainer = "container"

	// FieldGrantee 被分享用户字段
	FieldGrantee = "grantee"

	// FieldNotificationID 提醒 ID 字段
	FieldNotificationID = "notificationId"

	// FieldRecipient 提醒接收人字段
	FieldRecipient = "recipient"

	// FieldChannel 投递渠道字段
	FieldChannel = "channel"

	// FieldDuration 耗时字段
	FieldDuration = "duration"

	// FieldMethod 方法名称字段
	FieldMethod = "method"

	// FieldError 错误信息字段
	FieldError = "error"

	// FieldTask 定时任务名称字段
	FieldTask = "task"
)
