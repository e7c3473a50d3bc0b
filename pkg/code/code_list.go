package code

// Success codes // 成功码
var (
	Success       = NewSuss(1, lang{en: "Success", zh_cn: "成功"})
	SuccessCreate = NewSuss(2, lang{en: "Create success", zh_cn: "创建成功"})
	SuccessUpdate = NewSuss(3, lang{en: "Update success", zh_cn: "更新成功"})
	SuccessDelete = NewSuss(4, lang{en: "Delete success", zh_cn: "删除成功"})
	SuccessShare  = NewSuss(5, lang{en: "Share success", zh_cn: "分享成功"})
	SuccessRevoke = NewSuss(6, lang{en: "Share revoked", zh_cn: "已取消分享"})
	SuccessSweep  = NewSuss(7, lang{en: "Sweep finished", zh_cn: "提醒扫描完成"})
)

// Generic failures // 通用错误
var (
	Failed              = NewError(400, lang{en: "Failed", zh_cn: "失败"})
	ErrorServerInternal = NewError(500, lang{en: "Internal server error", zh_cn: "服务器内部错误"})
	ErrorNotFoundAPI    = NewError(404, lang{en: "API not found", zh_cn: "接口不存在"})
	ErrorTooManyRequest = NewError(429, lang{en: "Too many requests", zh_cn: "请求过多"})
	ErrorRequestTimeout = NewError(408, lang{en: "Request timeout", zh_cn: "请求超时"})
	ErrorDBQuery        = NewError(501, lang{en: "Database query failed", zh_cn: "数据库查询失败"})
)

// Validation failures // 参数校验错误
var (
	ErrorInvalidParams     = NewError(1001, lang{en: "Invalid params", zh_cn: "参数错误"})
	ErrorNoteTitleEmpty    = NewError(1002, lang{en: "Note title must not be empty", zh_cn: "笔记标题不能为空"})
	ErrorContainerKeyEmpty = NewError(1003, lang{en: "Container key is required", zh_cn: "缺少容器标识"})
	ErrorInvalidGrantLevel = NewError(1004, lang{en: "Permission level must be read or write", zh_cn: "权限级别必须为 read 或 write"})
	ErrorInvalidNoteStatus = NewError(1005, lang{en: "Note status must be open or completed", zh_cn: "笔记状态必须为 open 或 completed"})
	ErrorShareGranteeEmpty = NewError(1006, lang{en: "At least one grantee is required", zh_cn: "至少需要一个分享对象"})
	ErrorShareSelf         = NewError(1007, lang{en: "Cannot share a note with its owner", zh_cn: "不能分享给笔记所有者"})
)

// Authorization failures // 鉴权错误
var (
	ErrorNotUserAuthToken     = NewError(2001, lang{en: "Missing user token", zh_cn: "缺少用户令牌"})
	ErrorInvalidUserAuthToken = NewError(2002, lang{en: "Invalid user token", zh_cn: "用户令牌无效"})
	ErrorNotePermissionDenied = NewError(2003, lang{en: "Permission denied", zh_cn: "没有访问该笔记的权限"})
	ErrorNoteOwnerRequired    = NewError(2004, lang{en: "Only the note owner can do this", zh_cn: "只有笔记所有者可以执行此操作"})
)

// Lookup and state failures // 查找与状态错误
var (
	ErrorNoteNotFound        = NewError(3001, lang{en: "Note not found", zh_cn: "笔记不存在"})
	ErrorNoteVersionConflict = NewError(3002, lang{en: "Note was modified by someone else", zh_cn: "笔记已被他人修改"})
	ErrorNotificationFailed  = NewError(3003, lang{en: "Reminder delivery failed", zh_cn: "提醒发送失败"})
)
