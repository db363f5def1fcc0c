package protocol

// 错误码
const (
	ErrCodeUnknown         = 1000
	ErrCodeInvalidMsg      = 1001
	ErrCodeRateLimit       = 1002
	ErrCodeRoomNotFound    = 2001
	ErrCodeRoomFull        = 2002
	ErrCodeNotInRoom       = 2003
	ErrCodeRoomClosed      = 2004
	ErrCodeReconnectFailed = 2005 // 重连窗口已过或令牌不匹配
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:         "未知错误",
	ErrCodeInvalidMsg:      "无效的消息格式",
	ErrCodeRateLimit:       "请求过于频繁",
	ErrCodeRoomNotFound:    "房间不存在",
	ErrCodeRoomFull:        "房间已满",
	ErrCodeNotInRoom:       "您不在房间中",
	ErrCodeRoomClosed:      "房间已关闭",
	ErrCodeReconnectFailed: "重连失败，会话已过期",
}
