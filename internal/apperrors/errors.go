package apperrors

import (
	"errors"

	"github.com/palemoky/quiz-room/internal/protocol"
)

// GameError 游戏错误（房间和连接层共享）
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// 预定义错误
var (
	ErrRoomNotFound     = &GameError{Code: protocol.ErrCodeRoomNotFound, Message: "房间不存在"}
	ErrRoomFull         = &GameError{Code: protocol.ErrCodeRoomFull, Message: "房间已满"}
	ErrNotInRoom        = &GameError{Code: protocol.ErrCodeNotInRoom, Message: "您不在房间中"}
	ErrRoomClosed       = &GameError{Code: protocol.ErrCodeRoomClosed, Message: "房间已关闭"}
	ErrReconnectFailed  = &GameError{Code: protocol.ErrCodeReconnectFailed, Message: "重连失败，会话已过期"}
	ErrInvalidMessage   = &GameError{Code: protocol.ErrCodeInvalidMsg, Message: "无效的消息格式"}
	ErrInvalidQuestions = &GameError{Code: protocol.ErrCodeUnknown, Message: "题库格式错误"}
)

// CodeOf 返回错误对应的协议错误码，非 GameError 返回 ErrCodeUnknown
func CodeOf(err error) int {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return protocol.ErrCodeUnknown
}
