package types

import (
	"github.com/palemoky/quiz-room/internal/protocol"
)

// ClientInterface 定义客户端接口（用于打破 room 与 server 之间的循环依赖）
type ClientInterface interface {
	GetID() string
	GetRoom() string
	SetRoom(id string)
	SendMessage(msg *protocol.Message)
	Close()
}
