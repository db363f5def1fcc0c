package codec

import (
	"bytes"
	"sync"

	"github.com/palemoky/quiz-room/internal/protocol"
)

var (
	messagePool = sync.Pool{
		New: func() any { return &protocol.Message{} },
	}

	bufferPool = sync.Pool{
		New: func() any { return new(bytes.Buffer) },
	}
)

// GetMessage 从池中取一个消息，用于连接读循环复用
func GetMessage() *protocol.Message {
	return messagePool.Get().(*protocol.Message)
}

// PutMessage 清空后放回池中
func PutMessage(msg *protocol.Message) {
	if msg == nil {
		return
	}
	msg.Type = ""
	msg.Payload = nil
	messagePool.Put(msg)
}

// GetBuffer 取编码缓冲区
func GetBuffer() *bytes.Buffer {
	return bufferPool.Get().(*bytes.Buffer)
}

// PutBuffer 重置后放回，保留容量
func PutBuffer(buf *bytes.Buffer) {
	if buf == nil {
		return
	}
	buf.Reset()
	bufferPool.Put(buf)
}
