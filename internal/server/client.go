package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/quiz-room/internal/apperrors"
	"github.com/palemoky/quiz-room/internal/game/room"
	"github.com/palemoky/quiz-room/internal/logger"
	"github.com/palemoky/quiz-room/internal/protocol"
	"github.com/palemoky/quiz-room/internal/protocol/codec"
)

const (
	// 写入超时
	writeWait = 10 * time.Second

	// 读取超时（pong 等待时间）
	pongWait = 60 * time.Second

	// ping 发送间隔（必须小于 pongWait）
	pingPeriod = (pongWait * 9) / 10

	// 消息最大大小
	maxMessageSize = 4096

	sendBufferSize = 256

	// 超限次数过多时断开连接
	maxRateWarnings = 5

	// 投递到房间的超时
	deliverTimeout = 5 * time.Second
)

// Client 一个 WebSocket 连接，实现 types.ClientInterface
type Client struct {
	ID string // 玩家 ID，重连时沿用原 ID
	IP string

	server *Server
	conn   *websocket.Conn
	send   chan []byte
	log    zerolog.Logger

	mu     sync.RWMutex
	roomID string
	room    *room.Room
	closed  bool
	dropped bool // 服务端因发送缓冲区满而主动断开
}

// NewClient 创建客户端
func NewClient(s *Server, conn *websocket.Conn, id, ip string) *Client {
	return &Client{
		ID:     id,
		IP:     ip,
		server: s,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		log:    log.With().Str("player_id", id).Str("ip", ip).Logger(),
	}
}

func (c *Client) GetID() string { return c.ID }

// GetRoom 获取客户端所在房间
func (c *Client) GetRoom() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID
}

// SetRoom 设置客户端所在房间（由房间协程调用）
func (c *Client) SetRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID = roomID
}

func (c *Client) attach(r *room.Room) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.room = r
}

func (c *Client) currentRoom() *room.Room {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.room
}

// ReadPump 从 WebSocket 读取消息并投递到房间
func (c *Client) ReadPump() {
	consented := false
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
		c.handleDisconnect(consented)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	msg := codec.GetMessage()
	defer codec.PutMessage(msg)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			consented = c.consentedClose(err)
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn().Err(err).Msg("读取错误")
			}
			return
		}

		allowed, warnings := c.server.messageLimiter.AllowMessage(c.ID)
		if !allowed {
			c.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeRateLimit, "消息发送过于频繁"))
			if warnings > maxRateWarnings {
				c.log.Warn().Msg("🚫 多次超速，断开连接")
				return
			}
			continue
		}

		if err := codec.DecodeInto(data, msg); err != nil {
			c.log.Debug().Err(err).Msg("消息解析错误")
			c.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
			continue
		}
		in, err := room.DecodeInbound(msg)
		if err != nil {
			c.log.Debug().Err(err).Str("type", string(msg.Type)).Msg("无效消息")
			c.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
			continue
		}

		if err := c.deliver(in); err != nil {
			if errors.Is(err, apperrors.ErrRoomClosed) || errors.Is(err, apperrors.ErrNotInRoom) {
				c.SendMessage(codec.NewErrorMessage(apperrors.CodeOf(err)))
				return
			}
			c.log.Warn().Err(err).Msg("投递消息失败")
		}
		if _, ok := in.(room.Leave); ok {
			return
		}
	}
}

func (c *Client) deliver(in room.Inbound) error {
	r := c.currentRoom()
	if r == nil {
		return apperrors.ErrNotInRoom
	}
	ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer cancel()
	return r.Deliver(ctx, c, in)
}

// WritePump 向 WebSocket 写入消息
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage 发送消息，缓冲区满时断开连接
func (c *Client) SendMessage(msg *protocol.Message) {
	data, err := codec.Encode(msg)
	if err != nil {
		c.log.Error().Err(err).Str("type", string(msg.Type)).Msg("消息编码错误")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.log.Warn().Msg("发送缓冲区已满，断开连接")
		c.dropped = true
		c.closeLocked()
	}
}

// Close 关闭发送通道，WritePump 随后发送关闭帧
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// consentedClose 对端发来正常关闭帧，且不是回应服务端主动断开
func (c *Client) consentedClose(err error) bool {
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.dropped
}

// handleDisconnect 通知房间连接断开。consented 表示客户端正常关闭
func (c *Client) handleDisconnect(consented bool) {
	// 重连后旧连接与新连接共用 ID，只清理仍在注册表中的连接
	if c.server.unregisterClient(c) {
		c.server.messageLimiter.RemoveClient(c.ID)
	}

	if r := c.currentRoom(); r != nil {
		ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
		defer cancel()
		if err := r.Disconnect(ctx, c, consented); err != nil && !errors.Is(err, apperrors.ErrRoomClosed) {
			c.log.Warn().Err(err).Msg("通知房间断开失败")
		}
	}
	c.Close()
	c.log.Info().Bool("consented", consented).Msg("❌ 连接已断开")
}
