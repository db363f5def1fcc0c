package client

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/quiz-room/internal/logger"
	"github.com/palemoky/quiz-room/internal/protocol"
	"github.com/palemoky/quiz-room/internal/protocol/codec"
)

// readPump 读取服务端消息，连接断开后决定重连还是关闭
func (c *Client) readPump(l *link) {
	var readErr error
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
		l.stop()
		_ = l.conn.Close()
		c.onLinkLost(l, readErr)
	}()

	_ = l.conn.SetReadDeadline(time.Now().Add(pongWait))
	l.conn.SetPongHandler(func(string) error {
		_ = l.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := l.conn.ReadMessage()
		if err != nil {
			readErr = err
			return
		}

		msg, err := codec.Decode(data)
		if err != nil {
			log.Debug().Err(err).Msg("消息解析错误")
			continue
		}
		c.intercept(msg)

		select {
		case c.messages <- msg:
		case <-c.done:
			return
		}
	}
}

// intercept 在消息交给上层之前更新会话
func (c *Client) intercept(msg *protocol.Message) {
	switch msg.Type {
	case protocol.MsgJoined:
		p, err := codec.ParsePayload[protocol.JoinedPayload](msg)
		if err != nil {
			return
		}
		c.mu.Lock()
		c.session = Session{PlayerID: p.PlayerID, RoomID: p.RoomID, Token: p.ReconnectToken}
		c.reconnectCount = 0
		c.mu.Unlock()

		if c.reconnecting.Swap(false) {
			log.Info().Str("player_id", p.PlayerID).Msg("🔌 重连成功")
			if c.OnReconnect != nil {
				c.OnReconnect()
			}
		}
	case protocol.MsgError:
		p, err := codec.ParsePayload[protocol.ErrorPayload](msg)
		if err != nil {
			return
		}
		// 房间已不存在，重连没有意义
		if p.Code == protocol.ErrCodeRoomNotFound || p.Code == protocol.ErrCodeRoomClosed {
			c.mu.Lock()
			c.session.Token = ""
			c.mu.Unlock()
		}
	}
}

// writePump 发送消息和 ping
func (c *Client) writePump(l *link) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = l.conn.Close()
	}()

	for {
		select {
		case message := <-l.send:
			_ = l.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := l.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				l.stop()
				return
			}
		case <-ticker.C:
			_ = l.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := l.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				l.stop()
				return
			}
		case <-l.done:
			return
		}
	}
}

// StartHeartbeat 定期发送 heartbeat，Done 关闭后退出
func (c *Client) StartHeartbeat() {
	go func() {
		ticker := c.clock.NewTicker(heartbeatInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.Chan():
				if !c.IsReconnecting() {
					_ = c.Send(protocol.MsgHeartbeat, nil)
				}
			case <-c.done:
				return
			}
		}
	}()
}
