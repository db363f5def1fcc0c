package client

import (
	"context"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/quiz-room/internal/logger"
	"github.com/palemoky/quiz-room/internal/protocol"
)

// onLinkLost 连接断开：意外断开且持有重连令牌时重连，否则关闭客户端。
// 服务端正常关闭（离开、房间销毁）不重连
func (c *Client) onLinkLost(l *link, err error) {
	normal := websocket.IsCloseError(err, websocket.CloseNormalClosure)
	if normal {
		err = nil
	}

	c.mu.Lock()
	if c.closed || c.link != l {
		c.mu.Unlock()
		return
	}
	canRetry := !normal && !c.leaving && c.session.Token != ""
	attempts := c.reconnectCount
	c.mu.Unlock()

	if !canRetry {
		c.shutdown(err)
		return
	}
	if attempts >= maxReconnectAttempts {
		log.Warn().Int("attempts", attempts).Msg("重连失败次数过多，放弃")
		c.shutdown(ErrReconnectFailed)
		return
	}

	c.reconnecting.Store(true)
	go c.tryReconnect()
}

// backoff 第 n 次重连前的等待时间
func (c *Client) backoff(attempt int) time.Duration {
	d := c.ReconnectInterval
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxReconnectBackoff {
			return maxReconnectBackoff
		}
	}
	return d
}

// tryReconnect 指数退避重连，直到建立连接或次数用尽。
// 服务端是否接受由随后的 joined 或 error 消息决定
func (c *Client) tryReconnect() {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
			c.shutdown(ErrReconnectFailed)
		}
	}()

	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		if c.reconnectCount >= maxReconnectAttempts {
			c.mu.Unlock()
			c.shutdown(ErrReconnectFailed)
			return
		}
		c.reconnectCount++
		attempt := c.reconnectCount
		s := c.session
		c.mu.Unlock()

		if c.OnReconnecting != nil {
			c.OnReconnecting(attempt, maxReconnectAttempts)
		}
		log.Info().Int("attempt", attempt).Int("max", maxReconnectAttempts).Msg("🔄 尝试重连")

		select {
		case <-c.clock.After(c.backoff(attempt)):
		case <-c.done:
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), handshakeTimeout)
		err := c.dial(ctx, url.Values{"room": {s.RoomID}, "player": {s.PlayerID}, "token": {s.Token}})
		cancel()
		if err == nil {
			return
		}
		log.Debug().Err(err).Int("attempt", attempt).Msg("重连失败")
	}
}

// Leave 主动离开房间，服务端随后关闭连接，不会触发重连
func (c *Client) Leave() error {
	c.mu.Lock()
	c.leaving = true
	c.mu.Unlock()
	return c.Send(protocol.MsgLeave, nil)
}
