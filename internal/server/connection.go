package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/quiz-room/internal/apperrors"
	"github.com/palemoky/quiz-room/internal/protocol/codec"
)

// handleWebSocket 加入房间：/ws?room=<id>；重连：/ws?room=<id>&player=<id>&token=<t>
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	clientIP := GetClientIP(r)

	if !s.rateLimiter.Allow(clientIP) {
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}

	q := r.URL.Query()
	roomID, playerID, token := q.Get("room"), q.Get("player"), q.Get("token")
	reconnect := playerID != "" && token != ""

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("ip", clientIP).Msg("WebSocket 升级失败")
		return
	}

	id := playerID
	if !reconnect {
		id = uuid.NewString()
	}
	client := NewClient(s, conn, id, clientIP)
	go client.WritePump()

	ctx, cancel := context.WithTimeout(r.Context(), deliverTimeout)
	defer cancel()
	if err := s.admit(ctx, client, roomID, reconnect, token); err != nil {
		client.log.Info().Err(err).Str("room_id", roomID).Bool("reconnect", reconnect).Msg("🚫 拒绝连接")
		client.SendMessage(codec.NewErrorMessage(apperrors.CodeOf(err)))
		client.Close()
		return
	}

	s.registerClient(client)
	client.log.Info().Str("room_id", roomID).Bool("reconnect", reconnect).Msg("✅ 玩家已连接")
	go client.ReadPump()
}

// admit 把连接加入房间，或者在重连窗口内恢复原玩家
func (s *Server) admit(ctx context.Context, client *Client, roomID string, reconnect bool, token string) error {
	rm, err := s.roomManager.GetRoom(roomID)
	if err != nil {
		return err
	}

	if reconnect {
		err = rm.Reconnect(ctx, client.ID, token, client)
	} else {
		_, err = rm.Join(ctx, client)
	}
	if err != nil {
		return err
	}
	client.attach(rm)
	return nil
}

// registerClient 注册客户端
func (s *Server) registerClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[client.ID] = client
}

// unregisterClient 注销客户端并返回是否确实移除。重连后同一 ID 对应新连接，旧连接不能把它注销
func (s *Server) unregisterClient(client *Client) bool {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	if cur, ok := s.clients[client.ID]; ok && cur == client {
		delete(s.clients, client.ID)
		return true
	}
	return false
}

// GetOnlineCount 在线连接数
func (s *Server) GetOnlineCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}
