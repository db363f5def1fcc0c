package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/quiz-room/internal/protocol"
)

const (
	maxRequestBody  = 4096
	maxRoomNameRune = 64
)

// handleCreateRoom POST /rooms {roomName, createdByPlayer}
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	clientIP := GetClientIP(r)
	if !s.rateLimiter.Allow(clientIP) {
		writeError(w, http.StatusTooManyRequests, protocol.ErrCodeRateLimit)
		return
	}

	var req protocol.CreateRoomRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, protocol.ErrCodeInvalidMsg)
		return
	}

	name := strings.TrimSpace(req.RoomName)
	if utf8.RuneCountInString(name) > maxRoomNameRune {
		name = string([]rune(name)[:maxRoomNameRune])
	}

	rm := s.roomManager.CreateRoom(name, req.CreatedByPlayer)
	log.Info().Str("room_id", rm.ID()).Str("ip", clientIP).Bool("created_by_player", req.CreatedByPlayer).Msg("创建房间")
	writeJSON(w, http.StatusCreated, protocol.CreateRoomResponse{RoomID: rm.ID()})
}

// handleListRooms GET /rooms
func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.roomManager.List())
}

// HealthStatus 健康检查响应
type HealthStatus struct {
	Status      string `json:"status"`
	Rooms       int    `json:"rooms"`
	ActiveGames int    `json:"activeGames"`
	Clients     int    `json:"clients"`
}

// handleHealth GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthStatus{
		Status:      "ok",
		Rooms:       s.roomManager.Count(),
		ActiveGames: s.roomManager.ActiveGamesCount(),
		Clients:     s.GetOnlineCount(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("写入响应失败")
	}
}

func writeError(w http.ResponseWriter, status, code int) {
	writeJSON(w, status, protocol.ErrorPayload{Code: code, Message: protocol.ErrorMessages[code]})
}
