package events

import "time"

// Kind 事件类型
type Kind string

const (
	RoomCreated      Kind = "room.created"
	RoomDisposed     Kind = "room.disposed"
	GameStarted      Kind = "game.started"
	GameOver         Kind = "game.over"
	PlayerEliminated Kind = "player.eliminated"
)

// Event 房间生命周期事件
type Event struct {
	Kind   Kind      `json:"kind"`
	RoomID string    `json:"roomId"`
	At     time.Time `json:"at"`
	Data   any       `json:"data,omitempty"`
}

// RoomPayload room.created / room.disposed
type RoomPayload struct {
	Name   string `json:"name"`
	Reason string `json:"reason,omitempty"`
}

// GamePayload game.started
type GamePayload struct {
	Players []string `json:"players"`
}

// GameOverPayload game.over
type GameOverPayload struct {
	WinnerID string `json:"winnerId,omitempty"`
	Score    int    `json:"score,omitempty"`
	Tie      bool   `json:"tie,omitempty"`
	Rounds   int    `json:"rounds"`
}

// EliminationPayload player.eliminated
type EliminationPayload struct {
	PlayerID string `json:"playerId"`
	Round    int    `json:"round"`
	Score    int    `json:"score"`
}

// Publisher 发布房间事件。实现必须是非阻塞的，房间协程会直接调用
type Publisher interface {
	Publish(e Event)
	Close()
}

// NopPublisher 不发布任何事件
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}
func (NopPublisher) Close()        {}
