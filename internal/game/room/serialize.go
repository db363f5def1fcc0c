package room

import (
	"time"

	"github.com/palemoky/quiz-room/internal/game/quiz"
	"github.com/palemoky/quiz-room/internal/protocol"
	"github.com/palemoky/quiz-room/internal/server/storage"
)

// Summary 房间概要，供管理器列表和外部存储使用。可比较
type Summary struct {
	RoomID     string
	Name       string
	Clients    int
	MaxClients int
	CreatedAt  time.Time
	Phase      quiz.Phase
	Disposed   bool
}

func (r *Room) buildSummary() Summary {
	return Summary{
		RoomID:     r.id,
		Name:       r.name,
		Clients:    len(r.state.Players),
		MaxClients: r.settings.MaxClients,
		CreatedAt:  r.createdAt,
		Phase:      r.state.Phase,
		Disposed:   r.disposed,
	}
}

// Joinable 房间未解散且还有空位
func (s Summary) Joinable() bool {
	return !s.Disposed && s.Clients < s.MaxClients
}

// ToListItem 转换为房间列表项
func (s Summary) ToListItem() protocol.RoomListItem {
	return protocol.RoomListItem{
		RoomID:     s.RoomID,
		Name:       s.Name,
		Clients:    s.Clients,
		MaxClients: s.MaxClients,
		CreatedAt:  s.CreatedAt.UnixMilli(),
		Phase:      string(s.Phase),
	}
}

// ToRoomData 转换为可序列化的 RoomData
func (s Summary) ToRoomData(now time.Time) *storage.RoomData {
	return &storage.RoomData{
		ID:         s.RoomID,
		Name:       s.Name,
		Clients:    s.Clients,
		MaxClients: s.MaxClients,
		Phase:      string(s.Phase),
		CreatedAt:  s.CreatedAt.UnixMilli(),
		UpdatedAt:  now.UnixMilli(),
	}
}
