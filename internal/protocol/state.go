package protocol

import (
	"maps"
	"slices"
)

// NumSeats 桌边座位数
const NumSeats = 4

// PlayerState 玩家的同步视图
type PlayerState struct {
	ID           string  `json:"id"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Z            float64 `json:"z"`
	RotationY    float64 `json:"rotationY"`
	SeatIndex    int     `json:"seatIndex"`    // -1 表示没有座位
	PlayerNumber int     `json:"playerNumber"` // SeatIndex+1，无座位为 0
	IsHost       bool    `json:"isHost"`
	Connected    bool    `json:"connected"`
	IsReady      bool    `json:"isReady"`
	Score        int     `json:"score"`
}

// QuestionState 当前题目的同步视图，不包含正确答案
type QuestionState struct {
	Question string           `json:"question"`
	Options  [NumSeats]string `json:"options"`
}

// RoomState 房间的完整同步视图
type RoomState struct {
	RoomID            string                 `json:"roomId"`
	RoomName          string                 `json:"roomName"`
	CreatedAt         int64                  `json:"createdAt"` // Unix 毫秒
	HostID            string                 `json:"hostId"`
	SeatOccupancy     [NumSeats]bool         `json:"seatOccupancy"`
	Players           map[string]PlayerState `json:"players"`
	GamePhase         string                 `json:"gamePhase"`
	CurrentRound      int                    `json:"currentRound"`
	CurrentQuestion   *QuestionState         `json:"currentQuestion"`
	TimeRemaining     int                    `json:"timeRemaining"`
	EliminatedPlayers []string               `json:"eliminatedPlayers"` // 有序
}

// QuestionChange 包装题目变更，Value 为 nil 表示题目被清空
type QuestionChange struct {
	Value *QuestionState `json:"value"`
}

// StateDelta 两个 RoomState 之间的差异，nil 字段表示未变化
type StateDelta struct {
	HostID            *string                `json:"hostId,omitempty"`
	SeatOccupancy     *[NumSeats]bool        `json:"seatOccupancy,omitempty"`
	Players           map[string]PlayerState `json:"players,omitempty"` // 新增或变化的玩家
	RemovedPlayers    []string               `json:"removedPlayers,omitempty"`
	GamePhase         *string                `json:"gamePhase,omitempty"`
	CurrentRound      *int                   `json:"currentRound,omitempty"`
	CurrentQuestion   *QuestionChange        `json:"currentQuestion,omitempty"`
	TimeRemaining     *int                   `json:"timeRemaining,omitempty"`
	EliminatedPlayers *[]string              `json:"eliminatedPlayers,omitempty"`
}

// Empty 是否没有任何变化
func (d *StateDelta) Empty() bool {
	return d.HostID == nil && d.SeatOccupancy == nil && len(d.Players) == 0 &&
		len(d.RemovedPlayers) == 0 && d.GamePhase == nil && d.CurrentRound == nil &&
		d.CurrentQuestion == nil && d.TimeRemaining == nil && d.EliminatedPlayers == nil
}

// Clone 深拷贝
func (s *RoomState) Clone() *RoomState {
	if s == nil {
		return nil
	}
	c := *s
	c.Players = maps.Clone(s.Players)
	c.EliminatedPlayers = slices.Clone(s.EliminatedPlayers)
	if s.CurrentQuestion != nil {
		q := *s.CurrentQuestion
		c.CurrentQuestion = &q
	}
	return &c
}

// Diff 计算从 prev 到 next 的增量。prev 为 nil 时视为空状态
func Diff(prev, next *RoomState) StateDelta {
	if prev == nil {
		prev = &RoomState{}
	}
	var d StateDelta

	if prev.HostID != next.HostID {
		d.HostID = &next.HostID
	}
	if prev.SeatOccupancy != next.SeatOccupancy {
		occ := next.SeatOccupancy
		d.SeatOccupancy = &occ
	}
	for id, p := range next.Players {
		if old, ok := prev.Players[id]; !ok || old != p {
			if d.Players == nil {
				d.Players = make(map[string]PlayerState)
			}
			d.Players[id] = p
		}
	}
	for id := range prev.Players {
		if _, ok := next.Players[id]; !ok {
			d.RemovedPlayers = append(d.RemovedPlayers, id)
		}
	}
	slices.Sort(d.RemovedPlayers)
	if prev.GamePhase != next.GamePhase {
		d.GamePhase = &next.GamePhase
	}
	if prev.CurrentRound != next.CurrentRound {
		d.CurrentRound = &next.CurrentRound
	}
	if !sameQuestion(prev.CurrentQuestion, next.CurrentQuestion) {
		d.CurrentQuestion = &QuestionChange{}
		if next.CurrentQuestion != nil {
			q := *next.CurrentQuestion
			d.CurrentQuestion.Value = &q
		}
	}
	if prev.TimeRemaining != next.TimeRemaining {
		d.TimeRemaining = &next.TimeRemaining
	}
	if !slices.Equal(prev.EliminatedPlayers, next.EliminatedPlayers) ||
		(prev.EliminatedPlayers == nil) != (next.EliminatedPlayers == nil) {
		elim := slices.Clone(next.EliminatedPlayers)
		if elim == nil {
			elim = []string{}
		}
		d.EliminatedPlayers = &elim
	}
	return d
}

// Apply 将增量应用到状态上。重复应用同一增量结果不变
func (s *RoomState) Apply(d StateDelta) {
	if d.HostID != nil {
		s.HostID = *d.HostID
	}
	if d.SeatOccupancy != nil {
		s.SeatOccupancy = *d.SeatOccupancy
	}
	if len(d.Players) > 0 && s.Players == nil {
		s.Players = make(map[string]PlayerState, len(d.Players))
	}
	for id, p := range d.Players {
		s.Players[id] = p
	}
	for _, id := range d.RemovedPlayers {
		delete(s.Players, id)
	}
	if d.GamePhase != nil {
		s.GamePhase = *d.GamePhase
	}
	if d.CurrentRound != nil {
		s.CurrentRound = *d.CurrentRound
	}
	if d.CurrentQuestion != nil {
		s.CurrentQuestion = nil
		if d.CurrentQuestion.Value != nil {
			q := *d.CurrentQuestion.Value
			s.CurrentQuestion = &q
		}
	}
	if d.TimeRemaining != nil {
		s.TimeRemaining = *d.TimeRemaining
	}
	if d.EliminatedPlayers != nil {
		s.EliminatedPlayers = slices.Clone(*d.EliminatedPlayers)
	}
}

func sameQuestion(a, b *QuestionState) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
