package room

import (
	"slices"
	"time"

	"github.com/palemoky/quiz-room/internal/game/quiz"
	"github.com/palemoky/quiz-room/internal/protocol"
)

// GameState 房间的权威状态
type GameState struct {
	RoomID          string
	RoomName        string
	CreatedAt       time.Time
	HostID          string             // "" 表示没有房主
	SeatOccupancy   [NumSeats]bool     // 由 reconcileSeats 推导
	Players         map[string]*Player // 玩家 ID → 玩家
	Phase           quiz.Phase
	CurrentRound    int // 等待阶段为 0
	CurrentQuestion *quiz.Question
	TimeRemaining   int             // 秒
	Eliminated      map[string]bool // 本局被淘汰的玩家
}

func newGameState(id, name string, now time.Time) GameState {
	return GameState{
		RoomID:     id,
		RoomName:   name,
		CreatedAt:  now,
		Players:    make(map[string]*Player),
		Phase:      quiz.PhaseWaiting,
		Eliminated: make(map[string]bool),
	}
}

// resetGame 一局结束后回到等待阶段，座位、房主和准备状态不变
func (s *GameState) resetGame() {
	s.Phase = quiz.PhaseWaiting
	s.CurrentRound = 0
	s.CurrentQuestion = nil
	s.TimeRemaining = 0
	clear(s.Eliminated)
	for _, p := range s.Players {
		p.Score = 0
	}
}

// connectedPlayers 在线玩家
func (s *GameState) connectedPlayers() []*Player {
	var out []*Player
	for _, p := range s.Players {
		if p.Connected {
			out = append(out, p)
		}
	}
	return out
}

// activePlayers 在线且未被淘汰的玩家，按加入顺序
func (s *GameState) activePlayers() []*Player {
	var out []*Player
	for _, p := range s.Players {
		if p.Connected && !s.Eliminated[p.ID] {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b *Player) int {
		return compareJoin(a, b)
	})
	return out
}

func compareJoin(a, b *Player) int {
	if c := a.JoinedAt.Compare(b.JoinedAt); c != 0 {
		return c
	}
	switch {
	case a.joinSeq < b.joinSeq:
		return -1
	case a.joinSeq > b.joinSeq:
		return 1
	}
	return 0
}

// view 生成同步给客户端的状态视图，不包含正确答案
func (s *GameState) view() *protocol.RoomState {
	v := &protocol.RoomState{
		RoomID:            s.RoomID,
		RoomName:          s.RoomName,
		CreatedAt:         s.CreatedAt.UnixMilli(),
		HostID:            s.HostID,
		SeatOccupancy:     s.SeatOccupancy,
		Players:           make(map[string]protocol.PlayerState, len(s.Players)),
		GamePhase:         string(s.Phase),
		CurrentRound:      s.CurrentRound,
		TimeRemaining:     s.TimeRemaining,
		EliminatedPlayers: make([]string, 0, len(s.Eliminated)),
	}
	for id, p := range s.Players {
		v.Players[id] = protocol.PlayerState{
			ID:           p.ID,
			X:            p.X,
			Y:            p.Y,
			Z:            p.Z,
			RotationY:    p.RotationY,
			SeatIndex:    p.SeatIndex,
			PlayerNumber: p.PlayerNumber(),
			IsHost:       p.IsHost,
			Connected:    p.Connected,
			IsReady:      p.IsReady,
			Score:        p.Score,
		}
	}
	if q := s.CurrentQuestion; q != nil {
		v.CurrentQuestion = &protocol.QuestionState{
			Question: q.Prompt,
			Options:  q.OptionsArray(),
		}
	}
	for id := range s.Eliminated {
		v.EliminatedPlayers = append(v.EliminatedPlayers, id)
	}
	slices.Sort(v.EliminatedPlayers)
	return v
}

// answer 一次作答
type answer struct {
	option  int
	elapsed time.Duration
}

// roundState 当前轮次的临时数据
type roundState struct {
	inProgress     bool
	startedAt      time.Time
	deadline       time.Time
	answers        map[string]answer
	lastEliminated int // 已执行过淘汰的轮次
}

func (rs *roundState) reset() {
	rs.inProgress = false
	rs.startedAt = time.Time{}
	rs.deadline = time.Time{}
	rs.answers = make(map[string]answer)
	rs.lastEliminated = 0
}
