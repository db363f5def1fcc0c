package client

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/palemoky/quiz-room/internal/protocol"
	"github.com/palemoky/quiz-room/internal/protocol/codec"
)

// maxNotices 保留的系统通知条数
const maxNotices = 20

// ErrNoSnapshot 收到增量时还没有完整状态
var ErrNoSnapshot = errors.New("state delta before snapshot")

// State 客户端本地的房间镜像，由服务端消息驱动
type State struct {
	Session Session
	Room    *protocol.RoomState

	Ready    protocol.ReadyStatusPayload
	AllReady bool

	Question   *protocol.NewQuestionPayload
	MyAnswer   int // 本轮已提交的选项，-1 表示未作答
	Results    *protocol.RoundResultsPayload
	Eliminated []protocol.PlayerEliminatedPayload
	GameOver   *protocol.GameOverPayload

	Notices   []string
	LastError *protocol.ErrorPayload
}

// NewState 创建空镜像
func NewState() *State {
	return &State{MyAnswer: -1}
}

// Apply 应用一条服务端消息
func (s *State) Apply(msg *protocol.Message) error {
	switch msg.Type {
	case protocol.MsgJoined:
		p, err := codec.ParsePayload[protocol.JoinedPayload](msg)
		if err != nil {
			return err
		}
		s.Session = Session{PlayerID: p.PlayerID, RoomID: p.RoomID, Token: p.ReconnectToken}
		s.LastError = nil

	case protocol.MsgStateSnapshot:
		p, err := codec.ParsePayload[protocol.RoomState](msg)
		if err != nil {
			return err
		}
		s.Room = p

	case protocol.MsgStateDelta:
		if s.Room == nil {
			return ErrNoSnapshot
		}
		p, err := codec.ParsePayload[protocol.StateDelta](msg)
		if err != nil {
			return err
		}
		s.Room.Apply(*p)

	case protocol.MsgSystemMessage:
		p, err := codec.ParsePayload[protocol.SystemMessagePayload](msg)
		if err != nil {
			return err
		}
		s.notice(p.Message)

	case protocol.MsgReadyStatusUpdate:
		p, err := codec.ParsePayload[protocol.ReadyStatusPayload](msg)
		if err != nil {
			return err
		}
		s.Ready = *p
		s.AllReady = false

	case protocol.MsgAllPlayersReady:
		p, err := codec.ParsePayload[protocol.AllPlayersReadyPayload](msg)
		if err != nil {
			return err
		}
		s.AllReady = p.Ready

	case protocol.MsgGameStarted:
		s.GameOver = nil
		s.Eliminated = nil
		s.Results = nil
		s.AllReady = false

	case protocol.MsgNewQuestion:
		p, err := codec.ParsePayload[protocol.NewQuestionPayload](msg)
		if err != nil {
			return err
		}
		s.Question = p
		s.Results = nil
		s.MyAnswer = -1

	case protocol.MsgRoundResults:
		p, err := codec.ParsePayload[protocol.RoundResultsPayload](msg)
		if err != nil {
			return err
		}
		s.Results = p

	case protocol.MsgPlayerEliminated:
		p, err := codec.ParsePayload[protocol.PlayerEliminatedPayload](msg)
		if err != nil {
			return err
		}
		s.Eliminated = append(s.Eliminated, *p)
		s.notice(fmt.Sprintf("玩家 %d 被淘汰（%d 分）", p.PlayerNumber, p.Score))

	case protocol.MsgGameOver:
		p, err := codec.ParsePayload[protocol.GameOverPayload](msg)
		if err != nil {
			return err
		}
		s.GameOver = p
		s.Question = nil

	case protocol.MsgError:
		p, err := codec.ParsePayload[protocol.ErrorPayload](msg)
		if err != nil {
			return err
		}
		s.LastError = p
	}
	return nil
}

func (s *State) notice(text string) {
	s.Notices = append(s.Notices, text)
	if len(s.Notices) > maxNotices {
		s.Notices = slices.Clone(s.Notices[len(s.Notices)-maxNotices:])
	}
}

// Me 本地玩家
func (s *State) Me() (protocol.PlayerState, bool) {
	if s.Room == nil {
		return protocol.PlayerState{}, false
	}
	p, ok := s.Room.Players[s.Session.PlayerID]
	return p, ok
}

// IsHost 本地玩家是否为房主
func (s *State) IsHost() bool {
	return s.Room != nil && s.Session.PlayerID != "" && s.Room.HostID == s.Session.PlayerID
}

// Phase 当前阶段
func (s *State) Phase() string {
	if s.Room == nil {
		return ""
	}
	return s.Room.GamePhase
}

// IsEliminated 玩家是否已被淘汰
func (s *State) IsEliminated(id string) bool {
	return s.Room != nil && slices.Contains(s.Room.EliminatedPlayers, id)
}

// Players 按座位排列玩家，没有座位的排在最后
func (s *State) Players() []protocol.PlayerState {
	if s.Room == nil {
		return nil
	}
	out := make([]protocol.PlayerState, 0, len(s.Room.Players))
	for _, p := range s.Room.Players {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b protocol.PlayerState) int {
		sa, sb := seatOrder(a.SeatIndex), seatOrder(b.SeatIndex)
		if c := cmp.Compare(sa, sb); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// Standings 按分数从高到低
func (s *State) Standings() []protocol.PlayerState {
	out := s.Players()
	slices.SortStableFunc(out, func(a, b protocol.PlayerState) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return out
}

func seatOrder(seat int) int {
	if seat < 0 {
		return protocol.NumSeats
	}
	return seat
}
