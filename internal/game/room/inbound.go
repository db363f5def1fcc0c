package room

import (
	"fmt"

	"github.com/palemoky/quiz-room/internal/apperrors"
	"github.com/palemoky/quiz-room/internal/protocol"
	"github.com/palemoky/quiz-room/internal/protocol/codec"
)

// Inbound 客户端发给房间的消息，只能是本文件中定义的类型
type Inbound interface {
	inbound()
}

// Move 位置同步
type Move struct{ Pose }

// Heartbeat 心跳
type Heartbeat struct{}

// StartGame 房主开始游戏
type StartGame struct{}

// SubmitAnswer 提交答案
type SubmitAnswer struct{ Answer int }

// SetReady 设置准备状态
type SetReady struct{ Ready bool }

// Leave 主动离开
type Leave struct{}

func (Move) inbound()         {}
func (Heartbeat) inbound()    {}
func (StartGame) inbound()    {}
func (SubmitAnswer) inbound() {}
func (SetReady) inbound()     {}
func (Leave) inbound()        {}

// DecodeInbound 在连接层把原始消息解码为 Inbound
func DecodeInbound(msg *protocol.Message) (Inbound, error) {
	switch msg.Type {
	case protocol.MsgMove:
		p, err := codec.ParsePayload[protocol.MovePayload](msg)
		if err != nil {
			return nil, invalid(msg.Type, err)
		}
		return Move{Pose{X: p.X, Y: p.Y, Z: p.Z, RotationY: p.RotationY}}, nil
	case protocol.MsgHeartbeat:
		return Heartbeat{}, nil
	case protocol.MsgStartGame:
		return StartGame{}, nil
	case protocol.MsgSubmitAnswer:
		p, err := codec.ParsePayload[protocol.SubmitAnswerPayload](msg)
		if err != nil {
			return nil, invalid(msg.Type, err)
		}
		return SubmitAnswer{Answer: p.Answer}, nil
	case protocol.MsgSetReadyStatus:
		p, err := codec.ParsePayload[protocol.SetReadyStatusPayload](msg)
		if err != nil {
			return nil, invalid(msg.Type, err)
		}
		return SetReady{Ready: p.Ready}, nil
	case protocol.MsgLeave:
		return Leave{}, nil
	default:
		return nil, fmt.Errorf("%w: 未知消息类型 %q", apperrors.ErrInvalidMessage, msg.Type)
	}
}

func invalid(t protocol.MessageType, err error) error {
	return fmt.Errorf("%w: %s: %v", apperrors.ErrInvalidMessage, t, err)
}

// handleInbound 处理一条客户端消息。任何消息都算作活跃
func (r *Room) handleInbound(p *Player, in Inbound) {
	r.touch(p)

	switch m := in.(type) {
	case Move:
		p.Pose = m.Pose
	case Heartbeat:
	case StartGame:
		r.startGame(p)
	case SubmitAnswer:
		r.submitAnswer(p, m.Answer)
	case SetReady:
		r.setReady(p, m.Ready)
	case Leave:
		client := p.Client
		r.onDisconnect(p, true)
		if client != nil {
			client.Close()
		}
	default:
		r.log.Warn().Str("player_id", p.ID).Type("message", in).Msg("未处理的消息")
	}
}
