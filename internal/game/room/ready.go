package room

import (
	"strconv"

	"github.com/palemoky/quiz-room/internal/game/quiz"
	"github.com/palemoky/quiz-room/internal/protocol"
	"github.com/palemoky/quiz-room/internal/protocol/codec"
)

// minReadyPlayers 开始游戏至少需要的在线玩家数
const minReadyPlayers = 2

// allReady 在线玩家至少两人且全部准备
func (r *Room) allReady() bool {
	connected := r.state.connectedPlayers()
	if len(connected) < minReadyPlayers {
		return false
	}
	for _, p := range connected {
		if !p.IsReady {
			return false
		}
	}
	return true
}

// setReady 设置准备状态并广播完整的准备状态表
func (r *Room) setReady(p *Player, ready bool) {
	p.IsReady = ready
	r.log.Debug().Str("player_id", p.ID).Bool("ready", ready).Msg("准备状态变更")
	r.broadcastReadyStatus()
}

// readyStatus 以玩家 ID 和玩家编号两种键记录准备状态
func (r *Room) readyStatus() protocol.ReadyStatusPayload {
	status := make(protocol.ReadyStatusPayload, len(r.state.Players)*2)
	for id, p := range r.state.Players {
		status[id] = p.IsReady
		if n := p.PlayerNumber(); n > 0 {
			status[strconv.Itoa(n)] = p.IsReady
		}
	}
	return status
}

func (r *Room) broadcastReadyStatus() {
	r.broadcast(codec.MustNewMessage(protocol.MsgReadyStatusUpdate, r.readyStatus()))
}

// checkReadyEdge 在等待阶段 allReady 由 false 变为 true 时通知一次
func (r *Room) checkReadyEdge() {
	ready := r.state.Phase == quiz.PhaseWaiting && r.allReady()
	switch {
	case ready && !r.readyNotified:
		r.readyNotified = true
		r.log.Info().Msg("✅ 所有玩家已准备")
		r.broadcast(codec.MustNewMessage(protocol.MsgAllPlayersReady, protocol.AllPlayersReadyPayload{Ready: true}))
	case !ready:
		r.readyNotified = false
	}
}
