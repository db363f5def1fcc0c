package room

import (
	"fmt"

	"github.com/palemoky/quiz-room/internal/apperrors"
	"github.com/palemoky/quiz-room/internal/events"
	"github.com/palemoky/quiz-room/internal/logger"
	"github.com/palemoky/quiz-room/internal/protocol"
	"github.com/palemoky/quiz-room/internal/protocol/codec"
	"github.com/palemoky/quiz-room/internal/types"
)

// JoinResult 加入房间的结果
type JoinResult struct {
	PlayerID       string
	ReconnectToken string
	SeatIndex      int
}

// onJoin 新玩家加入：分配座位和房主，发送完整状态
func (r *Room) onJoin(client types.ClientInterface) (JoinResult, error) {
	if len(r.state.Players) >= r.settings.MaxClients {
		return JoinResult{}, apperrors.ErrRoomFull
	}
	id := client.GetID()
	if _, exists := r.state.Players[id]; exists {
		return JoinResult{}, apperrors.ErrInvalidMessage
	}

	r.restoreInvariants()
	isFirst := r.state.HostID == ""
	seat := r.assignSeat(isFirst)

	now := r.clock.Now()
	r.joinSeq++
	p := &Player{
		ID:             id,
		Connected:      true,
		LastActiveAt:   now,
		JoinedAt:       now,
		ReconnectToken: generateToken(),
		Client:         client,
		joinSeq:        r.joinSeq,
	}
	r.placeAtSeat(p, seat)
	r.state.Players[id] = p
	r.hadPlayers = true
	if isFirst {
		r.state.HostID = id
	}
	r.restoreInvariants()
	client.SetRoom(r.id)

	r.sendTo(p, codec.MustNewMessage(protocol.MsgJoined, protocol.JoinedPayload{
		PlayerID:       id,
		RoomID:         r.id,
		ReconnectToken: p.ReconnectToken,
	}))
	r.sendSnapshot(p)
	r.broadcast(codec.MustNewMessage(protocol.MsgSystemMessage, protocol.SystemMessagePayload{
		Message: fmt.Sprintf("Player %s has joined the room %s", id, r.id),
	}))
	r.broadcastReadyStatus()

	r.log.Info().Str("player_id", id).Int("seat", seat).Bool("host", p.IsHost).Msg("👤 玩家加入房间")
	return JoinResult{PlayerID: id, ReconnectToken: p.ReconnectToken, SeatIndex: seat}, nil
}

// exec 在房间协程中执行命令，之后统一修复不变量并同步状态
func (r *Room) exec(cmd command) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.LogPanic(rec)
		}
		r.settle()
		if cmd.done != nil {
			close(cmd.done)
		}
	}()
	cmd.fn()
}

// settle 每条命令之后执行
func (r *Room) settle() {
	defer func() {
		if rec := recover(); rec != nil {
			logger.LogPanic(rec)
		}
	}()
	if r.disposed {
		return
	}
	r.restoreInvariants()
	r.checkRoundComplete()
	r.checkReadyEdge()
	r.flushState()
	r.updateSummary()
	r.maybeDispose()
}

// maybeDispose 没有在线玩家且没有重连预留时销毁房间
func (r *Room) maybeDispose() {
	if !r.hadPlayers || r.disposed {
		return
	}
	for _, p := range r.state.Players {
		if p.Connected || r.inGrace(p.ID) {
			return
		}
	}
	r.dispose("empty")
}

// dispose 销毁房间：停止计时器，断开剩余连接，通知管理器
func (r *Room) dispose(reason string) {
	if r.disposed {
		return
	}
	r.disposed = true
	r.cancelAllTimers()

	for _, p := range r.state.Players {
		if p.Client != nil {
			p.Client.SetRoom("")
			p.Client.Close()
		}
	}

	r.summary.Disposed = true
	if r.onChange != nil {
		r.onChange(r.summary)
	}
	r.publish(events.RoomDisposed, events.RoomPayload{Name: r.name, Reason: reason})
	r.log.Info().Str("reason", reason).Msg("🏠 房间已解散")

	if r.onDispose != nil {
		r.onDispose(r.id)
	}
}

// updateSummary 房间概要变化时通知管理器
func (r *Room) updateSummary() {
	s := r.buildSummary()
	if s == r.summary {
		return
	}
	r.summary = s
	if r.onChange != nil {
		r.onChange(s)
	}
}
