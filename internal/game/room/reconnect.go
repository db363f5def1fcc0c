package room

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"

	"github.com/palemoky/quiz-room/internal/apperrors"
	"github.com/palemoky/quiz-room/internal/protocol"
	"github.com/palemoky/quiz-room/internal/protocol/codec"
	"github.com/palemoky/quiz-room/internal/types"
)

// generateToken 生成重连令牌
func generateToken() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// onDisconnect 处理连接断开。主动离开立即移除；意外断开保留座位并开启重连窗口，
// 房主立即转移
func (r *Room) onDisconnect(p *Player, consented bool) {
	if consented {
		r.log.Info().Str("player_id", p.ID).Int("seat", p.SeatIndex).Msg("👋 玩家离开房间")
		r.removePlayer(p)
		return
	}

	p.Connected = false
	p.Client = nil
	r.log.Info().Str("player_id", p.ID).Dur("grace", r.settings.ReconnectGrace).Msg("📴 玩家掉线，等待重连")

	id := p.ID
	r.schedule(graceKey(id), r.settings.ReconnectGrace, func() {
		if p, ok := r.state.Players[id]; ok && !p.Connected {
			r.log.Info().Str("player_id", id).Msg("⏰ 重连超时，移除玩家")
			r.removePlayer(p)
		}
	})
	r.restoreInvariants()
	r.broadcastReadyStatus()
}

// onReconnect 在重连窗口内恢复玩家，座位、分数保持不变
func (r *Room) onReconnect(playerID, token string, client types.ClientInterface) error {
	p, ok := r.state.Players[playerID]
	if !ok || p.Connected || !r.inGrace(playerID) {
		return apperrors.ErrReconnectFailed
	}
	if subtle.ConstantTimeCompare([]byte(p.ReconnectToken), []byte(token)) != 1 {
		return apperrors.ErrReconnectFailed
	}

	r.cancelTimer(graceKey(playerID))
	p.Connected = true
	p.Client = client
	p.LastActiveAt = r.clock.Now()
	client.SetRoom(r.id)

	r.reclaimSeat(p)
	r.restoreInvariants()

	r.sendTo(p, codec.MustNewMessage(protocol.MsgJoined, protocol.JoinedPayload{
		PlayerID:       p.ID,
		RoomID:         r.id,
		ReconnectToken: p.ReconnectToken,
		Reconnected:    true,
	}))
	r.sendSnapshot(p)
	r.broadcastReadyStatus()

	r.log.Info().Str("player_id", p.ID).Int("seat", p.SeatIndex).Msg("🔌 玩家重连成功")
	return nil
}

// removePlayer 移除玩家并同步释放座位。出现 panic 时也会修复座位和房主
func (r *Room) removePlayer(p *Player) {
	defer r.restoreInvariants()

	r.cancelTimer(graceKey(p.ID))
	delete(r.state.Players, p.ID)
	if p.Client != nil {
		p.Client.SetRoom("")
	}
	if r.state.HostID == p.ID {
		r.migrateHost()
	}
	r.broadcastReadyStatus()
}

// scheduleSweep 定期检查不活跃玩家
func (r *Room) scheduleSweep() {
	r.schedule(timerKey{kind: timerSweep}, r.settings.InactivitySweep, func() {
		r.sweepInactive()
		r.scheduleSweep()
	})
}

// sweepInactive 长时间不活跃的在线玩家标记为离线；已离线、超时且不在重连窗口内的玩家移除
func (r *Room) sweepInactive() {
	now := r.clock.Now()
	for _, p := range r.state.Players {
		idle := now.Sub(p.LastActiveAt) > r.settings.InactivityTimeout
		switch {
		case !idle:
		case p.Connected:
			p.Connected = false
			r.log.Info().Str("player_id", p.ID).Msg("💤 玩家长时间不活跃，标记为离线")
		case !r.inGrace(p.ID):
			r.log.Info().Str("player_id", p.ID).Msg("🧹 清理不活跃玩家")
			client := p.Client
			r.removePlayer(p)
			if client != nil {
				client.Close()
			}
		}
	}
	r.restoreInvariants()
}

// touch 刷新活跃时间。被标记离线但连接仍在的玩家恢复在线
func (r *Room) touch(p *Player) {
	p.LastActiveAt = r.clock.Now()
	if !p.Connected && p.Client != nil {
		p.Connected = true
		r.reclaimSeat(p)
		r.restoreInvariants()
		r.log.Info().Str("player_id", p.ID).Msg("💓 玩家恢复活跃")
	}
}
