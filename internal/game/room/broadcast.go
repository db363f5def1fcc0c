package room

import (
	"github.com/palemoky/quiz-room/internal/protocol"
	"github.com/palemoky/quiz-room/internal/protocol/codec"
)

// broadcast 发送给所有连接仍在的玩家
func (r *Room) broadcast(msg *protocol.Message) {
	for _, p := range r.state.Players {
		if p.Client != nil {
			p.Client.SendMessage(msg)
		}
	}
}

// sendTo 发送给单个玩家
func (r *Room) sendTo(p *Player, msg *protocol.Message) {
	if p.Client != nil {
		p.Client.SendMessage(msg)
	}
}

// sendSnapshot 发送完整状态（新加入或重连的玩家）
func (r *Room) sendSnapshot(p *Player) {
	r.sendTo(p, codec.MustNewMessage(protocol.MsgStateSnapshot, r.state.view()))
}

// flushState 与上次广播的状态比较，有变化时广播增量
func (r *Room) flushState() {
	next := r.state.view()
	delta := protocol.Diff(r.replica, next)
	r.replica = next
	if delta.Empty() {
		return
	}
	r.broadcast(codec.MustNewMessage(protocol.MsgStateDelta, delta))
}
