package room

import (
	"context"
	"errors"

	"github.com/palemoky/quiz-room/internal/apperrors"
	"github.com/palemoky/quiz-room/internal/protocol"
	"github.com/palemoky/quiz-room/internal/types"
)

// command 在房间协程中执行的操作。done 为 nil 表示调用方不等待
type command struct {
	fn   func()
	done chan struct{}
}

// run 房间协程：逐条执行 inbox 中的命令，房间销毁后退出
func (r *Room) run() {
	defer r.doneOnce.Do(func() { close(r.done) })

	for cmd := range r.inbox {
		r.exec(cmd)
		if r.disposed {
			return
		}
	}
}

// post 投递命令，不等待执行。inbox 已满时转为异步投递
func (r *Room) post(cmd command) {
	select {
	case <-r.done:
		return
	default:
	}

	select {
	case r.inbox <- cmd:
	case <-r.done:
	default:
		go func() {
			select {
			case r.inbox <- cmd:
			case <-r.done:
			}
		}()
	}
}

// do 投递命令并等待执行完成
func (r *Room) do(ctx context.Context, fn func()) error {
	select {
	case <-r.done:
		return apperrors.ErrRoomClosed
	default:
	}

	cmd := command{fn: fn, done: make(chan struct{})}
	select {
	case r.inbox <- cmd:
	case <-r.done:
		return apperrors.ErrRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-cmd.done:
		return nil
	case <-r.done:
		// 销毁房间的那条命令会先完成再关闭 done
		select {
		case <-cmd.done:
			return nil
		default:
			return apperrors.ErrRoomClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Join 新玩家加入房间
func (r *Room) Join(ctx context.Context, client types.ClientInterface) (JoinResult, error) {
	var (
		res JoinResult
		err error
	)
	if e := r.do(ctx, func() { res, err = r.onJoin(client) }); e != nil {
		return JoinResult{}, e
	}
	return res, err
}

// Reconnect 断线玩家在重连窗口内凭令牌恢复
func (r *Room) Reconnect(ctx context.Context, playerID, token string, client types.ClientInterface) error {
	var err error
	if e := r.do(ctx, func() { err = r.onReconnect(playerID, token, client) }); e != nil {
		return e
	}
	return err
}

// Disconnect 连接断开。consented 表示玩家主动离开。
// 只处理玩家当前绑定的连接，旧连接的断开会被忽略
func (r *Room) Disconnect(ctx context.Context, client types.ClientInterface, consented bool) error {
	return r.do(ctx, func() {
		p, ok := r.state.Players[client.GetID()]
		if !ok || p.Client != client {
			return
		}
		r.onDisconnect(p, consented)
	})
}

// Deliver 处理客户端消息
func (r *Room) Deliver(ctx context.Context, client types.ClientInterface, in Inbound) error {
	var err error
	e := r.do(ctx, func() {
		p, ok := r.state.Players[client.GetID()]
		if !ok || p.Client != client {
			err = apperrors.ErrNotInRoom
			return
		}
		r.handleInbound(p, in)
	})
	if e != nil {
		return e
	}
	return err
}

// Snapshot 返回当前状态视图
func (r *Room) Snapshot(ctx context.Context) (*protocol.RoomState, error) {
	var view *protocol.RoomState
	if err := r.do(ctx, func() { view = r.state.view() }); err != nil {
		return nil, err
	}
	return view, nil
}

// Close 销毁房间
func (r *Room) Close(ctx context.Context) error {
	err := r.do(ctx, func() { r.dispose("closed") })
	if errors.Is(err, apperrors.ErrRoomClosed) {
		return nil
	}
	return err
}
