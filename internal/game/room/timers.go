package room

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// timerKind 计时器用途，每种用途同一时刻最多一个
type timerKind int

const (
	timerDeadline    timerKind = iota // 答题截止
	timerCountdown                    // 1Hz 倒计时
	timerNextRound                    // 公布结果后进入下一轮
	timerElimination                  // 淘汰展示后恢复答题
	timerGameReset                    // 结束后重置为等待
	timerGrace                        // 断线重连窗口（按玩家）
	timerSweep                        // 不活跃扫描
	timerDispose                      // 房间自动销毁（防占坑 / 无人加入）
)

func (k timerKind) String() string {
	switch k {
	case timerDeadline:
		return "deadline"
	case timerCountdown:
		return "countdown"
	case timerNextRound:
		return "next_round"
	case timerElimination:
		return "elimination"
	case timerGameReset:
		return "game_reset"
	case timerGrace:
		return "grace"
	case timerSweep:
		return "sweep"
	case timerDispose:
		return "dispose"
	default:
		return "unknown"
	}
}

type timerKey struct {
	kind     timerKind
	playerID string // 仅 timerGrace 使用
}

type timerHandle struct {
	timer clockwork.Timer
	seq   uint64
}

// schedule 在 d 之后于房间协程中执行 fire，同一个 key 的旧计时器会被取消。
// 计时器到期时只向 inbox 投递事件，已取消或被替换的计时器按序号丢弃
func (r *Room) schedule(key timerKey, d time.Duration, fire func()) {
	r.cancelTimer(key)

	r.timerSeq++
	seq := r.timerSeq
	h := &timerHandle{seq: seq}
	h.timer = r.clock.AfterFunc(d, func() {
		r.post(command{fn: func() {
			cur, ok := r.timers[key]
			if !ok || cur.seq != seq {
				return
			}
			delete(r.timers, key)
			fire()
		}})
	})
	r.timers[key] = h
}

// cancelTimer 取消计时器，返回是否存在
func (r *Room) cancelTimer(key timerKey) bool {
	h, ok := r.timers[key]
	if !ok {
		return false
	}
	h.timer.Stop()
	delete(r.timers, key)
	return true
}

func (r *Room) timerArmed(key timerKey) bool {
	_, ok := r.timers[key]
	return ok
}

func (r *Room) cancelAllTimers() {
	for key := range r.timers {
		r.cancelTimer(key)
	}
}

func graceKey(playerID string) timerKey {
	return timerKey{kind: timerGrace, playerID: playerID}
}

// inGrace 玩家是否处于断线重连窗口内（座位保留中）
func (r *Room) inGrace(playerID string) bool {
	return r.timerArmed(graceKey(playerID))
}
