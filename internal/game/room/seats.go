package room

import (
	"cmp"
	"slices"
)

// reconcileSeats 从玩家集合推导座位占用。座位被占用当且仅当持有它的玩家在线，
// 或者断线但仍在重连窗口内（held 返回 true）。held 为 nil 时只统计在线玩家。
// 纯函数，重复执行结果相同
func reconcileSeats(players map[string]*Player, held func(id string) bool) [NumSeats]bool {
	var occ [NumSeats]bool
	for _, p := range players {
		if p.SeatIndex < 0 || p.SeatIndex >= NumSeats {
			continue
		}
		if p.Connected || (held != nil && held(p.ID)) {
			occ[p.SeatIndex] = true
		}
	}
	return occ
}

func lowestFreeSeat(occ [NumSeats]bool) int {
	for i, taken := range occ {
		if !taken {
			return i
		}
	}
	return -1
}

// assignSeat 为新玩家分配座位。没有房主时的第一个玩家优先拿 0 号座位；
// 否则取编号最小的空位。没有空位时忽略重连预留、只按在线玩家重新推导一次，
// 仍然没有则返回 -1
func (r *Room) assignSeat(isFirst bool) int {
	occ := reconcileSeats(r.state.Players, r.inGrace)
	r.state.SeatOccupancy = occ

	if isFirst && !occ[0] {
		return 0
	}
	if seat := lowestFreeSeat(occ); seat >= 0 {
		return seat
	}

	occ = reconcileSeats(r.state.Players, nil)
	return lowestFreeSeat(occ)
}

// placeAtSeat 把玩家放到座位上，seat 为 -1 时随机站在桌边
func (r *Room) placeAtSeat(p *Player, seat int) {
	p.SeatIndex = seat
	if seat >= 0 {
		p.Pose = chairPoses[seat]
		return
	}
	p.Pose = r.randomOffSeatPose()
}

// reclaimSeat 玩家恢复在线时检查座位冲突：座位已被其他在线玩家占用则重新分配
func (r *Room) reclaimSeat(p *Player) {
	if p.SeatIndex < 0 {
		return
	}
	for _, other := range r.state.Players {
		if other.ID != p.ID && other.Connected && other.SeatIndex == p.SeatIndex {
			p.SeatIndex = -1
			occ := reconcileSeats(r.state.Players, r.inGrace)
			seat := lowestFreeSeat(occ)
			r.placeAtSeat(p, seat)
			r.log.Info().Str("player_id", p.ID).Int("seat", seat).Msg("🪑 原座位已被占用，重新分配")
			return
		}
	}
}

// restoreInvariants 重新推导座位占用并修复房主
func (r *Room) restoreInvariants() {
	r.state.SeatOccupancy = reconcileSeats(r.state.Players, r.inGrace)
	r.repairHost()
}

// repairHost 保证有在线玩家时恰好有一个在线房主，并清除过期的房主标记
func (r *Room) repairHost() {
	if host, ok := r.state.Players[r.state.HostID]; ok && host.Connected {
		for _, p := range r.state.Players {
			p.IsHost = p.ID == r.state.HostID
		}
		return
	}
	r.migrateHost()
}

// migrateHost 选择新的房主：座位号最小者优先，无座位的排在最后，再按加入顺序。
// 没有在线玩家时房主为空
func (r *Room) migrateHost() {
	prev := r.state.HostID
	candidates := r.state.connectedPlayers()
	slices.SortFunc(candidates, func(a, b *Player) int {
		if c := cmp.Compare(seatRank(a), seatRank(b)); c != 0 {
			return c
		}
		return compareJoin(a, b)
	})

	r.state.HostID = ""
	if len(candidates) > 0 {
		r.state.HostID = candidates[0].ID
	}
	for _, p := range r.state.Players {
		p.IsHost = p.ID == r.state.HostID
	}

	if prev != r.state.HostID {
		r.log.Info().Str("from", prev).Str("to", r.state.HostID).Msg("👑 房主变更")
	}
}

func seatRank(p *Player) int {
	if p.SeatIndex < 0 {
		return NumSeats
	}
	return p.SeatIndex
}
