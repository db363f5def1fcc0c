package quiz

import (
	"cmp"
	"slices"
	"time"
)

// Standing 淘汰时的玩家排名信息
type Standing struct {
	PlayerID string
	Score    int
	JoinedAt time.Time
	JoinSeq  uint64 // JoinedAt 相同时的加入顺序
}

// compareStanding 分数低者在前；同分时加入早者在前；再按 ID
func compareStanding(a, b Standing) int {
	if c := cmp.Compare(a.Score, b.Score); c != 0 {
		return c
	}
	if c := a.JoinedAt.Compare(b.JoinedAt); c != 0 {
		return c
	}
	if c := cmp.Compare(a.JoinSeq, b.JoinSeq); c != 0 {
		return c
	}
	return cmp.Compare(a.PlayerID, b.PlayerID)
}

// Lowest 返回应被淘汰的玩家
func Lowest(standings []Standing) (Standing, bool) {
	if len(standings) == 0 {
		return Standing{}, false
	}
	return slices.MinFunc(standings, compareStanding), true
}
