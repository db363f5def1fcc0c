package room

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/quiz-room/internal/apperrors"
	"github.com/palemoky/quiz-room/internal/protocol"
	"github.com/palemoky/quiz-room/internal/testutil"
)

func TestReconcileSeats(t *testing.T) {
	t.Parallel()

	players := map[string]*Player{
		"a": {ID: "a", SeatIndex: 0, Connected: true},
		"b": {ID: "b", SeatIndex: 1, Connected: false},
		"c": {ID: "c", SeatIndex: 2, Connected: false},
		"d": {ID: "d", SeatIndex: -1, Connected: true},
	}
	held := func(id string) bool { return id == "b" }

	tests := []struct {
		name string
		held func(string) bool
		want [NumSeats]bool
	}{
		{"reservations held", held, [NumSeats]bool{true, true, false, false}},
		{"connected only", nil, [NumSeats]bool{true, false, false, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := reconcileSeats(players, tt.held)
			second := reconcileSeats(players, tt.held)
			assert.Equal(t, tt.want, first)
			assert.Equal(t, first, second)
		})
	}
}

func TestAssignSeat_FallsBackToConnectedOnly(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	for _, id := range []string{"A", "B", "C", "D"} {
		h.join(id)
	}
	h.drop("B")

	// 座位 1 为 B 保留，其他座位都有人：忽略保留后 E 拿到座位 1
	h.join("E")
	s := h.snap()
	assert.Equal(t, 1, s.Players["E"].SeatIndex)

	// B 重连时原座位已被占用，重新分配（此时没有空位）
	token := testutil.Payload[protocol.JoinedPayload](t, h.clients["B"].Last(protocol.MsgJoined)).ReconnectToken
	b2 := testutil.NewSimpleClient("B")
	require.NoError(t, h.room.Reconnect(h.ctx, "B", token, b2))

	s = h.snap()
	assert.Equal(t, 1, s.Players["E"].SeatIndex)
	assert.Equal(t, -1, s.Players["B"].SeatIndex)
	checkInvariants(t, s)
}

func TestJoin_TakesLowestFreeSeat(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	h.join("A")
	h.join("B")
	h.send("A", Leave{})

	// B 成为房主，座位 0 空出
	s := h.snap()
	assert.Equal(t, "B", s.HostID)
	assert.False(t, s.SeatOccupancy[0])

	h.join("C")
	assert.Equal(t, 0, h.snap().Players["C"].SeatIndex)
	assert.False(t, h.snap().Players["C"].IsHost)
}

func TestMigrateHost_LowestSeatThenJoinOrder(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	for _, id := range []string{"A", "B", "C"} {
		h.join(id)
	}
	h.send("B", Leave{})
	h.join("D") // 座位 1
	h.send("A", Leave{})

	s := h.snap()
	assert.Equal(t, "D", s.HostID, "座位号最小的在线玩家成为房主")
	checkInvariants(t, s)
}

func TestHostDisconnect_GraceExpiryFreesSeat(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	for _, id := range []string{"A", "B", "C"} {
		h.join(id)
	}
	h.drop("A")

	s := h.snap()
	assert.Equal(t, "B", s.HostID)
	assert.False(t, s.Players["A"].Connected)
	assert.True(t, s.SeatOccupancy[0], "重连窗口内保留座位")
	checkInvariants(t, s)

	h.clock.Advance(DefaultSettings().ReconnectGrace)
	h.eventually(func(s *protocol.RoomState) bool {
		_, ok := s.Players["A"]
		return !ok
	}, "重连超时后移除玩家")

	s = h.snap()
	assert.Equal(t, "B", s.HostID)
	assert.False(t, s.SeatOccupancy[0])

	h.join("D")
	s = h.snap()
	assert.Equal(t, 0, s.Players["D"].SeatIndex)
	assert.Equal(t, 1, s.Players["D"].PlayerNumber)
	checkInvariants(t, s)
}

func TestReconnect_RetainsSeatScoreAndHost(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	h.join("A")
	b := h.join("B")
	h.inspect(func(r *Room) { r.state.Players["B"].Score = 420 })
	token := testutil.Payload[protocol.JoinedPayload](t, b.Last(protocol.MsgJoined)).ReconnectToken

	h.drop("B")
	h.clock.Advance(DefaultSettings().ReconnectGrace / 2)

	b2 := h.reconnect("B", token)

	s := h.snap()
	p := s.Players["B"]
	assert.True(t, p.Connected)
	assert.Equal(t, 1, p.SeatIndex)
	assert.Equal(t, 2, p.PlayerNumber)
	assert.Equal(t, 420, p.Score)
	assert.Equal(t, "A", s.HostID)
	assert.Equal(t, "TEST01", b2.GetRoom())

	joined := testutil.Payload[protocol.JoinedPayload](t, b2.Last(protocol.MsgJoined))
	assert.True(t, joined.Reconnected)
	assert.NotNil(t, b2.Last(protocol.MsgStateSnapshot))

	h.inspect(func(r *Room) { assert.False(t, r.inGrace("B")) })

	// 旧连接的消息不再被接受
	assert.ErrorIs(t, h.room.Deliver(h.ctx, b, Heartbeat{}), apperrors.ErrNotInRoom)

	// 原定的超时不会再移除玩家
	h.clock.Advance(DefaultSettings().ReconnectGrace)
	h.send("B", Heartbeat{})
	assert.Contains(t, h.snap().Players, "B")
}

func TestReconnect_Failures(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	h.join("A")
	b := h.join("B")
	token := testutil.Payload[protocol.JoinedPayload](t, b.Last(protocol.MsgJoined)).ReconnectToken

	// 仍在线
	assert.Error(t, h.room.Reconnect(h.ctx, "B", token, testutil.NewSimpleClient("B")))

	h.drop("B")
	assert.Error(t, h.room.Reconnect(h.ctx, "B", "wrong", testutil.NewSimpleClient("B")))
	assert.Error(t, h.room.Reconnect(h.ctx, "nobody", token, testutil.NewSimpleClient("nobody")))

	h.clock.Advance(DefaultSettings().ReconnectGrace)
	h.eventually(func(s *protocol.RoomState) bool {
		_, ok := s.Players["B"]
		return !ok
	}, "重连超时后移除玩家")
	assert.Error(t, h.room.Reconnect(h.ctx, "B", token, testutil.NewSimpleClient("B")))
}

func TestDisconnect_StaleSocketIgnored(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	h.join("A")
	b := h.join("B")
	token := testutil.Payload[protocol.JoinedPayload](t, b.Last(protocol.MsgJoined)).ReconnectToken
	h.drop("B")

	b2 := testutil.NewSimpleClient("B")
	require.NoError(t, h.room.Reconnect(h.ctx, "B", token, b2))

	// 旧连接迟到的断开事件
	require.NoError(t, h.room.Disconnect(h.ctx, b, false))
	assert.True(t, h.snap().Players["B"].Connected)
}

// 随机的加入、离开、掉线、重连和时间推进序列中，不变量始终成立
func TestInvariants_RandomizedLifecycle(t *testing.T) {
	t.Parallel()
	h := newHarness(t, func(o *Options) { o.Settings.MaxClients = 6 })
	rng := rand.New(rand.NewPCG(7, 11))

	tokens := map[string]string{}
	next := 0
	h.join("anchor")

	for step := range 200 {
		s := h.snap()
		ids := make([]string, 0, len(s.Players))
		for id := range s.Players {
			if id != "anchor" {
				ids = append(ids, id)
			}
		}
		pick := func() (string, bool) {
			if len(ids) == 0 {
				return "", false
			}
			return ids[rng.IntN(len(ids))], true
		}

		switch rng.IntN(5) {
		case 0:
			if len(s.Players) < 6 {
				next++
				id := fmt.Sprintf("p%d", next)
				c := h.join(id)
				tokens[id] = testutil.Payload[protocol.JoinedPayload](t, c.Last(protocol.MsgJoined)).ReconnectToken
			}
		case 1:
			if id, ok := pick(); ok && s.Players[id].Connected {
				h.send(id, Leave{})
			}
		case 2:
			if id, ok := pick(); ok && s.Players[id].Connected {
				h.drop(id)
			}
		case 3:
			if id, ok := pick(); ok && !s.Players[id].Connected {
				c := testutil.NewSimpleClient(id)
				if h.room.Reconnect(h.ctx, id, tokens[id], c) == nil {
					h.clients[id] = c
				}
			}
		case 4:
			h.send("anchor", Heartbeat{})
			h.clock.Advance(3 * DefaultSettings().ReconnectGrace / 4)
		}

		s = h.snap()
		checkInvariants(t, s)
		h.inspect(func(r *Room) {
			assert.Equal(t, reconcileSeats(r.state.Players, r.inGrace), r.state.SeatOccupancy, "step %d", step)
		})
	}
}
