package room

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/quiz-room/internal/apperrors"
	"github.com/palemoky/quiz-room/internal/events"
	"github.com/palemoky/quiz-room/internal/game/quiz"
	"github.com/palemoky/quiz-room/internal/protocol"
	"github.com/palemoky/quiz-room/internal/testutil"
)

const (
	waitFor  = 2 * time.Second
	pollTick = 5 * time.Millisecond
)

var testEpoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// 所有题目的正确答案都是 0
func testQuestions() []quiz.Question {
	return []quiz.Question{
		{Prompt: "Q1", Options: []string{"a", "b", "c", "d"}, Correct: 0},
		{Prompt: "Q2", Options: []string{"a", "b", "c", "d"}, Correct: 0},
		{Prompt: "Q3", Options: []string{"a", "b", "c", "d"}, Correct: 0},
	}
}

type harness struct {
	t       *testing.T
	ctx     context.Context
	clock   *clockwork.FakeClock
	pub     *testutil.RecordingPublisher
	room    *Room
	clients map[string]*testutil.SimpleClient
}

func newHarness(t *testing.T, tweak func(o *Options)) *harness {
	t.Helper()

	clock := clockwork.NewFakeClockAt(testEpoch)
	pub := &testutil.RecordingPublisher{}
	opts := Options{
		ID:              "TEST01",
		CreatedByPlayer: true,
		Settings:        DefaultSettings(),
		Clock:           clock,
		Questions:       testQuestions(),
		Rand:            rand.New(rand.NewPCG(1, 2)),
		Publisher:       pub,
	}
	if tweak != nil {
		tweak(&opts)
	}

	h := &harness{
		t:       t,
		ctx:     context.Background(),
		clock:   clock,
		pub:     pub,
		room:    NewRoom(opts),
		clients: make(map[string]*testutil.SimpleClient),
	}
	t.Cleanup(func() { _ = h.room.Close(context.Background()) })
	return h
}

func (h *harness) join(id string) *testutil.SimpleClient {
	h.t.Helper()
	c := testutil.NewSimpleClient(id)
	_, err := h.room.Join(h.ctx, c)
	require.NoError(h.t, err)
	h.clients[id] = c
	return c
}

// reconnect 用令牌换上新连接，之后的 send/drop 都走新连接
func (h *harness) reconnect(id, token string) *testutil.SimpleClient {
	h.t.Helper()
	c := testutil.NewSimpleClient(id)
	require.NoError(h.t, h.room.Reconnect(h.ctx, id, token, c))
	h.clients[id] = c
	return c
}

func (h *harness) send(id string, in Inbound) {
	h.t.Helper()
	require.NoError(h.t, h.room.Deliver(h.ctx, h.clients[id], in))
}

func (h *harness) drop(id string) {
	h.t.Helper()
	require.NoError(h.t, h.room.Disconnect(h.ctx, h.clients[id], false))
}

func (h *harness) snap() *protocol.RoomState {
	h.t.Helper()
	s, err := h.room.Snapshot(h.ctx)
	require.NoError(h.t, err)
	return s
}

// eventually 推进时间后等待计时器在房间协程中生效
func (h *harness) eventually(cond func(s *protocol.RoomState) bool, msg string) {
	h.t.Helper()
	require.Eventually(h.t, func() bool {
		s, err := h.room.Snapshot(h.ctx)
		return err == nil && cond(s)
	}, waitFor, pollTick, msg)
}

func (h *harness) inspect(fn func(r *Room)) {
	h.t.Helper()
	require.NoError(h.t, h.room.do(h.ctx, func() { fn(h.room) }))
}

// checkInvariants 在线玩家座位互不相同，有在线玩家时恰好一个房主
func checkInvariants(t *testing.T, s *protocol.RoomState) {
	t.Helper()

	seats := map[int]string{}
	hosts := 0
	connected := 0
	for id, p := range s.Players {
		if !p.Connected {
			assert.False(t, p.IsHost, "离线玩家 %s 不能是房主", id)
			continue
		}
		connected++
		if p.IsHost {
			hosts++
			assert.Equal(t, s.HostID, id)
		}
		if p.SeatIndex >= 0 {
			other, taken := seats[p.SeatIndex]
			assert.False(t, taken, "座位 %d 同时属于 %s 和 %s", p.SeatIndex, other, id)
			seats[p.SeatIndex] = id
		}
		if p.SeatIndex >= 0 {
			assert.Equal(t, p.SeatIndex+1, p.PlayerNumber)
		} else {
			assert.Zero(t, p.PlayerNumber)
		}
	}
	if connected > 0 {
		assert.Equal(t, 1, hosts)
	} else {
		assert.Empty(t, s.HostID)
	}
}

func TestJoin_FourPlayersSeatedInOrder(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	for _, id := range []string{"A", "B", "C", "D"} {
		h.join(id)
	}

	s := h.snap()
	for i, id := range []string{"A", "B", "C", "D"} {
		assert.Equal(t, i, s.Players[id].SeatIndex, id)
		assert.Equal(t, i+1, s.Players[id].PlayerNumber, id)
	}
	assert.Equal(t, "A", s.HostID)
	assert.True(t, s.Players["A"].IsHost)
	assert.Equal(t, [NumSeats]bool{true, true, true, true}, s.SeatOccupancy)
	checkInvariants(t, s)
}

func TestJoin_FifthPlayerStandsOffSeat(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	for _, id := range []string{"A", "B", "C", "D", "E"} {
		h.join(id)
	}

	e := h.snap().Players["E"]
	assert.Equal(t, -1, e.SeatIndex)
	assert.Equal(t, 0, e.PlayerNumber)
	assert.LessOrEqual(t, e.X, offSeatSpread)
	assert.GreaterOrEqual(t, e.X, -offSeatSpread)
	assert.LessOrEqual(t, e.Z, offSeatSpread)
	assert.GreaterOrEqual(t, e.Z, -offSeatSpread)
}

func TestJoin_RoomFull(t *testing.T) {
	t.Parallel()
	h := newHarness(t, func(o *Options) { o.Settings.MaxClients = 2 })

	h.join("A")
	h.join("B")

	_, err := h.room.Join(h.ctx, testutil.NewSimpleClient("C"))
	assert.ErrorIs(t, err, apperrors.ErrRoomFull)
}

func TestJoin_SendsJoinedSnapshotAndSystemMessage(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	a := h.join("A")
	b := h.join("B")

	joined := testutil.Payload[protocol.JoinedPayload](t, b.Last(protocol.MsgJoined))
	assert.Equal(t, "B", joined.PlayerID)
	assert.Equal(t, "TEST01", joined.RoomID)
	assert.NotEmpty(t, joined.ReconnectToken)
	assert.False(t, joined.Reconnected)

	snapshot := testutil.Payload[protocol.RoomState](t, b.Last(protocol.MsgStateSnapshot))
	assert.Len(t, snapshot.Players, 2)
	assert.Equal(t, "Game TEST01", snapshot.RoomName)

	sys := testutil.Payload[protocol.SystemMessagePayload](t, a.Last(protocol.MsgSystemMessage))
	assert.Equal(t, "Player B has joined the room TEST01", sys.Message)

	// A 通过增量看到 B
	delta := testutil.Payload[protocol.StateDelta](t, a.Last(protocol.MsgStateDelta))
	assert.Contains(t, delta.Players, "B")

	ready := testutil.Payload[protocol.ReadyStatusPayload](t, a.Last(protocol.MsgReadyStatusUpdate))
	assert.Equal(t, protocol.ReadyStatusPayload{"A": false, "1": false, "B": false, "2": false}, ready)
}

func TestDeltas_ReplicaMatchesAuthoritativeView(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	a := h.join("A")
	mirror := testutil.Payload[protocol.RoomState](t, a.Last(protocol.MsgStateSnapshot))
	a.Reset()

	h.join("B")
	h.send("A", Move{Pose{X: 0.5, Y: 0, Z: 0.25, RotationY: 1}})
	h.send("B", SetReady{Ready: true})
	h.drop("B")

	for _, msg := range a.MessagesOfType(protocol.MsgStateDelta) {
		d := testutil.Payload[protocol.StateDelta](t, msg)
		mirror.Apply(d)
	}
	assert.Equal(t, h.snap(), &mirror)
}

func TestMove_RelaysPose(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	h.join("A")

	h.send("A", Move{Pose{X: 1, Y: 2, Z: 3, RotationY: 4}})

	p := h.snap().Players["A"]
	assert.Equal(t, []float64{1, 2, 3, 4}, []float64{p.X, p.Y, p.Z, p.RotationY})
}

func TestDeliver_UnknownClient(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	h.join("A")

	err := h.room.Deliver(h.ctx, testutil.NewSimpleClient("ghost"), Heartbeat{})
	assert.ErrorIs(t, err, apperrors.ErrNotInRoom)
}

func TestDispose_WhenLastPlayerLeaves(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	a := h.join("A")

	h.send("A", Leave{})

	select {
	case <-h.room.Done():
	case <-time.After(waitFor):
		t.Fatal("房间没有销毁")
	}
	assert.True(t, a.Closed())
	assert.Empty(t, a.GetRoom())
	assert.Len(t, h.pub.Events(events.RoomDisposed), 1)

	_, err := h.room.Snapshot(h.ctx)
	assert.ErrorIs(t, err, apperrors.ErrRoomClosed)
}

func TestDispose_AntiSquat(t *testing.T) {
	t.Parallel()
	h := newHarness(t, func(o *Options) { o.CreatedByPlayer = false })

	h.clock.Advance(DefaultSettings().AutoDisposeDelay)

	select {
	case <-h.room.Done():
	case <-time.After(waitFor):
		t.Fatal("非玩家创建的房间没有自动销毁")
	}
	disposed := h.pub.Events(events.RoomDisposed)
	require.Len(t, disposed, 1)
	assert.Equal(t, "auto_dispose", disposed[0].Data.(events.RoomPayload).Reason)
}

func TestJoin_BindsClientAndSendsJoined(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	mc := &testutil.MockClient{}
	mc.On("GetID").Return("mock-player")
	mc.On("GetRoom").Return("").Maybe()
	mc.On("SetRoom", "TEST01").Once()
	mc.On("SendMessage", mock.Anything)
	mc.On("Close").Maybe()

	res, err := h.room.Join(h.ctx, mc)
	require.NoError(t, err)
	assert.Equal(t, 0, res.SeatIndex)

	mc.AssertCalled(t, "SetRoom", "TEST01")
	mc.AssertCalled(t, "SendMessage", mock.MatchedBy(func(m *protocol.Message) bool {
		return m.Type == protocol.MsgJoined
	}))
	mc.AssertCalled(t, "SendMessage", mock.MatchedBy(func(m *protocol.Message) bool {
		return m.Type == protocol.MsgStateSnapshot
	}))
}
