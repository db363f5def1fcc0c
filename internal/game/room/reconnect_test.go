package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func inactivityHarness(t *testing.T) *harness {
	t.Helper()
	return newHarness(t, func(o *Options) {
		// 手动触发扫描
		o.Settings.InactivitySweep = 0
	})
}

func (h *harness) sweep() {
	h.t.Helper()
	h.inspect(func(r *Room) { r.sweepInactive() })
}

func TestSweep_FlagsThenPurgesInactivePlayer(t *testing.T) {
	t.Parallel()
	h := inactivityHarness(t)
	h.join("A")
	b := h.join("B")
	timeout := DefaultSettings().InactivityTimeout

	h.clock.Advance(timeout - time.Second)
	h.send("A", Heartbeat{})
	h.clock.Advance(2 * time.Second)
	h.sweep()

	s := h.snap()
	assert.True(t, s.Players["A"].Connected)
	assert.False(t, s.Players["B"].Connected, "不活跃玩家标记为离线")
	assert.True(t, s.SeatOccupancy[0])
	checkInvariants(t, s)

	h.clock.Advance(timeout)
	h.send("A", Heartbeat{})
	h.sweep()

	s = h.snap()
	assert.NotContains(t, s.Players, "B", "离线且超时的玩家被移除")
	assert.False(t, s.SeatOccupancy[1])
	assert.True(t, b.Closed())
	assert.Empty(t, b.GetRoom())
}

func TestSweep_HeartbeatRestoresFlaggedPlayer(t *testing.T) {
	t.Parallel()
	h := inactivityHarness(t)
	h.join("A")
	h.join("B")

	h.clock.Advance(DefaultSettings().InactivityTimeout + time.Second)
	h.send("A", Heartbeat{})
	h.sweep()
	assert.False(t, h.snap().Players["B"].Connected)

	h.send("B", Heartbeat{})

	p := h.snap().Players["B"]
	assert.True(t, p.Connected)
	assert.Equal(t, 1, p.SeatIndex)
}

func TestSweep_FlaggedHostMigrates(t *testing.T) {
	t.Parallel()
	h := inactivityHarness(t)
	h.join("A")
	h.join("B")

	h.clock.Advance(DefaultSettings().InactivityTimeout + time.Second)
	h.send("B", Heartbeat{})
	h.sweep()

	s := h.snap()
	assert.Equal(t, "B", s.HostID)
	checkInvariants(t, s)

	// 恢复活跃后不会夺回房主
	h.send("A", Heartbeat{})
	assert.Equal(t, "B", h.snap().HostID)
}

func TestSweep_KeepsPlayerInGrace(t *testing.T) {
	t.Parallel()
	h := newHarness(t, func(o *Options) {
		o.Settings.InactivitySweep = 0
		o.Settings.ReconnectGrace = time.Hour
	})
	h.join("A")
	h.join("B")
	h.drop("B")

	h.clock.Advance(DefaultSettings().InactivityTimeout + time.Second)
	h.send("A", Heartbeat{})
	h.sweep()

	assert.Contains(t, h.snap().Players, "B")
}

func TestSweep_Periodic(t *testing.T) {
	t.Parallel()
	h := newHarness(t, func(o *Options) {
		o.Settings.InactivitySweep = time.Minute
		o.Settings.InactivityTimeout = 30 * time.Second
	})
	h.join("A")

	// 唯一的玩家被标记为离线后房间销毁
	h.clock.Advance(time.Minute)
	select {
	case <-h.room.Done():
	case <-time.After(waitFor):
		t.Fatal("房间没有销毁")
	}
}
