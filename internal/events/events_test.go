package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	t.Parallel()

	e := Event{Kind: GameOver, RoomID: "ABC234"}
	assert.Equal(t, "quiz.game.over.ABC234", Subject("quiz", e))
	assert.Equal(t, "game.over.ABC234", Subject("", e))
}

func TestEncode(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	data, err := Encode(Event{
		Kind:   PlayerEliminated,
		RoomID: "R1",
		At:     at,
		Data:   EliminationPayload{PlayerID: "p1", Round: 5, Score: 300},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"kind": "player.eliminated",
		"roomId": "R1",
		"at": "2025-01-02T03:04:05Z",
		"data": {"playerId": "p1", "round": 5, "score": 300}
	}`, string(data))
}

func TestNopPublisher(t *testing.T) {
	t.Parallel()

	var p Publisher = NopPublisher{}
	assert.NotPanics(t, func() {
		p.Publish(Event{Kind: RoomCreated})
		p.Close()
	})
}

func TestNewNATSPublisher_Unreachable(t *testing.T) {
	t.Parallel()

	_, err := NewNATSPublisher("nats://127.0.0.1:1", "quiz")
	assert.Error(t, err)
}
