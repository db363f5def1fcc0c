package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/quiz-room/internal/protocol"
	"github.com/palemoky/quiz-room/internal/protocol/codec"
)

func baseRoom() *protocol.RoomState {
	return &protocol.RoomState{
		RoomID:        "ROOM01",
		HostID:        "a",
		SeatOccupancy: [protocol.NumSeats]bool{true, true},
		GamePhase:     "waiting",
		Players: map[string]protocol.PlayerState{
			"a": {ID: "a", SeatIndex: 0, PlayerNumber: 1, IsHost: true, Connected: true},
			"b": {ID: "b", SeatIndex: 1, PlayerNumber: 2, Connected: true},
		},
		EliminatedPlayers: []string{},
	}
}

func TestState_SnapshotThenDeltas(t *testing.T) {
	t.Parallel()

	s := NewState()
	require.NoError(t, s.Apply(codec.MustNewMessage(protocol.MsgJoined, protocol.JoinedPayload{
		PlayerID: "b", RoomID: "ROOM01", ReconnectToken: "tok",
	})))

	server := baseRoom()
	require.NoError(t, s.Apply(codec.MustNewMessage(protocol.MsgStateSnapshot, server)))

	steps := []func(r *protocol.RoomState){
		func(r *protocol.RoomState) {
			r.Players["c"] = protocol.PlayerState{ID: "c", SeatIndex: 2, PlayerNumber: 3, Connected: true}
			r.SeatOccupancy[2] = true
		},
		func(r *protocol.RoomState) {
			delete(r.Players, "a")
			r.SeatOccupancy[0] = false
			r.HostID = "b"
			b := r.Players["b"]
			b.IsHost = true
			r.Players["b"] = b
		},
		func(r *protocol.RoomState) {
			r.GamePhase = "quiz"
			r.CurrentRound = 1
			r.TimeRemaining = 20
			r.CurrentQuestion = &protocol.QuestionState{Question: "2+2?", Options: [4]string{"3", "4", "5", "6"}}
		},
		func(r *protocol.RoomState) {
			r.CurrentQuestion = nil
			r.EliminatedPlayers = append(r.EliminatedPlayers, "c")
		},
	}

	for i, step := range steps {
		prev := server.Clone()
		step(server)
		delta := protocol.Diff(prev, server)
		require.NoError(t, s.Apply(codec.MustNewMessage(protocol.MsgStateDelta, delta)), "step %d", i)
		assert.Equal(t, server, s.Room, "step %d", i)
	}

	me, ok := s.Me()
	require.True(t, ok)
	assert.Equal(t, "b", me.ID)
	assert.True(t, s.IsHost())
	assert.True(t, s.IsEliminated("c"))
	assert.Equal(t, "quiz", s.Phase())
}

func TestState_DeltaBeforeSnapshot(t *testing.T) {
	t.Parallel()

	s := NewState()
	err := s.Apply(codec.MustNewMessage(protocol.MsgStateDelta, protocol.StateDelta{}))
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestState_QuizFlow(t *testing.T) {
	t.Parallel()

	s := NewState()
	s.MyAnswer = 2
	require.NoError(t, s.Apply(codec.MustNewMessage(protocol.MsgAllPlayersReady, protocol.AllPlayersReadyPayload{Ready: true})))
	assert.True(t, s.AllReady)

	require.NoError(t, s.Apply(codec.MustNewMessage(protocol.MsgGameStarted, protocol.GameStartedPayload{Started: true})))
	assert.False(t, s.AllReady)

	require.NoError(t, s.Apply(codec.MustNewMessage(protocol.MsgNewQuestion, protocol.NewQuestionPayload{
		Question: "Capital of France?", Options: []string{"Paris", "Rome", "Oslo", "Bern"}, TimeLimit: 20, Round: 1,
	})))
	require.NotNil(t, s.Question)
	assert.Equal(t, 1, s.Question.Round)
	assert.Equal(t, -1, s.MyAnswer)

	require.NoError(t, s.Apply(codec.MustNewMessage(protocol.MsgRoundResults, protocol.RoundResultsPayload{
		CorrectAnswer: 0,
		Scores:        map[string]int{"a": 895},
	})))
	require.NotNil(t, s.Results)
	assert.Equal(t, 895, s.Results.Scores["a"])

	require.NoError(t, s.Apply(codec.MustNewMessage(protocol.MsgPlayerEliminated, protocol.PlayerEliminatedPayload{
		PlayerID: "b", PlayerNumber: 2, Score: 10,
	})))
	require.Len(t, s.Eliminated, 1)
	assert.Contains(t, s.Notices[len(s.Notices)-1], "玩家 2")

	require.NoError(t, s.Apply(codec.MustNewMessage(protocol.MsgGameOver, protocol.GameOverPayload{WinnerID: "a", WinnerScore: 895})))
	require.NotNil(t, s.GameOver)
	assert.Nil(t, s.Question)

	require.NoError(t, s.Apply(codec.MustNewMessage(protocol.MsgGameStarted, nil)))
	assert.Nil(t, s.GameOver)
	assert.Empty(t, s.Eliminated)
}

func TestState_NoticesAreCapped(t *testing.T) {
	t.Parallel()

	s := NewState()
	for range maxNotices + 5 {
		require.NoError(t, s.Apply(codec.MustNewMessage(protocol.MsgSystemMessage, protocol.SystemMessagePayload{Message: "hi"})))
	}
	assert.Len(t, s.Notices, maxNotices)
}

func TestState_PlayersOrderedBySeat(t *testing.T) {
	t.Parallel()

	s := NewState()
	s.Room = &protocol.RoomState{Players: map[string]protocol.PlayerState{
		"z":     {ID: "z", SeatIndex: 1, Score: 5},
		"y":     {ID: "y", SeatIndex: -1, Score: 50},
		"x":     {ID: "x", SeatIndex: 0, Score: 10},
		"stand": {ID: "stand", SeatIndex: -1},
	}}

	ids := func(ps []protocol.PlayerState) []string {
		out := make([]string, len(ps))
		for i, p := range ps {
			out[i] = p.ID
		}
		return out
	}
	assert.Equal(t, []string{"x", "z", "stand", "y"}, ids(s.Players()))
	assert.Equal(t, []string{"y", "x", "z", "stand"}, ids(s.Standings()))
}

func TestState_ErrorRecorded(t *testing.T) {
	t.Parallel()

	s := NewState()
	require.NoError(t, s.Apply(codec.NewErrorMessage(protocol.ErrCodeRoomFull)))
	require.NotNil(t, s.LastError)
	assert.Equal(t, protocol.ErrCodeRoomFull, s.LastError.Code)
}
