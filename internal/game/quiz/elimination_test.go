package quiz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLowest(t *testing.T) {
	t.Parallel()

	t0 := time.Unix(1000, 0)
	tests := []struct {
		name      string
		standings []Standing
		want      string
	}{
		{
			name: "lowest score",
			standings: []Standing{
				{PlayerID: "a", Score: 900, JoinedAt: t0},
				{PlayerID: "b", Score: 300, JoinedAt: t0.Add(time.Second)},
				{PlayerID: "c", Score: 600, JoinedAt: t0.Add(2 * time.Second)},
			},
			want: "b",
		},
		{
			name: "tie goes to earliest joiner",
			standings: []Standing{
				{PlayerID: "a", Score: 500, JoinedAt: t0.Add(time.Second)},
				{PlayerID: "b", Score: 500, JoinedAt: t0},
			},
			want: "b",
		},
		{
			name: "full tie falls back to id",
			standings: []Standing{
				{PlayerID: "zed", Score: 0, JoinedAt: t0},
				{PlayerID: "amy", Score: 0, JoinedAt: t0},
			},
			want: "amy",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Lowest(tt.standings)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got.PlayerID)
		})
	}

	_, ok := Lowest(nil)
	assert.False(t, ok)
}

func TestPhase_Active(t *testing.T) {
	t.Parallel()

	assert.False(t, PhaseWaiting.Active())
	assert.True(t, PhaseQuiz.Active())
	assert.True(t, PhaseElimination.Active())
	assert.False(t, PhaseFinished.Active())
}
