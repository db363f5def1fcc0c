package quiz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPoints(t *testing.T) {
	t.Parallel()

	r := DefaultRules()
	tests := []struct {
		name    string
		correct bool
		elapsed time.Duration
		want    int
	}{
		{"instant", true, 0, 1000},
		{"3s", true, 3 * time.Second, 895},
		{"7s", true, 7 * time.Second, 755},
		{"10s", true, 10 * time.Second, 650},
		{"at limit", true, 20 * time.Second, 300},
		{"past limit clamps", true, 45 * time.Second, 300},
		{"wrong", false, time.Second, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Points(tt.correct, tt.elapsed))
		})
	}
}

func TestPoints_FloorIsThirtyPercent(t *testing.T) {
	t.Parallel()

	r := DefaultRules()
	for ms := 0; ms <= 25000; ms += 250 {
		p := r.Points(true, time.Duration(ms)*time.Millisecond)
		assert.GreaterOrEqual(t, p, 300)
		assert.LessOrEqual(t, p, 1000)
	}
}

func TestEliminationDue(t *testing.T) {
	t.Parallel()

	r := DefaultRules()
	assert.False(t, r.EliminationDue(0, 0))
	assert.False(t, r.EliminationDue(4, 0))
	assert.True(t, r.EliminationDue(5, 0))
	assert.False(t, r.EliminationDue(5, 5), "same round only eliminates once")
	assert.False(t, r.EliminationDue(6, 5))
	assert.True(t, r.EliminationDue(10, 5))

	r.EliminationInterval = 0
	assert.False(t, r.EliminationDue(5, 0))
}

func TestQuestionSeconds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 20, DefaultRules().QuestionSeconds())
	assert.Equal(t, 2, Rules{QuestionTime: 1500 * time.Millisecond}.QuestionSeconds())
}
