package quiz

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/quiz-room/internal/apperrors"
)

func TestDefaultQuestions_Valid(t *testing.T) {
	t.Parallel()

	qs := DefaultQuestions()
	assert.Len(t, qs, 10)
	for _, q := range qs {
		assert.NoError(t, q.Validate(), q.Prompt)
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	data := []byte(`
questions:
  - question: "2 + 2 = ?"
    options: ["3", "4", "5", "22"]
    correct_answer: 1
  - question: "Largest ocean?"
    options: ["Atlantic", "Indian", "Arctic", "Pacific"]
    correct_answer: 3
`)
	qs, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, "2 + 2 = ?", qs[0].Prompt)
	assert.True(t, qs[0].IsCorrect(1))
	assert.False(t, qs[0].IsCorrect(0))
	assert.Equal(t, [NumOptions]string{"Atlantic", "Indian", "Arctic", "Pacific"}, qs[1].OptionsArray())
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"empty":         `questions: []`,
		"three options": "questions:\n  - question: q\n    options: [a, b, c]\n    correct_answer: 0\n",
		"bad index":     "questions:\n  - question: q\n    options: [a, b, c, d]\n    correct_answer: 4\n",
		"no prompt":     "questions:\n  - options: [a, b, c, d]\n    correct_answer: 0\n",
		"not yaml":      "questions: [",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data))
			assert.ErrorIs(t, err, apperrors.ErrInvalidQuestions)
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "questions.yaml")
	require.NoError(t, os.WriteFile(path, []byte("questions:\n  - question: q\n    options: [a, b, c, d]\n    correct_answer: 2\n"), 0o600))

	qs, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, qs[0].Correct)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
