package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "debug.log")

	require.NoError(t, Init(Options{Level: "debug", File: path, Quiet: true}))
	t.Cleanup(Close)

	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
	assert.Equal(t, path, GetLogPath())

	log.Info().Str("room_id", "ABC123").Msg("hello")
	LogPanic("boom")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"room_id":"ABC123"`)
	assert.Contains(t, string(data), "panic: boom")
	assert.Contains(t, string(data), `"stack"`)
}

func TestInit_InvalidLevelFallsBackToInfo(t *testing.T) {
	require.NoError(t, Init(Options{Level: "loud", Quiet: true}))
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
