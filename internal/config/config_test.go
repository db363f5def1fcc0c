package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	t.Parallel()

	content := `
server:
  host: "127.0.0.1"
  port: 8080
  allowed_origins:
    - "http://localhost:3000"

redis:
  enabled: true
  addr: "redis:6379"
  password: "secret"
  db: 1

nats:
  url: "nats://nats:4222"

game:
  question_time: 15
  elimination_interval: 3
  late_penalty: 0.5
  max_clients: 6
  questions_file: "configs/questions.yaml"

log:
  level: debug
  pretty: true
`
	cfg, err := Load(writeConfig(t, content))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)

	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "secret", cfg.Redis.Password)
	assert.Equal(t, 1, cfg.Redis.DB)

	assert.Equal(t, "nats://nats:4222", cfg.NATS.URL)
	assert.Equal(t, "quiz", cfg.NATS.SubjectPrefix, "default prefix")

	assert.Equal(t, 15*time.Second, cfg.Game.QuestionTimeDuration())
	assert.Equal(t, 3, cfg.Game.EliminationInterval)
	assert.InDelta(t, 0.5, cfg.Game.LatePenalty, 1e-9)
	assert.Equal(t, 6, cfg.Game.MaxClients)
	assert.Equal(t, "configs/questions.yaml", cfg.Game.QuestionsFile)

	// 未配置的字段使用默认值
	assert.Equal(t, 1000, cfg.Game.MaxScore)
	assert.Equal(t, 10*time.Second, cfg.Game.ReconnectGraceDuration())

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
}

func TestLoad_EmptyFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.Server, cfg.Server)
	assert.Equal(t, def.Game, cfg.Game)
	assert.Equal(t, def.Security, cfg.Security)
	assert.Equal(t, def.Log, cfg.Log)
	assert.Equal(t, time.Minute, cfg.Security.BanDurationTime())
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Parallel()

	_, err := Load(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)
}

func TestApplyEnv_Overrides(t *testing.T) {
	t.Setenv("QUIZ_SERVER_PORT", "9999")
	t.Setenv("QUIZ_SERVER_ALLOWED_ORIGINS", "http://a.com,http://b.com")
	t.Setenv("QUIZ_REDIS_ENABLED", "true")
	t.Setenv("QUIZ_GAME_QUESTION_TIME", "30")
	t.Setenv("QUIZ_LOG_LEVEL", "warn")

	cfg := Default()
	require.NoError(t, ApplyEnv(cfg))

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host, "unset vars keep their value")
	assert.Equal(t, []string{"http://a.com", "http://b.com"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Game.QuestionTimeDuration())
	assert.Equal(t, 5, cfg.Game.EliminationInterval)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestApplyEnv_InvalidValue(t *testing.T) {
	t.Setenv("QUIZ_SERVER_PORT", "not-a-number")

	err := ApplyEnv(Default())
	assert.Error(t, err)
}

func TestDefault_Durations(t *testing.T) {
	t.Parallel()

	g := Default().Game
	assert.Equal(t, 20*time.Second, g.QuestionTimeDuration())
	assert.Equal(t, 5*time.Second, g.RoundResultDelayDuration())
	assert.Equal(t, 5*time.Second, g.EliminationDelayDuration())
	assert.Equal(t, 10*time.Second, g.GameOverDelayDuration())
	assert.Equal(t, 5*time.Minute, g.InactivityTimeoutDuration())
	assert.Equal(t, time.Minute, g.InactivitySweepDuration())
	assert.Equal(t, 100*time.Millisecond, g.AutoDisposeDelayDuration())
	assert.Equal(t, 10*time.Minute, g.IdleRoomTimeoutDuration())
}
