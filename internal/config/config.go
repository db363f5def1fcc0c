package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix 环境变量前缀，例如 QUIZ_SERVER_PORT
const EnvPrefix = "QUIZ_"

// Config 服务端配置
type Config struct {
	Server   ServerConfig   `yaml:"server" envPrefix:"SERVER_"`
	Redis    RedisConfig    `yaml:"redis" envPrefix:"REDIS_"`
	NATS     NATSConfig     `yaml:"nats" envPrefix:"NATS_"`
	Game     GameConfig     `yaml:"game" envPrefix:"GAME_"`
	Security SecurityConfig `yaml:"security" envPrefix:"SECURITY_"`
	Log      LogConfig      `yaml:"log" envPrefix:"LOG_"`
}

// ServerConfig HTTP / WebSocket 服务器配置
type ServerConfig struct {
	Host           string   `yaml:"host" env:"HOST"`
	Port           int      `yaml:"port" env:"PORT"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","` // 为空时允许所有来源
}

// RedisConfig Redis 配置，用于镜像房间列表
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" env:"ENABLED"`
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
}

// NATSConfig NATS 配置，URL 为空时不发布房间事件
type NATSConfig struct {
	URL           string `yaml:"url" env:"URL"`
	SubjectPrefix string `yaml:"subject_prefix" env:"SUBJECT_PREFIX"`
}

// GameConfig 游戏配置
type GameConfig struct {
	QuestionTime        int     `yaml:"question_time" env:"QUESTION_TIME"`               // 答题时间（秒）
	EliminationInterval int     `yaml:"elimination_interval" env:"ELIMINATION_INTERVAL"` // 每隔多少轮淘汰一人
	MaxScore            int     `yaml:"max_score" env:"MAX_SCORE"`                       // 单题满分
	LatePenalty         float64 `yaml:"late_penalty" env:"LATE_PENALTY"`                 // 超时扣分系数
	RoundResultDelay    int     `yaml:"round_result_delay" env:"ROUND_RESULT_DELAY"`     // 公布结果后进入下一轮（秒）
	EliminationDelay    int     `yaml:"elimination_delay" env:"ELIMINATION_DELAY"`       // 淘汰后恢复答题（秒）
	GameOverDelay       int     `yaml:"game_over_delay" env:"GAME_OVER_DELAY"`           // 结束后重置（秒）
	ReconnectGrace      int     `yaml:"reconnect_grace" env:"RECONNECT_GRACE"`           // 断线重连窗口（秒）
	InactivityTimeout   int     `yaml:"inactivity_timeout" env:"INACTIVITY_TIMEOUT"`     // 不活跃判定（秒）
	InactivitySweep     int     `yaml:"inactivity_sweep" env:"INACTIVITY_SWEEP"`         // 不活跃扫描间隔（秒）
	MaxClients          int     `yaml:"max_clients" env:"MAX_CLIENTS"`                   // 单房间最大连接数
	AutoDisposeDelay    int     `yaml:"auto_dispose_delay" env:"AUTO_DISPOSE_DELAY"`     // 非玩家创建的房间销毁延迟（毫秒）
	IdleRoomTimeout     int     `yaml:"idle_room_timeout" env:"IDLE_ROOM_TIMEOUT"`       // 无人加入的房间超时（分钟）
	QuestionsFile       string  `yaml:"questions_file" env:"QUESTIONS_FILE"`             // 题库文件，为空使用内置题库
}

// SecurityConfig 连接与消息限流
type SecurityConfig struct {
	ConnectPerSecond  int `yaml:"connect_per_second" env:"CONNECT_PER_SECOND"`   // 单 IP 每秒连接/创建房间次数
	ConnectPerMinute  int `yaml:"connect_per_minute" env:"CONNECT_PER_MINUTE"`   // 单 IP 每分钟连接/创建房间次数
	BanDuration       int `yaml:"ban_duration" env:"BAN_DURATION"`               // 超限后的封禁时长（秒）
	MessagesPerSecond int `yaml:"messages_per_second" env:"MESSAGES_PER_SECOND"` // 单连接每秒消息数
}

// BanDurationTime 返回封禁时长
func (c *SecurityConfig) BanDurationTime() time.Duration {
	return time.Duration(c.BanDuration) * time.Second
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Pretty bool   `yaml:"pretty" env:"PRETTY"` // 控制台彩色输出
	File   string `yaml:"file" env:"FILE"`     // 额外写入的日志文件
}

// QuestionTimeDuration 返回答题时长
func (c *GameConfig) QuestionTimeDuration() time.Duration {
	return time.Duration(c.QuestionTime) * time.Second
}

// RoundResultDelayDuration 返回结果展示时长
func (c *GameConfig) RoundResultDelayDuration() time.Duration {
	return time.Duration(c.RoundResultDelay) * time.Second
}

// EliminationDelayDuration 返回淘汰展示时长
func (c *GameConfig) EliminationDelayDuration() time.Duration {
	return time.Duration(c.EliminationDelay) * time.Second
}

// GameOverDelayDuration 返回结束后重置的等待时长
func (c *GameConfig) GameOverDelayDuration() time.Duration {
	return time.Duration(c.GameOverDelay) * time.Second
}

// ReconnectGraceDuration 返回断线重连窗口
func (c *GameConfig) ReconnectGraceDuration() time.Duration {
	return time.Duration(c.ReconnectGrace) * time.Second
}

// InactivityTimeoutDuration 返回不活跃判定时长
func (c *GameConfig) InactivityTimeoutDuration() time.Duration {
	return time.Duration(c.InactivityTimeout) * time.Second
}

// InactivitySweepDuration 返回不活跃扫描间隔
func (c *GameConfig) InactivitySweepDuration() time.Duration {
	return time.Duration(c.InactivitySweep) * time.Second
}

// AutoDisposeDelayDuration 返回非玩家创建房间的销毁延迟
func (c *GameConfig) AutoDisposeDelayDuration() time.Duration {
	return time.Duration(c.AutoDisposeDelay) * time.Millisecond
}

// IdleRoomTimeoutDuration 返回空房间超时
func (c *GameConfig) IdleRoomTimeoutDuration() time.Duration {
	return time.Duration(c.IdleRoomTimeout) * time.Minute
}

// Addr 返回监听地址
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load 加载配置文件，补齐默认值后再用环境变量覆盖
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	applyDefaults(&cfg)

	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv 用 QUIZ_* 环境变量覆盖配置，未设置的变量保持原值
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 2567,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		NATS: NATSConfig{
			SubjectPrefix: "quiz",
		},
		Game: GameConfig{
			QuestionTime:        20,
			EliminationInterval: 5,
			MaxScore:            1000,
			LatePenalty:         0.7,
			RoundResultDelay:    5,
			EliminationDelay:    5,
			GameOverDelay:       10,
			ReconnectGrace:      10,
			InactivityTimeout:   300,
			InactivitySweep:     60,
			MaxClients:          8,
			AutoDisposeDelay:    100,
			IdleRoomTimeout:     10,
		},
		Security: SecurityConfig{
			ConnectPerSecond:  5,
			ConnectPerMinute:  60,
			BanDuration:       60,
			MessagesPerSecond: 30,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func applyDefaults(cfg *Config) {
	def := Default()

	if cfg.Server.Host == "" {
		cfg.Server.Host = def.Server.Host
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = def.Server.Port
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = def.Redis.Addr
	}
	if cfg.NATS.SubjectPrefix == "" {
		cfg.NATS.SubjectPrefix = def.NATS.SubjectPrefix
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}

	g, d := &cfg.Game, &def.Game
	setDefault(&g.QuestionTime, d.QuestionTime)
	setDefault(&g.EliminationInterval, d.EliminationInterval)
	setDefault(&g.MaxScore, d.MaxScore)
	setDefault(&g.LatePenalty, d.LatePenalty)
	setDefault(&g.RoundResultDelay, d.RoundResultDelay)
	setDefault(&g.EliminationDelay, d.EliminationDelay)
	setDefault(&g.GameOverDelay, d.GameOverDelay)
	setDefault(&g.ReconnectGrace, d.ReconnectGrace)
	setDefault(&g.InactivityTimeout, d.InactivityTimeout)
	setDefault(&g.InactivitySweep, d.InactivitySweep)
	setDefault(&g.MaxClients, d.MaxClients)
	setDefault(&g.AutoDisposeDelay, d.AutoDisposeDelay)
	setDefault(&g.IdleRoomTimeout, d.IdleRoomTimeout)

	sec, ds := &cfg.Security, &def.Security
	setDefault(&sec.ConnectPerSecond, ds.ConnectPerSecond)
	setDefault(&sec.ConnectPerMinute, ds.ConnectPerMinute)
	setDefault(&sec.BanDuration, ds.BanDuration)
	setDefault(&sec.MessagesPerSecond, ds.MessagesPerSecond)
}

func setDefault[T int | float64](v *T, def T) {
	if *v == 0 {
		*v = def
	}
}
