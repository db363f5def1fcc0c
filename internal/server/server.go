package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/quiz-room/internal/config"
	"github.com/palemoky/quiz-room/internal/events"
	"github.com/palemoky/quiz-room/internal/game/quiz"
	"github.com/palemoky/quiz-room/internal/game/room"
	"github.com/palemoky/quiz-room/internal/server/storage"
)

const redisPingTimeout = 5 * time.Second

// Options 可替换的依赖，零值表示使用默认实现
type Options struct {
	Clock     clockwork.Clock
	Redis     *redis.Client // nil 表示不镜像房间列表
	Publisher events.Publisher
	Questions []quiz.Question
}

// Server HTTP + WebSocket 服务器
type Server struct {
	config      *config.Config
	clock       clockwork.Clock
	redis       *redis.Client
	publisher   events.Publisher
	roomManager *room.RoomManager

	clients   map[string]*Client
	clientsMu sync.RWMutex

	upgrader       websocket.Upgrader
	rateLimiter    *RateLimiter
	messageLimiter *MessageRateLimiter

	httpServer *http.Server
	stop       chan struct{}
	stopOnce   sync.Once
}

// NewServer 按配置连接 Redis、NATS 并加载题库
func NewServer(cfg *config.Config) (*Server, error) {
	opts := Options{}

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis 连接失败: %w", err)
		}
		opts.Redis = rdb
		log.Info().Str("addr", cfg.Redis.Addr).Msg("📦 Redis 已连接，房间列表将同步到 Redis")
	}

	if cfg.NATS.URL != "" {
		pub, err := events.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
		if err != nil {
			if opts.Redis != nil {
				_ = opts.Redis.Close()
			}
			return nil, err
		}
		opts.Publisher = pub
		log.Info().Str("url", cfg.NATS.URL).Str("prefix", cfg.NATS.SubjectPrefix).Msg("📡 NATS 已连接，发布房间事件")
	}

	if path := cfg.Game.QuestionsFile; path != "" {
		qs, err := quiz.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("加载题库 %s: %w", path, err)
		}
		opts.Questions = qs
		log.Info().Str("file", path).Int("questions", len(qs)).Msg("📚 题库已加载")
	}

	return New(cfg, opts), nil
}

// New 用给定依赖创建服务器
func New(cfg *config.Config, opts Options) *Server {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Publisher == nil {
		opts.Publisher = events.NopPublisher{}
	}

	sec := cfg.Security
	s := &Server{
		config:         cfg,
		clock:          opts.Clock,
		redis:          opts.Redis,
		publisher:      opts.Publisher,
		clients:        make(map[string]*Client),
		rateLimiter:    NewRateLimiter(opts.Clock, sec.ConnectPerSecond, sec.ConnectPerMinute, sec.BanDurationTime()),
		messageLimiter: NewMessageRateLimiter(opts.Clock, sec.MessagesPerSecond),
		stop:           make(chan struct{}),
	}

	originChecker := NewOriginChecker(cfg.Server.AllowedOrigins)
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker.Check,
	}

	var store *storage.RedisStore
	if opts.Redis != nil {
		store = storage.NewRedisStore(opts.Redis)
	}
	s.roomManager = room.NewRoomManager(room.ManagerOptions{
		Settings:  RoomSettings(&cfg.Game),
		Clock:     opts.Clock,
		Questions: opts.Questions,
		Publisher: opts.Publisher,
		Store:     store,
	})

	return s
}

// RoomSettings 把游戏配置转换为房间参数
func RoomSettings(g *config.GameConfig) room.Settings {
	s := room.DefaultSettings()
	s.Rules = quiz.Rules{
		QuestionTime:        g.QuestionTimeDuration(),
		EliminationInterval: g.EliminationInterval,
		MaxScore:            g.MaxScore,
		LatePenalty:         g.LatePenalty,
	}
	s.RoundResultDelay = g.RoundResultDelayDuration()
	s.EliminationDelay = g.EliminationDelayDuration()
	s.GameOverDelay = g.GameOverDelayDuration()
	s.ReconnectGrace = g.ReconnectGraceDuration()
	s.InactivityTimeout = g.InactivityTimeoutDuration()
	s.InactivitySweep = g.InactivitySweepDuration()
	s.MaxClients = g.MaxClients
	s.AutoDisposeDelay = g.AutoDisposeDelayDuration()
	s.IdleTimeout = g.IdleRoomTimeoutDuration()
	return s
}

// Rooms 房间管理器
func (s *Server) Rooms() *room.RoomManager {
	return s.roomManager
}

// Handler 返回带 CORS 的 HTTP 路由
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("POST /rooms", s.handleCreateRoom)
	mux.HandleFunc("GET /rooms", s.handleListRooms)
	mux.HandleFunc("GET /health", s.handleHealth)

	origins := s.config.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(mux)
}

// Start 启动服务器，阻塞直到 Shutdown
func (s *Server) Start() error {
	addr := s.config.Server.Addr()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go s.monitorStats()

	log.Info().Msgf("🚀 服务器启动在 ws://%s/ws", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
