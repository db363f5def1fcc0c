package room

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/quiz-room/internal/events"
	"github.com/palemoky/quiz-room/internal/game/quiz"
	"github.com/palemoky/quiz-room/internal/protocol"
	"github.com/palemoky/quiz-room/internal/types"
)

const (
	roomCodeLength = 6                                  // 房间号长度
	roomCodeChars  = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // 房间号字符集（去掉易混淆字符）

	// NumSeats 桌边座位数
	NumSeats = protocol.NumSeats

	offSeatSpread = 1.5 // 无座位玩家在桌子中心 ±1.5 范围内随机站位
	inboxSize     = 256
)

// Pose 位置与朝向
type Pose struct {
	X, Y, Z   float64
	RotationY float64
}

// 四把椅子的位置，朝向桌子中心
var chairPoses = [NumSeats]Pose{
	{X: 0, Y: 0, Z: 1.25, RotationY: math.Pi},
	{X: 0, Y: 0, Z: -1.25, RotationY: 0},
	{X: 1.25, Y: 0, Z: 0, RotationY: math.Pi * 1.5},
	{X: -1.25, Y: 0, Z: 0, RotationY: math.Pi * 0.5},
}

// Player 房间中的玩家
type Player struct {
	ID string
	Pose
	SeatIndex      int  // -1 表示无座位
	IsHost         bool // 房主
	Connected      bool
	IsReady        bool
	Score          int // 本局累计得分
	LastActiveAt   time.Time
	JoinedAt       time.Time
	ReconnectToken string
	Client         types.ClientInterface // 断线期间为 nil

	joinSeq uint64 // JoinedAt 相同时的先后顺序
}

// PlayerNumber 玩家编号，由座位推导
func (p *Player) PlayerNumber() int {
	if p.SeatIndex < 0 {
		return 0
	}
	return p.SeatIndex + 1
}

// Settings 房间运行参数
type Settings struct {
	Rules             quiz.Rules
	RoundResultDelay  time.Duration
	EliminationDelay  time.Duration
	GameOverDelay     time.Duration
	CountdownTick     time.Duration
	ReconnectGrace    time.Duration
	InactivityTimeout time.Duration
	InactivitySweep   time.Duration
	MaxClients        int
	AutoDisposeDelay  time.Duration // 非玩家创建的房间在此之后销毁
	IdleTimeout       time.Duration // 创建后无人加入的房间在此之后销毁，0 表示不限
}

// DefaultSettings 默认参数
func DefaultSettings() Settings {
	return Settings{
		Rules:             quiz.DefaultRules(),
		RoundResultDelay:  5 * time.Second,
		EliminationDelay:  5 * time.Second,
		GameOverDelay:     10 * time.Second,
		CountdownTick:     time.Second,
		ReconnectGrace:    10 * time.Second,
		InactivityTimeout: 5 * time.Minute,
		InactivitySweep:   time.Minute,
		MaxClients:        8,
		AutoDisposeDelay:  100 * time.Millisecond,
		IdleTimeout:       10 * time.Minute,
	}
}

// Options 创建房间的参数
type Options struct {
	ID              string
	Name            string // 为空时使用 "Game <ID>"
	CreatedByPlayer bool   // 为 false 时房间会在 AutoDisposeDelay 后销毁
	Settings        Settings
	Clock           clockwork.Clock
	Questions       []quiz.Question // 为空时使用内置题库
	Rand            *rand.Rand
	Publisher       events.Publisher
	OnChange        func(Summary) // 房间概要变化（在房间协程中调用，不能阻塞）
	OnDispose       func(id string)
}

// Room 游戏房间。所有状态只由 run 协程访问
type Room struct {
	id        string
	name      string
	createdAt time.Time

	settings  Settings
	clock     clockwork.Clock
	rng       *rand.Rand
	deck      *quiz.Deck
	publisher events.Publisher
	onChange  func(Summary)
	onDispose func(id string)
	log       zerolog.Logger

	state         GameState
	round         roundState
	readyNotified bool // 已经发出过 all_players_ready，等待 allReady 变回 false
	joinSeq       uint64
	timers        map[timerKey]*timerHandle
	timerSeq      uint64
	replica       *protocol.RoomState // 上次广播给客户端的状态
	summary       Summary
	hadPlayers    bool
	disposed      bool

	inbox    chan command
	done     chan struct{}
	doneOnce sync.Once
}

// NewRoom 创建房间并启动房间协程
func NewRoom(opts Options) *Room {
	r := newRoom(opts)
	r.start()
	return r
}

func newRoom(opts Options) *Room {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if opts.Publisher == nil {
		opts.Publisher = events.NopPublisher{}
	}
	if len(opts.Questions) == 0 {
		opts.Questions = quiz.DefaultQuestions()
	}
	if opts.Settings.MaxClients <= 0 {
		opts.Settings.MaxClients = DefaultSettings().MaxClients
	}
	if opts.Settings.CountdownTick <= 0 {
		opts.Settings.CountdownTick = time.Second
	}
	if opts.Name == "" {
		opts.Name = "Game " + opts.ID
	}

	now := opts.Clock.Now()
	r := &Room{
		id:        opts.ID,
		name:      opts.Name,
		createdAt: now,
		settings:  opts.Settings,
		clock:     opts.Clock,
		rng:       opts.Rand,
		deck:      quiz.NewDeck(opts.Questions, opts.Rand),
		publisher: opts.Publisher,
		onChange:  opts.OnChange,
		onDispose: opts.OnDispose,
		log:       log.With().Str("room_id", opts.ID).Logger(),
		state:     newGameState(opts.ID, opts.Name, now),
		timers:    make(map[timerKey]*timerHandle),
		inbox:     make(chan command, inboxSize),
		done:      make(chan struct{}),
	}
	r.round.reset()
	r.replica = r.state.view()
	r.summary = r.buildSummary()

	// 防占坑：不是由玩家创建的房间很快销毁
	if !opts.CreatedByPlayer {
		r.schedule(timerKey{kind: timerDispose}, r.settings.AutoDisposeDelay, func() {
			r.log.Info().Msg("🧹 房间不是由玩家创建，自动销毁")
			r.dispose("auto_dispose")
		})
	} else if r.settings.IdleTimeout > 0 {
		r.schedule(timerKey{kind: timerDispose}, r.settings.IdleTimeout, func() {
			if len(r.state.Players) == 0 {
				r.log.Info().Msg("🧹 房间长时间无人加入，自动销毁")
				r.dispose("idle")
			}
		})
	}
	if r.settings.InactivitySweep > 0 {
		r.scheduleSweep()
	}

	r.publish(events.RoomCreated, events.RoomPayload{Name: r.name})
	r.log.Info().Str("name", r.name).Bool("created_by_player", opts.CreatedByPlayer).Msg("🏠 房间已创建")
	return r
}

// start 启动房间协程，之后所有状态只能在协程内访问
func (r *Room) start() {
	go r.run()
}

// ID 房间号
func (r *Room) ID() string { return r.id }

// Name 房间名
func (r *Room) Name() string { return r.name }

// CreatedAt 创建时间
func (r *Room) CreatedAt() time.Time { return r.createdAt }

// Done 房间销毁后关闭
func (r *Room) Done() <-chan struct{} { return r.done }

func (r *Room) publish(kind events.Kind, data any) {
	r.publisher.Publish(events.Event{
		Kind:   kind,
		RoomID: r.id,
		At:     r.clock.Now(),
		Data:   data,
	})
}

// randomOffSeatPose 无座位玩家的随机站位
func (r *Room) randomOffSeatPose() Pose {
	return Pose{
		X:         (r.rng.Float64()*2 - 1) * offSeatSpread,
		Z:         (r.rng.Float64()*2 - 1) * offSeatSpread,
		RotationY: 0,
	}
}
