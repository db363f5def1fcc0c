package room

import (
	"cmp"
	"context"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/quiz-room/internal/apperrors"
	"github.com/palemoky/quiz-room/internal/events"
	"github.com/palemoky/quiz-room/internal/game/quiz"
	"github.com/palemoky/quiz-room/internal/protocol"
	"github.com/palemoky/quiz-room/internal/server/storage"
)

const (
	storeQueueSize    = 256
	storeOpTimeout    = 3 * time.Second
	codeLookupTimeout = 200 * time.Millisecond
	refreshInterval   = 30 * time.Minute // 定期刷新 Redis 中的房间概要，防止过期
)

// ManagerOptions 房间管理器参数
type ManagerOptions struct {
	Settings  Settings
	Clock     clockwork.Clock
	Questions []quiz.Question
	Publisher events.Publisher
	Store     *storage.RedisStore // 可以为 nil
}

type storeOp struct {
	summary Summary
	delete  bool
}

// RoomManager 房间管理器：房间号 → 房间。房间在自己的协程里回调管理器，
// 所以持有 mu 时不能等待任何房间
type RoomManager struct {
	opts ManagerOptions

	rooms     map[string]*Room
	summaries map[string]Summary
	mu        sync.RWMutex

	storeQueue chan storeOp
	stop       chan struct{}
	wg         sync.WaitGroup
	closeOnce  sync.Once
}

// NewRoomManager 创建房间管理器
func NewRoomManager(opts ManagerOptions) *RoomManager {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Publisher == nil {
		opts.Publisher = events.NopPublisher{}
	}

	rm := &RoomManager{
		opts:       opts,
		rooms:      make(map[string]*Room),
		summaries:  make(map[string]Summary),
		storeQueue: make(chan storeOp, storeQueueSize),
		stop:       make(chan struct{}),
	}

	rm.wg.Add(2)
	go rm.storeLoop()
	go rm.refreshLoop()

	return rm
}

// CreateRoom 创建房间。createdByPlayer 为 false 的房间会很快自动销毁
func (rm *RoomManager) CreateRoom(name string, createdByPlayer bool) *Room {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	code := rm.generateRoomCode()
	r := newRoom(Options{
		ID:              code,
		Name:            name,
		CreatedByPlayer: createdByPlayer,
		Settings:        rm.opts.Settings,
		Clock:           rm.opts.Clock,
		Questions:       rm.opts.Questions,
		Publisher:       rm.opts.Publisher,
		OnChange:        rm.onRoomChange,
		OnDispose:       rm.onRoomDispose,
	})
	rm.rooms[code] = r
	rm.summaries[code] = r.summary
	rm.enqueue(storeOp{summary: r.summary})
	r.start()

	return r
}

// onRoomChange 在房间协程中调用
func (rm *RoomManager) onRoomChange(s Summary) {
	rm.mu.Lock()
	if _, ok := rm.rooms[s.RoomID]; ok && !s.Disposed {
		rm.summaries[s.RoomID] = s
	}
	rm.mu.Unlock()

	if !s.Disposed {
		rm.enqueue(storeOp{summary: s})
	}
}

// onRoomDispose 在房间协程中调用
func (rm *RoomManager) onRoomDispose(id string) {
	rm.mu.Lock()
	delete(rm.rooms, id)
	delete(rm.summaries, id)
	rm.mu.Unlock()

	rm.enqueue(storeOp{summary: Summary{RoomID: id}, delete: true})
}

// enqueue 不阻塞房间协程，队列满时丢弃并记录
func (rm *RoomManager) enqueue(op storeOp) {
	if rm.opts.Store == nil {
		return
	}
	select {
	case <-rm.stop:
	case rm.storeQueue <- op:
	default:
		log.Warn().Str("room_id", op.summary.RoomID).Msg("Redis 写入队列已满，丢弃房间概要")
	}
}

// storeLoop 按顺序写入 Redis，保证删除不会被之前的保存覆盖
func (rm *RoomManager) storeLoop() {
	defer rm.wg.Done()
	for {
		select {
		case op := <-rm.storeQueue:
			rm.apply(op)
		case <-rm.stop:
			for {
				select {
				case op := <-rm.storeQueue:
					rm.apply(op)
				default:
					return
				}
			}
		}
	}
}

func (rm *RoomManager) apply(op storeOp) {
	store := rm.opts.Store
	if store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeOpTimeout)
	defer cancel()

	var err error
	if op.delete {
		err = store.DeleteRoom(ctx, op.summary.RoomID)
	} else {
		err = store.SaveRoom(ctx, op.summary.ToRoomData(rm.opts.Clock.Now()))
	}
	if err != nil {
		log.Warn().Err(err).Str("room_id", op.summary.RoomID).Bool("delete", op.delete).Msg("同步房间概要到 Redis 失败")
	}
}

// refreshLoop 定期重新保存存活房间的概要
func (rm *RoomManager) refreshLoop() {
	defer rm.wg.Done()
	ticker := rm.opts.Clock.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			rm.mu.RLock()
			for _, s := range rm.summaries {
				rm.enqueue(storeOp{summary: s})
			}
			rm.mu.RUnlock()
		case <-rm.stop:
			return
		}
	}
}

// generateRoomCode 生成本机和 Redis 中都未使用的房间号，调用方持有 mu
func (rm *RoomManager) generateRoomCode() string {
	for {
		code := make([]byte, roomCodeLength)
		for i := range code {
			code[i] = roomCodeChars[rand.IntN(len(roomCodeChars))]
		}
		codeStr := string(code)
		if _, exists := rm.rooms[codeStr]; exists {
			continue
		}
		if !rm.mirroredElsewhere(codeStr) {
			return codeStr
		}
	}
}

// mirroredElsewhere 共用同一个 Redis 的其他实例是否已占用该房间号。
// Redis 不可用时只按本机判断
func (rm *RoomManager) mirroredElsewhere(code string) bool {
	if rm.opts.Store == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), codeLookupTimeout)
	defer cancel()

	data, err := rm.opts.Store.LoadRoom(ctx, code)
	if err != nil {
		log.Warn().Err(err).Str("room_id", code).Msg("查询 Redis 房间号失败")
		return false
	}
	return data != nil
}

// GetRoom 获取房间
func (rm *RoomManager) GetRoom(id string) (*Room, error) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	r, ok := rm.rooms[id]
	if !ok {
		return nil, apperrors.ErrRoomNotFound
	}
	return r, nil
}

// List 可加入的房间，按创建时间排序
func (rm *RoomManager) List() []protocol.RoomListItem {
	rm.mu.RLock()
	summaries := make([]Summary, 0, len(rm.summaries))
	for _, s := range rm.summaries {
		if s.Joinable() {
			summaries = append(summaries, s)
		}
	}
	rm.mu.RUnlock()

	slices.SortFunc(summaries, func(a, b Summary) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.RoomID, b.RoomID)
	})

	items := make([]protocol.RoomListItem, 0, len(summaries))
	for _, s := range summaries {
		items = append(items, s.ToListItem())
	}
	return items
}

// Count 房间数量
func (rm *RoomManager) Count() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.rooms)
}

// ActiveGamesCount 正在进行游戏的房间数量
func (rm *RoomManager) ActiveGamesCount() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	count := 0
	for _, s := range rm.summaries {
		if s.Phase.Active() {
			count++
		}
	}
	return count
}

// Shutdown 关闭所有房间并等待 Redis 写入完成
func (rm *RoomManager) Shutdown(ctx context.Context) error {
	rm.mu.RLock()
	rooms := make([]*Room, 0, len(rm.rooms))
	for _, r := range rm.rooms {
		rooms = append(rooms, r)
	}
	rm.mu.RUnlock()

	var firstErr error
	for _, r := range rooms {
		if err := r.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	rm.closeOnce.Do(func() { close(rm.stop) })

	done := make(chan struct{})
	go func() {
		rm.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		if firstErr == nil {
			firstErr = ctx.Err()
		}
	}
	return firstErr
}
