package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// window 固定窗口计数器
type window struct {
	start time.Time
	count int
}

// hit 记一次请求，返回当前窗口内的次数
func (w *window) hit(now time.Time, size time.Duration) int {
	if now.Sub(w.start) >= size {
		w.start, w.count = now, 0
	}
	w.count++
	return w.count
}

type ipState struct {
	second      window
	minute      window
	bannedUntil time.Time
}

// RateLimiter 按 IP 限制建立连接和创建房间的频率，超限后封禁一段时间
type RateLimiter struct {
	clock clockwork.Clock
	mu    sync.Mutex
	ips   map[string]*ipState

	perSecond   int
	perMinute   int
	banDuration time.Duration
}

// NewRateLimiter 创建速率限制器
func NewRateLimiter(clock clockwork.Clock, perSecond, perMinute int, banDuration time.Duration) *RateLimiter {
	return &RateLimiter{
		clock:       clock,
		ips:         make(map[string]*ipState),
		perSecond:   perSecond,
		perMinute:   perMinute,
		banDuration: banDuration,
	}
}

// Allow 检查是否允许请求
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	st, ok := rl.ips[ip]
	if !ok {
		st = &ipState{}
		rl.ips[ip] = st
	}
	if now.Before(st.bannedUntil) {
		return false
	}

	sec := st.second.hit(now, time.Second)
	minute := st.minute.hit(now, time.Minute)
	if sec > rl.perSecond || minute > rl.perMinute {
		st.bannedUntil = now.Add(rl.banDuration)
		log.Warn().Str("ip", ip).Dur("ban", rl.banDuration).Msg("⚠️ 请求过于频繁，暂时封禁")
		return false
	}
	return true
}

// IsBanned IP 是否处于封禁期
func (rl *RateLimiter) IsBanned(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	st, ok := rl.ips[ip]
	return ok && rl.clock.Now().Before(st.bannedUntil)
}

// Cleanup 删除超过 idle 没有请求且未被封禁的记录
func (rl *RateLimiter) Cleanup(idle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	for ip, st := range rl.ips {
		if now.Sub(st.minute.start) > idle && !now.Before(st.bannedUntil) {
			delete(rl.ips, ip)
		}
	}
}

// OriginChecker WebSocket 握手的 Origin 白名单
type OriginChecker struct {
	allowed  map[string]struct{}
	allowAll bool
}

// NewOriginChecker 列表为空或包含 "*" 时允许所有来源
func NewOriginChecker(origins []string) *OriginChecker {
	oc := &OriginChecker{
		allowed:  make(map[string]struct{}, len(origins)),
		allowAll: len(origins) == 0,
	}
	for _, o := range origins {
		if o == "*" {
			oc.allowAll = true
			break
		}
		oc.allowed[strings.ToLower(o)] = struct{}{}
	}
	return oc
}

// Check 用作 websocket.Upgrader.CheckOrigin。没有 Origin 头的请求（终端客户端）总是允许
func (oc *OriginChecker) Check(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if oc.allowAll || origin == "" {
		return true
	}
	_, ok := oc.allowed[strings.ToLower(origin)]
	return ok
}

// GetClientIP 优先取反向代理头中的客户端地址
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type clientMessages struct {
	window   window
	warnings int
}

// MessageRateLimiter 单个连接每秒的消息数
type MessageRateLimiter struct {
	clock   clockwork.Clock
	mu      sync.Mutex
	clients map[string]*clientMessages

	perSecond int
}

// NewMessageRateLimiter 创建消息速率限制器
func NewMessageRateLimiter(clock clockwork.Clock, perSecond int) *MessageRateLimiter {
	return &MessageRateLimiter{
		clock:     clock,
		clients:   make(map[string]*clientMessages),
		perSecond: perSecond,
	}
}

// AllowMessage 是否处理这条消息，warnings 为累计超限次数
func (ml *MessageRateLimiter) AllowMessage(clientID string) (allowed bool, warnings int) {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	cm, ok := ml.clients[clientID]
	if !ok {
		cm = &clientMessages{}
		ml.clients[clientID] = cm
	}
	if cm.window.hit(ml.clock.Now(), time.Second) > ml.perSecond {
		cm.warnings++
		return false, cm.warnings
	}
	return true, cm.warnings
}

// RemoveClient 连接断开后移除记录
func (ml *MessageRateLimiter) RemoveClient(clientID string) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	delete(ml.clients, clientID)
}
