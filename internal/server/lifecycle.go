package server

import (
	"context"
	"errors"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	statsInterval        = 30 * time.Second
	rateLimiterIdleAfter = 10 * time.Minute
)

// monitorStats 定期记录服务器状态并清理限流记录
func (s *Server) monitorStats() {
	ticker := s.clock.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			log.Info().
				Int("online", s.GetOnlineCount()).
				Int("rooms", s.roomManager.Count()).
				Int("active_games", s.roomManager.ActiveGamesCount()).
				Int("goroutines", runtime.NumGoroutine()).
				Float64("mem_mb", float64(m.Alloc)/1024/1024).
				Msg("📊 [监控]")

			s.rateLimiter.Cleanup(rateLimiterIdleAfter)
		case <-s.stop:
			return
		}
	}
}

// Shutdown 停止接受新连接，解散所有房间，关闭外部连接
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stop) })

	var errs []error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if err := s.roomManager.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	// 不在房间中的连接（例如正在握手）
	s.clientsMu.RLock()
	for _, client := range s.clients {
		client.Close()
	}
	s.clientsMu.RUnlock()

	s.publisher.Close()
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	log.Info().Msg("服务器已关闭")
	return errors.Join(errs...)
}
