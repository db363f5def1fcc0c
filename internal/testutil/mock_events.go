//go:build !production

package testutil

import (
	"sync"

	"github.com/palemoky/quiz-room/internal/events"
)

// RecordingPublisher 记录发布的事件
type RecordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *RecordingPublisher) Publish(e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *RecordingPublisher) Close() {}

// Events 指定类型的事件，kind 为空时返回全部
func (p *RecordingPublisher) Events(kind events.Kind) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.events {
		if kind == "" || e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
