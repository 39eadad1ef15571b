package game

import (
	"context"
	"sync"

	"github.com/deglerj/dabb-sub000/internal/game/event"
)

// MemoryStore 内存事件日志，模拟器和测试用
type MemoryStore struct {
	mu     sync.Mutex
	events map[string][]event.Event
}

// NewMemoryStore 创建内存事件日志
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[string][]event.Event)}
}

// Append 把一批事件整体追加到日志末尾
func (m *MemoryStore) Append(_ context.Context, events ...event.Event) error {
	if len(events) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id := events[0].SessionID
	m.events[id] = append(m.events[id], events...)
	return nil
}

// Events 返回一个会话的全部事件
func (m *MemoryStore) Events(_ context.Context, sessionID string) ([]event.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]event.Event(nil), m.events[sessionID]...), nil
}
