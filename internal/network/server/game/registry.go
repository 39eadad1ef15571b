package game

import (
	"sync"

	"github.com/deglerj/dabb-sub000/internal/apperrors"
)

// Registry 会话注册表：进程内所有活跃会话的唯一入口，
// 由服务端构造一次后注入，不做包级全局状态
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	store    EventStore
}

// NewRegistry 创建会话注册表
func NewRegistry(store EventStore) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		store:    store,
	}
}

// Create 创建新会话；已存在同名会话时返回现有的
func (r *Registry) Create(id string, playerCount, targetScore int) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sess, ok := r.sessions[id]; ok {
		return sess
	}
	sess := NewSession(id, playerCount, targetScore, r.store)
	r.sessions[id] = sess
	return sess
}

// Get 查找会话
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	return sess, nil
}

// Remove 移除会话（终局或闲置回收）
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Count 返回活跃会话数
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
