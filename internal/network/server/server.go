// Package server 实现 WebSocket 游戏服务器：连接管理、消息分发、
// 按观察者过滤的事件广播，以及自动玩家调度的接线。
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/deglerj/dabb-sub000/internal/config"
	"github.com/deglerj/dabb-sub000/internal/game/ai"
	"github.com/deglerj/dabb-sub000/internal/game/event"
	"github.com/deglerj/dabb-sub000/internal/game/view"
	"github.com/deglerj/dabb-sub000/internal/network/protocol"
	"github.com/deglerj/dabb-sub000/internal/network/server/game"
	"github.com/deglerj/dabb-sub000/internal/network/server/storage"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // 来源验证在 handleWebSocket 中做
	},
}

// Server WebSocket 游戏服务器
type Server struct {
	config     *config.Config
	redis      *redis.Client
	eventStore *storage.RedisEventStore
	scores     *storage.ScoreStore
	registry   *game.Registry
	scheduler  *game.Scheduler
	handler    *Handler

	clients   map[string]*Client
	clientsMu sync.RWMutex

	// 安全组件
	rateLimiter    *RateLimiter
	messageLimiter *MessageRateLimiter
	originChecker  *OriginChecker

	// 连接控制
	maxConnections int
	semaphore      chan struct{}

	// 维护模式
	maintenanceMode bool
	maintenanceMu   sync.RWMutex
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) (*Server, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// 测试 Redis 连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis 连接失败: %w", err)
	}

	eventStore := storage.NewRedisEventStore(rdb)

	s := &Server{
		config:         cfg,
		redis:          rdb,
		eventStore:     eventStore,
		scores:         storage.NewScoreStore(rdb),
		registry:       game.NewRegistry(eventStore),
		clients:        make(map[string]*Client),
		rateLimiter:    NewRateLimiter(10, time.Minute),
		messageLimiter: NewMessageRateLimiter(20),
		originChecker:  NewOriginChecker(nil),
		maxConnections: cfg.Server.MaxConnections,
		semaphore:      make(chan struct{}, cfg.Server.MaxConnections),
	}

	s.scheduler = game.NewScheduler(
		ai.New(),
		cfg.Game.AIMinDelayDuration(),
		cfg.Game.AIMaxDelayDuration(),
		cfg.Game.TrickPauseDuration(),
	)
	s.handler = NewHandler(s)

	return s, nil
}

// Start 启动服务器
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	http.HandleFunc("/ws", s.handleWebSocket)
	http.HandleFunc("/health", s.handleHealth)

	go s.monitorStats()

	log.Printf("🚀 服务器启动在 ws://%s/ws (CPU核心数: %d)", addr, runtime.NumCPU())
	server := &http.Server{
		Addr:              addr,
		Handler:           nil,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return server.ListenAndServe()
}

// handleWebSocket 处理 WebSocket 连接
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	clientIP := GetClientIP(r)

	if s.IsMaintenanceMode() {
		log.Printf("🔧 维护模式，拒绝新连接: %s", clientIP)
		http.Error(w, "Server is under maintenance, please try again later",
			http.StatusServiceUnavailable)
		return
	}

	// 连接数限制检查
	select {
	case s.semaphore <- struct{}{}:
		defer func() { <-s.semaphore }()
	default:
		log.Printf("🚫 达到最大连接数限制 (%d), IP: %s", s.maxConnections, clientIP)
		http.Error(w, "Server Full", http.StatusServiceUnavailable)
		return
	}

	if !s.originChecker.Check(r) {
		log.Printf("🚫 来源验证失败: %s (IP: %s)", r.Header.Get("Origin"), clientIP)
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	if !s.rateLimiter.Allow(clientIP) {
		log.Printf("🚫 IP %s 请求过于频繁", clientIP)
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket 升级失败: %v", err)
		return
	}

	client := NewClient(s, conn)
	client.IP = clientIP
	s.registerClient(client)

	log.Printf("✅ 玩家 %s (%s) 已连接", client.Nickname, client.ID)

	go client.ReadPump()
	go client.WritePump()
}

// handleHealth 健康检查接口
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// registerClient 注册客户端
func (s *Server) registerClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[client.ID] = client
}

// unregisterClient 注销客户端
func (s *Server) unregisterClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	if _, ok := s.clients[client.ID]; ok {
		delete(s.clients, client.ID)
		log.Printf("❌ 玩家 %s (%s) 已断开", client.Nickname, client.ID)
	}
}

// rebindClient 重连时把客户端换绑到旧玩家 ID
func (s *Server) rebindClient(client *Client, playerID string) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	delete(s.clients, client.ID)
	client.ID = playerID
	s.clients[playerID] = client
}

// GetOnlineCount 获取在线人数
func (s *Server) GetOnlineCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// getOrCreateSession 获取或创建会话，并给新会话接上广播和调度器
func (s *Server) getOrCreateSession(id string, playerCount int) *game.Session {
	if sess, err := s.registry.Get(id); err == nil {
		return sess
	}
	sess := s.registry.Create(id, playerCount, s.config.Game.TargetScore)
	sess.SetNotify(func(events []event.Event) {
		s.broadcastEvents(sess, events)
		s.scheduler.CheckTurn(sess, events)
	})
	return sess
}

// broadcastEvents 把一批事件广播给会话内的所有客户端，
// 每个观察者只收到按其座位过滤后的版本
func (s *Server) broadcastEvents(sess *game.Session, events []event.Event) {
	s.clientsMu.RLock()
	for _, client := range s.clients {
		sessionID, index := client.Seat()
		if sessionID != sess.ID {
			continue
		}
		filtered := view.FilterEvents(events, index)
		client.SendMessage(protocol.MustNewMessage(protocol.TypeGameEvents, protocol.GameEventsPayload{
			Events: filtered,
		}))
	}
	s.clientsMu.RUnlock()

	for _, evt := range events {
		switch evt.Type {
		case event.TypeGameFinished:
			s.finalizeSession(sess, evt)
		case event.TypeGameTerminated:
			s.notifySessionTerminated(sess.ID, evt)
			s.finalizeSession(sess, event.Event{})
		}
	}
}

// notifySessionTerminated 告知全桌会话已被谁终止
func (s *Server) notifySessionTerminated(sessionID string, evt event.Event) {
	payload, err := event.ParsePayload[event.GameTerminatedPayload](evt)
	if err != nil {
		return
	}
	msg := protocol.MustNewMessage(protocol.TypeSessionTerminated, protocol.SessionTerminatedPayload{
		TerminatedBy: payload.TerminatedBy,
	})

	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for _, client := range s.clients {
		if id, _ := client.Seat(); id == sessionID {
			client.SendMessage(msg)
		}
	}
}

// finalizeSession 终局收尾：记录人类玩家战绩，给日志设保留期，
// 从注册表移除（之后的重连会从日志重建会话）
func (s *Server) finalizeSession(sess *game.Session, finished event.Event) {
	ctx := context.Background()

	if finished.Type == event.TypeGameFinished {
		payload, err := event.ParsePayload[event.GameFinishedPayload](finished)
		if err == nil {
			st, stateErr := sess.CurrentState(ctx)
			if stateErr == nil {
				for _, p := range st.Players {
					if p.IsAI {
						continue
					}
					points := 0
					if p.Index < len(payload.TotalScores) {
						points = payload.TotalScores[p.Index]
					}
					won := p.Index == payload.WinnerIndex
					if err := s.scores.RecordGameResult(ctx, p.ID, p.Nickname, won, points); err != nil {
						log.Printf("⚠️ 记录玩家 %s 战绩失败: %v", p.ID, err)
					}
				}
			}
		}
	}

	if err := s.eventStore.ExpireLog(ctx, sess.ID); err != nil {
		log.Printf("⚠️ 设置会话 %s 日志保留期失败: %v", sess.ID, err)
	}
	s.registry.Remove(sess.ID)
	log.Printf("🏁 会话 %s 已结束并归档", sess.ID)
}

// markPlayerOffline 标记玩家离线（掉线时调用，座位保留）
func (s *Server) markPlayerOffline(sessionID string, playerIndex int) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return
	}
	if err := sess.Leave(context.Background(), playerIndex); err != nil {
		log.Printf("⚠️ 标记会话 %s 玩家 %d 离线失败: %v", sessionID, playerIndex, err)
	}
}

// monitorStats 定期监控服务器状态
func (s *Server) monitorStats() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		log.Printf("📊 [监控] 在线: %d | 会话: %d | Goroutines: %d | 活跃连接: %d/%d | 内存: %.2f MB",
			s.GetOnlineCount(),
			s.registry.Count(),
			runtime.NumGoroutine(),
			len(s.semaphore),
			s.maxConnections,
			float64(m.Alloc)/1024/1024)
	}
}

// EnterMaintenanceMode 进入维护模式，停止接受新连接
func (s *Server) EnterMaintenanceMode() {
	s.maintenanceMu.Lock()
	s.maintenanceMode = true
	s.maintenanceMu.Unlock()

	log.Println("🔧 进入维护模式：停止新连接")
}

// IsMaintenanceMode 检查是否在维护模式
func (s *Server) IsMaintenanceMode() bool {
	s.maintenanceMu.RLock()
	defer s.maintenanceMu.RUnlock()
	return s.maintenanceMode
}

// GracefulShutdown 优雅关闭：先停新连接，等活跃会话结束再关闭
func (s *Server) GracefulShutdown(timeout time.Duration) {
	s.EnterMaintenanceMode()

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		active := s.registry.Count()
		if active == 0 {
			log.Println("✅ 所有会话已结束")
			break
		}
		log.Printf("⏳ 等待 %d 个会话结束...", active)
		<-ticker.C
	}

	if active := s.registry.Count(); active > 0 {
		log.Printf("⚠️ 超时，仍有 %d 个会话进行中，强制关闭", active)
	}

	s.Shutdown()
}

// Shutdown 关闭服务器
func (s *Server) Shutdown() {
	s.clientsMu.Lock()
	for _, client := range s.clients {
		client.Close()
	}
	s.clientsMu.Unlock()

	_ = s.redis.Close()

	log.Println("服务器已关闭")
}
