package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// RateLimiter 连接速率限制器（按 IP）
type RateLimiter struct {
	requests map[string]*clientRate
	mu       sync.Mutex

	maxPerSecond    int
	banDuration     time.Duration
	cleanupInterval time.Duration
}

// clientRate 单个 IP 的速率记录
type clientRate struct {
	count       int
	windowStart time.Time
	bannedUntil time.Time
}

// NewRateLimiter 创建速率限制器
func NewRateLimiter(maxPerSecond int, banDuration time.Duration) *RateLimiter {
	rl := &RateLimiter{
		requests:        make(map[string]*clientRate),
		maxPerSecond:    maxPerSecond,
		banDuration:     banDuration,
		cleanupInterval: 5 * time.Minute,
	}
	go rl.cleanup()
	return rl
}

// Allow 检查是否允许该 IP 的新连接
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rate, exists := rl.requests[ip]
	if !exists {
		rl.requests[ip] = &clientRate{count: 1, windowStart: now}
		return true
	}

	if now.Before(rate.bannedUntil) {
		return false
	}

	if now.Sub(rate.windowStart) >= time.Second {
		rate.count = 0
		rate.windowStart = now
	}

	rate.count++
	if rate.count > rl.maxPerSecond {
		rate.bannedUntil = now.Add(rl.banDuration)
		return false
	}
	return true
}

// cleanup 定期清理过期记录
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for ip, rate := range rl.requests {
			if now.Sub(rate.windowStart) > time.Minute && now.After(rate.bannedUntil) {
				delete(rl.requests, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// MessageRateLimiter 消息速率限制器（按玩家）
type MessageRateLimiter struct {
	mu           sync.Mutex
	counts       map[string]*clientRate
	maxPerSecond int
	warnings     map[string]int
}

// NewMessageRateLimiter 创建消息速率限制器
func NewMessageRateLimiter(maxPerSecond int) *MessageRateLimiter {
	return &MessageRateLimiter{
		counts:       make(map[string]*clientRate),
		warnings:     make(map[string]int),
		maxPerSecond: maxPerSecond,
	}
}

// AllowMessage 检查玩家是否可以发送消息
func (ml *MessageRateLimiter) AllowMessage(playerID string) bool {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	now := time.Now()
	rate, exists := ml.counts[playerID]
	if !exists {
		ml.counts[playerID] = &clientRate{count: 1, windowStart: now}
		return true
	}

	if now.Sub(rate.windowStart) >= time.Second {
		rate.count = 0
		rate.windowStart = now
	}

	rate.count++
	if rate.count > ml.maxPerSecond {
		ml.warnings[playerID]++
		return false
	}
	return true
}

// WarningCount 返回玩家的累计超速次数
func (ml *MessageRateLimiter) WarningCount(playerID string) int {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	return ml.warnings[playerID]
}

// Forget 清除玩家的速率记录（断开时调用）
func (ml *MessageRateLimiter) Forget(playerID string) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	delete(ml.counts, playerID)
	delete(ml.warnings, playerID)
}

// OriginChecker 来源验证器；列表为空时放行所有来源
type OriginChecker struct {
	allowed map[string]struct{}
}

// NewOriginChecker 创建来源验证器
func NewOriginChecker(origins []string) *OriginChecker {
	oc := &OriginChecker{}
	if len(origins) > 0 {
		oc.allowed = make(map[string]struct{}, len(origins))
		for _, o := range origins {
			oc.allowed[o] = struct{}{}
		}
	}
	return oc
}

// Check 验证请求来源
func (oc *OriginChecker) Check(r *http.Request) bool {
	if oc.allowed == nil {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		// 非浏览器客户端不带 Origin
		return true
	}
	_, ok := oc.allowed[origin]
	return ok
}

// GetClientIP 获取真实客户端 IP，优先使用代理头
func GetClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
