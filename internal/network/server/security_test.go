package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_BansAfterBurst(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(3, time.Minute)

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	// 超出每秒上限后进入封禁
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))

	// 其他 IP 不受影响
	assert.True(t, rl.Allow("5.6.7.8"))
}

func TestMessageRateLimiter(t *testing.T) {
	t.Parallel()

	ml := NewMessageRateLimiter(2)

	assert.True(t, ml.AllowMessage("p1"))
	assert.True(t, ml.AllowMessage("p1"))
	assert.False(t, ml.AllowMessage("p1"))
	assert.False(t, ml.AllowMessage("p1"))
	assert.Equal(t, 2, ml.WarningCount("p1"))

	ml.Forget("p1")
	assert.Equal(t, 0, ml.WarningCount("p1"))
	assert.True(t, ml.AllowMessage("p1"))
}

func TestOriginChecker(t *testing.T) {
	t.Parallel()

	open := NewOriginChecker(nil)
	restricted := NewOriginChecker([]string{"https://example.com"})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "https://evil.test")
	assert.True(t, open.Check(req))
	assert.False(t, restricted.Check(req))

	req.Header.Set("Origin", "https://example.com")
	assert.True(t, restricted.Check(req))

	// 非浏览器客户端不带 Origin，放行
	noOrigin := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, restricted.Check(noOrigin))
}

func TestGetClientIP(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.RemoteAddr = "10.0.0.1:12345"
	assert.Equal(t, "10.0.0.1", GetClientIP(req))

	req.Header.Set("X-Real-IP", "9.9.9.9")
	assert.Equal(t, "9.9.9.9", GetClientIP(req))

	req.Header.Set("X-Forwarded-For", "1.1.1.1, 2.2.2.2")
	assert.Equal(t, "1.1.1.1", GetClientIP(req))
}

func TestGenerateNickname(t *testing.T) {
	t.Parallel()

	name := GenerateNickname()
	assert.NotEmpty(t, name)
}
