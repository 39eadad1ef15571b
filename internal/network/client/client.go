// Package client 实现 WebSocket 游戏客户端：连接、心跳、断线重连，
// 以及发送指令的类型化入口。
package client

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/deglerj/dabb-sub000/internal/network/protocol"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// 最大重连次数
	maxReconnectAttempts = 5
	// 重连间隔
	reconnectInterval = 2 * time.Second
)

// Client WebSocket 客户端
type Client struct {
	ServerURL string
	conn      *websocket.Conn
	send      chan []byte

	// 进入会话后由服务端下发，重连时凭 PlayerID 找回座位
	SessionID   string
	PlayerID    string
	PlayerIndex int

	// 回调
	OnMessage   func(*protocol.Message) // 消息回调
	OnError     func(error)             // 错误回调
	OnClose     func()                  // 关闭回调
	OnReconnect func()                  // 重连成功回调

	mu             sync.RWMutex
	closed         bool
	reconnecting   atomic.Bool
	reconnectCount int
}

// NewClient 创建客户端
func NewClient(serverURL string) *Client {
	return &Client{
		ServerURL:   serverURL,
		send:        make(chan []byte, 256),
		PlayerIndex: -1,
	}
}

// Connect 连接服务器
func (c *Client) Connect() error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.Dial(c.ServerURL, nil)
	if err != nil {
		return err
	}

	c.conn = conn
	go c.readPump()
	go c.writePump()
	return nil
}

// readPump 从服务器读取消息
func (c *Client) readPump() {
	defer func() {
		// 已进入会话的连接断开后尝试重连找回座位
		if c.PlayerID != "" && !c.isClosed() && !c.reconnecting.Load() {
			go c.tryReconnect()
		} else {
			c.Close()
			if c.OnClose != nil {
				c.OnClose()
			}
		}
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				if c.OnError != nil {
					c.OnError(err)
				}
			}
			return
		}

		msg, err := protocol.Decode(message)
		if err != nil {
			log.Printf("消息解析错误: %v", err)
			continue
		}

		c.track(msg)
		if c.OnMessage != nil {
			c.OnMessage(msg)
		}
	}
}

// track 从下发的状态消息里记住自己的身份，重连要用
func (c *Client) track(msg *protocol.Message) {
	if msg.Type != protocol.TypeGameState {
		return
	}
	payload, err := protocol.ParsePayload[protocol.GameStatePayload](msg)
	if err != nil {
		return
	}
	c.mu.Lock()
	c.SessionID = payload.SessionID
	c.PlayerID = payload.PlayerID
	c.PlayerIndex = payload.PlayerIndex
	c.mu.Unlock()
}

// writePump 向服务器写入消息
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// tryReconnect 断线后重连并凭 PlayerID 找回座位
func (c *Client) tryReconnect() {
	c.reconnecting.Store(true)
	defer c.reconnecting.Store(false)

	for c.reconnectCount < maxReconnectAttempts {
		c.reconnectCount++
		log.Printf("🔄 第 %d 次重连...", c.reconnectCount)
		time.Sleep(reconnectInterval)

		if err := c.Connect(); err != nil {
			continue
		}

		c.reconnectCount = 0
		// 旧连接的写协程已退出，重新入会
		c.Join(c.SessionID, "", 0)
		if c.OnReconnect != nil {
			c.OnReconnect()
		}
		return
	}

	log.Printf("❌ 重连失败，放弃")
	c.Close()
	if c.OnClose != nil {
		c.OnClose()
	}
}

// SendMessage 发送消息
func (c *Client) SendMessage(msg *protocol.Message) {
	if c.isClosed() {
		return
	}
	data, err := msg.Encode()
	if err != nil {
		log.Printf("消息编码错误: %v", err)
		return
	}
	select {
	case c.send <- data:
	default:
		log.Printf("发送缓冲区已满，丢弃消息 %s", msg.Type)
	}
}

func (c *Client) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Close 关闭客户端
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
