package client

import (
	"github.com/deglerj/dabb-sub000/internal/game/event"
	"github.com/deglerj/dabb-sub000/internal/network/protocol"
)

// Join 加入会话；已持有 PlayerID 时自动走重连路径
func (c *Client) Join(sessionID, nickname string, playerCount int) {
	c.mu.RLock()
	playerID := c.PlayerID
	c.mu.RUnlock()

	c.SendMessage(protocol.MustNewMessage(protocol.TypeJoin, protocol.JoinPayload{
		SessionID:   sessionID,
		PlayerID:    playerID,
		Nickname:    nickname,
		PlayerCount: playerCount,
	}))
}

// Start 开始游戏
func (c *Client) Start(fillWithAI bool) {
	c.SendMessage(protocol.MustNewMessage(protocol.TypeStart, protocol.StartPayload{FillWithAI: fillWithAI}))
}

// Bid 叫分
func (c *Client) Bid(amount int) {
	c.SendMessage(protocol.MustNewMessage(protocol.TypeBid, protocol.BidPayload{Amount: amount}))
}

// Pass 过牌
func (c *Client) Pass() {
	c.SendMessage(protocol.MustNewMessage(protocol.TypePass, nil))
}

// TakeDabb 拿起 Dabb
func (c *Client) TakeDabb() {
	c.SendMessage(protocol.MustNewMessage(protocol.TypeTakeDabb, nil))
}

// Discard 弃牌
func (c *Client) Discard(cardIDs []string) {
	c.SendMessage(protocol.MustNewMessage(protocol.TypeDiscard, protocol.DiscardPayload{CardIDs: cardIDs}))
}

// GoOut 弃叫
func (c *Client) GoOut(suit string) {
	c.SendMessage(protocol.MustNewMessage(protocol.TypeGoOut, protocol.GoOutPayload{Suit: suit}))
}

// DeclareTrump 宣布主花色
func (c *Client) DeclareTrump(suit string) {
	c.SendMessage(protocol.MustNewMessage(protocol.TypeDeclareTrump, protocol.DeclareTrumpPayload{Suit: suit}))
}

// DeclareMelds 报牌
func (c *Client) DeclareMelds(melds []event.MeldInfo) {
	c.SendMessage(protocol.MustNewMessage(protocol.TypeDeclareMelds, protocol.DeclareMeldsPayload{Melds: melds}))
}

// PlayCard 出牌
func (c *Client) PlayCard(cardID string) {
	c.SendMessage(protocol.MustNewMessage(protocol.TypePlayCard, protocol.PlayCardPayload{CardID: cardID}))
}

// Sync 请求指定序号之后的增量事件
func (c *Client) Sync(lastSequence uint64) {
	c.SendMessage(protocol.MustNewMessage(protocol.TypeSync, protocol.SyncPayload{LastEventSequence: lastSequence}))
}

// Exit 主动退出会话（座位保留）
func (c *Client) Exit() {
	c.SendMessage(protocol.MustNewMessage(protocol.TypeExit, nil))
}
