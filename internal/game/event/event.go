// Package event 定义游戏事件目录：封闭的事件类型集合、每种类型对应的
// 载荷结构，以及负责盖章（ID/会话/序号/时间戳）的生成器。
// 按序回放事件流必须能精确重建游戏状态，这是整个设计的核心不变量。
package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type 事件类型
type Type string

// 封闭的事件目录，归约器对每种类型各有一个分支
const (
	TypeGameStarted       Type = "GAME_STARTED"
	TypePlayerJoined      Type = "PLAYER_JOINED"
	TypePlayerLeft        Type = "PLAYER_LEFT"
	TypePlayerReconnected Type = "PLAYER_RECONNECTED"
	TypeCardsDealt        Type = "CARDS_DEALT"
	TypeBidPlaced         Type = "BID_PLACED"
	TypePlayerPassed      Type = "PLAYER_PASSED"
	TypeBiddingWon        Type = "BIDDING_WON"
	TypeDabbTaken         Type = "DABB_TAKEN"
	TypeCardsDiscarded    Type = "CARDS_DISCARDED"
	TypeGoingOut          Type = "GOING_OUT"
	TypeTrumpDeclared     Type = "TRUMP_DECLARED"
	TypeMeldsDeclared     Type = "MELDS_DECLARED"
	TypeMeldingComplete   Type = "MELDING_COMPLETE"
	TypeCardPlayed        Type = "CARD_PLAYED"
	TypeTrickWon          Type = "TRICK_WON"
	TypeRoundScored       Type = "ROUND_SCORED"
	TypeGameFinished      Type = "GAME_FINISHED"
	TypeNewRoundStarted   Type = "NEW_ROUND_STARTED"
	TypeGameTerminated    Type = "GAME_TERMINATED"
)

// Event 一条持久化的游戏事件
// Sequence 在会话内严格递增且无空洞
type Event struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	Sequence  uint64          `json:"sequence"`
	Timestamp int64           `json:"timestamp"` // Unix 毫秒
	Type      Type            `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Generator 事件生成器，为新事件盖章
// 不做并发保护，调用方（会话编排器）持锁调用
type Generator struct {
	sessionID string
	nextSeq   uint64
}

// NewGenerator 创建事件生成器；lastSequence 是日志中已有的最大序号，
// 空日志传 0
func NewGenerator(sessionID string, lastSequence uint64) *Generator {
	return &Generator{sessionID: sessionID, nextSeq: lastSequence + 1}
}

// Next 生成一条盖好章的事件
func (g *Generator) Next(t Type, payload any) (Event, error) {
	evt := Event{
		ID:        uuid.New().String(),
		SessionID: g.sessionID,
		Sequence:  g.nextSeq,
		Timestamp: time.Now().UnixMilli(),
		Type:      t,
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Event{}, fmt.Errorf("序列化事件载荷失败: %w", err)
		}
		evt.Payload = data
	}
	g.nextSeq++
	return evt, nil
}

// MustNext 同 Next，载荷序列化失败直接 panic
// 载荷都是本包定义的结构体，序列化失败属于编程错误
func (g *Generator) MustNext(t Type, payload any) Event {
	evt, err := g.Next(t, payload)
	if err != nil {
		panic(err)
	}
	return evt
}

// NextSequence 返回下一条事件将获得的序号
func (g *Generator) NextSequence() uint64 {
	return g.nextSeq
}

// ParsePayload 把事件载荷解析成指定类型
func ParsePayload[T any](evt Event) (*T, error) {
	var payload T
	if len(evt.Payload) == 0 {
		return &payload, nil
	}
	if err := json.Unmarshal(evt.Payload, &payload); err != nil {
		return nil, fmt.Errorf("解析 %s 载荷失败: %w", evt.Type, err)
	}
	return &payload, nil
}

// Encode 把事件编码为持久化用的 JSON
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Decode 从持久化的 JSON 还原事件
func Decode(data []byte) (Event, error) {
	var evt Event
	if err := json.Unmarshal(data, &evt); err != nil {
		return Event{}, fmt.Errorf("解析事件失败: %w", err)
	}
	return evt, nil
}
