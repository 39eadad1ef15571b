// Package protocol 定义客户端与服务端之间的 JSON 消息协议。
package protocol

import (
	"encoding/json"

	"github.com/deglerj/dabb-sub000/internal/game/event"
)

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端
const (
	TypeJoin         MessageType = "join"
	TypeStart        MessageType = "start"
	TypeBid          MessageType = "bid"
	TypePass         MessageType = "pass"
	TypeTakeDabb     MessageType = "take_dabb"
	TypeDiscard      MessageType = "discard"
	TypeGoOut        MessageType = "go_out"
	TypeDeclareTrump MessageType = "declare_trump"
	TypeDeclareMelds MessageType = "declare_melds"
	TypePlayCard     MessageType = "play_card"
	TypeSync         MessageType = "sync"
	TypeExit         MessageType = "exit"
)

// 服务端 → 客户端
const (
	TypeGameState         MessageType = "game:state"
	TypeGameEvents        MessageType = "game:events"
	TypeError             MessageType = "error"
	TypeSessionTerminated MessageType = "session:terminated"
)

// Message 统一的消息信封
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// --- 客户端 → 服务端载荷 ---

// JoinPayload 加入（或重连）会话
// PlayerID 非空表示重连；PlayerCount 仅在创建会话时有意义
type JoinPayload struct {
	SessionID   string `json:"session_id"`
	PlayerID    string `json:"player_id,omitempty"`
	Nickname    string `json:"nickname"`
	PlayerCount int    `json:"player_count,omitempty"`
}

// StartPayload 开始游戏；FillWithAI 把空座位交给自动玩家
type StartPayload struct {
	FillWithAI bool `json:"fill_with_ai"`
}

type BidPayload struct {
	Amount int `json:"amount"`
}

type DiscardPayload struct {
	CardIDs []string `json:"card_ids"`
}

type GoOutPayload struct {
	Suit string `json:"suit"`
}

type DeclareTrumpPayload struct {
	Suit string `json:"suit"`
}

type DeclareMeldsPayload struct {
	Melds []event.MeldInfo `json:"melds"`
}

type PlayCardPayload struct {
	CardID string `json:"card_id"`
}

// SyncPayload 请求指定序号之后的增量事件
type SyncPayload struct {
	LastEventSequence uint64 `json:"last_event_sequence"`
}

// --- 服务端 → 客户端载荷 ---

// GameStatePayload 连接（或同步）时下发的完整过滤事件史
type GameStatePayload struct {
	SessionID   string        `json:"session_id"`
	PlayerID    string        `json:"player_id"`
	PlayerIndex int           `json:"player_index"`
	Events      []event.Event `json:"events"`
}

// GameEventsPayload 增量广播
type GameEventsPayload struct {
	Events []event.Event `json:"events"`
}

type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// SessionTerminatedPayload 会话被玩家终止时通知全桌
// 玩家进出会话本身是游戏事件，走 game:events 广播
type SessionTerminatedPayload struct {
	TerminatedBy int `json:"terminated_by"`
}

// --- 错误码 ---

const (
	ErrCodeInvalidMessage = 1000

	// 会话错误 2xxx
	ErrCodeSessionNotFound = 2001
	ErrCodeSessionFull     = 2002
	ErrCodeNotInSession    = 2003
	ErrCodeGameStarted     = 2004
	ErrCodeGameNotStarted  = 2005

	// 游戏错误 3xxx
	ErrCodeNotYourTurn     = 3001
	ErrCodeInvalidBid      = 3002
	ErrCodeCannotPass      = 3003
	ErrCodeWrongPhase      = 3004
	ErrCodeCardNotInHand   = 3005
	ErrCodeInvalidPlay     = 3006
	ErrCodeInvalidDiscard  = 3007
	ErrCodeMeldsDeclared   = 3008
	ErrCodeInvalidMeld     = 3009
	ErrCodeDabbTaken       = 3010
	ErrCodeCannotGoOut     = 3011
	ErrCodeNotEnoughSeats  = 3012

	// 系统错误 5xxx
	ErrCodeInternal = 5000
)

// ErrorMessages 错误码对应的默认提示
var ErrorMessages = map[int]string{
	ErrCodeInvalidMessage:  "无法识别的消息",
	ErrCodeSessionNotFound: "会话不存在",
	ErrCodeSessionFull:     "会话已满",
	ErrCodeNotInSession:    "您不在会话中",
	ErrCodeGameStarted:     "游戏已开始",
	ErrCodeGameNotStarted:  "游戏尚未开始",
	ErrCodeNotYourTurn:     "还没轮到您",
	ErrCodeInvalidBid:      "无效的叫分",
	ErrCodeCannotPass:      "首叫玩家必须开叫",
	ErrCodeWrongPhase:      "当前阶段不能执行该操作",
	ErrCodeCardNotInHand:   "这张牌不在您手中",
	ErrCodeInvalidPlay:     "不符合出牌规则",
	ErrCodeInvalidDiscard:  "无效的弃牌",
	ErrCodeMeldsDeclared:   "您已经报过牌",
	ErrCodeInvalidMeld:     "无效的报牌组合",
	ErrCodeDabbTaken:       "Dabb 已被拿走",
	ErrCodeCannotGoOut:     "现在不能弃叫",
	ErrCodeNotEnoughSeats:  "人数不足，无法开始",
	ErrCodeInternal:        "服务器内部错误",
}
