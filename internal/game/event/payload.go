package event

import (
	"github.com/deglerj/dabb-sub000/internal/game/card"
	"github.com/deglerj/dabb-sub000/internal/game/rule"
)

// PlayerInfo 事件载荷中的玩家信息
type PlayerInfo struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Index    int    `json:"index"`
	IsAI     bool   `json:"is_ai,omitempty"`
}

// MeldInfo 事件载荷中的报牌组合，牌用标识字符串表示
type MeldInfo struct {
	Type   string   `json:"type"`
	Suit   string   `json:"suit,omitempty"`
	Rank   string   `json:"rank,omitempty"`
	Cards  []string `json:"cards"`
	Points int      `json:"points"`
}

// MeldInfoFrom 从规则层的报牌组合构造载荷表示
func MeldInfoFrom(m rule.Meld) MeldInfo {
	info := MeldInfo{
		Type:   string(m.Type),
		Cards:  card.IDs(m.Cards),
		Points: m.Points,
	}
	if m.Suit != card.SuitHidden {
		info.Suit = m.Suit.String()
	}
	if m.Rank != card.RankHidden {
		info.Rank = m.Rank.String()
	}
	return info
}

// ToMeld 把载荷表示还原为规则层的报牌组合
// 无法识别的牌标识还原为隐藏占位牌，保证归约永不失败
func (info MeldInfo) ToMeld() rule.Meld {
	m := rule.Meld{
		Type:   rule.MeldType(info.Type),
		Suit:   card.SuitHidden,
		Rank:   card.RankHidden,
		Points: info.Points,
	}
	if s, ok := card.SuitFromName(info.Suit); ok {
		m.Suit = s
	}
	if r, ok := card.RankFromName(info.Rank); ok {
		m.Rank = r
	}
	m.Cards = make([]card.Card, len(info.Cards))
	for i, id := range info.Cards {
		c, err := card.FromID(id)
		if err != nil {
			c = card.HiddenCard(i)
		}
		m.Cards[i] = c
	}
	return m
}

// MeldInfosFrom 批量转换报牌组合
func MeldInfosFrom(melds []rule.Meld) []MeldInfo {
	out := make([]MeldInfo, len(melds))
	for i, m := range melds {
		out[i] = MeldInfoFrom(m)
	}
	return out
}

// 各事件类型的载荷定义，一种类型一个结构体

type GameStartedPayload struct {
	Players     []PlayerInfo `json:"players"`
	PlayerCount int          `json:"player_count"`
	TargetScore int          `json:"target_score"`
	Dealer      int          `json:"dealer"`
}

type PlayerJoinedPayload struct {
	Player PlayerInfo `json:"player"`
}

type PlayerLeftPayload struct {
	PlayerIndex int `json:"player_index"`
}

type PlayerReconnectedPayload struct {
	PlayerIndex int `json:"player_index"`
}

// CardsDealtPayload 发牌结果；手牌和 Dabb 按位置用牌标识表示，
// 视图过滤时会把不可见的牌替换成隐藏标识
type CardsDealtPayload struct {
	Hands [][]string `json:"hands"`
	Dabb  []string   `json:"dabb"`
}

type BidPlacedPayload struct {
	PlayerIndex int `json:"player_index"`
	Amount      int `json:"amount"`
}

type PlayerPassedPayload struct {
	PlayerIndex int `json:"player_index"`
}

type BiddingWonPayload struct {
	PlayerIndex int `json:"player_index"`
	Amount      int `json:"amount"`
}

type DabbTakenPayload struct {
	PlayerIndex int      `json:"player_index"`
	Cards       []string `json:"cards"`
}

type CardsDiscardedPayload struct {
	PlayerIndex int      `json:"player_index"`
	Cards       []string `json:"cards"`
}

type GoingOutPayload struct {
	PlayerIndex int    `json:"player_index"`
	Trump       string `json:"trump"`
}

type TrumpDeclaredPayload struct {
	PlayerIndex int    `json:"player_index"`
	Trump       string `json:"trump"`
}

type MeldsDeclaredPayload struct {
	PlayerIndex int        `json:"player_index"`
	Melds       []MeldInfo `json:"melds"`
	Points      int        `json:"points"`
}

type MeldingCompletePayload struct{}

type CardPlayedPayload struct {
	PlayerIndex int    `json:"player_index"`
	Card        string `json:"card"`
}

type TrickWonPayload struct {
	PlayerIndex int `json:"player_index"`
	Points      int `json:"points"`
}

// RoundScoredPayload 一轮的结算结果，所有切片按玩家座位索引
type RoundScoredPayload struct {
	MeldPoints  []int `json:"meld_points"`
	TrickPoints []int `json:"trick_points"`
	RoundScores []int `json:"round_scores"`
	TotalScores []int `json:"total_scores"`
	BidWinner   int   `json:"bid_winner"`
	Bid         int   `json:"bid"`
	BidMet      bool  `json:"bid_met"`
	WentOut     bool  `json:"went_out,omitempty"`
}

type GameFinishedPayload struct {
	WinnerIndex int   `json:"winner_index"`
	TotalScores []int `json:"total_scores"`
}

type NewRoundStartedPayload struct {
	Round  int `json:"round"`
	Dealer int `json:"dealer"`
}

type GameTerminatedPayload struct {
	TerminatedBy int `json:"terminated_by"`
}
