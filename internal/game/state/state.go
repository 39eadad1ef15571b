// Package state 定义权威的游戏状态快照和纯归约器。
// 状态只能通过按序折叠事件推进，归约器不做任何合法性校验。
package state

import (
	"github.com/deglerj/dabb-sub000/internal/game/card"
	"github.com/deglerj/dabb-sub000/internal/game/rule"
)

// Phase 游戏阶段
type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhaseDealing  Phase = "dealing"
	PhaseBidding  Phase = "bidding"
	PhaseDabb     Phase = "dabb"
	PhaseTrump    Phase = "trump"
	PhaseMelding  Phase = "melding"
	PhaseTricks   Phase = "tricks"
	PhaseScoring  Phase = "scoring"
	PhaseFinished Phase = "finished"
)

// Player 会话中的玩家
type Player struct {
	ID        string `json:"id"`
	Nickname  string `json:"nickname"`
	Index     int    `json:"index"`
	Connected bool   `json:"connected"`
	IsAI      bool   `json:"is_ai"`
}

// GameState 一个会话的完整状态快照
type GameState struct {
	Phase       Phase    `json:"phase"`
	PlayerCount int      `json:"player_count"`
	TargetScore int      `json:"target_score"`
	Players     []Player `json:"players"`

	Hands     [][]card.Card `json:"hands"`
	Dabb      []card.Card   `json:"dabb"`
	DabbTaken bool          `json:"dabb_taken"`

	CurrentBid    int    `json:"current_bid"`
	CurrentBidder int    `json:"current_bidder"`
	FirstBidder   int    `json:"first_bidder"`
	Passed        []bool `json:"passed"`
	BidWinner     int    `json:"bid_winner"`

	Trump   card.Suit `json:"trump"`
	WentOut bool      `json:"went_out"`

	CurrentPlayer int             `json:"current_player"`
	CurrentTrick  rule.Trick      `json:"current_trick"`
	LastTrick     *rule.Trick     `json:"last_trick,omitempty"`
	TricksTaken   [][][]card.Card `json:"tricks_taken"`

	Melds        [][]rule.Meld `json:"melds"`
	MeldDeclared []bool        `json:"meld_declared"`
	MeldPoints   []int         `json:"meld_points"`

	RoundScores []int `json:"round_scores"`
	TotalScores []int `json:"total_scores"`

	Dealer int `json:"dealer"`
	Round  int `json:"round"`

	Winner       int  `json:"winner"`
	Terminated   bool `json:"terminated"`
	TerminatedBy int  `json:"terminated_by"`
}

// New 返回会话创建时的零值状态
func New() GameState {
	return GameState{
		Phase:         PhaseWaiting,
		CurrentBidder: -1,
		FirstBidder:   -1,
		BidWinner:     -1,
		Trump:         card.SuitHidden,
		CurrentPlayer: -1,
		Winner:        -1,
		TerminatedBy:  -1,
	}
}

// clone 深拷贝，保证归约器纯函数语义
func (s GameState) clone() GameState {
	out := s

	out.Players = append([]Player(nil), s.Players...)
	out.Passed = append([]bool(nil), s.Passed...)
	out.MeldDeclared = append([]bool(nil), s.MeldDeclared...)
	out.MeldPoints = append([]int(nil), s.MeldPoints...)
	out.RoundScores = append([]int(nil), s.RoundScores...)
	out.TotalScores = append([]int(nil), s.TotalScores...)
	out.Dabb = append([]card.Card(nil), s.Dabb...)

	out.Hands = make([][]card.Card, len(s.Hands))
	for i, h := range s.Hands {
		out.Hands[i] = append([]card.Card(nil), h...)
	}

	out.TricksTaken = make([][][]card.Card, len(s.TricksTaken))
	for i, tricks := range s.TricksTaken {
		out.TricksTaken[i] = make([][]card.Card, len(tricks))
		for j, tr := range tricks {
			out.TricksTaken[i][j] = append([]card.Card(nil), tr...)
		}
	}

	out.Melds = make([][]rule.Meld, len(s.Melds))
	for i, melds := range s.Melds {
		out.Melds[i] = make([]rule.Meld, len(melds))
		for j, m := range melds {
			m.Cards = append([]card.Card(nil), m.Cards...)
			out.Melds[i][j] = m
		}
	}

	out.CurrentTrick = rule.Trick{Cards: append([]rule.PlayedCard(nil), s.CurrentTrick.Cards...)}
	if s.LastTrick != nil {
		lt := rule.Trick{Cards: append([]rule.PlayedCard(nil), s.LastTrick.Cards...)}
		out.LastTrick = &lt
	}

	return out
}

// resetRound 清空一轮内的所有字段，保留累计分、庄家和轮次
func (s *GameState) resetRound() {
	n := s.PlayerCount
	s.Hands = make([][]card.Card, n)
	s.Dabb = nil
	s.DabbTaken = false
	s.CurrentBid = 0
	s.CurrentBidder = -1
	s.FirstBidder = -1
	s.Passed = make([]bool, n)
	s.BidWinner = -1
	s.Trump = card.SuitHidden
	s.WentOut = false
	s.CurrentPlayer = -1
	s.CurrentTrick = rule.Trick{}
	s.LastTrick = nil
	s.TricksTaken = make([][][]card.Card, n)
	s.Melds = make([][]rule.Meld, n)
	s.MeldDeclared = make([]bool, n)
	s.MeldPoints = make([]int, n)
	s.RoundScores = make([]int, n)
}

// HandsEmpty 判断所有手牌是否已出完
func (s GameState) HandsEmpty() bool {
	for _, h := range s.Hands {
		if len(h) > 0 {
			return false
		}
	}
	return true
}

// AllMeldsDeclared 判断本轮该报牌的玩家是否都已报完
// 弃叫（went out）时叫分胜者不参与报牌
func (s GameState) AllMeldsDeclared() bool {
	for i := 0; i < s.PlayerCount; i++ {
		if s.WentOut && i == s.BidWinner {
			continue
		}
		if i >= len(s.MeldDeclared) || !s.MeldDeclared[i] {
			return false
		}
	}
	return true
}

// NextMelder 返回下一个还没报牌的玩家，座位顺序从庄家下一位开始；
// 弃叫时跳过叫分胜者。全部报完返回 -1
func (s GameState) NextMelder() int {
	if s.PlayerCount == 0 {
		return -1
	}
	start := (s.Dealer + 1) % s.PlayerCount
	for i := 0; i < s.PlayerCount; i++ {
		idx := (start + i) % s.PlayerCount
		if s.WentOut && idx == s.BidWinner {
			continue
		}
		if idx < len(s.MeldDeclared) && !s.MeldDeclared[idx] {
			return idx
		}
	}
	return -1
}

// NextActor 返回当前阶段等待行动的玩家；没有则返回 -1
func (s GameState) NextActor() int {
	switch s.Phase {
	case PhaseBidding:
		return s.CurrentBidder
	case PhaseDabb, PhaseTrump:
		return s.BidWinner
	case PhaseMelding:
		return s.NextMelder()
	case PhaseTricks:
		return s.CurrentPlayer
	default:
		return -1
	}
}
