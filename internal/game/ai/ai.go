// Package ai 为自动玩家实现各阶段的决策启发式。
// 每次决策产出恰好一个合法动作；任何启发式故障都会被兜底
// 策略接住，绝不让一局游戏卡死。
package ai

import (
	"math/rand/v2"
	"sort"
	"time"

	"github.com/deglerj/dabb-sub000/internal/game/card"
	"github.com/deglerj/dabb-sub000/internal/game/rule"
	"github.com/deglerj/dabb-sub000/internal/game/state"
)

// ActionType 自动玩家可产出的动作类型
type ActionType string

const (
	ActionBid          ActionType = "bid"
	ActionPass         ActionType = "pass"
	ActionTakeDabb     ActionType = "take_dabb"
	ActionDiscard      ActionType = "discard"
	ActionDeclareTrump ActionType = "declare_trump"
	ActionDeclareMelds ActionType = "declare_melds"
	ActionPlayCard     ActionType = "play_card"
	ActionNone         ActionType = "none"
)

// Action 一次决策的结果，字段按动作类型取用
type Action struct {
	Type   ActionType
	Amount int
	Suit   card.Suit
	Cards  []card.Card
	Melds  []rule.Meld
}

// Engine 决策引擎；持有独立随机源，模拟器可用固定种子复现
type Engine struct {
	rng *rand.Rand
}

// New 创建按时间播种的决策引擎
func New() *Engine {
	return NewWithSeed(uint64(time.Now().UnixNano()))
}

// NewWithSeed 创建固定种子的决策引擎
func NewWithSeed(seed uint64) *Engine {
	return &Engine{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Decide 为指定玩家在当前状态下产出一个合法动作
// 启发式内部出错时降级为兜底动作，保证调用方总能拿到结果
func (e *Engine) Decide(s state.GameState, playerIdx int) (action Action) {
	defer func() {
		if r := recover(); r != nil {
			action = e.fallback(s, playerIdx)
		}
	}()

	switch s.Phase {
	case state.PhaseBidding:
		return e.decideBid(s, playerIdx)
	case state.PhaseDabb:
		return e.decideDabb(s, playerIdx)
	case state.PhaseTrump:
		return Action{Type: ActionDeclareTrump, Suit: e.bestTrump(s.Hands[playerIdx])}
	case state.PhaseMelding:
		return Action{Type: ActionDeclareMelds, Melds: rule.DetectMelds(s.Hands[playerIdx], s.Trump)}
	case state.PhaseTricks:
		return e.decidePlay(s, playerIdx)
	default:
		return Action{Type: ActionNone}
	}
}

// decideBid 叫分决策：以最优主花色的报牌分 + 50 墩分估算本手实力，
// 与候选叫分的差距映射到一条过牌概率曲线上
// （+70 分余量时 0%，−60 分时 90%）
func (e *Engine) decideBid(s state.GameState, playerIdx int) Action {
	// 首叫必须开 150
	if !rule.CanPass(s.CurrentBid, playerIdx, s.FirstBidder) {
		return Action{Type: ActionBid, Amount: rule.OpeningBid}
	}

	candidate := rule.OpeningBid
	if s.CurrentBid > 0 {
		candidate = s.CurrentBid + rule.BidIncrement
	}

	_, meldPoints := rule.BestMeldSuit(s.Hands[playerIdx])
	estimate := meldPoints + 50
	diff := estimate - candidate

	passProb := 0.0
	if diff < 70 {
		margin := float64(70-diff) / 130.0
		passProb = min(0.9, margin*margin*0.9)
	}
	if e.rng.Float64() < passProb {
		return Action{Type: ActionPass}
	}
	return Action{Type: ActionBid, Amount: candidate}
}

// decideDabb 先无条件拿 Dabb，然后按
// 非组合牌 → 非主牌 → 分值最低 的优先级弃回多出的牌
func (e *Engine) decideDabb(s state.GameState, playerIdx int) Action {
	if !s.DabbTaken {
		return Action{Type: ActionTakeDabb}
	}

	hand := s.Hands[playerIdx]
	excess := len(hand) - card.HandSize(s.PlayerCount)
	if excess <= 0 {
		excess = card.DabbSize
	}

	trump := e.bestTrump(hand)
	inMeld := make(map[card.Card]bool)
	for _, m := range rule.DetectMelds(hand, trump) {
		for _, c := range m.Cards {
			inMeld[c] = true
		}
	}

	candidates := append([]card.Card(nil), hand...)
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if inMeld[a] != inMeld[b] {
			return !inMeld[a]
		}
		if (a.Suit == trump) != (b.Suit == trump) {
			return a.Suit != trump
		}
		return a.Points() < b.Points()
	})

	return Action{Type: ActionDiscard, Cards: candidates[:excess]}
}

// bestTrump 返回报牌分最高的主花色，平手时随机挑一个
func (e *Engine) bestTrump(hand []card.Card) card.Suit {
	bestPoints := -1
	var best []card.Suit
	for _, s := range card.Suits() {
		p := rule.MeldPoints(rule.DetectMelds(hand, s))
		switch {
		case p > bestPoints:
			bestPoints = p
			best = []card.Suit{s}
		case p == bestPoints:
			best = append(best, s)
		}
	}
	return best[e.rng.IntN(len(best))]
}

// decidePlay 出牌决策
func (e *Engine) decidePlay(s state.GameState, playerIdx int) Action {
	hand := s.Hands[playerIdx]
	legal := rule.ValidPlays(hand, s.CurrentTrick, s.Trump)
	if len(legal) == 1 {
		return Action{Type: ActionPlayCard, Cards: legal[:1]}
	}

	if len(s.CurrentTrick.Cards) == 0 {
		return Action{Type: ActionPlayCard, Cards: []card.Card{e.chooseLead(hand, legal, s.Trump)}}
	}
	return Action{Type: ActionPlayCard, Cards: []card.Card{e.chooseFollow(hand, legal, s, playerIdx)}}
}

// chooseLead 首攻选牌：
// 孤张爱司优先（主花色的孤张爱司更优先）；否则主牌多于三张时
// 倾向出主，反之出副牌；持双爱司且该花色还有其他牌时不先出爱司；
// 剩余候选里挑分值最高的
func (e *Engine) chooseLead(hand, legal []card.Card, trump card.Suit) card.Card {
	var lonelyAces []card.Card
	for _, c := range legal {
		if c.Rank == card.Ass && suitCount(hand, c.Suit) == 1 {
			lonelyAces = append(lonelyAces, c)
		}
	}
	if len(lonelyAces) > 0 {
		for _, c := range lonelyAces {
			if c.Suit == trump {
				return c
			}
		}
		return lonelyAces[0]
	}

	preferTrump := suitCount(hand, trump) > 3
	var candidates []card.Card
	for _, c := range legal {
		if (c.Suit == trump) == preferTrump {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		candidates = legal
	}

	filtered := candidates[:0:0]
	for _, c := range candidates {
		if c.Rank == card.Ass && copyCount(hand, c) == 2 && suitCount(hand, c.Suit) > 2 {
			continue
		}
		filtered = append(filtered, c)
	}
	if len(filtered) == 0 {
		filtered = candidates
	}

	best := filtered[0]
	for _, c := range filtered[1:] {
		if c.Points() > best.Points() {
			best = c
		}
	}
	return best
}

// chooseFollow 跟牌选牌：能赢就用最小的赢牌；赢不了时从手中
// 最长的花色里垫分值最低的牌，尽量不垫主
func (e *Engine) chooseFollow(hand, legal []card.Card, s state.GameState, playerIdx int) card.Card {
	var winning []card.Card
	for _, c := range legal {
		if wins(s.CurrentTrick, c, playerIdx, s.Trump) {
			winning = append(winning, c)
		}
	}
	if len(winning) > 0 {
		best := winning[0]
		for _, c := range winning[1:] {
			if c.Rank < best.Rank {
				best = c
			}
		}
		return best
	}

	best := legal[0]
	for _, c := range legal[1:] {
		if dumpBetter(c, best, hand, s.Trump) {
			best = c
		}
	}
	return best
}

// dumpBetter 判断垫牌 a 是否优于 b：非主优先，花色更长优先，分值更低优先
func dumpBetter(a, b card.Card, hand []card.Card, trump card.Suit) bool {
	aTrump, bTrump := a.Suit == trump, b.Suit == trump
	if aTrump != bTrump {
		return !aTrump
	}
	aLen, bLen := suitCount(hand, a.Suit), suitCount(hand, b.Suit)
	if aLen != bLen {
		return aLen > bLen
	}
	return a.Points() < b.Points()
}

// wins 判断打出 c 后是否暂时领先本墩
func wins(t rule.Trick, c card.Card, playerIdx int, trump card.Suit) bool {
	probe := rule.Trick{Cards: append(append([]rule.PlayedCard(nil), t.Cards...), rule.PlayedCard{Player: playerIdx, Card: c})}
	return rule.TrickWinner(probe, trump) == playerIdx
}

// fallback 兜底动作：启发式故障时保证仍产出一个合法动作
func (e *Engine) fallback(s state.GameState, playerIdx int) Action {
	switch s.Phase {
	case state.PhaseBidding:
		if rule.CanPass(s.CurrentBid, playerIdx, s.FirstBidder) {
			return Action{Type: ActionPass}
		}
		return Action{Type: ActionBid, Amount: rule.OpeningBid}
	case state.PhaseDabb:
		if !s.DabbTaken {
			return Action{Type: ActionTakeDabb}
		}
		hand := s.Hands[playerIdx]
		excess := len(hand) - card.HandSize(s.PlayerCount)
		if excess <= 0 || excess > len(hand) {
			excess = min(card.DabbSize, len(hand))
		}
		return Action{Type: ActionDiscard, Cards: append([]card.Card(nil), hand[:excess]...)}
	case state.PhaseTrump:
		return Action{Type: ActionDeclareTrump, Suit: card.Kreuz}
	case state.PhaseMelding:
		return Action{Type: ActionDeclareMelds}
	case state.PhaseTricks:
		legal := rule.ValidPlays(s.Hands[playerIdx], s.CurrentTrick, s.Trump)
		if len(legal) > 0 {
			return Action{Type: ActionPlayCard, Cards: legal[:1]}
		}
		return Action{Type: ActionNone}
	default:
		return Action{Type: ActionNone}
	}
}

func suitCount(hand []card.Card, suit card.Suit) int {
	n := 0
	for _, c := range hand {
		if c.Suit == suit {
			n++
		}
	}
	return n
}

func copyCount(hand []card.Card, target card.Card) int {
	n := 0
	for _, c := range hand {
		if c.Suit == target.Suit && c.Rank == target.Rank {
			n++
		}
	}
	return n
}
