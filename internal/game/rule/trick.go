package rule

import (
	"github.com/deglerj/dabb-sub000/internal/game/card"
)

// PlayedCard 一墩中的一张牌及其出牌者
type PlayedCard struct {
	Player int       `json:"player"`
	Card   card.Card `json:"card"`
}

// Trick 定义一墩牌
type Trick struct {
	Cards []PlayedCard `json:"cards"`
}

// LeadSuit 返回本墩的首攻花色；空墩返回 SuitHidden
func (t Trick) LeadSuit() card.Suit {
	if len(t.Cards) == 0 {
		return card.SuitHidden
	}
	return t.Cards[0].Card.Suit
}

// Points 返回本墩所有牌的分值总和
func (t Trick) Points() int {
	sum := 0
	for _, pc := range t.Cards {
		sum += pc.Card.Points()
	}
	return sum
}

// winningPos 返回当前领先的牌在墩中的位置
// 同牌力时先出者领先，因此只用严格大于比较
func winningPos(t Trick, trump card.Suit) int {
	best := 0
	for i := 1; i < len(t.Cards); i++ {
		if beats(t.Cards[i].Card, t.Cards[best].Card, t.LeadSuit(), trump) {
			best = i
		}
	}
	return best
}

// beats 判断 c 是否压过当前领先牌 lead
func beats(c, leader card.Card, leadSuit, trump card.Suit) bool {
	switch {
	case c.Suit == leader.Suit:
		return c.Rank > leader.Rank
	case c.Suit == trump:
		return true
	default:
		// 非主牌且不跟花色，永远压不住
		return false
	}
}

// TrickWinner 返回本墩的赢家（玩家编号）
// 规则：最大主牌胜；无主牌时最大首攻花色牌胜；同牌力先出者胜
func TrickWinner(t Trick, trump card.Suit) int {
	if len(t.Cards) == 0 {
		return -1
	}
	return t.Cards[winningPos(t, trump)].Player
}

// ValidPlays 返回当前墩中合法的出牌集合，实现四级出牌义务：
//  1. 有首攻花色必须跟，能压过当前领先牌时必须压
//  2. 没有首攻花色但有主牌必须出主，能压过已出的最大主牌时必须压
//  3. 都没有才可任意出
//
// 首攻（空墩）时全部手牌合法。返回集合永远非空（只要手牌非空）
func ValidPlays(hand []card.Card, t Trick, trump card.Suit) []card.Card {
	if len(t.Cards) == 0 {
		return append([]card.Card(nil), hand...)
	}

	leadSuit := t.LeadSuit()
	leader := t.Cards[winningPos(t, trump)].Card

	// 第一级：跟首攻花色
	followers := filterSuit(hand, leadSuit)
	if len(followers) > 0 {
		// 领先牌是主牌且首攻不是主时，首攻花色压不住，任意跟牌即可
		if leader.Suit == trump && leadSuit != trump {
			return followers
		}
		beating := filterBeating(followers, leader.Rank)
		if len(beating) > 0 {
			return beating
		}
		return followers
	}

	// 第二级：垫主
	trumps := filterSuit(hand, trump)
	if len(trumps) > 0 {
		if leader.Suit == trump {
			beating := filterBeating(trumps, leader.Rank)
			if len(beating) > 0 {
				return beating
			}
		}
		return trumps
	}

	// 第三级：任意垫牌
	return append([]card.Card(nil), hand...)
}

// IsValidPlay 判断一次出牌是否合法
func IsValidPlay(hand []card.Card, c card.Card, t Trick, trump card.Suit) bool {
	if !card.Contains(hand, c) {
		return false
	}
	return card.Contains(ValidPlays(hand, t, trump), c)
}

func filterSuit(cards []card.Card, suit card.Suit) []card.Card {
	var out []card.Card
	for _, c := range cards {
		if c.Suit == suit {
			out = append(out, c)
		}
	}
	return out
}

func filterBeating(cards []card.Card, rank card.Rank) []card.Card {
	var out []card.Card
	for _, c := range cards {
		if c.Rank > rank {
			out = append(out, c)
		}
	}
	return out
}
