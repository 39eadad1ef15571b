package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deglerj/dabb-sub000/internal/game/card"
	"github.com/deglerj/dabb-sub000/internal/game/rule"
	"github.com/deglerj/dabb-sub000/internal/game/state"
)

func c(suit card.Suit, rank card.Rank) card.Card {
	return card.Card{Suit: suit, Rank: rank, Copy: 0}
}

func c1(suit card.Suit, rank card.Rank) card.Card {
	return card.Card{Suit: suit, Rank: rank, Copy: 1}
}

func biddingState(playerCount int) state.GameState {
	s := state.New()
	s.Phase = state.PhaseBidding
	s.PlayerCount = playerCount
	s.Passed = make([]bool, playerCount)
	s.Hands = make([][]card.Card, playerCount)
	s.FirstBidder = 1
	s.CurrentBidder = 1
	return s
}

func TestMandatoryOpeningBid(t *testing.T) {
	t.Parallel()

	s := biddingState(2)
	s.Hands[1] = []card.Card{c(card.Kreuz, card.Buabe)}

	// 首叫玩家无论手牌多差都必须开 150
	e := NewWithSeed(1)
	for i := 0; i < 20; i++ {
		action := e.Decide(s, 1)
		assert.Equal(t, ActionBid, action.Type)
		assert.Equal(t, rule.OpeningBid, action.Amount)
	}
}

func TestStrongHandAlwaysRaises(t *testing.T) {
	t.Parallel()

	s := biddingState(2)
	s.CurrentBid = 150
	// 八张爱司：报牌分 1000，余量远超 +70，永不过牌
	var hand []card.Card
	for _, suit := range card.Suits() {
		hand = append(hand, c(suit, card.Ass), c1(suit, card.Ass))
	}
	s.Hands[0] = hand

	e := NewWithSeed(2)
	for i := 0; i < 50; i++ {
		action := e.Decide(s, 0)
		require.Equal(t, ActionBid, action.Type)
		assert.Equal(t, 160, action.Amount)
	}
}

func TestWeakHandMostlyPasses(t *testing.T) {
	t.Parallel()

	s := biddingState(2)
	s.CurrentBid = 300
	// 没有任何组合：估值 50，差距 -260，过牌概率封顶 0.9
	s.Hands[0] = []card.Card{c(card.Kreuz, card.Zehn), c(card.Herz, card.Buabe)}

	e := NewWithSeed(3)
	passes := 0
	for i := 0; i < 200; i++ {
		if e.Decide(s, 0).Type == ActionPass {
			passes++
		}
	}
	// 期望 ~180 次过牌
	assert.Greater(t, passes, 140)
	assert.Less(t, passes, 200)
}

func TestTakeDabbWhenOffered(t *testing.T) {
	t.Parallel()

	s := state.New()
	s.Phase = state.PhaseDabb
	s.PlayerCount = 4
	s.BidWinner = 0
	s.Hands = [][]card.Card{{c(card.Herz, card.Ass)}}

	action := NewWithSeed(4).Decide(s, 0)
	assert.Equal(t, ActionTakeDabb, action.Type)
}

func TestDiscardPriority(t *testing.T) {
	t.Parallel()

	s := state.New()
	s.Phase = state.PhaseDabb
	s.PlayerCount = 4
	s.BidWinner = 0
	s.DabbTaken = true

	// 红心 Familie（组合牌）+ 红心散牌 + 副牌散牌，13 张须弃 4 张
	hand := []card.Card{
		c(card.Herz, card.Ass), c(card.Herz, card.Zehn), c(card.Herz, card.Koenig),
		c(card.Herz, card.Ober), c(card.Herz, card.Buabe),
		c1(card.Herz, card.Zehn), c1(card.Herz, card.Buabe),
		c(card.Kreuz, card.Buabe), c(card.Kreuz, card.Ober),
		c(card.Schippe, card.Zehn), c(card.Schippe, card.Koenig),
		c(card.Bollen, card.Zehn), c(card.Bollen, card.Koenig),
	}
	s.Hands = [][]card.Card{hand}

	action := NewWithSeed(5).Decide(s, 0)
	require.Equal(t, ActionDiscard, action.Type)
	require.Len(t, action.Cards, 4)

	// Familie 的五张牌一张都不能弃
	familie := []card.Card{
		c(card.Herz, card.Ass), c(card.Herz, card.Zehn), c(card.Herz, card.Koenig),
		c(card.Herz, card.Ober), c(card.Herz, card.Buabe),
	}
	for _, kept := range familie {
		assert.False(t, card.Contains(action.Cards, kept), "discarded meld card %s", kept)
	}
	// 弃掉的应当是分值最低的副牌散牌
	assert.True(t, card.Contains(action.Cards, c(card.Kreuz, card.Buabe)))
}

func TestDeclareBestTrump(t *testing.T) {
	t.Parallel()

	s := state.New()
	s.Phase = state.PhaseTrump
	s.PlayerCount = 4
	s.BidWinner = 0
	// 红心对在红心做主时 40 分，必选红心
	s.Hands = [][]card.Card{{c(card.Herz, card.Koenig), c(card.Herz, card.Ober), c(card.Kreuz, card.Zehn)}}

	action := NewWithSeed(6).Decide(s, 0)
	require.Equal(t, ActionDeclareTrump, action.Type)
	assert.Equal(t, card.Herz, action.Suit)
}

func TestDeclareMelds(t *testing.T) {
	t.Parallel()

	s := state.New()
	s.Phase = state.PhaseMelding
	s.PlayerCount = 2
	s.Trump = card.Herz
	s.Hands = [][]card.Card{{c(card.Schippe, card.Ober), c(card.Bollen, card.Buabe)}}

	action := NewWithSeed(7).Decide(s, 0)
	require.Equal(t, ActionDeclareMelds, action.Type)
	require.Len(t, action.Melds, 1)
	assert.Equal(t, rule.MeldBinokel, action.Melds[0].Type)
}

func trickState(trump card.Suit, hand []card.Card, played ...card.Card) state.GameState {
	s := state.New()
	s.Phase = state.PhaseTricks
	s.PlayerCount = 2
	s.Trump = trump
	s.CurrentPlayer = 0
	s.Hands = [][]card.Card{hand, nil}
	for i, pc := range played {
		s.CurrentTrick.Cards = append(s.CurrentTrick.Cards, rule.PlayedCard{Player: 1 + i, Card: pc})
	}
	return s
}

func TestPlaySingleLegalCard(t *testing.T) {
	t.Parallel()

	s := trickState(card.Kreuz,
		[]card.Card{c(card.Herz, card.Ass), c(card.Kreuz, card.Zehn)},
		c(card.Herz, card.Koenig))

	action := NewWithSeed(8).Decide(s, 0)
	require.Equal(t, ActionPlayCard, action.Type)
	// 必须跟红心且必须压
	assert.Equal(t, []card.Card{c(card.Herz, card.Ass)}, action.Cards)
}

func TestLeadLonelyAce(t *testing.T) {
	t.Parallel()

	// 铃铛爱司是孤张，优先首攻
	s := trickState(card.Kreuz, []card.Card{
		c(card.Bollen, card.Ass),
		c(card.Herz, card.Koenig), c(card.Herz, card.Buabe),
		c(card.Schippe, card.Zehn), c(card.Schippe, card.Ober),
	})

	action := NewWithSeed(9).Decide(s, 0)
	require.Equal(t, ActionPlayCard, action.Type)
	assert.Equal(t, c(card.Bollen, card.Ass), action.Cards[0])
}

func TestFollowWithCheapestWinner(t *testing.T) {
	t.Parallel()

	s := trickState(card.Kreuz,
		[]card.Card{c(card.Herz, card.Zehn), c(card.Herz, card.Ass), c(card.Herz, card.Buabe)},
		c(card.Herz, card.Koenig))

	action := NewWithSeed(10).Decide(s, 0)
	require.Equal(t, ActionPlayCard, action.Type)
	// 10 和爱司都能赢，选牌力更小的 10
	assert.Equal(t, c(card.Herz, card.Zehn), action.Cards[0])
}

func TestDumpLowestFromLongestSuit(t *testing.T) {
	t.Parallel()

	// 压不住也无主可垫：从最长的副牌花色里垫最小的
	s := trickState(card.Kreuz,
		[]card.Card{
			c(card.Schippe, card.Buabe), c(card.Schippe, card.Ober), c(card.Schippe, card.Zehn),
			c(card.Bollen, card.Koenig),
		},
		c(card.Herz, card.Ass))

	action := NewWithSeed(11).Decide(s, 0)
	require.Equal(t, ActionPlayCard, action.Type)
	assert.Equal(t, c(card.Schippe, card.Buabe), action.Cards[0])
}

func TestDecisionsAreAlwaysLegal(t *testing.T) {
	t.Parallel()

	e := NewWithSeed(12)
	deck := card.NewDeck()
	deck.Shuffle()
	hands, _ := card.Deal(deck, 4)

	for idx, hand := range hands {
		s := trickState(card.Herz, nil)
		s.PlayerCount = 4
		s.Hands = [][]card.Card{nil, nil, nil, nil}
		s.Hands[idx] = hand
		s.CurrentTrick.Cards = []rule.PlayedCard{{Player: (idx + 1) % 4, Card: c(card.Schippe, card.Koenig)}}

		action := e.Decide(s, idx)
		require.Equal(t, ActionPlayCard, action.Type)
		assert.True(t, rule.IsValidPlay(hand, action.Cards[0], s.CurrentTrick, s.Trump))
	}
}

func TestFallbackOnFault(t *testing.T) {
	t.Parallel()

	// 空手牌在出牌阶段会让启发式崩溃，必须被兜底接住
	s := trickState(card.Kreuz, nil)
	action := NewWithSeed(13).Decide(s, 0)
	assert.Equal(t, ActionNone, action.Type)

	// 终局阶段没有可做的事
	s.Phase = state.PhaseFinished
	assert.Equal(t, ActionNone, NewWithSeed(14).Decide(s, 0).Type)
}

func TestSeededEngineIsDeterministic(t *testing.T) {
	t.Parallel()

	s := biddingState(2)
	s.CurrentBid = 200
	s.Hands[0] = []card.Card{c(card.Kreuz, card.Zehn)}

	a := NewWithSeed(42)
	b := NewWithSeed(42)
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Decide(s, 0), b.Decide(s, 0))
	}
}
