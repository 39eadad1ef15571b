package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deglerj/dabb-sub000/internal/game/card"
)

func c(suit card.Suit, rank card.Rank) card.Card {
	return card.Card{Suit: suit, Rank: rank, Copy: 0}
}

func c1(suit card.Suit, rank card.Rank) card.Card {
	return card.Card{Suit: suit, Rank: rank, Copy: 1}
}

func trick(cards ...card.Card) Trick {
	t := Trick{}
	for i, cd := range cards {
		t.Cards = append(t.Cards, PlayedCard{Player: i, Card: cd})
	}
	return t
}

func TestTrickWinner(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		trick Trick
		trump card.Suit
		want  int
	}{
		{
			// 规则书场景：同花色 10 压国王
			"zehn beats koenig in lead suit",
			trick(c(card.Herz, card.Koenig), c(card.Herz, card.Zehn), c(card.Herz, card.Buabe)),
			card.Kreuz,
			1,
		},
		{
			"highest trump wins over lead suit",
			trick(c(card.Herz, card.Ass), c(card.Kreuz, card.Buabe), c(card.Herz, card.Zehn)),
			card.Kreuz,
			1,
		},
		{
			"off-suit non-trump never wins",
			trick(c(card.Herz, card.Buabe), c(card.Schippe, card.Ass), c(card.Herz, card.Ober)),
			card.Kreuz,
			2,
		},
		{
			"first of two identical cards wins",
			trick(c(card.Bollen, card.Ass), c1(card.Bollen, card.Ass)),
			card.Herz,
			0,
		},
		{
			"higher trump beats lower trump",
			trick(c(card.Kreuz, card.Zehn), c(card.Kreuz, card.Ass), c(card.Herz, card.Ass)),
			card.Kreuz,
			1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, TrickWinner(tt.trick, tt.trump))
		})
	}
}

func TestTrickPoints(t *testing.T) {
	t.Parallel()

	// König 4 + Zehn 10 + Buabe 2 = 16
	tr := trick(c(card.Herz, card.Koenig), c(card.Herz, card.Zehn), c(card.Herz, card.Buabe))
	assert.Equal(t, 16, tr.Points())
	assert.Equal(t, 0, Trick{}.Points())
}

func TestValidPlaysEmptyTrick(t *testing.T) {
	t.Parallel()

	hand := []card.Card{c(card.Herz, card.Ass), c(card.Kreuz, card.Buabe)}
	assert.ElementsMatch(t, hand, ValidPlays(hand, Trick{}, card.Kreuz))
}

func TestValidPlaysMustFollowAndBeat(t *testing.T) {
	t.Parallel()

	tr := trick(c(card.Herz, card.Koenig))
	hand := []card.Card{
		c(card.Herz, card.Buabe),
		c(card.Herz, card.Ass),
		c(card.Kreuz, card.Zehn),
	}

	// 有红心必须跟红心，有能压住国王的必须压
	plays := ValidPlays(hand, tr, card.Kreuz)
	assert.ElementsMatch(t, []card.Card{c(card.Herz, card.Ass)}, plays)
}

func TestValidPlaysFollowWithoutBeating(t *testing.T) {
	t.Parallel()

	tr := trick(c(card.Herz, card.Ass))
	hand := []card.Card{
		c(card.Herz, card.Buabe),
		c(card.Herz, card.Ober),
		c(card.Kreuz, card.Ass),
	}

	// 压不住爱司时任何红心都合法，但必须跟红心
	plays := ValidPlays(hand, tr, card.Kreuz)
	assert.ElementsMatch(t, []card.Card{c(card.Herz, card.Buabe), c(card.Herz, card.Ober)}, plays)
}

func TestValidPlaysTrumpAlreadyWinning(t *testing.T) {
	t.Parallel()

	// 第二家已经垫主，首攻花色压不住，任意跟牌即可
	tr := Trick{Cards: []PlayedCard{
		{Player: 0, Card: c(card.Herz, card.Koenig)},
		{Player: 1, Card: c(card.Kreuz, card.Buabe)},
	}}
	hand := []card.Card{c(card.Herz, card.Ass), c(card.Herz, card.Buabe)}

	plays := ValidPlays(hand, tr, card.Kreuz)
	assert.ElementsMatch(t, hand, plays)
}

func TestValidPlaysMustTrumpWhenVoid(t *testing.T) {
	t.Parallel()

	tr := trick(c(card.Herz, card.Koenig))
	hand := []card.Card{c(card.Kreuz, card.Buabe), c(card.Schippe, card.Ass)}

	// 没有红心但有主牌，必须垫主
	plays := ValidPlays(hand, tr, card.Kreuz)
	assert.ElementsMatch(t, []card.Card{c(card.Kreuz, card.Buabe)}, plays)
}

func TestValidPlaysMustOverTrump(t *testing.T) {
	t.Parallel()

	tr := Trick{Cards: []PlayedCard{
		{Player: 0, Card: c(card.Herz, card.Koenig)},
		{Player: 1, Card: c(card.Kreuz, card.Ober)},
	}}
	hand := []card.Card{
		c(card.Kreuz, card.Buabe),
		c(card.Kreuz, card.Zehn),
		c(card.Schippe, card.Ass),
	}

	// 没有红心，主牌能压过已出的主牌时必须压
	plays := ValidPlays(hand, tr, card.Kreuz)
	assert.ElementsMatch(t, []card.Card{c(card.Kreuz, card.Zehn)}, plays)
}

func TestValidPlaysAnythingWhenVoidOfBoth(t *testing.T) {
	t.Parallel()

	tr := trick(c(card.Herz, card.Koenig))
	hand := []card.Card{c(card.Schippe, card.Buabe), c(card.Bollen, card.Ass)}

	plays := ValidPlays(hand, tr, card.Kreuz)
	assert.ElementsMatch(t, hand, plays)
}

func TestIsValidPlay(t *testing.T) {
	t.Parallel()

	tr := trick(c(card.Herz, card.Koenig))
	hand := []card.Card{c(card.Herz, card.Ass), c(card.Herz, card.Buabe)}

	assert.True(t, IsValidPlay(hand, c(card.Herz, card.Ass), tr, card.Kreuz))
	assert.False(t, IsValidPlay(hand, c(card.Herz, card.Buabe), tr, card.Kreuz))
	// 不在手牌中的牌永远不合法
	assert.False(t, IsValidPlay(hand, c(card.Kreuz, card.Ass), tr, card.Kreuz))
}

func TestValidPlaysNeverEmpty(t *testing.T) {
	t.Parallel()

	// 任何跟牌局面下合法集合都非空
	tr := Trick{Cards: []PlayedCard{
		{Player: 0, Card: c(card.Herz, card.Ass)},
		{Player: 1, Card: c(card.Kreuz, card.Ass)},
	}}
	hands := [][]card.Card{
		{c(card.Herz, card.Buabe)},
		{c(card.Kreuz, card.Buabe)},
		{c(card.Schippe, card.Ober), c(card.Bollen, card.Zehn)},
	}
	for _, hand := range hands {
		require.NotEmpty(t, ValidPlays(hand, tr, card.Kreuz))
	}
}
