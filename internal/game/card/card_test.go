package card

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeck(t *testing.T) {
	t.Parallel()

	deck := NewDeck()
	require.Len(t, deck, 40)

	// 每张牌唯一
	seen := make(map[Card]bool)
	totalPoints := 0
	for _, c := range deck {
		assert.False(t, seen[c], "duplicate card %s", c)
		seen[c] = true
		totalPoints += c.Points()
	}

	// 一副牌总分 240
	assert.Equal(t, 240, totalPoints)
}

func TestCardID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		card Card
		want string
	}{
		{"schippe ober second copy", Card{Suit: Schippe, Rank: Ober, Copy: 1}, "schippe-ober-1"},
		{"bollen buabe first copy", Card{Suit: Bollen, Rank: Buabe, Copy: 0}, "bollen-buabe-0"},
		{"herz ass", Card{Suit: Herz, Rank: Ass, Copy: 0}, "herz-ass-0"},
		{"hidden placeholder", HiddenCard(7), "hidden-7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.card.ID())

			parsed, err := FromID(tt.want)
			require.NoError(t, err)
			if tt.card.Hidden() {
				assert.True(t, parsed.Hidden())
			} else {
				assert.Equal(t, tt.card, parsed)
			}
		})
	}
}

func TestFromIDInvalid(t *testing.T) {
	t.Parallel()

	for _, id := range []string{"", "schippe-ober", "pik-ober-0", "schippe-dame-0", "schippe-ober-2", "schippe-ober-x"} {
		_, err := FromID(id)
		assert.Error(t, err, "id %q", id)
	}
}

func TestRankOrder(t *testing.T) {
	t.Parallel()

	// Zehn 大于 König 是 Binokel 的关键规则
	assert.Greater(t, Zehn, Koenig)
	assert.Greater(t, Ass, Zehn)
	assert.Less(t, Buabe, Ober)
	assert.Less(t, Ober, Koenig)
}

func TestDeal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		playerCount int
		handSize    int
	}{
		{"two players", 2, 18},
		{"three players", 3, 12},
		{"four players", 4, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			deck := NewDeck()
			deck.ShuffleWith(rand.New(rand.NewPCG(1, 2)))

			hands, dabb := Deal(deck, tt.playerCount)
			require.Len(t, hands, tt.playerCount)
			assert.Len(t, dabb, DabbSize)

			seen := make(map[Card]bool)
			for _, hand := range hands {
				assert.Len(t, hand, tt.handSize)
				for _, c := range hand {
					assert.False(t, seen[c])
					seen[c] = true
				}
			}
			for _, c := range dabb {
				assert.False(t, seen[c])
				seen[c] = true
			}
			assert.Len(t, seen, 40)
		})
	}
}

func TestDealPanicsOnBadCounts(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { Deal(NewDeck()[:39], 4) })
	assert.Panics(t, func() { Deal(NewDeck(), 5) })
}

func TestRemove(t *testing.T) {
	t.Parallel()

	hand := []Card{
		{Suit: Herz, Rank: Ass, Copy: 0},
		{Suit: Herz, Rank: Ass, Copy: 1},
		{Suit: Kreuz, Rank: Zehn, Copy: 0},
	}

	out, ok := Remove(hand, Card{Suit: Herz, Rank: Ass, Copy: 1})
	require.True(t, ok)
	assert.Len(t, out, 2)
	assert.True(t, Contains(out, Card{Suit: Herz, Rank: Ass, Copy: 0}))
	assert.False(t, Contains(out, Card{Suit: Herz, Rank: Ass, Copy: 1}))

	// 原切片不被修改
	assert.Len(t, hand, 3)

	_, ok = Remove(out, Card{Suit: Bollen, Rank: Ober, Copy: 0})
	assert.False(t, ok)
}

func TestIDsRoundTrip(t *testing.T) {
	t.Parallel()

	cards := []Card{
		{Suit: Schippe, Rank: Ober, Copy: 0},
		{Suit: Bollen, Rank: Buabe, Copy: 1},
	}
	ids := IDs(cards)
	assert.Equal(t, []string{"schippe-ober-0", "bollen-buabe-1"}, ids)

	back, err := FromIDs(ids)
	require.NoError(t, err)
	assert.Equal(t, cards, back)
}
