package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deglerj/dabb-sub000/internal/game/card"
	"github.com/deglerj/dabb-sub000/internal/game/event"
	"github.com/deglerj/dabb-sub000/internal/game/state"
)

func TestRoundTen(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  int
		want int
	}{
		{0, 0},
		{5, 10},
		{101, 100},
		{104, 100},
		{105, 110},
		{154, 150},
		{155, 160},
		{159, 160},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, roundTen(tt.raw), "raw=%d", tt.raw)
	}
}

func repeatRank(suit card.Suit, rank card.Rank, n int) []card.Card {
	out := make([]card.Card, n)
	for i := range out {
		out[i] = card.Card{Suit: suit, Rank: rank, Copy: i % 2}
	}
	return out
}

// scoringState 造一个打完 18 墩、待结算的两人局面
func scoringState(p0Tricks, p1Tricks []card.Card) state.GameState {
	return state.GameState{
		Phase:        state.PhaseScoring,
		PlayerCount:  2,
		TargetScore:  1000,
		Hands:        make([][]card.Card, 2),
		Passed:       make([]bool, 2),
		MeldDeclared: []bool{true, true},
		MeldPoints:   make([]int, 2),
		TricksTaken:  [][][]card.Card{{p0Tricks}, {p1Tricks}},
		RoundScores:  make([]int, 2),
		TotalScores:  make([]int, 2),
		Round:        1,
	}
}

// 正常结算：墩分取整到 10、逢 5 进位，达标即终局
func TestFinishRoundRoundsTrickPoints(t *testing.T) {
	t.Parallel()

	// p0 墩内 8×Ass + 6×Zehn + König + Ober = 155 点，p1 拿剩下的 52 点
	p0 := append(repeatRank(card.Kreuz, card.Ass, 8), repeatRank(card.Herz, card.Zehn, 6)...)
	p0 = append(p0, card.Card{Suit: card.Bollen, Rank: card.Koenig}, card.Card{Suit: card.Bollen, Rank: card.Ober})
	p1 := append(repeatRank(card.Schippe, card.Zehn, 2), repeatRank(card.Schippe, card.Koenig, 8)...)

	st := scoringState(p0, p1)
	st.BidWinner = 0
	st.CurrentBid = 150
	st.MeldPoints = []int{20, 60}
	st.TotalScores = []int{900, 800}

	sess := NewSession("score", 2, 1000, NewMemoryStore())
	events := sess.finishRound(st, event.NewGenerator("score", 50))

	require.Len(t, events, 2)
	scored, err := event.ParsePayload[event.RoundScoredPayload](events[0])
	require.NoError(t, err)

	assert.Equal(t, 160, scored.TrickPoints[0], "155 → 160")
	assert.Equal(t, 50, scored.TrickPoints[1], "52 → 50")
	assert.Equal(t, []int{180, 110}, scored.RoundScores)
	assert.Equal(t, []int{1080, 910}, scored.TotalScores)
	assert.True(t, scored.BidMet)
	assert.False(t, scored.WentOut)

	// 过线即终局
	require.Equal(t, event.TypeGameFinished, events[1].Type)
	finished, err := event.ParsePayload[event.GameFinishedPayload](events[1])
	require.NoError(t, err)
	assert.Equal(t, 0, finished.WinnerIndex)
}

// 叫分没做到：胜者本轮改记 -2×叫分，报牌和墩分全部作废
func TestFinishRoundBidNotMet(t *testing.T) {
	t.Parallel()

	// p0 墩内 88 点取整 90；p1 80+32=112 点取整 110
	p0 := repeatRank(card.Kreuz, card.Ass, 8)
	p1 := append(repeatRank(card.Herz, card.Zehn, 8), repeatRank(card.Schippe, card.Koenig, 8)...)

	st := scoringState(p0, p1)
	st.BidWinner = 0
	st.CurrentBid = 400
	st.MeldPoints = []int{40, 20}
	st.TotalScores = []int{100, 100}
	st.Dealer = 0

	sess := NewSession("penalty", 2, 1000, NewMemoryStore())
	events := sess.finishRound(st, event.NewGenerator("penalty", 50))

	scored, err := event.ParsePayload[event.RoundScoredPayload](events[0])
	require.NoError(t, err)

	// 40 + 90 = 130 < 400
	assert.False(t, scored.BidMet)
	assert.Equal(t, -800, scored.RoundScores[0])
	assert.Equal(t, -700, scored.TotalScores[0])
	assert.Equal(t, 130, scored.RoundScores[1])
	assert.Equal(t, 230, scored.TotalScores[1])

	// 没人达标：开新轮，庄家轮转，随即发牌
	require.Len(t, events, 3)
	assert.Equal(t, event.TypeNewRoundStarted, events[1].Type)
	assert.Equal(t, event.TypeCardsDealt, events[2].Type)
	newRound, err := event.ParsePayload[event.NewRoundStartedPayload](events[1])
	require.NoError(t, err)
	assert.Equal(t, 2, newRound.Round)
	assert.Equal(t, 1, newRound.Dealer)
}
