package game

import (
	"github.com/deglerj/dabb-sub000/internal/game/event"
	"github.com/deglerj/dabb-sub000/internal/game/state"
)

// roundTen 墩分取整到最近的 10，逢 5 进位
func roundTen(raw int) int {
	return ((raw + 5) / 10) * 10
}

// finishRound 在一轮结束（手牌出完或弃叫报牌完毕）后生成结算事件，
// 并视累计分决定终局或开新轮。st 是结算前已折叠好的状态
func (s *Session) finishRound(st state.GameState, gen *event.Generator) []event.Event {
	n := st.PlayerCount
	meldPoints := make([]int, n)
	trickPoints := make([]int, n)
	roundScores := make([]int, n)
	totals := append([]int(nil), st.TotalScores...)

	bidMet := false
	if st.WentOut {
		// 弃叫：胜者扣掉叫分，对手记报牌分外加 40
		for i := 0; i < n; i++ {
			if i == st.BidWinner {
				roundScores[i] = -st.CurrentBid
				continue
			}
			meldPoints[i] = st.MeldPoints[i]
			roundScores[i] = st.MeldPoints[i] + 40
		}
	} else {
		for i := 0; i < n; i++ {
			meldPoints[i] = st.MeldPoints[i]
			raw := 0
			for _, trick := range st.TricksTaken[i] {
				for _, c := range trick {
					raw += c.Points()
				}
			}
			trickPoints[i] = roundTen(raw)
			roundScores[i] = meldPoints[i] + trickPoints[i]
		}
		// 没做到叫分的胜者倒扣双倍
		if roundScores[st.BidWinner] < st.CurrentBid {
			roundScores[st.BidWinner] = -2 * st.CurrentBid
		} else {
			bidMet = true
		}
	}

	for i := 0; i < n; i++ {
		totals[i] += roundScores[i]
	}

	events := []event.Event{gen.MustNext(event.TypeRoundScored, event.RoundScoredPayload{
		MeldPoints:  meldPoints,
		TrickPoints: trickPoints,
		RoundScores: roundScores,
		TotalScores: totals,
		BidWinner:   st.BidWinner,
		Bid:         st.CurrentBid,
		BidMet:      bidMet,
		WentOut:     st.WentOut,
	})}

	// 终局判定：有人到达目标分时，所有达标者中分数最高的获胜
	// （不是先过线的那个，同一次结算里后结的玩家可能反超）
	winner := -1
	for i, total := range totals {
		if total >= st.TargetScore && (winner == -1 || total > totals[winner]) {
			winner = i
		}
	}
	if winner != -1 {
		events = append(events, gen.MustNext(event.TypeGameFinished, event.GameFinishedPayload{
			WinnerIndex: winner,
			TotalScores: totals,
		}))
		return events
	}

	// 开新轮：庄家轮转，随即发牌
	newRound := gen.MustNext(event.TypeNewRoundStarted, event.NewRoundStartedPayload{
		Round:  st.Round + 1,
		Dealer: (st.Dealer + 1) % n,
	})
	events = append(events, newRound)
	events = append(events, s.deal(gen, n))
	return events
}
