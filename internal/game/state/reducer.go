package state

import (
	"github.com/deglerj/dabb-sub000/internal/game/card"
	"github.com/deglerj/dabb-sub000/internal/game/event"
	"github.com/deglerj/dabb-sub000/internal/game/rule"
)

// Apply 把一条事件折叠进状态，返回新状态
//
// 归约器是纯函数且必须全定义：不校验合法性（那是编排器的职责），
// 解析失败的事件原样跳过，保证同一事件列表的回放结果永远一致
func Apply(s GameState, evt event.Event) GameState {
	out := s.clone()

	switch evt.Type {
	case event.TypeGameStarted:
		p, err := event.ParsePayload[event.GameStartedPayload](evt)
		if err != nil {
			return out
		}
		out.PlayerCount = p.PlayerCount
		out.TargetScore = p.TargetScore
		out.Dealer = p.Dealer
		out.Round = 1
		out.Players = make([]Player, 0, len(p.Players))
		for _, info := range p.Players {
			out.Players = append(out.Players, playerFromInfo(info))
		}
		out.TotalScores = make([]int, p.PlayerCount)
		out.resetRound()
		out.Phase = PhaseDealing

	case event.TypePlayerJoined:
		p, err := event.ParsePayload[event.PlayerJoinedPayload](evt)
		if err != nil {
			return out
		}
		joined := playerFromInfo(p.Player)
		replaced := false
		for i, pl := range out.Players {
			if pl.Index == joined.Index {
				out.Players[i] = joined
				replaced = true
				break
			}
		}
		if !replaced {
			out.Players = append(out.Players, joined)
		}

	case event.TypePlayerLeft:
		p, err := event.ParsePayload[event.PlayerLeftPayload](evt)
		if err != nil {
			return out
		}
		for i, pl := range out.Players {
			if pl.Index == p.PlayerIndex {
				out.Players[i].Connected = false
			}
		}

	case event.TypePlayerReconnected:
		p, err := event.ParsePayload[event.PlayerReconnectedPayload](evt)
		if err != nil {
			return out
		}
		for i, pl := range out.Players {
			if pl.Index == p.PlayerIndex {
				out.Players[i].Connected = true
			}
		}

	case event.TypeCardsDealt:
		p, err := event.ParsePayload[event.CardsDealtPayload](evt)
		if err != nil {
			return out
		}
		out.resetRound()
		out.Hands = make([][]card.Card, len(p.Hands))
		for i, ids := range p.Hands {
			out.Hands[i] = cardsFromIDs(ids)
		}
		out.Dabb = cardsFromIDs(p.Dabb)
		out.FirstBidder = rule.FirstBidder(out.Dealer, out.PlayerCount)
		out.CurrentBidder = out.FirstBidder
		out.Phase = PhaseBidding

	case event.TypeBidPlaced:
		p, err := event.ParsePayload[event.BidPlacedPayload](evt)
		if err != nil {
			return out
		}
		out.CurrentBid = p.Amount
		out.CurrentBidder = rule.NextBidder(p.PlayerIndex, out.Passed)

	case event.TypePlayerPassed:
		p, err := event.ParsePayload[event.PlayerPassedPayload](evt)
		if err != nil {
			return out
		}
		if p.PlayerIndex >= 0 && p.PlayerIndex < len(out.Passed) {
			out.Passed[p.PlayerIndex] = true
		}
		if rule.BiddingWinner(out.CurrentBid, out.Passed) == -1 {
			out.CurrentBidder = rule.NextBidder(p.PlayerIndex, out.Passed)
		}

	case event.TypeBiddingWon:
		p, err := event.ParsePayload[event.BiddingWonPayload](evt)
		if err != nil {
			return out
		}
		out.BidWinner = p.PlayerIndex
		out.CurrentBid = p.Amount
		out.CurrentBidder = -1
		out.CurrentPlayer = p.PlayerIndex
		out.Phase = PhaseDabb

	case event.TypeDabbTaken:
		p, err := event.ParsePayload[event.DabbTakenPayload](evt)
		if err != nil {
			return out
		}
		if p.PlayerIndex >= 0 && p.PlayerIndex < len(out.Hands) {
			out.Hands[p.PlayerIndex] = append(out.Hands[p.PlayerIndex], cardsFromIDs(p.Cards)...)
		}
		out.Dabb = nil
		out.DabbTaken = true

	case event.TypeCardsDiscarded:
		p, err := event.ParsePayload[event.CardsDiscardedPayload](evt)
		if err != nil {
			return out
		}
		if p.PlayerIndex >= 0 && p.PlayerIndex < len(out.Hands) {
			hand := out.Hands[p.PlayerIndex]
			for _, c := range cardsFromIDs(p.Cards) {
				hand = removeTolerant(hand, c)
			}
			out.Hands[p.PlayerIndex] = hand
		}
		out.Phase = PhaseTrump

	case event.TypeGoingOut:
		p, err := event.ParsePayload[event.GoingOutPayload](evt)
		if err != nil {
			return out
		}
		if s, ok := card.SuitFromName(p.Trump); ok {
			out.Trump = s
		}
		out.WentOut = true
		out.Phase = PhaseMelding
		out.CurrentPlayer = out.NextMelder()

	case event.TypeTrumpDeclared:
		p, err := event.ParsePayload[event.TrumpDeclaredPayload](evt)
		if err != nil {
			return out
		}
		if s, ok := card.SuitFromName(p.Trump); ok {
			out.Trump = s
		}
		out.Phase = PhaseMelding
		out.CurrentPlayer = out.NextMelder()

	case event.TypeMeldsDeclared:
		p, err := event.ParsePayload[event.MeldsDeclaredPayload](evt)
		if err != nil {
			return out
		}
		if p.PlayerIndex >= 0 && p.PlayerIndex < out.PlayerCount {
			melds := make([]rule.Meld, len(p.Melds))
			for i, info := range p.Melds {
				melds[i] = info.ToMeld()
			}
			if p.PlayerIndex < len(out.Melds) {
				out.Melds[p.PlayerIndex] = melds
			}
			if p.PlayerIndex < len(out.MeldDeclared) {
				out.MeldDeclared[p.PlayerIndex] = true
			}
			if p.PlayerIndex < len(out.MeldPoints) {
				out.MeldPoints[p.PlayerIndex] = p.Points
			}
		}
		out.CurrentPlayer = out.NextMelder()

	case event.TypeMeldingComplete:
		if out.WentOut {
			out.Phase = PhaseScoring
		} else {
			out.Phase = PhaseTricks
			out.CurrentPlayer = out.BidWinner
			out.CurrentTrick = rule.Trick{}
		}

	case event.TypeCardPlayed:
		p, err := event.ParsePayload[event.CardPlayedPayload](evt)
		if err != nil {
			return out
		}
		played, idErr := card.FromID(p.Card)
		if idErr != nil {
			played = card.HiddenCard(len(out.CurrentTrick.Cards))
		}
		if p.PlayerIndex >= 0 && p.PlayerIndex < len(out.Hands) {
			out.Hands[p.PlayerIndex] = removeTolerant(out.Hands[p.PlayerIndex], played)
		}
		out.CurrentTrick.Cards = append(out.CurrentTrick.Cards, rule.PlayedCard{
			Player: p.PlayerIndex,
			Card:   played,
		})
		if out.PlayerCount > 0 {
			out.CurrentPlayer = (p.PlayerIndex + 1) % out.PlayerCount
		}

	case event.TypeTrickWon:
		p, err := event.ParsePayload[event.TrickWonPayload](evt)
		if err != nil {
			return out
		}
		if p.PlayerIndex >= 0 && p.PlayerIndex < len(out.TricksTaken) {
			taken := make([]card.Card, 0, len(out.CurrentTrick.Cards))
			for _, pc := range out.CurrentTrick.Cards {
				taken = append(taken, pc.Card)
			}
			out.TricksTaken[p.PlayerIndex] = append(out.TricksTaken[p.PlayerIndex], taken)
		}
		last := out.CurrentTrick
		out.LastTrick = &last
		out.CurrentTrick = rule.Trick{}
		out.CurrentPlayer = p.PlayerIndex

	case event.TypeRoundScored:
		p, err := event.ParsePayload[event.RoundScoredPayload](evt)
		if err != nil {
			return out
		}
		out.RoundScores = append([]int(nil), p.RoundScores...)
		out.TotalScores = append([]int(nil), p.TotalScores...)
		if len(p.MeldPoints) == out.PlayerCount {
			out.MeldPoints = append([]int(nil), p.MeldPoints...)
		}
		out.Phase = PhaseScoring

	case event.TypeGameFinished:
		p, err := event.ParsePayload[event.GameFinishedPayload](evt)
		if err != nil {
			return out
		}
		out.Winner = p.WinnerIndex
		if len(p.TotalScores) == out.PlayerCount {
			out.TotalScores = append([]int(nil), p.TotalScores...)
		}
		out.Phase = PhaseFinished

	case event.TypeNewRoundStarted:
		p, err := event.ParsePayload[event.NewRoundStartedPayload](evt)
		if err != nil {
			return out
		}
		out.Round = p.Round
		out.Dealer = p.Dealer
		out.resetRound()
		out.Phase = PhaseDealing

	case event.TypeGameTerminated:
		p, err := event.ParsePayload[event.GameTerminatedPayload](evt)
		if err != nil {
			return out
		}
		out.Terminated = true
		out.TerminatedBy = p.TerminatedBy
		out.Phase = PhaseFinished
	}

	return out
}

// Reduce 从零值状态折叠整条事件列表
func Reduce(events []event.Event) GameState {
	s := New()
	for _, evt := range events {
		s = Apply(s, evt)
	}
	return s
}

func playerFromInfo(info event.PlayerInfo) Player {
	return Player{
		ID:        info.ID,
		Nickname:  info.Nickname,
		Index:     info.Index,
		Connected: true,
		IsAI:      info.IsAI,
	}
}

// cardsFromIDs 解析牌标识列表；无法识别的标识降级为隐藏占位牌，
// 保持数量和位置不变
func cardsFromIDs(ids []string) []card.Card {
	out := make([]card.Card, len(ids))
	for i, id := range ids {
		c, err := card.FromID(id)
		if err != nil {
			c = card.HiddenCard(i)
		}
		out[i] = c
	}
	return out
}

// removeTolerant 从手牌移除一张牌；牌不在手中时改为移除一张隐藏
// 占位牌（过滤后的视图中对手手牌全是占位牌），两边都找不到则不动
func removeTolerant(hand []card.Card, c card.Card) []card.Card {
	if out, ok := card.Remove(hand, c); ok {
		return out
	}
	for i, h := range hand {
		if h.Hidden() {
			out := make([]card.Card, 0, len(hand)-1)
			out = append(out, hand[:i]...)
			out = append(out, hand[i+1:]...)
			return out
		}
	}
	return hand
}
