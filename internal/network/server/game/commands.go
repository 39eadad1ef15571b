package game

import (
	"context"

	"github.com/deglerj/dabb-sub000/internal/apperrors"
	"github.com/deglerj/dabb-sub000/internal/game/card"
	"github.com/deglerj/dabb-sub000/internal/game/event"
	"github.com/deglerj/dabb-sub000/internal/game/rule"
	"github.com/deglerj/dabb-sub000/internal/game/state"
)

// Join 加入等待中的会话，返回分配的座位号
func (s *Session) Join(ctx context.Context, playerID, nickname string) (int, error) {
	index := -1
	_, err := s.do(ctx, func(st state.GameState, gen *event.Generator) ([]event.Event, error) {
		if st.Phase != state.PhaseWaiting {
			return nil, apperrors.ErrGameStarted
		}
		if len(st.Players) >= s.PlayerCount {
			return nil, apperrors.ErrSessionFull
		}
		index = len(st.Players)
		return []event.Event{gen.MustNext(event.TypePlayerJoined, event.PlayerJoinedPayload{
			Player: event.PlayerInfo{ID: playerID, Nickname: nickname, Index: index},
		})}, nil
	})
	return index, err
}

// Reconnect 按玩家 ID 重连已开始的会话，返回座位号
func (s *Session) Reconnect(ctx context.Context, playerID string) (int, error) {
	index := -1
	_, err := s.do(ctx, func(st state.GameState, gen *event.Generator) ([]event.Event, error) {
		for _, p := range st.Players {
			if p.ID == playerID {
				index = p.Index
				return []event.Event{gen.MustNext(event.TypePlayerReconnected, event.PlayerReconnectedPayload{
					PlayerIndex: p.Index,
				})}, nil
			}
		}
		return nil, apperrors.ErrNotInSession
	})
	return index, err
}

// Leave 标记玩家离线（掉线或主动退出，座位保留给重连）
func (s *Session) Leave(ctx context.Context, playerIdx int) error {
	_, err := s.do(ctx, func(st state.GameState, gen *event.Generator) ([]event.Event, error) {
		if playerIdx < 0 || playerIdx >= len(st.Players) {
			return nil, apperrors.ErrNotInSession
		}
		return []event.Event{gen.MustNext(event.TypePlayerLeft, event.PlayerLeftPayload{
			PlayerIndex: playerIdx,
		})}, nil
	})
	return err
}

// Start 开始游戏；fillWithAI 把空座位交给自动玩家
func (s *Session) Start(ctx context.Context, fillWithAI bool) ([]event.Event, error) {
	return s.do(ctx, func(st state.GameState, gen *event.Generator) ([]event.Event, error) {
		if st.Phase != state.PhaseWaiting {
			return nil, apperrors.ErrGameStarted
		}

		roster := make([]event.PlayerInfo, 0, s.PlayerCount)
		for _, p := range st.Players {
			roster = append(roster, event.PlayerInfo{ID: p.ID, Nickname: p.Nickname, Index: p.Index, IsAI: p.IsAI})
		}

		var events []event.Event
		if fillWithAI {
			for len(roster) < s.PlayerCount {
				bot := newBotPlayer(len(roster))
				roster = append(roster, bot)
				events = append(events, gen.MustNext(event.TypePlayerJoined, event.PlayerJoinedPayload{Player: bot}))
			}
		}
		if len(roster) != s.PlayerCount {
			return nil, apperrors.ErrNotEnoughSeats
		}

		events = append(events, gen.MustNext(event.TypeGameStarted, event.GameStartedPayload{
			Players:     roster,
			PlayerCount: s.PlayerCount,
			TargetScore: s.TargetScore,
			Dealer:      0,
		}))
		events = append(events, s.deal(gen, s.PlayerCount))
		return events, nil
	})
}

// Bid 叫分
func (s *Session) Bid(ctx context.Context, actor, amount int) ([]event.Event, error) {
	return s.do(ctx, func(st state.GameState, gen *event.Generator) ([]event.Event, error) {
		if st.Phase != state.PhaseBidding {
			return nil, apperrors.ErrWrongPhase
		}
		if actor != st.CurrentBidder {
			return nil, apperrors.ErrNotYourTurn
		}
		if !rule.IsValidBid(st.CurrentBid, amount) {
			return nil, apperrors.ErrInvalidBid
		}
		return []event.Event{gen.MustNext(event.TypeBidPlaced, event.BidPlacedPayload{
			PlayerIndex: actor,
			Amount:      amount,
		})}, nil
	})
}

// Pass 过牌；只剩一名未过玩家时叫分结束
func (s *Session) Pass(ctx context.Context, actor int) ([]event.Event, error) {
	return s.do(ctx, func(st state.GameState, gen *event.Generator) ([]event.Event, error) {
		if st.Phase != state.PhaseBidding {
			return nil, apperrors.ErrWrongPhase
		}
		if actor != st.CurrentBidder {
			return nil, apperrors.ErrNotYourTurn
		}
		if !rule.CanPass(st.CurrentBid, actor, st.FirstBidder) {
			return nil, apperrors.ErrCannotPass
		}

		events := []event.Event{gen.MustNext(event.TypePlayerPassed, event.PlayerPassedPayload{
			PlayerIndex: actor,
		})}
		after := state.Apply(st, events[0])
		if winner := rule.BiddingWinner(after.CurrentBid, after.Passed); winner != -1 {
			events = append(events, gen.MustNext(event.TypeBiddingWon, event.BiddingWonPayload{
				PlayerIndex: winner,
				Amount:      after.CurrentBid,
			}))
		}
		return events, nil
	})
}

// TakeDabb 叫分胜者拿起 Dabb，四张牌亮给全桌
func (s *Session) TakeDabb(ctx context.Context, actor int) ([]event.Event, error) {
	return s.do(ctx, func(st state.GameState, gen *event.Generator) ([]event.Event, error) {
		if st.Phase != state.PhaseDabb {
			return nil, apperrors.ErrWrongPhase
		}
		if actor != st.BidWinner {
			return nil, apperrors.ErrNotYourTurn
		}
		if st.DabbTaken {
			return nil, apperrors.ErrDabbTaken
		}
		return []event.Event{gen.MustNext(event.TypeDabbTaken, event.DabbTakenPayload{
			PlayerIndex: actor,
			Cards:       card.IDs(st.Dabb),
		})}, nil
	})
}

// Discard 拿起 Dabb 后弃回同样数量的牌
func (s *Session) Discard(ctx context.Context, actor int, cards []card.Card) ([]event.Event, error) {
	return s.do(ctx, func(st state.GameState, gen *event.Generator) ([]event.Event, error) {
		if st.Phase != state.PhaseDabb {
			return nil, apperrors.ErrWrongPhase
		}
		if actor != st.BidWinner {
			return nil, apperrors.ErrNotYourTurn
		}
		if !st.DabbTaken {
			return nil, apperrors.ErrWrongPhase
		}
		if len(cards) != card.DabbSize {
			return nil, apperrors.ErrInvalidDiscard
		}
		remaining := append([]card.Card(nil), st.Hands[actor]...)
		for _, c := range cards {
			var ok bool
			if remaining, ok = card.Remove(remaining, c); !ok {
				return nil, apperrors.ErrCardNotInHand
			}
		}
		return []event.Event{gen.MustNext(event.TypeCardsDiscarded, event.CardsDiscardedPayload{
			PlayerIndex: actor,
			Cards:       card.IDs(cards),
		})}, nil
	})
}

// GoOut 弃叫：看过 Dabb 后放弃本轮，直接进入报牌再结算，不打墩
func (s *Session) GoOut(ctx context.Context, actor int, trump card.Suit) ([]event.Event, error) {
	return s.do(ctx, func(st state.GameState, gen *event.Generator) ([]event.Event, error) {
		if st.Phase != state.PhaseDabb || !st.DabbTaken {
			return nil, apperrors.ErrCannotGoOut
		}
		if actor != st.BidWinner {
			return nil, apperrors.ErrNotYourTurn
		}
		return []event.Event{gen.MustNext(event.TypeGoingOut, event.GoingOutPayload{
			PlayerIndex: actor,
			Trump:       trump.String(),
		})}, nil
	})
}

// DeclareTrump 宣布主花色
func (s *Session) DeclareTrump(ctx context.Context, actor int, trump card.Suit) ([]event.Event, error) {
	return s.do(ctx, func(st state.GameState, gen *event.Generator) ([]event.Event, error) {
		if st.Phase != state.PhaseTrump {
			return nil, apperrors.ErrWrongPhase
		}
		if actor != st.BidWinner {
			return nil, apperrors.ErrNotYourTurn
		}
		return []event.Event{gen.MustNext(event.TypeTrumpDeclared, event.TrumpDeclaredPayload{
			PlayerIndex: actor,
			Trump:       trump.String(),
		})}, nil
	})
}

// DeclareMelds 报牌；最后一名玩家报完后结束报牌阶段，
// 弃叫路径随即直接结算
func (s *Session) DeclareMelds(ctx context.Context, actor int, melds []rule.Meld) ([]event.Event, error) {
	return s.do(ctx, func(st state.GameState, gen *event.Generator) ([]event.Event, error) {
		if st.Phase != state.PhaseMelding {
			return nil, apperrors.ErrWrongPhase
		}
		if actor < 0 || actor >= st.PlayerCount {
			return nil, apperrors.ErrNotInSession
		}
		if st.WentOut && actor == st.BidWinner {
			return nil, apperrors.ErrWrongPhase
		}
		if st.MeldDeclared[actor] {
			return nil, apperrors.ErrMeldsDeclared
		}
		if !meldsAreDetectable(melds, st.Hands[actor], st.Trump) {
			return nil, apperrors.ErrInvalidMeld
		}

		events := []event.Event{gen.MustNext(event.TypeMeldsDeclared, event.MeldsDeclaredPayload{
			PlayerIndex: actor,
			Melds:       event.MeldInfosFrom(melds),
			Points:      rule.MeldPoints(melds),
		})}

		after := state.Apply(st, events[0])
		if after.AllMeldsDeclared() {
			complete := gen.MustNext(event.TypeMeldingComplete, nil)
			events = append(events, complete)
			after = state.Apply(after, complete)
			if after.WentOut {
				events = append(events, s.finishRound(after, gen)...)
			}
		}
		return events, nil
	})
}

// PlayCard 出一张牌；一墩出满自动结墩，手牌出完自动结算
func (s *Session) PlayCard(ctx context.Context, actor int, c card.Card) ([]event.Event, error) {
	return s.do(ctx, func(st state.GameState, gen *event.Generator) ([]event.Event, error) {
		if st.Phase != state.PhaseTricks {
			return nil, apperrors.ErrWrongPhase
		}
		if actor != st.CurrentPlayer {
			return nil, apperrors.ErrNotYourTurn
		}
		if !card.Contains(st.Hands[actor], c) {
			return nil, apperrors.ErrCardNotInHand
		}
		if !rule.IsValidPlay(st.Hands[actor], c, st.CurrentTrick, st.Trump) {
			return nil, apperrors.ErrInvalidPlay
		}

		events := []event.Event{gen.MustNext(event.TypeCardPlayed, event.CardPlayedPayload{
			PlayerIndex: actor,
			Card:        c.ID(),
		})}

		after := state.Apply(st, events[0])
		if len(after.CurrentTrick.Cards) == after.PlayerCount {
			winner := rule.TrickWinner(after.CurrentTrick, after.Trump)
			won := gen.MustNext(event.TypeTrickWon, event.TrickWonPayload{
				PlayerIndex: winner,
				Points:      after.CurrentTrick.Points(),
			})
			events = append(events, won)
			after = state.Apply(after, won)

			if after.HandsEmpty() {
				events = append(events, s.finishRound(after, gen)...)
			}
		}
		return events, nil
	})
}

// Terminate 终止会话
func (s *Session) Terminate(ctx context.Context, actor int) ([]event.Event, error) {
	return s.do(ctx, func(st state.GameState, gen *event.Generator) ([]event.Event, error) {
		if st.Phase == state.PhaseFinished {
			return nil, apperrors.ErrWrongPhase
		}
		return []event.Event{gen.MustNext(event.TypeGameTerminated, event.GameTerminatedPayload{
			TerminatedBy: actor,
		})}, nil
	})
}

// meldsAreDetectable 校验报出的组合确实能由手牌在当前主花色下组成：
// 每个报出的组合必须与检测结果中一个尚未占用的组合在类型、花色、
// 牌面和分值上一致，且所有用到的牌都在手中
func meldsAreDetectable(declared []rule.Meld, hand []card.Card, trump card.Suit) bool {
	detected := rule.DetectMelds(hand, trump)
	used := make([]bool, len(detected))

	for _, m := range declared {
		for _, c := range m.Cards {
			if !card.Contains(hand, c) {
				return false
			}
		}
		matched := false
		for i, d := range detected {
			if used[i] {
				continue
			}
			if d.Type == m.Type && d.Suit == m.Suit && d.Rank == m.Rank && d.Points == m.Points && len(d.Cards) == len(m.Cards) {
				used[i] = true
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}
