package game

import (
	"context"

	"github.com/deglerj/dabb-sub000/internal/apperrors"
	"github.com/deglerj/dabb-sub000/internal/game/ai"
	"github.com/deglerj/dabb-sub000/internal/game/event"
)

// ApplyAction 把决策引擎产出的动作转成会话指令执行
// 调度器（在线对局）和模拟器走同一条路径
func ApplyAction(ctx context.Context, sess *Session, actor int, action ai.Action) ([]event.Event, error) {
	switch action.Type {
	case ai.ActionBid:
		return sess.Bid(ctx, actor, action.Amount)
	case ai.ActionPass:
		return sess.Pass(ctx, actor)
	case ai.ActionTakeDabb:
		return sess.TakeDabb(ctx, actor)
	case ai.ActionDiscard:
		return sess.Discard(ctx, actor, action.Cards)
	case ai.ActionDeclareTrump:
		return sess.DeclareTrump(ctx, actor, action.Suit)
	case ai.ActionDeclareMelds:
		return sess.DeclareMelds(ctx, actor, action.Melds)
	case ai.ActionPlayCard:
		if len(action.Cards) == 0 {
			return nil, apperrors.ErrInvalidPlay
		}
		return sess.PlayCard(ctx, actor, action.Cards[0])
	default:
		return nil, apperrors.ErrWrongPhase
	}
}
