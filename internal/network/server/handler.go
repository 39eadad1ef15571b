package server

import (
	"context"
	"errors"
	"log"

	"github.com/deglerj/dabb-sub000/internal/apperrors"
	"github.com/deglerj/dabb-sub000/internal/game/card"
	"github.com/deglerj/dabb-sub000/internal/game/rule"
	"github.com/deglerj/dabb-sub000/internal/game/state"
	"github.com/deglerj/dabb-sub000/internal/game/view"
	"github.com/deglerj/dabb-sub000/internal/network/protocol"
	"github.com/deglerj/dabb-sub000/internal/network/server/game"
)

// Handler 消息处理器
type Handler struct {
	server *Server
}

// NewHandler 创建处理器
func NewHandler(s *Server) *Handler {
	return &Handler{server: s}
}

// Handle 处理消息
func (h *Handler) Handle(client *Client, msg *protocol.Message) {
	switch msg.Type {
	// 会话操作
	case protocol.TypeJoin:
		h.handleJoin(client, msg)
	case protocol.TypeStart:
		h.handleStart(client, msg)
	case protocol.TypeSync:
		h.handleSync(client, msg)
	case protocol.TypeExit:
		h.handleExit(client)

	// 游戏操作
	case protocol.TypeBid:
		h.handleBid(client, msg)
	case protocol.TypePass:
		h.handlePass(client)
	case protocol.TypeTakeDabb:
		h.handleTakeDabb(client)
	case protocol.TypeDiscard:
		h.handleDiscard(client, msg)
	case protocol.TypeGoOut:
		h.handleGoOut(client, msg)
	case protocol.TypeDeclareTrump:
		h.handleDeclareTrump(client, msg)
	case protocol.TypeDeclareMelds:
		h.handleDeclareMelds(client, msg)
	case protocol.TypePlayCard:
		h.handlePlayCard(client, msg)

	default:
		log.Printf("未知消息类型: %s", msg.Type)
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMessage))
	}
}

// sendError 把错误转成协议错误消息发给客户端
func (h *Handler) sendError(client *Client, err error) {
	var gameErr *apperrors.GameError
	if errors.As(err, &gameErr) {
		client.SendMessage(protocol.NewErrorMessage(gameErr.Code))
		return
	}
	client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInternal))
}

// sessionOf 返回客户端所在的会话和座位
func (h *Handler) sessionOf(client *Client) (*game.Session, int, error) {
	sessionID, index := client.Seat()
	if sessionID == "" || index < 0 {
		return nil, -1, apperrors.ErrNotInSession
	}
	sess, err := h.server.registry.Get(sessionID)
	if err != nil {
		return nil, -1, err
	}
	return sess, index, nil
}

// sendFullState 下发按座位过滤的完整事件史
func (h *Handler) sendFullState(ctx context.Context, client *Client, sess *game.Session, index int) {
	events, err := sess.EventsSince(ctx, 0)
	if err != nil {
		h.sendError(client, err)
		return
	}
	client.SendMessage(protocol.MustNewMessage(protocol.TypeGameState, protocol.GameStatePayload{
		SessionID:   sess.ID,
		PlayerID:    client.ID,
		PlayerIndex: index,
		Events:      view.FilterEvents(events, index),
	}))
}

// handleJoin 加入会话；带 PlayerID 的请求走重连路径
func (h *Handler) handleJoin(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.JoinPayload](msg)
	if err != nil || payload.SessionID == "" {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMessage))
		return
	}

	playerCount := payload.PlayerCount
	if playerCount == 0 {
		playerCount = h.server.config.Game.PlayerCount
	}
	if playerCount < 2 || playerCount > 4 {
		client.SendMessage(protocol.NewErrorMessageWithText(protocol.ErrCodeInvalidMessage, "人数必须是 2、3 或 4"))
		return
	}

	if payload.Nickname != "" {
		client.Nickname = payload.Nickname
	}

	ctx := context.Background()
	sess := h.server.getOrCreateSession(payload.SessionID, playerCount)

	var index int
	if payload.PlayerID != "" {
		// 重连：换绑到旧玩家 ID，座位从事件史恢复
		h.server.rebindClient(client, payload.PlayerID)
		index, err = sess.Reconnect(ctx, payload.PlayerID)
	} else {
		index, err = sess.Join(ctx, client.ID, client.Nickname)
	}
	if err != nil {
		h.sendError(client, err)
		return
	}

	client.SetSeat(sess.ID, index)
	h.sendFullState(ctx, client, sess, index)
	log.Printf("🎴 玩家 %s (%s) 进入会话 %s 座位 %d", client.Nickname, client.ID, sess.ID, index)
}

// handleStart 开始游戏
func (h *Handler) handleStart(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.StartPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMessage))
		return
	}

	sess, _, err := h.sessionOf(client)
	if err != nil {
		h.sendError(client, err)
		return
	}
	if _, err := sess.Start(context.Background(), payload.FillWithAI); err != nil {
		h.sendError(client, err)
	}
}

// handleSync 补发指定序号之后的事件（断线后增量同步）
func (h *Handler) handleSync(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.SyncPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMessage))
		return
	}

	sess, index, err := h.sessionOf(client)
	if err != nil {
		h.sendError(client, err)
		return
	}

	events, err := sess.EventsSince(context.Background(), payload.LastEventSequence)
	if err != nil {
		h.sendError(client, err)
		return
	}
	client.SendMessage(protocol.MustNewMessage(protocol.TypeGameEvents, protocol.GameEventsPayload{
		Events: view.FilterEvents(events, index),
	}))
}

// handleExit 主动退出
// 对局进行中退出会终止整桌（掉线走 markPlayerOffline，座位保留给重连）；
// 等待阶段退出只标记离线
func (h *Handler) handleExit(client *Client) {
	sess, index, err := h.sessionOf(client)
	if err != nil {
		return
	}
	ctx := context.Background()

	st, err := sess.CurrentState(ctx)
	if err != nil {
		log.Printf("⚠️ 读取会话 %s 状态失败: %v", sess.ID, err)
		client.SetSeat("", -1)
		return
	}

	if st.Phase != state.PhaseWaiting && st.Phase != state.PhaseFinished && !st.Terminated {
		if _, err := sess.Terminate(ctx, index); err != nil {
			log.Printf("⚠️ 玩家 %d 终止会话 %s 失败: %v", index, sess.ID, err)
		}
	} else if err := sess.Leave(ctx, index); err != nil {
		log.Printf("⚠️ 玩家 %d 退出会话 %s 失败: %v", index, sess.ID, err)
	}
	client.SetSeat("", -1)
}

// handleBid 叫分
func (h *Handler) handleBid(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.BidPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMessage))
		return
	}

	sess, index, err := h.sessionOf(client)
	if err != nil {
		h.sendError(client, err)
		return
	}
	if _, err := sess.Bid(context.Background(), index, payload.Amount); err != nil {
		h.sendError(client, err)
	}
}

// handlePass 过牌
func (h *Handler) handlePass(client *Client) {
	sess, index, err := h.sessionOf(client)
	if err != nil {
		h.sendError(client, err)
		return
	}
	if _, err := sess.Pass(context.Background(), index); err != nil {
		h.sendError(client, err)
	}
}

// handleTakeDabb 拿起 Dabb
func (h *Handler) handleTakeDabb(client *Client) {
	sess, index, err := h.sessionOf(client)
	if err != nil {
		h.sendError(client, err)
		return
	}
	if _, err := sess.TakeDabb(context.Background(), index); err != nil {
		h.sendError(client, err)
	}
}

// handleDiscard 弃牌
func (h *Handler) handleDiscard(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.DiscardPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMessage))
		return
	}

	cards, err := card.FromIDs(payload.CardIDs)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidDiscard))
		return
	}

	sess, index, err := h.sessionOf(client)
	if err != nil {
		h.sendError(client, err)
		return
	}
	if _, err := sess.Discard(context.Background(), index, cards); err != nil {
		h.sendError(client, err)
	}
}

// handleGoOut 弃叫
func (h *Handler) handleGoOut(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.GoOutPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMessage))
		return
	}

	trump, ok := card.SuitFromName(payload.Suit)
	if !ok {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMessage))
		return
	}

	sess, index, err := h.sessionOf(client)
	if err != nil {
		h.sendError(client, err)
		return
	}
	if _, err := sess.GoOut(context.Background(), index, trump); err != nil {
		h.sendError(client, err)
	}
}

// handleDeclareTrump 宣布主花色
func (h *Handler) handleDeclareTrump(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.DeclareTrumpPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMessage))
		return
	}

	trump, ok := card.SuitFromName(payload.Suit)
	if !ok {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMessage))
		return
	}

	sess, index, err := h.sessionOf(client)
	if err != nil {
		h.sendError(client, err)
		return
	}
	if _, err := sess.DeclareTrump(context.Background(), index, trump); err != nil {
		h.sendError(client, err)
	}
}

// handleDeclareMelds 报牌
func (h *Handler) handleDeclareMelds(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.DeclareMeldsPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMessage))
		return
	}

	melds := make([]rule.Meld, len(payload.Melds))
	for i, info := range payload.Melds {
		melds[i] = info.ToMeld()
	}

	sess, index, err := h.sessionOf(client)
	if err != nil {
		h.sendError(client, err)
		return
	}
	if _, err := sess.DeclareMelds(context.Background(), index, melds); err != nil {
		h.sendError(client, err)
	}
}

// handlePlayCard 出牌
func (h *Handler) handlePlayCard(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.PlayCardPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMessage))
		return
	}

	c, err := card.FromID(payload.CardID)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeCardNotInHand))
		return
	}

	sess, index, err := h.sessionOf(client)
	if err != nil {
		h.sendError(client, err)
		return
	}
	if _, err := sess.PlayCard(context.Background(), index, c); err != nil {
		h.sendError(client, err)
	}
}
