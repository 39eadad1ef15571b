package server

import (
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deglerj/dabb-sub000/internal/config"
	"github.com/deglerj/dabb-sub000/internal/game/event"
	"github.com/deglerj/dabb-sub000/internal/network/protocol"
)

// newTestServer 起一个挂在 miniredis 上的服务器，不监听端口
func newTestServer(t *testing.T) *Server {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := config.Default()
	cfg.Redis.Addr = mr.Addr()
	// 测试里自动玩家立即行动
	cfg.Game.AIMinDelay = 1
	cfg.Game.AIMaxDelay = 1
	cfg.Game.TrickPause = 1

	s, err := NewServer(cfg)
	require.NoError(t, err)
	return s
}

// newTestClient 构造一个不带真实连接的客户端，消息落在 send 缓冲里
func newTestClient(s *Server) *Client {
	c := &Client{
		ID:          uuid.New().String(),
		Nickname:    GenerateNickname(),
		server:      s,
		send:        make(chan []byte, 64),
		playerIndex: -1,
	}
	s.registerClient(c)
	return c
}

// nextMessage 取客户端收到的下一条消息
func nextMessage(t *testing.T, c *Client) *protocol.Message {
	t.Helper()
	select {
	case data := <-c.send:
		msg, err := protocol.Decode(data)
		require.NoError(t, err)
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("等待消息超时")
		return nil
	}
}

func join(t *testing.T, s *Server, c *Client, sessionID string, playerCount int) {
	t.Helper()
	s.handler.Handle(c, protocol.MustNewMessage(protocol.TypeJoin, protocol.JoinPayload{
		SessionID:   sessionID,
		Nickname:    c.Nickname,
		PlayerCount: playerCount,
	}))
}

func TestHandleJoin_SendsFilteredState(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	c := newTestClient(s)

	join(t, s, c, "join-1", 2)

	msg := nextMessage(t, c)
	require.Equal(t, protocol.TypeGameState, msg.Type)

	payload, err := protocol.ParsePayload[protocol.GameStatePayload](msg)
	require.NoError(t, err)
	assert.Equal(t, "join-1", payload.SessionID)
	assert.Equal(t, c.ID, payload.PlayerID)
	assert.Equal(t, 0, payload.PlayerIndex)
	require.Len(t, payload.Events, 1)
	assert.Equal(t, event.TypePlayerJoined, payload.Events[0].Type)
}

func TestHandleJoin_RejectsBadPlayerCount(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	c := newTestClient(s)

	join(t, s, c, "join-bad", 7)

	msg := nextMessage(t, c)
	require.Equal(t, protocol.TypeError, msg.Type)
	payload, err := protocol.ParsePayload[protocol.ErrorPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, protocol.ErrCodeInvalidMessage, payload.Code)
}

func TestHandleStart_DealsHiddenCardsToOpponents(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	alice := newTestClient(s)
	bob := newTestClient(s)

	join(t, s, alice, "deal-1", 2)
	nextMessage(t, alice) // 自己的 game:state
	join(t, s, bob, "deal-1", 2)
	nextMessage(t, bob)   // 自己的 game:state
	nextMessage(t, alice) // Bob 加入的广播

	s.handler.Handle(alice, protocol.MustNewMessage(protocol.TypeStart, protocol.StartPayload{}))

	msg := nextMessage(t, alice)
	require.Equal(t, protocol.TypeGameEvents, msg.Type)
	payload, err := protocol.ParsePayload[protocol.GameEventsPayload](msg)
	require.NoError(t, err)
	require.Len(t, payload.Events, 2)
	assert.Equal(t, event.TypeGameStarted, payload.Events[0].Type)
	require.Equal(t, event.TypeCardsDealt, payload.Events[1].Type)

	dealt, err := event.ParsePayload[event.CardsDealtPayload](payload.Events[1])
	require.NoError(t, err)
	// 自己的手牌可见，对手和 Dabb 全是隐藏占位
	for _, id := range dealt.Hands[0] {
		assert.False(t, strings.HasPrefix(id, "hidden-"))
	}
	for _, id := range dealt.Hands[1] {
		assert.True(t, strings.HasPrefix(id, "hidden-"))
	}
	for _, id := range dealt.Dabb {
		assert.True(t, strings.HasPrefix(id, "hidden-"))
	}
}

func TestHandleBid_WrongTurnRejected(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	alice := newTestClient(s)
	bob := newTestClient(s)

	join(t, s, alice, "bid-1", 2)
	join(t, s, bob, "bid-1", 2)
	s.handler.Handle(alice, protocol.MustNewMessage(protocol.TypeStart, protocol.StartPayload{}))

	// 庄家是 0 号，首叫是 1 号；0 号先叫必须被拒
	s.handler.Handle(alice, protocol.MustNewMessage(protocol.TypeBid, protocol.BidPayload{Amount: 150}))

	var errPayload *protocol.ErrorPayload
	for range 8 {
		msg := nextMessage(t, alice)
		if msg.Type == protocol.TypeError {
			p, err := protocol.ParsePayload[protocol.ErrorPayload](msg)
			require.NoError(t, err)
			errPayload = p
			break
		}
	}
	require.NotNil(t, errPayload)
	assert.Equal(t, protocol.ErrCodeNotYourTurn, errPayload.Code)
}

func TestHandleBid_AdvancesBidding(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	alice := newTestClient(s)
	bob := newTestClient(s)

	join(t, s, alice, "bid-2", 2)
	join(t, s, bob, "bid-2", 2)
	s.handler.Handle(alice, protocol.MustNewMessage(protocol.TypeStart, protocol.StartPayload{}))
	s.handler.Handle(bob, protocol.MustNewMessage(protocol.TypeBid, protocol.BidPayload{Amount: 150}))

	sess, err := s.registry.Get("bid-2")
	require.NoError(t, err)
	st, err := sess.CurrentState(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 150, st.CurrentBid)
	assert.Equal(t, 0, st.CurrentBidder)
}

func TestHandleSync_ReturnsEventsAfterSequence(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	alice := newTestClient(s)
	bob := newTestClient(s)

	join(t, s, alice, "sync-1", 2)
	join(t, s, bob, "sync-1", 2)
	s.handler.Handle(alice, protocol.MustNewMessage(protocol.TypeStart, protocol.StartPayload{}))

	// 清空已收到的广播
	for len(alice.send) > 0 {
		<-alice.send
	}

	s.handler.Handle(alice, protocol.MustNewMessage(protocol.TypeSync, protocol.SyncPayload{LastEventSequence: 2}))

	msg := nextMessage(t, alice)
	require.Equal(t, protocol.TypeGameEvents, msg.Type)
	payload, err := protocol.ParsePayload[protocol.GameEventsPayload](msg)
	require.NoError(t, err)
	require.NotEmpty(t, payload.Events)
	for _, evt := range payload.Events {
		assert.Greater(t, evt.Sequence, uint64(2))
	}
}

func TestHandleUnknownMessage(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	c := newTestClient(s)

	s.handler.Handle(c, &protocol.Message{Type: "nonsense"})

	msg := nextMessage(t, c)
	require.Equal(t, protocol.TypeError, msg.Type)
	payload, err := protocol.ParsePayload[protocol.ErrorPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, protocol.ErrCodeInvalidMessage, payload.Code)
}

func TestReconnect_RestoresSeat(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	alice := newTestClient(s)

	join(t, s, alice, "rc-1", 2)
	nextMessage(t, alice)
	oldID := alice.ID

	// 掉线后换一条连接，凭旧 ID 重连
	alice.handleDisconnect()
	fresh := newTestClient(s)
	s.handler.Handle(fresh, protocol.MustNewMessage(protocol.TypeJoin, protocol.JoinPayload{
		SessionID: "rc-1",
		PlayerID:  oldID,
	}))

	msg := nextMessage(t, fresh)
	require.Equal(t, protocol.TypeGameState, msg.Type)
	payload, err := protocol.ParsePayload[protocol.GameStatePayload](msg)
	require.NoError(t, err)
	assert.Equal(t, oldID, payload.PlayerID)
	assert.Equal(t, 0, payload.PlayerIndex)
	assert.Equal(t, oldID, fresh.ID)
}

// 等待阶段退出只标记离线，座位和会话保留
func TestHandleExit_BeforeStartKeepsSession(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	alice := newTestClient(s)
	bob := newTestClient(s)

	join(t, s, alice, "exit-wait", 2)
	join(t, s, bob, "exit-wait", 2)

	s.handler.Handle(bob, protocol.MustNewMessage(protocol.TypeExit, nil))

	sessionID, index := bob.Seat()
	assert.Equal(t, "", sessionID)
	assert.Equal(t, -1, index)

	sess, err := s.registry.Get("exit-wait")
	require.NoError(t, err)
	st, err := sess.CurrentState(t.Context())
	require.NoError(t, err)
	assert.False(t, st.Players[1].Connected)
}

// 对局进行中退出终止整桌：剩下的玩家收到 session:terminated，会话收尾移除
func TestHandleExit_DuringGameTerminatesSession(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	alice := newTestClient(s)
	bob := newTestClient(s)

	join(t, s, alice, "term-1", 2)
	join(t, s, bob, "term-1", 2)
	s.handler.Handle(alice, protocol.MustNewMessage(protocol.TypeStart, protocol.StartPayload{}))

	s.handler.Handle(bob, protocol.MustNewMessage(protocol.TypeExit, nil))

	var term *protocol.SessionTerminatedPayload
	for range 10 {
		msg := nextMessage(t, alice)
		if msg.Type == protocol.TypeSessionTerminated {
			p, err := protocol.ParsePayload[protocol.SessionTerminatedPayload](msg)
			require.NoError(t, err)
			term = p
			break
		}
	}
	require.NotNil(t, term)
	assert.Equal(t, 1, term.TerminatedBy)

	// 会话已收尾移除
	_, err := s.registry.Get("term-1")
	assert.Error(t, err)
}

func TestGameFinished_RecordsScores(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	c := newTestClient(s)

	join(t, s, c, "fin-1", 2)

	sess, err := s.registry.Get("fin-1")
	require.NoError(t, err)

	// 人为构造终局事件批，走广播收尾路径
	st, err := sess.CurrentState(t.Context())
	require.NoError(t, err)
	require.Len(t, st.Players, 1)

	gen := event.NewGenerator("fin-1", 10)
	s.broadcastEvents(sess, []event.Event{
		gen.MustNext(event.TypeGameFinished, event.GameFinishedPayload{
			WinnerIndex: 0,
			TotalScores: []int{1050, 400},
		}),
	})

	stats, err := s.scores.GetPlayerStats(t.Context(), c.ID)
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 1050, stats.TotalPoints)

	// 会话从注册表移除
	_, err = s.registry.Get("fin-1")
	assert.Error(t, err)
}
