// Package game 实现会话编排器：校验玩家指令、生成并持久化事件、
// 维护可失效的内存状态缓存，以及驱动自动玩家的回合调度器。
package game

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"

	"github.com/deglerj/dabb-sub000/internal/apperrors"
	"github.com/deglerj/dabb-sub000/internal/game/card"
	"github.com/deglerj/dabb-sub000/internal/game/event"
	"github.com/deglerj/dabb-sub000/internal/game/state"
)

// EventStore 持久化事件日志，外部协作者
// 一条指令的所有事件在一次 Append 里落盘，不出现半截写入；
// 序号由生成器盖章
type EventStore interface {
	Append(ctx context.Context, events ...event.Event) error
	Events(ctx context.Context, sessionID string) ([]event.Event, error)
}

// Session 一个游戏会话
// 指令相互串行：校验-生成-追加-折叠在同一把锁里完成，
// 一条指令要么完整成功要么在生成任何事件之前被拒绝
type Session struct {
	ID          string
	PlayerCount int
	TargetScore int

	store EventStore
	rng   *rand.Rand

	// notify 在指令成功后（锁外）回调，服务端用它广播并驱动调度器
	notify func(events []event.Event)

	mu     sync.Mutex
	st     state.GameState
	gen    *event.Generator
	loaded bool

	// 通知按折叠顺序排队投递，同一时刻只有一个投递者，
	// 保证观察者收到的批次顺序与事件序号一致
	notifyQueue [][]event.Event
	draining    bool
}

// NewSession 创建会话；状态在首次访问时从事件日志惰性重建
func NewSession(id string, playerCount, targetScore int, store EventStore) *Session {
	return &Session{
		ID:          id,
		PlayerCount: playerCount,
		TargetScore: targetScore,
		store:       store,
		rng:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// SetNotify 设置事件回调，必须在会话开始处理指令前调用
func (s *Session) SetNotify(fn func(events []event.Event)) {
	s.notify = fn
}

// SetRand 替换随机源（模拟器需要可复现的发牌）
func (s *Session) SetRand(rng *rand.Rand) {
	s.rng = rng
}

// ensureLoaded 惰性回放事件日志重建状态缓存，调用方持锁
func (s *Session) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	events, err := s.store.Events(ctx, s.ID)
	if err != nil {
		return fmt.Errorf("读取会话 %s 事件日志失败: %w", s.ID, err)
	}
	s.st = state.Reduce(events)
	var lastSeq uint64
	if len(events) > 0 {
		lastSeq = events[len(events)-1].Sequence
	}
	s.gen = event.NewGenerator(s.ID, lastSeq)
	s.loaded = true
	return nil
}

// do 指令执行的统一路径：加载缓存 → 校验并生成事件 → 持久化 → 折叠 → 通知
// fn 只做校验和事件生成，不得有副作用；整批事件一次落盘，
// 持久化失败时缓存作废，下次访问从日志重建（日志是唯一事实来源）
func (s *Session) do(ctx context.Context, fn func(st state.GameState, gen *event.Generator) ([]event.Event, error)) ([]event.Event, error) {
	s.mu.Lock()
	if err := s.ensureLoaded(ctx); err != nil {
		s.mu.Unlock()
		log.Printf("❌ 会话 %s 加载失败: %v", s.ID, err)
		return nil, apperrors.ErrInternal
	}

	events, err := fn(s.st, s.gen)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	if appendErr := s.store.Append(ctx, events...); appendErr != nil {
		s.loaded = false
		s.mu.Unlock()
		log.Printf("❌ 会话 %s 追加事件失败: %v", s.ID, appendErr)
		return nil, apperrors.ErrInternal
	}
	for _, evt := range events {
		s.st = state.Apply(s.st, evt)
	}

	// 批次在锁内入队、锁外投递：后折叠的指令即使先抢到通知
	// 也只能排在队尾，观察者不会看到乱序的批次
	drain := false
	if s.notify != nil && len(events) > 0 {
		s.notifyQueue = append(s.notifyQueue, events)
		if !s.draining {
			s.draining = true
			drain = true
		}
	}
	s.mu.Unlock()

	if drain {
		s.drainNotify()
	}
	return events, nil
}

// drainNotify 按入队顺序逐批投递通知
// 投递期间不持锁，回调里可以安全地读状态或发起新指令
func (s *Session) drainNotify() {
	for {
		s.mu.Lock()
		if len(s.notifyQueue) == 0 {
			s.draining = false
			s.mu.Unlock()
			return
		}
		batch := s.notifyQueue[0]
		s.notifyQueue = s.notifyQueue[1:]
		s.mu.Unlock()

		s.notify(batch)
	}
}

// CurrentState 返回当前状态的快照
func (s *Session) CurrentState(ctx context.Context) (state.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return state.GameState{}, err
	}
	return s.st, nil
}

// EventsSince 返回指定序号之后的事件（sync 指令用）
func (s *Session) EventsSince(ctx context.Context, afterSeq uint64) ([]event.Event, error) {
	all, err := s.store.Events(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	out := make([]event.Event, 0, len(all))
	for _, evt := range all {
		if evt.Sequence > afterSeq {
			out = append(out, evt)
		}
	}
	return out, nil
}

// Invalidate 作废状态缓存，下次访问从日志重建
func (s *Session) Invalidate() {
	s.mu.Lock()
	s.loaded = false
	s.mu.Unlock()
}

// deal 洗牌发牌，生成 CARDS_DEALT 事件
// 庄家取自折叠后状态（GAME_STARTED/NEW_ROUND_STARTED 先行）
func (s *Session) deal(gen *event.Generator, playerCount int) event.Event {
	deck := card.NewDeck()
	deck.ShuffleWith(s.rng)
	hands, dabb := card.Deal(deck, playerCount)

	handIDs := make([][]string, len(hands))
	for i, h := range hands {
		handIDs[i] = card.IDs(h)
	}
	return gen.MustNext(event.TypeCardsDealt, event.CardsDealtPayload{
		Hands: handIDs,
		Dabb:  card.IDs(dabb),
	})
}

func newBotPlayer(index int) event.PlayerInfo {
	return event.PlayerInfo{
		ID:       uuid.New().String(),
		Nickname: fmt.Sprintf("Bot %d", index+1),
		Index:    index,
		IsAI:     true,
	}
}
