package game

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/deglerj/dabb-sub000/internal/game/ai"
	"github.com/deglerj/dabb-sub000/internal/game/event"
	"github.com/deglerj/dabb-sub000/internal/game/state"
)

// Scheduler 自动玩家的回合调度器
//
// 每次广播后检查下一个行动者：轮到自动玩家时按 (会话, 玩家, 阶段)
// 去重，延迟一小段随机时间后通过与人类相同的指令路径执行决策。
// 执行产生的广播会再次触发检查，一直链到人类玩家或终局为止
type Scheduler struct {
	engine *ai.Engine

	minDelay   time.Duration
	maxDelay   time.Duration
	trickPause time.Duration

	mu      sync.Mutex
	pending map[string]struct{}
	rng     *rand.Rand
}

// NewScheduler 创建调度器；延迟全为零时适合测试和压测
func NewScheduler(engine *ai.Engine, minDelay, maxDelay, trickPause time.Duration) *Scheduler {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Scheduler{
		engine:     engine,
		minDelay:   minDelay,
		maxDelay:   maxDelay,
		trickPause: trickPause,
		pending:    make(map[string]struct{}),
		rng:        rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// CheckTurn 检查会话的下一个行动者，必要时调度一次自动行动
// lastBatch 用于判断刚结了一墩（结墩后多停一会儿让牌桌展示）
func (sc *Scheduler) CheckTurn(sess *Session, lastBatch []event.Event) {
	st, err := sess.CurrentState(context.Background())
	if err != nil {
		log.Printf("❌ 调度器读取会话 %s 状态失败: %v", sess.ID, err)
		return
	}

	actor := st.NextActor()
	if actor < 0 || actor >= len(st.Players) || !st.Players[actor].IsAI {
		return
	}

	key := fmt.Sprintf("%s:%d:%s", sess.ID, actor, st.Phase)
	sc.mu.Lock()
	if _, exists := sc.pending[key]; exists {
		sc.mu.Unlock()
		return
	}
	sc.pending[key] = struct{}{}
	delay := sc.delay(lastBatch)
	sc.mu.Unlock()

	time.AfterFunc(delay, func() {
		// 先清除标记再执行：执行触发的广播要能调度同一玩家的下一步
		sc.mu.Lock()
		delete(sc.pending, key)
		sc.mu.Unlock()
		sc.execute(sess, actor, st.Phase)
	})
}

// delay 随机化的行动延迟，刚结墩时加上展示停顿
func (sc *Scheduler) delay(lastBatch []event.Event) time.Duration {
	d := sc.minDelay
	if spread := sc.maxDelay - sc.minDelay; spread > 0 {
		d += time.Duration(sc.rng.Int64N(int64(spread)))
	}
	for _, evt := range lastBatch {
		if evt.Type == event.TypeTrickWon {
			d += sc.trickPause
			break
		}
	}
	return d
}

// execute 执行一次自动决策
// 决策引擎自带兜底，这里的失败只可能是状态在延迟期间已经变化
// （例如玩家重连后会话被终止），记日志后放弃即可
func (sc *Scheduler) execute(sess *Session, actor int, scheduledPhase state.Phase) {
	ctx := context.Background()
	st, err := sess.CurrentState(ctx)
	if err != nil {
		log.Printf("❌ 调度器读取会话 %s 状态失败: %v", sess.ID, err)
		return
	}
	// 延迟期间局面变了就放弃这次行动，新局面会重新触发检查
	if st.Phase != scheduledPhase || st.NextActor() != actor {
		return
	}

	action := sc.engine.Decide(st, actor)
	if action.Type == ai.ActionNone {
		return
	}
	if _, err := ApplyAction(ctx, sess, actor, action); err != nil {
		log.Printf("⚠️ 会话 %s 自动玩家 %d 动作 %s 被拒: %v", sess.ID, actor, action.Type, err)
	}
}
