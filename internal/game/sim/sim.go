// Package sim 实现无头模拟：把规则、归约器和决策引擎接在一起，
// 不经过网络和持久化，驱动一整局自动对战。用来验证规则与
// 决策引擎的正确性和平衡性，必须在有限步数和时限内终止。
package sim

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/deglerj/dabb-sub000/internal/game/ai"
	"github.com/deglerj/dabb-sub000/internal/game/event"
	"github.com/deglerj/dabb-sub000/internal/game/state"
	servergame "github.com/deglerj/dabb-sub000/internal/network/server/game"
)

// Config 模拟参数
type Config struct {
	PlayerCount int           // 2/3/4
	TargetScore int           // 默认 1000
	Seed        uint64        // 0 表示随机种子
	MaxActions  int           // 动作数上限，默认 10000
	Timeout     time.Duration // 墙钟时限，默认 30s
}

// Result 一次模拟的结构化结果
type Result struct {
	Events   []event.Event
	Rounds   int
	Winner   int
	Scores   []int
	Actions  int
	Duration time.Duration
	Err      error
}

func (c *Config) defaults() {
	if c.PlayerCount == 0 {
		c.PlayerCount = 4
	}
	if c.TargetScore == 0 {
		c.TargetScore = 1000
	}
	if c.MaxActions == 0 {
		c.MaxActions = 10000
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Seed == 0 {
		c.Seed = rand.Uint64()
	}
}

// Run 驱动一整局自动对战到终局，或在步数/时限耗尽时带错误返回
// 任何引擎 panic 都被转成结果中的错误，模拟永不崩溃
func Run(cfg Config) (result Result) {
	cfg.defaults()
	start := time.Now()

	defer func() {
		result.Duration = time.Since(start)
		if r := recover(); r != nil {
			result.Err = fmt.Errorf("模拟崩溃: %v", r)
		}
	}()

	store := servergame.NewMemoryStore()
	sess := servergame.NewSession(fmt.Sprintf("sim-%d", cfg.Seed), cfg.PlayerCount, cfg.TargetScore, store)
	sess.SetRand(rand.New(rand.NewPCG(cfg.Seed, cfg.Seed<<1|1)))
	engine := ai.NewWithSeed(cfg.Seed)

	ctx := context.Background()
	deadline := start.Add(cfg.Timeout)

	if _, err := sess.Start(ctx, true); err != nil {
		return finish(ctx, store, sess, result, err)
	}
	result.Actions++

	for result.Actions < cfg.MaxActions {
		if time.Now().After(deadline) {
			return finish(ctx, store, sess, result, fmt.Errorf("模拟超时（%s）", cfg.Timeout))
		}

		st, err := sess.CurrentState(ctx)
		if err != nil {
			return finish(ctx, store, sess, result, err)
		}
		if st.Phase == state.PhaseFinished {
			return finish(ctx, store, sess, result, nil)
		}

		actor := st.NextActor()
		if actor < 0 {
			return finish(ctx, store, sess, result, fmt.Errorf("阶段 %s 没有可行动的玩家", st.Phase))
		}

		action := engine.Decide(st, actor)
		if _, err := servergame.ApplyAction(ctx, sess, actor, action); err != nil {
			return finish(ctx, store, sess, result, fmt.Errorf("玩家 %d 在 %s 阶段的动作 %s 被拒: %w", actor, st.Phase, action.Type, err))
		}
		result.Actions++
	}

	return finish(ctx, store, sess, result, fmt.Errorf("达到动作数上限 %d", cfg.MaxActions))
}

// finish 收集事件日志与终态，填充结果
func finish(ctx context.Context, store *servergame.MemoryStore, sess *servergame.Session, result Result, runErr error) Result {
	result.Err = runErr
	result.Winner = -1

	if events, err := store.Events(ctx, sess.ID); err == nil {
		result.Events = events
	}

	st, err := sess.CurrentState(ctx)
	if err != nil {
		if result.Err == nil {
			result.Err = err
		}
		return result
	}
	result.Rounds = st.Round
	result.Winner = st.Winner
	result.Scores = append([]int(nil), st.TotalScores...)
	return result
}
