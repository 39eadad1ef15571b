package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/deglerj/dabb-sub000/internal/game/sim"
)

func main() {
	playerCount := flag.Int("players", 4, "每局人数（2/3/4）")
	targetScore := flag.Int("target", 1000, "胜利目标分")
	seed := flag.Uint64("seed", 0, "随机种子，0 表示随机")
	count := flag.Int("count", 1, "模拟局数")
	timeout := flag.Duration("timeout", 30*time.Second, "单局时限")
	flag.Parse()

	wins := make(map[int]int)
	for i := range *count {
		cfg := sim.Config{
			PlayerCount: *playerCount,
			TargetScore: *targetScore,
			Seed:        *seed,
			Timeout:     *timeout,
		}
		if *seed != 0 {
			cfg.Seed = *seed + uint64(i)
		}

		result := sim.Run(cfg)
		if result.Err != nil {
			log.Fatalf("第 %d 局模拟失败: %v", i+1, result.Err)
		}
		wins[result.Winner]++

		fmt.Printf("局 %d: 胜者 %d 号 | 轮数 %d | 动作 %d | 事件 %d | 用时 %s | 终分 %v\n",
			i+1, result.Winner, result.Rounds, result.Actions, len(result.Events),
			result.Duration.Round(time.Millisecond), result.Scores)
	}

	if *count > 1 {
		fmt.Println("---")
		for seat, n := range wins {
			fmt.Printf("座位 %d: %d 胜 (%.1f%%)\n", seat, n, float64(n)/float64(*count)*100)
		}
	}
}
