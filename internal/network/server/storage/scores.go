package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key
	playerStatsKeyPrefix = "binokel:player:stats:"
	leaderboardKey       = "binokel:leaderboard:wins"
)

// PlayerStats 玩家战绩
type PlayerStats struct {
	PlayerID string `json:"player_id"`
	Nickname string `json:"nickname"`

	TotalGames int `json:"total_games"` // 总场次
	Wins       int `json:"wins"`        // 胜场

	TotalPoints int `json:"total_points"` // 累计终局总分
	BestGame    int `json:"best_game"`    // 单局最高总分

	LastPlayedAt int64 `json:"last_played_at"` // 最后游戏时间
	CreatedAt    int64 `json:"created_at"`     // 首次游戏时间
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank     int     `json:"rank"`
	PlayerID string  `json:"player_id"`
	Nickname string  `json:"nickname"`
	Wins     int     `json:"wins"`
	WinRate  float64 `json:"win_rate"`
}

// ScoreStore 战绩与排行榜存储
type ScoreStore struct {
	client *redis.Client
}

// NewScoreStore 创建战绩存储
func NewScoreStore(client *redis.Client) *ScoreStore {
	return &ScoreStore{client: client}
}

// GetPlayerStats 获取玩家战绩，没有记录时返回 nil
func (ss *ScoreStore) GetPlayerStats(ctx context.Context, playerID string) (*PlayerStats, error) {
	key := playerStatsKeyPrefix + playerID
	data, err := ss.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var stats PlayerStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("反序列化战绩失败: %w", err)
	}
	return &stats, nil
}

// SavePlayerStats 保存玩家战绩
func (ss *ScoreStore) SavePlayerStats(ctx context.Context, stats *PlayerStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	key := playerStatsKeyPrefix + stats.PlayerID
	return ss.client.Set(ctx, key, data, 0).Err()
}

// getOrCreateStats 获取或创建玩家战绩
func (ss *ScoreStore) getOrCreateStats(ctx context.Context, playerID, nickname string) (*PlayerStats, error) {
	stats, err := ss.GetPlayerStats(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = &PlayerStats{
			PlayerID:  playerID,
			Nickname:  nickname,
			CreatedAt: time.Now().Unix(),
		}
	}
	return stats, nil
}

// RecordGameResult 记录一局结果并更新排行榜
// points 是该玩家的终局总分（可能为负，不计入最高分时跳过）
func (ss *ScoreStore) RecordGameResult(ctx context.Context, playerID, nickname string, won bool, points int) error {
	stats, err := ss.getOrCreateStats(ctx, playerID, nickname)
	if err != nil {
		return err
	}

	stats.Nickname = nickname
	stats.TotalGames++
	stats.TotalPoints += points
	stats.LastPlayedAt = time.Now().Unix()
	if won {
		stats.Wins++
	}
	if points > stats.BestGame {
		stats.BestGame = points
	}

	if err := ss.SavePlayerStats(ctx, stats); err != nil {
		return err
	}

	// 排行榜按胜场排序
	return ss.client.ZAdd(ctx, leaderboardKey, redis.Z{
		Score:  float64(stats.Wins),
		Member: stats.PlayerID,
	}).Err()
}

// GetLeaderboard 获取排行榜（胜场从高到低）
func (ss *ScoreStore) GetLeaderboard(ctx context.Context, limit int) ([]*LeaderboardEntry, error) {
	results, err := ss.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]*LeaderboardEntry, 0, len(results))
	for i, result := range results {
		playerID, ok := result.Member.(string)
		if !ok {
			continue
		}

		stats, err := ss.GetPlayerStats(ctx, playerID)
		if err != nil || stats == nil {
			continue
		}

		winRate := 0.0
		if stats.TotalGames > 0 {
			winRate = float64(stats.Wins) / float64(stats.TotalGames) * 100
		}

		entries = append(entries, &LeaderboardEntry{
			Rank:     i + 1,
			PlayerID: playerID,
			Nickname: stats.Nickname,
			Wins:     int(result.Score),
			WinRate:  winRate,
		})
	}
	return entries, nil
}

// GetPlayerRank 获取玩家排名（从 1 开始，未上榜返回 -1）
func (ss *ScoreStore) GetPlayerRank(ctx context.Context, playerID string) (int64, error) {
	rank, err := ss.client.ZRevRank(ctx, leaderboardKey, playerID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return -1, nil
		}
		return -1, err
	}
	return rank + 1, nil
}
