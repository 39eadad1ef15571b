// Package storage 提供基于 Redis 的持久化：
// 事件日志按会话追加到列表，重启后可整段读回并重放；
// 玩家战绩与排行榜使用 JSON 值加有序集合。
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/deglerj/dabb-sub000/internal/game/event"
)

const (
	// Redis key 前缀
	eventLogKeyPrefix = "binokel:events:"

	// 终局后事件日志的保留时间
	finishedLogExpiration = 24 * time.Hour
)

// RedisEventStore 把每个会话的事件日志保存为一个 Redis 列表
// 追加用 RPUSH，读取用 LRANGE，顺序即写入顺序
type RedisEventStore struct {
	client *redis.Client
}

// NewRedisEventStore 创建事件日志存储
func NewRedisEventStore(client *redis.Client) *RedisEventStore {
	return &RedisEventStore{client: client}
}

func eventLogKey(sessionID string) string {
	return eventLogKeyPrefix + sessionID
}

// Append 把一批事件整体追加到会话日志末尾
// 单条 RPUSH 携带全部事件，要么整批落盘要么整批失败
func (s *RedisEventStore) Append(ctx context.Context, events ...event.Event) error {
	if len(events) == 0 {
		return nil
	}
	values := make([]interface{}, len(events))
	for i, evt := range events {
		data, err := evt.Encode()
		if err != nil {
			return fmt.Errorf("序列化事件失败: %w", err)
		}
		values[i] = data
	}
	return s.client.RPush(ctx, eventLogKey(events[0].SessionID), values...).Err()
}

// Events 读回会话的完整事件日志（按追加顺序）
func (s *RedisEventStore) Events(ctx context.Context, sessionID string) ([]event.Event, error) {
	values, err := s.client.LRange(ctx, eventLogKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	events := make([]event.Event, 0, len(values))
	for _, value := range values {
		evt, err := event.Decode([]byte(value))
		if err != nil {
			return nil, fmt.Errorf("反序列化事件失败: %w", err)
		}
		events = append(events, evt)
	}
	return events, nil
}

// ExpireLog 给终局会话的日志设置保留期，到期自动清理
func (s *RedisEventStore) ExpireLog(ctx context.Context, sessionID string) error {
	return s.client.Expire(ctx, eventLogKey(sessionID), finishedLogExpiration).Err()
}

// DeleteLog 立即删除会话日志
func (s *RedisEventStore) DeleteLog(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, eventLogKey(sessionID)).Err()
}

// SessionIDs 列出所有仍有日志的会话号
func (s *RedisEventStore) SessionIDs(ctx context.Context) ([]string, error) {
	keys, err := s.client.Keys(ctx, eventLogKeyPrefix+"*").Result()
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(keys))
	for i, key := range keys {
		ids[i] = key[len(eventLogKeyPrefix):]
	}
	return ids, nil
}
