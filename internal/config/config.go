// Package config 从 YAML 文件加载服务端配置。
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 服务端配置
type Config struct {
	Server ServerConfig `yaml:"server"`
	Redis  RedisConfig  `yaml:"redis"`
	Game   GameConfig   `yaml:"game"`
}

// ServerConfig WebSocket 服务器配置
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxConnections int    `yaml:"max_connections"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GameConfig 游戏配置
type GameConfig struct {
	TargetScore     int `yaml:"target_score"`      // 胜利目标分
	PlayerCount     int `yaml:"player_count"`      // 默认每局人数
	AIMinDelay      int `yaml:"ai_min_delay"`      // 自动玩家最小行动延迟（毫秒）
	AIMaxDelay      int `yaml:"ai_max_delay"`      // 自动玩家最大行动延迟（毫秒）
	TrickPause      int `yaml:"trick_pause"`       // 结墩后的展示停顿（毫秒）
	ShutdownTimeout int `yaml:"shutdown_timeout"`  // 优雅关闭等待时长（秒）
}

// AIMinDelayDuration 返回自动玩家最小行动延迟
func (c *GameConfig) AIMinDelayDuration() time.Duration {
	return time.Duration(c.AIMinDelay) * time.Millisecond
}

// AIMaxDelayDuration 返回自动玩家最大行动延迟
func (c *GameConfig) AIMaxDelayDuration() time.Duration {
	return time.Duration(c.AIMaxDelay) * time.Millisecond
}

// TrickPauseDuration 返回结墩停顿时长
func (c *GameConfig) TrickPauseDuration() time.Duration {
	return time.Duration(c.TrickPause) * time.Millisecond
}

// ShutdownTimeoutDuration 返回优雅关闭等待时长
func (c *GameConfig) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Second
}

// Load 加载配置文件并补齐默认值
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 1809
	}
	if cfg.Server.MaxConnections == 0 {
		cfg.Server.MaxConnections = 1000
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Game.TargetScore == 0 {
		cfg.Game.TargetScore = 1000
	}
	if cfg.Game.PlayerCount == 0 {
		cfg.Game.PlayerCount = 4
	}
	if cfg.Game.AIMinDelay == 0 {
		cfg.Game.AIMinDelay = 500
	}
	if cfg.Game.AIMaxDelay == 0 {
		cfg.Game.AIMaxDelay = 1500
	}
	if cfg.Game.TrickPause == 0 {
		cfg.Game.TrickPause = 1200
	}
	if cfg.Game.ShutdownTimeout == 0 {
		cfg.Game.ShutdownTimeout = 300
	}
}

// Default 返回默认配置
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}
