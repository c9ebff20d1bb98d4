package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"lifeband-data/internal/domain"
)

// ErrCacheMiss 表示缓存不存在
var ErrCacheMiss = errors.New("cache miss")

// latestKeyPrefix 最新样本缓存键格式：lifeband:user:{userID}:latest
const (
	latestKeyPrefix = "lifeband:user:"
	latestKeySuffix = ":latest"
)

// LatestCache 最新遥测样本缓存
// TTL 与遥测保留时长一致，缓存不会比数据库中的记录活得更久
type LatestCache struct {
	redisClient *redis.Client
	ttl         time.Duration
	logger      *zap.Logger
}

// NewLatestCache 创建最新样本缓存
func NewLatestCache(redisClient *redis.Client, ttl time.Duration, logger *zap.Logger) *LatestCache {
	return &LatestCache{
		redisClient: redisClient,
		ttl:         ttl,
		logger:      logger,
	}
}

// latestKey 生成缓存键
func (c *LatestCache) latestKey(userID string) string {
	return latestKeyPrefix + userID + latestKeySuffix
}

// SetLatest 写入用户最新样本
func (c *LatestCache) SetLatest(ctx context.Context, userID string, sample *domain.TelemetrySample) error {
	data, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("failed to marshal telemetry sample: %w", err)
	}

	if err := c.redisClient.Set(ctx, c.latestKey(userID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set latest sample cache: %w", err)
	}

	return nil
}

// GetLatest 读取用户最新样本，不存在时返回 ErrCacheMiss
func (c *LatestCache) GetLatest(ctx context.Context, userID string) (*domain.TelemetrySample, error) {
	data, err := c.redisClient.Get(ctx, c.latestKey(userID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get latest sample cache: %w", err)
	}

	var sample domain.TelemetrySample
	if err := json.Unmarshal([]byte(data), &sample); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached sample: %w", err)
	}

	return &sample, nil
}
