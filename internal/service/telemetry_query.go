package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"lifeband-data/internal/cache"
	"lifeband-data/internal/domain"
	"lifeband-data/internal/repository"
)

// HistoryRequest 历史查询参数
type HistoryRequest struct {
	Limit     int
	Skip      int
	StartDate *time.Time
	EndDate   *time.Time
}

// analyticsPeriods 聚合窗口取值
var analyticsPeriods = map[string]time.Duration{
	"1h":  time.Hour,
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
}

// TelemetryQueryService 遥测查询服务
type TelemetryQueryService struct {
	telemetry TelemetryStore
	cache     SampleCache
	logger    *zap.Logger
}

// NewTelemetryQueryService 创建遥测查询服务
func NewTelemetryQueryService(telemetry TelemetryStore, sampleCache SampleCache, logger *zap.Logger) *TelemetryQueryService {
	return &TelemetryQueryService{
		telemetry: telemetry,
		cache:     sampleCache,
		logger:    logger,
	}
}

// Latest 获取用户最新样本（缓存优先，未命中回源数据库并回填）
// 无数据时返回 (nil, nil)
func (s *TelemetryQueryService) Latest(ctx context.Context, userID string) (*domain.TelemetrySample, error) {
	cached, err := s.cache.GetLatest(ctx, userID)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		// 缓存故障降级为直接回源
		s.logger.Warn("Latest sample cache unavailable",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}

	sample, err := s.telemetry.Latest(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sample == nil {
		return nil, nil
	}

	if err := s.cache.SetLatest(ctx, userID, sample); err != nil {
		s.logger.Warn("Failed to backfill latest sample cache",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}

	return sample, nil
}

// History 分页查询遥测历史（按创建时间倒序）
func (s *TelemetryQueryService) History(ctx context.Context, userID string, req HistoryRequest) (*domain.TelemetryPage, error) {
	if req.Limit < 1 {
		req.Limit = 20
	}
	if req.Limit > 100 {
		req.Limit = 100
	}
	if req.Skip < 0 {
		req.Skip = 0
	}

	return s.telemetry.Range(ctx, userID, repository.TelemetryRangeFilter{
		StartTime: req.StartDate,
		EndTime:   req.EndDate,
		Limit:     req.Limit,
		Offset:    req.Skip,
	})
}

// Analytics 滚动窗口聚合统计，period ∈ {1h, 24h, 7d, 30d}
func (s *TelemetryQueryService) Analytics(ctx context.Context, userID, period string) (*domain.TelemetryAnalytics, error) {
	window, ok := analyticsPeriods[period]
	if !ok {
		return nil, ErrInvalidPeriod
	}

	analytics, err := s.telemetry.AggregateWindow(ctx, userID, time.Now().Add(-window))
	if err != nil {
		return nil, err
	}
	analytics.Period = period

	return analytics, nil
}
