package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lifeband-data/internal/cache"
	"lifeband-data/internal/domain"
)

func TestLatest_CacheHit_SkipsDatabase(t *testing.T) {
	cached := &domain.TelemetrySample{ID: 3, UserID: "user-1"}
	sampleCache := &fakeSampleCache{samples: map[string]*domain.TelemetrySample{"user-1": cached}}
	telemetry := &fakeTelemetryStore{latestErr: errors.New("should not be queried")}
	svc := NewTelemetryQueryService(telemetry, sampleCache, zap.NewNop())

	sample, err := svc.Latest(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, cached, sample)
}

func TestLatest_CacheMiss_FallsBackAndBackfills(t *testing.T) {
	stored := &domain.TelemetrySample{ID: 9, UserID: "user-1"}
	sampleCache := &fakeSampleCache{}
	telemetry := &fakeTelemetryStore{latest: stored}
	svc := NewTelemetryQueryService(telemetry, sampleCache, zap.NewNop())

	sample, err := svc.Latest(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, stored, sample)
	// 回填缓存
	assert.Equal(t, stored, sampleCache.samples["user-1"])
}

func TestLatest_CacheUnavailable_DegradesToDatabase(t *testing.T) {
	stored := &domain.TelemetrySample{ID: 9, UserID: "user-1"}
	sampleCache := &fakeSampleCache{getErr: errors.New("redis down"), setErr: errors.New("redis down")}
	telemetry := &fakeTelemetryStore{latest: stored}
	svc := NewTelemetryQueryService(telemetry, sampleCache, zap.NewNop())

	sample, err := svc.Latest(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, stored, sample)
}

func TestLatest_WrappedCacheMissTreatedAsMiss(t *testing.T) {
	stored := &domain.TelemetrySample{ID: 9, UserID: "user-1"}
	sampleCache := &fakeSampleCache{getErr: fmt.Errorf("lookup latest for user-1: %w", cache.ErrCacheMiss)}
	telemetry := &fakeTelemetryStore{latest: stored}
	svc := NewTelemetryQueryService(telemetry, sampleCache, zap.NewNop())

	sample, err := svc.Latest(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, stored, sample)
}

func TestLatest_NoData_ReturnsNil(t *testing.T) {
	svc := NewTelemetryQueryService(&fakeTelemetryStore{}, &fakeSampleCache{}, zap.NewNop())

	sample, err := svc.Latest(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Nil(t, sample)
}

func TestHistory_ClampsLimit(t *testing.T) {
	page := &domain.TelemetryPage{Total: 0, Samples: []domain.TelemetrySample{}}
	telemetry := &fakeTelemetryStore{page: page}
	svc := NewTelemetryQueryService(telemetry, &fakeSampleCache{}, zap.NewNop())

	for _, req := range []HistoryRequest{
		{Limit: 0, Skip: -5},
		{Limit: 500},
		{Limit: 20, Skip: 40},
	} {
		result, err := svc.History(context.Background(), "user-1", req)
		require.NoError(t, err)
		assert.Equal(t, page, result)
	}
}

func TestAnalytics_KnownPeriods(t *testing.T) {
	telemetry := &fakeTelemetryStore{analytics: &domain.TelemetryAnalytics{TotalReadings: 10}}
	svc := NewTelemetryQueryService(telemetry, &fakeSampleCache{}, zap.NewNop())

	for _, period := range []string{"1h", "24h", "7d", "30d"} {
		analytics, err := svc.Analytics(context.Background(), "user-1", period)
		require.NoError(t, err)
		assert.Equal(t, period, analytics.Period)
		assert.Equal(t, 10, analytics.TotalReadings)
	}
}

func TestAnalytics_InvalidPeriod(t *testing.T) {
	svc := NewTelemetryQueryService(&fakeTelemetryStore{}, &fakeSampleCache{}, zap.NewNop())

	_, err := svc.Analytics(context.Background(), "user-1", "2w")
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	_, err = svc.Analytics(context.Background(), "user-1", "")
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}
