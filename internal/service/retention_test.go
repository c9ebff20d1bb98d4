package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSweep_DeletesExpiredSamples(t *testing.T) {
	telemetry := &fakeTelemetryStore{deleted: 12}
	sweeper := NewRetentionSweeper(telemetry, 5*time.Minute, 30*time.Minute, zap.NewNop())

	before := time.Now()
	deleted, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), deleted)

	// 截止时间 = 当前时间 - 保留时长
	require.Len(t, telemetry.cutoffs, 1)
	expected := before.Add(-30 * time.Minute)
	assert.WithinDuration(t, expected, telemetry.cutoffs[0], time.Second)
}

func TestSweep_NothingExpired(t *testing.T) {
	telemetry := &fakeTelemetryStore{deleted: 0}
	sweeper := NewRetentionSweeper(telemetry, 5*time.Minute, 30*time.Minute, zap.NewNop())

	deleted, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestSweep_DeleteFails_ReturnsError(t *testing.T) {
	telemetry := &fakeTelemetryStore{deleteErr: errors.New("connection reset")}
	sweeper := NewRetentionSweeper(telemetry, 5*time.Minute, 30*time.Minute, zap.NewNop())

	_, err := sweeper.Sweep(context.Background())
	assert.Error(t, err)
}

func TestSweep_SkipsWhilePreviousSweepRunning(t *testing.T) {
	block := make(chan struct{})
	telemetry := &fakeTelemetryStore{deleted: 3, deleteBlock: block}
	sweeper := NewRetentionSweeper(telemetry, 5*time.Minute, 30*time.Minute, zap.NewNop())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = sweeper.Sweep(context.Background())
	}()

	// 等第一轮进入删除
	require.Eventually(t, func() bool {
		return sweeper.sweeping.Load()
	}, time.Second, time.Millisecond)

	// 第二轮直接跳过，不报错也不触发删除
	deleted, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, deleted)
	assert.Equal(t, 1, telemetry.deleteCount())

	close(block)
	wg.Wait()

	// 第一轮结束后可以再次清理
	deleted, err = sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	assert.Equal(t, 2, telemetry.deleteCount())
}
