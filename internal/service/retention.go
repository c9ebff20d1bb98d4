package service

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// RetentionSweeper 遥测保留清理任务
// 周期性删除创建时间超出保留时长的样本；清理失败只记录日志，下一个周期独立重试
type RetentionSweeper struct {
	telemetry TelemetryStore
	interval  time.Duration // 扫描间隔
	window    time.Duration // 保留时长
	logger    *zap.Logger

	// sweeping 防止重入：上一轮未结束时跳过本轮触发
	sweeping atomic.Bool
}

// NewRetentionSweeper 创建保留清理任务
func NewRetentionSweeper(telemetry TelemetryStore, interval, window time.Duration, logger *zap.Logger) *RetentionSweeper {
	return &RetentionSweeper{
		telemetry: telemetry,
		interval:  interval,
		window:    window,
		logger:    logger,
	}
}

// Start 启动清理循环，随上下文取消退出
func (s *RetentionSweeper) Start(ctx context.Context) {
	s.logger.Info("Retention sweeper started",
		zap.Duration("interval", s.interval),
		zap.Duration("window", s.window),
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Retention sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				// 留给下一个周期，不中断
				s.logger.Error("Retention sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep 执行一次清理，返回删除数量
// 与并发入栈无需加锁：只删除严格早于保留边界的行，在途写入的创建时间恒为当前时间
func (s *RetentionSweeper) Sweep(ctx context.Context) (int64, error) {
	if !s.sweeping.CompareAndSwap(false, true) {
		s.logger.Warn("Previous sweep still running, skipping this cycle")
		return 0, nil
	}
	defer s.sweeping.Store(false)

	cutoff := time.Now().Add(-s.window)
	deleted, err := s.telemetry.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		s.logger.Info("Expired telemetry samples deleted",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff),
		)
	}

	return deleted, nil
}
