package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"lifeband-data/internal/domain"
	"lifeband-data/internal/pipeline"
)

// DeviceContext 入栈请求携带的设备上下文
type DeviceContext struct {
	DeviceID string // 设备标识（主题段、请求体或请求头）
	UserID   string // 显式指定的归属用户，优先于设备注册映射
}

// Analysis 单次入栈的即时分析结果，供调用方直接渲染反馈
type Analysis struct {
	TotalAcceleration  float64          `json:"totalAcceleration"`
	TotalRotation      float64          `json:"totalRotation"`
	FallDetected       bool             `json:"fallDetected"`
	EmergencyTriggered bool             `json:"emergencyTriggered"`
	Location           *domain.Location `json:"location,omitempty"`
	HeartRate          *float64         `json:"heartRate,omitempty"`
	Temperature        *float64         `json:"temperature,omitempty"`
	BatteryLevel       *float64         `json:"batteryLevel,omitempty"`
}

// IngestResult 入栈结果
type IngestResult struct {
	Sample              *domain.TelemetrySample
	Analysis            Analysis
	ActivitiesTriggered []string // 触发的规则类别（不含 sync）
}

// IngestService 遥测入栈协调器
// 流程：解析归属 → 规范化 → 计算量值 → 分类 → 持久化样本 → 写入触发的活动 → 写入 sync 活动
type IngestService struct {
	telemetry  TelemetryStore
	activities ActivityStore
	devices    DeviceResolver
	cache      SampleCache
	classifier *pipeline.Classifier
	demoUserID string // 开发/测试回退用户，生产留空
	logger     *zap.Logger
}

// NewIngestService 创建入栈协调器
func NewIngestService(
	telemetry TelemetryStore,
	activities ActivityStore,
	devices DeviceResolver,
	cache SampleCache,
	classifier *pipeline.Classifier,
	demoUserID string,
	logger *zap.Logger,
) *IngestService {
	return &IngestService{
		telemetry:  telemetry,
		activities: activities,
		devices:    devices,
		cache:      cache,
		classifier: classifier,
		demoUserID: demoUserID,
		logger:     logger,
	}
}

// Ingest 处理一条设备遥测
// 样本持久化是调用方唯一依赖的写入：样本写入失败则整体失败且不写任何活动；
// 单条活动写入失败只记录日志，不影响整体成功
func (s *IngestService) Ingest(ctx context.Context, payload pipeline.RawPayload, device DeviceContext) (*IngestResult, error) {
	// 1. 解析归属用户
	userID, err := s.resolveOwner(ctx, device)
	if err != nil {
		return nil, err
	}

	// 2. 规范化 + 计算量值
	now := time.Now()
	sample := pipeline.Normalize(payload, now)
	sample.UserID = userID
	sample.DeviceID = device.DeviceID

	metrics := pipeline.ComputeMetrics(sample.Accelerometer, sample.Gyroscope)

	// 设备端预置的 metadata 随活动记录保留
	deviceMeta := deviceMetadata(payload)

	// 3. 分类（纯函数，不会失败）
	signals := s.classifier.Classify(sample, metrics)
	for _, signal := range signals {
		// 分类器判定的跌倒与设备断言等效
		if signal.Kind == pipeline.SignalFall {
			sample.FallDetected = true
		}
	}

	// 4. 持久化样本（唯一决定 2xx 的写入）
	if err := s.telemetry.Insert(ctx, &sample); err != nil {
		return nil, fmt.Errorf("failed to persist telemetry sample: %w", err)
	}

	// 5. 每个信号镜像一条 emergency 活动（样本会过期，活动不过期）
	triggered := make([]string, 0, len(signals))
	for _, signal := range signals {
		triggered = append(triggered, signal.Kind)

		record := &domain.ActivityRecord{
			UserID:   userID,
			Type:     domain.ActivityTypeEmergency,
			Status:   signal.Severity,
			Message:  signal.Reason,
			Metadata: s.signalMetadata(signal, &sample, metrics, deviceMeta),
		}
		if err := s.activities.Create(ctx, record); err != nil {
			// 继续处理其他信号，不中断
			s.logger.Error("Failed to record emergency activity",
				zap.String("user_id", userID),
				zap.String("signal_kind", signal.Kind),
				zap.Error(err),
			)
		}
	}

	// 6. 无论是否触发紧急信号，恒定写一条 sync 活动
	syncMeta := domain.ActivityMetadata{}
	for key, value := range deviceMeta {
		syncMeta[key] = value
	}
	syncMeta["deviceId"] = sample.DeviceID
	syncMeta["sampleId"] = sample.ID
	syncMeta["timestamp"] = sample.SampleTime.UnixMilli()

	syncRecord := &domain.ActivityRecord{
		UserID:   userID,
		Type:     domain.ActivityTypeSync,
		Status:   domain.ActivityStatusSuccess,
		Message:  "Telemetry received",
		Metadata: syncMeta,
	}
	if err := s.activities.Create(ctx, syncRecord); err != nil {
		s.logger.Error("Failed to record sync activity",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}

	// 7. 刷新最新样本缓存（尽力而为）
	if err := s.cache.SetLatest(ctx, userID, &sample); err != nil {
		s.logger.Warn("Failed to update latest sample cache",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}

	if len(signals) > 0 {
		s.logger.Info("Emergency signals triggered",
			zap.String("user_id", userID),
			zap.String("device_id", sample.DeviceID),
			zap.Strings("signals", triggered),
		)
	}

	return &IngestResult{
		Sample: &sample,
		Analysis: Analysis{
			TotalAcceleration:  metrics.TotalAcceleration,
			TotalRotation:      metrics.TotalRotation,
			FallDetected:       sample.FallDetected,
			EmergencyTriggered: sample.EmergencyTriggered,
			Location:           sample.Location,
			HeartRate:          sample.HeartRate,
			Temperature:        sample.Temperature,
			BatteryLevel:       sample.BatteryLevel,
		},
		ActivitiesTriggered: triggered,
	}, nil
}

// resolveOwner 解析归属用户：显式 userId → 设备注册映射 → 开发回退用户
// 均未命中时拒绝（ErrOwnerUnresolved），不产生任何写入
func (s *IngestService) resolveOwner(ctx context.Context, device DeviceContext) (string, error) {
	if device.UserID != "" {
		return device.UserID, nil
	}

	if device.DeviceID != "" {
		owner, err := s.devices.ResolveOwner(ctx, device.DeviceID)
		if err != nil {
			return "", fmt.Errorf("failed to resolve device owner: %w", err)
		}
		if owner != "" {
			return owner, nil
		}
	}

	if s.demoUserID != "" {
		s.logger.Debug("Falling back to demo user for unresolved device",
			zap.String("device_id", device.DeviceID),
		)
		return s.demoUserID, nil
	}

	return "", ErrOwnerUnresolved
}

// deviceMetadata 提取载荷中设备端预置的 metadata 对象，缺失或非对象时为 nil
func deviceMetadata(payload pipeline.RawPayload) domain.ActivityMetadata {
	raw, ok := payload["metadata"].(map[string]any)
	if !ok || len(raw) == 0 {
		return nil
	}
	return domain.ActivityMetadata(raw)
}

// signalMetadata 构建信号活动的完整证据：向量、位置、量值、时间戳
// 设备端预置的键先写入，计算证据同名时覆盖
func (s *IngestService) signalMetadata(signal pipeline.Signal, sample *domain.TelemetrySample, metrics pipeline.DerivedMetrics, deviceMeta domain.ActivityMetadata) domain.ActivityMetadata {
	metadata := domain.ActivityMetadata{}
	for key, value := range deviceMeta {
		metadata[key] = value
	}
	metadata["signalKind"] = signal.Kind
	metadata["deviceId"] = sample.DeviceID
	metadata["accelerometer"] = sample.Accelerometer
	metadata["gyroscope"] = sample.Gyroscope
	metadata["totalAcceleration"] = metrics.TotalAcceleration
	metadata["totalRotation"] = metrics.TotalRotation
	metadata["timestamp"] = sample.SampleTime.UnixMilli()
	if sample.Location != nil {
		metadata["location"] = sample.Location
	}
	for key, value := range signal.Evidence {
		metadata[key] = value
	}
	return metadata
}
