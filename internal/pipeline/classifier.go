package pipeline

import (
	"fmt"

	"lifeband-data/internal/domain"
)

// 信号类型
const (
	SignalFall                = "fall"
	SignalRapidMotion         = "rapid-motion"
	SignalAbnormalVitals      = "abnormal-vitals"
	SignalAbnormalTemperature = "abnormal-temperature"
	SignalLowBattery          = "low-battery"
	SignalEmergencyButton     = "emergency-button"
)

// Signal 分类器输出的紧急/告警信号
type Signal struct {
	Kind     string                  `json:"kind"`
	Severity string                  `json:"severity"` // warning / error（对应活动状态）
	Reason   string                  `json:"reason"`
	Evidence domain.ActivityMetadata `json:"evidence"`
}

// Thresholds 分类规则阈值
// 默认值即行为基准，测试可覆盖单项阈值而无需改动分类逻辑
type Thresholds struct {
	FallAccelHigh     float64 // 总加速度上限（g），超过视为撞击
	FallAccelLow      float64 // 总加速度下限（g），低于视为自由落体
	RotationHigh      float64 // 总角速度上限（度/秒）
	HeartRateHigh     float64 // 心率告警上限（bpm）
	HeartRateLow      float64 // 心率告警下限（bpm）
	HeartRateCritical float64 // 心率升级为 error 的上限（bpm）
	TemperatureHigh   float64 // 体温告警上限（°C）
	TemperatureLow    float64 // 体温告警下限（°C）
	BatteryLow        float64 // 电量告警阈值（%）
	BatteryCritical   float64 // 电量升级为 error 的阈值（%）
}

// DefaultThresholds 默认阈值
func DefaultThresholds() Thresholds {
	return Thresholds{
		FallAccelHigh:     15,
		FallAccelLow:      2,
		RotationHigh:      200,
		HeartRateHigh:     120,
		HeartRateLow:      50,
		HeartRateCritical: 150,
		TemperatureHigh:   38,
		TemperatureLow:    35,
		BatteryLow:        20,
		BatteryCritical:   10,
	}
}

// Classifier 紧急信号分类器
// 纯规则引擎：各规则独立评估，互不抑制，一个样本可触发零到多个信号
type Classifier struct {
	thresholds Thresholds
}

// NewClassifier 创建分类器
func NewClassifier(thresholds Thresholds) *Classifier {
	return &Classifier{thresholds: thresholds}
}

// Classify 对规范化样本评估全部规则，按固定顺序返回触发的信号：
// fall → rapid-motion → abnormal-vitals → abnormal-temperature → low-battery → emergency-button
func (c *Classifier) Classify(sample domain.TelemetrySample, metrics DerivedMetrics) []Signal {
	var signals []Signal
	t := c.thresholds

	// 规则1：跌倒（自由落体或撞击，超出正常步态范围）
	if metrics.TotalAcceleration > t.FallAccelHigh || metrics.TotalAcceleration < t.FallAccelLow {
		signals = append(signals, Signal{
			Kind:     SignalFall,
			Severity: domain.ActivityStatusWarning,
			Reason:   fmt.Sprintf("total acceleration %.2fg outside normal range [%.0f, %.0f]", metrics.TotalAcceleration, t.FallAccelLow, t.FallAccelHigh),
			Evidence: domain.ActivityMetadata{
				"totalAcceleration": metrics.TotalAcceleration,
				"accelerometer":     sample.Accelerometer,
			},
		})
	}

	// 规则2：剧烈旋转（佩戴状态下不应出现）
	if metrics.TotalRotation > t.RotationHigh {
		signals = append(signals, Signal{
			Kind:     SignalRapidMotion,
			Severity: domain.ActivityStatusError,
			Reason:   fmt.Sprintf("total rotation %.2f°/s exceeds %.0f°/s", metrics.TotalRotation, t.RotationHigh),
			Evidence: domain.ActivityMetadata{
				"totalRotation": metrics.TotalRotation,
				"gyroscope":     sample.Gyroscope,
			},
		})
	}

	// 规则3：心率异常（超出静息/运动安全区间；>150 升级为 error）
	if sample.HeartRate != nil {
		hr := *sample.HeartRate
		if hr > t.HeartRateHigh || hr < t.HeartRateLow {
			severity := domain.ActivityStatusWarning
			if hr > t.HeartRateCritical {
				severity = domain.ActivityStatusError
			}
			signals = append(signals, Signal{
				Kind:     SignalAbnormalVitals,
				Severity: severity,
				Reason:   fmt.Sprintf("heart rate %.0f bpm outside safe band [%.0f, %.0f]", hr, t.HeartRateLow, t.HeartRateHigh),
				Evidence: domain.ActivityMetadata{
					"heartRate": hr,
				},
			})
		}
	}

	// 规则4：体温异常（发热/失温阈值）
	if sample.Temperature != nil {
		temp := *sample.Temperature
		if temp > t.TemperatureHigh || temp < t.TemperatureLow {
			signals = append(signals, Signal{
				Kind:     SignalAbnormalTemperature,
				Severity: domain.ActivityStatusWarning,
				Reason:   fmt.Sprintf("temperature %.1f°C outside safe band [%.0f, %.0f]", temp, t.TemperatureLow, t.TemperatureHigh),
				Evidence: domain.ActivityMetadata{
					"temperature": temp,
				},
			})
		}
	}

	// 规则5：低电量（设备可靠性风险；<10% 升级为 error）
	if sample.BatteryLevel != nil {
		battery := *sample.BatteryLevel
		if battery < t.BatteryLow {
			severity := domain.ActivityStatusWarning
			if battery < t.BatteryCritical {
				severity = domain.ActivityStatusError
			}
			signals = append(signals, Signal{
				Kind:     SignalLowBattery,
				Severity: severity,
				Reason:   fmt.Sprintf("battery level %.0f%% below %.0f%%", battery, t.BatteryLow),
				Evidence: domain.ActivityMetadata{
					"batteryLevel": battery,
				},
			})
		}
	}

	// 规则6：紧急按钮（用户主动触发，永远不被其他规则抑制）
	if sample.EmergencyTriggered {
		signals = append(signals, Signal{
			Kind:     SignalEmergencyButton,
			Severity: domain.ActivityStatusError,
			Reason:   "emergency button pressed on device",
			Evidence: domain.ActivityMetadata{
				"emergencyTriggered": true,
			},
		})
	}

	return signals
}
