package pipeline

import (
	"strconv"
	"time"

	"lifeband-data/internal/domain"
)

// RawPayload 设备上报的原始载荷（任意键值，所有字段均可缺失）
type RawPayload map[string]any

// 标量读数的有效范围，越界视为字段缺失
const (
	heartRateMin    = 0
	heartRateMax    = 300
	temperatureMin  = -50
	temperatureMax  = 100
	batteryLevelMin = 0
	batteryLevelMax = 100
)

// Normalize 将原始载荷规范化为遥测样本
// 规则：
//   - 缺失的向量轴默认 0
//   - 数值字符串解析为对应数值类型，解析失败视为字段缺失（不报错）
//   - 标量读数越界视为缺失
//   - 缺失时间戳取接收时间，保证保留清理始终有可比较的创建时间
//
// 归属用户和设备ID由调用方（Ingestion Coordinator）解析后填入
func Normalize(payload RawPayload, receivedAt time.Time) domain.TelemetrySample {
	sample := domain.TelemetrySample{
		Accelerometer: normalizeVector(payload["accelerometer"]),
		Gyroscope:     normalizeVector(payload["gyroscope"]),
		SampleTime:    receivedAt,
		CreatedAt:     receivedAt,
	}

	if hr, ok := toFloat(payload["heartRate"]); ok && hr >= heartRateMin && hr <= heartRateMax {
		sample.HeartRate = &hr
	}
	if temp, ok := toFloat(payload["temperature"]); ok && temp >= temperatureMin && temp <= temperatureMax {
		sample.Temperature = &temp
	}
	if battery, ok := toFloat(payload["batteryLevel"]); ok && battery >= batteryLevelMin && battery <= batteryLevelMax {
		sample.BatteryLevel = &battery
	}

	// 位置需要经纬度同时存在
	lat, latOK := toFloat(payload["latitude"])
	lon, lonOK := toFloat(payload["longitude"])
	if latOK && lonOK {
		loc := &domain.Location{Latitude: lat, Longitude: lon}
		if acc, ok := toFloat(payload["accuracy"]); ok {
			loc.Accuracy = &acc
		}
		sample.Location = loc
	}

	// 设备时间戳：epoch 毫秒，数字或字符串
	if ts, ok := toFloat(payload["timestamp"]); ok && ts > 0 {
		sample.SampleTime = time.UnixMilli(int64(ts))
	}

	// 设备端断言的标志
	sample.EmergencyTriggered = toBool(payload["emergencyTriggered"])
	sample.FallDetected = toBool(payload["fallDetected"])

	return sample
}

// normalizeVector 解析三轴读数，缺失轴默认 0
func normalizeVector(value any) domain.Vector3 {
	var v domain.Vector3
	axes, ok := value.(map[string]any)
	if !ok {
		return v
	}
	if x, ok := toFloat(axes["x"]); ok {
		v.X = x
	}
	if y, ok := toFloat(axes["y"]); ok {
		v.Y = y
	}
	if z, ok := toFloat(axes["z"]); ok {
		v.Z = z
	}
	return v
}

// toFloat 尽力将载荷值转换为 float64
// JSON 反序列化产生 float64/string，MQTT 载荷可能带其他数值类型
func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// toBool 尽力将载荷值转换为 bool，无法识别时为 false
func toBool(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "1"
	default:
		return false
	}
}
