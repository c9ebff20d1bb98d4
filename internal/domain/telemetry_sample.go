package domain

import "time"

// Vector3 三轴传感器读数（加速度计/陀螺仪）
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Location 定位信息
type Location struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
}

// TelemetrySample 遥测样本领域模型（对应 telemetry_samples 表）
// 设备上报的一次传感器读数，入库后不可变，仅由保留清理任务删除
type TelemetrySample struct {
	// 主键
	ID int64 `json:"id" db:"id"` // BIGSERIAL, PRIMARY KEY

	// 归属
	UserID   string `json:"userId" db:"user_id"`   // UUID, NOT NULL
	DeviceID string `json:"deviceId" db:"device_id"` // VARCHAR(100), NOT NULL

	// 三轴读数（缺失轴默认 0）
	Accelerometer Vector3 `json:"accelerometer" db:"-"`
	Gyroscope     Vector3 `json:"gyroscope" db:"-"`

	// 标量读数（可缺失）
	HeartRate    *float64 `json:"heartRate,omitempty" db:"heart_rate"`    // 0–300
	Temperature  *float64 `json:"temperature,omitempty" db:"temperature"`   // -50–100 °C
	BatteryLevel *float64 `json:"batteryLevel,omitempty" db:"battery_level"` // 0–100

	// 定位（可缺失）
	Location *Location `json:"location,omitempty" db:"-"`

	// 设备/分类器断言的标志
	EmergencyTriggered bool `json:"emergencyTriggered" db:"emergency_triggered"`
	FallDetected       bool `json:"fallDetected" db:"fall_detected"`

	// 时间
	SampleTime time.Time `json:"sampleTime" db:"sample_time"` // 设备时间戳，缺失时取接收时间
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`  // 接收时间，保留清理以此为准
}

// TelemetryPage 遥测样本分页结果
type TelemetryPage struct {
	Samples []TelemetrySample `json:"samples"`
	Total   int               `json:"total"`
	HasMore bool              `json:"hasMore"`
}

// TelemetryAnalytics 滚动窗口聚合统计
type TelemetryAnalytics struct {
	Period          string   `json:"period"`
	AvgHeartRate    *float64 `json:"avgHeartRate"`
	MinHeartRate    *float64 `json:"minHeartRate"`
	MaxHeartRate    *float64 `json:"maxHeartRate"`
	AvgTemperature  *float64 `json:"avgTemperature"`
	MinTemperature  *float64 `json:"minTemperature"`
	MaxTemperature  *float64 `json:"maxTemperature"`
	AvgBatteryLevel *float64 `json:"avgBatteryLevel"`
	EmergencyCount  int      `json:"emergencyCount"`
	FallCount       int      `json:"fallCount"`
	TotalReadings   int      `json:"totalReadings"`
}
