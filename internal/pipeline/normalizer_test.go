package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_FullPayload(t *testing.T) {
	now := time.Now()
	payload := RawPayload{
		"accelerometer": map[string]any{"x": 0.1, "y": 0.2, "z": 9.8},
		"gyroscope":     map[string]any{"x": 1.0, "y": 2.0, "z": 3.0},
		"heartRate":     72.0,
		"temperature":   36.6,
		"batteryLevel":  85.0,
		"latitude":      31.2304,
		"longitude":     121.4737,
		"accuracy":      8.5,
		"timestamp":     float64(1700000000000),
	}

	sample := Normalize(payload, now)

	assert.Equal(t, 0.1, sample.Accelerometer.X)
	assert.Equal(t, 0.2, sample.Accelerometer.Y)
	assert.Equal(t, 9.8, sample.Accelerometer.Z)
	assert.Equal(t, 3.0, sample.Gyroscope.Z)

	require.NotNil(t, sample.HeartRate)
	assert.Equal(t, 72.0, *sample.HeartRate)
	require.NotNil(t, sample.Temperature)
	assert.Equal(t, 36.6, *sample.Temperature)
	require.NotNil(t, sample.BatteryLevel)
	assert.Equal(t, 85.0, *sample.BatteryLevel)

	require.NotNil(t, sample.Location)
	assert.Equal(t, 31.2304, sample.Location.Latitude)
	assert.Equal(t, 121.4737, sample.Location.Longitude)
	require.NotNil(t, sample.Location.Accuracy)
	assert.Equal(t, 8.5, *sample.Location.Accuracy)

	assert.Equal(t, time.UnixMilli(1700000000000).Unix(), sample.SampleTime.Unix())
	assert.Equal(t, now, sample.CreatedAt)
}

func TestNormalize_EmptyPayload_Defaults(t *testing.T) {
	now := time.Now()

	sample := Normalize(RawPayload{}, now)

	// 缺失轴默认 0
	assert.Equal(t, 0.0, sample.Accelerometer.X)
	assert.Equal(t, 0.0, sample.Gyroscope.Z)

	// 缺失的标量读数保持 nil
	assert.Nil(t, sample.HeartRate)
	assert.Nil(t, sample.Temperature)
	assert.Nil(t, sample.BatteryLevel)
	assert.Nil(t, sample.Location)

	// 缺失时间戳取接收时间，保证保留清理有可比较的创建时间
	assert.Equal(t, now, sample.SampleTime)
	assert.Equal(t, now, sample.CreatedAt)

	assert.False(t, sample.EmergencyTriggered)
	assert.False(t, sample.FallDetected)
}

func TestNormalize_NumericStrings(t *testing.T) {
	now := time.Now()
	payload := RawPayload{
		"accelerometer": map[string]any{"x": "0.5", "y": "1.5"},
		"heartRate":     "88",
		"latitude":      "31.2",
		"longitude":     "121.5",
		"timestamp":     "1700000000000",
	}

	sample := Normalize(payload, now)

	assert.Equal(t, 0.5, sample.Accelerometer.X)
	assert.Equal(t, 1.5, sample.Accelerometer.Y)
	assert.Equal(t, 0.0, sample.Accelerometer.Z)
	require.NotNil(t, sample.HeartRate)
	assert.Equal(t, 88.0, *sample.HeartRate)
	require.NotNil(t, sample.Location)
	assert.Equal(t, time.UnixMilli(1700000000000).Unix(), sample.SampleTime.Unix())
}

func TestNormalize_ParseFailureTreatedAsAbsent(t *testing.T) {
	now := time.Now()
	payload := RawPayload{
		"heartRate":   "not-a-number",
		"temperature": map[string]any{"oops": true},
		"latitude":    "31.2",
		// longitude 缺失 → 无位置
		"timestamp": "garbage",
	}

	sample := Normalize(payload, now)

	assert.Nil(t, sample.HeartRate)
	assert.Nil(t, sample.Temperature)
	assert.Nil(t, sample.Location)
	assert.Equal(t, now, sample.SampleTime)
}

func TestNormalize_OutOfRangeScalarsDropped(t *testing.T) {
	now := time.Now()
	payload := RawPayload{
		"heartRate":    350.0,
		"temperature":  -80.0,
		"batteryLevel": 120.0,
	}

	sample := Normalize(payload, now)

	assert.Nil(t, sample.HeartRate)
	assert.Nil(t, sample.Temperature)
	assert.Nil(t, sample.BatteryLevel)
}

func TestNormalize_DeviceAssertedFlags(t *testing.T) {
	now := time.Now()

	sample := Normalize(RawPayload{
		"emergencyTriggered": true,
		"fallDetected":       "true",
	}, now)

	assert.True(t, sample.EmergencyTriggered)
	assert.True(t, sample.FallDetected)
}
