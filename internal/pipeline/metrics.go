package pipeline

import (
	"math"

	"lifeband-data/internal/domain"
)

// DerivedMetrics 由向量读数计算出的标量量值
// 单位随设备：加速度为 g，角速度为 度/秒（只合成分量，不做单位换算）
type DerivedMetrics struct {
	TotalAcceleration float64 `json:"totalAcceleration"`
	TotalRotation     float64 `json:"totalRotation"`
}

// ComputeMetrics 计算向量模长
// 纯函数；零向量得 0，因此分类器可以无条件运行
func ComputeMetrics(accelerometer, gyroscope domain.Vector3) DerivedMetrics {
	return DerivedMetrics{
		TotalAcceleration: Magnitude(accelerometer),
		TotalRotation:     Magnitude(gyroscope),
	}
}

// Magnitude 三轴向量模长 sqrt(x²+y²+z²)
func Magnitude(v domain.Vector3) float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}
