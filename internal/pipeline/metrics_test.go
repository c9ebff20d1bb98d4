package pipeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"lifeband-data/internal/domain"
)

func TestMagnitude_ZeroVector(t *testing.T) {
	assert.Equal(t, 0.0, Magnitude(domain.Vector3{}))
}

func TestMagnitude_AxisPermutationInvariant(t *testing.T) {
	vectors := []domain.Vector3{
		{X: 3, Y: 4, Z: 12},
		{X: 4, Y: 12, Z: 3},
		{X: 12, Y: 3, Z: 4},
	}

	for _, v := range vectors {
		assert.InDelta(t, 13.0, Magnitude(v), 1e-9)
	}
}

func TestMagnitude_SingleAxis(t *testing.T) {
	assert.Equal(t, 20.0, Magnitude(domain.Vector3{Z: 20}))
	assert.Equal(t, 1.0, Magnitude(domain.Vector3{Z: 1}))
}

func TestMagnitude_NegativeComponents(t *testing.T) {
	assert.InDelta(t, math.Sqrt(3), Magnitude(domain.Vector3{X: -1, Y: 1, Z: -1}), 1e-9)
}

func TestComputeMetrics(t *testing.T) {
	metrics := ComputeMetrics(
		domain.Vector3{X: 0, Y: 0, Z: 9.8},
		domain.Vector3{X: 150, Y: 150, Z: 0},
	)

	assert.InDelta(t, 9.8, metrics.TotalAcceleration, 1e-9)
	assert.InDelta(t, 212.132, metrics.TotalRotation, 0.001)
}
