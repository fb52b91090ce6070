package distance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSquaredL2(t *testing.T) {
	t.Run("Identical", func(t *testing.T) {
		v := []float32{1.0, 2.0, 3.0}
		assert.Equal(t, float32(0), SquaredL2(v, v))
	})

	t.Run("Known", func(t *testing.T) {
		a := []float32{0.0, 0.0}
		b := []float32{3.0, 4.0}
		assert.Equal(t, float32(25), SquaredL2(a, b))
	})

	t.Run("Symmetric", func(t *testing.T) {
		a := []float32{1.0, -2.0, 0.5}
		b := []float32{-1.0, 3.0, 2.5}
		assert.Equal(t, SquaredL2(a, b), SquaredL2(b, a))
	})
}

func TestDot(t *testing.T) {
	a := []float32{1.0, 2.0, 3.0}
	b := []float32{4.0, 5.0, 6.0}
	assert.Equal(t, float32(32), Dot(a, b))
}

func TestProvider(t *testing.T) {
	t.Run("L2", func(t *testing.T) {
		fn, err := Provider(MetricL2)
		require.NoError(t, err)
		assert.Equal(t, float32(25), fn([]float32{0, 0}, []float32{3, 4}))
	})

	t.Run("DotNegated", func(t *testing.T) {
		fn, err := Provider(MetricDot)
		require.NoError(t, err)
		assert.Equal(t, float32(-32), fn([]float32{1, 2, 3}, []float32{4, 5, 6}))
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := Provider(Metric(99))
		assert.Error(t, err)
	})
}
