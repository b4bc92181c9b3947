package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMovingAverageRejectsBadWindow(t *testing.T) {
	for _, window := range []int{0, -1, -100} {
		_, err := NewMovingAverage(window)
		require.Error(t, err, "window %d", window)
		assert.ErrorIs(t, err, ErrConfig)
	}
}

func TestMovingAverageWarmup(t *testing.T) {
	f, err := NewMovingAverage(3)
	require.NoError(t, err)

	// Mean of however many samples are present; early readings are never
	// rejected.
	assert.Equal(t, 10.0, f.Process(90, 10))
	assert.Equal(t, 15.0, f.Process(90, 20))
	assert.Equal(t, 20.0, f.Process(90, 30))
	assert.Equal(t, 30.0, f.Process(90, 40)) // window full, 10 evicted
}

func TestMovingAverageConvergesToConstant(t *testing.T) {
	for _, window := range []int{1, 2, 3, 7} {
		f, err := NewMovingAverage(window)
		require.NoError(t, err)

		const x = 42.5
		for i := 0; i < window*2; i++ {
			got := f.Process(0, x)
			assert.Equal(t, x, got, "window %d, sample %d", window, i)
		}
	}
}

func TestMovingAverageAnglesAreIndependent(t *testing.T) {
	f, err := NewMovingAverage(2)
	require.NoError(t, err)

	f.Process(10, 100)
	f.Process(20, 0)

	assert.Equal(t, 100.0, f.Process(10, 100))
	assert.Equal(t, 0.0, f.Process(20, 0))
}

func TestMovingAverageReset(t *testing.T) {
	f, err := NewMovingAverage(3)
	require.NoError(t, err)

	f.Process(90, 10)
	f.Process(90, 10)
	f.Reset()

	// First sample after reset must not blend with the prior buffer.
	assert.Equal(t, 50.0, f.Process(90, 50))
}
