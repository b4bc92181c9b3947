package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMedianRejectsBadWindow(t *testing.T) {
	_, err := NewMedian(0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfig)
}

// The reference sequence for a FIFO median with the average-of-two-middle
// tie-break during even-length warm-up.
func TestMedianReferenceSequence(t *testing.T) {
	f, err := NewMedian(3)
	require.NoError(t, err)

	inputs := []float64{98, 103, 2, 101, 200, 99}
	want := []float64{98, 100.5, 98, 101, 101, 101}

	for i, in := range inputs {
		got := f.Process(45, in)
		assert.Equal(t, want[i], got, "sample %d (input %v)", i, in)
	}
}

func TestMedianEvenWindowTieBreak(t *testing.T) {
	f, err := NewMedian(4)
	require.NoError(t, err)

	f.Process(0, 10)
	f.Process(0, 20)
	f.Process(0, 30)
	// Full even window [10 20 30 40]: average of the two middle values.
	assert.Equal(t, 25.0, f.Process(0, 40))
}

func TestMedianConvergesToConstant(t *testing.T) {
	for _, window := range []int{1, 2, 5} {
		f, err := NewMedian(window)
		require.NoError(t, err)

		const x = 77.0
		for i := 0; i < window*2; i++ {
			assert.Equal(t, x, f.Process(0, x), "window %d, sample %d", window, i)
		}
	}
}

func TestMedianRejectsSpike(t *testing.T) {
	f, err := NewMedian(3)
	require.NoError(t, err)

	f.Process(90, 100)
	f.Process(90, 101)
	// A 200cm spike must not leak through a 3-wide median.
	assert.Equal(t, 101.0, f.Process(90, 200))
}

func TestMedianReset(t *testing.T) {
	f, err := NewMedian(3)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		f.Process(90, 10)
	}
	f.Reset()

	assert.Equal(t, 50.0, f.Process(90, 50))
}
