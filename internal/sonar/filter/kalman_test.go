package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKalmanRejectsBadNoise(t *testing.T) {
	cases := []struct {
		name string
		q, r float64
	}{
		{"zero process noise", 0, 4},
		{"negative process noise", -0.1, 4},
		{"zero measurement noise", 0.01, 0},
		{"negative measurement noise", 0.01, -4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewKalman(tc.q, tc.r)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfig)
		})
	}
}

func TestKalmanSeedsWithFirstMeasurement(t *testing.T) {
	f, err := NewKalman(0.01, 4)
	require.NoError(t, err)

	assert.Equal(t, 123.0, f.Process(30, 123))
}

// With measurements equal to the estimate the state must not drift, while the
// error covariance settles monotonically toward its steady state.
func TestKalmanNoDriftUnderConstantInput(t *testing.T) {
	f, err := NewKalman(0.01, 4)
	require.NoError(t, err)

	f.Process(90, 100)
	prevP := f.state[90].p
	require.Equal(t, 1.0, prevP)

	for i := 0; i < 5; i++ {
		got := f.Process(90, 100)
		assert.Equal(t, 100.0, got, "sample %d", i)

		p := f.state[90].p
		assert.Less(t, p, prevP, "p must decrease, sample %d", i)
		prevP = p
	}
}

func TestKalmanTracksStepChange(t *testing.T) {
	f, err := NewKalman(0.5, 4)
	require.NoError(t, err)

	f.Process(0, 100)
	got := f.Process(0, 150)
	assert.Greater(t, got, 100.0)
	assert.Less(t, got, 150.0)
}

func TestKalmanReset(t *testing.T) {
	f, err := NewKalman(0.01, 4)
	require.NoError(t, err)

	f.Process(90, 100)
	f.Process(90, 100)
	f.Reset()

	// A fresh session re-seeds with the first observed value.
	assert.Equal(t, 55.0, f.Process(90, 55))
}
