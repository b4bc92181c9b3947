package filter

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// MovingAverage smooths each angle's stream with the arithmetic mean of the
// last N inputs. During warm-up the mean covers however many samples are
// present, so early readings are never rejected.
type MovingAverage struct {
	window  int
	history map[int][]float64
}

// NewMovingAverage returns a moving average filter over the last window
// inputs per angle. A window below 1 is a configuration error.
func NewMovingAverage(window int) (*MovingAverage, error) {
	if window < 1 {
		return nil, fmt.Errorf("%w: moving average window %d, must be >= 1", ErrConfig, window)
	}
	return &MovingAverage{
		window:  window,
		history: make(map[int][]float64),
	}, nil
}

func (f *MovingAverage) Process(angle int, value float64) float64 {
	buf := append(f.history[angle], value)
	if len(buf) > f.window {
		buf = buf[len(buf)-f.window:]
	}
	f.history[angle] = buf

	mean, err := stats.Mean(buf)
	if err != nil {
		return value
	}
	return mean
}

func (f *MovingAverage) Reset() {
	f.history = make(map[int][]float64)
}

func (f *MovingAverage) Name() string {
	return fmt.Sprintf("moving_average(%d)", f.window)
}
