package filter

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// Median replaces each angle's reading with the median of the last N inputs,
// which rejects impulse spikes that would skew an average. An even-length
// buffer, including during warm-up, yields the average of the two middle
// sorted values.
type Median struct {
	window  int
	history map[int][]float64
}

// NewMedian returns a median filter over the last window inputs per angle.
// A window below 1 is a configuration error.
func NewMedian(window int) (*Median, error) {
	if window < 1 {
		return nil, fmt.Errorf("%w: median window %d, must be >= 1", ErrConfig, window)
	}
	return &Median{
		window:  window,
		history: make(map[int][]float64),
	}, nil
}

func (f *Median) Process(angle int, value float64) float64 {
	buf := append(f.history[angle], value)
	if len(buf) > f.window {
		buf = buf[len(buf)-f.window:]
	}
	f.history[angle] = buf

	median, err := stats.Median(buf)
	if err != nil {
		return value
	}
	return median
}

func (f *Median) Reset() {
	f.history = make(map[int][]float64)
}

func (f *Median) Name() string {
	return fmt.Sprintf("median(%d)", f.window)
}
