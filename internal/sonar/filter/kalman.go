package filter

import "fmt"

// kalmanState is the per-angle accumulator: the current estimate and its
// error covariance.
type kalmanState struct {
	estimate float64
	p        float64
}

// Kalman is a scalar constant-model Kalman filter per angle. It balances the
// predicted state against each new measurement using the configured process
// noise q and measurement noise r: a higher r trusts the sensor less and
// smooths harder, a higher q tracks changes faster.
type Kalman struct {
	q     float64
	r     float64
	state map[int]*kalmanState
}

// NewKalman returns a Kalman filter with the given noise covariances. Both
// must be positive; anything else is a configuration error.
func NewKalman(processNoise, measurementNoise float64) (*Kalman, error) {
	if processNoise <= 0 {
		return nil, fmt.Errorf("%w: kalman process noise %v, must be > 0", ErrConfig, processNoise)
	}
	if measurementNoise <= 0 {
		return nil, fmt.Errorf("%w: kalman measurement noise %v, must be > 0", ErrConfig, measurementNoise)
	}
	return &Kalman{
		q:     processNoise,
		r:     measurementNoise,
		state: make(map[int]*kalmanState),
	}, nil
}

func (f *Kalman) Process(angle int, measurement float64) float64 {
	st, ok := f.state[angle]
	if !ok {
		// Seed the estimate with the first observation.
		f.state[angle] = &kalmanState{estimate: measurement, p: 1}
		return measurement
	}

	// Predict under a constant model, then correct with the measurement.
	pPred := st.p + f.q
	gain := pPred / (pPred + f.r)
	st.estimate += gain * (measurement - st.estimate)
	st.p = (1 - gain) * pPred

	return st.estimate
}

func (f *Kalman) Reset() {
	f.state = make(map[int]*kalmanState)
}

func (f *Kalman) Name() string {
	return fmt.Sprintf("kalman(q=%v,r=%v)", f.q, f.r)
}
