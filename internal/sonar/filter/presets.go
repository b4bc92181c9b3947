package filter

import "fmt"

// Named chain presets, from no filtering to heavy smoothing.
const (
	PresetNone     = "none"
	PresetLight    = "light"
	PresetStandard = "standard"
	PresetHeavy    = "heavy"
	PresetKalman   = "kalman"
)

// Default noise covariances for the kalman preset, tuned for HC-SR04 jitter.
const (
	DefaultKalmanProcessNoise     = 1.0
	DefaultKalmanMeasurementNoise = 10.0
)

// PresetOptions carries the tunable parameters consumed by the preset
// factory. Zero values fall back to the defaults above.
type PresetOptions struct {
	KalmanProcessNoise     float64
	KalmanMeasurementNoise float64
}

// PresetNames lists the recognized preset names in rough order of strength.
func PresetNames() []string {
	return []string{PresetNone, PresetLight, PresetStandard, PresetHeavy, PresetKalman}
}

// Preset builds one of the named chain configurations. An unknown name is a
// configuration error, reported before the pipeline starts.
func Preset(name string, opts PresetOptions) (*Chain, error) {
	if opts.KalmanProcessNoise == 0 {
		opts.KalmanProcessNoise = DefaultKalmanProcessNoise
	}
	if opts.KalmanMeasurementNoise == 0 {
		opts.KalmanMeasurementNoise = DefaultKalmanMeasurementNoise
	}

	switch name {
	case PresetNone:
		return NewChain(), nil

	case PresetLight:
		ma, err := NewMovingAverage(3)
		if err != nil {
			return nil, err
		}
		return NewChain(ma), nil

	case PresetStandard:
		med, err := NewMedian(3)
		if err != nil {
			return nil, err
		}
		ma, err := NewMovingAverage(3)
		if err != nil {
			return nil, err
		}
		return NewChain(med, ma), nil

	case PresetHeavy:
		med, err := NewMedian(5)
		if err != nil {
			return nil, err
		}
		ma, err := NewMovingAverage(7)
		if err != nil {
			return nil, err
		}
		return NewChain(med, ma), nil

	case PresetKalman:
		// Median first to strip spikes before the estimator sees them.
		med, err := NewMedian(3)
		if err != nil {
			return nil, err
		}
		k, err := NewKalman(opts.KalmanProcessNoise, opts.KalmanMeasurementNoise)
		if err != nil {
			return nil, err
		}
		return NewChain(med, k), nil

	default:
		return nil, fmt.Errorf("%w: unknown preset %q", ErrConfig, name)
	}
}
