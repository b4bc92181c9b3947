// Package filter implements stateful per-angle smoothing filters and their
// composition into ordered chains. Each filter keeps independent history for
// every angle, because readings at different servo positions are unrelated.
package filter

import "errors"

// ErrConfig is returned when a filter or preset is constructed with invalid
// parameters. Configuration problems surface at construction time only; a
// built filter never fails while processing.
var ErrConfig = errors.New("invalid filter configuration")

// Filter is a stateful transform over one angle's sample stream.
//
// Process calls for the same angle must be serialized by the owner; the
// implementations do not lock. A filter with no usable state for an angle
// returns the input unchanged rather than failing.
type Filter interface {
	// Process feeds one value for the given angle and returns the filtered
	// result.
	Process(angle int, value float64) float64

	// Reset discards all per-angle state, keeping the configuration.
	Reset()

	// Name identifies the filter in logs and diagnostics.
	Name() string
}
