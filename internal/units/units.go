// Package units provides shared constants and conversion for distance units
package units

import "fmt"

// Unit constants
const (
	CM = "cm"
	M  = "m"
	IN = "in"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{CM, M, IN}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "cm, m, in"
}

// ConvertDistance converts a distance from centimeters to the target units.
// Sensors report distances in cm.
func ConvertDistance(distanceCM float64, targetUnits string) float64 {
	switch targetUnits {
	case M:
		return distanceCM / 100
	case IN:
		return distanceCM / 2.54
	case CM:
		return distanceCM // no conversion needed
	default:
		return distanceCM
	}
}

// FormatDistance renders a distance in the target units with its suffix,
// e.g. "123.4cm" or "48.6in".
func FormatDistance(distanceCM float64, targetUnits string) string {
	if !IsValid(targetUnits) {
		targetUnits = CM
	}
	return fmt.Sprintf("%.1f%s", ConvertDistance(distanceCM, targetUnits), targetUnits)
}
