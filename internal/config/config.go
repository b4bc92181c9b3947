// Package config loads the runtime configuration file. Every field is
// optional; the Get* methods fall back to defaults for anything the JSON
// omits, so partial configs are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/sonar.sweep/internal/serialmux"
	"github.com/banshee-data/sonar.sweep/internal/sonar"
	"github.com/banshee-data/sonar.sweep/internal/sonar/filter"
	"github.com/banshee-data/sonar.sweep/internal/sonar/sim"
	"github.com/banshee-data/sonar.sweep/internal/sonar/ultrasonic"
	"github.com/banshee-data/sonar.sweep/internal/units"
)

// Config is the root configuration. The same JSON schema is used for the
// startup file and for runtime reconfiguration.
type Config struct {
	// Hardware sensor params
	SerialPort           *string `json:"serial_port,omitempty"`
	BaudRate             *int    `json:"baud_rate,omitempty"`
	ReconnectDelay       *string `json:"reconnect_delay,omitempty"` // duration string like "2s"
	MaxReconnectAttempts *int    `json:"max_reconnect_attempts,omitempty"`

	// Simulator params
	SimScenario    *string `json:"sim_scenario,omitempty"`
	SimSeed        *int64  `json:"sim_seed,omitempty"`
	SampleInterval *string `json:"sample_interval,omitempty"` // duration string like "20ms"

	// Measurement envelope
	MinDistanceCM *float64 `json:"min_distance_cm,omitempty"`
	MaxDistanceCM *float64 `json:"max_distance_cm,omitempty"`
	AngleMin      *int     `json:"angle_min,omitempty"`
	AngleMax      *int     `json:"angle_max,omitempty"`

	// Filtering params
	FilterPreset           *string  `json:"filter_preset,omitempty"`
	KalmanProcessNoise     *float64 `json:"kalman_process_noise,omitempty"`
	KalmanMeasurementNoise *float64 `json:"kalman_measurement_noise,omitempty"`

	// Router params
	SpikeThresholdCM *float64 `json:"spike_threshold_cm,omitempty"`

	// Display params
	DisplayUnits *string `json:"display_units,omitempty"`
}

// Empty returns a Config with all fields unset.
func Empty() *Config {
	return &Config{}
}

// Load reads a Config from a JSON file. The path must carry a .json
// extension and the file must be under the size cap.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that configured values are usable. Unset fields always
// pass since the getters supply defaults.
func (c *Config) Validate() error {
	if c.BaudRate != nil && *c.BaudRate <= 0 {
		return fmt.Errorf("baud_rate must be positive, got %d", *c.BaudRate)
	}

	if c.ReconnectDelay != nil && *c.ReconnectDelay != "" {
		if _, err := time.ParseDuration(*c.ReconnectDelay); err != nil {
			return fmt.Errorf("invalid reconnect_delay '%s': %w", *c.ReconnectDelay, err)
		}
	}

	if c.MaxReconnectAttempts != nil && *c.MaxReconnectAttempts < 0 {
		return fmt.Errorf("max_reconnect_attempts must be non-negative, got %d", *c.MaxReconnectAttempts)
	}

	if c.SampleInterval != nil && *c.SampleInterval != "" {
		if _, err := time.ParseDuration(*c.SampleInterval); err != nil {
			return fmt.Errorf("invalid sample_interval '%s': %w", *c.SampleInterval, err)
		}
	}

	if c.SimScenario != nil {
		valid := false
		for _, s := range sim.Scenarios() {
			if string(s) == *c.SimScenario {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("unknown sim_scenario %q (valid: %v)", *c.SimScenario, sim.Scenarios())
		}
	}

	if c.MinDistanceCM != nil && *c.MinDistanceCM < 0 {
		return fmt.Errorf("min_distance_cm must be non-negative, got %f", *c.MinDistanceCM)
	}
	if c.MinDistanceCM != nil && c.MaxDistanceCM != nil && *c.MaxDistanceCM <= *c.MinDistanceCM {
		return fmt.Errorf("max_distance_cm (%f) must exceed min_distance_cm (%f)", *c.MaxDistanceCM, *c.MinDistanceCM)
	}
	if c.AngleMin != nil && c.AngleMax != nil && *c.AngleMax <= *c.AngleMin {
		return fmt.Errorf("angle_max (%d) must exceed angle_min (%d)", *c.AngleMax, *c.AngleMin)
	}

	if c.FilterPreset != nil {
		valid := false
		for _, name := range filter.PresetNames() {
			if name == *c.FilterPreset {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("unknown filter_preset %q (valid: %v)", *c.FilterPreset, filter.PresetNames())
		}
	}

	if c.KalmanProcessNoise != nil && *c.KalmanProcessNoise <= 0 {
		return fmt.Errorf("kalman_process_noise must be positive, got %f", *c.KalmanProcessNoise)
	}
	if c.KalmanMeasurementNoise != nil && *c.KalmanMeasurementNoise <= 0 {
		return fmt.Errorf("kalman_measurement_noise must be positive, got %f", *c.KalmanMeasurementNoise)
	}

	if c.SpikeThresholdCM != nil && *c.SpikeThresholdCM <= 0 {
		return fmt.Errorf("spike_threshold_cm must be positive, got %f", *c.SpikeThresholdCM)
	}

	if c.DisplayUnits != nil && !units.IsValid(*c.DisplayUnits) {
		return fmt.Errorf("unknown display_units %q (valid: %s)", *c.DisplayUnits, units.GetValidUnitsString())
	}

	return nil
}

// GetBaudRate returns the configured baud rate or the default.
func (c *Config) GetBaudRate() int {
	if c.BaudRate == nil {
		return serialmux.DefaultBaudRate
	}
	return *c.BaudRate
}

// GetReconnectDelay parses the reconnect delay or returns the default.
func (c *Config) GetReconnectDelay() time.Duration {
	if c.ReconnectDelay == nil || *c.ReconnectDelay == "" {
		return ultrasonic.DefaultReconnectDelay
	}
	d, err := time.ParseDuration(*c.ReconnectDelay)
	if err != nil {
		return ultrasonic.DefaultReconnectDelay
	}
	return d
}

// GetMaxReconnectAttempts returns the reconnect cap, 0 meaning retry forever.
func (c *Config) GetMaxReconnectAttempts() int {
	if c.MaxReconnectAttempts == nil {
		return 0
	}
	return *c.MaxReconnectAttempts
}

// GetSimScenario returns the simulator scenario or the default.
func (c *Config) GetSimScenario() sim.Scenario {
	if c.SimScenario == nil || *c.SimScenario == "" {
		return sim.RealisticRoom
	}
	return sim.Scenario(*c.SimScenario)
}

// GetSimSeed returns the simulator seed, 0 meaning derive from the clock.
func (c *Config) GetSimSeed() int64 {
	if c.SimSeed == nil {
		return 0
	}
	return *c.SimSeed
}

// GetSampleInterval parses the simulator cadence or returns the default.
func (c *Config) GetSampleInterval() time.Duration {
	if c.SampleInterval == nil || *c.SampleInterval == "" {
		return sim.DefaultInterval
	}
	d, err := time.ParseDuration(*c.SampleInterval)
	if err != nil {
		return sim.DefaultInterval
	}
	return d
}

// GetFilterPreset returns the filter preset name or the default.
func (c *Config) GetFilterPreset() string {
	if c.FilterPreset == nil || *c.FilterPreset == "" {
		return filter.PresetStandard
	}
	return *c.FilterPreset
}

// GetSpikeThresholdCM returns the spike threshold or the default.
func (c *Config) GetSpikeThresholdCM() float64 {
	if c.SpikeThresholdCM == nil {
		return 0 // router applies its own default
	}
	return *c.SpikeThresholdCM
}

// GetDisplayUnits returns the display unit or the default.
func (c *Config) GetDisplayUnits() string {
	if c.DisplayUnits == nil || *c.DisplayUnits == "" {
		return units.CM
	}
	return *c.DisplayUnits
}

// Bounds assembles the measurement envelope from the configured fields,
// falling back to defaults per field.
func (c *Config) Bounds() sonar.Bounds {
	b := sonar.DefaultBounds()
	if c.MinDistanceCM != nil {
		b.MinDistance = *c.MinDistanceCM
	}
	if c.MaxDistanceCM != nil {
		b.MaxDistance = *c.MaxDistanceCM
	}
	if c.AngleMin != nil {
		b.AngleMin = *c.AngleMin
	}
	if c.AngleMax != nil {
		b.AngleMax = *c.AngleMax
	}
	return b
}

// PresetOptions assembles the tunable filter parameters from the configured
// fields.
func (c *Config) PresetOptions() filter.PresetOptions {
	opts := filter.PresetOptions{}
	if c.KalmanProcessNoise != nil {
		opts.KalmanProcessNoise = *c.KalmanProcessNoise
	}
	if c.KalmanMeasurementNoise != nil {
		opts.KalmanMeasurementNoise = *c.KalmanMeasurementNoise
	}
	return opts
}
