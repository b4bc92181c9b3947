package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/banshee-data/sonar.sweep/internal/sonar/filter"
	"github.com/banshee-data/sonar.sweep/internal/sonar/sim"
	"github.com/banshee-data/sonar.sweep/internal/units"
)

func writeConfigFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoadPartialConfig(t *testing.T) {
	path := writeConfigFile(t, "sonar.json", `{
		"serial_port": "/dev/ttyUSB0",
		"filter_preset": "heavy",
		"reconnect_delay": "5s"
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.SerialPort == nil || *cfg.SerialPort != "/dev/ttyUSB0" {
		t.Errorf("serial_port not loaded: %+v", cfg.SerialPort)
	}
	if got := cfg.GetFilterPreset(); got != filter.PresetHeavy {
		t.Errorf("GetFilterPreset() = %q, want %q", got, filter.PresetHeavy)
	}
	if got := cfg.GetReconnectDelay(); got != 5*time.Second {
		t.Errorf("GetReconnectDelay() = %v, want 5s", got)
	}

	// Everything omitted falls back to defaults.
	if got := cfg.GetBaudRate(); got != 250000 {
		t.Errorf("GetBaudRate() = %d, want 250000", got)
	}
	if got := cfg.GetSimScenario(); got != sim.RealisticRoom {
		t.Errorf("GetSimScenario() = %q, want %q", got, sim.RealisticRoom)
	}
	if got := cfg.GetDisplayUnits(); got != units.CM {
		t.Errorf("GetDisplayUnits() = %q, want cm", got)
	}
}

func TestLoadRejectsNonJSONExtension(t *testing.T) {
	path := writeConfigFile(t, "sonar.yaml", "{}")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for non-.json extension")
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := writeConfigFile(t, "sonar.json", "{not json")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"empty is valid", func(c *Config) {}, false},
		{"negative baud rate", func(c *Config) { c.BaudRate = ptrInt(-1) }, true},
		{"bad reconnect delay", func(c *Config) { c.ReconnectDelay = ptrString("soon") }, true},
		{"unknown scenario", func(c *Config) { c.SimScenario = ptrString("quiet_cave") }, true},
		{"known scenario", func(c *Config) { c.SimScenario = ptrString("very_noisy") }, false},
		{"inverted bounds", func(c *Config) {
			c.MinDistanceCM = ptrFloat64(100)
			c.MaxDistanceCM = ptrFloat64(50)
		}, true},
		{"inverted angles", func(c *Config) {
			c.AngleMin = ptrInt(90)
			c.AngleMax = ptrInt(45)
		}, true},
		{"unknown preset", func(c *Config) { c.FilterPreset = ptrString("extreme") }, true},
		{"zero kalman noise", func(c *Config) { c.KalmanProcessNoise = ptrFloat64(0) }, true},
		{"unknown units", func(c *Config) { c.DisplayUnits = ptrString("furlongs") }, true},
		{"valid units", func(c *Config) { c.DisplayUnits = ptrString("in") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Empty()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBoundsAssembly(t *testing.T) {
	cfg := Empty()
	cfg.MaxDistanceCM = ptrFloat64(400)

	b := cfg.Bounds()
	if b.MaxDistance != 400 {
		t.Errorf("MaxDistance = %f, want 400", b.MaxDistance)
	}
	if b.MinDistance != 2 {
		t.Errorf("MinDistance = %f, want default 2", b.MinDistance)
	}
	if b.AngleMin != 0 || b.AngleMax != 180 {
		t.Errorf("angles = [%d, %d], want defaults [0, 180]", b.AngleMin, b.AngleMax)
	}
}

func TestPresetOptionsAssembly(t *testing.T) {
	cfg := Empty()
	cfg.KalmanMeasurementNoise = ptrFloat64(25)

	opts := cfg.PresetOptions()
	if opts.KalmanMeasurementNoise != 25 {
		t.Errorf("KalmanMeasurementNoise = %f, want 25", opts.KalmanMeasurementNoise)
	}
	if opts.KalmanProcessNoise != 0 {
		t.Errorf("KalmanProcessNoise = %f, want 0 (preset fills default)", opts.KalmanProcessNoise)
	}
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrString(v string) *string    { return &v }
