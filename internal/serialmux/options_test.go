package serialmux

import (
	"testing"

	"go.bug.st/serial"
)

func TestNormalizeDefaults(t *testing.T) {
	opts, err := PortOptions{}.Normalize()
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if opts.BaudRate != DefaultBaudRate {
		t.Errorf("BaudRate = %d, want %d", opts.BaudRate, DefaultBaudRate)
	}
	if opts.DataBits != 8 || opts.StopBits != 1 || opts.Parity != "N" {
		t.Errorf("defaults = %+v, want 8N1", opts)
	}
}

func TestNormalizeParityAliases(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "N"},
		{"none", "N"},
		{"even", "E"},
		{"E", "E"},
		{"odd", "O"},
		{" n ", "N"},
	}
	for _, tc := range tests {
		opts, err := PortOptions{Parity: tc.in}.Normalize()
		if err != nil {
			t.Errorf("Normalize(parity=%q) failed: %v", tc.in, err)
			continue
		}
		if opts.Parity != tc.want {
			t.Errorf("Normalize(parity=%q) = %q, want %q", tc.in, opts.Parity, tc.want)
		}
	}
}

func TestNormalizeRejectsInvalid(t *testing.T) {
	invalid := []PortOptions{
		{DataBits: 4},
		{DataBits: 9},
		{StopBits: 3},
		{Parity: "M"},
	}
	for _, opts := range invalid {
		if _, err := opts.Normalize(); err == nil {
			t.Errorf("Normalize(%+v) succeeded, want error", opts)
		}
	}
}

func TestPortOptionsEqual(t *testing.T) {
	a := PortOptions{}
	b := PortOptions{BaudRate: DefaultBaudRate, DataBits: 8, StopBits: 1, Parity: "none"}
	if !a.Equal(b) {
		t.Error("normalized-equal options reported unequal")
	}

	c := PortOptions{BaudRate: 9600}
	if a.Equal(c) {
		t.Error("different baud rates reported equal")
	}
}

func TestSerialMode(t *testing.T) {
	mode, err := PortOptions{StopBits: 2, Parity: "even"}.SerialMode()
	if err != nil {
		t.Fatalf("SerialMode failed: %v", err)
	}
	if mode.BaudRate != DefaultBaudRate {
		t.Errorf("BaudRate = %d", mode.BaudRate)
	}
	if mode.StopBits != serial.TwoStopBits {
		t.Errorf("StopBits = %v, want TwoStopBits", mode.StopBits)
	}
	if mode.Parity != serial.EvenParity {
		t.Errorf("Parity = %v, want EvenParity", mode.Parity)
	}
}
