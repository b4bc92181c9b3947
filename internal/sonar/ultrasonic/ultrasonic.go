// Package ultrasonic adapts an Arduino-hosted HC-SR04 sweep sensor into a
// sonar.Source. The device reports one reading per line as
// "<angle>,<distance>" over a serial link, and accepts mode and motor
// commands in the other direction. Connection loss is non-fatal: the adapter
// surfaces a status event and keeps retrying until stopped.
package ultrasonic

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/banshee-data/sonar.sweep/internal/monitoring"
	"github.com/banshee-data/sonar.sweep/internal/serialmux"
	"github.com/banshee-data/sonar.sweep/internal/sonar"
	"github.com/banshee-data/sonar.sweep/internal/timeutil"
)

// Commands understood by the sweep firmware.
const (
	CmdModeRadar   = "MODE:RADAR"
	CmdModeControl = "MODE:CONTROL"
)

// DefaultReconnectDelay is the pause between reconnect attempts.
const DefaultReconnectDelay = 2 * time.Second

// ErrNotConnected is returned by command sends while the serial link is down.
var ErrNotConnected = errors.New("sensor not connected")

// Options configures the adapter.
type Options struct {
	// Port carries the serial connection parameters (baud rate etc.).
	Port serialmux.PortOptions

	// ReconnectDelay is the pause between reconnect attempts. Defaults to
	// DefaultReconnectDelay.
	ReconnectDelay time.Duration

	// MaxReconnectAttempts caps consecutive failed reconnects before the
	// adapter gives up until the next Start. Zero retries forever.
	MaxReconnectAttempts int

	// Clock drives reconnect timing; tests install a mock.
	Clock timeutil.Clock

	// OpenMux overrides how the serial multiplexer is opened. Defaults to a
	// real port at the configured path; tests inject a fake.
	OpenMux func() (serialmux.Muxer, error)
}

// Sensor is the hardware sweep sensor adapter implementing sonar.Source.
type Sensor struct {
	portName string
	opts     Options

	samples chan sonar.Sample
	status  chan sonar.StatusEvent

	mu        sync.Mutex
	running   bool
	stop      chan struct{}
	done      chan struct{}
	latest    sonar.Sample
	hasLatest bool
	mux       serialmux.Muxer // nil while disconnected
	seq       uint64
}

// New builds an adapter for the device at portName.
func New(portName string, opts Options) *Sensor {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}
	s := &Sensor{
		portName: portName,
		opts:     opts,
		samples:  make(chan sonar.Sample, 64),
		status:   make(chan sonar.StatusEvent, 16),
	}
	if s.opts.OpenMux == nil {
		s.opts.OpenMux = func() (serialmux.Muxer, error) {
			return serialmux.NewRealSerialMux(portName, opts.Port)
		}
	}
	return s
}

// Start opens the serial port and begins decoding samples. Idempotent; a
// failed open leaves the adapter stopped and startable again.
func (s *Sensor) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}

	mux, err := s.opts.OpenMux()
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to open serial port %s: %w", s.portName, err)
	}

	s.running = true
	s.seq = 0 // fresh session
	s.mux = mux
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stop, s.done
	s.mu.Unlock()

	s.emit(sonar.StatusEvent{Kind: sonar.StatusConnection, Connected: true})
	go s.run(mux, stop, done)
	return nil
}

// Stop closes the serial link and halts production. Idempotent; no sample is
// sent after it returns.
func (s *Sensor) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stop, done := s.stop, s.done
	s.mu.Unlock()

	close(stop)
	<-done

	s.mu.Lock()
	s.mux = nil
	s.mu.Unlock()
	s.emit(sonar.StatusEvent{Kind: sonar.StatusConnection, Connected: false})
}

// LatestReading returns the most recent decoded sample.
func (s *Sensor) LatestReading() (sonar.Sample, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.hasLatest
}

// Samples returns the decoded sample stream.
func (s *Sensor) Samples() <-chan sonar.Sample {
	return s.samples
}

// Status returns the connection and error event stream.
func (s *Sensor) Status() <-chan sonar.StatusEvent {
	return s.status
}

// SendCommand forwards a raw command line to the device.
func (s *Sensor) SendCommand(cmd string) error {
	s.mu.Lock()
	mux := s.mux
	s.mu.Unlock()
	if mux == nil {
		return ErrNotConnected
	}
	return mux.SendCommand(cmd)
}

// Move sends a motor command M:<dir>:<speed>. dir must be one of F, B, L, R,
// S and speed must be in [0,255]; validation happens before any I/O.
func (s *Sensor) Move(dir byte, speed int) error {
	switch dir {
	case 'F', 'B', 'L', 'R', 'S':
	default:
		return fmt.Errorf("invalid direction %q: must be one of F, B, L, R, S", dir)
	}
	if speed < 0 || speed > 255 {
		return fmt.Errorf("invalid speed %d: must be in [0,255]", speed)
	}
	return s.SendCommand(fmt.Sprintf("M:%c:%d", dir, speed))
}

// run owns the connection lifecycle: serve the current link, and on failure
// keep reconnecting until stopped.
func (s *Sensor) run(mux serialmux.Muxer, stop, done chan struct{}) {
	defer close(done)

	attempts := 0
	for {
		err := s.serve(mux, stop)

		select {
		case <-stop:
			return
		default:
		}

		if err == nil {
			err = errors.New("serial connection closed")
		}
		s.emit(sonar.StatusEvent{Kind: sonar.StatusError, Err: err, Message: err.Error()})
		s.emit(sonar.StatusEvent{Kind: sonar.StatusConnection, Connected: false})
		s.setMux(nil)

		attempts++
		if s.opts.MaxReconnectAttempts > 0 && attempts >= s.opts.MaxReconnectAttempts {
			monitoring.Logf("[ultrasonic] giving up on %s after %d reconnect attempts", s.portName, attempts)
			return
		}

		timer := s.opts.Clock.NewTimer(s.opts.ReconnectDelay)
		select {
		case <-stop:
			timer.Stop()
			return
		case <-timer.C():
		}

		next, openErr := s.opts.OpenMux()
		if openErr != nil {
			s.emit(sonar.StatusEvent{
				Kind:    sonar.StatusError,
				Err:     openErr,
				Message: fmt.Sprintf("reconnect failed: %v", openErr),
			})
			continue
		}

		mux = next
		s.setMux(mux)
		s.emit(sonar.StatusEvent{Kind: sonar.StatusConnection, Connected: true})
		attempts = 0
	}
}

// serve pumps lines from one connection until it fails or stop closes.
// Returns nil only on stop.
func (s *Sensor) serve(mux serialmux.Muxer, stop chan struct{}) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	monErr := make(chan error, 1)
	go func() { monErr <- mux.Monitor(ctx) }()

	id, lines := mux.Subscribe()
	defer mux.Unsubscribe(id)

	// Put the device into sweep mode; a failure here surfaces as a
	// connection error on the next read.
	if err := mux.SendCommand(CmdModeRadar); err != nil {
		monitoring.Logf("[ultrasonic] failed to set radar mode on %s: %v", s.portName, err)
	}

	for {
		select {
		case <-stop:
			cancel()
			mux.Close()
			<-monErr // wait for the read loop; bounded, the port is closed
			return nil

		case err := <-monErr:
			mux.Close()
			return err

		case line, ok := <-lines:
			if !ok {
				return errors.New("line subscription closed")
			}
			s.handleLine(line)
		}
	}
}

func (s *Sensor) handleLine(line string) {
	sample, ok := parseLine(line)
	if !ok {
		// malformed lines are dropped silently; the stream continues
		return
	}

	s.mu.Lock()
	s.seq++
	sample.Seq = s.seq
	s.latest = sample
	s.hasLatest = true
	s.mu.Unlock()

	select {
	case s.samples <- sample:
	default:
		// drop rather than stall the serial read path when the consumer lags
	}
}

// parseLine decodes one device line of the form "<angle>,<distance>", with
// an integer degree angle and an integer or float distance in centimeters.
func parseLine(line string) (sonar.Sample, bool) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	if len(parts) != 2 {
		return sonar.Sample{}, false
	}

	angle, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return sonar.Sample{}, false
	}

	distance, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return sonar.Sample{}, false
	}

	return sonar.Sample{Angle: angle, Distance: distance}, true
}

func (s *Sensor) setMux(mux serialmux.Muxer) {
	s.mu.Lock()
	s.mux = mux
	s.mu.Unlock()
}

// emit delivers ev without ever blocking the acquisition path.
func (s *Sensor) emit(ev sonar.StatusEvent) {
	select {
	case s.status <- ev:
	default:
	}
}
