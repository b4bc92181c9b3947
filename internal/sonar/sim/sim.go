// Package sim provides a synthetic sweep sensor that reproduces the noise
// profile of an HC-SR04 on a servo without any hardware attached. Named
// scenarios cover everything from a clean wall to a full room with moving
// objects, so the filtering pipeline can be exercised and demonstrated
// offline.
package sim

import (
	"math/rand/v2"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/banshee-data/sonar.sweep/internal/monitoring"
	"github.com/banshee-data/sonar.sweep/internal/sonar"
	"github.com/banshee-data/sonar.sweep/internal/timeutil"
)

// DefaultInterval is the synthetic sweep cadence, roughly 50 readings per
// second.
const DefaultInterval = 20 * time.Millisecond

// Options configures a simulated sensor.
type Options struct {
	// Scenario names the noise preset. Required.
	Scenario Scenario

	// Seed makes the generated stream deterministic for a fixed scenario.
	Seed uint64

	// Interval is the time between readings. Defaults to DefaultInterval.
	Interval time.Duration

	// Bounds is the measurement envelope the scenario targets. Defaults to
	// sonar.DefaultBounds. Generated raw values intentionally stray outside
	// the distance bounds now and then; clipping is the router's job.
	Bounds sonar.Bounds

	// Clock drives the cadence. Defaults to the real clock; tests install a
	// timeutil.MockClock to advance time manually.
	Clock timeutil.Clock
}

// Sensor is a simulated sweep sensor implementing sonar.Source.
type Sensor struct {
	opts    Options
	profile profile

	rng   *rand.Rand
	noise distuv.Normal

	samples chan sonar.Sample
	status  chan sonar.StatusEvent

	mu        sync.Mutex
	running   bool
	stop      chan struct{}
	done      chan struct{}
	latest    sonar.Sample
	hasLatest bool

	// Generator state, touched only by the run goroutine.
	seq         uint64
	angle       int
	direction   int
	tick        uint64
	objectAngle float64
	objectDir   float64
}

// New builds a simulated sensor for the named scenario. An unknown scenario
// is a configuration error, reported before anything starts.
func New(opts Options) (*Sensor, error) {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Bounds.Range() <= 0 {
		opts.Bounds = sonar.DefaultBounds()
	}
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}

	profile, err := scenarioProfile(opts.Scenario, opts.Bounds)
	if err != nil {
		return nil, err
	}

	src := rand.NewPCG(opts.Seed, opts.Seed)
	s := &Sensor{
		opts:    opts,
		profile: profile,
		rng:     rand.New(src),
		noise: distuv.Normal{
			Mu:    0,
			Sigma: profile.sigma,
			Src:   src,
		},
		samples:     make(chan sonar.Sample, 64),
		status:      make(chan sonar.StatusEvent, 16),
		angle:       opts.Bounds.AngleMin,
		direction:   1,
		objectAngle: 90,
		objectDir:   1,
	}
	return s, nil
}

// Start begins synthetic sample production. Idempotent.
func (s *Sensor) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	s.running = true
	s.seq = 0 // fresh session
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	// The ticker is created here rather than in the goroutine so that it
	// exists before Start returns; a mock clock advanced right after Start
	// must always reach it.
	ticker := s.opts.Clock.NewTicker(s.opts.Interval)

	s.emitStatus(sonar.StatusEvent{Kind: sonar.StatusConnection, Connected: true})
	go s.run(ticker, s.stop, s.done)
	return nil
}

// Stop terminates production. Idempotent; no sample is sent after it
// returns.
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
	s.emitStatus(sonar.StatusEvent{Kind: sonar.StatusConnection, Connected: false})
	s.mu.Unlock()
}

// LatestReading returns the most recent generated sample.
func (s *Sensor) LatestReading() (sonar.Sample, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.hasLatest
}

// Samples returns the synthetic sample stream.
func (s *Sensor) Samples() <-chan sonar.Sample {
	return s.samples
}

// Status returns the connection event stream.
func (s *Sensor) Status() <-chan sonar.StatusEvent {
	return s.status
}

// SendCommand is a no-op; the simulated sensor has no device to talk to.
func (s *Sensor) SendCommand(cmd string) error {
	monitoring.Logf("[sim] ignoring command %q", cmd)
	return nil
}

func (s *Sensor) run(ticker timeutil.Ticker, stop, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			sample := s.generate()

			s.mu.Lock()
			s.latest = sample
			s.hasLatest = true
			s.mu.Unlock()

			select {
			case s.samples <- sample:
			default:
				// drop rather than stall the generator when the consumer lags
			}
		}
	}
}

// generate produces the next reading and advances the sweep.
func (s *Sensor) generate() sonar.Sample {
	angle := s.angle

	distance := s.profile.base(s, angle) + s.noise.Rand()
	if s.profile.outlierRate > 0 && s.rng.Float64() < s.profile.outlierRate {
		distance = s.outlier()
	}

	s.angle += s.direction
	if s.angle >= s.opts.Bounds.AngleMax {
		s.direction = -1
	} else if s.angle <= s.opts.Bounds.AngleMin {
		s.direction = 1
	}
	s.tick++
	s.seq++

	return sonar.Sample{Angle: angle, Distance: distance, Seq: s.seq}
}

// outlier fakes the misfires an HC-SR04 produces: a sudden close echo
// or a sudden far one. Each kind deliberately strays past the configured
// distance bounds part of the time so downstream clipping gets exercised.
func (s *Sensor) outlier() float64 {
	b := s.opts.Bounds
	if s.rng.Float64() < 0.5 {
		low := b.MinDistance / 4
		return low + s.rng.Float64()*(15-low)
	}
	return b.MaxDistance*0.9 + s.rng.Float64()*(b.MaxDistance*0.2)
}

// emitStatus delivers ev without ever blocking the caller. Callers hold s.mu.
func (s *Sensor) emitStatus(ev sonar.StatusEvent) {
	select {
	case s.status <- ev:
	default:
	}
}
