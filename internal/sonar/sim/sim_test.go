package sim

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/sonar.sweep/internal/sonar"
	"github.com/banshee-data/sonar.sweep/internal/testutil"
	"github.com/banshee-data/sonar.sweep/internal/timeutil"
)

func newTestSensor(t *testing.T, scenario Scenario, seed uint64) *Sensor {
	t.Helper()
	s, err := New(Options{Scenario: scenario, Seed: seed})
	if err != nil {
		t.Fatalf("New(%q) failed: %v", scenario, err)
	}
	return s
}

func generateN(s *Sensor, n int) []sonar.Sample {
	out := make([]sonar.Sample, n)
	for i := range out {
		out[i] = s.generate()
	}
	return out
}

func TestNewRejectsUnknownScenario(t *testing.T) {
	_, err := New(Options{Scenario: "haunted_house"})
	if err == nil {
		t.Fatal("expected error for unknown scenario")
	}
	if !errors.Is(err, ErrScenario) {
		t.Errorf("error %v should wrap ErrScenario", err)
	}
}

func TestEveryScenarioConstructs(t *testing.T) {
	for _, scenario := range Scenarios() {
		if _, err := New(Options{Scenario: scenario}); err != nil {
			t.Errorf("New(%q) failed: %v", scenario, err)
		}
	}
}

func TestDeterministicForFixedSeed(t *testing.T) {
	a := newTestSensor(t, RealisticRoom, 42)
	b := newTestSensor(t, RealisticRoom, 42)

	if diff := cmp.Diff(generateN(a, 500), generateN(b, 500)); diff != "" {
		t.Errorf("same seed produced different streams (-a +b):\n%s", diff)
	}
}

func TestDifferentSeedsDiffer(t *testing.T) {
	a := newTestSensor(t, NoisyWall, 1)
	b := newTestSensor(t, NoisyWall, 2)

	if diff := cmp.Diff(generateN(a, 100), generateN(b, 100)); diff == "" {
		t.Error("different seeds produced identical streams")
	}
}

func TestSweepOscillatesWithinRange(t *testing.T) {
	s := newTestSensor(t, CleanWall, 7)

	seenMin, seenMax := 180, 0
	var prev sonar.Sample
	for i, sample := range generateN(s, 400) {
		if sample.Angle < 0 || sample.Angle > 180 {
			t.Fatalf("angle %d outside sweep range", sample.Angle)
		}
		if sample.Angle < seenMin {
			seenMin = sample.Angle
		}
		if sample.Angle > seenMax {
			seenMax = sample.Angle
		}
		if i > 0 && sample.Seq != prev.Seq+1 {
			t.Fatalf("seq must increase monotonically: %d after %d", sample.Seq, prev.Seq)
		}
		prev = sample
	}

	if seenMin != 0 || seenMax != 180 {
		t.Errorf("sweep covered [%d,%d], want [0,180]", seenMin, seenMax)
	}
}

func TestCleanWallStaysNearBase(t *testing.T) {
	s := newTestSensor(t, CleanWall, 3)

	// sigma is ~2cm here; 12cm is a six sigma margin. The rare misfire
	// strays much further, so only the fraction is bounded, not every
	// sample.
	const n = 2000
	far := 0
	for _, sample := range generateN(s, n) {
		if sample.Distance < wallDistance-12 || sample.Distance > wallDistance+12 {
			far++
		}
	}
	if limit := n / 50; far > limit {
		t.Errorf("clean wall strayed beyond 12cm of %v in %d of %d samples, want at most %d",
			wallDistance, far, n, limit)
	}
}

// Every scenario must occasionally stray outside the distance bounds so the
// router's clipping gets exercised, the quiet ones included.
func TestEveryScenarioEmitsOutOfRangeValues(t *testing.T) {
	bounds := sonar.DefaultBounds()

	for _, scenario := range Scenarios() {
		s := newTestSensor(t, scenario, 11)

		outOfRange := 0
		for _, sample := range generateN(s, 10000) {
			if sample.Distance < bounds.MinDistance || sample.Distance > bounds.MaxDistance {
				outOfRange++
			}
		}
		if outOfRange == 0 {
			t.Errorf("%s never produced an out-of-range raw value in 10000 samples", scenario)
		}
	}
}

func TestMovingObstacleOccludesWall(t *testing.T) {
	s := newTestSensor(t, MovingObstacle, 5)

	near, far := 0, 0
	for _, sample := range generateN(s, 2000) {
		if sample.Distance < 80 {
			near++
		} else if sample.Distance > 120 {
			far++
		}
	}
	if near == 0 || far == 0 {
		t.Errorf("expected both wall and obstacle readings, got near=%d far=%d", near, far)
	}
}

func TestLifecycleWithMockClock(t *testing.T) {
	clock := timeutil.NewMockClock(time.Now())
	s, err := New(Options{Scenario: CleanWall, Seed: 1, Clock: clock})
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := s.LatestReading(); ok {
		t.Error("LatestReading before start should report no sample")
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("second Start must be a no-op, got %v", err)
	}

	ev := testutil.WaitForStatus(t, s.Status(), func(ev sonar.StatusEvent) bool {
		return ev.Kind == sonar.StatusConnection
	}, time.Second)
	if !ev.Connected {
		t.Error("expected connected=true after Start")
	}

	var collected []sonar.Sample
	for i := 0; i < 5; i++ {
		clock.Advance(DefaultInterval)
		collected = append(collected, testutil.CollectSamples(t, s.Samples(), 1, time.Second)...)
	}

	for i := 1; i < len(collected); i++ {
		if collected[i].Seq != collected[i-1].Seq+1 {
			t.Errorf("samples out of order: seq %d after %d", collected[i].Seq, collected[i-1].Seq)
		}
	}

	latest, ok := s.LatestReading()
	if !ok {
		t.Fatal("LatestReading should report a sample after production")
	}
	if latest.Seq != collected[len(collected)-1].Seq {
		t.Errorf("LatestReading seq = %d, want %d", latest.Seq, collected[len(collected)-1].Seq)
	}

	s.Stop()
	testutil.WaitForStatus(t, s.Status(), func(ev sonar.StatusEvent) bool {
		return ev.Kind == sonar.StatusConnection && !ev.Connected
	}, time.Second)

	// No sample may be delivered after Stop returns.
	clock.Advance(10 * DefaultInterval)
	select {
	case sample := <-s.Samples():
		t.Errorf("sample %+v delivered after Stop", sample)
	case <-time.After(50 * time.Millisecond):
	}

	s.Stop() // idempotent
}

func TestStopBeforeStartIsNoop(t *testing.T) {
	s := newTestSensor(t, CleanWall, 1)
	s.Stop()
}

func TestSendCommandIsNoop(t *testing.T) {
	s := newTestSensor(t, CleanWall, 1)
	if err := s.SendCommand("MODE:RADAR"); err != nil {
		t.Errorf("SendCommand returned %v", err)
	}
}
