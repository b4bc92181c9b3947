package sim

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/sonar.sweep/internal/sonar"
)

// ErrScenario is returned when a sensor is built with an unrecognized
// scenario name. Like filter configuration problems, it surfaces at
// construction time only.
var ErrScenario = errors.New("unknown simulation scenario")

// Scenario names a synthetic noise preset.
type Scenario string

const (
	// CleanWall is a flat wall with minimal jitter, the baseline case.
	CleanWall Scenario = "clean_wall"
	// NoisyWall is a wall with typical HC-SR04 jitter and rare spikes.
	NoisyWall Scenario = "noisy_wall"
	// VeryNoisy is a stress test: heavy jitter and frequent outliers.
	VeryNoisy Scenario = "very_noisy"
	// MovingObstacle is a wall with an object sweeping back and forth in
	// front of it.
	MovingObstacle Scenario = "moving_obstacle"
	// RealisticRoom is a trapezoidal room with a pillar and a periodically
	// appearing moving object.
	RealisticRoom Scenario = "realistic_room"
)

// Scenarios lists the recognized scenario names.
func Scenarios() []Scenario {
	return []Scenario{CleanWall, NoisyWall, VeryNoisy, MovingObstacle, RealisticRoom}
}

// wallDistance is the base reading for the static wall scenarios.
const wallDistance = 100.0

// profile is a scenario's generation rule: jitter sigma, outlier rate, and
// the base distance as a function of sweep angle and generator state.
type profile struct {
	sigma       float64
	outlierRate float64
	base        func(s *Sensor, angle int) float64
}

func scenarioProfile(name Scenario, bounds sonar.Bounds) (profile, error) {
	flatWall := func(*Sensor, int) float64 { return wallDistance }

	switch name {
	case CleanWall:
		// Even the clean scenario misfires now and then; the jitter alone
		// never reaches the bounds, so downstream clipping would otherwise
		// go unexercised.
		return profile{
			sigma:       0.01 * bounds.Range(),
			outlierRate: 0.005,
			base:        flatWall,
		}, nil

	case NoisyWall:
		return profile{
			sigma:       5,
			outlierRate: 0.03,
			base:        flatWall,
		}, nil

	case VeryNoisy:
		return profile{
			sigma:       15,
			outlierRate: 0.10,
			base:        flatWall,
		}, nil

	case MovingObstacle:
		return profile{
			sigma:       5,
			outlierRate: 0.03,
			base:        movingObstacleBase,
		}, nil

	case RealisticRoom:
		return profile{
			sigma:       5,
			outlierRate: 0.05,
			base:        realisticRoomBase,
		}, nil

	default:
		return profile{}, fmt.Errorf("%w: %q", ErrScenario, name)
	}
}

// movingObstacleBase is a wall at 150cm with a 20 degree wide object sweeping
// between 40 and 140 degrees in front of it.
func movingObstacleBase(s *Sensor, angle int) float64 {
	const wall = 150.0

	s.objectAngle += s.objectDir * 0.5
	if s.objectAngle > 140 {
		s.objectDir = -1
	} else if s.objectAngle < 40 {
		s.objectDir = 1
	}

	if math.Abs(float64(angle)-s.objectAngle) < 10 {
		return 50
	}
	return wall
}

// realisticRoomBase models a trapezoidal room: angled side walls, a curved
// back wall, a pillar around 65 degrees, and a moving object that appears
// every third cycle.
func realisticRoomBase(s *Sensor, angle int) float64 {
	var base float64
	switch {
	case angle < 30:
		base = 40 + float64(angle)*2
	case angle > 150:
		base = 40 + float64(180-angle)*2
	default:
		base = 100 + 20*math.Sin(degToRad(float64(angle)*2))
	}

	if angle >= 55 && angle <= 75 {
		pillar := 45 + math.Abs(float64(angle)-65)*2
		base = math.Min(base, pillar)
	}

	if (s.tick/100)%3 == 0 {
		center := 90 + 30*math.Sin(float64(s.tick)*0.05)
		if offset := math.Abs(float64(angle) - center); offset < 15 {
			base = math.Min(base, 35+offset*2)
		}
	}

	return base
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}
