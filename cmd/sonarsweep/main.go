package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/sonar.sweep/internal/config"
	"github.com/banshee-data/sonar.sweep/internal/serialmux"
	"github.com/banshee-data/sonar.sweep/internal/sonar"
	"github.com/banshee-data/sonar.sweep/internal/sonar/filter"
	"github.com/banshee-data/sonar.sweep/internal/sonar/router"
	"github.com/banshee-data/sonar.sweep/internal/sonar/sim"
	"github.com/banshee-data/sonar.sweep/internal/sonar/ultrasonic"
	"github.com/banshee-data/sonar.sweep/internal/units"
	"github.com/banshee-data/sonar.sweep/internal/version"
)

var (
	simScenario = flag.String("sim", "", "Run with the simulated sensor using this scenario (clean_wall, noisy_wall, very_noisy, moving_obstacle, realistic_room)")
	portName    = flag.String("port", "", "Serial port of the sweep sensor (auto-detected when empty)")
	baudRate    = flag.Int("baud", 0, "Serial baud rate (0 uses the configured or default rate)")
	configPath  = flag.String("config", "", "Path to a JSON config file")
	presetName  = flag.String("preset", "", "Filter preset: none, light, standard, heavy, kalman")
	unitsFlag   = flag.String("units", "", "Display units: cm, m, in")
	simSeed     = flag.Int64("seed", 0, "Simulator random seed (0 derives from the clock)")
	showRaw     = flag.Bool("raw", false, "Log the raw stream alongside the filtered one")
	showVersion = flag.Bool("version", false, "Print version information and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("sonarsweep %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	cfg := config.Empty()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	preset := cfg.GetFilterPreset()
	if *presetName != "" {
		preset = *presetName
	}
	chain, err := filter.Preset(preset, cfg.PresetOptions())
	if err != nil {
		log.Fatalf("failed to build filter preset %q: %v", preset, err)
	}

	displayUnits := cfg.GetDisplayUnits()
	if *unitsFlag != "" {
		if !units.IsValid(*unitsFlag) {
			log.Fatalf("unknown units %q (valid: %s)", *unitsFlag, units.GetValidUnitsString())
		}
		displayUnits = *unitsFlag
	}

	src, err := buildSource(cfg)
	if err != nil {
		log.Fatalf("failed to build sensor source: %v", err)
	}

	hub := router.New(router.Options{
		Bounds:         cfg.Bounds(),
		Chain:          chain,
		SpikeThreshold: cfg.GetSpikeThresholdCM(),
	})

	hub.SubscribeStatus(func(ev sonar.StatusEvent) {
		switch ev.Kind {
		case sonar.StatusConnection:
			log.Printf("sensor connected=%v", ev.Connected)
		case sonar.StatusError:
			log.Printf("sensor error: %v", ev.Err)
		case sonar.StatusWarning:
			log.Printf("warning: %s", ev.Message)
		}
	})
	if *showRaw {
		hub.SubscribeRaw(func(s sonar.Sample) {
			log.Printf("raw      angle=%3d distance=%s", s.Angle, units.FormatDistance(s.Distance, displayUnits))
		})
	}
	hub.SubscribeFiltered(func(s sonar.Sample) {
		log.Printf("filtered angle=%3d distance=%s", s.Angle, units.FormatDistance(s.Distance, displayUnits))
	})

	log.Printf("starting sonarsweep with filter chain %s", chain.Name())
	if err := hub.SetSource(src); err != nil {
		log.Fatalf("failed to start sensor: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	if err := hub.Close(); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	stats := hub.Stats()
	log.Printf("processed %d readings, %d spikes detected, %.1fcm total noise removed",
		stats.ReadingsProcessed, stats.SpikesDetected, stats.NoiseFiltered)
	log.Print("graceful shutdown complete")
}

// buildSource picks the simulator or the hardware adapter from flags and
// config. Flags win over config.
func buildSource(cfg *config.Config) (sonar.Source, error) {
	if *simScenario != "" {
		return sim.New(sim.Options{
			Scenario: sim.Scenario(*simScenario),
			Seed:     seedValue(cfg),
			Interval: cfg.GetSampleInterval(),
			Bounds:   cfg.Bounds(),
		})
	}

	port := *portName
	if port == "" && cfg.SerialPort != nil {
		port = *cfg.SerialPort
	}
	if port == "" {
		detected, err := serialmux.FindSensorPort()
		if err != nil {
			return nil, fmt.Errorf("no serial port given and auto-detect failed: %w", err)
		}
		log.Printf("auto-detected sensor port %s", detected)
		port = detected
	}

	baud := cfg.GetBaudRate()
	if *baudRate > 0 {
		baud = *baudRate
	}

	return ultrasonic.New(port, ultrasonic.Options{
		Port:                 serialmux.PortOptions{BaudRate: baud},
		ReconnectDelay:       cfg.GetReconnectDelay(),
		MaxReconnectAttempts: cfg.GetMaxReconnectAttempts(),
	}), nil
}

func seedValue(cfg *config.Config) uint64 {
	if *simSeed != 0 {
		return uint64(*simSeed)
	}
	if s := cfg.GetSimSeed(); s != 0 {
		return uint64(s)
	}
	return uint64(os.Getpid())
}
