package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"glidenav/internal/ahrs"
	"glidenav/internal/flightobserver"
	"glidenav/internal/magcal"
	"glidenav/internal/navconfig"
	"glidenav/internal/navlog"
	"glidenav/internal/nmea"
	"glidenav/internal/scenario"
	"glidenav/internal/vecmat"
)

func testNavConfig() navconfig.Config {
	cfg := navconfig.Config{
		SampleTime:                 0.01,
		VerticalEnergyTuningFactor: 1,
	}
	cfg.Gains.P = 0.1
	cfg.Gains.I = 0.001
	cfg.Thresholds.HighTurnRate = 0.2
	cfg.Thresholds.LowTurnRate = 0.1
	cfg.Thresholds.CircleLimit = 50
	cfg.AngleFilterDecay = 0.98
	cfg.GLoadFilterDecay = 0.98
	return cfg
}

func TestBuiltinScenarioKnownNames(t *testing.T) {
	for _, name := range []string{"level", "turn", "gnss-loss"} {
		s, err := builtinScenario(name)
		if err != nil {
			t.Fatalf("builtinScenario(%q) returned error: %v", name, err)
		}
		n := len(s.T)
		if len(s.Roll) != n || len(s.Pitch) != n || len(s.Yaw) != n || len(s.TAS) != n || len(s.Altitude) != n {
			t.Fatalf("builtinScenario(%q) has mismatched waypoint slice lengths", name)
		}
	}
}

func TestBuiltinScenarioRejectsUnknownName(t *testing.T) {
	if _, err := builtinScenario("nonexistent"); err == nil {
		t.Fatalf("builtinScenario(nonexistent) should error")
	}
}

func TestBuildFlightObserverConfigCarriesSampleTimeAndTuning(t *testing.T) {
	cfg := testNavConfig()
	cfg.SampleTime = 0.02
	cfg.VerticalEnergyTuningFactor = 1.3
	foCfg := buildFlightObserverConfig(cfg)
	if foCfg.Ts != 0.02 {
		t.Fatalf("Ts = %v, want 0.02", foCfg.Ts)
	}
	if foCfg.VerticalEnergyTuningFactor != 1.3 {
		t.Fatalf("VerticalEnergyTuningFactor = %v, want 1.3", foCfg.VerticalEnergyTuningFactor)
	}
	if foCfg.PressureRAlt <= foCfg.GNSSRAlt {
		t.Fatalf("pressure altitude noise (%v) should exceed GNSS altitude noise (%v)", foCfg.PressureRAlt, foCfg.GNSSRAlt)
	}
}

func TestRunSimLevelScenarioProducesValidNMEA(t *testing.T) {
	cfg := testNavConfig()
	scenarioSampleTime = cfg.SampleTime

	s := &scenario.Scenario{
		T:                []float64{0, 1},
		Roll:             []float64{0, 0},
		Pitch:            []float64{0, 0},
		Yaw:              []float64{0, 0},
		TAS:              []float64{50, 50},
		Altitude:         []float64{1000, 1000},
		WindNorth:        []float64{0, 0},
		WindEast:         []float64{0, 0},
		GNSSHeadingValid: []bool{false, false},
		MagValid:         []bool{true, true},
	}
	source := &scenarioSource{ticker: scenario.NewTicker(s, cfg.SampleTime)}

	ahrsEngine := ahrs.New(cfg, magcal.Calibration{}, navlog.NewLogReporter(nil))
	foEngine := flightobserver.New(buildFlightObserverConfig(cfg))

	var buf bytes.Buffer
	out := bufio.NewWriter(&buf)
	run(context.Background(), ahrsEngine, foEngine, source, out)
	out.Flush()

	lines := strings.Split(strings.TrimRight(buf.String(), "\r\n"), "\r\n")
	if len(lines) == 0 {
		t.Fatalf("run produced no NMEA output")
	}
	for _, line := range lines {
		if !nmea.Valid(line + "\r\n") {
			t.Fatalf("sentence %q failed checksum validation", line)
		}
	}
}

func TestReplaySourceDecodesLine(t *testing.T) {
	rec := replayRecord{
		AHRS: ahrs.Input{
			Acc: vecmat.NewVector3(0, 0, -9.81),
			Mag: vecmat.NewVector3(1, 0, 0),
		},
		FlightObserver: flightobserver.Input{
			TAS: 30, IAS: 30, GNSSFixAvailable: true,
			HeadingVector: vecmat.NewVector3(1, 0, 0),
		},
		Coordinates: nmea.Coordinates{FixValid: true, Latitude: 48, Longitude: 9},
	}
	line, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	src := &replaySource{scanner: bufio.NewScanner(strings.NewReader(string(line) + "\n"))}
	got, ok, err := src.Next()
	if err != nil {
		t.Fatalf("Next returned error: %v", err)
	}
	if !ok {
		t.Fatalf("Next reported no tick for a single-line reader")
	}
	if got.FlightObserver.TAS != 30 {
		t.Fatalf("TAS = %v, want 30", got.FlightObserver.TAS)
	}
	if !got.Coordinates.FixValid {
		t.Fatalf("Coordinates.FixValid = false, want true")
	}

	if _, ok, err := src.Next(); err != nil || ok {
		t.Fatalf("Next on exhausted reader = (ok=%v, err=%v), want (false, nil)", ok, err)
	}
}

func TestReplaySourceSkipsBlankLines(t *testing.T) {
	rec := replayRecord{FlightObserver: flightobserver.Input{TAS: 10}}
	line, _ := json.Marshal(rec)
	src := &replaySource{scanner: bufio.NewScanner(strings.NewReader("\n" + string(line) + "\n"))}
	got, ok, err := src.Next()
	if err != nil || !ok {
		t.Fatalf("Next = (ok=%v, err=%v), want (true, nil)", ok, err)
	}
	if got.FlightObserver.TAS != 10 {
		t.Fatalf("TAS = %v, want 10", got.FlightObserver.TAS)
	}
}
