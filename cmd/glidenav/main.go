// Command glidenav is the navigation engine's process entry point: it
// loads configuration and calibration, runs the AHRS/flight-observer
// pipeline tick by tick, and writes NMEA sentences to its output.
// Grounded on cmd/stratux-ng/main.go's config-load-then-run shape.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"glidenav/internal/ahrs"
	"glidenav/internal/calstore"
	"glidenav/internal/flightobserver"
	"glidenav/internal/magcal"
	"glidenav/internal/navconfig"
	"glidenav/internal/navlog"
	"glidenav/internal/nmea"
	"glidenav/internal/scenario"
	"glidenav/internal/vecmat"
)

func main() {
	var (
		configPath   string
		mode         string
		scenarioName string
		inputPath    string
		outputPath   string
	)
	flag.StringVar(&configPath, "config", "./glidenav.yaml", "Path to YAML config")
	flag.StringVar(&mode, "mode", "sim", "Run mode: sim or replay")
	flag.StringVar(&scenarioName, "scenario", "level", "Built-in scenario for -mode sim: level, turn or gnss-loss")
	flag.StringVar(&inputPath, "input", "", "Line-delimited JSON tick file for -mode replay")
	flag.StringVar(&outputPath, "out", "-", "NMEA output destination, '-' for stdout")
	flag.Parse()

	cfg, err := navconfig.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	store := calibrationStore(cfg)
	cal, err := store.Load()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Fatalf("calibration load failed: %v", err)
		}
		log.Printf("no persisted calibration at %s, starting cold", cfg.Calibration.Path)
		cal = magcal.Calibration{}
	}

	out, err := openOutput(outputPath)
	if err != nil {
		log.Fatalf("output open failed: %v", err)
	}
	defer out.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	reporter := navlog.NewLogReporter(nil)
	ahrsEngine := ahrs.New(cfg, cal, reporter)
	foEngine := flightobserver.New(buildFlightObserverConfig(cfg))

	var source tickSource
	switch mode {
	case "sim":
		s, err := builtinScenario(scenarioName)
		if err != nil {
			log.Fatalf("%v", err)
		}
		scenarioSampleTime = cfg.SampleTime
		source = &scenarioSource{ticker: scenario.NewTicker(s, cfg.SampleTime)}
	case "replay":
		if inputPath == "" {
			log.Fatalf("-mode replay requires -input")
		}
		f, err := os.Open(inputPath)
		if err != nil {
			log.Fatalf("replay input open failed: %v", err)
		}
		defer f.Close()
		source = &replaySource{scanner: bufio.NewScanner(f)}
	default:
		log.Fatalf("unknown -mode %q, want sim or replay", mode)
	}

	log.Printf("glidenav starting mode=%s", mode)
	run(ctx, ahrsEngine, foEngine, source, bufio.NewWriter(out))

	if err := store.Save(ahrsEngine.Calibration()); err != nil {
		log.Printf("calibration save failed: %v", err)
	}
	log.Printf("glidenav stopping")
}

func calibrationStore(cfg navconfig.Config) calstore.Store {
	if cfg.Calibration.Path == "" {
		return calstore.NewMemStore(magcal.Calibration{})
	}
	return calstore.NewFileStore(cfg.Calibration.Path)
}

func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// buildFlightObserverConfig fills in the fixed process/measurement noise
// spec.md §4.5-4.6 describe as "chosen per instance" rather than
// runtime-configurable, leaving only the two values spec.md §6 does list
// as configuration parameters (sample time, vertical energy tuning) to
// come from cfg.
func buildFlightObserverConfig(cfg navconfig.Config) flightobserver.Config {
	return flightobserver.Config{
		Ts: cfg.SampleTime,

		PressureQAlt: 1e-4, PressureQVario: 1e-2, PressureQAccel: 1e-1,
		PressureRAlt: 0.5, PressureRVario: 0.1, PressureRAccel: 0.2,
		GNSSQAlt: 1e-4, GNSSQVario: 1e-2, GNSSQAccel: 1e-1,
		GNSSRAlt: 0.2, GNSSRVario: 0.05, GNSSRAccel: 0.2,

		HorizQVel: 1e-3, HorizQAccel: 1e-2, HorizQOffset: 1e-4,
		HorizRVel: 0.2, HorizRAccel: 0.1,

		VarioAveragerDecay:         0.9,
		SpeedCompBlenderDecay:      0.9,
		VerticalEnergyTuningFactor: cfg.VerticalEnergyTuningFactor,
	}
}

// tick is one pipeline step's worth of decoded sensor input, independent
// of whether it came from a synthetic scenario or a replay file.
type tick struct {
	AHRS           ahrs.Input
	FlightObserver flightobserver.Input
	Coordinates    nmea.Coordinates

	StaticPressurePa, PitotPressurePa float64
	SupplyVoltage                     float64
	AirDataAvailable                  bool
	HumidityPercent, TemperatureC     float64
}

// tickSource yields decoded ticks until it is exhausted.
type tickSource interface {
	Next() (tick, bool, error)
}

// scenarioSource drives a scenario.Ticker and dead-reckons a ground
// track from GNSS velocity, since spec.md's Non-goals put GNSS-fix
// synthesis and position tracking out of scope for the pipeline itself
// but the demo command still needs coordinates to hand the formatter.
type scenarioSource struct {
	ticker      *scenario.Ticker
	lat, lon    float64
	clock       time.Time
	initialized bool
}

const earthRadiusMeters = 6371000.0

func (s *scenarioSource) Next() (tick, bool, error) {
	if s.ticker.Done() {
		return tick{}, false, nil
	}
	st, err := s.ticker.Next()
	if err != nil {
		return tick{}, false, err
	}
	if !s.initialized {
		s.lat, s.lon = 48.0, 9.0
		s.clock = time.Now().UTC()
		s.initialized = true
	}

	return s.tickFrom(st), true, nil
}

// tickFrom converts one scenario.Tick into the pipeline-neutral tick,
// integrating GNSS velocity into a flat-earth ground track for display
// purposes only.
func (s *scenarioSource) tickFrom(st scenario.Tick) tick {
	v := st.FlightObserver.GNSSVelocity
	dtSeconds := scenarioSampleTime
	s.lat += (v.E[vecmat.NORTH] * dtSeconds) / earthRadiusMeters * 180 / math.Pi
	cosLat := math.Cos(s.lat * math.Pi / 180)
	if cosLat < 1e-6 {
		cosLat = 1e-6
	}
	s.lon += (v.E[vecmat.EAST] * dtSeconds) / (earthRadiusMeters * cosLat) * 180 / math.Pi
	s.clock = s.clock.Add(time.Duration(dtSeconds * float64(time.Second)))

	heading := math.Atan2(v.E[vecmat.EAST], v.E[vecmat.NORTH])
	speed := math.Hypot(v.E[vecmat.NORTH], v.E[vecmat.EAST])

	return tick{
		AHRS:           st.AHRS,
		FlightObserver: st.FlightObserver,
		Coordinates: nmea.Coordinates{
			Hour: s.clock.Hour(), Minute: s.clock.Minute(), Second: s.clock.Second(),
			FixValid:      true,
			Latitude:      s.lat,
			Longitude:     s.lon,
			SpeedMotion:   speed,
			HeadingMotion: heading,
			Day:           s.clock.Day(), Month: int(s.clock.Month()), Year: s.clock.Year(),
			SatFixType:  1,
			SatsNumber:  8,
			AltitudeMSL: st.Altitude,
		},
		StaticPressurePa: 101325 - st.Altitude*12,
		PitotPressurePa:  speed * speed * 0.6,
		SupplyVoltage:    12.6,
		AirDataAvailable: true,
		HumidityPercent:  45,
		TemperatureC:     15,
	}
}

// scenarioSampleTime mirrors the Ts a scenario.Ticker was built with;
// the demo command always drives sim mode at cfg.SampleTime, so main
// sets this once before running.
var scenarioSampleTime = 0.01

// replaySource decodes one already-parsed tick per input line, keeping
// GNSS-sentence parsing itself out of scope per spec.md's Non-goals.
type replaySource struct {
	scanner *bufio.Scanner
}

// replayRecord is the wire shape of one replay-file line.
type replayRecord struct {
	AHRS           ahrs.Input
	FlightObserver flightobserver.Input
	Coordinates    nmea.Coordinates

	StaticPressurePa, PitotPressurePa float64
	SupplyVoltage                     float64
	AirDataAvailable                  bool
	HumidityPercent, TemperatureC     float64
}

func (r *replaySource) Next() (tick, bool, error) {
	if !r.scanner.Scan() {
		return tick{}, false, r.scanner.Err()
	}
	line := r.scanner.Bytes()
	if len(line) == 0 {
		return r.Next()
	}
	var rec replayRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return tick{}, false, fmt.Errorf("replay: decoding line: %w", err)
	}
	return tick{
		AHRS:              rec.AHRS,
		FlightObserver:    rec.FlightObserver,
		Coordinates:       rec.Coordinates,
		StaticPressurePa:  rec.StaticPressurePa,
		PitotPressurePa:   rec.PitotPressurePa,
		SupplyVoltage:     rec.SupplyVoltage,
		AirDataAvailable:  rec.AirDataAvailable,
		HumidityPercent:   rec.HumidityPercent,
		TemperatureC:      rec.TemperatureC,
	}, true, nil
}

// builtinScenario returns one of the seed end-to-end scenarios by name.
func builtinScenario(name string) (*scenario.Scenario, error) {
	switch name {
	case "level":
		return &scenario.Scenario{
			T: []float64{0, 60},
			Roll: []float64{0, 0}, Pitch: []float64{0, 0}, Yaw: []float64{0, 0},
			TAS: []float64{50, 50}, Altitude: []float64{1000, 1000},
			WindNorth: []float64{0, 0}, WindEast: []float64{0, 0},
			GNSSHeadingValid: []bool{false, false}, MagValid: []bool{true, true},
		}, nil
	case "turn":
		return &scenario.Scenario{
			T: []float64{0, 5, 25, 30},
			Roll: []float64{0.3, 0.3, 0.3, 0}, Pitch: []float64{0, 0, 0, 0},
			Yaw: []float64{0, 1.5, 7.5, 9},
			TAS: []float64{40, 40, 40, 40}, Altitude: []float64{1000, 1000, 1000, 1000},
			WindNorth: []float64{3, 3, 3, 3}, WindEast: []float64{-1, -1, -1, -1},
			GNSSHeadingValid: []bool{false, false, false, false},
			MagValid:         []bool{true, true, true, true},
		}, nil
	case "gnss-loss":
		return &scenario.Scenario{
			T: []float64{0, 30},
			Roll: []float64{0, 0}, Pitch: []float64{0, 0}, Yaw: []float64{0, 0},
			TAS: []float64{45, 45}, Altitude: []float64{800, 800},
			WindNorth: []float64{0, 0}, WindEast: []float64{0, 0},
			GNSSHeadingValid: []bool{false, false}, MagValid: []bool{true, true},
		}, nil
	default:
		return nil, fmt.Errorf("unknown -scenario %q, want level, turn or gnss-loss", name)
	}
}

// run drives the pipeline until ctx is cancelled or source is exhausted.
// The tick loop itself stays a plain synchronous call chain; ctx is only
// checked between ticks, matching spec.md §5's "no suspension point
// mid-update" guarantee.
func run(ctx context.Context, ahrsEngine *ahrs.Engine, foEngine *flightobserver.Engine, source tickSource, out *bufio.Writer) {
	defer out.Flush()

	first := true
	var wind vecmat.Vector3

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		t, ok, err := source.Next()
		if err != nil {
			log.Printf("tick source error: %v", err)
			return
		}
		if !ok {
			return
		}

		if first {
			ahrsEngine.AttitudeSetup(t.AHRS.Acc, t.AHRS.Mag)
			foEngine.Reset(t.FlightObserver.PressureAltitude, t.FlightObserver.GNSSNegativeAltitude)
			first = false
		}

		ahrsEngine.Update(t.AHRS)

		fo := t.FlightObserver
		fo.WindAverage = wind
		foEngine.Update(fo)

		ahrsSnap := ahrsEngine.Snapshot()
		foSnap := foEngine.Snapshot()
		wind = foSnap.Wind

		report := nmea.Report{
			Coordinates:      t.Coordinates,
			WindAverageNorth: foSnap.Wind.E[vecmat.NORTH],
			WindAverageEast:  foSnap.Wind.E[vecmat.EAST],
			TAS:              fo.TAS,
			StaticPressurePa: t.StaticPressurePa,
			PitotPressurePa:  t.PitotPressurePa,
			TEKVario:         foSnap.VarioAveragerGNSS,
			SupplyVoltage:    t.SupplyVoltage,
			AirDataAvailable: t.AirDataAvailable,
			HumidityPercent:  t.HumidityPercent,
			TemperatureC:     t.TemperatureC,
			Roll:             ahrsSnap.Roll,
			Pitch:            ahrsSnap.Pitch,
			Yaw:              ahrsSnap.Yaw,
		}
		if _, err := out.WriteString(nmea.FormatAll(report)); err != nil {
			log.Printf("nmea write error: %v", err)
			return
		}
	}
}
