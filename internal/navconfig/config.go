// Package navconfig loads and validates the navigation engine's
// configuration, following the same load/validate/default shape
// dpcsar-stratux-ng's internal/config package uses: read the whole file,
// strict-decode it so a typo'd field is a boot-time error rather than a
// silently-ignored one, then validate and fill defaults in one pass.
package navconfig

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every spec.md §6 configuration parameter: initial Earth
// field, dual-antenna geometry, calibration enable flags, filter gains
// and thresholds, and the two scale factors (magnetometer scale for the
// AHRS calibration feed, vertical energy tuning for the flight observer).
type Config struct {
	// Inclination and Declination are radians, describing the initial
	// expected Earth magnetic field before any online refinement.
	Inclination float64 `yaml:"inclination"`
	Declination float64 `yaml:"declination"`

	// Dual-antenna GNSS compass geometry, in meters.
	AntSlaveDown  float64 `yaml:"ant_slave_down"`
	AntSlaveRight float64 `yaml:"ant_slave_right"`
	AntBaseline   float64 `yaml:"ant_baseline"`

	MagAutoCalib bool `yaml:"mag_auto_calib"`
	MagEarthAuto bool `yaml:"mag_earth_auto"`

	Gains      Gains      `yaml:"gains"`
	Thresholds Thresholds `yaml:"thresholds"`

	AngleFilterDecay float64 `yaml:"angle_filter_decay"`
	GLoadFilterDecay float64 `yaml:"g_load_filter_decay"`

	MagScale                   float64 `yaml:"mag_scale"`
	VerticalEnergyTuningFactor float64 `yaml:"vertical_energy_tuning_factor"`

	SampleTime float64 `yaml:"sample_time"`

	Calibration CalibrationFileConfig `yaml:"calibration"`
}

// Gains groups the complementary-filter and heading-fusion gains.
type Gains struct {
	P     float64 `yaml:"p"`
	I     float64 `yaml:"i"`
	H     float64 `yaml:"h"`
	Cross float64 `yaml:"cross"`
	MH    float64 `yaml:"m_h"`
}

// Thresholds groups the circling-state and calibration-gating
// thresholds.
type Thresholds struct {
	HighTurnRate               float64 `yaml:"high_turn_rate"`
	LowTurnRate                float64 `yaml:"low_turn_rate"`
	CircleLimit                int     `yaml:"circle_limit"`
	NavCorrectionLimit         float64 `yaml:"nav_correction_limit"`
	InductionStdDeviationLimit float64 `yaml:"induction_std_deviation_limit"`
}

// CalibrationFileConfig points at the persisted magnetometer calibration
// blob (internal/calstore.FileStore's Path).
type CalibrationFileConfig struct {
	Path string `yaml:"path"`
}

// Load reads, strict-decodes, validates and defaults the configuration
// at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("navconfig: reading %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config contains unknown fields or is malformed: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) validate() error {
	if c.AntBaseline < 0 {
		return fmt.Errorf("ant_baseline must be >= 0")
	}
	if c.Thresholds.CircleLimit < 0 {
		return fmt.Errorf("thresholds.circle_limit must be >= 0")
	}
	if c.Thresholds.HighTurnRate < c.Thresholds.LowTurnRate {
		return fmt.Errorf("thresholds.high_turn_rate must be >= thresholds.low_turn_rate")
	}
	if c.MagAutoCalib && c.Calibration.Path == "" {
		return fmt.Errorf("calibration.path is required when mag_auto_calib is true")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.SampleTime <= 0 {
		c.SampleTime = 0.01 // 100 Hz
	}
	if c.MagScale <= 0 {
		c.MagScale = 1
	}
	if c.VerticalEnergyTuningFactor <= 0 {
		c.VerticalEnergyTuningFactor = 1
	}
	if c.Thresholds.CircleLimit == 0 {
		c.Thresholds.CircleLimit = 50
	}
	if c.AngleFilterDecay <= 0 {
		c.AngleFilterDecay = 0.98
	}
	if c.GLoadFilterDecay <= 0 {
		c.GLoadFilterDecay = 0.98
	}
	if c.Gains.P == 0 {
		c.Gains.P = 0.1
	}
	if c.Gains.I == 0 {
		c.Gains.I = 0.001
	}
}
