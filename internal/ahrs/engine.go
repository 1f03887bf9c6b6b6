// Package ahrs implements the attitude and heading reference system: a
// complementary-filter quaternion attitude estimator with three fusion
// modes, the circling-state classifier that gates them, and the
// magnetometer/Earth-field self-calibration that runs as a side effect
// of circling. Grounded step-for-step on
// original_source/NAV_Algorithms/AHRS.cpp.
package ahrs

import (
	"math"
	"sync"

	"glidenav/internal/filters"
	"glidenav/internal/magcal"
	"glidenav/internal/navconfig"
	"glidenav/internal/navlog"
	"glidenav/internal/vecmat"
)

// Engine is the process-scoped AHRS singleton. All hot-path state is
// unguarded (the engine assumes single-threaded, cooperative ticking per
// spec.md §5); only the exported Snapshot is protected, so a reporting
// or output goroutine can read it while the next tick is being computed.
type Engine struct {
	cfg navconfig.Config

	ts, tsDiv2 float64

	attitude vecmat.Quaternion
	body2Nav vecmat.Matrix3
	euler    struct{ roll, pitch, yaw float64 }

	accNav       vecmat.Vector3
	inductionNav vecmat.Vector3

	gyroIntegrator vecmat.Vector3

	circlingCounter int
	circlingState   CirclingState

	slipAverager     *filters.Averager
	nickAverager     *filters.Averager
	turnRateAverager *filters.Averager
	gLoadAverager    *filters.Averager

	antennaDownCorrection  float64
	antennaRightCorrection float64

	headingDifference   float64
	magneticDisturbance float64
	navCorrection       vecmat.Vector3

	automaticMagCalib bool
	automaticEarth    bool

	expectedNavInduction vecmat.Vector3
	magneticControlGain  float64

	calibration magcal.Calibration
	committer   *magcal.Committer

	reporter navlog.Reporter

	mu       sync.Mutex
	snapshot Snapshot
}

// New builds an Engine from cfg, seeded with a previously persisted
// calibration (zero value if none is available yet) and reporting
// calibration changes through reporter (navlog.NewLogReporter(nil) if
// the caller doesn't care).
func New(cfg navconfig.Config, cal magcal.Calibration, reporter navlog.Reporter) *Engine {
	e := &Engine{
		cfg:                    cfg,
		ts:                     cfg.SampleTime,
		tsDiv2:                 cfg.SampleTime / 2,
		attitude:               vecmat.IdentityQuaternion(),
		slipAverager:           filters.NewAverager(cfg.AngleFilterDecay),
		nickAverager:           filters.NewAverager(cfg.AngleFilterDecay),
		turnRateAverager:       filters.NewAverager(cfg.AngleFilterDecay),
		gLoadAverager:          filters.NewAverager(cfg.GLoadFilterDecay),
		antennaDownCorrection:  divOrZero(cfg.AntSlaveDown, cfg.AntBaseline),
		antennaRightCorrection: divOrZero(cfg.AntSlaveRight, cfg.AntBaseline),
		automaticMagCalib:      cfg.MagAutoCalib,
		automaticEarth:         cfg.MagEarthAuto,
		calibration:            cal,
		committer:              magcal.NewCommitter(cal),
		reporter:               reporter,
	}
	e.expectedNavInduction = vecmat.NewVector3(
		math.Cos(cfg.Inclination),
		math.Cos(cfg.Inclination)*math.Sin(cfg.Declination),
		math.Sin(cfg.Inclination),
	)
	e.updateMagneticLoopGain()
	e.body2Nav = e.attitude.ToRotationMatrix()
	return e
}

func divOrZero(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// updateMagneticLoopGain recomputes magnetic_control_gain from the
// current expected inclination, as AHRS.cpp does whenever
// expected_nav_induction changes, so the mag error carries comparable
// authority regardless of latitude.
func (e *Engine) updateMagneticLoopGain() {
	horizontal := math.Hypot(e.expectedNavInduction.E[vecmat.NORTH], e.expectedNavInduction.E[vecmat.EAST])
	if horizontal < 1e-6 {
		e.magneticControlGain = 0
		return
	}
	e.magneticControlGain = e.cfg.Gains.H / horizontal
}

// AttitudeSetup performs the initial attitude estimate from the first
// accelerometer + magnetometer sample, as AHRS.cpp::attitude_setup does:
// build a right-handed (north, east, down) frame from gravity and
// (calibrated) magnetic induction and extract the corresponding
// quaternion.
func (e *Engine) AttitudeSetup(acceleration, mag vecmat.Vector3) {
	induction := mag
	if e.calibration.Complete {
		induction = e.calibration.Correct(mag)
	}

	down := acceleration.Negate().Normalize()
	north := induction.Normalize()

	east := down.Cross(north).Normalize()
	north = east.Cross(down).Normalize()

	m := vecmat.Rows(north, east, down)
	e.attitude = vecmat.FromRotationMatrix(m)
	e.body2Nav = e.attitude.ToRotationMatrix()
	e.euler.roll, e.euler.pitch, e.euler.yaw = e.attitude.Euler()
	e.publishSnapshot()
}

// Update advances the AHRS by one tick, dispatching to the fusion mode
// implied by in (see Input.mode), and returns the resulting circling
// state.
func (e *Engine) Update(in Input) CirclingState {
	switch in.mode() {
	case ModeDGNSS:
		e.updateDiffGNSS(in)
	case ModeMagnetometer:
		e.updateCompass(in)
	default:
		e.updateAccOnly(in)
	}
	e.publishSnapshot()
	return e.circlingState
}

// Snapshot returns a copy of the current AHRS-derived state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot
}

func (e *Engine) publishSnapshot() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.snapshot = Snapshot{
		Attitude:               e.attitude,
		Body2Nav:               e.body2Nav,
		Roll:                   e.euler.roll,
		Pitch:                  e.euler.pitch,
		Yaw:                    e.euler.yaw,
		AccNav:                 e.accNav,
		InductionNav:           e.inductionNav,
		TurnRate:               e.turnRateAverager.Value(),
		Slip:                   e.slipAverager.Value(),
		NickAngle:              e.nickAverager.Value(),
		GLoad:                  e.gLoadAverager.Value(),
		CirclingState:          e.circlingState,
		HeadingDifferenceDGNSS: e.headingDifference,
		MagneticDisturbance:    e.magneticDisturbance,
	}
}

// updateCirclingState implements the counter/hysteresis machine of
// spec.md §4.1 / AHRS.cpp::update_circling_state.
func (e *Engine) updateCirclingState() {
	turnRateAbs := math.Abs(e.turnRateAverager.Value())

	if e.circlingCounter < e.cfg.Thresholds.CircleLimit && turnRateAbs > e.cfg.Thresholds.HighTurnRate {
		e.circlingCounter++
	}
	if e.circlingCounter > 0 && turnRateAbs < e.cfg.Thresholds.LowTurnRate {
		e.circlingCounter--
	}

	switch {
	case e.circlingCounter == 0:
		e.circlingState = StraightFlight
	case e.circlingCounter == e.cfg.Thresholds.CircleLimit:
		e.circlingState = Circling
	default:
		e.circlingState = Transition
	}
}

// updateAttitude is the common attitude-integration tail shared by all
// three fusion modes: integrate the (corrected) gyro reading, normalize,
// recompute derived nav-frame quantities and averagers. Grounded on
// AHRS.cpp::update_attitude.
func (e *Engine) updateAttitude(acc, gyro, mag vecmat.Vector3) {
	e.attitude = e.attitude.RotateBySmallAngle(gyro.Scale(e.tsDiv2)).Normalize()
	e.body2Nav = e.attitude.ToRotationMatrix()

	e.accNav = e.body2Nav.Apply(acc)
	e.inductionNav = e.body2Nav.Apply(mag)
	e.euler.roll, e.euler.pitch, e.euler.yaw = e.attitude.Euler()

	navRotation := e.body2Nav.Apply(gyro)
	e.turnRateAverager.Respond(navRotation.E[vecmat.DOWN])

	e.slipAverager.Respond(math.Atan2(-acc.E[vecmat.RIGHT], -acc.E[vecmat.DOWN]))
	e.nickAverager.Respond(math.Atan2(acc.E[vecmat.FRONT], -acc.E[vecmat.DOWN]))
	e.gLoadAverager.Respond(acc.Abs())

	e.magneticDisturbance = e.inductionNav.Sub(e.expectedNavInduction).Abs()
}

// feedMagneticInductionObserver forwards one sample to the calibration
// committer, gated by the caller on circling + quiescent attitude loop
// (spec.md §4.4).
func (e *Engine) feedMagneticInductionObserver(magSensor vecmat.Vector3) {
	expectedBodyInduction := e.body2Nav.ReverseMap(e.expectedNavInduction)
	dir := magcal.LeftTurn
	if e.turnRateAverager.Value() > 0 {
		dir = magcal.RightTurn
	}
	for i := 0; i < 3; i++ {
		e.committer.FeedAxis(i, dir, e.cfg.MagScale*expectedBodyInduction.E[i], e.cfg.MagScale*magSensor.E[i])
	}
	e.committer.FeedInduction(e.inductionNav)
}

// updateDiffGNSS is Mode A: dual-antenna GNSS compass. Grounded on
// AHRS.cpp::update_diff_GNSS.
func (e *Engine) updateDiffGNSS(in Input) {
	oldState := e.circlingState
	e.updateCirclingState()

	mag := in.Mag
	if e.calibration.Complete {
		mag = e.calibration.Correct(in.Mag)
	}

	navAcceleration := e.body2Nav.Apply(in.Acc)
	navInduction := e.body2Nav.Apply(mag)

	headingWork := in.GNSSHeading +
		e.antennaDownCorrection*math.Sin(e.euler.roll) -
		e.antennaRightCorrection*math.Cos(e.euler.roll)
	headingWork = vecmat.WrapPi(headingWork - e.euler.yaw)
	e.headingDifference = headingWork

	e.navCorrection.E[vecmat.NORTH] = -navAcceleration.E[vecmat.EAST] + in.GNSSAcceleration.E[vecmat.EAST]
	e.navCorrection.E[vecmat.EAST] = navAcceleration.E[vecmat.NORTH] - in.GNSSAcceleration.E[vecmat.NORTH]

	if e.circlingState == Circling {
		cross := navAcceleration.E[vecmat.NORTH]*in.GNSSAcceleration.E[vecmat.EAST] -
			navAcceleration.E[vecmat.EAST]*in.GNSSAcceleration.E[vecmat.NORTH]
		magCorrection := navInduction.E[vecmat.NORTH]*e.expectedNavInduction.E[vecmat.EAST] -
			navInduction.E[vecmat.EAST]*e.expectedNavInduction.E[vecmat.NORTH]
		e.navCorrection.E[vecmat.DOWN] = cross*e.cfg.Gains.Cross + magCorrection*e.magneticControlGain
	} else {
		e.navCorrection.E[vecmat.DOWN] = headingWork * e.cfg.Gains.H
	}

	gyroCorrection := e.body2Nav.ReverseMap(e.navCorrection).Scale(e.cfg.Gains.P)

	if e.circlingState == StraightFlight {
		e.gyroIntegrator = e.gyroIntegrator.Add(gyroCorrection)
	}
	gyroCorrection = gyroCorrection.Add(e.gyroIntegrator.Scale(e.cfg.Gains.I))

	e.updateAttitude(in.Acc, in.Gyro.Add(gyroCorrection), mag)

	if e.circlingState == Circling && e.navCorrection.Abs() < e.cfg.Thresholds.NavCorrectionLimit {
		e.feedMagneticInductionObserver(in.Mag)
	}

	if e.automaticMagCalib && oldState == Circling && e.circlingState == Transition {
		e.handleMagneticCalibration('s')
	}
}

// updateCompass is Mode B: magnetometer compass, no dual-antenna
// heading. Grounded on AHRS.cpp::update_compass.
func (e *Engine) updateCompass(in Input) {
	mag := in.Mag
	if e.calibration.Complete {
		mag = e.calibration.Correct(in.Mag)
	}

	navAcceleration := e.body2Nav.Apply(in.Acc)
	navInduction := e.body2Nav.Apply(mag)

	e.navCorrection.E[vecmat.NORTH] = -navAcceleration.E[vecmat.EAST] + in.GNSSAcceleration.E[vecmat.EAST]
	e.navCorrection.E[vecmat.EAST] = navAcceleration.E[vecmat.NORTH] - in.GNSSAcceleration.E[vecmat.NORTH]

	oldState := e.circlingState
	e.updateCirclingState()

	magCorrection := navInduction.E[vecmat.NORTH]*e.expectedNavInduction.E[vecmat.EAST] -
		navInduction.E[vecmat.EAST]*e.expectedNavInduction.E[vecmat.NORTH]

	var gyroCorrection vecmat.Vector3
	switch e.circlingState {
	case StraightFlight, Transition:
		e.navCorrection.E[vecmat.DOWN] = e.magneticControlGain * magCorrection
		gyroCorrection = e.body2Nav.ReverseMap(e.navCorrection).Scale(e.cfg.Gains.P)
		e.gyroIntegrator = e.gyroIntegrator.Add(gyroCorrection)
	case Circling:
		cross := navAcceleration.E[vecmat.NORTH]*in.GNSSAcceleration.E[vecmat.EAST] -
			navAcceleration.E[vecmat.EAST]*in.GNSSAcceleration.E[vecmat.NORTH]
		e.navCorrection.E[vecmat.DOWN] = cross*e.cfg.Gains.Cross + magCorrection*e.cfg.Gains.MH
		gyroCorrection = e.body2Nav.ReverseMap(e.navCorrection).Scale(e.cfg.Gains.P)
	}

	gyroCorrection = gyroCorrection.Add(e.gyroIntegrator.Scale(e.cfg.Gains.I))

	e.updateAttitude(in.Acc, in.Gyro.Add(gyroCorrection), mag)

	if e.circlingState == Circling && e.navCorrection.Abs() < e.cfg.Thresholds.NavCorrectionLimit {
		e.feedMagneticInductionObserver(in.Mag)
	}

	if e.automaticMagCalib && oldState == Circling && e.circlingState == Transition {
		e.handleMagneticCalibration('m')
	}
}

// updateAccOnly is Mode C: no magnetometer, no dual-antenna heading.
// Grounded on AHRS.cpp::update_ACC_only, including the literal ×40
// empirical multiplier during straight flight.
func (e *Engine) updateAccOnly(in Input) {
	navAcceleration := e.body2Nav.Apply(in.Acc)

	e.navCorrection.E[vecmat.NORTH] = -navAcceleration.E[vecmat.EAST] + in.GNSSAcceleration.E[vecmat.EAST]
	e.navCorrection.E[vecmat.EAST] = navAcceleration.E[vecmat.NORTH] - in.GNSSAcceleration.E[vecmat.NORTH]

	e.updateCirclingState()

	cross := navAcceleration.E[vecmat.NORTH]*in.GNSSAcceleration.E[vecmat.EAST] -
		navAcceleration.E[vecmat.EAST]*in.GNSSAcceleration.E[vecmat.NORTH]

	if e.circlingState == StraightFlight {
		cross *= 40 // empirically tuned OM flight 2022 7 24
	}

	e.navCorrection.E[vecmat.DOWN] = cross * e.cfg.Gains.Cross
	gyroCorrection := e.body2Nav.ReverseMap(e.navCorrection).Scale(e.cfg.Gains.P)

	e.gyroIntegrator = e.gyroIntegrator.Add(gyroCorrection)
	gyroCorrection = gyroCorrection.Add(e.gyroIntegrator.Scale(e.cfg.Gains.I))

	e.updateAttitude(in.Acc, in.Gyro.Add(gyroCorrection), in.Mag)
}

// handleMagneticCalibration runs the calibration commit at a
// CIRCLING -> TRANSITION edge. Grounded on
// AHRS.cpp::handle_magnetic_calibration.
func (e *Engine) handleMagneticCalibration(source byte) {
	newCal, changed := e.committer.CommitMagnetometer(e.calibration)
	if changed {
		e.calibration = newCal
	}

	var inductionErr float64
	inductionUpdated := false
	if induction, stdDev, ok := e.committer.InductionEstimate(); ok {
		inductionErr = stdDev
		if e.automaticEarth && stdDev < e.cfg.Thresholds.InductionStdDeviationLimit {
			e.expectedNavInduction = induction.Normalize()
			e.updateMagneticLoopGain()
			changed = true
			inductionUpdated = true
		}
	}
	e.committer.Reset()

	if changed && e.reporter != nil {
		e.reporter.Report(navlog.CalibrationEvent{
			Source:                source,
			Calibration:           e.calibration,
			InductionUpdated:      inductionUpdated,
			ExpectedNavInduction:  e.expectedNavInduction,
			InductionStdDeviation: inductionErr,
		})
	}
}

// Calibration returns the current magnetometer calibration, for
// persistence by the caller after a commit.
func (e *Engine) Calibration() magcal.Calibration {
	return e.calibration
}
