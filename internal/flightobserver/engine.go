// Package flightobserver drives the vertical and horizocntal Kalman
// filters with sensor input and fuses three redundant speed-compensation
// computations into a single total-energy variometer signal, plus wind
// and specific energy. Grounded verbatim on
// original_source/NAV_Algorithms/flight_observer.cpp::update_every_10ms.
package flightobserver

import (
	"sync"

	"glidenav/internal/filters"
	"glidenav/internal/kalman"
	"glidenav/internal/vecmat"
)

// These two tuning constants are carried over byte-for-byte from
// flight_observer.cpp: RECIP_GRAVITY in particular is not simply 1/9.81
// (0.10194...) and must not be "corrected".
const (
	oneDivByGravityTimes2 = 0.0509684
	recipGravity          = 0.1094
)

// Config groups the values needed to construct the underlying Kalman
// filters and filter chain.
type Config struct {
	Ts float64

	// Process/measurement noise for the two vertical Kalman filters.
	// Pressure is noisier than GNSS per spec.md §4.5.
	PressureQAlt, PressureQVario, PressureQAccel float64
	PressureRAlt, PressureRVario, PressureRAccel float64
	GNSSQAlt, GNSSQVario, GNSSQAccel             float64
	GNSSRAlt, GNSSRVario, GNSSRAccel             float64

	// Process/measurement noise for the two horizontal Kalman filters.
	HorizQVel, HorizQAccel, HorizQOffset float64
	HorizRVel, HorizRAccel               float64

	VarioAveragerDecay      float64
	SpeedCompBlenderDecay   float64
	VerticalEnergyTuningFactor float64
}

// Engine is the process-scoped flight-observer singleton.
type Engine struct {
	cfg Config

	kalmanVarioPressure *kalman.VarioPVA
	kalmanVarioGNSS     *kalman.VarioPVA
	kalmanVAObserverN   *kalman.VAAoff
	kalmanVAObserverE   *kalman.VAAoff

	kineticEnergyDifferentiator  *filters.Differentiator
	specificEnergyDifferentiator *filters.Differentiator
	varioAveragerPressure        *filters.Averager
	varioAveragerGNSS            *filters.Averager
	windDecimator                *filters.VectorDecimator
	speedCompFusioner            *filters.Blender

	mu       sync.Mutex
	snapshot Snapshot
}

// New builds an Engine from cfg.
func New(cfg Config) *Engine {
	e := &Engine{
		cfg: cfg,
		kalmanVarioPressure: kalman.NewVarioPVA(cfg.Ts,
			cfg.PressureQAlt, cfg.PressureQVario, cfg.PressureQAccel,
			cfg.PressureRAlt, cfg.PressureRVario, cfg.PressureRAccel),
		kalmanVarioGNSS: kalman.NewVarioPVA(cfg.Ts,
			cfg.GNSSQAlt, cfg.GNSSQVario, cfg.GNSSQAccel,
			cfg.GNSSRAlt, cfg.GNSSRVario, cfg.GNSSRAccel),
		kalmanVAObserverN: kalman.NewVAAoff(cfg.Ts, cfg.HorizQVel, cfg.HorizQAccel, cfg.HorizQOffset, cfg.HorizRVel, cfg.HorizRAccel),
		kalmanVAObserverE: kalman.NewVAAoff(cfg.Ts, cfg.HorizQVel, cfg.HorizQAccel, cfg.HorizQOffset, cfg.HorizRVel, cfg.HorizRAccel),

		kineticEnergyDifferentiator:  filters.NewDifferentiator(cfg.Ts),
		specificEnergyDifferentiator: filters.NewDifferentiator(cfg.Ts),
		varioAveragerPressure:        filters.NewAverager(cfg.VarioAveragerDecay),
		varioAveragerGNSS:            filters.NewAverager(cfg.VarioAveragerDecay),
		windDecimator:                filters.NewVectorDecimator(10),
		speedCompFusioner:            filters.NewBlender(cfg.SpeedCompBlenderDecay),
	}
	return e
}

// Reset re-initializes the two vertical Kalman filters at the given
// altitudes, as flight_observer_t::reset does.
func (e *Engine) Reset(pressureNegativeAltitude, gnssNegativeAltitude float64) {
	e.kalmanVarioGNSS.Reset(gnssNegativeAltitude, -9.81)
	e.kalmanVarioPressure.Reset(pressureNegativeAltitude, -9.81)
}

// Update runs one 10 ms tick.
func (e *Engine) Update(in Input) {
	varioUncompensatedPressure := e.kalmanVarioPressure.Update(in.PressureAltitude, in.AHRSAcceleration.E[vecmat.DOWN])
	speedCompensationIAS := e.kineticEnergyDifferentiator.Respond(in.IAS * in.IAS * oneDivByGravityTimes2)
	varioAveragerPressureOut := e.varioAveragerPressure.Respond(speedCompensationIAS - varioUncompensatedPressure)

	var (
		varioUncompensatedGNSS    float64
		speedCompensationGNSS     float64
		varioAveragerGNSSOut      float64
		speedCompensationINSGNSS1 float64
		speedCompensationKalman2  float64
		speedCompensationEnergy3  float64
		specificEnergy            float64
		wind                      vecmat.Vector3
	)

	if !in.GNSSFixAvailable {
		varioUncompensatedGNSS = varioUncompensatedPressure
		speedCompensationGNSS = speedCompensationIAS
		varioAveragerGNSSOut = e.varioAveragerGNSS.Respond(speedCompensationIAS - varioUncompensatedPressure)
	} else {
		airVelocity := in.HeadingVector.Scale(in.TAS)
		e.windDecimator.Respond(in.GNSSVelocity.Sub(airVelocity))
		wind = e.windDecimator.Value()

		varioUncompensatedGNSS = -e.kalmanVarioGNSS.UpdateWithVelocity(in.GNSSNegativeAltitude, in.GNSSVelocity.E[vecmat.DOWN], in.AHRSAcceleration.E[vecmat.DOWN])

		airVelocity = in.GNSSVelocity.Sub(in.WindAverage)
		airVelocity.E[vecmat.DOWN] = e.kalmanVarioGNSS.GetX(kalman.VARIO)

		acceleration := in.AHRSAcceleration
		acceleration.E[vecmat.DOWN] = e.kalmanVarioGNSS.GetX(kalman.ACCELERATION_OBSERVED)

		speedCompensationINSGNSS1 = airVelocity.Dot(acceleration) * recipGravity

		e.kalmanVAObserverN.Update(in.GNSSVelocity.E[vecmat.NORTH]-in.WindAverage.E[vecmat.NORTH], in.AHRSAcceleration.E[vecmat.NORTH])
		e.kalmanVAObserverE.Update(in.GNSSVelocity.E[vecmat.EAST]-in.WindAverage.E[vecmat.EAST], in.AHRSAcceleration.E[vecmat.EAST])

		vN := e.kalmanVAObserverN.GetX(kalman.VELOCITY)
		aN := e.kalmanVAObserverN.GetX(kalman.ACCELERATION)
		vE := e.kalmanVAObserverE.GetX(kalman.VELOCITY)
		aE := e.kalmanVAObserverE.GetX(kalman.ACCELERATION)

		speedCompensationKalman2 = (vN*aN + vE*aE +
			e.kalmanVarioGNSS.GetX(kalman.VARIO)*e.kalmanVarioGNSS.GetX(kalman.ACCELERATION_OBSERVED)*e.cfg.VerticalEnergyTuningFactor) * recipGravity

		specificEnergy = (sqr(in.GNSSVelocity.E[vecmat.NORTH]-in.WindAverage.E[vecmat.NORTH]) +
			sqr(in.GNSSVelocity.E[vecmat.EAST]-in.WindAverage.E[vecmat.EAST]) +
			sqr(in.GNSSVelocity.E[vecmat.DOWN])*e.cfg.VerticalEnergyTuningFactor) * oneDivByGravityTimes2

		speedCompensationEnergy3 = e.specificEnergyDifferentiator.Respond(specificEnergy)

		speedCompensationGNSS = e.speedCompFusioner.Respond(0.5*(speedCompensationINSGNSS1+speedCompensationKalman2), speedCompensationEnergy3)

		varioAveragerGNSSOut = e.varioAveragerGNSS.Respond(varioUncompensatedGNSS + speedCompensationGNSS)
	}

	e.mu.Lock()
	e.snapshot = Snapshot{
		VarioUncompensatedPressure: varioUncompensatedPressure,
		VarioUncompensatedGNSS:     varioUncompensatedGNSS,
		VarioAveragerPressure:      varioAveragerPressureOut,
		VarioAveragerGNSS:          varioAveragerGNSSOut,
		SpeedCompensationIAS:       speedCompensationIAS,
		SpeedCompensationINSGNSS1:  speedCompensationINSGNSS1,
		SpeedCompensationKalman2:   speedCompensationKalman2,
		SpeedCompensationEnergy3:   speedCompensationEnergy3,
		SpeedCompensationGNSS:      speedCompensationGNSS,
		SpecificEnergy:             specificEnergy,
		Wind:                       wind,
	}
	e.mu.Unlock()
}

// Snapshot returns a copy of the current flight-observer state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot
}

func sqr(x float64) float64 { return x * x }
