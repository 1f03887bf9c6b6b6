// Package scenario builds sensor tick streams from a small piecewise-
// linear flight profile, for driving the engine without real hardware
// (bench tests, `cmd/glidenav -mode sim`). Interpolation is adapted from
// westphae-goflying/sim's SituationSim.Interpolate: a handful of named
// waypoints are linearly interpolated between explicit time stamps
// instead of held constant.
package scenario

import (
	"errors"
	"sort"

	"glidenav/internal/ahrs"
	"glidenav/internal/flightobserver"
	"glidenav/internal/vecmat"
)

// Scenario is a flight profile defined by piecewise-linear waypoints.
// All slices must be the same length and T strictly increasing.
type Scenario struct {
	T                          []float64 // seconds
	Roll, Pitch, Yaw           []float64 // radians
	TAS                        []float64 // m/s
	Altitude                   []float64 // meters, positive up
	WindNorth, WindEast        []float64 // m/s, nav frame
	GNSSHeadingValid, MagValid []bool
}

// Sample is one interpolated instant of a Scenario.
type Sample struct {
	T                          float64
	Roll, Pitch, Yaw           float64
	TAS, Altitude              float64
	WindNorth, WindEast        float64
	GNSSHeadingValid, MagValid bool
}

// BeginTime returns the first defined time stamp.
func (s *Scenario) BeginTime() float64 { return s.T[0] }

// EndTime returns the last defined time stamp.
func (s *Scenario) EndTime() float64 { return s.T[len(s.T)-1] }

var errOutOfRange = errors.New("scenario: requested time is outside the defined range")

// Interpolate returns the piecewise-linear sample at time t.
func (s *Scenario) Interpolate(t float64) (Sample, error) {
	n := len(s.T)
	if n < 2 || t < s.T[0] || t > s.T[n-1] {
		return Sample{}, errOutOfRange
	}
	ix := 0
	if t > s.T[0] {
		ix = sort.SearchFloat64s(s.T, t) - 1
	}
	if ix < 0 {
		ix = 0
	}
	if ix > n-2 {
		ix = n - 2
	}
	ddt := s.T[ix+1] - s.T[ix]
	f := 0.0
	if ddt > 0 {
		f = (s.T[ix+1] - t) / ddt
	}
	lerp := func(v []float64) float64 { return f*v[ix] + (1-f)*v[ix+1] }
	pickBool := func(v []bool) bool {
		if f >= 0.5 {
			return v[ix]
		}
		return v[ix+1]
	}
	return Sample{
		T:                t,
		Roll:             lerp(s.Roll),
		Pitch:            lerp(s.Pitch),
		Yaw:              lerp(s.Yaw),
		TAS:              lerp(s.TAS),
		Altitude:         lerp(s.Altitude),
		WindNorth:        lerp(s.WindNorth),
		WindEast:         lerp(s.WindEast),
		GNSSHeadingValid: pickBool(s.GNSSHeadingValid),
		MagValid:         pickBool(s.MagValid),
	}, nil
}

// bodyRateFromRotationMatrices estimates the body-frame angular rate
// that rotated r0 into r1 over dt, via the finite-difference skew
// Omega = r0^T * (r1-r0)/dt, whose off-diagonal entries are the body
// rates to first order in dt.
func bodyRateFromRotationMatrices(r0, r1 vecmat.Matrix3, dt float64) vecmat.Vector3 {
	var d [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			d[i][j] = (r1.R[i][j] - r0.R[i][j]) / dt
		}
	}
	var omega [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += r0.R[k][i] * d[k][j] // r0^T * d
			}
			omega[i][j] = sum
		}
	}
	return vecmat.NewVector3(omega[2][1], omega[0][2], omega[1][0])
}

// Tick is one derived sensor reading, ready to feed both engines.
type Tick struct {
	AHRS           ahrs.Input
	FlightObserver flightobserver.Input
	Altitude       float64
}

// Ticker steps through a Scenario at a fixed sample interval, deriving
// gyro/acceleration from consecutive attitude samples the way
// westphae-goflying/sim's derivative-then-Control pipeline does, but
// working directly from rotation matrices instead of carrying a
// parallel quaternion state machine.
type Ticker struct {
	s    *Scenario
	dt   float64
	t    float64
	prev *Sample
	prevAttitude vecmat.Matrix3
}

// NewTicker builds a Ticker sampling s every dt seconds starting at
// s.BeginTime().
func NewTicker(s *Scenario, dt float64) *Ticker {
	return &Ticker{s: s, dt: dt, t: s.BeginTime()}
}

// Done reports whether the ticker has reached the end of the scenario.
func (tk *Ticker) Done() bool {
	return tk.t > tk.s.EndTime()
}

// Next advances one dt and returns the derived tick.
func (tk *Ticker) Next() (Tick, error) {
	sample, err := tk.s.Interpolate(tk.t)
	if err != nil {
		return Tick{}, err
	}
	attitude := vecmat.FromEuler(sample.Roll, sample.Pitch, sample.Yaw).ToRotationMatrix()

	var gyro vecmat.Vector3
	if tk.prev != nil {
		gyro = bodyRateFromRotationMatrices(tk.prevAttitude, attitude, tk.dt)
	}

	// Nav-frame specific force under unaccelerated flight is (0,0,-g):
	// rotating it into the body frame gives the accelerometer reading a
	// wings-level, non-maneuvering aircraft would produce at that
	// attitude. This ignores the centripetal term a real coordinated
	// turn adds, which is an acceptable simplification for a bench/sim
	// harness rather than a physics-accurate flight simulator.
	navSpecificForce := vecmat.NewVector3(0, 0, -9.81)
	specificForce := attitude.ReverseMap(navSpecificForce)

	headingVector := attitude.Apply(vecmat.NewVector3(1, 0, 0))
	headingVector.E[vecmat.DOWN] = 0
	headingVector = headingVector.Normalize()

	tas := sample.TAS
	airRelativeVelocity := headingVector.Scale(tas)
	wind := vecmat.NewVector3(sample.WindNorth, sample.WindEast, 0)
	gnssVelocity := airRelativeVelocity.Add(wind)

	mag := vecmat.Vector3{}
	if sample.MagValid {
		mag = attitude.ReverseMap(vecmat.NewVector3(1, 0, 0.5)).Normalize()
	}

	tick := Tick{
		AHRS: ahrs.Input{
			Gyro:             gyro,
			Acc:              specificForce,
			Mag:              mag,
			GNSSAcceleration: vecmat.Vector3{},
			GNSSHeading:      sample.Yaw,
			GNSSHeadingValid: sample.GNSSHeadingValid,
			MagValid:         sample.MagValid,
		},
		FlightObserver: flightobserver.Input{
			GNSSVelocity:         gnssVelocity,
			GNSSAcceleration:     vecmat.Vector3{},
			AHRSAcceleration:     specificForce,
			HeadingVector:        headingVector,
			GNSSNegativeAltitude: -sample.Altitude,
			PressureAltitude:     -sample.Altitude,
			TAS:                  tas,
			IAS:                  tas,
			GNSSFixAvailable:     true,
		},
		Altitude: sample.Altitude,
	}

	tk.prev = &sample
	tk.prevAttitude = attitude
	tk.t += tk.dt
	return tick, nil
}
