package flightobserver

import "glidenav/internal/vecmat"

// Input is one 10 ms tick's worth of data the flight observer needs,
// matching the parameter list of
// flight_observer.cpp::update_every_10ms.
type Input struct {
	GNSSVelocity     vecmat.Vector3
	GNSSAcceleration vecmat.Vector3
	AHRSAcceleration vecmat.Vector3
	HeadingVector    vecmat.Vector3 // unit nav-frame forward
	GNSSNegativeAltitude float64
	PressureAltitude     float64
	TAS                  float64
	IAS                  float64
	WindAverage          vecmat.Vector3
	GNSSFixAvailable     bool
}

// Snapshot is the read-only view of derived flight-observer state.
type Snapshot struct {
	VarioUncompensatedPressure float64
	VarioUncompensatedGNSS     float64
	VarioAveragerPressure      float64
	VarioAveragerGNSS          float64

	SpeedCompensationIAS       float64
	SpeedCompensationINSGNSS1  float64
	SpeedCompensationKalman2   float64
	SpeedCompensationEnergy3   float64
	SpeedCompensationGNSS      float64

	SpecificEnergy float64
	Wind           vecmat.Vector3
}
