package kalman

// Component indices into a VAAoff state vector, matching
// Kalman_V_A_Aoff_observer_t's VELOCITY / ACCELERATION accessor names in
// flight_observer.cpp. The third state, ACCELERATION_OFFSET, holds the
// accelerometer bias that the measurement model separates out of the
// ACCELERATION state; GetX(ACCELERATION_OFFSET) reads it.
const (
	VELOCITY            = 0
	ACCELERATION        = 1
	ACCELERATION_OFFSET = 2
)

// VAAoff is the 3-state [velocity, acceleration, acceleration_offset]
// Kalman filter used for the two horizontal (N and E) air-relative
// velocity/acceleration estimates. The offset state absorbs slow
// accelerometer bias: the accelerometer measurement observes
// acceleration + offset, not acceleration alone, so a persistent bias is
// pulled into the offset state instead of corrupting the acceleration
// estimate.
type VAAoff struct {
	f3 filter3
	ts float64

	qVel, qAccel, qOffset float64
	rVel, rAccel          float64
}

// NewVAAoff builds a VAAoff sampled every ts seconds with the given
// diagonal process noise and measurement noise.
func NewVAAoff(ts, qVel, qAccel, qOffset, rVel, rAccel float64) *VAAoff {
	k := &VAAoff{
		ts: ts, qVel: qVel, qAccel: qAccel, qOffset: qOffset,
		rVel: rVel, rAccel: rAccel,
	}
	k.Reset(0, 0)
	return k
}

// Reset re-initializes velocity and acceleration; the offset state
// starts at zero.
func (k *VAAoff) Reset(velocity, acceleration float64) {
	k.f3.reset(velocity, acceleration, 0)
}

func (k *VAAoff) transition() [3][3]float64 {
	ts := k.ts
	return [3][3]float64{
		{1, ts, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
}

// Update predicts one tick forward and corrects with a measured
// air-relative velocity and a measured (biased) acceleration, as
// Kalman_v_a_observer_N.update(gnss_velocity.e[NORTH] -
// wind_average.e[NORTH], ahrs_acceleration.e[NORTH]) does.
func (k *VAAoff) Update(measuredVelocity, measuredAcceleration float64) {
	k.f3.predict(k.transition(), [3]float64{k.qVel, k.qAccel, k.qOffset})
	k.f3.correct([3]float64{1, 0, 0}, measuredVelocity, k.rVel)
	k.f3.correct([3]float64{0, 1, 1}, measuredAcceleration, k.rAccel)
}

// GetX returns the named state component (VELOCITY, ACCELERATION, or
// ACCELERATION_OFFSET).
func (k *VAAoff) GetX(component int) float64 {
	return k.f3.get(component)
}
