package kalman

// Component indices into a VarioPVA state vector, matching
// KalmanVario_PVA_t's ALTITUDE / VARIO / ACCELERATION_OBSERVED accessor
// names in flight_observer.cpp.
const (
	ALTITUDE               = 0
	VARIO                  = 1
	ACCELERATION_OBSERVED  = 2
)

// VarioPVA is the 3-state [altitude, vertical_velocity,
// acceleration_observed] Kalman filter fusing an altitude source
// (pressure or GNSS negative altitude) with measured body-down
// acceleration under a constant-acceleration motion model. Two
// instances are driven per tick, one per altitude source, each with its
// own process/measurement noise (pressure is noisier than GNSS).
type VarioPVA struct {
	f3 filter3
	ts float64

	qAlt, qVario, qAccel float64
	rAlt, rVario, rAccel float64
}

// NewVarioPVA builds a VarioPVA sampled every ts seconds with the given
// diagonal process noise (qAlt, qVario, qAccel) and measurement noise
// (rAlt used for the altitude measurement, rVario for the optional
// velocity measurement, rAccel for the acceleration measurement).
func NewVarioPVA(ts, qAlt, qVario, qAccel, rAlt, rVario, rAccel float64) *VarioPVA {
	k := &VarioPVA{
		ts: ts, qAlt: qAlt, qVario: qVario, qAccel: qAccel,
		rAlt: rAlt, rVario: rVario, rAccel: rAccel,
	}
	k.Reset(0, -9.81)
	return k
}

// Reset re-initializes the filter at boot, or whenever the altitude
// source is known to have jumped (e.g. a GNSS fix reacquired).
func (k *VarioPVA) Reset(altitude, acceleration float64) {
	k.f3.reset(altitude, 0, acceleration)
}

func (k *VarioPVA) transition() [3][3]float64 {
	ts := k.ts
	return [3][3]float64{
		{1, ts, 0.5 * ts * ts},
		{0, 1, ts},
		{0, 0, 1},
	}
}

// Update predicts one tick forward and corrects with a measured altitude
// and a measured body-down acceleration, as
// KalmanVario_pressure.update(pressure_altitude, ahrs_acceleration.e[DOWN])
// does. It returns the resulting vertical velocity (vario) estimate.
func (k *VarioPVA) Update(measuredAltitude, measuredAcceleration float64) float64 {
	k.f3.predict(k.transition(), [3]float64{k.qAlt, k.qVario, k.qAccel})
	k.f3.correct([3]float64{1, 0, 0}, measuredAltitude, k.rAlt)
	k.f3.correct([3]float64{0, 0, 1}, measuredAcceleration, k.rAccel)
	return k.f3.get(VARIO)
}

// UpdateWithVelocity is Update plus a direct vertical-velocity
// measurement, as KalmanVario_GNSS.update(GNSS_negative_altitude,
// gnss_velocity.e[DOWN], ahrs_acceleration.e[DOWN]) does when a GNSS fix
// supplies a down-velocity in addition to altitude.
func (k *VarioPVA) UpdateWithVelocity(measuredAltitude, measuredVelocity, measuredAcceleration float64) float64 {
	k.f3.predict(k.transition(), [3]float64{k.qAlt, k.qVario, k.qAccel})
	k.f3.correct([3]float64{1, 0, 0}, measuredAltitude, k.rAlt)
	k.f3.correct([3]float64{0, 1, 0}, measuredVelocity, k.rVario)
	k.f3.correct([3]float64{0, 0, 1}, measuredAcceleration, k.rAccel)
	return k.f3.get(VARIO)
}

// GetX returns the named state component (ALTITUDE, VARIO, or
// ACCELERATION_OBSERVED).
func (k *VarioPVA) GetX(component int) float64 {
	return k.f3.get(component)
}
