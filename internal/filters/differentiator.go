package filters

// Differentiator computes a discrete-time derivative at a fixed sample
// interval, as flight_observer.cpp's kinetic_energy_differentiator and
// specific_energy_differentiator do for the IAS speed compensation and
// speed compensation 3 (kinetic-energy rate from airspeed, and
// specific-energy rate).
type Differentiator struct {
	ts          float64
	last        float64
	initialized bool
}

// NewDifferentiator builds a Differentiator sampled every ts seconds.
func NewDifferentiator(ts float64) *Differentiator {
	return &Differentiator{ts: ts}
}

// Respond feeds one sample and returns (x - previous_x) / ts. The first
// call has no previous sample and returns 0.
func (d *Differentiator) Respond(x float64) float64 {
	if !d.initialized {
		d.last = x
		d.initialized = true
		return 0
	}
	rate := (x - d.last) / d.ts
	d.last = x
	return rate
}
