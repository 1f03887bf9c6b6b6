package filters

import "glidenav/internal/vecmat"

// VectorDecimator averages a Vector3-valued signal over Ratio input
// samples and exposes the result only once per group, the same 100 Hz ->
// 10 Hz rate reduction flight_observer.cpp's
// windspeed_decimator_100Hz_10Hz applies to the instantaneous wind
// vector before it is used further downstream.
type VectorDecimator struct {
	ratio int
	count int
	sum   vecmat.Vector3
	value vecmat.Vector3
}

// NewVectorDecimator builds a decimator that averages every ratio input
// samples into one output sample.
func NewVectorDecimator(ratio int) *VectorDecimator {
	if ratio < 1 {
		ratio = 1
	}
	return &VectorDecimator{ratio: ratio}
}

// Respond feeds one input-rate sample. It reports whether this call
// completed a group and produced a new decimated Value.
func (d *VectorDecimator) Respond(v vecmat.Vector3) bool {
	d.sum = d.sum.Add(v)
	d.count++
	if d.count < d.ratio {
		return false
	}
	d.value = d.sum.Scale(1 / float64(d.ratio))
	d.sum = vecmat.Vector3{}
	d.count = 0
	return true
}

// Value returns the most recently completed decimated average.
func (d *VectorDecimator) Value() vecmat.Vector3 {
	return d.value
}
