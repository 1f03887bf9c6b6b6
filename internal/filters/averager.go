// Package filters implements the scalar and vector signal-conditioning
// blocks shared by the AHRS and flight observer: first-order IIR
// averagers, discrete differentiators, a 100 Hz -> 10 Hz decimator, and
// the two-channel speed-compensation blender.
package filters

// Averager is a first-order IIR low-pass filter with a fixed decay
// constant, the same recurrence westphae-goflying's variance accumulator
// uses for its running mean: state += (1-decay)*(x-state). A decay near
// 1 tracks slowly (long time constant); a decay near 0 tracks almost
// instantaneously.
type Averager struct {
	decay       float64
	state       float64
	initialized bool
}

// NewAverager builds an Averager with the given decay constant in [0,1).
func NewAverager(decay float64) *Averager {
	return &Averager{decay: decay}
}

// Respond feeds one sample and returns the filtered output. The first
// call seeds the filter state with x rather than blending from zero.
func (a *Averager) Respond(x float64) float64 {
	if !a.initialized {
		a.state = x
		a.initialized = true
		return a.state
	}
	a.state += (1 - a.decay) * (x - a.state)
	return a.state
}

// Value returns the current filter output without feeding a new sample.
func (a *Averager) Value() float64 {
	return a.state
}

// Reset re-seeds the filter so the next Respond call starts fresh.
func (a *Averager) Reset(x float64) {
	a.state = x
	a.initialized = true
}
