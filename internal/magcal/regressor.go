// Package magcal implements the online magnetometer self-calibration:
// per-axis linear regressors fed during circling, and an Earth-induction
// estimator that refines the expected magnetic field vector from the
// same circling data. Both are gated and driven by the AHRS engine,
// which owns the circling-state machine.
package magcal

import "gonum.org/v1/gonum/stat"

// TurnDirection selects which of an AxisRegressor's two data pools a
// sample belongs to.
type TurnDirection int

const (
	// LeftTurn and RightTurn are the two collectors AxisRegressor keeps
	// separate, since a calibration turn in only one direction leaves
	// the fit under-determined along some axes.
	LeftTurn TurnDirection = iota
	RightTurn
)

// AxisRegressor accumulates (expected, measured) pairs for one
// magnetometer axis during a single circling session and fits a
// bias/scale pair from them on commit.
type AxisRegressor struct {
	leftX, leftY   []float64
	rightX, rightY []float64

	bestQuality float64
	hasFit      bool
}

// Feed records one sample pair: x is the expected body-frame induction
// component (MAG_SCALE * (R^-1 * e_nav)_i), y is the corresponding raw
// magnetometer reading (MAG_SCALE * mag_sensor_i).
func (a *AxisRegressor) Feed(dir TurnDirection, x, y float64) {
	if dir == LeftTurn {
		a.leftX = append(a.leftX, x)
		a.leftY = append(a.leftY, y)
	} else {
		a.rightX = append(a.rightX, x)
		a.rightY = append(a.rightY, y)
	}
}

// Reset discards all collected samples for the next circling session.
func (a *AxisRegressor) Reset() {
	a.leftX, a.leftY = nil, nil
	a.rightX, a.rightY = nil, nil
}

// SampleCount returns the number of samples collected across both turn
// directions.
func (a *AxisRegressor) SampleCount() int {
	return len(a.leftX) + len(a.rightX)
}

// Fit computes bias/scale from the combined left+right samples using
// ordinary least squares (raw = bias + scale_raw*expected), reporting
// the fit quality (R^2) alongside the calibration in the
// expected-to-corrected direction: corrected = (raw - bias) / scale_raw.
// It returns ok=false when there are too few samples to fit.
func (a *AxisRegressor) Fit() (bias, scale, quality float64, ok bool) {
	n := a.SampleCount()
	if n < 8 {
		return 0, 0, 0, false
	}
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	xs = append(append(xs, a.leftX...), a.rightX...)
	ys = append(append(ys, a.leftY...), a.rightY...)

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	if beta == 0 {
		return 0, 0, 0, false
	}
	quality = stat.RSquared(xs, ys, nil, alpha, beta)
	return alpha, beta, quality, true
}

// Improves reports whether quality exceeds the best quality previously
// accepted via Accept, as required before a calibration commit installs
// a new fit (spec: "installed only if regression quality exceeds the
// previous fit").
func (a *AxisRegressor) Improves(quality float64) bool {
	return !a.hasFit || quality > a.bestQuality
}

// Accept records quality as the new best, so future Improves calls
// compare against it.
func (a *AxisRegressor) Accept(quality float64) {
	a.bestQuality = quality
	a.hasFit = true
}
