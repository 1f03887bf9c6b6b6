package magcal

import "glidenav/internal/vecmat"

// Calibration is the persisted per-axis magnetometer bias/scale, plus
// the regression quality each axis was accepted at (kept so a later
// candidate fit can be compared against the one actually installed,
// even across a process restart).
type Calibration struct {
	Bias              [3]float64
	Scale             [3]float64
	RegressionQuality [3]float64
	Complete          bool
}

// Correct maps a raw magnetometer reading to a calibrated one. Before
// calibration is complete it is returned unchanged.
func (c Calibration) Correct(raw vecmat.Vector3) vecmat.Vector3 {
	if !c.Complete {
		return raw
	}
	var out vecmat.Vector3
	for i := 0; i < 3; i++ {
		out.E[i] = (raw.E[i] - c.Bias[i]) / c.Scale[i]
	}
	return out
}

// Committer runs the three per-axis regressors and the Earth induction
// estimator across one circling session and produces an updated
// Calibration (and, optionally, an updated Earth induction vector) when
// the CIRCLING -> TRANSITION edge is observed.
type Committer struct {
	axes      [3]AxisRegressor
	induction EarthInductionEstimator
}

// NewCommitter builds a Committer seeded with the previously accepted
// per-axis regression qualities, so the first session in a new process
// only overwrites calibration it can actually improve on.
func NewCommitter(seed Calibration) *Committer {
	c := &Committer{}
	if seed.Complete {
		for i := 0; i < 3; i++ {
			c.axes[i].Accept(seed.RegressionQuality[i])
		}
	}
	return c
}

// FeedAxis records one (expected, measured) sample pair for axis i.
func (c *Committer) FeedAxis(i int, dir TurnDirection, expected, measured float64) {
	c.axes[i].Feed(dir, expected, measured)
}

// FeedInduction records one nav-frame magnetometer sample for the Earth
// induction estimator.
func (c *Committer) FeedInduction(mNav vecmat.Vector3) {
	c.induction.Feed(mNav)
}

// Reset discards all samples collected this session, called after a
// commit (successful or not) so the next circling session starts clean.
func (c *Committer) Reset() {
	for i := range c.axes {
		c.axes[i].Reset()
	}
	c.induction.Reset()
}

// CommitMagnetometer fits each axis and installs the result into prev
// only where it improves on the previously accepted quality, returning
// the (possibly partially updated) calibration and whether anything
// changed.
func (c *Committer) CommitMagnetometer(prev Calibration) (Calibration, bool) {
	next := prev
	changed := false
	for i := 0; i < 3; i++ {
		bias, scale, quality, ok := c.axes[i].Fit()
		if !ok || !c.axes[i].Improves(quality) {
			continue
		}
		c.axes[i].Accept(quality)
		next.Bias[i] = bias
		next.Scale[i] = scale
		next.RegressionQuality[i] = quality
		changed = true
	}
	if changed {
		next.Complete = true
	}
	return next, changed
}

// InductionEstimate returns the Earth induction estimate accumulated
// this session and its standard deviation. ok is false when too few
// samples were collected; the caller (the AHRS engine) is responsible
// for comparing stdDev against its configured threshold before adopting
// the estimate, since a "not tight enough" estimate still contributes
// the induction_error value reported alongside a magnetometer-only
// calibration change.
func (c *Committer) InductionEstimate() (induction vecmat.Vector3, stdDev float64, ok bool) {
	return c.induction.Estimate()
}
