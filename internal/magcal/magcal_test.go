package magcal

import (
	"math"
	"math/rand"
	"testing"

	"glidenav/internal/vecmat"
)

func TestAxisRegressorRecoversBiasAndScale(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	var a AxisRegressor
	const trueBias = 0.05
	const trueScaleRaw = 1.8 // raw = trueBias + trueScaleRaw*expected
	for i := 0; i < 200; i++ {
		expected := math.Sin(float64(i) * 0.1)
		raw := trueBias + trueScaleRaw*expected + 0.001*r.NormFloat64()
		dir := LeftTurn
		if i%2 == 0 {
			dir = RightTurn
		}
		a.Feed(dir, expected, raw)
	}
	bias, scale, quality, ok := a.Fit()
	if !ok {
		t.Fatalf("Fit() ok=false, want true with 200 samples")
	}
	if math.Abs(bias-trueBias) > 0.01 {
		t.Fatalf("bias = %v, want ~%v", bias, trueBias)
	}
	if math.Abs(scale-trueScaleRaw) > 0.05 {
		t.Fatalf("scale = %v, want ~%v", scale, trueScaleRaw)
	}
	if quality < 0.99 {
		t.Fatalf("quality = %v, want close to 1 for a near-linear fit", quality)
	}
}

func TestAxisRegressorTooFewSamples(t *testing.T) {
	var a AxisRegressor
	a.Feed(LeftTurn, 1, 1)
	a.Feed(RightTurn, 2, 2)
	if _, _, _, ok := a.Fit(); ok {
		t.Fatalf("Fit() ok=true with only 2 samples, want false")
	}
}

func TestImprovesGatesOnPreviousQuality(t *testing.T) {
	var a AxisRegressor
	if !a.Improves(0.5) {
		t.Fatalf("Improves() = false before any Accept, want true")
	}
	a.Accept(0.9)
	if a.Improves(0.8) {
		t.Fatalf("Improves(0.8) = true after Accept(0.9), want false")
	}
	if !a.Improves(0.95) {
		t.Fatalf("Improves(0.95) = false after Accept(0.9), want true")
	}
}

func TestCalibrationCorrectPassesThroughUntilComplete(t *testing.T) {
	var c Calibration
	raw := vecmat.NewVector3(1, 2, 3)
	got := c.Correct(raw)
	if got != raw {
		t.Fatalf("Correct() = %v before Complete, want passthrough %v", got, raw)
	}
}

func TestCalibrationCorrectAppliesBiasScale(t *testing.T) {
	c := Calibration{
		Bias:     [3]float64{1, 0, -1},
		Scale:    [3]float64{2, 1, 0.5},
		Complete: true,
	}
	raw := vecmat.NewVector3(3, 5, 0)
	got := c.Correct(raw)
	want := vecmat.NewVector3(1, 5, 2)
	for i := 0; i < 3; i++ {
		if math.Abs(got.E[i]-want.E[i]) > 1e-12 {
			t.Fatalf("Correct() = %v, want %v", got, want)
		}
	}
}

func TestCommitterCommitsOnlyWhenImproved(t *testing.T) {
	c := NewCommitter(Calibration{})
	for i := 0; i < 100; i++ {
		expected := math.Sin(float64(i) * 0.13)
		for axis := 0; axis < 3; axis++ {
			raw := 0.02 + 1.5*expected
			c.FeedAxis(axis, LeftTurn, expected, raw)
		}
	}
	cal, changed := c.CommitMagnetometer(Calibration{})
	if !changed {
		t.Fatalf("CommitMagnetometer() changed=false on first, well-conditioned fit")
	}
	if !cal.Complete {
		t.Fatalf("Calibration.Complete = false after a successful commit")
	}

	// A second commit fed pure noise should not overwrite the good fit.
	c.Reset()
	r := rand.New(rand.NewSource(2))
	for i := 0; i < 100; i++ {
		for axis := 0; axis < 3; axis++ {
			c.FeedAxis(axis, RightTurn, r.NormFloat64(), r.NormFloat64())
		}
	}
	cal2, changed2 := c.CommitMagnetometer(cal)
	if changed2 {
		t.Fatalf("CommitMagnetometer() changed=true on a noise-only session that should not have improved quality")
	}
	if cal2 != cal {
		t.Fatalf("calibration mutated despite changed=false")
	}
}

func TestEarthInductionEstimatorReportsSmallStdDevForTightSamples(t *testing.T) {
	var e EarthInductionEstimator
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 50; i++ {
		noise := 0.001 * r.NormFloat64()
		e.Feed(vecmat.NewVector3(0.5+noise, 0, 0.86+noise))
	}
	induction, stdDev, ok := e.Estimate()
	if !ok {
		t.Fatalf("Estimate() ok=false, want true")
	}
	if stdDev > 0.01 {
		t.Fatalf("stdDev = %v, want small for tight samples", stdDev)
	}
	if math.Abs(induction.Abs()-1) > 1e-9 {
		t.Fatalf("induction not normalized: |v| = %v", induction.Abs())
	}
}

func TestCommitterInductionEstimateReportsLargeStdDevForNoisySamples(t *testing.T) {
	c := NewCommitter(Calibration{})
	r := rand.New(rand.NewSource(4))
	for i := 0; i < 50; i++ {
		c.FeedInduction(vecmat.NewVector3(r.NormFloat64(), r.NormFloat64(), r.NormFloat64()))
	}
	_, stdDev, ok := c.InductionEstimate()
	if !ok {
		t.Fatalf("InductionEstimate() ok=false, want true with 50 samples")
	}
	if stdDev < 0.05 {
		t.Fatalf("stdDev = %v, want large for noisy random samples", stdDev)
	}
}
