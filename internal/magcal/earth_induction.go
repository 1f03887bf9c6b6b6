package magcal

import (
	"math"

	"glidenav/internal/vecmat"

	"gonum.org/v1/gonum/stat"
)

// EarthInductionEstimator collects nav-frame magnetometer samples during
// circling and estimates the Earth induction vector (e_nav) from their
// mean, reporting the standard deviation of the sample magnitudes
// alongside it. It does not reject an estimate itself; the caller
// compares the standard deviation against its threshold.
type EarthInductionEstimator struct {
	x, y, z, mag []float64
}

// Feed records one nav-frame magnetometer sample.
func (e *EarthInductionEstimator) Feed(v vecmat.Vector3) {
	e.x = append(e.x, v.E[0])
	e.y = append(e.y, v.E[1])
	e.z = append(e.z, v.E[2])
	e.mag = append(e.mag, v.Abs())
}

// Reset discards all collected samples.
func (e *EarthInductionEstimator) Reset() {
	e.x, e.y, e.z, e.mag = nil, nil, nil, nil
}

// SampleCount returns the number of samples collected so far.
func (e *EarthInductionEstimator) SampleCount() int {
	return len(e.mag)
}

// Estimate returns the mean induction vector (normalized) and the
// standard deviation of the sample magnitudes. ok is false when too few
// samples were collected to estimate meaningfully.
func (e *EarthInductionEstimator) Estimate() (induction vecmat.Vector3, stdDev float64, ok bool) {
	if len(e.mag) < 8 {
		return vecmat.Vector3{}, 0, false
	}
	mx, _ := stat.MeanVariance(e.x, nil)
	my, _ := stat.MeanVariance(e.y, nil)
	mz, _ := stat.MeanVariance(e.z, nil)
	_, magVar := stat.MeanVariance(e.mag, nil)

	induction = vecmat.NewVector3(mx, my, mz).Normalize()
	stdDev = math.Sqrt(magVar)
	ok = true
	return
}
