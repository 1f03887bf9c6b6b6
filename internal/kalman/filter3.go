// Package kalman implements the two fixed-structure 3-state linear
// Kalman filters the flight observer drives every tick: a vertical
// position/velocity/acceleration filter (two instances, one per
// altitude source) and a horizontal velocity/acceleration/offset filter
// (two instances, one per NED horizontal axis). Both are 3x3 by
// construction, so the update equations are hand-written against fixed
// [3]float64 / [3][3]float64 arrays rather than routed through a
// general matrix library.
package kalman

// filter3 is the shared 3-state predict/correct engine underlying both
// VarioPVA and VAAoff. It is not exported: each caller wraps it with its
// own state-transition matrix and named component accessors.
type filter3 struct {
	x [3]float64
	p [3][3]float64
}

// reset seeds the state vector and resets covariance to a diagonal
// "wide open" prior, the same shape flight_observer.cpp's reset methods
// give KalmanVario_pressure/KalmanVario_GNSS at boot.
func (f *filter3) reset(x0, x1, x2 float64) {
	f.x = [3]float64{x0, x1, x2}
	f.p = [3][3]float64{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
}

// predict advances the state by one tick under state-transition matrix F
// and adds diagonal process noise q.
func (f *filter3) predict(fMat [3][3]float64, q [3]float64) {
	var xNew [3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			xNew[i] += fMat[i][j] * f.x[j]
		}
	}
	// P = F P F^T + Q
	var fp [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += fMat[i][k] * f.p[k][j]
			}
			fp[i][j] = sum
		}
	}
	var pNew [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += fp[i][k] * fMat[j][k]
			}
			pNew[i][j] = sum
		}
	}
	for i := 0; i < 3; i++ {
		pNew[i][i] += q[i]
	}
	f.x = xNew
	f.p = pNew
}

// correct applies a single scalar measurement z = H*x + noise(r), where
// H is a row vector selecting (a combination of) states. This covers
// both a plain single-state measurement (H a unit vector, as altitude,
// velocity, and acceleration measurements are for VarioPVA) and a
// combined measurement (H with two nonzero entries, as VAAoff's
// accelerometer reading which observes acceleration plus offset).
func (f *filter3) correct(h [3]float64, z, r float64) {
	// innovation covariance S = H P H^T + r
	var ph [3]float64
	for i := 0; i < 3; i++ {
		var sum float64
		for j := 0; j < 3; j++ {
			sum += f.p[i][j] * h[j]
		}
		ph[i] = sum
	}
	var s float64
	for i := 0; i < 3; i++ {
		s += h[i] * ph[i]
	}
	s += r

	// Kalman gain K = P H^T / S
	var k [3]float64
	for i := 0; i < 3; i++ {
		k[i] = ph[i] / s
	}

	// innovation
	var hx float64
	for i := 0; i < 3; i++ {
		hx += h[i] * f.x[i]
	}
	y := z - hx

	for i := 0; i < 3; i++ {
		f.x[i] += k[i] * y
	}

	// P = (I - K H) P
	var kh [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			kh[i][j] = k[i] * h[j]
		}
	}
	var pNew [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for m := 0; m < 3; m++ {
				sum += kh[i][m] * f.p[m][j]
			}
			pNew[i][j] = f.p[i][j] - sum
		}
	}
	f.p = pNew
}

func (f *filter3) get(i int) float64 {
	return f.x[i]
}
