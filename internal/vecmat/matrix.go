package vecmat

import "math"

// Matrix3 is a 3x3 matrix stored row-major. It exists to hold a
// body-to-nav rotation (or its transpose): row i, column j is written
// R[i][j].
type Matrix3 struct {
	R [3][3]float64
}

// Rows builds a Matrix3 from three row vectors.
func Rows(r0, r1, r2 Vector3) Matrix3 {
	return Matrix3{R: [3][3]float64{r0.E, r1.E, r2.E}}
}

// Apply returns R*v, mapping v from the frame R's columns are expressed in
// into the frame R's rows are expressed in (e.g. body -> nav when R is
// body2nav).
func (m Matrix3) Apply(v Vector3) Vector3 {
	return Vector3{E: [3]float64{
		m.R[0][0]*v.E[0] + m.R[0][1]*v.E[1] + m.R[0][2]*v.E[2],
		m.R[1][0]*v.E[0] + m.R[1][1]*v.E[1] + m.R[1][2]*v.E[2],
		m.R[2][0]*v.E[0] + m.R[2][1]*v.E[1] + m.R[2][2]*v.E[2],
	}}
}

// ReverseMap returns R^T*v. For the orthonormal rotation matrices this
// package produces, the transpose is the inverse, so this maps a vector
// the opposite direction of Apply (e.g. nav -> body when R is body2nav).
func (m Matrix3) ReverseMap(v Vector3) Vector3 {
	return Vector3{E: [3]float64{
		m.R[0][0]*v.E[0] + m.R[1][0]*v.E[1] + m.R[2][0]*v.E[2],
		m.R[0][1]*v.E[0] + m.R[1][1]*v.E[1] + m.R[2][1]*v.E[2],
		m.R[0][2]*v.E[0] + m.R[1][2]*v.E[1] + m.R[2][2]*v.E[2],
	}}
}

// FrobeniusOrthogonalityError returns ||R*R^T - I||_F, used by property
// tests to check that R stays a valid rotation matrix (spec §8).
func (m Matrix3) FrobeniusOrthogonalityError() float64 {
	var sum float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var prod float64
			for k := 0; k < 3; k++ {
				prod += m.R[i][k] * m.R[j][k]
			}
			want := 0.0
			if i == j {
				want = 1.0
			}
			d := prod - want
			sum += d * d
		}
	}
	return math.Sqrt(sum)
}
