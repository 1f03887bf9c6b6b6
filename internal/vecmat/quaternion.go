package vecmat

import "math"

// Quaternion is a unit quaternion rotating the body frame into the nav
// frame: X_nav = q * X_body * conj(q). E0 is the scalar part.
type Quaternion struct {
	E0, E1, E2, E3 float64
}

// IdentityQuaternion returns the no-rotation quaternion.
func IdentityQuaternion() Quaternion {
	return Quaternion{E0: 1}
}

// FromRotationMatrix builds the quaternion corresponding to a body-to-nav
// rotation matrix, following the standard trace-based extraction (the
// same approach as westphae-goflying's rotation-matrix/quaternion duality,
// generalized to accept an arbitrary orthonormal matrix instead of only
// deriving one from Euler angles).
func FromRotationMatrix(m Matrix3) Quaternion {
	r := m.R
	trace := r[0][0] + r[1][1] + r[2][2]
	var q Quaternion
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1.0)
		q.E0 = 0.25 / s
		q.E1 = (r[2][1] - r[1][2]) * s
		q.E2 = (r[0][2] - r[2][0]) * s
		q.E3 = (r[1][0] - r[0][1]) * s
	case r[0][0] > r[1][1] && r[0][0] > r[2][2]:
		s := 2.0 * math.Sqrt(1.0+r[0][0]-r[1][1]-r[2][2])
		q.E0 = (r[2][1] - r[1][2]) / s
		q.E1 = 0.25 * s
		q.E2 = (r[0][1] + r[1][0]) / s
		q.E3 = (r[0][2] + r[2][0]) / s
	case r[1][1] > r[2][2]:
		s := 2.0 * math.Sqrt(1.0+r[1][1]-r[0][0]-r[2][2])
		q.E0 = (r[0][2] - r[2][0]) / s
		q.E1 = (r[0][1] + r[1][0]) / s
		q.E2 = 0.25 * s
		q.E3 = (r[1][2] + r[2][1]) / s
	default:
		s := 2.0 * math.Sqrt(1.0+r[2][2]-r[0][0]-r[1][1])
		q.E0 = (r[1][0] - r[0][1]) / s
		q.E1 = (r[0][2] + r[2][0]) / s
		q.E2 = (r[1][2] + r[2][1]) / s
		q.E3 = 0.25 * s
	}
	return q.Normalize()
}

// ToRotationMatrix returns the body-to-nav rotation matrix for q, i.e.
// R such that R.Apply(bodyVector) == navVector. Mirrors the eij formulas
// in westphae-goflying/ahrs/ahrs_defs.go calcRotationMatrices, transposed
// to the earth<-aircraft direction this package's Apply uses.
func (q Quaternion) ToRotationMatrix() Matrix3 {
	e0, e1, e2, e3 := q.E0, q.E1, q.E2, q.E3
	return Matrix3{R: [3][3]float64{
		{e0*e0 + e1*e1 - e2*e2 - e3*e3, 2 * (e1*e2 - e0*e3), 2 * (e1*e3 + e0*e2)},
		{2 * (e1*e2 + e0*e3), e0*e0 - e1*e1 + e2*e2 - e3*e3, 2 * (e2*e3 - e0*e1)},
		{2 * (e1*e3 - e0*e2), 2 * (e2*e3 + e0*e1), e0*e0 - e1*e1 - e2*e2 + e3*e3},
	}}
}

// Norm returns ||q||.
func (q Quaternion) Norm() float64 {
	return math.Sqrt(q.E0*q.E0 + q.E1*q.E1 + q.E2*q.E2 + q.E3*q.E3)
}

// Normalize returns q scaled to unit norm (spec §3 invariant: ||q|| == 1
// after every update).
func (q Quaternion) Normalize() Quaternion {
	n := q.Norm()
	if n < 1e-12 {
		return IdentityQuaternion()
	}
	return Quaternion{E0: q.E0 / n, E1: q.E1 / n, E2: q.E2 / n, E3: q.E3 / n}
}

// RotateBySmallAngle advances q by a small-angle body-frame rotation
// (wx, wy, wz), i.e. q <- q ⊗ exp(0.5*w) as spec §4.2 step 2 describes,
// linearized the same way original_source/NAV_Algorithms/AHRS.cpp's
// attitude.rotate(halfAngleX, halfAngleY, halfAngleZ) does: each half-angle
// component is applied as an independent small first-order quaternion
// increment rather than a full exponential map, since gyro*Ts/2 is always
// tiny at typical sample rates.
func (q Quaternion) RotateBySmallAngle(halfAngle Vector3) Quaternion {
	hx, hy, hz := halfAngle.E[0], halfAngle.E[1], halfAngle.E[2]
	return Quaternion{
		E0: q.E0 - q.E1*hx - q.E2*hy - q.E3*hz,
		E1: q.E1 + q.E0*hx - q.E3*hy + q.E2*hz,
		E2: q.E2 + q.E3*hx + q.E0*hy - q.E1*hz,
		E3: q.E3 - q.E2*hx + q.E1*hy + q.E0*hz,
	}
}

// Euler returns the roll, pitch, yaw (radians) corresponding to q, using
// the body axes FRONT=+x/RIGHT=+y/DOWN=+z convention of spec's GLOSSARY.
func (q Quaternion) Euler() (roll, pitch, yaw float64) {
	m := q.ToRotationMatrix()
	r := m.R
	roll = math.Atan2(r[2][1], r[2][2])
	// Clamp for numerical safety near the pitch singularity.
	s := -r[2][0]
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	pitch = math.Asin(s)
	yaw = math.Atan2(r[1][0], r[0][0])
	return
}

// FromEuler builds the quaternion for a given roll/pitch/yaw (radians),
// used by the scenario ticker and by tests constructing known attitudes.
func FromEuler(roll, pitch, yaw float64) Quaternion {
	cr, sr := math.Cos(roll/2), math.Sin(roll/2)
	cp, sp := math.Cos(pitch/2), math.Sin(pitch/2)
	cy, sy := math.Cos(yaw/2), math.Sin(yaw/2)
	return Quaternion{
		E0: cr*cp*cy + sr*sp*sy,
		E1: sr*cp*cy - cr*sp*sy,
		E2: cr*sp*cy + sr*cp*sy,
		E3: cr*cp*sy - sr*sp*cy,
	}.Normalize()
}

// WrapPi wraps an angle into (-pi, pi], as spec §4.3's heading-difference
// computation requires.
func WrapPi(angle float64) float64 {
	for angle > math.Pi {
		angle -= 2 * math.Pi
	}
	for angle <= -math.Pi {
		angle += 2 * math.Pi
	}
	return angle
}

// WrapTwoPi wraps an angle into [0, 2*pi), as spec §6's HCHDT/yaw output
// formatting requires.
func WrapTwoPi(angle float64) float64 {
	for angle < 0 {
		angle += 2 * math.Pi
	}
	for angle >= 2*math.Pi {
		angle -= 2 * math.Pi
	}
	return angle
}
