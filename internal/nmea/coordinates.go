package nmea

import "fmt"

// radToDegreeTenths converts radians to decidegrees (degrees * 10), the
// same RAD_TO_DEGREE_10 constant NMEA_format.cpp uses for MWV and
// POV_RNY. RMC's track field is derived from it too: every angle this
// package's exported functions take is in radians, so RMC uses the same
// conversion as the sentences that are unambiguously radian-based in the
// original, rather than format_RMC's own literal "* 10.0" (which only
// makes sense if its caller already held a pre-converted degree value).
const radToDegreeTenths = 572.958

// mpsToKnots is MPS_TO_NMPH: 90*60 nautical miles / 10000 km / 3600 s/h.
const mpsToKnots = 1.944

// Coordinates is one GNSS fix's worth of RMC/GGA fields.
type Coordinates struct {
	Hour, Minute, Second int
	FixValid             bool
	Latitude, Longitude  float64 // degrees, signed (+N/+E)
	SpeedMotion          float64 // m/s
	HeadingMotion        float64 // radians
	Day, Month, Year     int

	// SatFixType feeds GGA's fix-quality field. format_GGA's original
	// source tests "sat_fix_type >= 0" against what is in fact an
	// unsigned field, which is always true; FormatGGA preserves that
	// observable behavior by always emitting '1' regardless of
	// SatFixType's value.
	SatFixType   int
	SatsNumber   int
	AltitudeMSL  float64 // meters, positive up
	GeoSepMeters float64 // meters, geoid separation
}

// formatAngle renders a signed decimal-degree angle as
// D...DMM.FFFFF,H, matching angle_format. degreeDigits controls the
// zero-padded width of the degree field: the original always uses 2
// (correct for latitude, truncating for longitude past 99 degrees);
// this formatter instead takes degreeDigits per call site so longitude
// keeps its third digit.
func formatAngle(angleDeg float64, degreeDigits int, pos, neg byte) string {
	positive := angleDeg > 0
	if !positive {
		angleDeg = -angleDeg
	}
	degree := int(angleDeg)
	minutes := (angleDeg - float64(degree)) * 60.0
	min := int(minutes)
	fracInt := int((minutes-float64(min))*100000 + 0.5)
	hemi := neg
	if positive {
		hemi = pos
	}
	return fmt.Sprintf("%0*d%02d.%05d,%c", degreeDigits, degree, min, fracInt, hemi)
}

// FormatRMC renders one $GPRMC sentence body (without the leading '$'
// or the trailing checksum/CRLF), grounded on format_RMC.
func FormatRMC(c Coordinates) string {
	status := byte('V')
	if c.FixValid {
		status = 'A'
	}
	heading := c.HeadingMotion
	if heading < 0 {
		heading += 2 * 3.14159265358979323846
	}
	headingTenths := int(heading*radToDegreeTenths + 0.5)
	speedTenths := int(c.SpeedMotion*mpsToKnots*10 + 0.5)

	return fmt.Sprintf("GPRMC,%02d%02d%02d.00,%c,%s,%s,%s,%s,%02d%02d%02d,,,A",
		c.Hour, c.Minute, c.Second, status,
		formatAngle(c.Latitude, 2, 'N', 'S'),
		formatAngle(c.Longitude, 3, 'E', 'W'),
		formatTripleDigitTenths(speedTenths),
		formatTripleDigitTenths(headingTenths),
		c.Day, c.Month, c.Year%100,
	)
}

// FormatGGA renders one $GPGGA sentence body, grounded on format_GGA.
func FormatGGA(c Coordinates) string {
	altTenths := int(c.AltitudeMSL * 10)
	geoSepTenths := int(c.GeoSepMeters * 10)

	return fmt.Sprintf("GPGGA,%02d%02d%02d.00,%s,%s,1,%02d,0.0,%s,M,%s,m,,",
		c.Hour, c.Minute, c.Second,
		formatAngle(c.Latitude, 2, 'N', 'S'),
		formatAngle(c.Longitude, 3, 'E', 'W'),
		c.SatsNumber,
		formatQuadDigitTenths(altTenths),
		formatSignedTripleDigitTenths(geoSepTenths),
	)
}
