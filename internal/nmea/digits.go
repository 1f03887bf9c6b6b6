package nmea

import "fmt"

// formatFixedDecimal renders a pre-scaled integer as a fixed-point ASCII
// number with the given number of digits after the decimal point,
// matching integer_to_ascii_2_decimals / integer_to_ascii_1_decimal.
func formatFixedDecimal(scaled, decimals int) string {
	neg := scaled < 0
	if neg {
		scaled = -scaled
	}
	scale := 1
	for i := 0; i < decimals; i++ {
		scale *= 10
	}
	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%s%d.%0*d", sign, scaled/scale, decimals, scaled%scale)
}

// formatTripleDigitTenths renders a non-negative tenths-scaled integer
// with exactly three digits before the decimal point, the same
// /1000,/100,/10-then-mod digit assembly format_RMC and format_MWV use
// for speed, track, and wind fields.
func formatTripleDigitTenths(tenths int) string {
	if tenths < 0 {
		tenths = 0
	}
	return fmt.Sprintf("%03d.%d", tenths/10, tenths%10)
}

// formatSignedTripleDigitTenths is formatTripleDigitTenths with an
// explicit leading '-' for negative values, matching format_GGA's
// geo-separation field.
func formatSignedTripleDigitTenths(tenths int) string {
	sign := ""
	if tenths < 0 {
		sign = "-"
		tenths = -tenths
	}
	return sign + formatTripleDigitTenths(tenths)
}

// formatQuadDigitTenths is the four-integer-digit variant format_GGA
// uses for altitude.
func formatQuadDigitTenths(tenths int) string {
	if tenths < 0 {
		tenths = 0
	}
	return fmt.Sprintf("%04d.%d", tenths/10, tenths%10)
}
