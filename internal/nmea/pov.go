package nmea

import "fmt"

// FormatPOV renders the proprietary $POV vario/air-data sentence body,
// grounded on format_POV. humidityPercent and temperatureC are plain
// physical units (0-100%, degrees Celsius); this formatter applies the
// single x100 scale documented for the wire field, not the original's
// apparent double x100 (its call site already pre-scales humidity by
// 100 before format_POV multiplies by 100 again).
func FormatPOV(tas, staticPressurePa, pitotPressurePa, tekVario, supplyVoltage float64, airDataAvailable bool, humidityPercent, temperatureC float64) string {
	pitot := pitotPressurePa
	if pitot < 0 {
		pitot = 0
	}
	body := fmt.Sprintf("POV,E,%s,P,%s,R,%s,S,%s,V,%s",
		formatFixedDecimal(int(tekVario*100), 2),
		formatFixedDecimal(int(staticPressurePa), 2),
		formatFixedDecimal(int(pitot), 2),
		formatFixedDecimal(int(tas*360), 2),
		formatFixedDecimal(int(supplyVoltage*10), 1),
	)
	if airDataAvailable {
		body += fmt.Sprintf(",H,%s,T,%s",
			formatFixedDecimal(int(humidityPercent*100), 2),
			formatFixedDecimal(int(temperatureC*100), 2),
		)
	}
	return body
}

// FormatPOVRNY renders the proprietary $POV attitude sentence body
// (bank/nick/yaw), grounded on format_POV_RNY. All angles are radians;
// yaw is wrapped to [0, 2*pi) before scaling.
func FormatPOVRNY(roll, pitch, yaw float64) string {
	if yaw < 0 {
		yaw += 2 * 3.14159265358979323846
	}
	return fmt.Sprintf("POV,B,%s,N,%s,Y,%s",
		formatFixedDecimal(int(roll*radToDegreeTenths+0.5), 1),
		formatFixedDecimal(int(pitch*radToDegreeTenths+0.5), 1),
		formatFixedDecimal(int(yaw*radToDegreeTenths+0.5), 1),
	)
}

// FormatHCHDT renders the $HCHDT true-heading sentence body, grounded
// on format_HCHDT. It uses the original's own 573.0 constant (not
// radToDegreeTenths=572.958) and, like the original, applies no
// rounding offset before truncation.
func FormatHCHDT(yaw float64) string {
	heading := int(yaw * 573.0)
	if heading < 0 {
		heading += 3600
	}
	return "HCHDT," + formatFixedDecimal(heading, 1) + ",T"
}
