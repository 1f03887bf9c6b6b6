package nmea

import "strings"

// Report groups every observable format_NMEA_string consumes in one
// emission cycle.
type Report struct {
	Coordinates Coordinates

	WindAverageNorth, WindAverageEast float64

	TAS, StaticPressurePa, PitotPressurePa float64
	TEKVario, SupplyVoltage                float64
	AirDataAvailable                       bool
	HumidityPercent, TemperatureC          float64

	Roll, Pitch, Yaw float64
}

// FormatAll renders every sentence format_NMEA_string emits, in the
// same order, each terminated with its checksum and CRLF.
func FormatAll(r Report) string {
	var b strings.Builder
	b.WriteString(wrap(FormatRMC(r.Coordinates)))
	b.WriteString(wrap(FormatGGA(r.Coordinates)))
	b.WriteString(wrap(FormatMWV(r.WindAverageNorth, r.WindAverageEast)))
	b.WriteString(wrap(FormatPOV(r.TAS, r.StaticPressurePa, r.PitotPressurePa, r.TEKVario, r.SupplyVoltage, r.AirDataAvailable, r.HumidityPercent, r.TemperatureC)))
	b.WriteString(wrap(FormatPOVRNY(r.Roll, r.Pitch, r.Yaw)))
	b.WriteString(wrap(FormatHCHDT(r.Yaw)))
	return b.String()
}
