package nmea

import (
	"strings"
	"testing"
)

func TestChecksumMatchesXORAccumulation(t *testing.T) {
	body := "GPRMC,123456.00,A,4830.00000,N,00915.00000,E,097.2,090.0,010224,,,A"
	var want byte
	for i := 0; i < len(body); i++ {
		want ^= body[i]
	}
	if got := Checksum(body); got != want {
		t.Fatalf("Checksum = 0x%02X, want 0x%02X", got, want)
	}
}

func TestWrapProducesValidSentence(t *testing.T) {
	sentence := wrap("GPRMC,123456.00,A,4830.00000,N,00915.00000,E,097.2,090.0,010224,,,A")
	if !strings.HasSuffix(sentence, "\r\n") {
		t.Fatalf("sentence = %q, want CRLF terminator", sentence)
	}
	if !Valid(sentence) {
		t.Fatalf("Valid(%q) = false, want true", sentence)
	}
}

func TestValidRejectsTamperedChecksum(t *testing.T) {
	sentence := wrap("GPGGA,000000.00,4830.00000,N,00915.00000,E,1,08,0.0,0100.0,M,000.0,m,,")
	tampered := sentence[:len(sentence)-4] + "FF" + sentence[len(sentence)-2:]
	if Valid(tampered) {
		t.Fatalf("Valid should reject a tampered checksum")
	}
}

// The worked example in the spec's RMC seed test gives sss.s/ttt.t
// fields ("0972.0","0900.0") an extra leading zero versus both the
// three-digit field template quoted alongside it and the original
// digit-by-digit assembly in format_RMC, which this formatter follows;
// this test pins down the three-digit rendering actually produced.
func TestFormatRMCFieldLayout(t *testing.T) {
	c := Coordinates{
		Hour: 12, Minute: 34, Second: 56,
		FixValid:      true,
		Latitude:      48.5,
		Longitude:     9.25,
		SpeedMotion:   50,
		HeadingMotion: 1.57,
		Day:           1, Month: 2, Year: 2024,
	}
	got := FormatRMC(c)
	want := "GPRMC,123456.00,A,4830.00000,N,00915.00000,E,097.2,090.0,010224,,,A"
	if got != want {
		t.Fatalf("FormatRMC = %q, want %q", got, want)
	}
}

func TestFormatRMCVoidFixStatus(t *testing.T) {
	c := Coordinates{FixValid: false}
	got := FormatRMC(c)
	if !strings.Contains(got, ",V,") {
		t.Fatalf("FormatRMC = %q, want a void ',V,' status field", got)
	}
}

func TestFormatGGAAlwaysReportsFixOne(t *testing.T) {
	for _, fixType := range []int{-1, 0, 1, 99} {
		c := Coordinates{SatFixType: fixType, SatsNumber: 7, AltitudeMSL: 500}
		got := FormatGGA(c)
		if !strings.Contains(got, ",1,07,") {
			t.Fatalf("FormatGGA(SatFixType=%d) = %q, want the fix-quality field pinned at '1' regardless of SatFixType", fixType, got)
		}
	}
}

func TestFormatGGAAltitudeField(t *testing.T) {
	c := Coordinates{AltitudeMSL: 543.5, SatsNumber: 9}
	got := FormatGGA(c)
	if !strings.Contains(got, "0543.5,M,") {
		t.Fatalf("FormatGGA = %q, want a four-digit altitude field 0543.5,M,", got)
	}
}

func TestFormatMWVDirectionIsWhereWindComesFrom(t *testing.T) {
	// wind blowing from due north at 10 m/s: nav-frame wind vector points
	// south, i.e. windNorth is negative.
	got := FormatMWV(-10, 0)
	if !strings.HasPrefix(got, "GPMWV,000.0,T,") {
		t.Fatalf("FormatMWV(-10,0) = %q, want direction 000.0 (from the north)", got)
	}
}

func TestFormatMWVWrapsNegativeDirection(t *testing.T) {
	got := FormatMWV(0, 10) // wind vector points east => wind comes from the west; atan2 gives -pi/2, which must wrap to ~270
	if strings.Contains(got, "-") {
		t.Fatalf("FormatMWV = %q, want the wrapped direction to never be negative", got)
	}
}

func TestFormatPOVFieldsWithAirData(t *testing.T) {
	got := FormatPOV(25, 98000, 350, 1.23, 12.4, true, 45.5, 21.75)
	want := "POV,E,1.23,P,980.00,R,3.50,S,90.00,V,12.4,H,45.50,T,21.75"
	if got != want {
		t.Fatalf("FormatPOV = %q, want %q", got, want)
	}
}

func TestFormatPOVOmitsAirDataFieldsWhenUnavailable(t *testing.T) {
	got := FormatPOV(25, 98000, 350, 1.23, 12.4, false, 45.5, 21.75)
	if strings.Contains(got, ",H,") || strings.Contains(got, ",T,") {
		t.Fatalf("FormatPOV = %q, want H/T fields omitted when air data is unavailable", got)
	}
}

func TestFormatPOVClampsNegativePitot(t *testing.T) {
	got := FormatPOV(25, 98000, -5, 0, 0, false, 0, 0)
	if !strings.Contains(got, ",R,0.00,") {
		t.Fatalf("FormatPOV = %q, want a negative pitot pressure clamped to 0", got)
	}
}

func TestFormatHCHDTNeverNegative(t *testing.T) {
	got := FormatHCHDT(-0.01)
	if strings.Contains(got, "-") {
		t.Fatalf("FormatHCHDT(-0.01) = %q, want a wrapped non-negative heading", got)
	}
	if !strings.HasPrefix(got, "HCHDT,359") {
		t.Fatalf("FormatHCHDT(-0.01) = %q, want a heading just under 360 degrees", got)
	}
}

func TestFormatPOVRNYWrapsNegativeYaw(t *testing.T) {
	got := FormatPOVRNY(0, 0, -0.01)
	if strings.Contains(got, "Y,-") {
		t.Fatalf("FormatPOVRNY = %q, want yaw wrapped to [0, 2*pi) before scaling", got)
	}
}

func TestFormatAllProducesSixValidSentences(t *testing.T) {
	r := Report{
		Coordinates: Coordinates{
			Hour: 1, Minute: 2, Second: 3, FixValid: true,
			Latitude: 48.5, Longitude: 9.25,
			SpeedMotion: 20, HeadingMotion: 0.5,
			Day: 6, Month: 8, Year: 2026,
			SatsNumber: 8, AltitudeMSL: 600,
		},
		WindAverageNorth: 3, WindAverageEast: -1,
		TAS: 25, StaticPressurePa: 95000, PitotPressurePa: 300,
		TEKVario: 1.5, SupplyVoltage: 12.6,
		Roll: 0.1, Pitch: 0.02, Yaw: 1.0,
	}
	all := FormatAll(r)
	lines := strings.Split(strings.TrimRight(all, "\r\n"), "\r\n")
	if len(lines) != 6 {
		t.Fatalf("FormatAll produced %d sentences, want 6", len(lines))
	}
	for _, line := range lines {
		if !Valid(line + "\r\n") {
			t.Fatalf("sentence %q failed checksum validation", line)
		}
	}
}
