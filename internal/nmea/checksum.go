// Package nmea is a pure formatter for the NMEA-0183-style sentences the
// sensor emits: RMC/GGA position, MWV wind, POV/POV_RNY proprietary
// vario and attitude fields, and HCHDT heading. It never reads a clock
// or a port; every function is (values in) -> (ASCII bytes out).
// Grounded on original_source/Output_Formatter/NMEA_format.cpp.
package nmea

import "fmt"

// Checksum returns the 8-bit XOR of every byte in body, the same
// accumulation NMEA_checksum and NMEA_append_tail perform over the
// bytes between '$' and '*'.
func Checksum(body string) byte {
	var c byte
	for i := 0; i < len(body); i++ {
		c ^= body[i]
	}
	return c
}

// wrap assembles one complete sentence from its body (the bytes that
// would appear between '$' and '*'), appending the checksum and CRLF
// terminator, as NMEA_append_tail does.
func wrap(body string) string {
	return fmt.Sprintf("$%s*%02X\r\n", body, Checksum(body))
}

// Valid reports whether sentence (including the leading '$' and
// trailing CRLF) carries a correct checksum, mirroring NMEA_checksum.
func Valid(sentence string) bool {
	if len(sentence) == 0 || sentence[0] != '$' {
		return false
	}
	star := -1
	for i := 1; i < len(sentence); i++ {
		if sentence[i] == '*' {
			star = i
			break
		}
	}
	if star < 0 || star+2 >= len(sentence) {
		return false
	}
	want := fmt.Sprintf("%02X", Checksum(sentence[1:star]))
	return sentence[star+1:star+3] == want
}
