package device

import "luxafor/internal/color"

const (
	reportSize = 9

	modeStatic byte = 0x01
	modeFade   byte = 0x02

	// allLEDs addresses both sides of the flag.
	allLEDs byte = 0xFF
)

// encodeReport builds the output report for hex. Byte zero is the report id,
// which the flag does not use.
func encodeReport(hex color.Hex, fade bool, speed uint8) [reportSize]byte {
	r, g, b := hex.RGB()
	report := [reportSize]byte{0x00, modeStatic, allLEDs, r, g, b}
	if fade {
		report[1] = modeFade
		report[6] = speed
	}
	return report
}
