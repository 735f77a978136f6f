package model

import (
	"fmt"
	"regexp"
	"strconv"
)

// timestampRe matches the HH:MM:SS.mmm prefix every recognized trace line
// starts with. Out-of-range components (e.g. minute 71) are rejected by
// ParseClock rather than by the pattern.
var timestampRe = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2})\.(\d{3})$`)

// ParseClock decodes an HH:MM:SS.mmm token into milliseconds since local
// midnight. Returns false for anything that is not a valid wall-clock time.
func ParseClock(s string) (int64, bool) {
	m := timestampRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	h, _ := strconv.ParseInt(m[1], 10, 64)
	min, _ := strconv.ParseInt(m[2], 10, 64)
	sec, _ := strconv.ParseInt(m[3], 10, 64)
	ms, _ := strconv.ParseInt(m[4], 10, 64)
	if h > 23 || min > 59 || sec > 59 {
		return 0, false
	}
	return ((h*60+min)*60+sec)*1000 + ms, true
}

// FormatClock renders milliseconds since midnight as HH:MM:SS.mmm.
func FormatClock(ms int64) string {
	h := ms / 3600000
	min := ms % 3600000 / 60000
	sec := ms % 60000 / 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, min, sec, ms%1000)
}

// FormatClockSpaced renders milliseconds since midnight as "HH:MM:SS mmm",
// the start-time format the diagram editor's import routine expects.
func FormatClockSpaced(ms int64) string {
	h := ms / 3600000
	min := ms % 3600000 / 60000
	sec := ms % 60000 / 1000
	return fmt.Sprintf("%02d:%02d:%02d %03d", h, min, sec, ms%1000)
}
