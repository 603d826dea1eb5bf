package cleaning

import (
	"strconv"
	"strings"
	"time"
)

// CJK magnitude suffixes seen in provider exports.
const (
	suffixWan = "万" // x10^4
	suffixYi  = "亿" // x10^8
)

// parseNumber coerces a loosely-formatted numeric cell. Thousands separators
// and magnitude suffixes are stripped before parsing. Invalid values report
// ok=false rather than an error: missing beats raising.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	scale := 1.0
	if strings.HasSuffix(s, suffixYi) {
		scale = 1e8
		s = strings.TrimSuffix(s, suffixYi)
	} else if strings.HasSuffix(s, suffixWan) {
		scale = 1e4
		s = strings.TrimSuffix(s, suffixWan)
	}

	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v * scale, true
}

// timestampLayouts are tried in order after separator normalization.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// parseTimestamp parses a timestamp token. Tokens lacking a date component
// are prefixed with the batch's trading date first.
func parseTimestamp(s string, date time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "T", " ")

	if !hasDateComponent(s) {
		s = date.Format("2006-01-02") + " " + s
	}

	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, date.Location()); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// hasDateComponent reports whether the token starts with a YYYY-MM-DD date.
func hasDateComponent(s string) bool {
	if len(s) < 10 {
		return false
	}
	for i, r := range s[:10] {
		switch i {
		case 4, 7:
			if r != '-' {
				return false
			}
		default:
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}
