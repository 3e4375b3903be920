package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order. FR exports are day-first; ISO and
// spreadsheet-formatted datetimes also appear in practice.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"02/01/2006 15:04:05",
	"2/1/2006",
	"02-01-2006",
	"01-02-06",
	time.RFC3339,
}

// ParseAmount parses a monetary cell. Legacy exports use a decimal comma
// and spaces as thousands separators ("1 234,56"). Unparseable cells return
// NaN, never an error.
func ParseAmount(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return math.NaN()
	}

	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	// "1.234,56" style: dots are thousands separators when a comma follows.
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// ParseDate parses a date cell, returning the zero time when no known
// layout matches.
func ParseDate(raw string) time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ParseCollected interprets a collection flag cell. Legacy exports use
// "OUI"/"NON"; boolean-ish values are also accepted.
func ParseCollected(raw string) bool {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "OUI", "YES", "TRUE", "Y", "1":
		return true
	default:
		return false
	}
}
