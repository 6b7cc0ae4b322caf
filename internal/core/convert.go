package core

// convert.go provides conversions from raw feed fields to typed values.
//
// The feeds come from a Spanish open-data export:
//   - Decimals use a comma separator ("1,529")
//   - Header timestamps use dd/MM/yyyy HH:mm
//   - Windows line endings are common
//
// ParseLocaleDecimal never fails: malformed numbers are data, reported as
// missing. ParseHeaderTimestamp is strict because every row shares it.

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// HeaderTimestampLayout is the Go layout for the feed header timestamp.
const HeaderTimestampLayout = "02/01/2006 15:04"

// FieldSeparator separates fields on every feed line.
const FieldSeparator = ";"

// ParseLocaleDecimal parses a decimal that may use a comma separator.
// Returns ok=false for blank or unparsable input.
func ParseLocaleDecimal(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}

	s = strings.ReplaceAll(s, ",", ".")

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseHeaderTimestamp extracts the feed timestamp from the header line.
// The second field must match HeaderTimestampLayout exactly, with two-digit
// day, month, hour and minute. The result is
// the wall-clock time expressed in UTC.
func ParseHeaderTimestamp(headerLine string) (time.Time, error) {
	fields := SplitRow(headerLine)
	if len(fields) < 2 {
		return time.Time{}, fmt.Errorf("%w: header has no timestamp field: %q", ErrHeaderTimestamp, headerLine)
	}

	raw := strings.TrimSpace(fields[1])
	if len(raw) != len(HeaderTimestampLayout) {
		return time.Time{}, fmt.Errorf("%w: %q is not dd/MM/yyyy HH:mm", ErrHeaderTimestamp, raw)
	}
	ts, err := time.Parse(HeaderTimestampLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrHeaderTimestamp, raw, err)
	}
	return ts, nil
}

// SplitRow splits a feed line on the field separator, keeping empty
// trailing fields. A trailing carriage return is dropped.
func SplitRow(line string) []string {
	line = strings.TrimSuffix(line, "\r")
	return strings.Split(line, FieldSeparator)
}

// IsBlankLine reports whether a line carries no data at all.
func IsBlankLine(line string) bool {
	for _, f := range SplitRow(line) {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// OptionalText returns nil for blank strings and a pointer to the trimmed
// value otherwise.
func OptionalText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
