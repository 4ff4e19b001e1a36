// Package normalize coerces the loosely-typed values that arrive in plan
// arguments (flight numbers, dates, tail numbers) into the canonical forms
// store queries expect. All coercion lives here; call sites never parse.
package normalize

import (
	"strconv"
	"strings"
	"time"
)

// dateLayouts are the recognized textual date formats, tried in order.
var dateLayouts = []string{
	"2006-01-02",      // 2024-06-23
	"02-01-2006",      // 23-06-2024
	"2006/01/02",      // 2024/06/23
	"02/01/2006",      // 23/06/2024
	"January 2, 2006", // June 23, 2024
	"2 January 2006",  // 23 June 2024
	"Jan 2, 2006",     // Jun 23, 2024
	"2 Jan 2006",      // 23 Jun 2024
}

// FlightNumber converts a caller-supplied flight number to its canonical
// integer form. Callers pass strings, ints, or JSON numbers interchangeably;
// flight numbers are stored as integers, so every query path funnels through
// here. The second return is false when the value is absent or not an
// integer literal.
func FlightNumber(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		// JSON numbers decode as float64; reject fractional values.
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.Atoi(s)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// Date normalizes a date string in any recognized format to YYYY-MM-DD.
// Returns "" when no format matches; callers must treat that as a
// request-level validation error, not an absent date.
func Date(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

// TailNumber normalizes an aircraft registration: Indian registrations are
// stored hyphenated ("VT-IVY"), but callers often type them without the
// hyphen ("VTIVY").
func TailNumber(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "VT") && !strings.Contains(s, "-") && len(s) > 2 {
		return s[:2] + "-" + s[2:]
	}
	return s
}
