// Package duration parses and renders the two textual delay encodings found
// in flight leg documents: the ISO-8601 designator form ("PT1H30M", "PT45M")
// and the colon-delimited clock form ("01:30").
//
// Delay values feed display aggregation, not correctness-critical logic, so
// unrecognized input parses as zero minutes ("no delay") rather than as an
// error.
package duration

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// designatorRe captures the optional hour and minute components of a
// designator-form duration.
var designatorRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?$`)

// ZeroSentinels are the stored encodings equivalent to "no delay". The nil
// entry covers documents where the field is absent.
var ZeroSentinels = []any{"PT0H0M", "00:00", "", nil}

// ParseMinutes converts a delay string in either encoding to total minutes.
func ParseMinutes(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		if len(parts) != 2 {
			return 0
		}
		hours, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil || hours < 0 {
			return 0
		}
		minutes, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil || minutes < 0 {
			return 0
		}
		return hours*60 + minutes
	}

	if strings.HasPrefix(s, "PT") {
		m := designatorRe.FindStringSubmatch(s)
		if m == nil {
			return 0
		}
		var hours, minutes int
		if m[1] != "" {
			hours, _ = strconv.Atoi(m[1])
		}
		if m[2] != "" {
			minutes, _ = strconv.Atoi(m[2])
		}
		return hours*60 + minutes
	}

	return 0
}

// FormatDesignator renders minutes in designator form. Zero renders as
// "PT0H0M", the canonical stored zero sentinel.
func FormatDesignator(total int) string {
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("PT%dH%dM", total/60, total%60)
}

// FormatColon renders minutes in zero-padded clock form.
func FormatColon(total int) string {
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// Readable renders minutes as English text, e.g. "1 hour 48 minutes".
// Zero-valued components are omitted; zero total renders as "no delay".
func Readable(total int) string {
	if total <= 0 {
		return "no delay"
	}

	hours := total / 60
	minutes := total % 60

	var parts []string
	if hours > 0 {
		parts = append(parts, pluralize(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, pluralize(minutes, "minute"))
	}
	return strings.Join(parts, " ")
}

func pluralize(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
