// Package natdate implements the ordered date-parsing attempts spec §4.1
// requires for the DATE field type: ISO-8601, YYYY-MM-DD, YYYYMMDD, then a
// natural-language fallback for relative phrases like "45 days ago".
package natdate

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/btubbs/datetime"
)

// Parse tries, in spec §4.1 order, to turn v into a time.Time. now is
// injected so relative phrases are testable without wall-clock flakiness;
// callers pass time.Now() in production.
func Parse(v string, now time.Time) (time.Time, error) {
	trimmed := strings.TrimSpace(v)

	if t, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", trimmed); err == nil {
		return t, nil
	}
	if t, err := time.Parse("20060102", trimmed); err == nil {
		return t, nil
	}
	// btubbs/datetime recognizes a broad set of additional absolute and
	// flexible formats (e.g. "Jan 2, 2006", "2006-01-02 15:04:05") that the
	// three explicit formats above don't cover.
	if t, err := datetime.Parse(trimmed, time.UTC); err == nil {
		return t, nil
	}
	if t, ok := parseRelative(trimmed, now); ok {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("could not convert %s to a date", v)
}

// parseRelative handles "<N> <unit(s)> ago" and "<N> <unit(s)> from now",
// the natural-language shapes spec §9 calls out explicitly ("45 days ago",
// "5000 days ago"). The scenario tolerance (±5 minutes of the naive
// computation) named in spec §9 is satisfied trivially since this is the
// naive computation.
func parseRelative(v string, now time.Time) (time.Time, bool) {
	fields := strings.Fields(strings.ToLower(v))
	if len(fields) < 3 {
		return time.Time{}, false
	}

	future := false
	var n int64
	var unit string
	switch {
	case fields[len(fields)-1] == "ago":
		n64, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		n = n64
		unit = strings.TrimSuffix(fields[1], "s")
	case len(fields) >= 3 && fields[len(fields)-2] == "from" && fields[len(fields)-1] == "now":
		n64, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		n = n64
		unit = strings.TrimSuffix(fields[1], "s")
		future = true
	default:
		return time.Time{}, false
	}

	if future {
		n = -n
	}

	switch unit {
	case "second":
		return now.Add(-time.Duration(n) * time.Second), true
	case "minute":
		return now.Add(-time.Duration(n) * time.Minute), true
	case "hour":
		return now.Add(-time.Duration(n) * time.Hour), true
	case "day":
		return now.AddDate(0, 0, -int(n)), true
	case "week":
		return now.AddDate(0, 0, -7*int(n)), true
	case "month":
		return now.AddDate(0, -int(n), 0), true
	case "year":
		return now.AddDate(-int(n), 0, 0), true
	}
	return time.Time{}, false
}
