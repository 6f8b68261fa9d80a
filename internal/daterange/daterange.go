// Package daterange resolves the reporting window for a pipeline run: a
// closed interval of whole UTC days ending at yesterday, so a partially
// completed day never leaks into the output series.
package daterange

import "time"

const (
	DefaultLookbackDays = 7

	hyphenLayout  = "2006-01-02"
	compactLayout = "20060102"
)

// Range is an inclusive interval of UTC days. Start and End are midnights.
type Range struct {
	Start time.Time
	End   time.Time
}

// Resolve returns the lookback-day window ending at yesterday relative to
// now. Lookback values below 1 fall back to DefaultLookbackDays.
func Resolve(now time.Time, lookbackDays int) Range {
	if lookbackDays < 1 {
		lookbackDays = DefaultLookbackDays
	}
	u := now.UTC()
	end := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	return Range{
		Start: end.AddDate(0, 0, -(lookbackDays - 1)),
		End:   end,
	}
}

// Days enumerates every day in the range in ascending order. The upstream
// report may skip days with no activity; downstream gap-filling iterates this
// list, not the report's rows.
func (r Range) Days() []time.Time {
	var days []time.Time
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// CompactDays is Days rendered as YYYYMMDD strings, the key format the
// analytics API reports dates in.
func (r Range) CompactDays() []string {
	days := r.Days()
	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, Compact(d))
	}
	return out
}

func (r Range) StartHyphen() string { return Hyphen(r.Start) }

func (r Range) EndHyphen() string { return Hyphen(r.End) }

func Hyphen(t time.Time) string { return t.UTC().Format(hyphenLayout) }

func Compact(t time.Time) string { return t.UTC().Format(compactLayout) }
