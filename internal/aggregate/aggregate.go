// Package aggregate holds the grouping primitives shared by the pipelines:
// a per-key fold with bounded first-seen samples, a stable top-N ranker, and
// a day-keyed merge that gap-fills breakdown series.
package aggregate

import "sort"

const DefaultSampleLimit = 3

// Record is one normalized input to Fold. A record counts once toward every
// key it carries; Sample and SetMember are optional per-key collectibles and
// Metrics are summed per key.
type Record struct {
	Keys      []string
	Sample    string
	SetMember string
	Metrics   map[string]int
}

// Summary is the fold result for one distinct key.
type Summary struct {
	Key     string
	Count   int
	Metrics map[string]int
	Samples []string // first-seen, deduplicated, bounded by SampleLimit
	Members []string // distinct SetMembers in encounter order
}

type FoldOptions struct {
	// SampleLimit bounds Summary.Samples; values below 1 use DefaultSampleLimit.
	SampleLimit int
	// RankMetric names the Metrics entry to rank by; empty ranks by Count.
	RankMetric string
}

type group struct {
	summary     Summary
	seenSamples map[string]bool
	seenMembers map[string]bool
}

// Fold groups records by key and returns one summary per distinct key,
// sorted descending by the ranking metric. The sort is stable: ties keep
// first-seen key order. Samples are first-seen wins, never alphabetical.
func Fold(records []Record, opts FoldOptions) []Summary {
	limit := opts.SampleLimit
	if limit < 1 {
		limit = DefaultSampleLimit
	}

	groups := map[string]*group{}
	var order []string

	for _, rec := range records {
		// a record counts once per key even when its key list repeats one
		seenKeys := map[string]bool{}
		for _, key := range rec.Keys {
			if key == "" || seenKeys[key] {
				continue
			}
			seenKeys[key] = true
			g, ok := groups[key]
			if !ok {
				g = &group{
					summary:     Summary{Key: key, Samples: []string{}, Members: []string{}},
					seenSamples: map[string]bool{},
					seenMembers: map[string]bool{},
				}
				groups[key] = g
				order = append(order, key)
			}

			g.summary.Count++
			for name, v := range rec.Metrics {
				if g.summary.Metrics == nil {
					g.summary.Metrics = map[string]int{}
				}
				g.summary.Metrics[name] += v
			}
			if rec.Sample != "" && !g.seenSamples[rec.Sample] && len(g.summary.Samples) < limit {
				g.seenSamples[rec.Sample] = true
				g.summary.Samples = append(g.summary.Samples, rec.Sample)
			}
			if rec.SetMember != "" && !g.seenMembers[rec.SetMember] {
				g.seenMembers[rec.SetMember] = true
				g.summary.Members = append(g.summary.Members, rec.SetMember)
			}
		}
	}

	out := make([]Summary, 0, len(order))
	for _, key := range order {
		out = append(out, groups[key].summary)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return rankValue(out[i], opts.RankMetric) > rankValue(out[j], opts.RankMetric)
	})
	return out
}

func rankValue(s Summary, metric string) int {
	if metric == "" {
		return s.Count
	}
	return s.Metrics[metric]
}

// Rank stable-sorts items descending by metric and truncates to n.
// n < 1 means no cap. The input slice is not modified.
func Rank[T any](items []T, n int, metric func(T) int) []T {
	out := make([]T, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return metric(out[i]) > metric(out[j])
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// MergeDays aligns a per-day breakdown series with the full day list: every
// day gets an entry, an empty (non-nil) slice when the breakdown has none,
// and each day's list is ranked and capped to limit.
func MergeDays[T any](days []string, byDay map[string][]T, limit int, metric func(T) int) map[string][]T {
	out := make(map[string][]T, len(days))
	for _, day := range days {
		entries := byDay[day]
		if len(entries) == 0 {
			out[day] = []T{}
			continue
		}
		out[day] = Rank(entries, limit, metric)
	}
	return out
}
