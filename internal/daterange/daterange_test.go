package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_EndsYesterdayUTC(t *testing.T) {
	// 00:30 UTC on the 10th: the 10th is incomplete, so the window ends on the 9th.
	now := time.Date(2024, 3, 10, 0, 30, 0, 0, time.UTC)

	r := Resolve(now, 7)

	assert.Equal(t, "2024-03-09", r.EndHyphen())
	assert.Equal(t, "2024-03-03", r.StartHyphen())
}

func TestResolve_LocalNowIsNormalisedToUTC(t *testing.T) {
	// 23:30 on the 9th in UTC+10 is already the 9th 13:30 UTC, so "yesterday"
	// must be the 8th.
	loc := time.FixedZone("UTC+10", 10*3600)
	now := time.Date(2024, 3, 9, 23, 30, 0, 0, loc)

	r := Resolve(now, 1)

	assert.Equal(t, "2024-03-08", r.EndHyphen())
	assert.Equal(t, "2024-03-08", r.StartHyphen())
}

func TestResolve_ContiguousNoGapsNoDuplicates(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	for _, n := range []int{1, 2, 7, 30, 90} {
		r := Resolve(now, n)
		days := r.Days()

		require.Len(t, days, n, "lookback %d", n)

		seen := map[string]bool{}
		for i, d := range days {
			key := Compact(d)
			require.False(t, seen[key], "duplicate day %s", key)
			seen[key] = true

			if i > 0 {
				require.Equal(t, days[i-1].AddDate(0, 0, 1), d, "gap before %s", key)
			}
		}
		require.Equal(t, r.End, days[len(days)-1])
	}
}

func TestResolve_InvalidLookbackFallsBackToDefault(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	for _, n := range []int{0, -1, -100} {
		r := Resolve(now, n)
		assert.Len(t, r.Days(), DefaultLookbackDays)
	}
}

func TestResolve_SpansMonthBoundary(t *testing.T) {
	now := time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)

	r := Resolve(now, 3)

	assert.Equal(t, []string{"20240228", "20240229", "20240301"}, r.CompactDays())
}
