// Package aggregate tallies sightings by year and shape and ranks the tallies.
//
// Both record stores rank through Rank so that file-backed and
// database-backed top-N results order ties identically: count descending,
// then key ascending.
package aggregate

import (
	"cmp"
	"slices"

	"github.com/TobiSchelling/ufosightings/internal/sighting"
)

// TopCount is a ranked (key, count) pair.
type TopCount[K cmp.Ordered] struct {
	Key   K   `json:"key"`
	Count int `json:"count"`
}

// CountByYear tallies records per parsed year. Records whose date does not
// parse are left out.
func CountByYear(records []sighting.Record) map[int]int {
	counts := make(map[int]int)
	for _, r := range records {
		y, err := r.Year()
		if err != nil {
			continue
		}
		counts[y]++
	}
	return counts
}

// CountByShape tallies records per normalized shape, skipping empty shapes.
func CountByShape(records []sighting.Record) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		if s := r.Shape(); s != "" {
			counts[s]++
		}
	}
	return counts
}

// YearsWithMaxCount returns every year tied for the highest count, in
// ascending order, together with that count. Empty input yields (empty, 0).
func YearsWithMaxCount(counts map[int]int) ([]int, int) {
	years := []int{}
	maxCount := 0
	for year, n := range counts {
		switch {
		case n > maxCount:
			maxCount = n
			years = append(years[:0], year)
		case n == maxCount && n > 0:
			years = append(years, year)
		}
	}
	slices.Sort(years)
	return years, maxCount
}

// Rank orders entries by count descending, breaking ties by key ascending,
// and keeps at most n of them. n <= 0 yields an empty result. The input is
// not modified.
func Rank[K cmp.Ordered](entries []TopCount[K], n int) []TopCount[K] {
	if n <= 0 || len(entries) == 0 {
		return []TopCount[K]{}
	}
	ranked := slices.Clone(entries)
	slices.SortStableFunc(ranked, func(a, b TopCount[K]) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// MostCommon ranks a tally and returns its top n entries.
func MostCommon[K cmp.Ordered](counts map[K]int, n int) []TopCount[K] {
	entries := make([]TopCount[K], 0, len(counts))
	for k, c := range counts {
		entries = append(entries, TopCount[K]{Key: k, Count: c})
	}
	return Rank(entries, n)
}

// TopYears returns the n years with the most sightings.
func TopYears(records []sighting.Record, n int) []TopCount[int] {
	return MostCommon(CountByYear(records), n)
}

// TopShapes returns the n most common shapes.
func TopShapes(records []sighting.Record, n int) []TopCount[string] {
	return MostCommon(CountByShape(records), n)
}
