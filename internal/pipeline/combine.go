package pipeline

import (
	"sort"

	"github.com/goldenstatedata/gr237/internal/dataset"
)

// Combine concatenates per-file record batches in file processing order,
// sorts ascending by date (stable, so ties keep first-appearance order), and
// de-duplicates on (date, region, metric) keeping the first-encountered
// record. First-seen precedence means an overlapping re-release does NOT
// override an earlier file unless the caller orders it first; this is the
// documented precedence rule, not an accident.
func Combine(batches [][]dataset.LongRecord) []dataset.LongRecord {
	total := 0
	for _, b := range batches {
		total += len(b)
	}
	all := make([]dataset.LongRecord, 0, total)
	for _, b := range batches {
		all = append(all, b...)
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].Date.Before(all[j].Date) })

	seen := make(map[dataset.Key]struct{}, len(all))
	out := all[:0]
	for _, r := range all {
		k := r.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}
