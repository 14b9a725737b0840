package pipeline

import "github.com/goldenstatedata/gr237/internal/dataset"

// reshape pivots the wide canonical rows to long format: one record per
// non-absent metric cell, carrying the resolved date and identifiers.
func reshape(rows []canonicalRow) []dataset.LongRecord {
	var out []dataset.LongRecord
	for _, r := range rows {
		for _, mv := range r.Values {
			out = append(out, dataset.LongRecord{
				Date:       r.Date,
				Region:     r.Region,
				RegionCode: r.RegionCode,
				Metric:     mv.Metric,
				Value:      mv.Value,
			})
		}
	}
	return out
}
