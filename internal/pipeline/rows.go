package pipeline

import (
	"strings"
	"time"
	"unicode"

	"github.com/goldenstatedata/gr237/internal/schema"
	"github.com/goldenstatedata/gr237/internal/tabular"
)

// statewideLabel marks the aggregate row published alongside county rows.
// It must never leak into the combined dataset.
const statewideLabel = "Statewide"

// metricValue is one coerced metric cell. Absent cells are simply not
// materialized.
type metricValue struct {
	Metric schema.Metric
	Value  float64
}

// canonicalRow is a post-normalization, pre-melt row: resolved identifiers
// plus whichever metric values survived coercion.
type canonicalRow struct {
	Region     string
	RegionCode string
	Date       time.Time
	Values     []metricValue
}

// usableRegion rejects missing names, the statewide aggregate, and stray
// numeric or footnote content misread as a region.
func usableRegion(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, statewideLabel) {
		return false
	}
	for _, r := range name {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// buildRows runs date resolution, the region filter, and metric coercion
// over the grid. datedRows counts rows whose date resolved, regardless of
// later filtering, so the caller can distinguish NoUsableDates from
// AllMetricsAbsentAfterCoercion.
func buildRows(grid *tabular.Grid, cols []schema.Column) (out []canonicalRow, datedRows int) {
	regionCol := schema.FindRole(cols, schema.RoleRegionName)
	codeCol := schema.FindRole(cols, schema.RoleRegionCode)

	for _, row := range grid.Rows {
		date, ok := schema.ResolveDate(cols, row, grid.Cell)
		if !ok {
			continue
		}
		datedRows++

		if regionCol == nil {
			continue
		}
		region := grid.Cell(row, regionCol.Index)
		if !usableRegion(region) {
			continue
		}

		cr := canonicalRow{Region: region, Date: date}
		if codeCol != nil {
			cr.RegionCode = grid.Cell(row, codeCol.Index)
		}
		for _, c := range cols {
			if c.Role != schema.RoleMetric {
				continue
			}
			if v, ok := schema.ParseNumber(grid.Cell(row, c.Index)); ok {
				cr.Values = append(cr.Values, metricValue{Metric: c.Metric, Value: v})
			}
		}
		// Partial availability is preserved; only fully absent rows drop.
		if len(cr.Values) == 0 {
			continue
		}
		out = append(out, cr)
	}
	return out, datedRows
}
