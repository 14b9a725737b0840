// Package pipeline runs the per-file normalization stages over raw report
// bytes and combines the survivors into one canonical long-format table.
// Each file moves through header location, column normalization, date
// resolution, metric mapping, row filtering, and reshaping, or exits to a
// terminal exclusion that never fails the overall run.
package pipeline

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/goldenstatedata/gr237/config"
	"github.com/goldenstatedata/gr237/internal/dataset"
	"github.com/goldenstatedata/gr237/internal/schema"
	"github.com/goldenstatedata/gr237/internal/tabular"
)

// ProcessFile normalizes one file's bytes into long-format records. It is a
// pure function of the content: no shared state, no ordering dependency on
// other files. A nil record slice with Report.Excluded set means the file
// was excluded.
func ProcessFile(file string, content []byte, tuning config.Tuning, logger zerolog.Logger) ([]dataset.LongRecord, Report) {
	report := Report{File: file, HeaderRow: -1}

	fail := func(excl *Exclusion) ([]dataset.LongRecord, Report) {
		report.Excluded = excl
		report.Reason = excl.Reason
		report.Detail = excl.Detail
		logger.Warn().Str("file", file).Str("reason", string(excl.Reason)).Str("detail", excl.Detail).Msg("file excluded")
		return nil, report
	}

	rows, err := tabular.ParseRows(content)
	if err != nil {
		return fail(exclude(file, ReasonMalformedTable, "%v", err))
	}

	choice, ok := schema.LocateHeader(rows, tuning.MaxHeaderScanRows)
	if !ok {
		return fail(exclude(file, ReasonHeaderNotFound,
			"no row in the first %d cleared the plausibility threshold and no data-row pattern matched", tuning.MaxHeaderScanRows))
	}
	report.HeaderRow = choice.Row
	report.SyntheticHeader = choice.Synthetic

	var grid *tabular.Grid
	if choice.Synthetic {
		grid, err = tabular.AtSynthetic(rows, choice.Row)
	} else {
		grid, err = tabular.At(rows, choice.Row)
	}
	if err != nil {
		return fail(exclude(file, ReasonMalformedTable, "%v", err))
	}

	cols := schema.NormalizeColumns(grid.Header)

	cols, outcome, err := schema.MapMetrics(cols, grid.Rows, grid.Cell, schema.MapperConfig{
		Tolerances: schema.Tolerances{Count: tuning.CountTolerance, Dollar: tuning.DollarTolerance},
		MaxOffset:  tuning.MaxNumberedOffset,
	})
	if err != nil {
		if errors.Is(err, schema.ErrNoMetricColumns) {
			return fail(exclude(file, ReasonNoMetricColumns, "header row %d", choice.Row))
		}
		return fail(exclude(file, ReasonMalformedTable, "%v", err))
	}
	report.MapStrategy = outcome.Strategy
	report.MapOffset = outcome.Offset

	canonical, datedRows := buildRows(grid, cols)
	if datedRows == 0 {
		return fail(exclude(file, ReasonNoUsableDates, "no row's date resolved from any source"))
	}
	if len(canonical) == 0 {
		return fail(exclude(file, ReasonAllMetricsAbsent, "%d dated rows, none kept a metric value", datedRows))
	}

	records := reshape(canonical)
	report.Records = len(records)
	for _, r := range records {
		if report.From.IsZero() || r.Date.Before(report.From) {
			report.From = r.Date
		}
		if r.Date.After(report.To) {
			report.To = r.Date
		}
	}

	logger.Info().
		Str("file", file).
		Int("header_row", choice.Row).
		Bool("synthetic_header", choice.Synthetic).
		Str("map_strategy", outcome.Strategy).
		Int("map_offset", outcome.Offset).
		Int("records", len(records)).
		Time("from", report.From).
		Time("to", report.To).
		Msg("file normalized")

	return records, report
}
