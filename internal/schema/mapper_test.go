package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func defaultMapperConfig() MapperConfig {
	return MapperConfig{
		Tolerances: Tolerances{Count: 2, Dollar: 5},
		MaxOffset:  3,
	}
}

func metricFor(t *testing.T, cols []Column, index int) Metric {
	t.Helper()
	for _, c := range cols {
		if c.Index == index {
			require.Equal(t, RoleMetric, c.Role)
			return c.Metric
		}
	}
	t.Fatalf("no column at index %d", index)
	return ""
}

func TestMapMetrics_NamedLabels(t *testing.T) {
	cols := NormalizeColumns([]string{"County", "Report Month", "Total GR Cases", "Net GR Expenditure", "Notes"})
	rows := [][]string{{"Alameda", "Jun 2016", "123", "4567.89", "x"}}

	out, outcome, err := MapMetrics(cols, rows, cellAt, defaultMapperConfig())
	require.NoError(t, err)
	require.Equal(t, "named", outcome.Strategy)
	require.Equal(t, 2, outcome.Mapped)
	require.Equal(t, MetricTotalCases, metricFor(t, out, 2))
	require.Equal(t, MetricNetExpenditure, metricFor(t, out, 3))
	require.Equal(t, RoleUnrecognized, out[4].Role)
}

func TestMapMetrics_NumberedOffsetRecovery(t *testing.T) {
	// Columns 1..5 are vocabulary positions shifted by one: they carry
	// Cases brought forward, Cases added, Total cases available, Cases
	// discontinued, and Cases carried forward. Both caseload identities
	// balance only at offset 1.
	cols := NormalizeColumns([]string{"Date", "County", "1", "2", "3", "4", "5"})
	rows := [][]string{
		{"Jul15", "Alameda", "100", "20", "120", "30", "90"},
		{"Jul15", "Butte", "50", "10", "60", "15", "45"},
	}

	out, outcome, err := MapMetrics(cols, rows, cellAt, defaultMapperConfig())
	require.NoError(t, err)
	require.Equal(t, "numbered", outcome.Strategy)
	require.Equal(t, 1, outcome.Offset)
	require.Equal(t, 5, outcome.Mapped)
	require.Equal(t, MetricCasesBroughtFwd, metricFor(t, out, 2))
	require.Equal(t, MetricCasesAdded, metricFor(t, out, 3))
	require.Equal(t, MetricTotalCasesAvail, metricFor(t, out, 4))
	require.Equal(t, MetricCasesDiscontinued, metricFor(t, out, 5))
	require.Equal(t, MetricCasesCarriedFwd, metricFor(t, out, 6))
}

func TestMapMetrics_NumberedZeroOffset(t *testing.T) {
	// Same identities balancing without a shift keep offset 0.
	cols := NormalizeColumns([]string{"Date", "County", "1", "2", "3", "4", "5", "6"})
	rows := [][]string{
		{"Jul15", "Alameda", "0", "100", "20", "120", "30", "90"},
		{"Jul15", "Butte", "0", "50", "10", "60", "15", "45"},
	}

	out, outcome, err := MapMetrics(cols, rows, cellAt, defaultMapperConfig())
	require.NoError(t, err)
	require.Equal(t, "numbered", outcome.Strategy)
	require.Equal(t, 0, outcome.Offset)
	require.Equal(t, MetricAdjustment, metricFor(t, out, 2))
	require.Equal(t, MetricTotalCasesAvail, metricFor(t, out, 5))
}

func TestMapMetrics_CellPrefixVariant(t *testing.T) {
	cols := NormalizeColumns([]string{"Date", "County", "Cell 1", "Cell 2"})
	rows := [][]string{{"Jul15", "Alameda", "10", "20"}}

	out, outcome, err := MapMetrics(cols, rows, cellAt, defaultMapperConfig())
	require.NoError(t, err)
	require.Equal(t, "numbered", outcome.Strategy)
	require.Equal(t, 0, outcome.Offset)
	require.Equal(t, MetricAdjustment, metricFor(t, out, 2))
	require.Equal(t, MetricCasesBroughtFwd, metricFor(t, out, 3))
}

func TestMapMetrics_AnchorCoverageBreaksOffsets(t *testing.T) {
	// Too few columns for any identity: the anchor metric decides. At
	// offset 0 the single column would be a non-anchor, so offset 1 wins.
	cfg := defaultMapperConfig()
	cfg.Vocab = []Metric{MetricFamilyCases, MetricTotalCases}
	cfg.MaxOffset = 1

	cols := NormalizeColumns([]string{"Date", "County", "1"})
	rows := [][]string{{"Jul15", "Alameda", "321"}}

	out, outcome, err := MapMetrics(cols, rows, cellAt, cfg)
	require.NoError(t, err)
	require.Equal(t, "numbered", outcome.Strategy)
	require.Equal(t, 1, outcome.Offset)
	require.Equal(t, MetricTotalCases, metricFor(t, out, 2))
}

func TestMapMetrics_UnscoreableFallsBackToLeadOffset(t *testing.T) {
	// No checkable identity and no anchor at any offset: the lead offset
	// is assumed rather than excluding the file.
	cfg := defaultMapperConfig()
	cfg.Vocab = []Metric{MetricFamilyCases, MetricFamilyPersons}
	cfg.MaxOffset = 1

	cols := NormalizeColumns([]string{"Date", "County", "1"})
	rows := [][]string{{"Jul15", "Alameda", "7"}}

	out, outcome, err := MapMetrics(cols, rows, cellAt, cfg)
	require.NoError(t, err)
	require.Equal(t, "numbered", outcome.Strategy)
	require.Equal(t, 0, outcome.Offset)
	require.Equal(t, MetricFamilyCases, metricFor(t, out, 2))
}

func TestMapMetrics_PositionalUnlabeled(t *testing.T) {
	cols := NormalizeColumns([]string{"date", "county", "", ""})
	rows := [][]string{{"Jul15", "Alameda", "10", "20"}}

	out, outcome, err := MapMetrics(cols, rows, cellAt, defaultMapperConfig())
	require.NoError(t, err)
	require.Equal(t, "positional", outcome.Strategy)
	require.Equal(t, 2, outcome.Mapped)
	require.Equal(t, MetricAdjustment, metricFor(t, out, 2))
	require.Equal(t, MetricCasesBroughtFwd, metricFor(t, out, 3))
}

func TestMapMetrics_NoRecognizableColumns(t *testing.T) {
	cols := NormalizeColumns([]string{"County", "Date", "Foo", "Bar"})
	rows := [][]string{{"Alameda", "Jul15", "1", "2"}}

	_, _, err := MapMetrics(cols, rows, cellAt, defaultMapperConfig())
	require.ErrorIs(t, err, ErrNoMetricColumns)
}

func TestMapMetrics_NoOpenColumns(t *testing.T) {
	cols := NormalizeColumns([]string{"County", "Date"})
	_, _, err := MapMetrics(cols, nil, cellAt, defaultMapperConfig())
	require.ErrorIs(t, err, ErrNoMetricColumns)
}

func TestMapMetrics_OptionalAdjustmentOperand(t *testing.T) {
	// The first identity tolerates an explicit adjustment column: total
	// cases available balances only once the adjustment is applied.
	cols := NormalizeColumns([]string{"Date", "County", "1", "2", "3", "4", "5", "6"})
	rows := [][]string{
		{"Jul15", "Alameda", "5", "100", "20", "125", "30", "95"},
		{"Jul15", "Butte", "3", "50", "10", "63", "15", "48"},
	}

	_, outcome, err := MapMetrics(cols, rows, cellAt, defaultMapperConfig())
	require.NoError(t, err)
	require.Equal(t, 0, outcome.Offset)
}

func TestParseCellNumber(t *testing.T) {
	tests := []struct {
		in string
		n  int
		ok bool
	}{
		{"1", 1, true},
		{" 12 ", 12, true},
		{"Cell 3", 3, true},
		{"cell 3", 3, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"Cell x", 0, false},
		{"", 0, false},
	}
	for _, tc := range tests {
		n, ok := parseCellNumber(tc.in)
		require.Equal(t, tc.ok, ok, "input %q", tc.in)
		if ok {
			require.Equal(t, tc.n, n)
		}
	}
}
