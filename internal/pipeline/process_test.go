package pipeline

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/goldenstatedata/gr237/config"
	"github.com/goldenstatedata/gr237/internal/schema"
)

func processBytes(t *testing.T, content string) ([]record, Report) {
	t.Helper()
	recs, report := ProcessFile("test.csv", []byte(content), config.DefaultTuning(), zerolog.Nop())
	out := make([]record, len(recs))
	for i, r := range recs {
		out[i] = record{Date: r.Date, Region: r.Region, Metric: r.Metric, Value: r.Value}
	}
	return out, report
}

// record mirrors the fields asserted in tests, ignoring the region code.
type record struct {
	Date   time.Time
	Region string
	Metric schema.Metric
	Value  float64
}

func july2015() time.Time { return time.Date(2015, time.July, 1, 0, 0, 0, 0, time.UTC) }

func TestProcessFile_PreambleAndNumberedColumns(t *testing.T) {
	content := "CA 237-GR General Relief,,,\n" +
		",,,\n" +
		",,,\n" +
		",,,\n" +
		"Date,County,1,2\n" +
		"Jul15,Alameda,10,20\n" +
		"Jul15,Statewide,99,99\n"

	recs, report := processBytes(t, content)
	require.Nil(t, report.Excluded)
	require.Equal(t, 4, report.HeaderRow)
	require.False(t, report.SyntheticHeader)
	require.Equal(t, "numbered", report.MapStrategy)
	require.Equal(t, 0, report.MapOffset)

	require.Equal(t, []record{
		{july2015(), "Alameda", schema.MetricAdjustment, 10},
		{july2015(), "Alameda", schema.MetricCasesBroughtFwd, 20},
	}, recs)
	require.Equal(t, july2015(), report.From)
	require.Equal(t, july2015(), report.To)
}

func TestProcessFile_NamedColumnsRedactionAndStatewide(t *testing.T) {
	content := "County,Report Month,Total GR Cases,Net GR Expenditure\n" +
		"Alameda,June 2016,123,\"4,567.89\"\n" +
		"Statewide,June 2016,999,99999\n" +
		"Butte,June 2016,*,1000\n" +
		"Colusa,June 2016,,\n"

	recs, report := processBytes(t, content)
	require.Nil(t, report.Excluded)
	require.Equal(t, "named", report.MapStrategy)

	june := time.Date(2016, time.June, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, []record{
		{june, "Alameda", schema.MetricTotalCases, 123},
		{june, "Alameda", schema.MetricNetExpenditure, 4567.89},
		// Butte keeps its expenditure despite the redacted caseload.
		{june, "Butte", schema.MetricNetExpenditure, 1000},
	}, recs)
}

func TestProcessFile_SyntheticHeader(t *testing.T) {
	content := "Jul15,Alameda,10,20\n" +
		"Aug15,Alameda,30,40\n"

	recs, report := processBytes(t, content)
	require.Nil(t, report.Excluded)
	require.True(t, report.SyntheticHeader)
	require.Equal(t, 0, report.HeaderRow)
	require.Equal(t, "positional", report.MapStrategy)
	require.Len(t, recs, 4)
	require.Equal(t, july2015(), report.From)
	require.Equal(t, time.Date(2015, time.August, 1, 0, 0, 0, 0, time.UTC), report.To)
}

func TestProcessFile_Exclusions(t *testing.T) {
	tests := []struct {
		name    string
		content string
		reason  Reason
	}{
		{"empty content", "", ReasonMalformedTable},
		{"corrupt xlsx", "PK\x03\x04 not really", ReasonMalformedTable},
		{"no header", "foo,bar\nbaz,qux\n", ReasonHeaderNotFound},
		{"no usable dates", "County,Date,Total GR Cases\nAlameda,not-a-date,5\n", ReasonNoUsableDates},
		{"all metrics absent", "County,Date,Total GR Cases\nAlameda,Jul15,*\n", ReasonAllMetricsAbsent},
		{"no metric columns", "County,Date,Foo\nAlameda,Jul15,5\n", ReasonNoMetricColumns},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recs, report := processBytes(t, tc.content)
			require.Empty(t, recs)
			require.NotNil(t, report.Excluded)
			require.Equal(t, tc.reason, report.Reason)
			require.Equal(t, tc.reason, report.Excluded.Reason)
		})
	}
}

func TestUsableRegion(t *testing.T) {
	require.True(t, usableRegion("Alameda"))
	require.True(t, usableRegion("San Luis Obispo"))
	require.False(t, usableRegion(""))
	require.False(t, usableRegion("Statewide"))
	require.False(t, usableRegion("STATEWIDE"))
	require.False(t, usableRegion("123"))
	require.False(t, usableRegion("**"))
}

func TestReportString(t *testing.T) {
	r := Report{
		File: "gr15.csv", HeaderRow: 4, MapStrategy: "numbered", MapOffset: 1,
		Records: 12, From: july2015(), To: july2015(),
	}
	require.Equal(t, "gr15.csv: header row 4, numbered (offset 1) metrics, 12 records, 2015-07..2015-07", r.String())

	excl := exclude("gr16.csv", ReasonHeaderNotFound, "nothing plausible")
	r = Report{File: "gr16.csv", Excluded: excl, Reason: excl.Reason, Detail: excl.Detail}
	require.Equal(t, "gr16.csv: excluded (HeaderNotFound): nothing plausible", r.String())
}
