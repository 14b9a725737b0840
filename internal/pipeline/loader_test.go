package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/goldenstatedata/gr237/config"
	"github.com/goldenstatedata/gr237/internal/files"
	"github.com/goldenstatedata/gr237/internal/schema"
)

func writeReports(t *testing.T) (dir string) {
	t.Helper()
	dir = t.TempDir()

	fy2016 := "CA 237-GR,,,\n" +
		",,,\n" +
		",,,\n" +
		",,,\n" +
		"Date,County,1,2\n" +
		"Jul15,Alameda,10,20\n" +
		"Jul15,Statewide,99,99\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fy2016.csv"), []byte(fy2016), 0o644))

	fy2017 := "County,Report Month,Total GR Cases,Net GR Expenditure\n" +
		"Alameda,June 2016,123,4567.89\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fy2017.csv"), []byte(fy2017), 0o644))

	return dir
}

func newTestLoader(t *testing.T, dir string) *Loader {
	t.Helper()
	locator, err := files.NewLocator(dir)
	require.NoError(t, err)
	return &Loader{
		Source:             locator,
		Tuning:             config.DefaultTuning(),
		MaxConcurrentFiles: 2,
		Logger:             zerolog.Nop(),
	}
}

func TestLoader_CombinesAcrossFiles(t *testing.T) {
	dir := writeReports(t)
	loader := newTestLoader(t, dir)

	table, reports, err := loader.Load(context.Background(), []string{"fy2016.csv", "fy2017.csv"})
	require.NoError(t, err)
	require.Equal(t, 4, table.Len())

	// Reports come back in input order regardless of completion order.
	require.Len(t, reports, 2)
	require.Equal(t, "fy2016.csv", reports[0].File)
	require.Equal(t, "fy2017.csv", reports[1].File)
	require.Nil(t, reports[0].Excluded)
	require.Nil(t, reports[1].Excluded)

	// Combined order is ascending by date.
	recs := table.Records()
	require.Equal(t, time.Date(2015, time.July, 1, 0, 0, 0, 0, time.UTC), recs[0].Date)
	require.Equal(t, time.Date(2016, time.June, 1, 0, 0, 0, 0, time.UTC), recs[3].Date)
	require.Equal(t, schema.MetricNetExpenditure, recs[3].Metric)

	// The statewide aggregate never leaks through.
	for _, r := range recs {
		require.NotEqual(t, "Statewide", r.Region)
	}
}

func TestLoader_ExclusionIsNotFatal(t *testing.T) {
	dir := writeReports(t)
	loader := newTestLoader(t, dir)

	table, reports, err := loader.Load(context.Background(), []string{"missing.csv", "fy2017.csv"})
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	require.NotNil(t, reports[0].Excluded)
	require.Equal(t, ReasonFileUnavailable, reports[0].Reason)
	require.Nil(t, reports[1].Excluded)

	lines := LogLines(reports)
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "FileUnavailable")
}

func TestLoader_AllExcludedYieldsEmptyTable(t *testing.T) {
	dir := t.TempDir()
	loader := newTestLoader(t, dir)

	table, reports, err := loader.Load(context.Background(), []string{"a.csv", "b.csv"})
	require.NoError(t, err)
	require.True(t, table.Empty())
	require.Len(t, reports, 2)
	for _, r := range reports {
		require.Equal(t, ReasonFileUnavailable, r.Reason)
	}
}

func TestLoader_Idempotent(t *testing.T) {
	dir := writeReports(t)
	loader := newTestLoader(t, dir)

	inputs := []string{"fy2016.csv", "fy2017.csv"}
	first, _, err := loader.Load(context.Background(), inputs)
	require.NoError(t, err)
	second, _, err := loader.Load(context.Background(), inputs)
	require.NoError(t, err)
	require.Equal(t, first.Records(), second.Records())
}
