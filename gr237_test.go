package gr237

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	fy2016 := "CA 237-GR,,,\n" +
		",,,\n" +
		"Date,County,1,2\n" +
		"Jul15,Alameda,10,20\n" +
		"Jul15,Statewide,99,99\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fy2016.csv"), []byte(fy2016), 0o644))

	fy2017 := "County,Report Month,Total GR Cases,Net GR Expenditure\n" +
		"Alameda,June 2016,123,4567.89\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fy2017.csv"), []byte(fy2017), 0o644))

	table, log, err := Load(context.Background(), []string{"fy2016.csv", "fy2017.csv", "missing.csv"}, Options{DataDir: dir})
	require.NoError(t, err)
	require.Equal(t, 4, table.Len())
	require.Len(t, log, 3)
	require.Contains(t, log[2], "FileUnavailable")

	from, to, ok := table.Span()
	require.True(t, ok)
	require.Equal(t, time.Date(2015, time.July, 1, 0, 0, 0, 0, time.UTC), from)
	require.Equal(t, time.Date(2016, time.June, 1, 0, 0, 0, 0, time.UTC), to)

	require.Equal(t, []string{"Alameda"}, table.Regions())
}

func TestLoad_AllExcluded(t *testing.T) {
	table, log, err := Load(context.Background(), []string{"nope.csv"}, Options{DataDir: t.TempDir()})
	require.NoError(t, err)
	require.True(t, table.Empty())
	require.Len(t, log, 1)
}

func TestVocabulary(t *testing.T) {
	v := Vocabulary()
	require.NotEmpty(t, v)
	require.Equal(t, Metric("Adjustment"), v[0])
}
