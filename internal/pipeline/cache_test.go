package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/goldenstatedata/gr237/config"
)

// countingSource serves fixed bytes and counts resolutions.
type countingSource struct {
	content map[string][]byte
	calls   atomic.Int64
}

func (s *countingSource) Resolve(ctx context.Context, name string) ([]byte, error) {
	s.calls.Add(1)
	if b, ok := s.content[name]; ok {
		return b, nil
	}
	return nil, errors.New("no such file")
}

func newCountingSource() *countingSource {
	return &countingSource{content: map[string][]byte{
		"a.csv": []byte("County,Date,Total GR Cases\nAlameda,Jul15,10\n"),
		"b.csv": []byte("County,Date,Total GR Cases\nButte,Aug15,20\n"),
	}}
}

func newCachedLoader(src *countingSource) *CachedLoader {
	return NewCachedLoader(&Loader{
		Source: src,
		Tuning: config.DefaultTuning(),
		Logger: zerolog.Nop(),
	})
}

func TestCachedLoader_MemoizesByFileTuple(t *testing.T) {
	src := newCountingSource()
	c := newCachedLoader(src)

	first, _, err := c.Load(context.Background(), []string{"a.csv", "b.csv"})
	require.NoError(t, err)
	require.Equal(t, int64(2), src.calls.Load())

	second, _, err := c.Load(context.Background(), []string{"a.csv", "b.csv"})
	require.NoError(t, err)
	require.Equal(t, int64(2), src.calls.Load(), "second load must come from cache")
	require.Same(t, first, second)

	// A different tuple is a different entry.
	_, _, err = c.Load(context.Background(), []string{"b.csv", "a.csv"})
	require.NoError(t, err)
	require.Equal(t, int64(4), src.calls.Load())
}

func TestCachedLoader_SharesConcurrentLoads(t *testing.T) {
	src := newCountingSource()
	c := newCachedLoader(src)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := c.Load(context.Background(), []string{"a.csv"})
			require.NoError(t, err)
		}()
	}
	wg.Wait()
	require.Equal(t, int64(1), src.calls.Load())
}

func TestCachedLoader_Invalidate(t *testing.T) {
	src := newCountingSource()
	c := newCachedLoader(src)

	_, _, err := c.Load(context.Background(), []string{"a.csv"})
	require.NoError(t, err)
	c.Invalidate("a.csv")
	_, _, err = c.Load(context.Background(), []string{"a.csv"})
	require.NoError(t, err)
	require.Equal(t, int64(2), src.calls.Load())

	// No arguments drops everything.
	c.Invalidate()
	_, _, err = c.Load(context.Background(), []string{"a.csv"})
	require.NoError(t, err)
	require.Equal(t, int64(3), src.calls.Load())
}

func TestCachedLoader_ErrorsAreNotMemoized(t *testing.T) {
	src := newCountingSource()
	c := newCachedLoader(src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := c.Load(ctx, []string{"a.csv"})
	require.Error(t, err)

	_, _, err = c.Load(context.Background(), []string{"a.csv"})
	require.NoError(t, err)
}
