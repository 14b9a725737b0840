package pipeline

import (
	"context"
	"strings"
	"sync"

	"github.com/goldenstatedata/gr237/internal/dataset"
)

// CachedLoader memoizes Load results keyed by the exact input file tuple.
// It is an explicit, invalidatable wrapper around a pure Loader rather than
// ambient global state. Cached tables are shared snapshots; they are
// immutable, so handing them to multiple callers is safe.
type CachedLoader struct {
	Loader *Loader

	mu      sync.Mutex
	results map[string]*loadResult
}

type loadResult struct {
	once    sync.Once
	table   *dataset.Table
	reports []Report
	err     error
}

// NewCachedLoader wraps a Loader with memoization.
func NewCachedLoader(l *Loader) *CachedLoader {
	return &CachedLoader{Loader: l, results: make(map[string]*loadResult)}
}

// Load returns the memoized result for this exact file tuple, computing it
// on first use. Concurrent callers with the same tuple share one underlying
// load.
func (c *CachedLoader) Load(ctx context.Context, files []string) (*dataset.Table, []Report, error) {
	key := cacheKey(files)

	c.mu.Lock()
	res, ok := c.results[key]
	if !ok {
		res = &loadResult{}
		c.results[key] = res
	}
	c.mu.Unlock()

	res.once.Do(func() {
		res.table, res.reports, res.err = c.Loader.Load(ctx, files)
		if res.err != nil {
			// Do not memoize cancellations; a later call may succeed.
			c.mu.Lock()
			delete(c.results, key)
			c.mu.Unlock()
		}
	})
	return res.table, res.reports, res.err
}

// Invalidate drops the cached result for the given tuple, or everything when
// called with no files.
func (c *CachedLoader) Invalidate(files ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(files) == 0 {
		c.results = make(map[string]*loadResult)
		return
	}
	delete(c.results, cacheKey(files))
}

// cacheKey joins identifiers with a separator that cannot appear in paths.
func cacheKey(files []string) string {
	return strings.Join(files, "\x1f")
}
