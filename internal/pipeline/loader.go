package pipeline

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/goldenstatedata/gr237/config"
	"github.com/goldenstatedata/gr237/internal/dataset"
)

// ByteSource resolves a file identifier to raw report bytes. The files
// package provides the working-directory/data-directory implementation.
type ByteSource interface {
	Resolve(ctx context.Context, name string) ([]byte, error)
}

// Loader runs the full ingest: resolve each file, normalize it, and combine
// the survivors. Files are independent, so they are processed concurrently
// up to MaxConcurrentFiles; the Combiner runs once after the join point.
type Loader struct {
	Source             ByteSource
	Tuning             config.Tuning
	MaxConcurrentFiles int
	Logger             zerolog.Logger
}

// Load ingests the given file identifiers in order and returns the combined
// table plus per-file reports, one per input in input order. Exclusions are
// recorded, never fatal: an all-excluded run yields an empty table, which
// callers surface as a distinct failure state. Load is idempotent for
// identical inputs.
func (l *Loader) Load(ctx context.Context, files []string) (*dataset.Table, []Report, error) {
	batches := make([][]dataset.LongRecord, len(files))
	reports := make([]Report, len(files))

	g, gctx := errgroup.WithContext(ctx)
	limit := l.MaxConcurrentFiles
	if limit <= 0 {
		limit = config.DefaultMaxConcurrentFiles
	}
	g.SetLimit(limit)

	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			content, err := l.Source.Resolve(gctx, file)
			if err != nil {
				excl := exclude(file, ReasonFileUnavailable, "%v", err)
				reports[i] = Report{File: file, HeaderRow: -1, Excluded: excl, Reason: excl.Reason, Detail: excl.Detail}
				l.Logger.Warn().Str("file", file).Err(err).Msg("file unavailable")
				return nil
			}
			batches[i], reports[i] = ProcessFile(file, content, l.Tuning, l.Logger)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	combined := Combine(batches)
	table := dataset.NewTable(combined)

	l.Logger.Info().
		Int("files", len(files)).
		Int("records", table.Len()).
		Msg("load combined")

	return table, reports, nil
}

// LogLines renders the ordered human-readable processing log.
func LogLines(reports []Report) []string {
	lines := make([]string, len(reports))
	for i, r := range reports {
		lines[i] = r.String()
	}
	return lines
}
