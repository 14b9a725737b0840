// Package gr237 normalizes California CA 237-GR monthly General Relief
// county reports into one canonical long-format dataset. Each fiscal-year
// file arrives with unpredictable header placement, inconsistent date
// encodings, and shifting metric-column semantics; the engine recovers a
// correct mapping to canonical fields and metric identities deterministically,
// without external schema metadata.
package gr237

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/goldenstatedata/gr237/config"
	"github.com/goldenstatedata/gr237/internal/dataset"
	"github.com/goldenstatedata/gr237/internal/files"
	"github.com/goldenstatedata/gr237/internal/pipeline"
	"github.com/goldenstatedata/gr237/internal/schema"
)

// Aliases exposing the core types through the public API.
type (
	Table      = dataset.Table
	LongRecord = dataset.LongRecord
	Query      = dataset.Query
	Metric     = schema.Metric
	Report     = pipeline.Report
)

// Options configures a load. The zero value uses working-directory lookup,
// calibrated tuning defaults, and a disabled logger.
type Options struct {
	// DataDir is searched after the working directory.
	DataDir string
	// Tuning overrides the heuristic knobs; zero fields keep defaults.
	Tuning *config.Tuning
	// MaxConcurrentFiles bounds per-file parallelism.
	MaxConcurrentFiles int
	// Logger receives structured per-file processing events.
	Logger *zerolog.Logger
}

// Load ingests the named report files in order and returns the combined
// table plus the ordered human-readable processing log. Per-file failures
// are excluded and logged, never fatal; an empty table means every file was
// excluded. Load is idempotent for identical inputs — wrap the underlying
// loader in pipeline.NewCachedLoader for memoization.
func Load(ctx context.Context, fileNames []string, opts Options) (*Table, []string, error) {
	loader, err := NewLoader(opts)
	if err != nil {
		return nil, nil, err
	}
	table, reports, err := loader.Load(ctx, fileNames)
	if err != nil {
		return nil, nil, err
	}
	return table, pipeline.LogLines(reports), nil
}

// NewLoader builds the underlying pipeline loader for callers that want
// per-file Reports or memoization.
func NewLoader(opts Options) (*pipeline.Loader, error) {
	locator, err := files.NewLocator(opts.DataDir)
	if err != nil {
		return nil, err
	}
	tuning := config.DefaultTuning()
	if opts.Tuning != nil {
		tuning = *opts.Tuning
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &pipeline.Loader{
		Source:             locator,
		Tuning:             tuning,
		MaxConcurrentFiles: opts.MaxConcurrentFiles,
		Logger:             logger,
	}, nil
}

// Vocabulary returns the canonical metric identities in their fixed order,
// for populating selection controls ahead of a load.
func Vocabulary() []Metric {
	return schema.Vocabulary()
}
