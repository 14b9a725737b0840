package config

import "time"

// Default guardrails and heuristics for the GR 237 normalization engine.
// Tolerance values are calibrated against known-good report years; they are
// tuning knobs overridable via environment or a YAML tuning file, not domain
// invariants.

const (
	// Concurrency
	DefaultMaxConcurrentRequests = 10
	DefaultMaxConcurrentFiles    = 4
	DefaultMaxOpenDatasets       = 8

	// Header location
	DefaultMaxHeaderScanRows = 12

	// Numbered-column offset search
	DefaultMaxNumberedOffset = 3

	// Arithmetic identity tolerances
	DefaultCountTolerance  = 2.0
	DefaultDollarTolerance = 5.0

	// Query paging
	DefaultPageSize = 500
	MaxPageSize     = 5000
)

const (
	// Timeouts and dataset lifetime
	DefaultOperationTimeout      = 30 * time.Second
	DefaultAcquireRequestTimeout = 2 * time.Second
	DefaultDatasetIdleTTL        = 30 * time.Minute
	DefaultDatasetCleanupPeriod  = 5 * time.Minute
)
