package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Tuning holds the heuristic knobs of the normalization engine. The zero
// value is unusable; use DefaultTuning and override selectively.
type Tuning struct {
	// MaxHeaderScanRows bounds the candidate rows probed by the header locator.
	MaxHeaderScanRows int `yaml:"max_header_scan_rows"`
	// MaxNumberedOffset bounds the offset search for numbered metric columns.
	MaxNumberedOffset int `yaml:"max_numbered_offset"`
	// CountTolerance is the per-row slack allowed when checking caseload
	// arithmetic identities.
	CountTolerance float64 `yaml:"count_tolerance"`
	// DollarTolerance is the wider slack for dollar-amount identities.
	DollarTolerance float64 `yaml:"dollar_tolerance"`
}

// DefaultTuning returns the calibrated defaults.
func DefaultTuning() Tuning {
	return Tuning{
		MaxHeaderScanRows: DefaultMaxHeaderScanRows,
		MaxNumberedOffset: DefaultMaxNumberedOffset,
		CountTolerance:    DefaultCountTolerance,
		DollarTolerance:   DefaultDollarTolerance,
	}
}

// Config is the process-level configuration for the server and loader,
// populated from GR237_-prefixed environment variables.
type Config struct {
	// DataDir is the fallback directory searched for report files after the
	// working directory.
	DataDir string `envconfig:"DATA_DIR"`
	// TuningFile optionally points to a YAML file overriding Tuning values.
	TuningFile string `envconfig:"TUNING_FILE"`

	MaxConcurrentRequests int `envconfig:"MAX_CONCURRENT_REQUESTS"`
	MaxConcurrentFiles    int `envconfig:"MAX_CONCURRENT_FILES"`
	MaxOpenDatasets       int `envconfig:"MAX_OPEN_DATASETS"`

	Tuning Tuning `ignored:"true"`
}

// FromEnv builds a Config from the environment, applying defaults and the
// optional tuning file.
func FromEnv() (Config, error) {
	var c Config
	if err := envconfig.Process("GR237", &c); err != nil {
		return c, fmt.Errorf("config: process env: %w", err)
	}
	if c.MaxConcurrentRequests <= 0 {
		c.MaxConcurrentRequests = DefaultMaxConcurrentRequests
	}
	if c.MaxConcurrentFiles <= 0 {
		c.MaxConcurrentFiles = DefaultMaxConcurrentFiles
	}
	if c.MaxOpenDatasets <= 0 {
		c.MaxOpenDatasets = DefaultMaxOpenDatasets
	}
	c.Tuning = DefaultTuning()
	if c.TuningFile != "" {
		t, err := LoadTuning(c.TuningFile)
		if err != nil {
			return c, err
		}
		c.Tuning = t
	}
	return c, nil
}

// LoadTuning reads a YAML tuning file and merges it over the defaults.
// Fields left at zero in the file keep their default values.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("config: read tuning file: %w", err)
	}
	var raw Tuning
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return t, fmt.Errorf("config: parse tuning file: %w", err)
	}
	if raw.MaxHeaderScanRows > 0 {
		t.MaxHeaderScanRows = raw.MaxHeaderScanRows
	}
	if raw.MaxNumberedOffset > 0 {
		t.MaxNumberedOffset = raw.MaxNumberedOffset
	}
	if raw.CountTolerance > 0 {
		t.CountTolerance = raw.CountTolerance
	}
	if raw.DollarTolerance > 0 {
		t.DollarTolerance = raw.DollarTolerance
	}
	return t, nil
}
