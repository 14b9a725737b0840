// Package dataset defines the canonical long-format records produced by the
// normalization pipeline and the immutable combined table handed to
// presentation clients.
package dataset

import (
	"time"

	"github.com/goldenstatedata/gr237/internal/schema"
)

// LongRecord is the final unit of storage: one (date, region, metric, value)
// observation. Value is always a finite number; absent cells are dropped
// during reshaping, never stored.
type LongRecord struct {
	Date       time.Time     `json:"date"`
	Region     string        `json:"region"`
	RegionCode string        `json:"region_code,omitempty"`
	Metric     schema.Metric `json:"metric"`
	Value      float64       `json:"value"`
}

// Key identifies a record for de-duplication: the (date, region, metric)
// tuple is unique in a combined table.
type Key struct {
	Date   time.Time
	Region string
	Metric schema.Metric
}

// Key returns the record's uniqueness key.
func (r LongRecord) Key() Key {
	return Key{Date: r.Date, Region: r.Region, Metric: r.Metric}
}

// Table is an immutable combined snapshot, sorted non-decreasing by date and
// unique per Key. It is safe for concurrent readers.
type Table struct {
	records []LongRecord
}

// NewTable wraps combined records. The caller guarantees sort order and
// uniqueness (the pipeline Combiner does both).
func NewTable(records []LongRecord) *Table {
	return &Table{records: records}
}

// Len returns the record count.
func (t *Table) Len() int { return len(t.records) }

// Empty reports whether the load produced no records at all. This is a load
// failure state, distinct from a filter that matches nothing.
func (t *Table) Empty() bool { return len(t.records) == 0 }

// Records returns a copy of all records in combined order.
func (t *Table) Records() []LongRecord {
	out := make([]LongRecord, len(t.records))
	copy(out, t.records)
	return out
}

// At returns the record at index i in combined order.
func (t *Table) At(i int) LongRecord { return t.records[i] }

// Regions returns the distinct region names in first-appearance order, for
// populating selection controls.
func (t *Table) Regions() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range t.records {
		if _, ok := seen[r.Region]; ok {
			continue
		}
		seen[r.Region] = struct{}{}
		out = append(out, r.Region)
	}
	return out
}

// Metrics returns the distinct metric identities present, in canonical
// vocabulary order.
func (t *Table) Metrics() []schema.Metric {
	present := make(map[schema.Metric]struct{})
	for _, r := range t.records {
		present[r.Metric] = struct{}{}
	}
	var out []schema.Metric
	for _, m := range schema.Vocabulary() {
		if _, ok := present[m]; ok {
			out = append(out, m)
			delete(present, m)
		}
	}
	if len(present) > 0 {
		// Non-canonical identities can only come from a caller-supplied
		// vocabulary; keep them, in first-appearance order.
		for _, r := range t.records {
			if _, ok := present[r.Metric]; ok {
				out = append(out, r.Metric)
				delete(present, r.Metric)
			}
		}
	}
	return out
}

// Span returns the earliest and latest record dates. ok is false for an
// empty table.
func (t *Table) Span() (from, to time.Time, ok bool) {
	if len(t.records) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return t.records[0].Date, t.records[len(t.records)-1].Date, true
}

// Query selects records by date range and optional region/metric sets. Zero
// time bounds are open-ended; empty sets match everything.
type Query struct {
	From    time.Time
	To      time.Time
	Regions []string
	Metrics []schema.Metric
}

// Filter returns records matching the query, preserving combined order.
func (t *Table) Filter(q Query) []LongRecord {
	regionSet := toSet(q.Regions)
	metricSet := toSet(q.Metrics)
	var out []LongRecord
	for _, r := range t.records {
		if !q.From.IsZero() && r.Date.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && r.Date.After(q.To) {
			continue
		}
		if regionSet != nil {
			if _, ok := regionSet[r.Region]; !ok {
				continue
			}
		}
		if metricSet != nil {
			if _, ok := metricSet[string(r.Metric)]; !ok {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

func toSet[T ~string](xs []T) map[string]struct{} {
	if len(xs) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(xs))
	for _, x := range xs {
		set[string(x)] = struct{}{}
	}
	return set
}
