package pipeline

import (
	"fmt"
	"time"
)

// Report is the per-file processing log entry returned alongside the
// combined table: which header row was chosen, how the metric columns were
// resolved, how many records were produced and over what span, or why the
// file was excluded.
type Report struct {
	File            string    `json:"file"`
	HeaderRow       int       `json:"header_row"`
	SyntheticHeader bool      `json:"synthetic_header,omitempty"`
	MapStrategy     string    `json:"map_strategy,omitempty"`
	MapOffset       int       `json:"map_offset,omitempty"`
	Records         int       `json:"records"`
	From            time.Time `json:"from,omitempty"`
	To              time.Time `json:"to,omitempty"`

	Excluded *Exclusion `json:"-"`
	Reason   Reason     `json:"excluded,omitempty"`
	Detail   string     `json:"detail,omitempty"`
}

// String renders the human-readable log line.
func (r Report) String() string {
	if r.Excluded != nil {
		return r.Excluded.Error()
	}
	header := fmt.Sprintf("header row %d", r.HeaderRow)
	if r.SyntheticHeader {
		header = fmt.Sprintf("synthetic header, data from row %d", r.HeaderRow)
	}
	strategy := r.MapStrategy
	if r.MapStrategy == "numbered" {
		strategy = fmt.Sprintf("numbered (offset %d)", r.MapOffset)
	}
	return fmt.Sprintf("%s: %s, %s metrics, %d records, %s..%s",
		r.File, header, strategy,
		r.Records,
		r.From.Format("2006-01"), r.To.Format("2006-01"))
}
