package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/goldenstatedata/gr237/internal/dataset"
	"github.com/goldenstatedata/gr237/internal/datasets"
	"github.com/goldenstatedata/gr237/internal/pipeline"
	"github.com/goldenstatedata/gr237/internal/runtime"
	"github.com/goldenstatedata/gr237/internal/schema"
	"github.com/goldenstatedata/gr237/pkg/mcperr"
	"github.com/goldenstatedata/gr237/pkg/pagination"
	"github.com/goldenstatedata/gr237/pkg/validation"
)

// --- Input / Output Schemas (typed for discovery) ---

// LoadDatasetInput names the report files to ingest, in precedence order.
type LoadDatasetInput struct {
	Files []string `json:"files" validate:"required,min=1,dive,required,report_ext" jsonschema_description:"Ordered report file identifiers (.csv or .xlsx); earlier files win on overlapping records"`
}

// LoadDatasetOutput summarizes the combined snapshot.
type LoadDatasetOutput struct {
	DatasetID string   `json:"dataset_id" jsonschema_description:"Server-assigned dataset handle ID"`
	Records   int      `json:"records" jsonschema_description:"Combined record count"`
	Regions   int      `json:"regions" jsonschema_description:"Distinct region count"`
	Metrics   int      `json:"metrics" jsonschema_description:"Distinct metric count"`
	From      string   `json:"from,omitempty" jsonschema_description:"Earliest report month (YYYY-MM)"`
	To        string   `json:"to,omitempty" jsonschema_description:"Latest report month (YYYY-MM)"`
	Log       []string `json:"log" jsonschema_description:"Ordered per-file processing log"`
}

// DatasetRefInput references a loaded snapshot.
type DatasetRefInput struct {
	DatasetID string `json:"dataset_id" validate:"required" jsonschema_description:"Dataset handle ID from load_dataset"`
}

// ListRegionsOutput carries distinct region names for selection controls.
type ListRegionsOutput struct {
	DatasetID string   `json:"dataset_id"`
	Regions   []string `json:"regions"`
}

// ListMetricsOutput carries distinct metric identities in vocabulary order.
type ListMetricsOutput struct {
	DatasetID string   `json:"dataset_id"`
	Metrics   []string `json:"metrics"`
}

// ProcessingLogOutput carries the per-file processing log.
type ProcessingLogOutput struct {
	DatasetID string   `json:"dataset_id"`
	Log       []string `json:"log"`
}

// QueryRecordsInput selects records by date range and region/metric sets.
// Cursor takes precedence: it resumes a prior query and must match its
// parameters.
type QueryRecordsInput struct {
	DatasetID string   `json:"dataset_id" validate:"required" jsonschema_description:"Dataset handle ID from load_dataset"`
	From      string   `json:"from,omitempty" validate:"omitempty,yearmonth" jsonschema_description:"Inclusive lower month bound (YYYY-MM)"`
	To        string   `json:"to,omitempty" validate:"omitempty,yearmonth" jsonschema_description:"Inclusive upper month bound (YYYY-MM)"`
	Regions   []string `json:"regions,omitempty" jsonschema_description:"Region names to include (empty = all)"`
	Metrics   []string `json:"metrics,omitempty" jsonschema_description:"Metric identities to include (empty = all)"`
	PageSize  int      `json:"page_size,omitempty" validate:"omitempty,min=1" jsonschema_description:"Records per page (bounded by server limits)"`
	Cursor    string   `json:"cursor,omitempty" validate:"omitempty,cursor" jsonschema_description:"Opaque cursor from a previous page"`
}

// RecordOut is one long-format record in tool output.
type RecordOut struct {
	Date       string  `json:"date" jsonschema_description:"Report month (YYYY-MM)"`
	Region     string  `json:"region"`
	RegionCode string  `json:"region_code,omitempty"`
	Metric     string  `json:"metric"`
	Value      float64 `json:"value"`
}

// PageMeta captures paging/truncation metadata.
type PageMeta struct {
	Total      int    `json:"total"`
	Returned   int    `json:"returned"`
	Truncated  bool   `json:"truncated"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// QueryRecordsOutput documents a query page.
type QueryRecordsOutput struct {
	DatasetID string      `json:"dataset_id"`
	Records   []RecordOut `json:"records"`
	Meta      PageMeta    `json:"meta"`
}

// Loader abstracts the ingest entry point so tests can stub it.
type Loader interface {
	Load(ctx context.Context, files []string) (*dataset.Table, []pipeline.Report, error)
}

// RegisterDatasetTools wires the dataset lifecycle and query tools.
func RegisterDatasetTools(s *server.MCPServer, reg *Registry, limits runtime.Limits, store *datasets.Store, loader Loader) {
	// load_dataset
	loadTool := mcp.NewTool(
		"load_dataset",
		mcp.WithDescription("Load and normalize an ordered list of CA 237-GR report files into one combined long-format dataset. Per-file failures (unreadable file, unlocatable header, unusable dates, unrecognized metric columns) are excluded and logged, never fatal; the processing log explains every exclusion. Returns a dataset handle for the query tools. An all-excluded load fails with LOAD_EMPTY."),
		mcp.WithInputSchema[LoadDatasetInput](),
		mcp.WithOutputSchema[LoadDatasetOutput](),
	)
	s.AddTool(loadTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in LoadDatasetInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcperr.New(mcperr.Validation, msg), nil
		}
		table, reports, err := loader.Load(ctx, in.Files)
		if err != nil {
			return mcperr.Wrapf(mcperr.LoadFailed, "%v", err), nil
		}
		log := pipeline.LogLines(reports)
		if table.Empty() {
			return mcperr.Wrapf(mcperr.LoadEmpty, "%s", strings.Join(log, " | ")), nil
		}
		id, err := store.Register(ctx, in.Files, table, reports)
		if err != nil {
			return mcperr.Wrapf(mcperr.BusyResource, "%v", err), nil
		}
		out := LoadDatasetOutput{
			DatasetID: id,
			Records:   table.Len(),
			Regions:   len(table.Regions()),
			Metrics:   len(table.Metrics()),
			Log:       log,
		}
		if from, to, ok := table.Span(); ok {
			out.From = from.Format("2006-01")
			out.To = to.Format("2006-01")
		}
		summary := fmt.Sprintf("dataset_id=%s records=%d span=%s..%s", id, out.Records, out.From, out.To)
		res := mcp.NewToolResultStructured(out, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(summary + "\n" + strings.Join(log, "\n"))}
		return res, nil
	}))
	reg.Register(loadTool)

	// list_regions
	regionsTool := mcp.NewTool(
		"list_regions",
		mcp.WithDescription("List the distinct region (county) names present in a loaded dataset, in first-appearance order, for populating selection controls. The statewide aggregate is never present."),
		mcp.WithInputSchema[DatasetRefInput](),
		mcp.WithOutputSchema[ListRegionsOutput](),
	)
	s.AddTool(regionsTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in DatasetRefInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcperr.New(mcperr.Validation, msg), nil
		}
		snap, ok := store.Get(in.DatasetID)
		if !ok {
			return mcperr.New(mcperr.InvalidDataset, ""), nil
		}
		out := ListRegionsOutput{DatasetID: snap.ID, Regions: snap.Table.Regions()}
		summary := fmt.Sprintf("regions=%d", len(out.Regions))
		res := mcp.NewToolResultStructured(out, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(strings.Join(out.Regions, ", "))}
		return res, nil
	}))
	reg.Register(regionsTool)

	// list_metrics
	metricsTool := mcp.NewTool(
		"list_metrics",
		mcp.WithDescription("List the distinct canonical metric identities present in a loaded dataset, in canonical vocabulary order, for populating selection controls."),
		mcp.WithInputSchema[DatasetRefInput](),
		mcp.WithOutputSchema[ListMetricsOutput](),
	)
	s.AddTool(metricsTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in DatasetRefInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcperr.New(mcperr.Validation, msg), nil
		}
		snap, ok := store.Get(in.DatasetID)
		if !ok {
			return mcperr.New(mcperr.InvalidDataset, ""), nil
		}
		metrics := snap.Table.Metrics()
		out := ListMetricsOutput{DatasetID: snap.ID, Metrics: make([]string, len(metrics))}
		for i, m := range metrics {
			out.Metrics[i] = string(m)
		}
		summary := fmt.Sprintf("metrics=%d", len(out.Metrics))
		res := mcp.NewToolResultStructured(out, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(strings.Join(out.Metrics, ", "))}
		return res, nil
	}))
	reg.Register(metricsTool)

	// processing_log
	logTool := mcp.NewTool(
		"processing_log",
		mcp.WithDescription("Return the ordered per-file processing log for a loaded dataset: chosen header row, metric mapping strategy, record counts and date spans, and exclusion reasons with diagnostics."),
		mcp.WithInputSchema[DatasetRefInput](),
		mcp.WithOutputSchema[ProcessingLogOutput](),
	)
	s.AddTool(logTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in DatasetRefInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcperr.New(mcperr.Validation, msg), nil
		}
		snap, ok := store.Get(in.DatasetID)
		if !ok {
			return mcperr.New(mcperr.InvalidDataset, ""), nil
		}
		out := ProcessingLogOutput{DatasetID: snap.ID, Log: pipeline.LogLines(snap.Reports)}
		summary := fmt.Sprintf("files=%d", len(out.Log))
		res := mcp.NewToolResultStructured(out, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(strings.Join(out.Log, "\n"))}
		return res, nil
	}))
	reg.Register(logTool)

	// query_records
	queryTool := mcp.NewTool(
		"query_records",
		mcp.WithDescription("Page through a loaded dataset's long-format records filtered by inclusive YYYY-MM date bounds and optional region/metric sets. A zero-result page on a non-empty dataset means the selection matched nothing; it is not a load failure. Use the returned cursor to fetch subsequent pages; cursors are bound to the query parameters that issued them."),
		mcp.WithInputSchema[QueryRecordsInput](),
		mcp.WithOutputSchema[QueryRecordsOutput](),
	)
	s.AddTool(queryTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in QueryRecordsInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcperr.New(mcperr.Validation, msg), nil
		}
		snap, ok := store.Get(in.DatasetID)
		if !ok {
			return mcperr.New(mcperr.InvalidDataset, ""), nil
		}

		q, err := buildQuery(in)
		if err != nil {
			return mcperr.Wrapf(mcperr.Validation, "%v", err), nil
		}
		qh := queryHash(in)

		pageSize := in.PageSize
		if pageSize <= 0 {
			pageSize = limits.DefaultPageSize
		}
		if limits.MaxPageSize > 0 && pageSize > limits.MaxPageSize {
			pageSize = limits.MaxPageSize
		}
		offset := 0
		if in.Cursor != "" {
			cur, err := pagination.DecodeCursor(in.Cursor)
			if err != nil {
				return mcperr.Wrapf(mcperr.CursorInvalid, "%v", err), nil
			}
			if cur.Did != in.DatasetID || (cur.Qh != "" && cur.Qh != qh) {
				return mcperr.New(mcperr.CursorInvalid, "cursor was issued for a different dataset or query"), nil
			}
			offset = cur.Off
			pageSize = cur.Ps
		}

		matched := snap.Table.Filter(q)
		total := len(matched)
		if offset > total {
			offset = total
		}
		end := offset + pageSize
		if end > total {
			end = total
		}
		page := matched[offset:end]

		out := QueryRecordsOutput{DatasetID: snap.ID, Records: make([]RecordOut, len(page))}
		for i, r := range page {
			out.Records[i] = RecordOut{
				Date:       r.Date.Format("2006-01"),
				Region:     r.Region,
				RegionCode: r.RegionCode,
				Metric:     string(r.Metric),
				Value:      r.Value,
			}
		}
		out.Meta = PageMeta{Total: total, Returned: len(page), Truncated: end < total}
		if end < total {
			token, err := pagination.EncodeCursor(pagination.Cursor{
				Did: snap.ID,
				Off: pagination.NextOffset(offset, len(page)),
				Ps:  pageSize,
				Qh:  qh,
			})
			if err != nil {
				return mcperr.Wrapf(mcperr.QueryFailed, "encode cursor: %v", err), nil
			}
			out.Meta.NextCursor = token
		}

		summary := fmt.Sprintf("total=%d returned=%d truncated=%v", out.Meta.Total, out.Meta.Returned, out.Meta.Truncated)
		res := mcp.NewToolResultStructured(out, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(summary)}
		return res, nil
	}))
	reg.Register(queryTool)
}

// buildQuery converts tool input into a dataset query. Month bounds are
// inclusive: "2016-03" as To matches all of March 2016.
func buildQuery(in QueryRecordsInput) (dataset.Query, error) {
	var q dataset.Query
	if in.From != "" {
		t, err := time.Parse("2006-01", in.From)
		if err != nil {
			return q, fmt.Errorf("invalid from month: %w", err)
		}
		q.From = t
	}
	if in.To != "" {
		t, err := time.Parse("2006-01", in.To)
		if err != nil {
			return q, fmt.Errorf("invalid to month: %w", err)
		}
		q.To = t
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.To.Before(q.From) {
		return q, fmt.Errorf("to month precedes from month")
	}
	q.Regions = in.Regions
	for _, m := range in.Metrics {
		q.Metrics = append(q.Metrics, schema.Metric(m))
	}
	return q, nil
}

// queryHash binds cursors to the filter parameters that issued them.
func queryHash(in QueryRecordsInput) string {
	regions := append([]string(nil), in.Regions...)
	metrics := append([]string(nil), in.Metrics...)
	sort.Strings(regions)
	sort.Strings(metrics)
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s", in.From, in.To, strings.Join(regions, ","), strings.Join(metrics, ","))
	return hex.EncodeToString(h.Sum(nil))[:16]
}
