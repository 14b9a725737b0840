package mcperr

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Code defines a canonical MCP error code used across tools.
type Code string

const (
	// Validation & Input
	Validation     Code = "VALIDATION"
	InvalidDataset Code = "INVALID_DATASET"
	CursorInvalid  Code = "CURSOR_INVALID"

	// Resource & Limits
	BusyResource  Code = "BUSY_RESOURCE"
	Timeout       Code = "TIMEOUT"
	LimitExceeded Code = "LIMIT_EXCEEDED"

	// Load & Query
	LoadFailed  Code = "LOAD_FAILED"
	LoadEmpty   Code = "LOAD_EMPTY"
	QueryFailed Code = "QUERY_FAILED"
)

// Entry documents a code's standard message, retry semantics, and next steps.
type Entry struct {
	Code      Code
	Message   string
	Retryable bool
	NextSteps []string
}

// catalog maps canonical codes to guidance. Messages can be overridden per
// error.
var catalog = map[Code]Entry{
	Validation:     {Code: Validation, Message: "invalid inputs", Retryable: true, NextSteps: []string{"Correct the inputs per schema and retry", "See examples in tool description"}},
	InvalidDataset: {Code: InvalidDataset, Message: "dataset handle not found or expired", Retryable: true, NextSteps: []string{"Reload the dataset via load_dataset and retry"}},
	CursorInvalid:  {Code: CursorInvalid, Message: "cursor is invalid for current context", Retryable: true, NextSteps: []string{"Restart pagination from the first page", "Reissue the query without a cursor"}},

	BusyResource:  {Code: BusyResource, Message: "concurrent request limit reached", Retryable: true, NextSteps: []string{"Retry after a short delay"}},
	Timeout:       {Code: Timeout, Message: "operation exceeded configured time limit", Retryable: true, NextSteps: []string{"Narrow the query or load fewer files"}},
	LimitExceeded: {Code: LimitExceeded, Message: "operation exceeded configured limits", Retryable: true, NextSteps: []string{"Lower page size or narrow the selection"}},

	LoadFailed:  {Code: LoadFailed, Message: "failed to load report files", Retryable: true, NextSteps: []string{"Verify file identifiers and the data directory"}},
	LoadEmpty:   {Code: LoadEmpty, Message: "every report file was excluded; combined table is empty", Retryable: false, NextSteps: []string{"Inspect the processing log for per-file exclusion reasons"}},
	QueryFailed: {Code: QueryFailed, Message: "query execution failed", Retryable: true, NextSteps: []string{"Check date bounds and region/metric names against list_regions and list_metrics"}},
}

// normalize builds a standard error string including next steps for MCP
// clients that surface only a message string. Format: "CODE: message"
// followed by a guidance tail.
func normalize(code Code, msg string) string {
	base := strings.TrimSpace(msg)
	e, ok := catalog[code]
	if !ok {
		if base == "" {
			return string(code)
		}
		return fmt.Sprintf("%s: %s", string(code), base)
	}
	if base == "" {
		base = e.Message
	}
	guidance := ""
	if len(e.NextSteps) > 0 {
		guidance = " | nextSteps: " + strings.Join(e.NextSteps, "; ")
	}
	return fmt.Sprintf("%s: %s%s", e.Code, base, guidance)
}

// New returns an MCP error result for a given code and optional message
// override.
func New(code Code, message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(normalize(code, message))
}

// Wrapf formats details and returns an MCP error result for the code.
func Wrapf(code Code, format string, args ...any) *mcp.CallToolResult {
	return mcp.NewToolResultError(normalize(code, fmt.Sprintf(format, args...)))
}
