package schema

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// ErrNoMetricColumns indicates metric mapping produced zero canonical
// columns for a file.
var ErrNoMetricColumns = errors.New("schema: no metric columns recognized")

// Tolerances bounds the per-row slack for arithmetic identities. Counts and
// dollar amounts get separate values since expenditure columns accumulate
// rounding.
type Tolerances struct {
	Count  float64
	Dollar float64
}

// identity is one cross-metric arithmetic constraint expected to hold per
// row: lhs ≈ sum(plus) − sum(minus), with an optional extra addend whose
// presence varies by release.
type identity struct {
	lhs      Metric
	plus     []Metric
	minus    []Metric
	optional Metric
	dollar   bool
}

var identities = []identity{
	{lhs: MetricTotalCasesAvail, plus: []Metric{MetricCasesBroughtFwd, MetricCasesAdded}, optional: MetricAdjustment},
	{lhs: MetricCasesCarriedFwd, plus: []Metric{MetricTotalCasesAvail}, minus: []Metric{MetricCasesDiscontinued}},
	{lhs: MetricTotalCases, plus: []Metric{MetricFamilyCases, MetricOnePersonCases}},
	{lhs: MetricTotalPersons, plus: []Metric{MetricFamilyPersons, MetricOnePersonPersons}},
	{lhs: MetricTotalExpenditure, plus: []Metric{MetricCashGrants, MetricInKind}, dollar: true},
}

// MapOutcome records how metric columns were resolved, for the processing log.
type MapOutcome struct {
	Strategy string // "named", "numbered", or "positional"
	Offset   int    // chosen vocabulary offset, numbered strategy only
	Mapped   int    // number of columns assigned a metric
}

// CellFn extracts a trimmed cell from a ragged row.
type CellFn func(row []string, col int) string

// MapperConfig carries the vocabulary and tuning for metric mapping. A nil
// Vocab means the full canonical vocabulary.
type MapperConfig struct {
	Vocab      []Metric
	Tolerances Tolerances
	MaxOffset  int
}

func (c MapperConfig) vocab() []Metric {
	if c.Vocab != nil {
		return c.Vocab
	}
	return vocabulary
}

// MapMetrics assigns canonical metric identities to every column the
// normalizer left unrecognized.
//
// Case A: labels already match the vocabulary (or a historical alias).
// Case B: labels are bare integers (optionally "Cell N"): 1-based positions
// into the vocabulary whose starting offset is recovered by constraint
// scoring against the arithmetic identities. When no offset is scoreable at
// all (too few columns to check any identity and no anchor present), the
// lead offset is assumed rather than excluding the file.
// Case C: labels are absent entirely: positional left-to-right mapping.
func MapMetrics(cols []Column, rows [][]string, cell CellFn, cfg MapperConfig) ([]Column, MapOutcome, error) {
	out := make([]Column, len(cols))
	copy(out, cols)

	var open []int
	for i := range out {
		if out[i].Role == RoleUnrecognized {
			open = append(open, i)
		}
	}
	if len(open) == 0 {
		return nil, MapOutcome{}, ErrNoMetricColumns
	}

	// Case A: literal canonical names.
	named := 0
	for _, i := range open {
		if m, ok := LookupMetric(out[i].Label); ok {
			out[i].Role = RoleMetric
			out[i].Metric = m
			named++
		}
	}
	if named > 0 {
		return out, MapOutcome{Strategy: "named", Mapped: named}, nil
	}

	// Case B: numbered placeholder columns.
	type numberedCol struct{ col, n int }
	var numbered []numberedCol
	unlabeled := true
	for _, i := range open {
		label := strings.TrimSpace(out[i].Label)
		if label != "" {
			unlabeled = false
		}
		if n, ok := parseCellNumber(label); ok {
			numbered = append(numbered, numberedCol{col: i, n: n})
		}
	}
	vocab := cfg.vocab()
	if len(numbered) > 0 {
		candidate := func(k int) map[Metric]int {
			mapping := make(map[Metric]int, len(numbered))
			for _, nc := range numbered {
				idx := nc.n - 1 + k
				if idx >= 0 && idx < len(vocab) {
					mapping[vocab[idx]] = nc.col
				}
			}
			return mapping
		}
		maxOffset := cfg.MaxOffset
		if maxOffset < 0 {
			maxOffset = 0
		}
		bestOffset, bestScore, bestAnchor := -1, -1, -1
		for k := 0; k <= maxOffset; k++ {
			mapping := candidate(k)
			score, checkable := scoreIdentities(mapping, rows, cell, cfg.Tolerances)
			anchor := anchorCoverage(mapping, rows, cell)
			if checkable == 0 && anchor == 0 {
				continue
			}
			if score > bestScore || (score == bestScore && anchor > bestAnchor) {
				bestOffset, bestScore, bestAnchor = k, score, anchor
			}
		}
		if bestOffset < 0 && len(candidate(0)) > 0 {
			bestOffset = 0
		}
		if bestOffset < 0 {
			return nil, MapOutcome{}, ErrNoMetricColumns
		}
		mapped := 0
		for m, col := range candidate(bestOffset) {
			out[col].Role = RoleMetric
			out[col].Metric = m
			mapped++
		}
		return out, MapOutcome{Strategy: "numbered", Offset: bestOffset, Mapped: mapped}, nil
	}

	// Case C: purely positional, unlabeled columns after the identifiers.
	if unlabeled {
		mapped := 0
		for k, i := range open {
			if k >= len(vocab) {
				break
			}
			out[i].Role = RoleMetric
			out[i].Metric = vocab[k]
			mapped++
		}
		if mapped == 0 {
			return nil, MapOutcome{}, ErrNoMetricColumns
		}
		return out, MapOutcome{Strategy: "positional", Mapped: mapped}, nil
	}

	return nil, MapOutcome{}, ErrNoMetricColumns
}

// parseCellNumber recognizes bare positive integers and the "Cell N"
// variant some releases use for numbered metric columns.
func parseCellNumber(label string) (int, bool) {
	s := strings.TrimSpace(label)
	low := strings.ToLower(s)
	if rest, ok := strings.CutPrefix(low, "cell "); ok {
		s = strings.TrimSpace(rest)
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// scoreIdentities counts, across all identities the mapping makes checkable,
// the rows that balance within tolerance. checkable is the number of
// identities whose required operands are all mapped.
func scoreIdentities(mapping map[Metric]int, rows [][]string, cell CellFn, tol Tolerances) (score, checkable int) {
	for _, id := range identities {
		lhsCol, ok := mapping[id.lhs]
		if !ok {
			continue
		}
		operands := make([]int, 0, len(id.plus)+len(id.minus))
		missing := false
		for _, m := range id.plus {
			col, ok := mapping[m]
			if !ok {
				missing = true
				break
			}
			operands = append(operands, col)
		}
		if !missing {
			for _, m := range id.minus {
				col, ok := mapping[m]
				if !ok {
					missing = true
					break
				}
				operands = append(operands, col)
			}
		}
		if missing {
			continue
		}
		checkable++

		limit := tol.Count
		if id.dollar {
			limit = tol.Dollar
		}
		optCol, hasOpt := -1, false
		if id.optional != "" {
			if c, ok := mapping[id.optional]; ok {
				optCol, hasOpt = c, true
			}
		}

		for _, row := range rows {
			lhs, ok := ParseNumber(cell(row, lhsCol))
			if !ok {
				continue
			}
			rhs, usable := 0.0, true
			for i, col := range operands {
				v, ok := ParseNumber(cell(row, col))
				if !ok {
					usable = false
					break
				}
				if i < len(id.plus) {
					rhs += v
				} else {
					rhs -= v
				}
			}
			if !usable {
				continue
			}
			residual := lhs - rhs
			if math.Abs(residual) <= limit {
				score++
				continue
			}
			if hasOpt {
				if opt, ok := ParseNumber(cell(row, optCol)); ok {
					if math.Abs(residual-opt) <= limit || math.Abs(residual+opt) <= limit {
						score++
					}
				}
			}
		}
	}
	return score, checkable
}

// anchorCoverage counts non-null cells under the anchor metrics, the
// tie-break when two offsets satisfy the identities equally.
func anchorCoverage(mapping map[Metric]int, rows [][]string, cell CellFn) int {
	total := 0
	for _, m := range Anchors() {
		col, ok := mapping[m]
		if !ok {
			continue
		}
		for _, row := range rows {
			if _, ok := ParseNumber(cell(row, col)); ok {
				total++
			}
		}
	}
	return total
}
