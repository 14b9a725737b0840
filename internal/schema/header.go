package schema

import (
	"strconv"
	"strings"

	"github.com/goldenstatedata/gr237/internal/tabular"
)

// Header-plausibility weights. A candidate row must signal both a region
// column and a date column to clear the threshold at all; auxiliary tokens
// and numbered-metric blocks only rank rows that already cleared it.
const (
	regionTokenWeight  = 3
	dateTokenWeight    = 3
	auxTokenWeight     = 1
	numberedBlockBonus = 2
	minNumberedBlock   = 5
)

// HeaderChoice is the locator's decision for one file.
type HeaderChoice struct {
	// Row is the 0-based header row, or the first data row when Synthetic.
	Row int
	// Synthetic marks headerless files where a positional header is
	// generated instead.
	Synthetic bool
	// Score is the winning plausibility score (0 when Synthetic).
	Score int
}

// LocateHeader scans candidate header rows and returns the best-scoring
// plausible one. Scan order is top-down, so ties prefer the earliest row.
// When no row clears the threshold, the first row whose leading cell is a
// compact month code is treated as data and a synthetic header is chosen.
// A false return means the file has no usable header at all.
func LocateHeader(rows [][]string, maxScanRows int) (HeaderChoice, bool) {
	if maxScanRows <= 0 || maxScanRows > len(rows) {
		maxScanRows = len(rows)
	}

	best := HeaderChoice{Row: -1}
	for r := 0; r < maxScanRows; r++ {
		score, plausible := scoreHeaderRow(rows[r])
		if !plausible {
			continue
		}
		if best.Row < 0 || score > best.Score {
			best = HeaderChoice{Row: r, Score: score}
		}
	}
	if best.Row >= 0 {
		return best, true
	}

	// Headerless fallback: some releases start straight at the data.
	for r := 0; r < maxScanRows; r++ {
		if len(rows[r]) > 0 && IsCompactMonthCode(rows[r][0]) {
			return HeaderChoice{Row: r, Synthetic: true}, true
		}
	}
	return HeaderChoice{}, false
}

// scoreHeaderRow scores one candidate row. plausible requires both a region
// signal and a date signal.
func scoreHeaderRow(row []string) (score int, plausible bool) {
	hasRegion, hasDate := false, false
	numbered := 0
	for _, raw := range row {
		label := normalizeLabel(tabular.CleanLabel(raw))
		if label == "" {
			continue
		}
		switch classifyLabel(label) {
		case RoleRegionName:
			hasRegion = true
			score += regionTokenWeight
			continue
		case RoleDateCode, RoleReportMonth, RoleCalendarMonth:
			hasDate = true
			score += dateTokenWeight
			continue
		case RoleRegionCode, RoleCalendarYear, RoleFiscalYearLabel:
			score += auxTokenWeight
			continue
		}
		if n, err := strconv.Atoi(strings.TrimSpace(label)); err == nil && n > 0 {
			numbered++
		}
	}
	if numbered >= minNumberedBlock {
		score += numberedBlockBonus
	}
	return score, hasRegion && hasDate
}
