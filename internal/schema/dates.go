package schema

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// dateAttempt is one parse trial: success or absence, never an error. Trials
// are composed into ordered chains that short-circuit on first success,
// replacing nested try/fallback control flow.
type dateAttempt func(string) (time.Time, bool)

// tryChain runs attempts in order and returns the first success.
func tryChain(s string, attempts []dateAttempt) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, attempt := range attempts {
		if t, ok := attempt(s); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// dateCodeChain covers the compact encodings used by the date-code column.
var dateCodeChain = []dateAttempt{
	parseCompactMonthCode,
	parseYearMonthInt,
	parseGenericDate,
}

// reportMonthChain adds the calendar-text formats seen in report-month
// columns on top of the date-code trials.
var reportMonthChain = []dateAttempt{
	parseCompactMonthCode,
	parseYearMonthInt,
	parseMonthNameYear,
	parseSlashMonthYear,
	parseISOYearMonth,
	parseGenericDate,
}

var compactMonthCodeRe = regexp.MustCompile(`^[A-Za-z]{3}\d{2}$`)

// IsCompactMonthCode reports whether s looks like a three-letter month
// abbreviation followed by a two-digit year ("Jul15"). The header locator
// uses this to spot headerless files whose first cell is already data.
func IsCompactMonthCode(s string) bool {
	return compactMonthCodeRe.MatchString(strings.TrimSpace(s))
}

// parseCompactMonthCode parses "Jul15" (case-insensitive) to 2015-07-01.
func parseCompactMonthCode(s string) (time.Time, bool) {
	if !compactMonthCodeRe.MatchString(s) {
		return time.Time{}, false
	}
	norm := strings.ToUpper(s[:1]) + strings.ToLower(s[1:3]) + s[3:]
	t, err := time.Parse("Jan06", norm)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// parseYearMonthInt parses a six-digit YYYYMM integer, tolerating the
// trailing ".0" artifact left by float round-trips.
func parseYearMonthInt(s string) (time.Time, bool) {
	s = strings.TrimSuffix(s, ".0")
	if len(s) != 6 {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return time.Time{}, false
	}
	year, month := n/100, n%100
	if month < 1 || month > 12 || year < 1900 || year > 2099 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), true
}

// parseMonthNameYear parses "Jul 2015" and "July 2015".
func parseMonthNameYear(s string) (time.Time, bool) {
	for _, layout := range []string{"Jan 2006", "January 2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseSlashMonthYear parses "7/2015" and "07/2015".
func parseSlashMonthYear(s string) (time.Time, bool) {
	for _, layout := range []string{"1/2006", "01/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseISOYearMonth parses "2015-07".
func parseISOYearMonth(s string) (time.Time, bool) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// parseGenericDate is the last-resort trial over full-date layouts,
// truncated to month resolution.
func parseGenericDate(s string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02", "1/2/2006", "01/02/2006", "2006/01/02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// ResolveDate produces the calendar-month date for one row, trying sources
// in fixed precedence: date code, then report month, then separate calendar
// month + year columns. The first source with any parsed value wins; sources
// are never blended within a row. A false return means the row is later
// dropped, never defaulted.
func ResolveDate(cols []Column, row []string, cell func([]string, int) string) (time.Time, bool) {
	if c := FindRole(cols, RoleDateCode); c != nil {
		if t, ok := tryChain(cell(row, c.Index), dateCodeChain); ok {
			return t, true
		}
	}
	if c := FindRole(cols, RoleReportMonth); c != nil {
		if t, ok := tryChain(cell(row, c.Index), reportMonthChain); ok {
			return t, true
		}
	}
	mc := FindRole(cols, RoleCalendarMonth)
	yc := FindRole(cols, RoleCalendarYear)
	if mc != nil && yc != nil {
		if t, ok := combineMonthYear(cell(row, mc.Index), cell(row, yc.Index)); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// combineMonthYear joins numeric month and year cells into the first day of
// that month. Two-digit years are taken as 20xx, matching the report era.
func combineMonthYear(monthCell, yearCell string) (time.Time, bool) {
	m, ok1 := ParseNumber(monthCell)
	y, ok2 := ParseNumber(yearCell)
	if !ok1 || !ok2 {
		return time.Time{}, false
	}
	month, year := int(m), int(y)
	if month < 1 || month > 12 {
		return time.Time{}, false
	}
	if year < 100 {
		year += 2000
	}
	if year < 1900 || year > 2099 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), true
}
