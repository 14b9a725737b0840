package schema

import "strings"

// Role tags what a source column resolved to. It is produced once by
// NormalizeColumns and consumed everywhere downstream via switch, replacing
// repeated string comparisons against raw labels.
type Role int

const (
	RoleUnrecognized Role = iota
	RoleRegionName
	RoleRegionCode
	RoleDateCode
	RoleReportMonth
	RoleCalendarMonth
	RoleCalendarYear
	RoleFiscalYearLabel
	RoleMetric
)

func (r Role) String() string {
	switch r {
	case RoleRegionName:
		return "region_name"
	case RoleRegionCode:
		return "region_code"
	case RoleDateCode:
		return "date_code"
	case RoleReportMonth:
		return "report_month"
	case RoleCalendarMonth:
		return "calendar_month"
	case RoleCalendarYear:
		return "calendar_year"
	case RoleFiscalYearLabel:
		return "fiscal_year"
	case RoleMetric:
		return "metric"
	default:
		return "unrecognized"
	}
}

// Column is one resolved source column. Metric is set only when Role is
// RoleMetric (assigned later by MapMetrics, never by NormalizeColumns).
type Column struct {
	Index  int
	Label  string
	Role   Role
	Metric Metric
}

// identifierSynonyms maps normalized labels to identifier roles. Fiscal-year
// labels are recognized and carried through, but never used for dating.
var identifierSynonyms = map[string]Role{
	"county":              RoleRegionName,
	"county name":         RoleRegionName,
	"county code":         RoleRegionCode,
	"code":                RoleRegionCode,
	"date":                RoleDateCode,
	"date code":           RoleDateCode,
	"report month":        RoleReportMonth,
	"month":               RoleCalendarMonth,
	"year":                RoleCalendarYear,
	"sfy":                 RoleFiscalYearLabel,
	"ffy":                 RoleFiscalYearLabel,
	"state fiscal year":   RoleFiscalYearLabel,
	"federal fiscal year": RoleFiscalYearLabel,
}

// NormalizeColumns maps raw header labels to identifier roles where
// recognizable. Unrecognized labels are left untouched for metric mapping;
// this stage never guesses metric identity.
func NormalizeColumns(header []string) []Column {
	cols := make([]Column, len(header))
	for i, label := range header {
		cols[i] = Column{Index: i, Label: label, Role: classifyLabel(label)}
	}
	return cols
}

func classifyLabel(label string) Role {
	key := normalizeLabel(label)
	if key == "" {
		return RoleUnrecognized
	}
	if role, ok := identifierSynonyms[key]; ok {
		return role
	}
	// Substring heuristics for compound labels before giving up.
	if strings.Contains(key, "county") && strings.Contains(key, "name") {
		return RoleRegionName
	}
	if strings.Contains(key, "county") && strings.Contains(key, "code") {
		return RoleRegionCode
	}
	if strings.Contains(key, "report") && strings.Contains(key, "month") {
		return RoleReportMonth
	}
	return RoleUnrecognized
}

// FindRole returns the first column carrying the given role, or nil.
func FindRole(cols []Column, role Role) *Column {
	for i := range cols {
		if cols[i].Role == role {
			return &cols[i]
		}
	}
	return nil
}
