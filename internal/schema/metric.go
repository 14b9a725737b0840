// Package schema recovers a canonical column mapping from a raw report grid:
// it locates the header row, normalizes column labels into roles, resolves
// per-row report dates, and maps metric columns onto the fixed CA 237-GR
// vocabulary, without external schema metadata.
package schema

import "strings"

// Metric is a canonical metric identity from the CA 237-GR vocabulary.
type Metric string

// Section A: caseload adjustments.
const (
	MetricAdjustment        Metric = "Adjustment"
	MetricCasesBroughtFwd   Metric = "Cases brought forward"
	MetricCasesAdded        Metric = "Cases added"
	MetricTotalCasesAvail   Metric = "Total cases available"
	MetricCasesDiscontinued Metric = "Cases discontinued"
	MetricCasesCarriedFwd   Metric = "Cases carried forward"
)

// Section B: case/person/dollar totals split by family vs one-person.
const (
	MetricFamilyCases      Metric = "Family cases"
	MetricOnePersonCases   Metric = "One-person cases"
	MetricTotalCases       Metric = "Total GR cases"
	MetricFamilyPersons    Metric = "Family persons"
	MetricOnePersonPersons Metric = "One-person persons"
	MetricTotalPersons     Metric = "Total GR persons"
	MetricCashGrants       Metric = "Cash grants amount"
	MetricInKind           Metric = "In-kind amount"
	MetricTotalExpenditure Metric = "Total GR expenditure"
)

// Section C: SSI/SSP interim-assistance processing.
const (
	MetricIAAppsReceived  Metric = "IA applications received"
	MetricIAAppsApproved  Metric = "IA applications approved"
	MetricIAAppsDenied    Metric = "IA applications denied"
	MetricIAAppsWithdrawn Metric = "IA applications withdrawn"
	MetricIACasesPending  Metric = "IA cases pending"
	MetricSSIApprovals    Metric = "SSI/SSP approvals"
)

// Section D: reimbursements.
const (
	MetricReimbClaimsFiled    Metric = "Reimbursement claims filed"
	MetricCurrentMonthReimb   Metric = "Current month reimbursements"
	MetricPriorMonthReimb     Metric = "Prior month reimbursements"
	MetricTotalReimbursements Metric = "Total reimbursements"
)

// Section E: net expenditure.
const (
	MetricRefunds          Metric = "Refunds and cancellations"
	MetricOtherRecoveries  Metric = "Other recoveries"
	MetricGrossExpenditure Metric = "Gross GR expenditure"
	MetricNetExpenditure   Metric = "Net GR expenditure"
)

// vocabulary is the full canonical metric list. Order is significant: it is
// the fallback disambiguator for numbered and unlabeled metric columns.
var vocabulary = []Metric{
	MetricAdjustment,
	MetricCasesBroughtFwd,
	MetricCasesAdded,
	MetricTotalCasesAvail,
	MetricCasesDiscontinued,
	MetricCasesCarriedFwd,

	MetricFamilyCases,
	MetricOnePersonCases,
	MetricTotalCases,
	MetricFamilyPersons,
	MetricOnePersonPersons,
	MetricTotalPersons,
	MetricCashGrants,
	MetricInKind,
	MetricTotalExpenditure,

	MetricIAAppsReceived,
	MetricIAAppsApproved,
	MetricIAAppsDenied,
	MetricIAAppsWithdrawn,
	MetricIACasesPending,
	MetricSSIApprovals,

	MetricReimbClaimsFiled,
	MetricCurrentMonthReimb,
	MetricPriorMonthReimb,
	MetricTotalReimbursements,

	MetricRefunds,
	MetricOtherRecoveries,
	MetricGrossExpenditure,
	MetricNetExpenditure,
}

// dollarMetrics carry dollar amounts and get the wider identity tolerance.
var dollarMetrics = map[Metric]struct{}{
	MetricCashGrants:          {},
	MetricInKind:              {},
	MetricTotalExpenditure:    {},
	MetricCurrentMonthReimb:   {},
	MetricPriorMonthReimb:     {},
	MetricTotalReimbursements: {},
	MetricRefunds:             {},
	MetricOtherRecoveries:     {},
	MetricGrossExpenditure:    {},
	MetricNetExpenditure:      {},
}

// anchorMetrics are the coverage tie-break set for offset resolution: the
// metrics every historical release is known to carry.
var anchorMetrics = []Metric{
	MetricTotalCases,
	MetricTotalExpenditure,
	MetricNetExpenditure,
}

// metricAliases maps normalized historical labels onto canonical identities.
// Releases vary in capitalization, embedded line breaks, and section-letter
// suffixes (e.g. "CASES\nA").
var metricAliases = map[string]Metric{
	"total gr cases":                         MetricTotalCases,
	"cases a":                                MetricTotalCases,
	"one person cases":                       MetricOnePersonCases,
	"total gr expenditure":                   MetricTotalExpenditure,
	"amount c":                               MetricTotalExpenditure,
	"net gr expenditure":                     MetricNetExpenditure,
	"net general relief expenditure":         MetricNetExpenditure,
	"gross general relief expenditure":       MetricGrossExpenditure,
	"cases brought forward from prior month": MetricCasesBroughtFwd,
	"cases carried forward to next month":    MetricCasesCarriedFwd,
}

// Vocabulary returns the canonical metric list in its fixed order.
func Vocabulary() []Metric {
	out := make([]Metric, len(vocabulary))
	copy(out, vocabulary)
	return out
}

// IsDollar reports whether the metric carries a dollar amount.
func IsDollar(m Metric) bool {
	_, ok := dollarMetrics[m]
	return ok
}

// Anchors returns the anchor-metric coverage set.
func Anchors() []Metric {
	out := make([]Metric, len(anchorMetrics))
	copy(out, anchorMetrics)
	return out
}

// LookupMetric matches a raw column label against the canonical vocabulary
// and its historical aliases. Matching is case-insensitive and whitespace
// collapsed; punctuation variance in hyphens is tolerated.
func LookupMetric(label string) (Metric, bool) {
	key := normalizeLabel(label)
	if key == "" {
		return "", false
	}
	for _, m := range vocabulary {
		if key == normalizeLabel(string(m)) {
			return m, true
		}
	}
	if m, ok := metricAliases[key]; ok {
		return m, true
	}
	return "", false
}

// normalizeLabel folds case, collapses whitespace, and drops hyphens so that
// "One-person Cases" and "one person cases" compare equal.
func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "/", " ")
	return strings.Join(strings.Fields(s), " ")
}
