package pipeline

import "fmt"

// Reason classifies why a file was excluded from the combined dataset. No
// reason is fatal to a run; the Combiner proceeds with whatever succeeded.
type Reason string

const (
	ReasonFileUnavailable  Reason = "FileUnavailable"
	ReasonMalformedTable   Reason = "MalformedTable"
	ReasonHeaderNotFound   Reason = "HeaderNotFound"
	ReasonNoUsableDates    Reason = "NoUsableDates"
	ReasonNoMetricColumns  Reason = "NoMetricColumnsRecognized"
	ReasonAllMetricsAbsent Reason = "AllMetricsAbsentAfterCoercion"
)

// Exclusion is a per-file terminal failure, carrying enough diagnostic
// detail to reconstruct why without re-running.
type Exclusion struct {
	File   string
	Reason Reason
	Detail string
}

func (e *Exclusion) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: excluded (%s)", e.File, e.Reason)
	}
	return fmt.Sprintf("%s: excluded (%s): %s", e.File, e.Reason, e.Detail)
}

func exclude(file string, reason Reason, format string, args ...any) *Exclusion {
	return &Exclusion{File: file, Reason: reason, Detail: fmt.Sprintf(format, args...)}
}
