package core

// Severity is the three-tier urgency of an overdue transaction, used for
// dashboard styling and sort priority. The thresholds are shared by every
// view so counts always agree across screens.
type Severity string

const (
	SeverityWarning  Severity = "warning"  // up to 7 days overdue
	SeverityDanger   Severity = "danger"   // 8 to 30 days overdue
	SeverityCritical Severity = "critical" // more than 30 days overdue
)

// ClassifySeverity maps whole days overdue to a Severity. Callers must only
// classify transactions that are actually overdue; non-overdue rows carry no
// severity.
func ClassifySeverity(daysOverdue int) Severity {
	switch {
	case daysOverdue <= 7:
		return SeverityWarning
	case daysOverdue <= 30:
		return SeverityDanger
	default:
		return SeverityCritical
	}
}
