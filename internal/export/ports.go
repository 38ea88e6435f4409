// Package export defines the outbound ports for publishing run reports to
// an external spreadsheet.
package export

import (
	"context"
	"time"
)

// RunReport is one row of the management report: the outcome of a
// generation run plus the overdue position of a single company right after
// that run.
type RunReport struct {
	RunID               string
	RunAt               time.Time
	AsOf                string
	CompanyName         string
	TransactionsCreated int
	Failures            int
	OverdueRevenueCents int64
	OverdueExpenseCents int64
	OverdueCount        int
	OldestDueDate       string
}

// ReportWriter appends a report row and returns an adapter-specific row
// reference.
type ReportWriter interface {
	AppendRunReport(ctx context.Context, r RunReport) (rowRef string, err error)
}
