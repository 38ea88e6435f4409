// Package worker contains the background consumers: the report exporter
// fed by generation.completed events.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fluxo/internal/amqp"
	"fluxo/internal/core"
	"fluxo/internal/export"
	"fluxo/internal/services"
)

// CompanyLister provides the tenant list for per-company report rows.
type CompanyLister interface {
	ListCompanies(ctx context.Context) ([]core.Company, error)
}

// ExportWorker turns a completed generation run into one spreadsheet row
// per company, carrying that company's overdue position.
type ExportWorker struct {
	companies CompanyLister
	reports   *services.ReportService
	writer    export.ReportWriter
}

func NewExportWorker(companies CompanyLister, reports *services.ReportService, writer export.ReportWriter) *ExportWorker {
	return &ExportWorker{
		companies: companies,
		reports:   reports,
		writer:    writer,
	}
}

// HandleGenerationCompleted processes one generation.completed event.
// Per-company failures are logged and skipped; the delivery is only
// requeued when the company list itself cannot be read.
func (w *ExportWorker) HandleGenerationCompleted(ctx context.Context, msg *amqp.GenerationCompletedMessage) error {
	slog.InfoContext(ctx, "Exporting run report",
		"run_id", msg.RunID,
		"as_of", msg.AsOf,
		"transactions_created", msg.TransactionsCreated)

	companies, err := w.companies.ListCompanies(ctx)
	if err != nil {
		return fmt.Errorf("list companies: %w", err)
	}

	exported := 0
	for _, company := range companies {
		summary, err := w.reports.OverdueSummary(ctx, company.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to build overdue summary for report",
				"run_id", msg.RunID,
				"company_id", company.ID,
				"error", err)
			continue
		}

		report := buildRunReport(msg, company, summary)

		ref, err := w.writer.AppendRunReport(ctx, report)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to append run report row",
				"run_id", msg.RunID,
				"company_id", company.ID,
				"error", err)
			continue
		}

		exported++
		slog.InfoContext(ctx, "Exported run report row",
			"run_id", msg.RunID,
			"company", company.Name,
			"row_ref", ref)
	}

	slog.InfoContext(ctx, "Run report export complete",
		"run_id", msg.RunID,
		"companies", len(companies),
		"exported", exported)

	return nil
}

func buildRunReport(msg *amqp.GenerationCompletedMessage, company core.Company, summary core.Summary) export.RunReport {
	report := export.RunReport{
		RunID:               msg.RunID,
		RunAt:               msg.Timestamp,
		AsOf:                msg.AsOf,
		CompanyName:         company.Name,
		TransactionsCreated: msg.TransactionsCreated,
		Failures:            msg.Failures,
		OverdueRevenueCents: summary.Revenues.Total.Cents,
		OverdueExpenseCents: summary.Expenses.Total.Cents,
		OverdueCount:        summary.Revenues.Count + summary.Expenses.Count,
	}
	if report.RunAt.IsZero() {
		report.RunAt = time.Now()
	}

	oldest := summary.Revenues.OldestDueDate
	if oldest.IsZero() || (!summary.Expenses.OldestDueDate.IsZero() && summary.Expenses.OldestDueDate.Before(oldest)) {
		oldest = summary.Expenses.OldestDueDate
	}
	if !oldest.IsZero() {
		report.OldestDueDate = oldest.String()
	}

	return report
}
