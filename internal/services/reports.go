package services

import (
	"context"
	"fmt"
	"time"

	"fluxo/internal/core"
)

// ReportService serves the read-only views: overdue and pending summaries,
// projected balances and monthly cashflow. All date arithmetic uses the
// configured business timezone.
type ReportService struct {
	txs      TransactionStore
	accounts AccountStore
	loc      *time.Location
}

func NewReportService(txs TransactionStore, accounts AccountStore, loc *time.Location) *ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportService{txs: txs, accounts: accounts, loc: loc}
}

// OverdueSummary aggregates a company's overdue transactions by flow.
func (s *ReportService) OverdueSummary(ctx context.Context, companyID int64) (core.Summary, error) {
	txs, err := s.txs.ListTransactionsByStatus(ctx, companyID,
		[]core.TransactionStatus{core.StatusOverdue}, core.Date{}, core.Date{})
	if err != nil {
		return core.Summary{}, fmt.Errorf("list overdue transactions: %w", err)
	}
	return core.AggregateOverdue(txs, core.Today(s.loc)), nil
}

// PendingSummary aggregates a company's unrealized (pending plus overdue)
// transactions by flow.
func (s *ReportService) PendingSummary(ctx context.Context, companyID int64) (core.Summary, error) {
	txs, err := s.txs.ListTransactionsByStatus(ctx, companyID,
		[]core.TransactionStatus{core.StatusPending, core.StatusOverdue}, core.Date{}, core.Date{})
	if err != nil {
		return core.Summary{}, fmt.Errorf("list pending transactions: %w", err)
	}
	return core.AggregatePending(txs, core.Today(s.loc)), nil
}

// ProjectedBalance returns an account together with its balance projection
// over unrealized transactions.
func (s *ReportService) ProjectedBalance(ctx context.Context, accountID int64) (core.BankAccount, core.Projection, error) {
	acct, err := s.accounts.GetAccount(ctx, accountID)
	if err != nil {
		return core.BankAccount{}, core.Projection{}, fmt.Errorf("get account: %w", err)
	}

	txs, err := s.txs.ListPendingForAccount(ctx, accountID)
	if err != nil {
		return core.BankAccount{}, core.Projection{}, fmt.Errorf("list pending for account: %w", err)
	}

	return acct, core.ProjectBalance(acct, txs), nil
}

// MonthCashflow returns a company's revenue and expense totals for one
// calendar month.
func (s *ReportService) MonthCashflow(ctx context.Context, companyID int64, year int, month time.Month) (core.MonthCashflow, error) {
	revenue, expense, err := s.txs.MonthTotals(ctx, companyID, year, month)
	if err != nil {
		return core.MonthCashflow{}, fmt.Errorf("month totals: %w", err)
	}
	return core.MonthCashflow{
		Year:    year,
		Month:   month,
		Revenue: core.Money{Cents: revenue},
		Expense: core.Money{Cents: expense},
	}, nil
}
