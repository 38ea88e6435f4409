// Package services orchestrates generation runs and report reads over the
// storage layer.
package services

import (
	"context"
	"time"

	"fluxo/internal/amqp"
	"fluxo/internal/core"
)

// Storage ports. The SQLite repository satisfies all of them; tests use
// in-memory fakes.
type (
	RuleStore interface {
		ListActiveRules(ctx context.Context, companyID int64) ([]core.RecurrenceRule, error)
		ListAllActiveRules(ctx context.Context) ([]core.RecurrenceRule, error)
	}

	TransactionStore interface {
		ExistsForOccurrence(ctx context.Context, ruleID int64, due core.Date) (bool, error)
		CountForRule(ctx context.Context, ruleID int64) (int, error)
		InsertTransaction(ctx context.Context, t core.Transaction) (int64, error)
		ListTransactionsByStatus(ctx context.Context, companyID int64, statuses []core.TransactionStatus, from, to core.Date) ([]core.Transaction, error)
		ListPendingForAccount(ctx context.Context, accountID int64) ([]core.Transaction, error)
		MonthTotals(ctx context.Context, companyID int64, year int, month time.Month) (revenueCents, expenseCents int64, err error)
	}

	AccountStore interface {
		GetAccount(ctx context.Context, accountID int64) (core.BankAccount, error)
	}

	RunStore interface {
		RecordGenerationRun(ctx context.Context, runID string, asOf core.Date, rulesProcessed, created, skipped, failures int, startedAt time.Time, duration time.Duration) error
	}
)

// EventPublisher announces completed generation runs. A nil publisher
// disables events.
type EventPublisher interface {
	PublishGenerationCompleted(ctx context.Context, msg *amqp.GenerationCompletedMessage) error
}
