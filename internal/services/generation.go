package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"fluxo/internal/amqp"
	"fluxo/internal/core"
	"fluxo/internal/schedule"
	"fluxo/internal/storage"
)

// GenerationResult summarizes one expansion run.
type GenerationResult struct {
	RunID               string
	AsOf                core.Date
	RulesProcessed      int
	TransactionsCreated int
	RulesSkipped        int
	Failures            int
	StartedAt           time.Time
	Duration            time.Duration
}

// GenerationProcessor expands active contracts into pending transactions.
// Runs are idempotent: re-running with the same asOf inserts nothing new.
type GenerationProcessor struct {
	rules       RuleStore
	txs         TransactionStore
	runs        RunStore
	publisher   EventPublisher
	parallelism int
}

func NewGenerationProcessor(rules RuleStore, txs TransactionStore, runs RunStore, publisher EventPublisher, parallelism int) *GenerationProcessor {
	if parallelism < 1 {
		parallelism = 1
	}
	return &GenerationProcessor{
		rules:       rules,
		txs:         txs,
		runs:        runs,
		publisher:   publisher,
		parallelism: parallelism,
	}
}

// Run expands every company's active contracts up to asOf.
func (p *GenerationProcessor) Run(ctx context.Context, asOf core.Date) (GenerationResult, error) {
	rules, err := p.rules.ListAllActiveRules(ctx)
	if err != nil {
		return GenerationResult{}, fmt.Errorf("list active contracts: %w", err)
	}
	return p.run(ctx, rules, asOf)
}

// RunForCompany expands one company's active contracts up to asOf.
func (p *GenerationProcessor) RunForCompany(ctx context.Context, companyID int64, asOf core.Date) (GenerationResult, error) {
	rules, err := p.rules.ListActiveRules(ctx, companyID)
	if err != nil {
		return GenerationResult{}, fmt.Errorf("list active contracts for company %d: %w", companyID, err)
	}
	return p.run(ctx, rules, asOf)
}

func (p *GenerationProcessor) run(ctx context.Context, rules []core.RecurrenceRule, asOf core.Date) (GenerationResult, error) {
	result := GenerationResult{
		RunID:     uuid.NewString(),
		AsOf:      asOf,
		StartedAt: time.Now(),
	}

	slog.InfoContext(ctx, "Starting generation run",
		"run_id", result.RunID,
		"as_of", asOf.String(),
		"contracts", len(rules),
		"parallelism", p.parallelism)

	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.parallelism)

	for _, rule := range rules {
		g.Go(func() error {
			created, skipped, failures := p.processRule(gctx, rule, asOf)
			mu.Lock()
			result.RulesProcessed++
			result.TransactionsCreated += created
			result.RulesSkipped += skipped
			result.Failures += failures
			mu.Unlock()
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return result, fmt.Errorf("generation run interrupted: %w", err)
	}

	result.Duration = time.Since(result.StartedAt)

	if p.runs != nil {
		if err := p.runs.RecordGenerationRun(ctx, result.RunID, asOf,
			result.RulesProcessed, result.TransactionsCreated,
			result.RulesSkipped, result.Failures,
			result.StartedAt, result.Duration); err != nil {
			slog.ErrorContext(ctx, "Failed to record generation run",
				"run_id", result.RunID, "error", err)
		}
	}

	if p.publisher != nil {
		msg := amqp.NewGenerationCompletedMessage(result.RunID, asOf.String(),
			result.RulesProcessed, result.TransactionsCreated,
			result.RulesSkipped, result.Failures)
		if err := p.publisher.PublishGenerationCompleted(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "Failed to publish generation completed event",
				"run_id", result.RunID, "error", err)
		}
	}

	slog.InfoContext(ctx, "Generation run complete",
		"run_id", result.RunID,
		"contracts_processed", result.RulesProcessed,
		"transactions_created", result.TransactionsCreated,
		"contracts_skipped", result.RulesSkipped,
		"failures", result.Failures,
		"duration", result.Duration)

	return result, nil
}

// processRule expands one contract. Misconfigured contracts are skipped,
// persistence failures are counted, and neither aborts the batch.
func (p *GenerationProcessor) processRule(ctx context.Context, rule core.RecurrenceRule, asOf core.Date) (created, skipped, failures int) {
	if err := rule.Validate(); err != nil {
		slog.ErrorContext(ctx, "Skipping misconfigured contract",
			"contract_id", rule.ID,
			"name", rule.Name,
			"error", err)
		return 0, 1, 0
	}

	if rule.TotalInstallments > 0 {
		count, err := p.txs.CountForRule(ctx, rule.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to count contract transactions",
				"contract_id", rule.ID, "error", err)
			return 0, 0, 1
		}
		if count >= rule.TotalInstallments {
			return 0, 0, 0
		}
	}

	dates, err := schedule.Occurrences(rule, asOf)
	if err != nil {
		slog.ErrorContext(ctx, "Skipping contract with unsupported schedule",
			"contract_id", rule.ID,
			"frequency", string(rule.Frequency),
			"error", err)
		return 0, 1, 0
	}

	for _, due := range dates {
		exists, err := p.txs.ExistsForOccurrence(ctx, rule.ID, due)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to check occurrence",
				"contract_id", rule.ID,
				"due_date", due.String(),
				"error", err)
			failures++
			continue
		}
		if exists {
			continue
		}

		tx := core.Transaction{
			CompanyID:   rule.CompanyID,
			Flow:        rule.Flow,
			Amount:      rule.Amount,
			Description: rule.Name,
			DueDate:     due,
			Status:      core.StatusPending,
			ContractID:  rule.ID,
			AccountID:   rule.AccountID,
			CategoryID:  rule.CategoryID,
		}

		if _, err := p.txs.InsertTransaction(ctx, tx); err != nil {
			if errors.Is(err, storage.ErrDuplicateOccurrence) {
				// Another run won the race for this occurrence.
				continue
			}
			slog.ErrorContext(ctx, "Failed to insert occurrence",
				"contract_id", rule.ID,
				"due_date", due.String(),
				"error", err)
			failures++
			continue
		}
		created++
	}

	if created > 0 {
		slog.InfoContext(ctx, "Expanded contract",
			"contract_id", rule.ID,
			"name", rule.Name,
			"created", created)
	}

	return created, skipped, failures
}
