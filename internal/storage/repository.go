// Package storage is the SQLite persistence layer. It is the only shared
// mutable resource in the system; the generation job's idempotency rests on
// the partial unique index over (contract_id, due_date) declared in the
// migrations.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fluxo/internal/core"

	_ "modernc.org/sqlite"
)

// ErrDuplicateOccurrence is returned by InsertTransaction when another
// writer materialized the same (contract, due date) pair first. Callers
// treat it as a benign skip.
var ErrDuplicateOccurrence = errors.New("occurrence already materialized")

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// --- companies ---

func (r *SQLiteRepository) CreateCompany(ctx context.Context, name string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO companies (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("create company: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) ListCompanies(ctx context.Context) ([]core.Company, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM companies ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var out []core.Company
	for rows.Next() {
		var c core.Company
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// --- bank accounts ---

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.BankAccount) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO bank_accounts (company_id, name, type, balance_cents, credit_limit_cents)
		VALUES (?, ?, ?, ?, ?)`,
		a.CompanyID, a.Name, string(a.Type), a.Balance.Cents, a.CreditLimit.Cents)
	if err != nil {
		return 0, fmt.Errorf("create account: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, accountID int64) (core.BankAccount, error) {
	var (
		a   core.BankAccount
		typ string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, company_id, name, type, balance_cents, credit_limit_cents
		FROM bank_accounts WHERE id = ?`, accountID).
		Scan(&a.ID, &a.CompanyID, &a.Name, &typ, &a.Balance.Cents, &a.CreditLimit.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.BankAccount{}, fmt.Errorf("account %d: %w", accountID, ErrNotFound)
	}
	if err != nil {
		return core.BankAccount{}, fmt.Errorf("get account: %w", err)
	}
	a.Type = core.AccountType(typ)
	return a, nil
}

// --- contracts (recurrence rules) ---

func (r *SQLiteRepository) CreateRule(ctx context.Context, rule core.RecurrenceRule) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO contracts
			(company_id, name, flow, amount_cents, frequency, start_date, end_date,
			 total_installments, auto_generate, active, category_id, account_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.CompanyID, rule.Name, string(rule.Flow), rule.Amount.Cents,
		string(rule.Frequency), rule.StartDate.String(),
		nullDate(rule.EndDate), nullInt(int64(rule.TotalInstallments)),
		boolInt(rule.AutoGenerate), boolInt(rule.Active),
		nullInt(rule.CategoryID), nullInt(rule.AccountID))
	if err != nil {
		return 0, fmt.Errorf("create contract: %w", err)
	}
	return res.LastInsertId()
}

const ruleColumns = `id, company_id, name, flow, amount_cents, frequency, start_date,
	end_date, total_installments, auto_generate, active, category_id, account_id`

// ListActiveRules returns the active, auto-generating contracts for one
// company, the set the expansion job iterates.
func (r *SQLiteRepository) ListActiveRules(ctx context.Context, companyID int64) ([]core.RecurrenceRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+ruleColumns+` FROM contracts
		WHERE company_id = ? AND active = 1 AND auto_generate = 1
		ORDER BY id`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list active contracts: %w", err)
	}
	defer rows.Close()
	return scanRules(rows)
}

// ListAllActiveRules is the cross-tenant variant used by the periodic
// worker, which expands every company in one pass.
func (r *SQLiteRepository) ListAllActiveRules(ctx context.Context) ([]core.RecurrenceRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+ruleColumns+` FROM contracts
		WHERE active = 1 AND auto_generate = 1
		ORDER BY company_id, id`)
	if err != nil {
		return nil, fmt.Errorf("list all active contracts: %w", err)
	}
	defer rows.Close()
	return scanRules(rows)
}

func scanRules(rows *sql.Rows) ([]core.RecurrenceRule, error) {
	var out []core.RecurrenceRule
	for rows.Next() {
		var (
			rule                    core.RecurrenceRule
			flow, frequency, start  string
			end                     sql.NullString
			installments            sql.NullInt64
			autoGen, active         int64
			categoryID, accountID   sql.NullInt64
		)
		if err := rows.Scan(&rule.ID, &rule.CompanyID, &rule.Name, &flow,
			&rule.Amount.Cents, &frequency, &start, &end, &installments,
			&autoGen, &active, &categoryID, &accountID); err != nil {
			return nil, fmt.Errorf("scan contract: %w", err)
		}
		rule.Flow = core.Flow(flow)
		rule.Frequency = core.Frequency(frequency)
		var err error
		if rule.StartDate, err = core.ParseDate(start); err != nil {
			return nil, fmt.Errorf("contract %d: %w", rule.ID, err)
		}
		if end.Valid && end.String != "" {
			if rule.EndDate, err = core.ParseDate(end.String); err != nil {
				return nil, fmt.Errorf("contract %d: %w", rule.ID, err)
			}
		}
		if installments.Valid {
			rule.TotalInstallments = int(installments.Int64)
		}
		rule.AutoGenerate = autoGen != 0
		rule.Active = active != 0
		rule.CategoryID = categoryID.Int64
		rule.AccountID = accountID.Int64
		out = append(out, rule)
	}
	return out, rows.Err()
}

// --- transactions ---

// ExistsForOccurrence reports whether a non-cancelled transaction already
// exists for the (contract, due date) pair.
func (r *SQLiteRepository) ExistsForOccurrence(ctx context.Context, ruleID int64, due core.Date) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM transactions
		WHERE contract_id = ? AND due_date = ? AND status != 'cancelled'`,
		ruleID, due.String()).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check occurrence: %w", err)
	}
	return n > 0, nil
}

// CountForRule returns the number of non-cancelled transactions
// materialized for a contract, the figure installment caps count against.
func (r *SQLiteRepository) CountForRule(ctx context.Context, ruleID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM transactions
		WHERE contract_id = ? AND status != 'cancelled'`, ruleID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count contract transactions: %w", err)
	}
	return n, nil
}

// InsertTransaction persists a transaction. A unique-index violation on the
// occurrence key is translated to ErrDuplicateOccurrence so a racing
// generation run can treat it as a skip.
func (r *SQLiteRepository) InsertTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions
			(company_id, flow, amount_cents, description, due_date, payment_date,
			 status, contract_id, account_id, counter_account_id, category_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.CompanyID, string(t.Flow), t.Amount.Cents, t.Description,
		t.DueDate.String(), nullDate(t.PaymentDate), string(t.Status),
		nullInt(t.ContractID), nullInt(t.AccountID),
		nullInt(t.CounterAccountID), nullInt(t.CategoryID))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, fmt.Errorf("contract %d due %s: %w", t.ContractID, t.DueDate, ErrDuplicateOccurrence)
		}
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	return res.LastInsertId()
}

const txColumns = `id, company_id, flow, amount_cents, description, due_date,
	payment_date, status, contract_id, account_id, counter_account_id, category_id`

// ListTransactionsByStatus returns a company's transactions in any of the
// given statuses, ordered by due date ascending (oldest first). Zero from/to
// dates leave that bound open.
func (r *SQLiteRepository) ListTransactionsByStatus(ctx context.Context, companyID int64, statuses []core.TransactionStatus, from, to core.Date) ([]core.Transaction, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(statuses))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(statuses)+3)
	args = append(args, companyID)
	for _, s := range statuses {
		args = append(args, string(s))
	}

	query := `
		SELECT ` + txColumns + ` FROM transactions
		WHERE company_id = ? AND status IN (` + placeholders + `)`
	if !from.IsZero() {
		query += ` AND due_date >= ?`
		args = append(args, from.String())
	}
	if !to.IsZero() {
		query += ` AND due_date <= ?`
		args = append(args, to.String())
	}
	query += ` ORDER BY due_date, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions by status: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// ListPendingForAccount returns the unrealized (pending or overdue)
// transactions touching an account on either leg.
func (r *SQLiteRepository) ListPendingForAccount(ctx context.Context, accountID int64) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+txColumns+` FROM transactions
		WHERE (account_id = ? OR counter_account_id = ?)
		  AND status IN ('pending', 'overdue')
		ORDER BY due_date, id`, accountID, accountID)
	if err != nil {
		return nil, fmt.Errorf("list pending for account: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var out []core.Transaction
	for rows.Next() {
		var (
			t                       core.Transaction
			flow, due, status       string
			payment                 sql.NullString
			contractID, accountID   sql.NullInt64
			counterID, categoryID   sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &t.CompanyID, &flow, &t.Amount.Cents,
			&t.Description, &due, &payment, &status, &contractID,
			&accountID, &counterID, &categoryID); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Flow = core.Flow(flow)
		t.Status = core.TransactionStatus(status)
		var err error
		if t.DueDate, err = core.ParseDate(due); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", t.ID, err)
		}
		if payment.Valid && payment.String != "" {
			if t.PaymentDate, err = core.ParseDate(payment.String); err != nil {
				return nil, fmt.Errorf("transaction %d: %w", t.ID, err)
			}
		}
		t.ContractID = contractID.Int64
		t.AccountID = accountID.Int64
		t.CounterAccountID = counterID.Int64
		t.CategoryID = categoryID.Int64
		out = append(out, t)
	}
	return out, rows.Err()
}

// MonthTotals sums a company's non-cancelled revenue and expense for one
// calendar month.
func (r *SQLiteRepository) MonthTotals(ctx context.Context, companyID int64, year int, month time.Month) (revenueCents, expenseCents int64, err error) {
	from := core.NewDate(year, month, 1)
	to := core.NewDate(year, month, core.DaysInMonth(year, month))
	err = r.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN flow = 'revenue' THEN amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN flow = 'expense' THEN amount_cents ELSE 0 END), 0)
		FROM transactions
		WHERE company_id = ? AND status != 'cancelled'
		  AND due_date >= ? AND due_date <= ?`,
		companyID, from.String(), to.String()).Scan(&revenueCents, &expenseCents)
	if err != nil {
		return 0, 0, fmt.Errorf("month totals: %w", err)
	}
	return revenueCents, expenseCents, nil
}

// --- generation runs ---

// RecordGenerationRun stores the outcome of one expansion batch for the
// "Generate Now" feedback and the report export.
func (r *SQLiteRepository) RecordGenerationRun(ctx context.Context, runID string, asOf core.Date, rulesProcessed, created, skipped, failures int, startedAt time.Time, duration time.Duration) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO generation_runs
			(id, as_of, rules_processed, transactions_created, rules_skipped, failures, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, asOf.String(), rulesProcessed, created, skipped, failures,
		startedAt.UTC(), duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("record generation run: %w", err)
	}
	return nil
}

func nullDate(d core.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}

func nullInt(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
