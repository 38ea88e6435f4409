package core

import (
	"errors"
	"fmt"
	"strings"
)

const (
	Revenue  Flow = "revenue"
	Expense  Flow = "expense"
	Transfer Flow = "transfer"
)

const (
	Daily      Frequency = "daily"
	Weekly     Frequency = "weekly"
	Monthly    Frequency = "monthly"
	Quarterly  Frequency = "quarterly"
	Semiannual Frequency = "semiannual"
	Yearly     Frequency = "yearly"
)

const (
	StatusPending   TransactionStatus = "pending"
	StatusPaid      TransactionStatus = "paid"
	StatusOverdue   TransactionStatus = "overdue"
	StatusCancelled TransactionStatus = "cancelled"
)

const (
	AccountChecking   AccountType = "checking"
	AccountSavings    AccountType = "savings"
	AccountInvestment AccountType = "investment"
	AccountCreditCard AccountType = "credit_card"
)

type (
	Flow              string
	Frequency         string
	TransactionStatus string
	AccountType       string

	// Company is the tenant boundary. Every rule, transaction and account
	// belongs to exactly one company, and company scope is always passed
	// explicitly, never pulled from ambient state.
	Company struct {
		ID   int64
		Name string
	}

	// RecurrenceRule is a contract: a template the generation job expands
	// into dated transactions. End date and installment cap are both
	// optional; when both are set, whichever is reached first stops the
	// series.
	RecurrenceRule struct {
		ID                int64
		CompanyID         int64
		Name              string
		Flow              Flow
		Amount            Money
		Frequency         Frequency
		StartDate         Date
		EndDate           Date // zero when open-ended
		TotalInstallments int  // 0 when uncapped
		AutoGenerate      bool
		Active            bool
		CategoryID        int64 // 0 when unset
		AccountID         int64 // 0 when unset
	}

	// Transaction is a materialized occurrence or a standalone entry.
	// ContractID together with DueDate is the idempotency key for
	// generated rows; it is 0 for entries created directly by a user.
	Transaction struct {
		ID               int64
		CompanyID        int64
		Flow             Flow
		Amount           Money
		Description      string
		DueDate          Date
		PaymentDate      Date // zero until paid
		Status           TransactionStatus
		ContractID       int64
		AccountID        int64
		CounterAccountID int64 // destination account, transfers only
		CategoryID       int64
	}

	// BankAccount carries the settled balance. The aggregation logic never
	// writes it; only reconciliation does.
	BankAccount struct {
		ID          int64
		CompanyID   int64
		Name        string
		Type        AccountType
		Balance     Money // settled balance, meaningless for credit cards
		CreditLimit Money // credit cards only
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrInvalidFlow      = errors.New("invalid flow")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrInvalidDate      = errors.New("invalid date")
	ErrStartAfterEnd    = errors.New("start date after end date")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyDescription = errors.New("empty description")
)

// ValidFrequency reports whether f is one of the supported frequencies.
func ValidFrequency(f Frequency) bool {
	switch f {
	case Daily, Weekly, Monthly, Quarterly, Semiannual, Yearly:
		return true
	}
	return false
}

// Validate checks a rule before expansion. A failing rule is a
// configuration error: the generation job skips it and moves on.
func (r RecurrenceRule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrEmptyName
	}
	if r.Flow != Revenue && r.Flow != Expense {
		return fmt.Errorf("%w: %q", ErrInvalidFlow, r.Flow)
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if !ValidFrequency(r.Frequency) {
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, r.Frequency)
	}
	if !r.StartDate.Valid() {
		return fmt.Errorf("%w: start %s", ErrInvalidDate, r.StartDate)
	}
	if !r.EndDate.IsZero() {
		if !r.EndDate.Valid() {
			return fmt.Errorf("%w: end %s", ErrInvalidDate, r.EndDate)
		}
		if r.StartDate.After(r.EndDate) {
			return ErrStartAfterEnd
		}
	}
	if r.TotalInstallments < 0 {
		return fmt.Errorf("negative installment cap: %d", r.TotalInstallments)
	}
	return nil
}

func (t Transaction) Validate() error {
	switch t.Flow {
	case Revenue, Expense, Transfer:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFlow, t.Flow)
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if !t.DueDate.Valid() {
		return fmt.Errorf("%w: due %s", ErrInvalidDate, t.DueDate)
	}
	switch t.Status {
	case StatusPending, StatusPaid, StatusOverdue, StatusCancelled:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, t.Status)
	}
	return nil
}

// Unrealized reports whether the transaction still counts toward projected
// balances: pending and overdue rows do, paid and cancelled rows do not.
func (t Transaction) Unrealized() bool {
	return t.Status == StatusPending || t.Status == StatusOverdue
}
