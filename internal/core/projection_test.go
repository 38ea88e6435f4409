package core

import (
	"testing"
	"time"
)

func TestProjectBalance(t *testing.T) {
	acct := BankAccount{ID: 10, Type: AccountChecking, Balance: Money{Cents: 100000}}
	due := NewDate(2026, time.July, 1)

	// settled 1000.00 + pending revenue 200.00 − pending expense 50.00
	txs := []Transaction{
		{ID: 1, Flow: Revenue, Amount: Money{Cents: 20000}, DueDate: due, Status: StatusPending, AccountID: 10},
		{ID: 2, Flow: Expense, Amount: Money{Cents: 5000}, DueDate: due, Status: StatusPending, AccountID: 10},
	}

	p := ProjectBalance(acct, txs)

	if !p.HasProjection {
		t.Fatal("expected a projection")
	}
	if p.Settled.Cents != 100000 {
		t.Errorf("Settled = %d, want 100000", p.Settled.Cents)
	}
	if p.Projected.Cents != 115000 {
		t.Errorf("Projected = %d, want 115000", p.Projected.Cents)
	}
}

func TestProjectBalance_TransferLegs(t *testing.T) {
	due := NewDate(2026, time.July, 1)
	transfer := Transaction{
		ID:               1,
		Flow:             Transfer,
		Amount:           Money{Cents: 30000},
		DueDate:          due,
		Status:           StatusPending,
		AccountID:        10, // source
		CounterAccountID: 20, // destination
	}

	source := BankAccount{ID: 10, Type: AccountChecking, Balance: Money{Cents: 50000}}
	dest := BankAccount{ID: 20, Type: AccountSavings, Balance: Money{Cents: 10000}}

	ps := ProjectBalance(source, []Transaction{transfer})
	if ps.Projected.Cents != 20000 {
		t.Errorf("source projected = %d, want 20000", ps.Projected.Cents)
	}

	pd := ProjectBalance(dest, []Transaction{transfer})
	if pd.Projected.Cents != 40000 {
		t.Errorf("destination projected = %d, want 40000", pd.Projected.Cents)
	}
}

func TestProjectBalance_NoPendingRows(t *testing.T) {
	acct := BankAccount{ID: 10, Type: AccountChecking, Balance: Money{Cents: 7500}}

	paid := Transaction{
		ID: 1, Flow: Expense, Amount: Money{Cents: 100},
		DueDate: NewDate(2026, time.June, 1), Status: StatusPaid, AccountID: 10,
	}

	p := ProjectBalance(acct, []Transaction{paid})

	if p.HasProjection {
		t.Error("paid rows should not produce a projection")
	}
	if p.Settled.Cents != 7500 {
		t.Errorf("Settled = %d, want 7500", p.Settled.Cents)
	}
}

func TestProjectBalance_CreditCardNeverProjected(t *testing.T) {
	card := BankAccount{ID: 30, Type: AccountCreditCard, CreditLimit: Money{Cents: 500000}}
	txs := []Transaction{
		{ID: 1, Flow: Expense, Amount: Money{Cents: 10000}, DueDate: NewDate(2026, time.July, 1), Status: StatusPending, AccountID: 30},
	}

	p := ProjectBalance(card, txs)

	if p.HasProjection {
		t.Error("credit card accounts should never be projected")
	}
}

func TestProjectBalance_SkipsMalformedAndCancelled(t *testing.T) {
	acct := BankAccount{ID: 10, Type: AccountChecking, Balance: Money{Cents: 10000}}
	due := NewDate(2026, time.July, 1)
	txs := []Transaction{
		{ID: 1, Flow: Revenue, Amount: Money{Cents: 5000}, DueDate: due, Status: StatusPending, AccountID: 10},
		{ID: 2, Flow: Revenue, Amount: Money{Cents: -100}, DueDate: due, Status: StatusPending, AccountID: 10},
		{ID: 3, Flow: Expense, Amount: Money{Cents: 2000}, DueDate: due, Status: StatusCancelled, AccountID: 10},
	}

	p := ProjectBalance(acct, txs)

	if p.Projected.Cents != 15000 {
		t.Errorf("Projected = %d, want 15000", p.Projected.Cents)
	}
}
