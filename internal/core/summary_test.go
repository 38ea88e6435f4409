package core

import (
	"testing"
	"time"
)

func overdueTx(id int64, flow Flow, cents int64, due Date) Transaction {
	return Transaction{
		ID:          id,
		CompanyID:   1,
		Flow:        flow,
		Amount:      Money{Cents: cents},
		Description: "tx",
		DueDate:     due,
		Status:      StatusOverdue,
	}
}

func TestAggregateOverdue(t *testing.T) {
	today := NewDate(2026, time.May, 11)

	// 100.00 overdue 10 days and 50.00 overdue 40 days.
	txs := []Transaction{
		overdueTx(1, Expense, 10000, NewDate(2026, time.May, 1)),
		overdueTx(2, Expense, 5000, NewDate(2026, time.April, 1)),
	}

	s := AggregateOverdue(txs, today)

	if s.Expenses.Total.Cents != 15000 {
		t.Errorf("Total = %d, want 15000", s.Expenses.Total.Cents)
	}
	if s.Expenses.Count != 2 {
		t.Errorf("Count = %d, want 2", s.Expenses.Count)
	}
	if s.Expenses.AverageDaysOverdue != 25 {
		t.Errorf("AverageDaysOverdue = %d, want 25", s.Expenses.AverageDaysOverdue)
	}
	if want := NewDate(2026, time.April, 1); !s.Expenses.OldestDueDate.Equal(want) {
		t.Errorf("OldestDueDate = %v, want %v", s.Expenses.OldestDueDate, want)
	}
	if s.Revenues.Count != 0 {
		t.Errorf("Revenues.Count = %d, want 0", s.Revenues.Count)
	}
}

func TestAggregateOverdue_SortsOldestFirst(t *testing.T) {
	today := NewDate(2026, time.June, 1)
	txs := []Transaction{
		overdueTx(1, Revenue, 100, NewDate(2026, time.May, 20)),
		overdueTx(2, Revenue, 100, NewDate(2026, time.May, 5)),
		overdueTx(3, Revenue, 100, NewDate(2026, time.May, 12)),
	}

	s := AggregateOverdue(txs, today)

	if len(s.Revenues.Transactions) != 3 {
		t.Fatalf("got %d transactions, want 3", len(s.Revenues.Transactions))
	}
	wantOrder := []int64{2, 3, 1}
	for i, id := range wantOrder {
		if s.Revenues.Transactions[i].ID != id {
			t.Errorf("position %d: got id %d, want %d", i, s.Revenues.Transactions[i].ID, id)
		}
	}
}

func TestAggregateOverdue_IgnoresNonOverdueAndTransfers(t *testing.T) {
	today := NewDate(2026, time.June, 1)
	txs := []Transaction{
		overdueTx(1, Expense, 1000, NewDate(2026, time.May, 1)),
		{ID: 2, Flow: Expense, Amount: Money{Cents: 500}, DueDate: NewDate(2026, time.May, 1), Status: StatusPending},
		{ID: 3, Flow: Expense, Amount: Money{Cents: 500}, DueDate: NewDate(2026, time.May, 1), Status: StatusPaid},
		{ID: 4, Flow: Transfer, Amount: Money{Cents: 500}, DueDate: NewDate(2026, time.May, 1), Status: StatusOverdue},
	}

	s := AggregateOverdue(txs, today)

	if s.Expenses.Count != 1 || s.Expenses.Total.Cents != 1000 {
		t.Errorf("got count=%d total=%d, want count=1 total=1000", s.Expenses.Count, s.Expenses.Total.Cents)
	}
}

func TestAggregateOverdue_FlagsMalformedRows(t *testing.T) {
	today := NewDate(2026, time.June, 1)
	txs := []Transaction{
		overdueTx(1, Expense, 1000, NewDate(2026, time.May, 1)),
		overdueTx(2, Expense, 0, NewDate(2026, time.May, 1)),  // non-positive amount
		overdueTx(3, Expense, -50, NewDate(2026, time.May, 1)), // negative amount
		overdueTx(4, Expense, 500, Date{}),                     // zero due date
	}

	s := AggregateOverdue(txs, today)

	if s.Expenses.Count != 1 {
		t.Errorf("Count = %d, want 1", s.Expenses.Count)
	}
	if s.Expenses.Total.Cents != 1000 {
		t.Errorf("Total = %d, want 1000 (malformed rows excluded from sums)", s.Expenses.Total.Cents)
	}
	if s.Expenses.Flagged != 3 {
		t.Errorf("Flagged = %d, want 3", s.Expenses.Flagged)
	}
}

func TestAggregatePending_MixedStatuses(t *testing.T) {
	today := NewDate(2026, time.June, 1)
	txs := []Transaction{
		overdueTx(1, Revenue, 2000, NewDate(2026, time.May, 22)), // 10 days overdue
		{ID: 2, Flow: Revenue, Amount: Money{Cents: 3000}, DueDate: NewDate(2026, time.June, 15), Status: StatusPending},
	}

	s := AggregatePending(txs, today)

	if s.Revenues.Count != 2 {
		t.Fatalf("Count = %d, want 2", s.Revenues.Count)
	}
	if s.Revenues.Total.Cents != 5000 {
		t.Errorf("Total = %d, want 5000", s.Revenues.Total.Cents)
	}
	// Pending rows contribute zero days overdue: mean of (10, 0) rounds to 5.
	if s.Revenues.AverageDaysOverdue != 5 {
		t.Errorf("AverageDaysOverdue = %d, want 5", s.Revenues.AverageDaysOverdue)
	}
}

func TestDaysOverdue(t *testing.T) {
	today := NewDate(2026, time.May, 11)

	tests := []struct {
		name string
		tx   Transaction
		want int
	}{
		{"ten days late", overdueTx(1, Expense, 100, NewDate(2026, time.May, 1)), 10},
		{"due today", overdueTx(2, Expense, 100, today), 0},
		{"future due date never negative", overdueTx(3, Expense, 100, NewDate(2026, time.May, 20)), 0},
		{"pending contributes zero", Transaction{Status: StatusPending, DueDate: NewDate(2026, time.April, 1)}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysOverdue(tt.tx, today); got != tt.want {
				t.Errorf("DaysOverdue() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAggregateOverdue_Empty(t *testing.T) {
	s := AggregateOverdue(nil, NewDate(2026, time.June, 1))

	if s.Revenues.Count != 0 || s.Expenses.Count != 0 {
		t.Error("empty input should produce empty buckets")
	}
	if !s.Revenues.OldestDueDate.IsZero() {
		t.Error("empty bucket should have zero oldest due date")
	}
}
