package core

import "sort"

// OverdueBucket is the derived summary of one flow direction: total amount,
// count, mean days overdue, oldest due date and the underlying rows ordered
// oldest first. It is recomputed on every query and never persisted.
type OverdueBucket struct {
	Total              Money
	Count              int
	AverageDaysOverdue int
	OldestDueDate      Date // zero when the bucket is empty
	Transactions       []Transaction
	Flagged            int // rows excluded because amount or due date was malformed
}

// Summary pairs the revenue and expense buckets for a company, the shape
// consumed by the overdue and pending dashboard views.
type Summary struct {
	Revenues OverdueBucket
	Expenses OverdueBucket
}

// DaysOverdue returns whole calendar days between due date and today for an
// overdue transaction, never negative. Transactions in any other status
// contribute zero (they appear in mixed pending views but are not late).
func DaysOverdue(t Transaction, today Date) int {
	if t.Status != StatusOverdue {
		return 0
	}
	if d := today.DaysSince(t.DueDate); d > 0 {
		return d
	}
	return 0
}

// AggregateOverdue buckets overdue transactions by flow direction.
// Transfers never appear in overdue reporting; they only participate in
// balance projection.
func AggregateOverdue(txs []Transaction, today Date) Summary {
	return aggregate(txs, today, map[TransactionStatus]bool{StatusOverdue: true})
}

// AggregatePending buckets all unrealized transactions (pending and
// overdue) by flow direction, the shape of the "open items" view.
func AggregatePending(txs []Transaction, today Date) Summary {
	return aggregate(txs, today, map[TransactionStatus]bool{
		StatusPending: true,
		StatusOverdue: true,
	})
}

func aggregate(txs []Transaction, today Date, statuses map[TransactionStatus]bool) Summary {
	var s Summary
	for _, t := range txs {
		if !statuses[t.Status] {
			continue
		}
		var b *OverdueBucket
		switch t.Flow {
		case Revenue:
			b = &s.Revenues
		case Expense:
			b = &s.Expenses
		default:
			continue
		}
		if t.Amount.Cents <= 0 || !t.DueDate.Valid() {
			b.Flagged++
			continue
		}
		b.Transactions = append(b.Transactions, t)
	}
	finish(&s.Revenues, today)
	finish(&s.Expenses, today)
	return s
}

func finish(b *OverdueBucket, today Date) {
	sort.SliceStable(b.Transactions, func(i, j int) bool {
		return b.Transactions[i].DueDate.Before(b.Transactions[j].DueDate)
	})
	if len(b.Transactions) == 0 {
		return
	}
	b.Count = len(b.Transactions)
	b.OldestDueDate = b.Transactions[0].DueDate
	var days int64
	for _, t := range b.Transactions {
		b.Total = b.Total.Add(t.Amount)
		days += int64(DaysOverdue(t, today))
	}
	// Rounded mean in whole days.
	n := int64(b.Count)
	b.AverageDaysOverdue = int((days + n/2) / n)
}
