package core

// Projection is a forward-looking balance for one account. HasProjection is
// false when there is nothing pending against the account, telling the
// caller to show only the settled balance.
type Projection struct {
	Settled       Money
	Projected     Money
	HasProjection bool
}

// ProjectBalance combines an account's settled balance with its unrealized
// inflow and outflow. Pending revenue adds, pending expense subtracts, and a
// pending transfer moves the amount once: it subtracts on the source account
// and adds on the destination account, so neither leg inflates the result.
// Cancelled and paid rows are ignored. Credit-card accounts are never
// projected; their exposure is tracked through limit and available credit.
func ProjectBalance(acct BankAccount, txs []Transaction) Projection {
	p := Projection{Settled: acct.Balance}
	if acct.Type == AccountCreditCard {
		return p
	}
	delta := Money{}
	counted := 0
	for _, t := range txs {
		if !t.Unrealized() || t.Amount.Cents <= 0 {
			continue
		}
		switch t.Flow {
		case Revenue:
			if t.AccountID == acct.ID {
				delta = delta.Add(t.Amount)
				counted++
			}
		case Expense:
			if t.AccountID == acct.ID {
				delta = delta.Sub(t.Amount)
				counted++
			}
		case Transfer:
			touched := false
			if t.AccountID == acct.ID {
				delta = delta.Sub(t.Amount)
				touched = true
			}
			if t.CounterAccountID == acct.ID {
				delta = delta.Add(t.Amount)
				touched = true
			}
			if touched {
				counted++
			}
		}
	}
	if counted == 0 {
		return p
	}
	p.Projected = p.Settled.Add(delta)
	p.HasProjection = true
	return p
}
