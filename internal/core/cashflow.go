package core

import "time"

// MonthCashflow is the compact month view for a company's dashboard:
// realized plus open revenue and expense totals for one calendar month.
type MonthCashflow struct {
	Year    int
	Month   time.Month
	Revenue Money
	Expense Money
}

// Net returns revenue minus expense for the month.
func (c MonthCashflow) Net() Money {
	return c.Revenue.Sub(c.Expense)
}
