package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// MonthOverview is a compact income/expense summary for a specific month.
type MonthOverview struct {
	Month      Month
	Income     Money
	Expense    Money
	ByCategory []CategoryAmount
}

// Balance returns income minus expenses for the month.
func (o MonthOverview) Balance() Money {
	return Money{Cents: o.Income.Cents - o.Expense.Cents}
}
