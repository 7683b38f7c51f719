package core

import "time"

// CategoryTotal is the sum of expenses in one category.
type CategoryTotal struct {
	Category Category
	Total    Money
	Color    string
}

// MonthTotal holds income and expense sums for one calendar month.
type MonthTotal struct {
	Month   time.Month
	Income  Money
	Expense Money
}

// Ledger is one user's complete set of entries.
type Ledger struct {
	Expenses []Expense
	Incomes  []Income
}

// Summary is everything the dashboard derives from a ledger.
type Summary struct {
	Year          int
	TotalIncomes  Money
	TotalExpenses Money
	Balance       Money
	ByCategory    []CategoryTotal
	Monthly       [12]MonthTotal
}

func SumExpenses(expenses []Expense) Money {
	var total Money
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

func SumIncomes(incomes []Income) Money {
	var total Money
	for _, i := range incomes {
		total = total.Add(i.Amount)
	}
	return total
}

// Balance is total incomes minus total expenses. It is never stored.
func Balance(incomes []Income, expenses []Expense) Money {
	return SumIncomes(incomes).Sub(SumExpenses(expenses))
}

// CategoryTotals groups expenses by category. Groups appear in the order their
// category is first seen.
func CategoryTotals(expenses []Expense) []CategoryTotal {
	index := make(map[Category]int)
	var out []CategoryTotal
	for _, e := range expenses {
		c := e.Category
		if !c.Valid() {
			c = Other
		}
		i, ok := index[c]
		if !ok {
			i = len(out)
			index[c] = i
			out = append(out, CategoryTotal{Category: c, Color: c.Style().Color})
		}
		out[i].Total = out[i].Total.Add(e.Amount)
	}
	return out
}

// MonthlyTotals returns one bucket per month of year. Entries dated in any
// other year are ignored.
func MonthlyTotals(incomes []Income, expenses []Expense, year int) [12]MonthTotal {
	var out [12]MonthTotal
	for m := range out {
		out[m].Month = time.Month(m + 1)
	}
	for _, i := range incomes {
		if i.CreatedAt.Year() != year {
			continue
		}
		b := &out[i.CreatedAt.Month()-1]
		b.Income = b.Income.Add(i.Amount)
	}
	for _, e := range expenses {
		if e.CreatedAt.Year() != year {
			continue
		}
		b := &out[e.CreatedAt.Month()-1]
		b.Expense = b.Expense.Add(e.Amount)
	}
	return out
}

// Summarize computes the dashboard summary for year.
func (l Ledger) Summarize(year int) Summary {
	inc := SumIncomes(l.Incomes)
	exp := SumExpenses(l.Expenses)
	return Summary{
		Year:          year,
		TotalIncomes:  inc,
		TotalExpenses: exp,
		Balance:       inc.Sub(exp),
		ByCategory:    CategoryTotals(l.Expenses),
		Monthly:       MonthlyTotals(l.Incomes, l.Expenses, year),
	}
}
