package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}

func expense(cents int64, c Category, at time.Time) Expense {
	return Expense{OwnerID: "u", Description: "x", Amount: Money{Cents: cents}, CreatedAt: at}.WithCategory(c)
}

func income(cents int64, at time.Time) Income {
	return Income{OwnerID: "u", Description: "y", Amount: Money{Cents: cents}, CreatedAt: at}
}

func TestBalanceEmpty(t *testing.T) {
	assert.Equal(t, Money{}, Balance(nil, nil))
	assert.Equal(t, Money{}, SumIncomes(nil))
	assert.Equal(t, Money{}, SumExpenses(nil))
}

func TestBalanceIsExact(t *testing.T) {
	// 0.1 + 0.2 style sums must not drift.
	incomes := []Income{income(10, day(2025, 1, 1)), income(20, day(2025, 1, 2))}
	expenses := []Expense{expense(30, Food, day(2025, 1, 3))}
	assert.Equal(t, Money{Cents: 0}, Balance(incomes, expenses))

	incomes = append(incomes, income(100000, day(2025, 2, 1)))
	expenses = append(expenses, expense(123456, Shopping, day(2025, 2, 2)))
	got := Balance(incomes, expenses)
	assert.Equal(t, SumIncomes(incomes).Cents-SumExpenses(expenses).Cents, got.Cents)
	assert.Equal(t, int64(-23456), got.Cents)
	assert.Equal(t, "-$234.56", got.String())
}

func TestCategoryTotalsFirstSeenOrder(t *testing.T) {
	expenses := []Expense{
		expense(500, Transport, day(2025, 1, 1)),
		expense(250, Food, day(2025, 1, 2)),
		expense(100, Transport, day(2025, 1, 3)),
		{OwnerID: "u", Description: "legacy", Amount: Money{Cents: 7}, Category: "Bills"},
	}
	got := CategoryTotals(expenses)
	require.Len(t, got, 3)
	assert.Equal(t, CategoryTotal{Category: Transport, Total: Money{Cents: 600}, Color: "#ffbd33"}, got[0])
	assert.Equal(t, CategoryTotal{Category: Food, Total: Money{Cents: 250}, Color: "#ff5733"}, got[1])
	assert.Equal(t, CategoryTotal{Category: Other, Total: Money{Cents: 7}, Color: "#777"}, got[2])

	assert.Empty(t, CategoryTotals(nil))
}

func TestMonthlyTotalsOnlyCountsRequestedYear(t *testing.T) {
	incomes := []Income{
		income(1000, day(2025, 3, 5)),
		income(2000, day(2024, 3, 5)),
		income(300, day(2025, 12, 31)),
	}
	expenses := []Expense{
		expense(400, Food, day(2025, 3, 10)),
		expense(999, Food, day(2026, 3, 10)),
		expense(50, Other, day(2025, 1, 1)),
	}

	got := MonthlyTotals(incomes, expenses, 2025)
	for i, m := range got {
		assert.Equal(t, time.Month(i+1), m.Month)
	}
	assert.Equal(t, MonthTotal{Month: time.January, Expense: Money{Cents: 50}}, got[0])
	assert.Equal(t, MonthTotal{Month: time.March, Income: Money{Cents: 1000}, Expense: Money{Cents: 400}}, got[2])
	assert.Equal(t, MonthTotal{Month: time.December, Income: Money{Cents: 300}}, got[11])
	for _, idx := range []int{1, 3, 4, 5, 6, 7, 8, 9, 10} {
		assert.Zero(t, got[idx].Income.Cents)
		assert.Zero(t, got[idx].Expense.Cents)
	}
}

func TestLedgerSummarize(t *testing.T) {
	l := Ledger{
		Incomes:  []Income{income(5000, day(2025, 6, 1))},
		Expenses: []Expense{expense(1250, Entertainment, day(2025, 6, 2))},
	}
	s := l.Summarize(2025)
	assert.Equal(t, 2025, s.Year)
	assert.Equal(t, int64(5000), s.TotalIncomes.Cents)
	assert.Equal(t, int64(1250), s.TotalExpenses.Cents)
	assert.Equal(t, int64(3750), s.Balance.Cents)
	require.Len(t, s.ByCategory, 1)
	assert.Equal(t, Entertainment, s.ByCategory[0].Category)
	assert.Equal(t, int64(1250), s.Monthly[5].Expense.Cents)
}
