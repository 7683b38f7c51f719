package http

import (
	"fmt"
	"html/template"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Page and partial data. Amounts are formatted here so templates stay dumb.

type expenseView struct {
	ID          string
	Description string
	Amount      string
	Category    string
	Icon        string
	Color       string
	Date        string
}

type incomeView struct {
	ID          string
	Description string
	Amount      string
	Date        string
}

type categoryView struct {
	Name    string
	Icon    string
	Color   string
	Amount  string
	Percent int
}

type monthView struct {
	Label      string
	Income     string
	Expense    string
	IncomePct  int
	ExpensePct int
}

type summaryView struct {
	Year          int
	Balance       string
	Negative      bool
	TotalIncomes  string
	TotalExpenses string
	Categories    []categoryView
	Donut         template.CSS
	Months        []monthView
}

type entriesView struct {
	Expenses []expenseView
	Incomes  []incomeView
}

type dashboardView struct {
	User     core.User
	Year     int
	Summary  summaryView
	Entries  entriesView
	Greeting string
}

type loginView struct {
	DevMode bool
	Email   string
	Error   string
}

type chatTurnView struct {
	Query  string
	Answer string
}

func formatDate(t time.Time) string {
	return t.UTC().Format("Jan 2, 2006")
}

func newSummaryView(s core.Summary) summaryView {
	v := summaryView{
		Year:          s.Year,
		Balance:       s.Balance.String(),
		Negative:      s.Balance.Cents < 0,
		TotalIncomes:  s.TotalIncomes.String(),
		TotalExpenses: s.TotalExpenses.String(),
	}

	var catTotal int64
	for _, c := range s.ByCategory {
		catTotal += c.Total.Cents
	}
	for _, c := range s.ByCategory {
		v.Categories = append(v.Categories, categoryView{
			Name:    string(c.Category),
			Icon:    c.Category.Style().Icon,
			Color:   c.Color,
			Amount:  c.Total.String(),
			Percent: percent(c.Total.Cents, catTotal),
		})
	}
	v.Donut = donutGradient(s.ByCategory, catTotal)

	var peak int64
	for _, m := range s.Monthly {
		peak = max(peak, m.Income.Cents, m.Expense.Cents)
	}
	for _, m := range s.Monthly {
		v.Months = append(v.Months, monthView{
			Label:      m.Month.String()[:3],
			Income:     m.Income.String(),
			Expense:    m.Expense.String(),
			IncomePct:  percent(m.Income.Cents, peak),
			ExpensePct: percent(m.Expense.Cents, peak),
		})
	}
	return v
}

// donutGradient draws the category breakdown as a CSS conic gradient. Colors
// come from the static category table.
func donutGradient(totals []core.CategoryTotal, sum int64) template.CSS {
	if sum <= 0 {
		return template.CSS("conic-gradient(#e5e7eb 0 100%)")
	}
	var (
		stops []string
		acc   int64
	)
	for _, c := range totals {
		from := decimal.New(acc*100, 0).Div(decimal.New(sum, 0)).StringFixed(2)
		acc += c.Total.Cents
		to := decimal.New(acc*100, 0).Div(decimal.New(sum, 0)).StringFixed(2)
		stops = append(stops, fmt.Sprintf("%s %s%% %s%%", c.Color, from, to))
	}
	return template.CSS("conic-gradient(" + strings.Join(stops, ", ") + ")")
}

// newEntriesView lists newest entries first.
func newEntriesView(l core.Ledger) entriesView {
	var v entriesView
	for _, e := range slices.Backward(l.Expenses) {
		st := e.Category.Style()
		v.Expenses = append(v.Expenses, expenseView{
			ID:          e.ID,
			Description: e.Description,
			Amount:      e.Amount.String(),
			Category:    string(e.Category),
			Icon:        st.Icon,
			Color:       st.Color,
			Date:        formatDate(e.CreatedAt),
		})
	}
	for _, i := range slices.Backward(l.Incomes) {
		v.Incomes = append(v.Incomes, incomeView{
			ID:          i.ID,
			Description: i.Description,
			Amount:      i.Amount.String(),
			Date:        formatDate(i.CreatedAt),
		})
	}
	return v
}

// summaryJSON is the /api/summary payload. Amounts are decimal strings.
type summaryJSON struct {
	Year          int                `json:"year"`
	Balance       decimal.Decimal    `json:"balance"`
	TotalIncomes  decimal.Decimal    `json:"total_incomes"`
	TotalExpenses decimal.Decimal    `json:"total_expenses"`
	Categories    []categoryJSON     `json:"categories"`
	Monthly       []monthlyTotalJSON `json:"monthly"`
}

type categoryJSON struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Color    string          `json:"color"`
	Icon     string          `json:"icon"`
}

type monthlyTotalJSON struct {
	Month   int             `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

func newSummaryJSON(s core.Summary) summaryJSON {
	out := summaryJSON{
		Year:          s.Year,
		Balance:       s.Balance.Dollars(),
		TotalIncomes:  s.TotalIncomes.Dollars(),
		TotalExpenses: s.TotalExpenses.Dollars(),
		Categories:    make([]categoryJSON, 0, len(s.ByCategory)),
		Monthly:       make([]monthlyTotalJSON, 0, len(s.Monthly)),
	}
	for _, c := range s.ByCategory {
		out.Categories = append(out.Categories, categoryJSON{
			Category: string(c.Category),
			Total:    c.Total.Dollars(),
			Color:    c.Color,
			Icon:     c.Category.Style().Icon,
		})
	}
	for _, m := range s.Monthly {
		out.Monthly = append(out.Monthly, monthlyTotalJSON{
			Month:   int(m.Month),
			Income:  m.Income.Dollars(),
			Expense: m.Expense.Dollars(),
		})
	}
	return out
}
