// Package sheets mirrors ledger entries into a spreadsheet.
package sheets

import (
	"context"
	"time"

	"fintrack/internal/core"
)

// Kind selects the tab an entry is mirrored into.
type Kind string

const (
	KindExpense Kind = "expense"
	KindIncome  Kind = "income"
)

// Header is the first row of every mirrored tab.
var Header = []string{"ID", "Owner", "Date", "Description", "Amount", "Category"}

// Row is one mirrored entry. Category is empty for incomes.
type Row struct {
	Kind        Kind
	ID          string
	Owner       string
	Date        time.Time
	Description string
	Amount      core.Money
	Category    string
}

func ExpenseRow(e core.Expense) Row {
	return Row{
		Kind:        KindExpense,
		ID:          e.ID,
		Owner:       e.OwnerID,
		Date:        e.CreatedAt,
		Description: e.Description,
		Amount:      e.Amount,
		Category:    string(e.Category),
	}
}

func IncomeRow(i core.Income) Row {
	return Row{
		Kind:        KindIncome,
		ID:          i.ID,
		Owner:       i.OwnerID,
		Date:        i.CreatedAt,
		Description: i.Description,
		Amount:      i.Amount,
	}
}

// Values renders r in Header column order.
func (r Row) Values() []any {
	return []any{
		r.ID,
		r.Owner,
		r.Date.UTC().Format(time.DateOnly),
		r.Description,
		r.Amount.Dollars().StringFixed(2),
		r.Category,
	}
}

// Ports for outbound adapters.
type (
	RowWriter interface {
		AppendRow(ctx context.Context, r Row) (rowRef string, err error)
	}

	// RowDeleter clears the row holding id. Missing rows are not an error.
	RowDeleter interface {
		DeleteRow(ctx context.Context, kind Kind, id string) error
	}

	RowLister interface {
		ListRows(ctx context.Context, kind Kind) ([]Row, error)
	}

	Mirror interface {
		RowWriter
		RowDeleter
		RowLister
	}
)
