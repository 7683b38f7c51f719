package memory

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/sheets"
)

func TestStore_AppendListDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

	e := core.Expense{ID: "e-1", OwnerID: "u-1", Amount: core.Money{Cents: 1234}, Description: "Lunch", CreatedAt: time.Now()}.WithCategory(core.Food)
	ref, err := s.AppendRow(ctx, sheets.ExpenseRow(e))
	if err != nil {
		t.Fatalf("AppendRow() error = %v", err)
	}
	if ref != "mem:expense:1" {
		t.Errorf("ref = %q", ref)
	}
	if _, err := s.AppendRow(ctx, sheets.Row{Kind: sheets.KindExpense}); err == nil {
		t.Error("expected error for row without id")
	}

	rows, _ := s.ListRows(ctx, sheets.KindExpense)
	if len(rows) != 1 || rows[0].Category != "Food" {
		t.Fatalf("unexpected rows %+v", rows)
	}
	if incomes, _ := s.ListRows(ctx, sheets.KindIncome); len(incomes) != 0 {
		t.Errorf("incomes tab should be empty, got %d", len(incomes))
	}

	if err := s.DeleteRow(ctx, sheets.KindExpense, "e-1"); err != nil {
		t.Fatalf("DeleteRow() error = %v", err)
	}
	if err := s.DeleteRow(ctx, sheets.KindExpense, "e-1"); err != nil {
		t.Errorf("deleting a missing row should succeed, got %v", err)
	}
	if rows, _ := s.ListRows(ctx, sheets.KindExpense); len(rows) != 0 {
		t.Errorf("expected empty tab, got %d rows", len(rows))
	}
}
