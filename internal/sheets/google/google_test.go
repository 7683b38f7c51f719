package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"
)

// fakeSheets implements the handful of values endpoints the client uses.
type fakeSheets struct {
	mu   sync.Mutex
	tabs map[string][][]any
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := strings.Index(r.URL.Path, "/values/")
	if i < 0 {
		http.NotFound(w, r)
		return
	}
	rng := r.URL.Path[i+len("/values/"):]
	w.Header().Set("Content-Type", "application/json")

	switch {
	case strings.HasSuffix(rng, ":append"):
		rng = strings.TrimSuffix(rng, ":append")
		sheet := sheetName(rng)
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.tabs[sheet] = append(f.tabs[sheet], vr.Values...)
		n := len(f.tabs[sheet])
		fmt.Fprintf(w, `{"updates":{"updatedRange":"%s!A%d:F%d"}}`, sheet, n, n)

	case strings.HasSuffix(rng, ":clear"):
		rng = strings.TrimSuffix(rng, ":clear")
		sheet := sheetName(rng)
		cell := rng[strings.Index(rng, "!")+2:]
		row, _ := strconv.Atoi(cell[:strings.Index(cell, ":")])
		f.tabs[sheet][row-1] = []any{}
		fmt.Fprintf(w, `{"clearedRange":%q}`, rng)

	case r.Method == http.MethodPut:
		sheet := sheetName(rng)
		var vr gsheet.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		if len(f.tabs[sheet]) == 0 {
			f.tabs[sheet] = append(f.tabs[sheet], vr.Values[0])
		} else {
			f.tabs[sheet][0] = vr.Values[0]
		}
		fmt.Fprint(w, `{}`)

	default:
		sheet := sheetName(rng)
		rows := f.tabs[sheet]
		switch {
		case strings.HasSuffix(rng, "!A1:F1"):
			if len(rows) > 0 {
				rows = rows[:1]
			}
		case strings.HasSuffix(rng, "!A:A"):
			ids := make([][]any, len(rows))
			for i, row := range rows {
				if len(row) > 0 {
					ids[i] = row[:1]
				} else {
					ids[i] = []any{}
				}
			}
			rows = ids
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"range": rng, "values": rows})
	}
}

func sheetName(rng string) string {
	return rng[:strings.Index(rng, "!")]
}

func newTestClient(t *testing.T) (*Client, *fakeSheets) {
	t.Helper()
	fake := &fakeSheets{tabs: map[string][][]any{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return NewWithService(svc, Config{SpreadsheetID: "sheet-1"}, nil), fake
}

func TestClient_AppendListDelete(t *testing.T) {
	ctx := context.Background()
	c, fake := newTestClient(t)

	if err := c.EnsureHeaders(ctx); err != nil {
		t.Fatalf("EnsureHeaders() error = %v", err)
	}
	if err := c.EnsureHeaders(ctx); err != nil {
		t.Fatalf("second EnsureHeaders() error = %v", err)
	}
	if got := len(fake.tabs["Expenses"]); got != 1 {
		t.Fatalf("expected a single header row, got %d rows", got)
	}

	when := time.Date(2025, 5, 2, 9, 0, 0, 0, time.UTC)
	exp := core.Expense{ID: "e-1", OwnerID: "u-1", Amount: core.Money{Cents: 123456}, Description: "Laptop", CreatedAt: when}.WithCategory(core.Shopping)
	ref, err := c.AppendRow(ctx, ports.ExpenseRow(exp))
	if err != nil {
		t.Fatalf("AppendRow() error = %v", err)
	}
	if ref != "Expenses!A2:F2" {
		t.Errorf("ref = %q", ref)
	}
	other := core.Expense{ID: "e-2", OwnerID: "u-1", Amount: core.Money{Cents: 500}, Description: "Bus", CreatedAt: when}.WithCategory(core.Transport)
	if _, err := c.AppendRow(ctx, ports.ExpenseRow(other)); err != nil {
		t.Fatalf("AppendRow() error = %v", err)
	}
	inc := core.Income{ID: "i-1", OwnerID: "u-1", Amount: core.Money{Cents: 1000}, Description: "Gift", CreatedAt: when}
	if _, err := c.AppendRow(ctx, ports.IncomeRow(inc)); err != nil {
		t.Fatalf("AppendRow(income) error = %v", err)
	}

	rows, err := c.ListRows(ctx, ports.KindExpense)
	if err != nil {
		t.Fatalf("ListRows() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 expense rows, got %+v", rows)
	}
	if rows[0].ID != "e-1" || rows[0].Amount.Cents != 123456 || rows[0].Category != "Shopping" || !rows[0].Date.Equal(when.Truncate(24*time.Hour)) {
		t.Errorf("unexpected first row %+v", rows[0])
	}

	if err := c.DeleteRow(ctx, ports.KindExpense, "e-1"); err != nil {
		t.Fatalf("DeleteRow() error = %v", err)
	}
	if err := c.DeleteRow(ctx, ports.KindExpense, "missing"); err != nil {
		t.Errorf("DeleteRow(missing) should succeed, got %v", err)
	}
	rows, _ = c.ListRows(ctx, ports.KindExpense)
	if len(rows) != 1 || rows[0].ID != "e-2" {
		t.Errorf("expected only e-2 to remain, got %+v", rows)
	}
	incomes, _ := c.ListRows(ctx, ports.KindIncome)
	if len(incomes) != 1 || incomes[0].Category != "" {
		t.Errorf("unexpected incomes %+v", incomes)
	}
}

func TestClient_Guards(t *testing.T) {
	ctx := context.Background()
	c := &Client{spreadsheetID: "test"}
	if _, err := c.AppendRow(ctx, ports.Row{Kind: ports.KindExpense, ID: "x"}); err == nil {
		t.Error("expected error without service")
	}

	c, _ = newTestClient(t)
	if _, err := c.AppendRow(ctx, ports.Row{Kind: ports.KindExpense}); err == nil {
		t.Error("expected error for row without id")
	}
	if _, err := c.AppendRow(ctx, ports.Row{Kind: "loan", ID: "x"}); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestNew_MissingConfig(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	if _, err := New(context.Background(), Config{}, nil); err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
	_, err := New(context.Background(), Config{SpreadsheetID: "x"}, nil)
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("unexpected error: %v", err)
	}
	_, err = New(context.Background(), Config{SpreadsheetID: "x", CredentialsFile: "/nonexistent/creds.json"}, nil)
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParseRows(t *testing.T) {
	values := [][]any{
		{"ID", "Owner", "Date", "Description", "Amount", "Category"},
		{"e-1", "u-1", "2025-01-03", "Coffee", "3.50", "Food"},
		{},
		{"e-2", "u-1", "2025-01-04", "Laptop", "$1,299.00", "Shopping"},
		{"e-3", "u-1", "2025-01-04", "Broken", "n/a", "Other"},
	}
	rows := parseRows(values, ports.KindExpense)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %+v", rows)
	}
	if rows[0].Amount.Cents != 350 || rows[1].Amount.Cents != 129900 {
		t.Errorf("unexpected amounts %d, %d", rows[0].Amount.Cents, rows[1].Amount.Cents)
	}
	if findRow(values, "e-2") != 4 || findRow(values, "nope") != 0 {
		t.Error("findRow returned the wrong row")
	}
}
