// Package google mirrors ledger entries into a Google Sheets spreadsheet with
// one tab per entry kind.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/log"
	ports "fintrack/internal/sheets"
)

const (
	DefaultExpensesSheet = "Expenses"
	DefaultIncomesSheet  = "Incomes"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	expensesSheet string
	incomesSheet  string
	logger        *slog.Logger
}

var _ ports.Mirror = (*Client)(nil)

// Config selects the spreadsheet and how to authenticate against it.
// Exactly one of CredentialsJSON and CredentialsFile is normally set.
type Config struct {
	SpreadsheetID   string
	CredentialsJSON string
	CredentialsFile string
	ExpensesSheet   string
	IncomesSheet    string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	creds, err := loadCredentials(cfg.CredentialsJSON, cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, cfg, logger), nil
}

// NewWithService wraps an existing service, for example one pointed at a
// test server through option.WithEndpoint.
func NewWithService(svc *gsheet.Service, cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default().With(log.FieldComponent, log.ComponentSheets)
	}
	c := &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		expensesSheet: strings.TrimSpace(cfg.ExpensesSheet),
		incomesSheet:  strings.TrimSpace(cfg.IncomesSheet),
		logger:        logger,
	}
	if c.expensesSheet == "" {
		c.expensesSheet = DefaultExpensesSheet
	}
	if c.incomesSheet == "" {
		c.incomesSheet = DefaultIncomesSheet
	}
	return c
}

// loadCredentials prefers inline JSON, then a file, then
// GOOGLE_APPLICATION_CREDENTIALS.
func loadCredentials(inline, file string) ([]byte, error) {
	inline = strings.TrimSpace(inline)
	file = strings.TrimSpace(file)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

func (c *Client) sheetFor(kind ports.Kind) (string, error) {
	switch kind {
	case ports.KindExpense:
		return c.expensesSheet, nil
	case ports.KindIncome:
		return c.incomesSheet, nil
	default:
		return "", fmt.Errorf("unknown entry kind %q", kind)
	}
}

// AppendRow adds r after the last used row of its tab and returns the
// updated A1 range.
func (c *Client) AppendRow(ctx context.Context, r ports.Row) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if r.ID == "" {
		return "", errors.New("row has no id")
	}
	sheet, err := c.sheetFor(r.Kind)
	if err != nil {
		return "", err
	}

	vr := &gsheet.ValueRange{Values: [][]any{r.Values()}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, sheet+"!A:F", vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", sheet, err)
	}

	ref := sheet
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	c.logger.DebugContext(ctx, "Appended row", log.FieldEntryID, r.ID, "range", ref)
	return ref, nil
}

// DeleteRow clears the row whose column A equals id. Rows are cleared rather
// than removed so that concurrent appends keep their positions.
func (c *Client) DeleteRow(ctx context.Context, kind ports.Kind, id string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	sheet, err := c.sheetFor(kind)
	if err != nil {
		return err
	}

	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, sheet+"!A:A").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read ids from %s: %w", sheet, err)
	}
	row := findRow(resp.Values, id)
	if row == 0 {
		c.logger.InfoContext(ctx, "Row already absent", log.FieldEntryID, id, "sheet", sheet)
		return nil
	}

	rng := fmt.Sprintf("%s!A%d:F%d", sheet, row, row)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	c.logger.DebugContext(ctx, "Cleared row", log.FieldEntryID, id, "range", rng)
	return nil
}

// ListRows reads every mirrored row of a tab, skipping the header and
// cleared rows.
func (c *Client) ListRows(ctx context.Context, kind ports.Kind) ([]ports.Row, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	sheet, err := c.sheetFor(kind)
	if err != nil {
		return nil, err
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, sheet+"!A:F").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", sheet, err)
	}
	return parseRows(resp.Values, kind), nil
}

// EnsureHeaders writes Header into the first row of both tabs when it is
// empty.
func (c *Client) EnsureHeaders(ctx context.Context) error {
	header := make([]any, len(ports.Header))
	for i, h := range ports.Header {
		header[i] = h
	}
	for _, sheet := range []string{c.expensesSheet, c.incomesSheet} {
		rng := sheet + "!A1:F1"
		resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("read %s: %w", rng, err)
		}
		if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
			continue
		}
		vr := &gsheet.ValueRange{Values: [][]any{header}}
		if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption("RAW").Context(ctx).Do(); err != nil {
			return fmt.Errorf("write header %s: %w", rng, err)
		}
	}
	return nil
}
