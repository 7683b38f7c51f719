package google

import (
	"fmt"
	"strings"
	"time"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"
)

// findRow returns the 1-based row whose first cell equals id, or 0.
func findRow(values [][]any, id string) int {
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1
		}
	}
	return 0
}

// parseRows converts a values matrix in Header column order into rows.
// Header, cleared and unparseable rows are skipped.
func parseRows(values [][]any, kind ports.Kind) []ports.Row {
	var out []ports.Row
	for _, raw := range values {
		cols := toStrings(raw)
		id := safeGet(cols, 0)
		if id == "" || strings.EqualFold(id, ports.Header[0]) {
			continue
		}
		amount, err := core.ParseMoney(normalizeAmount(safeGet(cols, 4)))
		if err != nil {
			continue
		}
		date, _ := time.Parse(time.DateOnly, safeGet(cols, 2))
		out = append(out, ports.Row{
			Kind:        kind,
			ID:          id,
			Owner:       safeGet(cols, 1),
			Date:        date,
			Description: safeGet(cols, 3),
			Amount:      amount,
			Category:    safeGet(cols, 5),
		})
	}
	return out
}

// normalizeAmount strips the currency sign and thousands separators that
// USER_ENTERED formatting may add.
func normalizeAmount(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	if strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", "")
	}
	return s
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
