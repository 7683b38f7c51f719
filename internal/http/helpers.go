package http

import (
	"errors"
	"net/http"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// entryError maps a ledger error to the fragment shown under the form.
func entryError(err error) *HTMXResponseBuilder {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return UnprocessableEntityError("Enter an amount greater than zero")
	case errors.Is(err, core.ErrEmptyDescription):
		return UnprocessableEntityError("Enter a description")
	case errors.Is(err, core.ErrDescriptionLong):
		return UnprocessableEntityError("Description is too long")
	case core.ValidationError(err):
		return UnprocessableEntityError("Invalid entry: " + err.Error())
	case errors.Is(err, storage.ErrNotFound):
		return NotFoundError("Entry not found")
	default:
		return InternalServerError("Could not save your changes, please try again")
	}
}

// isHTMX reports whether r was issued by htmx.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// percent returns part as a whole percentage of total, at least 2 for any
// non-zero part so thin bars stay visible.
func percent(part, total int64) int {
	if total <= 0 || part <= 0 {
		return 0
	}
	p := int((part*100 + total/2) / total)
	if p < 2 {
		p = 2
	}
	if p > 100 {
		p = 100
	}
	return p
}
