// Package memory is an in-process sheets.Mirror used when no spreadsheet is
// configured and in tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	rows map[sheets.Kind][]sheets.Row
}

var _ sheets.Mirror = (*Store)(nil)

func New() *Store {
	return &Store{rows: make(map[sheets.Kind][]sheets.Row)}
}

// AppendRow stores the row and returns a synthetic row reference.
func (s *Store) AppendRow(_ context.Context, r sheets.Row) (string, error) {
	if r.ID == "" {
		return "", fmt.Errorf("row has no id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[r.Kind] = append(s.rows[r.Kind], r)
	return fmt.Sprintf("mem:%s:%d", r.Kind, len(s.rows[r.Kind])), nil
}

func (s *Store) DeleteRow(_ context.Context, kind sheets.Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.rows[kind]
	for i, r := range rows {
		if r.ID == id {
			s.rows[kind] = append(rows[:i:i], rows[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *Store) ListRows(_ context.Context, kind sheets.Kind) ([]sheets.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.Row(nil), s.rows[kind]...), nil
}
