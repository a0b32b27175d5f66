// Package memory provides an in-memory export target used in tests and
// local development when no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"scontrini/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	rows []sheets.ExportRow
}

func New() *Store {
	return &Store{}
}

// AppendReceipt stores the row and returns a synthetic row reference.
func (s *Store) AppendReceipt(_ context.Context, row sheets.ExportRow) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []sheets.ExportRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.ExportRow(nil), s.rows...)
}
