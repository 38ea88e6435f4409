// Package memory is an in-memory report writer used in tests and local
// development when no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fluxo/internal/export"
)

type Store struct {
	mu   sync.Mutex
	rows []export.RunReport
}

var _ export.ReportWriter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// AppendRunReport stores the row and returns a synthetic row reference.
func (s *Store) AppendRunReport(_ context.Context, r export.RunReport) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, r)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of the appended rows.
func (s *Store) Rows() []export.RunReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]export.RunReport(nil), s.rows...)
}
