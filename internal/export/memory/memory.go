// Package memory is an in-process spreadsheet stand-in for tests and the
// default backend.
package memory

import (
	"context"
	"fmt"
	"sync"

	"khata/internal/core"
	"khata/internal/export"
)

type Store struct {
	mu      sync.Mutex
	wages   [][]string
	ledgers map[string][][]string
}

var (
	_ export.WageRowWriter = (*Store)(nil)
	_ export.LedgerWriter  = (*Store)(nil)
)

func New() *Store {
	return &Store{ledgers: make(map[string][][]string)}
}

func (s *Store) AppendWageRow(_ context.Context, e core.WageEntry, workerName string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wages = append(s.wages, export.WageRow(e, workerName))
	return fmt.Sprintf("mem:%d", len(s.wages)), nil
}

func (s *Store) WriteLedger(_ context.Context, entityName string, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([][]string, len(rows))
	for i, r := range rows {
		copied[i] = append([]string(nil), r...)
	}
	s.ledgers[entityName] = copied
	return nil
}

// WageRows returns the appended wage rows.
func (s *Store) WageRows() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.wages))
	copy(out, s.wages)
	return out
}

// Ledger returns the last snapshot written for entityName.
func (s *Store) Ledger(entityName string) [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledgers[entityName]
}
