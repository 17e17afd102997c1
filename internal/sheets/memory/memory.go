package memory

import (
	"context"
	"sort"
	"sync"

	"spendlog/internal/core"
	ports "spendlog/internal/sheets"
)

// Store is an in-process exporter used when no spreadsheet is configured.
type Store struct {
	mu    sync.Mutex
	items map[string]core.Expense
}

var _ ports.ExpenseExporter = (*Store)(nil)

func New() *Store {
	return &Store{items: make(map[string]core.Expense)}
}

func (s *Store) UpsertExpense(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[e.ID] = e
	return nil
}

func (s *Store) RemoveExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

// Rows returns the exported rows ordered by id.
func (s *Store) Rows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([][]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, ports.Row(s.items[id]))
	}
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
