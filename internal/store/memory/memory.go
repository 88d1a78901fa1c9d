package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"famspend/internal/core"
	"famspend/internal/store"
)

// Store keeps expenses in process memory. Used by tests and offline runs.
type Store struct {
	mu    sync.Mutex
	now   func() time.Time
	items []core.Expense
}

func New() *Store {
	return &Store{now: time.Now}
}

// NewWithClock is New with a pinned clock.
func NewWithClock(now func() time.Time) *Store {
	return &Store{now: now}
}

// Seed inserts pre-built expenses as is.
func (s *Store) Seed(expenses ...core.Expense) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, expenses...)
}

func (s *Store) Create(_ context.Context, in store.NewExpense) (core.Expense, error) {
	e, err := in.Build(uuid.NewString(), s.now())
	if err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, e)
	return e, nil
}

func (s *Store) ListExpenses(_ context.Context, scope store.Scope) ([]core.Expense, error) {
	s.mu.Lock()
	out := make([]core.Expense, 0, len(s.items))
	for _, e := range s.items {
		if scope.Includes(e) {
			out = append(out, e)
		}
	}
	s.mu.Unlock()
	store.SortNewestFirst(out)
	return out, nil
}

// Len returns the number of stored expenses.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
