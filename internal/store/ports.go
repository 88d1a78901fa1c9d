// Package store defines the outbound ports the chat core reads and writes
// expenses through. Implementations live in memory, storage, storage/mongodb
// and remote.
package store

import (
	"context"
	"sort"
	"strings"
	"time"

	"famspend/internal/core"
)

type (
	// NewExpense is a persist request. Category may be empty and
	// OccurredAt may be zero; stores fill in "Others" and now.
	NewExpense struct {
		Owner       core.Identity
		Description string
		Amount      core.Money
		Category    string
		OccurredAt  time.Time
	}

	// Scope selects the personal or the family collection.
	Scope struct {
		UserID   string
		FamilyID string
		Family   bool
	}

	ExpenseWriter interface {
		Create(ctx context.Context, in NewExpense) (core.Expense, error)
	}

	// ExpenseLister returns a collection sorted newest first.
	ExpenseLister interface {
		ListExpenses(ctx context.Context, scope Scope) ([]core.Expense, error)
	}

	ExpenseStore interface {
		ExpenseWriter
		ExpenseLister
	}

	// FamilyTotaler is implemented by stores that can sum a family's
	// collection without loading it.
	FamilyTotaler interface {
		FamilyTotal(ctx context.Context, familyID string) (core.Money, error)
	}
)

// FamilyTotal sums a family's expenses, asking the store directly when it
// supports that and listing the collection otherwise.
func FamilyTotal(ctx context.Context, lister ExpenseLister, familyID string) (core.Money, error) {
	if t, ok := lister.(FamilyTotaler); ok {
		return t.FamilyTotal(ctx, familyID)
	}
	expenses, err := lister.ListExpenses(ctx, Scope{FamilyID: familyID, Family: true})
	if err != nil {
		return core.Money{}, err
	}
	return core.Sum(expenses), nil
}

// ScopeFor picks the widest collection the identity can see.
func ScopeFor(id core.Identity) Scope {
	return Scope{UserID: id.UserID, FamilyID: id.FamilyID, Family: id.FamilyID != ""}
}

// Includes reports whether e belongs to the scope.
func (s Scope) Includes(e core.Expense) bool {
	if s.Family {
		return e.FamilyID == s.FamilyID
	}
	return e.OwnerUserID == s.UserID
}

// Build validates the request and turns it into an expense ready to store.
func (in NewExpense) Build(id string, now time.Time) (core.Expense, error) {
	e := core.Expense{
		ID:          id,
		OwnerUserID: in.Owner.UserID,
		OwnerName:   in.Owner.UserName,
		FamilyID:    in.Owner.FamilyID,
		Amount:      in.Amount,
		Category:    core.NormalizeCategory(in.Category),
		Description: strings.TrimSpace(in.Description),
		OccurredAt:  in.OccurredAt,
		CreatedAt:   now,
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = now
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

// SortNewestFirst orders by OccurredAt descending, then CreatedAt descending.
func SortNewestFirst(expenses []core.Expense) {
	sort.SliceStable(expenses, func(i, j int) bool {
		a, b := expenses[i], expenses[j]
		if !a.OccurredAt.Equal(b.OccurredAt) {
			return a.OccurredAt.After(b.OccurredAt)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}
