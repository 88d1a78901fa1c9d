package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"famspend/internal/core"
	"famspend/internal/store"
)

var now = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func TestStore_Create(t *testing.T) {
	s := NewWithClock(func() time.Time { return now })
	ctx := context.Background()

	e, err := s.Create(ctx, store.NewExpense{
		Owner:       core.Identity{UserID: "u1", FamilyID: "f1"},
		Description: "  500 for food ",
		Amount:      core.Money{Minor: 50000},
		Category:    "food",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "500 for food", e.Description)
	assert.Equal(t, core.CategoryFood, e.Category)
	assert.Equal(t, now, e.OccurredAt, "missing date defaults to now")
	assert.Equal(t, now, e.CreatedAt)
	assert.Equal(t, "f1", e.FamilyID)
	assert.Equal(t, 1, s.Len())
}

func TestStore_CreateRejectsInvalid(t *testing.T) {
	s := New()
	_, err := s.Create(context.Background(), store.NewExpense{
		Owner:       core.Identity{UserID: "u1"},
		Description: "refund",
		Amount:      core.Money{Minor: -5},
	})
	assert.True(t, errors.Is(err, core.ErrInvalidAmount))
	assert.Equal(t, 0, s.Len())
}

func TestStore_ListExpensesScopes(t *testing.T) {
	s := NewWithClock(func() time.Time { return now })
	ctx := context.Background()
	mk := func(user, family string, daysAgo int) {
		_, err := s.Create(ctx, store.NewExpense{
			Owner:       core.Identity{UserID: user, FamilyID: family},
			Description: "x",
			Amount:      core.Money{Minor: 100},
			OccurredAt:  now.AddDate(0, 0, -daysAgo),
		})
		require.NoError(t, err)
	}
	mk("u1", "f1", 2)
	mk("u2", "f1", 0)
	mk("u1", "f1", 1)
	mk("u3", "f2", 0)

	personal, err := s.ListExpenses(ctx, store.Scope{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, personal, 2)
	assert.True(t, personal[0].OccurredAt.After(personal[1].OccurredAt))

	family, err := s.ListExpenses(ctx, store.ScopeFor(core.Identity{UserID: "u1", FamilyID: "f1"}))
	require.NoError(t, err)
	require.Len(t, family, 3)
	assert.Equal(t, "u2", family[0].OwnerUserID, "newest first")
}
