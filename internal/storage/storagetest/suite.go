// Package storagetest holds the behaviour every storage.Store must share.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Run exercises newStore against the storage contract. newStore must return
// an empty store.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Run("expenses", func(t *testing.T) { testExpenses(t, newStore(t)) })
	t.Run("incomes", func(t *testing.T) { testIncomes(t, newStore(t)) })
	t.Run("owner isolation", func(t *testing.T) { testOwnerIsolation(t, newStore(t)) })
	t.Run("validation", func(t *testing.T) { testValidation(t, newStore(t)) })
	t.Run("sessions", func(t *testing.T) { testSessions(t, newStore(t)) })
}

func ts(day int) time.Time { return time.Date(2025, 4, day, 8, 30, 0, 0, time.UTC) }

func testExpenses(t *testing.T, s storage.Store) {
	ctx := context.Background()

	second, err := s.CreateExpense(ctx, "alice", core.Expense{
		Amount: core.Money{Cents: 899}, Description: "Cinema", CreatedAt: ts(2),
	}.WithCategory(core.Entertainment))
	require.NoError(t, err)
	require.NotEmpty(t, second.ID)
	assert.Equal(t, "alice", second.OwnerID)

	first, err := s.CreateExpense(ctx, "alice", core.Expense{
		Amount: core.Money{Cents: 1250}, Description: "Groceries", CreatedAt: ts(1),
	}.WithCategory(core.Food))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	list, err := s.ListExpenses(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID, "oldest first")
	assert.Equal(t, core.Food, list[0].Category)
	assert.Equal(t, "utensils", list[0].Icon)
	assert.Equal(t, "#ff5733", list[0].Color)
	assert.Equal(t, int64(1250), list[0].Amount.Cents)
	assert.True(t, list[0].CreatedAt.Equal(ts(1)))

	got, err := s.GetExpense(ctx, "alice", second.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cinema", got.Description)

	require.NoError(t, s.DeleteExpense(ctx, "alice", first.ID))
	assert.ErrorIs(t, s.DeleteExpense(ctx, "alice", first.ID), storage.ErrNotFound)
	_, err = s.GetExpense(ctx, "alice", first.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	list, err = s.ListExpenses(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func testIncomes(t *testing.T, s storage.Store) {
	ctx := context.Background()

	in, err := s.CreateIncome(ctx, "bob", core.Income{Amount: core.Money{Cents: 250000}, Description: "Salary", CreatedAt: ts(1)})
	require.NoError(t, err)
	require.NotEmpty(t, in.ID)

	stamped, err := s.CreateIncome(ctx, "bob", core.Income{Amount: core.Money{Cents: 100}, Description: "Refund"})
	require.NoError(t, err)
	assert.False(t, stamped.CreatedAt.IsZero(), "missing timestamps are filled in")

	list, err := s.ListIncomes(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, in.ID, list[0].ID)

	got, err := s.GetIncome(ctx, "bob", in.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(250000), got.Amount.Cents)

	require.NoError(t, s.DeleteIncome(ctx, "bob", in.ID))
	assert.ErrorIs(t, s.DeleteIncome(ctx, "bob", in.ID), storage.ErrNotFound)
}

func testOwnerIsolation(t *testing.T, s storage.Store) {
	ctx := context.Background()

	e, err := s.CreateExpense(ctx, "alice", core.Expense{Amount: core.Money{Cents: 100}, Description: "x", CreatedAt: ts(1)}.WithCategory(core.Other))
	require.NoError(t, err)
	i, err := s.CreateIncome(ctx, "alice", core.Income{Amount: core.Money{Cents: 100}, Description: "y", CreatedAt: ts(1)})
	require.NoError(t, err)

	list, err := s.ListExpenses(ctx, "mallory")
	require.NoError(t, err)
	assert.Empty(t, list)
	incomes, err := s.ListIncomes(ctx, "mallory")
	require.NoError(t, err)
	assert.Empty(t, incomes)

	_, err = s.GetExpense(ctx, "mallory", e.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, s.DeleteExpense(ctx, "mallory", e.ID), storage.ErrNotFound)
	assert.ErrorIs(t, s.DeleteIncome(ctx, "mallory", i.ID), storage.ErrNotFound)

	list, err = s.ListExpenses(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, list, 1, "foreign delete must not remove the entry")
}

func testValidation(t *testing.T, s storage.Store) {
	ctx := context.Background()

	_, err := s.CreateExpense(ctx, "alice", core.Expense{Amount: core.Money{Cents: 0}, Description: "x", Category: core.Food})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = s.CreateExpense(ctx, "alice", core.Expense{Amount: core.Money{Cents: 10}, Description: "x", Category: "Bills"})
	assert.ErrorIs(t, err, core.ErrInvalidCategory)

	_, err = s.CreateIncome(ctx, "", core.Income{Amount: core.Money{Cents: 10}, Description: "x"})
	assert.ErrorIs(t, err, core.ErrEmptyOwner)

	list, err := s.ListExpenses(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testSessions(t *testing.T, s storage.Store) {
	ctx := context.Background()

	u := core.User{ID: "google-123", Email: "ana@example.com", Name: "Ana"}
	require.NoError(t, s.UpsertUser(ctx, u))
	u.Name = "Ana María"
	require.NoError(t, s.UpsertUser(ctx, u))
	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u, got)

	_, err = s.GetUser(ctx, "nobody")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	live := storage.Session{Token: "tok-live", UserID: u.ID, ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, s.SaveSession(ctx, live))
	sess, err := s.GetSession(ctx, live.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, sess.UserID)

	dead := storage.Session{Token: "tok-dead", UserID: u.ID, ExpiresAt: time.Now().Add(-time.Minute)}
	require.NoError(t, s.SaveSession(ctx, dead))
	_, err = s.GetSession(ctx, dead.Token)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.DeleteSession(ctx, live.Token))
	_, err = s.GetSession(ctx, live.Token)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	require.NoError(t, s.DeleteSession(ctx, "never-existed"))

	require.NoError(t, s.Ping(ctx))
}
