// Package storage persists ledger entries, users and sessions.
//
// Every ledger query takes the owner explicitly; backends never infer the
// current user.
package storage

import (
	"context"
	"errors"
	"time"

	"fintrack/internal/core"
)

// ErrNotFound is returned for missing entries and for entries owned by
// someone else.
var ErrNotFound = errors.New("not found")

// Ledger stores expenses and incomes. Lists are ordered oldest first.
type Ledger interface {
	CreateExpense(ctx context.Context, owner string, e core.Expense) (core.Expense, error)
	GetExpense(ctx context.Context, owner, id string) (core.Expense, error)
	ListExpenses(ctx context.Context, owner string) ([]core.Expense, error)
	DeleteExpense(ctx context.Context, owner, id string) error

	CreateIncome(ctx context.Context, owner string, i core.Income) (core.Income, error)
	GetIncome(ctx context.Context, owner, id string) (core.Income, error)
	ListIncomes(ctx context.Context, owner string) ([]core.Income, error)
	DeleteIncome(ctx context.Context, owner, id string) error
}

// Session is a server-side login.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

func (s Session) Expired(now time.Time) bool { return !now.Before(s.ExpiresAt) }

// SessionStore keeps users and their sessions.
type SessionStore interface {
	UpsertUser(ctx context.Context, u core.User) error
	GetUser(ctx context.Context, id string) (core.User, error)
	SaveSession(ctx context.Context, s Session) error
	// GetSession returns ErrNotFound for unknown or expired tokens.
	GetSession(ctx context.Context, token string) (Session, error)
	DeleteSession(ctx context.Context, token string) error
}

// Store is a complete backend.
type Store interface {
	Ledger
	SessionStore
	Ping(ctx context.Context) error
	Close() error
}
