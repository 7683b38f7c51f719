// Package memory is an in-process Store for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type Store struct {
	mu       sync.RWMutex
	expenses map[string]core.Expense
	incomes  map[string]core.Income
	users    map[string]core.User
	sessions map[string]storage.Session
	now      func() time.Time
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		expenses: make(map[string]core.Expense),
		incomes:  make(map[string]core.Income),
		users:    make(map[string]core.User),
		sessions: make(map[string]storage.Session),
		now:      time.Now,
	}
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

func (s *Store) stamp(t time.Time) time.Time {
	if t.IsZero() {
		t = s.now()
	}
	return t.UTC()
}

func (s *Store) CreateExpense(_ context.Context, owner string, e core.Expense) (core.Expense, error) {
	e.OwnerID = owner
	e.ID = uuid.NewString()
	e.CreatedAt = s.stamp(e.CreatedAt)
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses[e.ID] = e
	return e, nil
}

func (s *Store) GetExpense(_ context.Context, owner, id string) (core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.expenses[id]
	if !ok || e.OwnerID != owner {
		return core.Expense{}, storage.ErrNotFound
	}
	return e, nil
}

func (s *Store) ListExpenses(_ context.Context, owner string) ([]core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Expense
	for _, e := range s.expenses {
		if e.OwnerID == owner {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) DeleteExpense(_ context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok || e.OwnerID != owner {
		return storage.ErrNotFound
	}
	delete(s.expenses, id)
	return nil
}

func (s *Store) CreateIncome(_ context.Context, owner string, i core.Income) (core.Income, error) {
	i.OwnerID = owner
	i.ID = uuid.NewString()
	i.CreatedAt = s.stamp(i.CreatedAt)
	if err := i.Validate(); err != nil {
		return core.Income{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incomes[i.ID] = i
	return i, nil
}

func (s *Store) GetIncome(_ context.Context, owner, id string) (core.Income, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.incomes[id]
	if !ok || i.OwnerID != owner {
		return core.Income{}, storage.ErrNotFound
	}
	return i, nil
}

func (s *Store) ListIncomes(_ context.Context, owner string) ([]core.Income, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Income
	for _, i := range s.incomes {
		if i.OwnerID == owner {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].ID < out[b].ID
		}
		return out[a].CreatedAt.Before(out[b].CreatedAt)
	})
	return out, nil
}

func (s *Store) DeleteIncome(_ context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.incomes[id]
	if !ok || i.OwnerID != owner {
		return storage.ErrNotFound
	}
	delete(s.incomes, id)
	return nil
}

func (s *Store) UpsertUser(_ context.Context, u core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (s *Store) SaveSession(_ context.Context, sess storage.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Token] = sess
	return nil
}

func (s *Store) GetSession(_ context.Context, token string) (storage.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return storage.Session{}, storage.ErrNotFound
	}
	if sess.Expired(s.now()) {
		delete(s.sessions, token)
		return storage.Session{}, storage.ErrNotFound
	}
	return sess, nil
}

func (s *Store) DeleteSession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}
