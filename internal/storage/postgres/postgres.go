// Package postgres is a storage.Store on PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

//go:embed schema.sql
var schema string

type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	now    func() time.Time
}

var _ storage.Store = (*Store)(nil)

// Open connects to databaseURL and creates missing tables.
func Open(ctx context.Context, databaseURL string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default().With(log.FieldComponent, log.ComponentStorage)
	}
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logger.Info("Connected to PostgreSQL", "max_conns", cfg.MaxConns)
	return &Store{pool: pool, logger: logger, now: time.Now}, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) stamp(t time.Time) time.Time {
	if t.IsZero() {
		t = s.now()
	}
	return t.UTC()
}

func (s *Store) CreateExpense(ctx context.Context, owner string, e core.Expense) (core.Expense, error) {
	e.OwnerID = owner
	e.ID = uuid.NewString()
	e.CreatedAt = s.stamp(e.CreatedAt)
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO expenses (id, owner_id, amount_cents, description, category, icon, color, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.OwnerID, e.Amount.Cents, e.Description, string(e.Category), e.Icon, e.Color, e.CreatedAt)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	return e, nil
}

const expenseColumns = `id, owner_id, amount_cents, description, category, icon, color, created_at`

func scanExpense(row pgx.Row) (core.Expense, error) {
	var (
		e        core.Expense
		category string
	)
	if err := row.Scan(&e.ID, &e.OwnerID, &e.Amount.Cents, &e.Description, &category, &e.Icon, &e.Color, &e.CreatedAt); err != nil {
		return core.Expense{}, err
	}
	e.Category = core.Category(category)
	e.CreatedAt = e.CreatedAt.UTC()
	return e, nil
}

func (s *Store) GetExpense(ctx context.Context, owner, id string) (core.Expense, error) {
	e, err := scanExpense(s.pool.QueryRow(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = $1 AND owner_id = $2`, id, owner))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Expense{}, storage.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (s *Store) ListExpenses(ctx context.Context, owner string) ([]core.Expense, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE owner_id = $1 ORDER BY created_at, id`, owner)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (core.Expense, error) { return scanExpense(r) })
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return out, nil
}

func (s *Store) DeleteExpense(ctx context.Context, owner, id string) error {
	return s.deleteOwned(ctx, "expenses", owner, id)
}

func (s *Store) deleteOwned(ctx context.Context, table, owner, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1 AND owner_id = $2`, id, owner)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) CreateIncome(ctx context.Context, owner string, i core.Income) (core.Income, error) {
	i.OwnerID = owner
	i.ID = uuid.NewString()
	i.CreatedAt = s.stamp(i.CreatedAt)
	if err := i.Validate(); err != nil {
		return core.Income{}, err
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO incomes (id, owner_id, amount_cents, description, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		i.ID, i.OwnerID, i.Amount.Cents, i.Description, i.CreatedAt)
	if err != nil {
		return core.Income{}, fmt.Errorf("insert income: %w", err)
	}
	return i, nil
}

func scanIncome(row pgx.Row) (core.Income, error) {
	var i core.Income
	if err := row.Scan(&i.ID, &i.OwnerID, &i.Amount.Cents, &i.Description, &i.CreatedAt); err != nil {
		return core.Income{}, err
	}
	i.CreatedAt = i.CreatedAt.UTC()
	return i, nil
}

func (s *Store) GetIncome(ctx context.Context, owner, id string) (core.Income, error) {
	i, err := scanIncome(s.pool.QueryRow(ctx,
		`SELECT id, owner_id, amount_cents, description, created_at FROM incomes WHERE id = $1 AND owner_id = $2`, id, owner))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Income{}, storage.ErrNotFound
	}
	if err != nil {
		return core.Income{}, fmt.Errorf("get income: %w", err)
	}
	return i, nil
}

func (s *Store) ListIncomes(ctx context.Context, owner string) ([]core.Income, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, owner_id, amount_cents, description, created_at FROM incomes WHERE owner_id = $1 ORDER BY created_at, id`, owner)
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (core.Income, error) { return scanIncome(r) })
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	return out, nil
}

func (s *Store) DeleteIncome(ctx context.Context, owner, id string) error {
	return s.deleteOwned(ctx, "incomes", owner, id)
}

func (s *Store) UpsertUser(ctx context.Context, u core.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, name) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, name = EXCLUDED.name`,
		u.ID, u.Email, u.Name)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (core.User, error) {
	var u core.User
	err := s.pool.QueryRow(ctx, `SELECT id, email, name FROM users WHERE id = $1`, id).Scan(&u.ID, &u.Email, &u.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.User{}, storage.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *Store) SaveSession(ctx context.Context, sess storage.Session) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (token, user_id, expires_at) VALUES ($1, $2, $3)
		ON CONFLICT (token) DO UPDATE SET user_id = EXCLUDED.user_id, expires_at = EXCLUDED.expires_at`,
		sess.Token, sess.UserID, sess.ExpiresAt.UTC())
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, token string) (storage.Session, error) {
	var sess storage.Session
	err := s.pool.QueryRow(ctx,
		`SELECT token, user_id, expires_at FROM sessions WHERE token = $1`, token).Scan(&sess.Token, &sess.UserID, &sess.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.Session{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Session{}, fmt.Errorf("get session: %w", err)
	}
	if sess.Expired(s.now()) {
		_ = s.DeleteSession(ctx, token)
		return storage.Session{}, storage.ErrNotFound
	}
	return sess, nil
}

func (s *Store) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
