package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the default Store, backed by a single SQLite file.
type SQLiteRepository struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

var _ Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string, logger *slog.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, logger: logger, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) stamp(t time.Time) time.Time {
	if t.IsZero() {
		t = r.now()
	}
	return t.UTC()
}

func fromUnixNano(n int64) time.Time { return time.Unix(0, n).UTC() }

func (r *SQLiteRepository) CreateExpense(ctx context.Context, owner string, e core.Expense) (core.Expense, error) {
	e.OwnerID = owner
	e.ID = uuid.NewString()
	e.CreatedAt = r.stamp(e.CreatedAt)
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (id, owner_id, amount_cents, description, category, icon, color, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OwnerID, e.Amount.Cents, e.Description, string(e.Category), e.Icon, e.Color, e.CreatedAt.UnixNano())
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	r.logger.DebugContext(ctx, "Expense saved to SQLite", "id", e.ID, "owner_id", owner, "amount_cents", e.Amount.Cents)
	return e, nil
}

const expenseColumns = `id, owner_id, amount_cents, description, category, icon, color, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(s rowScanner) (core.Expense, error) {
	var (
		e        core.Expense
		category string
		created  int64
	)
	if err := s.Scan(&e.ID, &e.OwnerID, &e.Amount.Cents, &e.Description, &category, &e.Icon, &e.Color, &created); err != nil {
		return core.Expense{}, err
	}
	e.Category = core.Category(category)
	e.CreatedAt = fromUnixNano(created)
	return e, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, owner, id string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ? AND owner_id = ?`, id, owner)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, owner string) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE owner_id = ? ORDER BY created_at, id`, owner)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, owner, id string) error {
	return r.deleteOwned(ctx, "expenses", owner, id)
}

func (r *SQLiteRepository) deleteOwned(ctx context.Context, table, owner, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ? AND owner_id = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) CreateIncome(ctx context.Context, owner string, i core.Income) (core.Income, error) {
	i.OwnerID = owner
	i.ID = uuid.NewString()
	i.CreatedAt = r.stamp(i.CreatedAt)
	if err := i.Validate(); err != nil {
		return core.Income{}, err
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO incomes (id, owner_id, amount_cents, description, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		i.ID, i.OwnerID, i.Amount.Cents, i.Description, i.CreatedAt.UnixNano())
	if err != nil {
		return core.Income{}, fmt.Errorf("insert income: %w", err)
	}
	return i, nil
}

func scanIncome(s rowScanner) (core.Income, error) {
	var (
		i       core.Income
		created int64
	)
	if err := s.Scan(&i.ID, &i.OwnerID, &i.Amount.Cents, &i.Description, &created); err != nil {
		return core.Income{}, err
	}
	i.CreatedAt = fromUnixNano(created)
	return i, nil
}

func (r *SQLiteRepository) GetIncome(ctx context.Context, owner, id string) (core.Income, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, amount_cents, description, created_at FROM incomes WHERE id = ? AND owner_id = ?`, id, owner)
	i, err := scanIncome(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Income{}, ErrNotFound
	}
	if err != nil {
		return core.Income{}, fmt.Errorf("get income: %w", err)
	}
	return i, nil
}

func (r *SQLiteRepository) ListIncomes(ctx context.Context, owner string) ([]core.Income, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, amount_cents, description, created_at FROM incomes WHERE owner_id = ? ORDER BY created_at, id`, owner)
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	defer rows.Close()

	var out []core.Income
	for rows.Next() {
		i, err := scanIncome(rows)
		if err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) DeleteIncome(ctx context.Context, owner, id string) error {
	return r.deleteOwned(ctx, "incomes", owner, id)
}

func (r *SQLiteRepository) UpsertUser(ctx context.Context, u core.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET email = excluded.email, name = excluded.name`,
		u.ID, u.Email, u.Name, r.now().UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx, `SELECT id, email, name FROM users WHERE id = ?`, id).Scan(&u.ID, &u.Email, &u.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) SaveSession(ctx context.Context, s Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)`,
		s.Token, s.UserID, s.ExpiresAt.UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetSession(ctx context.Context, token string) (Session, error) {
	var (
		s       Session
		expires int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT token, user_id, expires_at FROM sessions WHERE token = ?`, token).Scan(&s.Token, &s.UserID, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	s.ExpiresAt = fromUnixNano(expires)
	if s.Expired(r.now()) {
		_ = r.DeleteSession(ctx, token)
		return Session{}, ErrNotFound
	}
	return s, nil
}

func (r *SQLiteRepository) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
