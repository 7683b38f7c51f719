package backend

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/storage"
	"fintrack/internal/storage/memory"
	"fintrack/internal/storage/postgres"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *DefaultFactory {
	if logger == nil {
		logger = slog.Default().With(log.FieldComponent, log.ComponentBackend)
	}
	return &DefaultFactory{logger: logger}
}

// FromAppConfig extracts the storage settings from the application config.
func FromAppConfig(c *config.Config) (Config, error) {
	if c == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	t := Type(c.DataBackend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", c.DataBackend)
	}
	return Config{Type: t, SQLiteDBPath: c.SQLiteDBPath, DatabaseURL: c.DatabaseURL}, nil
}

func (f *DefaultFactory) Create(ctx context.Context, cfg Config) (*Result, error) {
	switch cfg.Type {
	case SQLite:
		if cfg.SQLiteDBPath == "" {
			return nil, fmt.Errorf("SQLite database path is required for sqlite backend")
		}
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return &Result{Store: repo, Cleanup: repo.Close}, nil

	case Postgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL is required for postgres backend")
		}
		store, err := postgres.Open(ctx, cfg.DatabaseURL, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL store: %w", err)
		}
		f.logger.Info("Initialized PostgreSQL backend")
		return &Result{Store: store, Cleanup: store.Close}, nil

	case Memory:
		f.logger.Warn("Using in-memory backend, data is lost on restart")
		store := memory.New()
		return &Result{Store: store, Cleanup: store.Close}, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}
