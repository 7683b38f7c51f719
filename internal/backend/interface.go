package backend

import (
	"context"

	"fintrack/internal/storage"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result is a ready store plus its cleanup.
type Result struct {
	Store   storage.Store
	Cleanup CleanupFunc
}

// Factory creates stores based on configuration
type Factory interface {
	Create(ctx context.Context, cfg Config) (*Result, error)
}

type Config struct {
	Type         Type
	SQLiteDBPath string
	DatabaseURL  string
}

// Type names a storage backend.
type Type string

const (
	SQLite   Type = "sqlite"
	Postgres Type = "postgres"
	Memory   Type = "memory"
)

func (t Type) String() string { return string(t) }

func (t Type) IsValid() bool {
	switch t {
	case SQLite, Postgres, Memory:
		return true
	default:
		return false
	}
}
