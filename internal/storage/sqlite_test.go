package storage_test

import (
	"path/filepath"
	"testing"

	"fintrack/internal/storage"
	"fintrack/internal/storage/storagetest"
)

func newSQLite(t *testing.T) storage.Store {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"), nil)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSQLiteRepositoryContract(t *testing.T) {
	storagetest.Run(t, newSQLite)
}

func TestMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")

	v, dirty, err := storage.MigrationVersion(path)
	if err != nil || v != 0 || dirty {
		t.Fatalf("fresh database: version=%d dirty=%v err=%v", v, dirty, err)
	}

	if err := storage.RunMigrations(path); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	if err := storage.RunMigrations(path); err != nil {
		t.Fatalf("RunMigrations twice: %v", err)
	}
	v, _, err = storage.MigrationVersion(path)
	if err != nil || v != 1 {
		t.Fatalf("after up: version=%d err=%v", v, err)
	}

	if err := storage.RollbackMigrations(path, 1); err != nil {
		t.Fatalf("RollbackMigrations: %v", err)
	}
	v, _, err = storage.MigrationVersion(path)
	if err != nil || v != 0 {
		t.Fatalf("after down: version=%d err=%v", v, err)
	}
}
