package backend

import (
	"context"
	"path/filepath"
	"testing"

	"fintrack/internal/config"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Type != SQLite || cfg.SQLiteDBPath != "x.db" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestFactoryCreate(t *testing.T) {
	f := NewFactory(nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: Memory}, false},
		{"sqlite", Config{Type: SQLite, SQLiteDBPath: filepath.Join(t.TempDir(), "f.db")}, false},
		{"sqlite without path", Config{Type: SQLite}, true},
		{"postgres without url", Config{Type: Postgres}, true},
		{"unknown", Config{Type: "firestore"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.Create(ctx, tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := res.Store.Ping(ctx); err != nil {
				t.Fatalf("ping: %v", err)
			}
			if err := res.Cleanup(); err != nil {
				t.Fatalf("cleanup: %v", err)
			}
		})
	}
}
