package backend

import (
	"context"
	"path/filepath"
	"testing"

	"finassist/internal/config"
	"finassist/internal/storage"
)

func TestFromAppConfig(t *testing.T) {
	cfg := config.Default()
	cfg.DataBackend = "postgres"
	cfg.DatabaseURL = "postgres://localhost/db"

	got, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if got.Type != PostgresBackend || got.DatabaseURL != cfg.DatabaseURL {
		t.Errorf("config = %+v", got)
	}

	cfg.DataBackend = "sheets"
	if _, err := FromAppConfig(cfg); err == nil {
		t.Error("expected error for unknown backend")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"postgres without url", Config{Type: PostgresBackend}, true},
		{"memory", Config{Type: MemoryBackend}, false},
		{"none", Config{Type: NoneBackend}, false},
		{"unknown", Config{Type: "sheets"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	t.Run("none has no store", func(t *testing.T) {
		res, err := f.CreateBackend(ctx, Config{Type: NoneBackend})
		if err != nil {
			t.Fatal(err)
		}
		if res.Store != nil || res.Publisher() != nil {
			t.Errorf("result = %+v", res)
		}
		if err := res.Cleanup(); err != nil {
			t.Errorf("cleanup: %v", err)
		}
	})

	t.Run("memory", func(t *testing.T) {
		res, err := f.CreateBackend(ctx, Config{Type: MemoryBackend})
		if err != nil {
			t.Fatal(err)
		}
		if res.Store == nil {
			t.Fatal("expected a store")
		}
		if err := res.Store.Ping(ctx); err != nil {
			t.Errorf("ping: %v", err)
		}
	})

	t.Run("sqlite migrates", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "finassist.db")
		res, err := f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path})
		if err != nil {
			t.Fatal(err)
		}
		defer res.Cleanup()
		if _, ok := res.Store.(*storage.Repository); !ok {
			t.Errorf("store = %T", res.Store)
		}
		if err := res.Store.Ping(ctx); err != nil {
			t.Errorf("ping: %v", err)
		}
	})
}
