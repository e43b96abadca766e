package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("JOURNAL_STRICT_BALANCE", "")
	t.Setenv("FINANCE_SYNC_BATCH_SIZE", "")

	cfg := Load()

	if cfg.Environment != "development" {
		t.Fatalf("expected development, got %q", cfg.Environment)
	}
	if cfg.StrictBalance {
		t.Fatal("expected lenient balance policy by default")
	}
	if cfg.SyncBatchSize != 100 {
		t.Fatalf("expected batch size 100, got %d", cfg.SyncBatchSize)
	}
	if cfg.IsProduction() {
		t.Fatal("development must not report production")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "Production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("JOURNAL_STRICT_BALANCE", "true")
	t.Setenv("FINANCE_SYNC_BATCH_SIZE", "25")
	t.Setenv("DB_MAX_OPEN_CONNS", "3")

	cfg := Load()

	if !cfg.IsProduction() {
		t.Fatal("expected production")
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected debug, got %q", cfg.LogLevel)
	}
	if !cfg.StrictBalance {
		t.Fatal("expected strict balance")
	}
	if cfg.SyncBatchSize != 25 {
		t.Fatalf("expected 25, got %d", cfg.SyncBatchSize)
	}
	if cfg.Database.MaxOpenConns != 3 {
		t.Fatalf("expected 3, got %d", cfg.Database.MaxOpenConns)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("JOURNAL_STRICT_BALANCE", "definitely")
	t.Setenv("FINANCE_SYNC_BATCH_SIZE", "many")

	cfg := Load()

	if cfg.StrictBalance {
		t.Fatal("malformed bool should fall back")
	}
	if cfg.SyncBatchSize != 100 {
		t.Fatalf("malformed int should fall back, got %d", cfg.SyncBatchSize)
	}
}
