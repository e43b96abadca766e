package seed

import (
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/anzalajra/gearent/internal/migration"
)

func TestEnsureChartOfAccountsIsIdempotent(t *testing.T) {
	db := setupSeedTestDB(t)

	if err := EnsureChartOfAccounts(db); err != nil {
		t.Fatalf("first seed: %v", err)
	}

	accounts := countRows(t, db, "accounts")
	mappings := countRows(t, db, "account_mappings")
	settings := countRows(t, db, "settings")
	if accounts == 0 || mappings == 0 || settings == 0 {
		t.Fatalf("expected seeded rows, got accounts=%d mappings=%d settings=%d", accounts, mappings, settings)
	}

	if err := EnsureChartOfAccounts(db); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if got := countRows(t, db, "accounts"); got != accounts {
		t.Fatalf("accounts not idempotent: %d then %d", accounts, got)
	}
	if got := countRows(t, db, "account_mappings"); got != mappings {
		t.Fatalf("mappings not idempotent: %d then %d", mappings, got)
	}
	if got := countRows(t, db, "settings"); got != settings {
		t.Fatalf("settings not idempotent: %d then %d", settings, got)
	}
}

func TestEnsureChartOfAccountsShape(t *testing.T) {
	db := setupSeedTestDB(t)

	if err := EnsureChartOfAccounts(db); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// The cash account exists and is a sub-account of the cash & bank group.
	var isSub bool
	err := db.Raw(`SELECT is_sub_account FROM accounts WHERE code = '1-1100'`).Scan(&isSub).Error
	if err != nil {
		t.Fatalf("load 1-1100: %v", err)
	}
	if !isSub {
		t.Fatal("expected 1-1100 to be a sub-account")
	}

	// Every posting event carries both sides.
	rows := []struct {
		Event string
		N     int64
	}{}
	err = db.Raw(`SELECT event, COUNT(1) AS n FROM account_mappings GROUP BY event`).Scan(&rows).Error
	if err != nil {
		t.Fatalf("group mappings: %v", err)
	}
	if len(rows) == 0 {
		t.Fatal("expected event mappings")
	}
	for _, row := range rows {
		if row.N != 2 {
			t.Fatalf("event %s has %d mappings, want 2", row.Event, row.N)
		}
	}

	var taxEnabled string
	err = db.Raw(`SELECT value FROM settings WHERE key = 'tax_enabled'`).Scan(&taxEnabled).Error
	if err != nil {
		t.Fatalf("load tax_enabled: %v", err)
	}
	if taxEnabled != "true" {
		t.Fatalf("expected tax_enabled=true, got %q", taxEnabled)
	}
}

func setupSeedTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap db: %v", err)
	}
	if err := migration.RunMigrations(sqlDB); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func countRows(t *testing.T, db *gorm.DB, table string) int64 {
	t.Helper()
	var count int64
	if err := db.Raw(`SELECT COUNT(1) FROM ` + table).Scan(&count).Error; err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return count
}
