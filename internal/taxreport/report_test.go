package taxreport

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	invoicedomain "github.com/anzalajra/gearent/internal/invoice/domain"
	"github.com/anzalajra/gearent/internal/migration"
)

func TestGenerateAggregatesTaxableInvoices(t *testing.T) {
	generator, db := setupReportTest(t)

	july := func(day int) time.Time {
		return time.Date(2025, 7, day, 12, 0, 0, 0, time.UTC)
	}
	insertInvoice(t, db, 1, july(1), "1000000", "110000", "1110000", true, invoicedomain.InvoiceStatusIssued)
	insertInvoice(t, db, 2, july(10), "2000000", "220000", "2220000", true, invoicedomain.InvoiceStatusPaid)
	// Outside the period.
	insertInvoice(t, db, 3, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), "500000", "55000", "555000", true, invoicedomain.InvoiceStatusIssued)
	// Excluded statuses.
	insertInvoice(t, db, 4, july(15), "700000", "77000", "777000", true, invoicedomain.InvoiceStatusDraft)
	insertInvoice(t, db, 5, july(16), "800000", "88000", "888000", true, invoicedomain.InvoiceStatusCancelled)
	// Not taxable.
	insertInvoice(t, db, 6, july(20), "300000", "0", "300000", false, invoicedomain.InvoiceStatusIssued)

	report, err := generator.Generate(context.Background(),
		time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 7, 31, 23, 59, 59, 0, time.UTC))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if report.Count != 2 {
		t.Fatalf("expected 2 invoices, got %d", report.Count)
	}
	if report.TotalTaxBase.StringFixed(2) != "3000000.00" {
		t.Fatalf("expected base 3000000.00, got %s", report.TotalTaxBase.StringFixed(2))
	}
	if report.TotalPPNPayable.StringFixed(2) != "330000.00" {
		t.Fatalf("expected PPN 330000.00, got %s", report.TotalPPNPayable.StringFixed(2))
	}
	if report.TotalSales.StringFixed(2) != "3330000.00" {
		t.Fatalf("expected sales 3330000.00, got %s", report.TotalSales.StringFixed(2))
	}
}

func TestGenerateEmptyPeriod(t *testing.T) {
	generator, _ := setupReportTest(t)

	report, err := generator.Generate(context.Background(),
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if report.Count != 0 || !report.TotalPPNPayable.IsZero() {
		t.Fatalf("expected empty report, got %+v", report)
	}
}

func TestGenerateRejectsInvalidPeriod(t *testing.T) {
	generator, _ := setupReportTest(t)

	start := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if _, err := generator.Generate(context.Background(), start, end); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
	if _, err := generator.Generate(context.Background(), time.Time{}, end); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod for zero start, got %v", err)
	}
}

func setupReportTest(t *testing.T) (*Generator, *gorm.DB) {
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
	generator := NewGenerator(GeneratorParam{DB: db, Log: zap.NewNop()})
	return generator, db
}

func insertInvoice(t *testing.T, db *gorm.DB, id int64, date time.Time, subtotal, ppn, total string, taxable bool, status invoicedomain.InvoiceStatus) {
	t.Helper()
	err := db.Exec(
		`INSERT INTO invoices (id, invoice_number, date, subtotal, is_taxable, ppn_rate, ppn_amount, total, status)
		 VALUES (?, ?, ?, ?, ?, 11, ?, ?, ?)`,
		id, "INV-TEST-"+time.Now().Format("150405")+"-"+string(rune('a'+id)), date, subtotal, taxable, ppn, total, status,
	).Error
	if err != nil {
		t.Fatalf("insert invoice: %v", err)
	}
}
