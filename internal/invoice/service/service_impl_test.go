package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	auditrepository "github.com/anzalajra/gearent/internal/audit/repository"
	auditservice "github.com/anzalajra/gearent/internal/audit/service"
	"github.com/anzalajra/gearent/internal/clock"
	coadomain "github.com/anzalajra/gearent/internal/coa/domain"
	coarepository "github.com/anzalajra/gearent/internal/coa/repository"
	coaservice "github.com/anzalajra/gearent/internal/coa/service"
	"github.com/anzalajra/gearent/internal/config"
	"github.com/anzalajra/gearent/internal/events"
	"github.com/anzalajra/gearent/internal/invoice/domain"
	journaldomain "github.com/anzalajra/gearent/internal/journal/domain"
	journalservice "github.com/anzalajra/gearent/internal/journal/service"
	"github.com/anzalajra/gearent/internal/migration"
	"github.com/anzalajra/gearent/internal/reference"
	"github.com/anzalajra/gearent/internal/resolution"
	"github.com/anzalajra/gearent/internal/settings"
	"github.com/anzalajra/gearent/internal/tax"
)

var invoiceTestDate = time.Date(2025, 7, 20, 9, 0, 0, 0, time.UTC)

type invoiceTestEnv struct {
	db         *gorm.DB
	node       *snowflake.Node
	coaSvc     coadomain.Service
	svc        domain.Service
	journalSvc journaldomain.Service
}

func TestIssueComputesPPNAndPosts(t *testing.T) {
	env := setupInvoiceTest(t, true)
	ctx := context.Background()

	invoice, err := env.svc.Issue(ctx, domain.IssueRequest{
		RentalID:  101,
		Date:      invoiceTestDate,
		Subtotal:  decimal.NewFromInt(1_000_000),
		IsTaxable: true,
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !strings.HasPrefix(invoice.InvoiceNumber, "INV-20250720") {
		t.Fatalf("unexpected invoice number %q", invoice.InvoiceNumber)
	}
	if invoice.Status != domain.InvoiceStatusIssued {
		t.Fatalf("expected issued, got %s", invoice.Status)
	}
	if invoice.Subtotal.StringFixed(2) != "1000000.00" ||
		invoice.PPNAmount.StringFixed(2) != "110000.00" ||
		invoice.Total.StringFixed(2) != "1110000.00" {
		t.Fatalf("unexpected amounts: %s / %s / %s",
			invoice.Subtotal.StringFixed(2), invoice.PPNAmount.StringFixed(2), invoice.Total.StringFixed(2))
	}

	entry, err := env.journalSvc.EntryForReference(ctx, reference.Ref{Kind: reference.KindInvoice, ID: invoice.ID})
	if err != nil {
		t.Fatalf("entry lookup: %v", err)
	}
	if entry == nil {
		t.Fatal("expected a receivable posting")
	}
}

func TestIssueInclusivePricing(t *testing.T) {
	env := setupInvoiceTest(t, true)

	invoice, err := env.svc.Issue(context.Background(), domain.IssueRequest{
		Date:             invoiceTestDate,
		Subtotal:         decimal.NewFromInt(1_110_000),
		IsTaxable:        true,
		PriceIncludesTax: true,
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if invoice.Subtotal.StringFixed(2) != "1000000.00" ||
		invoice.PPNAmount.StringFixed(2) != "110000.00" ||
		invoice.Total.StringFixed(2) != "1110000.00" {
		t.Fatalf("unexpected amounts: %s / %s / %s",
			invoice.Subtotal.StringFixed(2), invoice.PPNAmount.StringFixed(2), invoice.Total.StringFixed(2))
	}
}

func TestIssueExemptCustomer(t *testing.T) {
	env := setupInvoiceTest(t, true)
	ctx := context.Background()

	customer := &domain.Customer{Name: "Dinas PU", TaxType: string(tax.TaxTypeGovernment), IsTaxExempt: true}
	if err := env.svc.CreateCustomer(ctx, customer); err != nil {
		t.Fatalf("create customer: %v", err)
	}

	invoice, err := env.svc.Issue(ctx, domain.IssueRequest{
		CustomerID: customer.ID,
		Date:       invoiceTestDate,
		Subtotal:   decimal.NewFromInt(500_000),
		IsTaxable:  true,
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !invoice.PPNAmount.IsZero() {
		t.Fatalf("expected zero PPN for exempt customer, got %s", invoice.PPNAmount.StringFixed(2))
	}
	if invoice.Total.StringFixed(2) != "500000.00" {
		t.Fatalf("expected 500000.00, got %s", invoice.Total.StringFixed(2))
	}
}

func TestIssueWithoutMappingStillIssues(t *testing.T) {
	env := setupInvoiceTest(t, false)
	ctx := context.Background()

	invoice, err := env.svc.Issue(ctx, domain.IssueRequest{
		Date:      invoiceTestDate,
		Subtotal:  decimal.NewFromInt(100_000),
		IsTaxable: true,
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if invoice.Status != domain.InvoiceStatusIssued {
		t.Fatalf("expected issued, got %s", invoice.Status)
	}

	entry, err := env.journalSvc.EntryForReference(ctx, reference.Ref{Kind: reference.KindInvoice, ID: invoice.ID})
	if err != nil {
		t.Fatalf("entry lookup: %v", err)
	}
	if entry != nil {
		t.Fatal("expected no posting without an event mapping")
	}
}

func TestIssueValidation(t *testing.T) {
	env := setupInvoiceTest(t, true)
	ctx := context.Background()

	_, err := env.svc.Issue(ctx, domain.IssueRequest{Subtotal: decimal.Zero})
	if !errors.Is(err, domain.ErrInvalidSubtotal) {
		t.Fatalf("expected ErrInvalidSubtotal, got %v", err)
	}

	_, err = env.svc.Issue(ctx, domain.IssueRequest{
		CustomerID: 999_999,
		Subtotal:   decimal.NewFromInt(100),
		IsTaxable:  true,
	})
	if !errors.Is(err, domain.ErrInvalidCustomer) {
		t.Fatalf("expected ErrInvalidCustomer, got %v", err)
	}
}

func TestStatusTransitions(t *testing.T) {
	env := setupInvoiceTest(t, true)
	ctx := context.Background()

	invoice, err := env.svc.Issue(ctx, domain.IssueRequest{
		Date:      invoiceTestDate,
		Subtotal:  decimal.NewFromInt(100_000),
		IsTaxable: false,
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := env.svc.MarkPaid(ctx, invoice.ID); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	reloaded, err := env.svc.FindByID(ctx, invoice.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Status != domain.InvoiceStatusPaid {
		t.Fatalf("expected paid, got %s", reloaded.Status)
	}

	// A paid invoice cannot be cancelled or paid again.
	if err := env.svc.Cancel(ctx, invoice.ID); !errors.Is(err, domain.ErrInvoiceNotIssued) {
		t.Fatalf("expected ErrInvoiceNotIssued, got %v", err)
	}
	if err := env.svc.MarkPaid(ctx, invoice.ID); !errors.Is(err, domain.ErrInvoiceNotIssued) {
		t.Fatalf("expected ErrInvoiceNotIssued, got %v", err)
	}

	if err := env.svc.MarkPaid(ctx, 31337); !errors.Is(err, domain.ErrInvoiceNotFound) {
		t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
	}
}

func setupInvoiceTest(t *testing.T, withMapping bool) *invoiceTestEnv {
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

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	coaSvc := coaservice.NewService(coaservice.ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  coarepository.Provide(),
	})
	auditSvc := auditservice.NewService(auditservice.ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  auditrepository.Provide(),
	})
	keywords, err := resolution.DefaultKeywordTable()
	if err != nil {
		t.Fatalf("keyword table: %v", err)
	}
	resolutionSvc := resolution.NewService(resolution.ServiceParam{
		DB:       db,
		Log:      zap.NewNop(),
		CoaSvc:   coaSvc,
		AuditSvc: auditSvc,
		Keywords: keywords,
	})
	outbox := events.NewOutbox(db, node)
	journalSvc := journalservice.NewService(journalservice.ServiceParam{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		Cfg:        config.Config{},
		Clock:      clock.Fixed{Instant: invoiceTestDate},
		CoaSvc:     coaSvc,
		Resolution: resolutionSvc,
		Outbox:     outbox,
	})
	settingsSvc := settings.NewService(settings.ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
	})
	calculator := tax.NewCalculator(tax.CalculatorParam{
		Log:      zap.NewNop(),
		Settings: settingsSvc,
	})

	ctx := context.Background()
	if withMapping {
		receivable := &coadomain.Account{Code: "1-1300", Name: "Piutang Usaha", Type: coadomain.AccountTypeAsset}
		revenue := &coadomain.Account{Code: "4-1100", Name: "Pendapatan Sewa", Type: coadomain.AccountTypeRevenue}
		for _, account := range []*coadomain.Account{receivable, revenue} {
			if err := coaSvc.CreateAccount(ctx, account); err != nil {
				t.Fatalf("create account %s: %v", account.Code, err)
			}
		}
		seedMapping := func(role coadomain.MappingRole, accountID snowflake.ID) {
			err := db.Create(&coadomain.AccountMapping{
				ID:        node.Generate(),
				Event:     coadomain.EventRentalInvoiceIssued,
				Role:      role,
				AccountID: accountID,
				CreatedAt: time.Now().UTC(),
			}).Error
			if err != nil {
				t.Fatalf("seed mapping: %v", err)
			}
		}
		seedMapping(coadomain.MappingRoleDebit, receivable.ID)
		seedMapping(coadomain.MappingRoleCredit, revenue.ID)
	}

	svc := NewService(ServiceParam{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		Clock:      clock.Fixed{Instant: invoiceTestDate},
		Calculator: calculator,
		JournalSvc: journalSvc,
		Outbox:     outbox,
	})

	return &invoiceTestEnv{db: db, node: node, coaSvc: coaSvc, svc: svc, journalSvc: journalSvc}
}
