package service

import (
	"context"
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
	"github.com/anzalajra/gearent/internal/finance/domain"
	invoicedomain "github.com/anzalajra/gearent/internal/invoice/domain"
	invoiceservice "github.com/anzalajra/gearent/internal/invoice/service"
	journalservice "github.com/anzalajra/gearent/internal/journal/service"
	"github.com/anzalajra/gearent/internal/migration"
	"github.com/anzalajra/gearent/internal/reference"
	"github.com/anzalajra/gearent/internal/resolution"
	"github.com/anzalajra/gearent/internal/settings"
	"github.com/anzalajra/gearent/internal/tax"
)

// Full rental money trail: issue a taxable invoice, record the payment as a
// cashbook transaction, then reconcile and check the resulting postings.
func TestRentalPaymentFlowsIntoJournal(t *testing.T) {
	flowDate := time.Date(2025, 7, 20, 9, 0, 0, 0, time.UTC)

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
		Clock:      clock.Fixed{Instant: flowDate},
		CoaSvc:     coaSvc,
		Resolution: resolutionSvc,
		Outbox:     outbox,
	})
	settingsSvc := settings.NewService(settings.ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
	})
	invoiceSvc := invoiceservice.NewService(invoiceservice.ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.Fixed{Instant: flowDate},
		Calculator: tax.NewCalculator(tax.CalculatorParam{
			Log:      zap.NewNop(),
			Settings: settingsSvc,
		}),
		JournalSvc: journalSvc,
		Outbox:     outbox,
	})
	financeSvc := NewService(ServiceParam{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		Cfg:        config.Config{SyncBatchSize: 50},
		JournalSvc: journalSvc,
		AuditSvc:   auditSvc,
	})

	ctx := context.Background()
	cash := &coadomain.Account{Code: "1-1100", Name: "Kas", Type: coadomain.AccountTypeAsset}
	receivable := &coadomain.Account{Code: "1-1300", Name: "Piutang Usaha", Type: coadomain.AccountTypeAsset}
	revenue := &coadomain.Account{Code: "4-1100", Name: "Pendapatan Sewa", Type: coadomain.AccountTypeRevenue}
	for _, account := range []*coadomain.Account{cash, receivable, revenue} {
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

	invoice, err := invoiceSvc.Issue(ctx, invoicedomain.IssueRequest{
		RentalID:  301,
		Date:      flowDate,
		Subtotal:  decimal.NewFromInt(1_000_000),
		IsTaxable: true,
	})
	if err != nil {
		t.Fatalf("issue invoice: %v", err)
	}
	if invoice.Total.StringFixed(2) != "1110000.00" {
		t.Fatalf("expected total 1110000.00, got %s", invoice.Total.StringFixed(2))
	}
	receivableEntry, err := journalSvc.EntryForReference(ctx,
		reference.Ref{Kind: reference.KindInvoice, ID: invoice.ID})
	if err != nil {
		t.Fatalf("receivable entry lookup: %v", err)
	}
	if receivableEntry == nil {
		t.Fatal("expected a receivable posting for the issued invoice")
	}

	cashbook := &domain.FinanceAccount{Name: "Kas"}
	if err := financeSvc.CreateAccount(ctx, cashbook); err != nil {
		t.Fatalf("create finance account: %v", err)
	}
	payment := &domain.FinanceTransaction{
		FinanceAccountID: cashbook.ID,
		Type:             domain.TransactionTypeIncome,
		Amount:           invoice.Total,
		Date:             flowDate,
		Category:         "Pembayaran sewa alat",
		Description:      "Pelunasan " + invoice.InvoiceNumber,
	}
	if err := financeSvc.CreateTransaction(ctx, payment); err != nil {
		t.Fatalf("create payment: %v", err)
	}

	report, err := financeSvc.SyncAll(ctx, nil)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if report.Attempted != 1 || report.Posted != 1 {
		t.Fatalf("expected 1/1, got %d/%d", report.Attempted, report.Posted)
	}

	entry, err := journalSvc.EntryForReference(ctx,
		reference.Ref{Kind: reference.KindFinanceTransaction, ID: payment.ID})
	if err != nil {
		t.Fatalf("payment entry lookup: %v", err)
	}
	if entry == nil {
		t.Fatal("expected a posted payment entry")
	}
	if len(entry.Items) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(entry.Items))
	}
	for _, item := range entry.Items {
		switch item.AccountID {
		case cash.ID:
			if item.Debit.StringFixed(2) != "1110000.00" || item.Credit.Sign() != 0 {
				t.Fatalf("cash line wrong: debit=%s credit=%s",
					item.Debit.StringFixed(2), item.Credit.StringFixed(2))
			}
		case revenue.ID:
			if item.Credit.StringFixed(2) != "1110000.00" || item.Debit.Sign() != 0 {
				t.Fatalf("revenue line wrong: debit=%s credit=%s",
					item.Debit.StringFixed(2), item.Credit.StringFixed(2))
			}
		default:
			t.Fatalf("unexpected account %s on payment entry", item.AccountID)
		}
	}

	var reloaded domain.FinanceAccount
	if err := db.First(&reloaded, "id = ?", cashbook.ID).Error; err != nil {
		t.Fatalf("reload cashbook: %v", err)
	}
	if reloaded.LinkedAccountID == nil || *reloaded.LinkedAccountID != cash.ID {
		t.Fatal("expected cashbook linked to the Kas ledger account")
	}
}
