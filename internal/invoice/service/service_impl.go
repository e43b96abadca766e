package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/anzalajra/gearent/internal/clock"
	coadomain "github.com/anzalajra/gearent/internal/coa/domain"
	"github.com/anzalajra/gearent/internal/events"
	"github.com/anzalajra/gearent/internal/invoice/domain"
	journaldomain "github.com/anzalajra/gearent/internal/journal/domain"
	"github.com/anzalajra/gearent/internal/reference"
	"github.com/anzalajra/gearent/internal/tax"
)

type ServiceParam struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Calculator *tax.Calculator
	JournalSvc journaldomain.Service
	Outbox     *events.Outbox
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	calculator *tax.Calculator
	journalSvc journaldomain.Service
	outbox     *events.Outbox
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("invoice.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		calculator: p.Calculator,
		journalSvc: p.JournalSvc,
		outbox:     p.Outbox,
	}
}

func (s *Service) CreateCustomer(ctx context.Context, customer *domain.Customer) error {
	if customer == nil || strings.TrimSpace(customer.Name) == "" {
		return domain.ErrInvalidCustomer
	}
	customer.Name = strings.TrimSpace(customer.Name)
	if customer.TaxType == "" {
		customer.TaxType = string(tax.TaxTypeIndividual)
	}
	if customer.CountryCode == "" {
		customer.CountryCode = "ID"
	}
	if customer.ID == 0 {
		customer.ID = s.genID.Generate()
	}
	now := s.clock.Now()
	customer.CreatedAt = now
	customer.UpdatedAt = now
	return s.db.WithContext(ctx).Create(customer).Error
}

// Issue computes the tax breakdown for the rental charge, persists the
// invoice as issued and posts the receivable when the event is mapped.
func (s *Service) Issue(ctx context.Context, req domain.IssueRequest) (*domain.Invoice, error) {
	if req.Subtotal.Sign() <= 0 {
		return nil, domain.ErrInvalidSubtotal
	}

	var taxCustomer *tax.Customer
	if req.CustomerID != 0 {
		var customer domain.Customer
		err := s.db.WithContext(ctx).First(&customer, "id = ?", req.CustomerID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCustomer
		}
		if err != nil {
			return nil, err
		}
		taxCustomer = customer.TaxProfile()
	}

	date := req.Date
	if date.IsZero() {
		date = s.clock.Now()
	}

	result := s.calculator.Calculate(ctx, req.Subtotal, req.IsTaxable, req.PriceIncludesTax, taxCustomer)

	invoice := &domain.Invoice{
		ID:            s.genID.Generate(),
		InvoiceNumber: s.newInvoiceNumber(date),
		Date:          date,
		Subtotal:      result.Base,
		IsTaxable:     req.IsTaxable,
		PPNRate:       result.Rate,
		PPNAmount:     result.Amount,
		Total:         result.Total,
		Status:        domain.InvoiceStatusIssued,
		CreatedAt:     s.clock.Now(),
		UpdatedAt:     s.clock.Now(),
	}
	if req.RentalID != 0 {
		invoice.RentalID = &req.RentalID
	}
	if req.CustomerID != 0 {
		invoice.CustomerID = &req.CustomerID
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(invoice).Error; err != nil {
			return err
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type: events.EventInvoiceIssued,
			Payload: events.InvoicePayload{
				InvoiceID:     invoice.ID.String(),
				InvoiceNumber: invoice.InvoiceNumber,
			}.ToMap(),
			DedupeKey: events.EventInvoiceIssued + ":" + invoice.InvoiceNumber,
		})
	})
	if err != nil {
		return nil, err
	}

	// Post the receivable. A missing mapping is reported by the posting
	// engine and leaves the invoice valid; books catch up once mapped.
	ref := reference.Ref{Kind: reference.KindInvoice, ID: invoice.ID}
	entry, err := s.journalSvc.RecordSimpleTransaction(ctx, coadomain.EventRentalInvoiceIssued, ref, invoice.Total, "Invoice "+invoice.InvoiceNumber)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		s.log.Warn("invoice issued without journal posting",
			zap.String("invoice_number", invoice.InvoiceNumber),
		)
	}

	return invoice, nil
}

func (s *Service) FindByID(ctx context.Context, id snowflake.ID) (*domain.Invoice, error) {
	if id == 0 {
		return nil, domain.ErrInvalidInvoiceID
	}
	var invoice domain.Invoice
	err := s.db.WithContext(ctx).First(&invoice, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (s *Service) MarkPaid(ctx context.Context, id snowflake.ID) error {
	return s.transition(ctx, id, domain.InvoiceStatusIssued, domain.InvoiceStatusPaid)
}

func (s *Service) Cancel(ctx context.Context, id snowflake.ID) error {
	return s.transition(ctx, id, domain.InvoiceStatusIssued, domain.InvoiceStatusCancelled)
}

func (s *Service) transition(ctx context.Context, id snowflake.ID, from, to domain.InvoiceStatus) error {
	invoice, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if invoice == nil {
		return domain.ErrInvoiceNotFound
	}
	if invoice.Status != from {
		return domain.ErrInvoiceNotIssued
	}
	return s.db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": s.clock.Now()}).Error
}

func (s *Service) newInvoiceNumber(date time.Time) string {
	suffix := make([]byte, 2)
	_, _ = rand.Read(suffix)
	return fmt.Sprintf("INV-%s-%s", date.Format("20060102"), hex.EncodeToString(suffix))
}
