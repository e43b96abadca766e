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
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	coadomain "github.com/anzalajra/gearent/internal/coa/domain"
	"github.com/anzalajra/gearent/internal/clock"
	"github.com/anzalajra/gearent/internal/config"
	"github.com/anzalajra/gearent/internal/events"
	financedomain "github.com/anzalajra/gearent/internal/finance/domain"
	"github.com/anzalajra/gearent/internal/journal/domain"
	"github.com/anzalajra/gearent/internal/reference"
	"github.com/anzalajra/gearent/internal/resolution"
)

type ServiceParam struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Cfg        config.Config
	Clock      clock.Clock
	CoaSvc     coadomain.Service
	Resolution *resolution.Service
	Outbox     *events.Outbox
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	coaSvc     coadomain.Service
	resolution *resolution.Service
	outbox     *events.Outbox

	strictBalance bool
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("journal.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		coaSvc:        p.CoaSvc,
		resolution:    p.Resolution,
		outbox:        p.Outbox,
		strictBalance: p.Cfg.StrictBalance,
	}
}

func (s *Service) CreateEntry(ctx context.Context, ref reference.Ref, description string, lines []domain.Line, date time.Time) (*domain.JournalEntry, error) {
	if !ref.Valid() {
		return nil, domain.ErrInvalidReference
	}

	filtered, err := domain.FilterLines(lines)
	if err != nil {
		return nil, err
	}
	if len(filtered) == 0 {
		return nil, nil
	}
	if strings.TrimSpace(description) == "" {
		return nil, domain.ErrMissingDescription
	}

	if existing, err := s.EntryForReference(ctx, ref); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	if !domain.Balanced(filtered) {
		debit, credit := domain.SumLines(filtered)
		if s.strictBalance {
			return nil, domain.ErrUnbalancedEntry
		}
		// Never block the books: post anyway, but make the imbalance
		// visible wherever the entry is reviewed.
		description = strings.TrimSpace(description) +
			fmt.Sprintf(" [WARNING: unbalanced entry, debit=%s credit=%s]",
				debit.StringFixed(2), credit.StringFixed(2))
		s.log.Warn("posting unbalanced journal entry",
			zap.String("reference", ref.String()),
			zap.String("debit", debit.StringFixed(2)),
			zap.String("credit", credit.StringFixed(2)),
		)
	}

	if date.IsZero() {
		date = s.clock.Now()
	}

	entry := &domain.JournalEntry{
		ID:              s.genID.Generate(),
		ReferenceNumber: s.newReferenceNumber(date),
		Date:            date,
		Description:     strings.TrimSpace(description),
		ReferenceType:   string(ref.Kind),
		ReferenceID:     ref.ID,
		CreatedAt:       s.clock.Now(),
	}
	items := make([]domain.JournalEntryItem, 0, len(filtered))
	for _, line := range filtered {
		items = append(items, domain.JournalEntryItem{
			ID:             s.genID.Generate(),
			JournalEntryID: entry.ID,
			AccountID:      line.AccountID,
			Debit:          line.Debit.Round(2),
			Credit:         line.Credit.Round(2),
			CreatedAt:      entry.CreatedAt,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type: events.EventJournalEntryCreated,
			Payload: events.JournalEntryPayload{
				JournalEntryID:  entry.ID.String(),
				ReferenceNumber: entry.ReferenceNumber,
				ReferenceType:   entry.ReferenceType,
				ReferenceID:     entry.ReferenceID.String(),
			}.ToMap(),
			DedupeKey: events.EventJournalEntryCreated + ":" + ref.String(),
		})
	})
	if err != nil {
		// The unique (reference_type, reference_id) index is the
		// idempotency backstop under concurrent sync; a conflict means
		// someone else already journaled this reference.
		if existing, lookupErr := s.EntryForReference(ctx, ref); lookupErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}

	entry.Items = items
	return entry, nil
}

func (s *Service) RecordSimpleTransaction(ctx context.Context, event string, ref reference.Ref, amount decimal.Decimal, description string) (*domain.JournalEntry, error) {
	if amount.Sign() <= 0 {
		s.log.Warn("skipping simple transaction with non-positive amount",
			zap.String("event", event),
			zap.String("reference", ref.String()),
		)
		return nil, nil
	}

	debitAccount, err := s.coaSvc.AccountForEvent(ctx, event, coadomain.MappingRoleDebit)
	if err != nil {
		return nil, err
	}
	creditAccount, err := s.coaSvc.AccountForEvent(ctx, event, coadomain.MappingRoleCredit)
	if err != nil {
		return nil, err
	}
	if debitAccount == nil || creditAccount == nil {
		s.log.Warn("account mapping missing for event, skipping posting",
			zap.String("event", event),
			zap.Bool("debit_mapped", debitAccount != nil),
			zap.Bool("credit_mapped", creditAccount != nil),
		)
		return nil, nil
	}

	if strings.TrimSpace(description) == "" {
		description = event
	}

	lines := []domain.Line{
		{AccountID: debitAccount.ID, Debit: amount},
		{AccountID: creditAccount.ID, Credit: amount},
	}
	return s.CreateEntry(ctx, ref, description, lines, time.Time{})
}

func (s *Service) SyncFromTransaction(ctx context.Context, txn financedomain.FinanceTransaction, overrides resolution.ManualMappings) (*domain.JournalEntry, error) {
	log := s.log.With(zap.String("finance_transaction_id", txn.ID.String()))

	selfRef := txn.SelfRef()
	if existing, err := s.EntryForReference(ctx, selfRef); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	if !txn.Type.Valid() {
		log.Warn("unknown transaction type, skipping", zap.String("type", string(txn.Type)))
		return nil, nil
	}

	cashAccount, err := s.resolveCashAccount(ctx, txn)
	if err != nil {
		return nil, err
	}
	if cashAccount == nil {
		return nil, nil
	}

	contraAccount, err := s.resolution.ResolveContraAccount(ctx, txn, overrides)
	if errors.Is(err, resolution.ErrUnresolvedCategory) {
		log.Warn("category unresolved, transaction left unsynced",
			zap.String("category", txn.Category),
		)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var lines []domain.Line
	if txn.Type.Inflow() {
		lines = []domain.Line{
			{AccountID: cashAccount.ID, Debit: txn.Amount},
			{AccountID: contraAccount.ID, Credit: txn.Amount},
		}
	} else {
		lines = []domain.Line{
			{AccountID: contraAccount.ID, Debit: txn.Amount},
			{AccountID: cashAccount.ID, Credit: txn.Amount},
		}
	}

	description := strings.TrimSpace(txn.Description)
	if description == "" {
		description = fmt.Sprintf("%s (%s)", txn.Category, txn.Type)
	}

	return s.CreateEntry(ctx, selfRef, description, lines, txn.Date)
}

func (s *Service) EntryForReference(ctx context.Context, ref reference.Ref) (*domain.JournalEntry, error) {
	if !ref.Valid() {
		return nil, domain.ErrInvalidReference
	}
	var entry domain.JournalEntry
	err := s.db.WithContext(ctx).
		Preload("Items").
		First(&entry, "reference_type = ? AND reference_id = ?", string(ref.Kind), ref.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *Service) DeleteForReference(ctx context.Context, ref reference.Ref) error {
	entry, err := s.EntryForReference(ctx, ref)
	if err != nil {
		return err
	}
	if entry == nil {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("journal_entry_id = ?", entry.ID).
			Delete(&domain.JournalEntryItem{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&domain.JournalEntry{}, "id = ?", entry.ID).Error; err != nil {
			return err
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type: events.EventJournalEntryDeleted,
			Payload: events.JournalEntryPayload{
				JournalEntryID:  entry.ID.String(),
				ReferenceNumber: entry.ReferenceNumber,
				ReferenceType:   entry.ReferenceType,
				ReferenceID:     entry.ReferenceID.String(),
			}.ToMap(),
			DedupeKey: events.EventJournalEntryDeleted + ":" + entry.ReferenceNumber,
		})
	})
}

// resolveCashAccount finds the ledger account behind the transaction's
// owning cash account, auto-linking by exact name when possible.
func (s *Service) resolveCashAccount(ctx context.Context, txn financedomain.FinanceTransaction) (*coadomain.Account, error) {
	var financeAccount financedomain.FinanceAccount
	err := s.db.WithContext(ctx).
		First(&financeAccount, "id = ?", txn.FinanceAccountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Warn("finance account missing, transaction left unsynced",
			zap.String("finance_account_id", txn.FinanceAccountID.String()),
		)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if financeAccount.LinkedAccountID != nil {
		return s.coaSvc.FindByID(ctx, *financeAccount.LinkedAccountID)
	}

	linked, err := s.coaSvc.FindByName(ctx, financeAccount.Name)
	if err != nil {
		return nil, err
	}
	if linked == nil {
		s.log.Warn("finance account not linked to a ledger account and no name match found",
			zap.String("finance_account", financeAccount.Name),
		)
		return nil, nil
	}

	err = s.db.WithContext(ctx).
		Model(&financedomain.FinanceAccount{}).
		Where("id = ?", financeAccount.ID).
		Update("linked_account_id", linked.ID).Error
	if err != nil {
		return nil, err
	}
	s.log.Info("auto-linked finance account by name",
		zap.String("finance_account", financeAccount.Name),
		zap.String("account_code", linked.Code),
	)
	return linked, nil
}

func (s *Service) newReferenceNumber(date time.Time) string {
	suffix := make([]byte, 2)
	_, _ = rand.Read(suffix)
	return fmt.Sprintf("JRN-%s-%s", date.Format("20060102150405"), hex.EncodeToString(suffix))
}
