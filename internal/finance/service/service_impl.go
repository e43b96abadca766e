package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/anzalajra/gearent/internal/audit/domain"
	"github.com/anzalajra/gearent/internal/config"
	"github.com/anzalajra/gearent/internal/finance/domain"
	journaldomain "github.com/anzalajra/gearent/internal/journal/domain"
	"github.com/anzalajra/gearent/internal/reference"
	"github.com/anzalajra/gearent/internal/resolution"
)

type ServiceParam struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Cfg        config.Config
	JournalSvc journaldomain.Service
	AuditSvc   auditdomain.Service
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	journalSvc journaldomain.Service
	auditSvc   auditdomain.Service

	batchSize int
}

func NewService(p ServiceParam) domain.Service {
	batchSize := p.Cfg.SyncBatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("finance.service"),
		genID:      p.GenID,
		journalSvc: p.JournalSvc,
		auditSvc:   p.AuditSvc,
		batchSize:  batchSize,
	}
}

func (s *Service) CreateAccount(ctx context.Context, account *domain.FinanceAccount) error {
	if account == nil || strings.TrimSpace(account.Name) == "" {
		return domain.ErrInvalidAccount
	}
	account.Name = strings.TrimSpace(account.Name)
	if account.ID == 0 {
		account.ID = s.genID.Generate()
	}
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now
	return s.db.WithContext(ctx).Create(account).Error
}

// CreateTransaction records a cash movement and moves the owning account's
// cached balance in the same transaction.
func (s *Service) CreateTransaction(ctx context.Context, txn *domain.FinanceTransaction) error {
	if txn == nil || txn.FinanceAccountID == 0 {
		return domain.ErrInvalidTransaction
	}
	if !txn.Type.Valid() {
		return domain.ErrInvalidTransaction
	}
	if txn.Amount.Sign() < 0 {
		return domain.ErrNegativeAmount
	}
	if txn.Date.IsZero() {
		txn.Date = time.Now().UTC()
	}
	txn.Category = strings.TrimSpace(txn.Category)
	if txn.ID == 0 {
		txn.ID = s.genID.Generate()
	}
	now := time.Now().UTC()
	txn.CreatedAt = now
	txn.UpdatedAt = now

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account domain.FinanceAccount
		if err := tx.First(&account, "id = ?", txn.FinanceAccountID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrInvalidAccount
			}
			return err
		}

		if err := tx.Create(txn).Error; err != nil {
			return err
		}

		balance := account.Balance
		if txn.Type.Inflow() {
			balance = balance.Add(txn.Amount)
		} else {
			balance = balance.Sub(txn.Amount)
		}
		return tx.Model(&domain.FinanceAccount{}).
			Where("id = ?", account.ID).
			Updates(map[string]any{"balance": balance, "updated_at": now}).Error
	})
}

func (s *Service) FindTransaction(ctx context.Context, id snowflake.ID) (*domain.FinanceTransaction, error) {
	if id == 0 {
		return nil, domain.ErrInvalidTransaction
	}
	var txn domain.FinanceTransaction
	err := s.db.WithContext(ctx).First(&txn, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (s *Service) SyncAll(ctx context.Context, overrides map[string]snowflake.ID) (domain.SyncReport, error) {
	report := domain.SyncReport{}
	manual := resolution.ManualMappings(overrides)

	var lastID snowflake.ID
	for {
		batch, err := s.fetchUnsyncedBatch(ctx, lastID)
		if err != nil {
			return report, err
		}
		if len(batch) == 0 {
			return report, nil
		}

		for _, txn := range batch {
			lastID = txn.ID
			report.Attempted++

			entry, err := s.journalSvc.SyncFromTransaction(ctx, txn, manual)
			if err != nil {
				return report, err
			}
			if entry != nil {
				report.Posted++
			}
		}
	}
}

func (s *Service) ReassignReference(ctx context.Context, id snowflake.ID, newRef reference.Ref) error {
	if !newRef.Valid() {
		return domain.ErrInvalidReference
	}
	txn, err := s.FindTransaction(ctx, id)
	if err != nil {
		return err
	}
	if txn == nil {
		return domain.ErrTransactionMissing
	}

	oldRef := txn.Ref()
	err = s.db.WithContext(ctx).
		Model(&domain.FinanceTransaction{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"reference_type": string(newRef.Kind),
			"reference_id":   newRef.ID,
			"updated_at":     time.Now().UTC(),
		}).Error
	if err != nil {
		return err
	}

	if err := s.auditSvc.Record(ctx, auditdomain.Entry{
		Action:     auditdomain.ActionReferenceReassigned,
		TargetType: "finance_transaction",
		TargetID:   id.String(),
		Metadata: map[string]any{
			"old_reference": oldRef.String(),
			"new_reference": newRef.String(),
		},
	}); err != nil {
		s.log.Warn("audit record for reassignment failed", zap.Error(err))
	}
	return nil
}

// fetchUnsyncedBatch pages through transactions with no journal entry using
// keyset pagination; one bounded slice per round trip.
func (s *Service) fetchUnsyncedBatch(ctx context.Context, afterID snowflake.ID) ([]domain.FinanceTransaction, error) {
	var batch []domain.FinanceTransaction
	err := s.db.WithContext(ctx).Raw(
		`SELECT ft.*
		 FROM finance_transactions ft
		 LEFT JOIN journal_entries je
			ON je.reference_type = ? AND je.reference_id = ft.id
		 WHERE je.id IS NULL AND ft.id > ?
		 ORDER BY ft.id
		 LIMIT ?`,
		reference.KindFinanceTransaction,
		afterID,
		s.batchSize,
	).Scan(&batch).Error
	if err != nil {
		return nil, err
	}
	return batch, nil
}
