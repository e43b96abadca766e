package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	auditdomain "github.com/anzalajra/gearent/internal/audit/domain"
	"github.com/anzalajra/gearent/internal/clock"
	coadomain "github.com/anzalajra/gearent/internal/coa/domain"
	"github.com/anzalajra/gearent/internal/depreciation/domain"
	"github.com/anzalajra/gearent/internal/events"
	journaldomain "github.com/anzalajra/gearent/internal/journal/domain"
	"github.com/anzalajra/gearent/internal/reference"
)

type ServiceParam struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	JournalSvc journaldomain.Service
	AuditSvc   auditdomain.Service
	Outbox     *events.Outbox
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	journalSvc journaldomain.Service
	auditSvc   auditdomain.Service
	outbox     *events.Outbox
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("depreciation.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		journalSvc: p.JournalSvc,
		auditSvc:   p.AuditSvc,
		outbox:     p.Outbox,
	}
}

func (s *Service) Run(ctx context.Context, period string, force bool) (*domain.DepreciationRun, error) {
	monthStart, err := time.Parse("2006-01", period)
	if err != nil {
		return nil, domain.ErrInvalidPeriod
	}
	monthEnd := clock.EndOfMonth(monthStart)

	existing, err := s.FindByPeriod(ctx, period)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if !force {
			return nil, domain.ErrPeriodAlreadyRun
		}
		if err := s.deleteRun(ctx, existing); err != nil {
			return nil, err
		}
	}

	equipments, err := s.listDepreciable(ctx, monthEnd)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	processed := 0
	for _, equipment := range equipments {
		if equipment.FullyDepreciatedBy(monthStart) {
			continue
		}
		charge := equipment.MonthlyDepreciation()
		if charge.Sign() <= 0 {
			continue
		}
		total = total.Add(charge)
		processed++
	}

	run := &domain.DepreciationRun{
		ID:             s.genID.Generate(),
		Period:         period,
		Date:           monthEnd,
		TotalAmount:    total,
		ItemsProcessed: processed,
		Notes: datatypes.JSONMap{
			"equipment_considered": len(equipments),
			"forced":               force,
		},
		CreatedAt: s.clock.Now(),
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, err
	}

	if total.Sign() > 0 {
		ref := reference.Ref{Kind: reference.KindDepreciationRun, ID: run.ID}
		entry, err := s.journalSvc.RecordSimpleTransaction(
			ctx,
			coadomain.EventMonthlyDepreciation,
			ref,
			total,
			fmt.Sprintf("Monthly depreciation %s", period),
		)
		if err != nil {
			return nil, err
		}
		if entry == nil {
			s.log.Warn("depreciation run recorded without journal entry",
				zap.String("period", period),
			)
		} else if err := s.outbox.Publish(ctx, events.Event{
			Type: events.EventDepreciationRunPosted,
			Payload: events.DepreciationRunPayload{
				RunID:       run.ID.String(),
				Period:      period,
				TotalAmount: total.StringFixed(2),
			}.ToMap(),
			DedupeKey: events.EventDepreciationRunPosted + ":" + run.ID.String(),
		}); err != nil {
			return nil, err
		}
	}

	return run, nil
}

func (s *Service) FindByPeriod(ctx context.Context, period string) (*domain.DepreciationRun, error) {
	var run domain.DepreciationRun
	err := s.db.WithContext(ctx).First(&run, "period = ?", period).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *Service) deleteRun(ctx context.Context, run *domain.DepreciationRun) error {
	ref := reference.Ref{Kind: reference.KindDepreciationRun, ID: run.ID}
	if err := s.journalSvc.DeleteForReference(ctx, ref); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).
		Delete(&domain.DepreciationRun{}, "id = ?", run.ID).Error; err != nil {
		return err
	}

	if err := s.auditSvc.Record(ctx, auditdomain.Entry{
		Action:     auditdomain.ActionDepreciationRunForced,
		TargetType: "depreciation_run",
		TargetID:   run.ID.String(),
		Metadata: map[string]any{
			"period":       run.Period,
			"total_amount": run.TotalAmount.StringFixed(2),
		},
	}); err != nil {
		s.log.Warn("audit record for forced run failed", zap.Error(err))
	}
	return nil
}

func (s *Service) listDepreciable(ctx context.Context, asOf time.Time) ([]domain.Equipment, error) {
	var equipments []domain.Equipment
	err := s.db.WithContext(ctx).
		Where("is_active = ? AND acquired_at <= ?", true, asOf).
		Find(&equipments).Error
	if err != nil {
		return nil, err
	}
	return equipments, nil
}
