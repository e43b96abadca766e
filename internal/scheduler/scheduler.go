package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/anzalajra/gearent/internal/clock"
	"github.com/anzalajra/gearent/internal/config"
	depreciationdomain "github.com/anzalajra/gearent/internal/depreciation/domain"
	financedomain "github.com/anzalajra/gearent/internal/finance/domain"
)

// Scheduler is the background worker behind the bookkeeping automation. On
// every tick it reconciles un-synced finance transactions into the journal
// and makes sure the previous month's depreciation run has been posted.
// Operator-facing work, mapping unresolved categories, stays in the CLI.
type Scheduler struct {
	log             *zap.Logger
	clock           clock.Clock
	financeSvc      financedomain.Service
	depreciationSvc depreciationdomain.Service

	interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

type Params struct {
	fx.In

	LC              fx.Lifecycle
	Log             *zap.Logger
	Cfg             config.Config
	Clock           clock.Clock
	FinanceSvc      financedomain.Service
	DepreciationSvc depreciationdomain.Service
}

func New(p Params) *Scheduler {
	interval := time.Duration(p.Cfg.SyncIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	s := &Scheduler{
		log:             p.Log.Named("scheduler"),
		clock:           p.Clock,
		financeSvc:      p.FinanceSvc,
		depreciationSvc: p.DepreciationSvc,
		interval:        interval,
		done:            make(chan struct{}),
	}

	p.LC.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			s.cancel = cancel
			go s.run(ctx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			s.cancel()
			select {
			case <-s.done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})

	return s
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	report, err := s.financeSvc.SyncAll(ctx, nil)
	if err != nil {
		s.log.Error("finance sync failed", zap.Error(err))
	} else if report.Attempted > 0 {
		s.log.Info("finance sync complete",
			zap.Int("attempted", report.Attempted),
			zap.Int("posted", report.Posted),
		)
	}

	s.ensureMonthlyDepreciation(ctx)
}

// ensureMonthlyDepreciation posts the previous month's run once it is
// missing. Concurrent workers race on the unique period index; the loser
// sees ErrPeriodAlreadyRun and moves on.
func (s *Scheduler) ensureMonthlyDepreciation(ctx context.Context) {
	now := s.clock.Now()
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	period := firstOfMonth.AddDate(0, 0, -1).Format("2006-01")

	existing, err := s.depreciationSvc.FindByPeriod(ctx, period)
	if err != nil {
		s.log.Error("depreciation lookup failed", zap.String("period", period), zap.Error(err))
		return
	}
	if existing != nil {
		return
	}

	run, err := s.depreciationSvc.Run(ctx, period, false)
	if errors.Is(err, depreciationdomain.ErrPeriodAlreadyRun) {
		return
	}
	if err != nil {
		s.log.Error("depreciation run failed", zap.String("period", period), zap.Error(err))
		return
	}
	s.log.Info("monthly depreciation posted",
		zap.String("period", period),
		zap.Int("items", run.ItemsProcessed),
		zap.String("total", run.TotalAmount.StringFixed(2)),
	)
}

var Module = fx.Module("scheduler",
	fx.Provide(New),
)
