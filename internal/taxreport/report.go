package taxreport

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	invoicedomain "github.com/anzalajra/gearent/internal/invoice/domain"
)

var ErrInvalidPeriod = errors.New("invalid_report_period")

// Report aggregates invoiced tax over a filing period. Subtotal is treated
// as the pre-tax base.
type Report struct {
	PeriodStart     time.Time
	PeriodEnd       time.Time
	TotalTaxBase    decimal.Decimal
	TotalPPNPayable decimal.Decimal
	TotalSales      decimal.Decimal
	Count           int64
}

// Generator produces period-bounded tax aggregates. Read-only.
type Generator struct {
	db  *gorm.DB
	log *zap.Logger
}

type GeneratorParam struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

func NewGenerator(p GeneratorParam) *Generator {
	return &Generator{
		db:  p.DB,
		log: p.Log.Named("taxreport.generator"),
	}
}

// Generate sums taxable, non-draft, non-cancelled invoices dated within
// [start, end].
func (g *Generator) Generate(ctx context.Context, start, end time.Time) (Report, error) {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return Report{}, ErrInvalidPeriod
	}

	type row struct {
		TaxBase decimal.Decimal
		PPN     decimal.Decimal
		Sales   decimal.Decimal
		Count   int64
	}
	var result row
	err := g.db.WithContext(ctx).Raw(
		`SELECT
			COALESCE(SUM(subtotal), 0) AS tax_base,
			COALESCE(SUM(ppn_amount), 0) AS ppn,
			COALESCE(SUM(total), 0) AS sales,
			COUNT(1) AS count
		 FROM invoices
		 WHERE date >= ? AND date <= ?
			AND is_taxable = ?
			AND status NOT IN (?, ?)`,
		start,
		end,
		true,
		invoicedomain.InvoiceStatusDraft,
		invoicedomain.InvoiceStatusCancelled,
	).Scan(&result).Error
	if err != nil {
		return Report{}, err
	}

	return Report{
		PeriodStart:     start,
		PeriodEnd:       end,
		TotalTaxBase:    result.TaxBase,
		TotalPPNPayable: result.PPN,
		TotalSales:      result.Sales,
		Count:           result.Count,
	}, nil
}

var Module = fx.Module("taxreport.generator",
	fx.Provide(NewGenerator),
)
