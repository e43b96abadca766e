package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Equipment is a rentable fixed asset subject to straight-line
// depreciation.
type Equipment struct {
	ID               snowflake.ID    `gorm:"primaryKey"`
	Name             string          `gorm:"type:text;not null"`
	AcquisitionCost  decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0"`
	SalvageValue     decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0"`
	UsefulLifeMonths int             `gorm:"not null;default:0"`
	AcquiredAt       time.Time       `gorm:"not null"`
	IsActive         bool            `gorm:"not null;default:true"`
	CreatedAt        time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Equipment) TableName() string { return "equipments" }

// MonthlyDepreciation returns the straight-line charge for one month, zero
// when the asset has no depreciable life.
func (e Equipment) MonthlyDepreciation() decimal.Decimal {
	if e.UsefulLifeMonths <= 0 {
		return decimal.Zero
	}
	base := e.AcquisitionCost.Sub(e.SalvageValue)
	if base.Sign() <= 0 {
		return decimal.Zero
	}
	return base.Div(decimal.NewFromInt(int64(e.UsefulLifeMonths))).Round(2)
}

// FullyDepreciatedBy reports whether the asset's useful life ended before
// the month containing t.
func (e Equipment) FullyDepreciatedBy(t time.Time) bool {
	if e.UsefulLifeMonths <= 0 {
		return true
	}
	end := e.AcquiredAt.AddDate(0, e.UsefulLifeMonths, 0)
	return !t.Before(end)
}

// DepreciationRun is one monthly batch. A run owns at most one journal
// entry; re-running with force deletes both first.
type DepreciationRun struct {
	ID             snowflake.ID      `gorm:"primaryKey"`
	Period         string            `gorm:"type:text;not null;uniqueIndex:ux_depreciation_runs_period"`
	Date           time.Time         `gorm:"not null"`
	TotalAmount    decimal.Decimal   `gorm:"type:numeric(18,2);not null;default:0"`
	ItemsProcessed int               `gorm:"not null;default:0"`
	Notes          datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (DepreciationRun) TableName() string { return "depreciation_runs" }
