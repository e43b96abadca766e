package domain

import (
	"context"
	"errors"
)

// Service runs monthly depreciation batches.
type Service interface {
	// Run posts the straight-line depreciation for period ("YYYY-MM").
	// force deletes a prior run for the period, with its journal entry,
	// before recreating both.
	Run(ctx context.Context, period string, force bool) (*DepreciationRun, error)

	// FindByPeriod returns the run for a period, nil when absent.
	FindByPeriod(ctx context.Context, period string) (*DepreciationRun, error)
}

var (
	ErrInvalidPeriod    = errors.New("invalid_depreciation_period")
	ErrPeriodAlreadyRun = errors.New("depreciation_period_already_run")
)
