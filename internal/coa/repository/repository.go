package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/anzalajra/gearent/internal/coa/domain"
)

type gormRepository struct{}

// Provide constructs the gorm-backed chart-of-accounts repository.
func Provide() domain.Repository {
	return &gormRepository{}
}

func (r *gormRepository) Insert(ctx context.Context, db *gorm.DB, account *domain.Account) error {
	return db.WithContext(ctx).Create(account).Error
}

func (r *gormRepository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Account, error) {
	var account domain.Account
	err := db.WithContext(ctx).First(&account, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *gormRepository) FindByCode(ctx context.Context, db *gorm.DB, code string) (*domain.Account, error) {
	var account domain.Account
	err := db.WithContext(ctx).First(&account, "code = ?", strings.TrimSpace(code)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *gormRepository) FindByName(ctx context.Context, db *gorm.DB, name string) (*domain.Account, error) {
	var account domain.Account
	err := db.WithContext(ctx).First(&account, "name = ?", strings.TrimSpace(name)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *gormRepository) ListActive(ctx context.Context, db *gorm.DB) ([]domain.Account, error) {
	var accounts []domain.Account
	err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("code asc").
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *gormRepository) FindMapping(ctx context.Context, db *gorm.DB, event string, role domain.MappingRole) (*domain.AccountMapping, error) {
	var mapping domain.AccountMapping
	err := db.WithContext(ctx).
		First(&mapping, "event = ? AND role = ?", strings.TrimSpace(event), role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &mapping, nil
}

func (r *gormRepository) UpsertMapping(ctx context.Context, db *gorm.DB, mapping *domain.AccountMapping) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event"}, {Name: "role"}},
			DoUpdates: clause.AssignmentColumns([]string{"account_id"}),
		}).
		Create(mapping).Error
}

func (r *gormRepository) FindCategoryMapping(ctx context.Context, db *gorm.DB, category string) (*domain.CategoryMapping, error) {
	var mapping domain.CategoryMapping
	err := db.WithContext(ctx).
		First(&mapping, "category = ?", strings.TrimSpace(category)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &mapping, nil
}

func (r *gormRepository) UpsertCategoryMapping(ctx context.Context, db *gorm.DB, mapping *domain.CategoryMapping) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "category"}},
			DoUpdates: clause.AssignmentColumns([]string{"account_id"}),
		}).
		Create(mapping).Error
}
