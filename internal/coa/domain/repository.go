package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, account *Account) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Account, error)
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*Account, error)
	FindByName(ctx context.Context, db *gorm.DB, name string) (*Account, error)
	ListActive(ctx context.Context, db *gorm.DB) ([]Account, error)

	FindMapping(ctx context.Context, db *gorm.DB, event string, role MappingRole) (*AccountMapping, error)
	UpsertMapping(ctx context.Context, db *gorm.DB, mapping *AccountMapping) error

	FindCategoryMapping(ctx context.Context, db *gorm.DB, category string) (*CategoryMapping, error)
	UpsertCategoryMapping(ctx context.Context, db *gorm.DB, mapping *CategoryMapping) error
}
