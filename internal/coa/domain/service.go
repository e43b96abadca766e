package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Service exposes chart-of-accounts reads and the mapping lookups the
// resolution and posting engines depend on.
type Service interface {
	CreateAccount(ctx context.Context, account *Account) error
	FindByID(ctx context.Context, id snowflake.ID) (*Account, error)
	FindByCode(ctx context.Context, code string) (*Account, error)
	// FindByName matches the account name exactly; it returns nil without
	// error when no account carries that name.
	FindByName(ctx context.Context, name string) (*Account, error)
	ListActive(ctx context.Context) ([]Account, error)

	// AccountForEvent resolves a seeded (event, role) mapping. A missing
	// mapping returns nil, not an error.
	AccountForEvent(ctx context.Context, event string, role MappingRole) (*Account, error)

	// CategoryAccount resolves a persisted category mapping, nil when absent.
	CategoryAccount(ctx context.Context, category string) (*Account, error)
	PersistCategoryMapping(ctx context.Context, category string, accountID snowflake.ID) error

	// Balance derives the running balance of an account by summing its
	// journal items, signed by the account's normal side.
	Balance(ctx context.Context, id snowflake.ID) (decimal.Decimal, error)
}

var (
	ErrInvalidAccount   = errors.New("invalid_account")
	ErrDuplicateCode    = errors.New("duplicate_account_code")
	ErrAccountNotFound  = errors.New("account_not_found")
	ErrInvalidParent    = errors.New("invalid_parent_account")
	ErrInvalidCategory  = errors.New("invalid_category")
	ErrInvalidRole      = errors.New("invalid_mapping_role")
	ErrAccountReferenced = errors.New("account_referenced_by_journal")
)
