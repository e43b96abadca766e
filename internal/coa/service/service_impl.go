package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/anzalajra/gearent/internal/coa/domain"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("coa.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) CreateAccount(ctx context.Context, account *domain.Account) error {
	if account == nil {
		return domain.ErrInvalidAccount
	}
	account.Code = strings.TrimSpace(account.Code)
	account.Name = strings.TrimSpace(account.Name)
	if account.Code == "" || account.Name == "" {
		return domain.ErrInvalidAccount
	}
	switch account.Type {
	case domain.AccountTypeAsset, domain.AccountTypeLiability, domain.AccountTypeEquity,
		domain.AccountTypeRevenue, domain.AccountTypeExpense:
	default:
		return domain.ErrInvalidAccount
	}

	if existing, err := s.repo.FindByCode(ctx, s.db, account.Code); err != nil {
		return err
	} else if existing != nil {
		return domain.ErrDuplicateCode
	}

	if account.ParentID != nil {
		parent, err := s.repo.FindByID(ctx, s.db, *account.ParentID)
		if err != nil {
			return err
		}
		if parent == nil {
			return domain.ErrInvalidParent
		}
		account.IsSubAccount = true
	}

	if account.ID == 0 {
		account.ID = s.genID.Generate()
	}
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now
	return s.repo.Insert(ctx, s.db, account)
}

func (s *Service) FindByID(ctx context.Context, id snowflake.ID) (*domain.Account, error) {
	if id == 0 {
		return nil, domain.ErrInvalidAccount
	}
	return s.repo.FindByID(ctx, s.db, id)
}

func (s *Service) FindByCode(ctx context.Context, code string) (*domain.Account, error) {
	if strings.TrimSpace(code) == "" {
		return nil, domain.ErrInvalidAccount
	}
	return s.repo.FindByCode(ctx, s.db, code)
}

func (s *Service) FindByName(ctx context.Context, name string) (*domain.Account, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	return s.repo.FindByName(ctx, s.db, name)
}

func (s *Service) ListActive(ctx context.Context) ([]domain.Account, error) {
	return s.repo.ListActive(ctx, s.db)
}

func (s *Service) AccountForEvent(ctx context.Context, event string, role domain.MappingRole) (*domain.Account, error) {
	if role != domain.MappingRoleDebit && role != domain.MappingRoleCredit {
		return nil, domain.ErrInvalidRole
	}
	mapping, err := s.repo.FindMapping(ctx, s.db, event, role)
	if err != nil {
		return nil, err
	}
	if mapping == nil {
		return nil, nil
	}
	return s.repo.FindByID(ctx, s.db, mapping.AccountID)
}

func (s *Service) CategoryAccount(ctx context.Context, category string) (*domain.Account, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, nil
	}
	mapping, err := s.repo.FindCategoryMapping(ctx, s.db, category)
	if err != nil {
		return nil, err
	}
	if mapping == nil {
		return nil, nil
	}
	return s.repo.FindByID(ctx, s.db, mapping.AccountID)
}

func (s *Service) PersistCategoryMapping(ctx context.Context, category string, accountID snowflake.ID) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return domain.ErrInvalidCategory
	}
	account, err := s.repo.FindByID(ctx, s.db, accountID)
	if err != nil {
		return err
	}
	if account == nil {
		return domain.ErrAccountNotFound
	}
	return s.repo.UpsertCategoryMapping(ctx, s.db, &domain.CategoryMapping{
		ID:        s.genID.Generate(),
		Category:  category,
		AccountID: accountID,
		CreatedAt: time.Now().UTC(),
	})
}

// Balance sums journal items for the account, signed by its normal side.
func (s *Service) Balance(ctx context.Context, id snowflake.ID) (decimal.Decimal, error) {
	account, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return decimal.Zero, err
	}
	if account == nil {
		return decimal.Zero, domain.ErrAccountNotFound
	}

	type sums struct {
		Debit  decimal.Decimal
		Credit decimal.Decimal
	}
	var result sums
	err = s.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(debit), 0) AS debit, COALESCE(SUM(credit), 0) AS credit
		 FROM journal_entry_items
		 WHERE account_id = ?`,
		id,
	).Scan(&result).Error
	if err != nil {
		return decimal.Zero, err
	}

	if account.DebitNormal() {
		return result.Debit.Sub(result.Credit), nil
	}
	return result.Credit.Sub(result.Debit), nil
}
