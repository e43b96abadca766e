package resolution

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/anzalajra/gearent/internal/audit/domain"
	coadomain "github.com/anzalajra/gearent/internal/coa/domain"
	financedomain "github.com/anzalajra/gearent/internal/finance/domain"
	"github.com/anzalajra/gearent/internal/reference"
)

// ErrUnresolvedCategory marks a category no strategy could map. There is no
// fallback account on purpose: unresolved categories go back to an operator
// instead of being miscoded.
var ErrUnresolvedCategory = errors.New("unresolved_category")

// ManualMappings carries operator decisions keyed by category text.
type ManualMappings map[string]snowflake.ID

// Service resolves business categories and posting events to ledger
// accounts via cascading strategies: manual override, persisted category
// mapping, exact name match, then keyword heuristics.
type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	coaSvc   coadomain.Service
	auditSvc auditdomain.Service
	keywords KeywordTable
}

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	CoaSvc   coadomain.Service
	AuditSvc auditdomain.Service
	Keywords KeywordTable
}

func NewService(p ServiceParam) *Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("resolution.service"),
		coaSvc:   p.CoaSvc,
		auditSvc: p.AuditSvc,
		keywords: p.Keywords,
	}
}

// ResolveContraAccount determines the non-cash side of a posting for one
// simple-finance transaction. A manual override is written through to the
// persisted category mappings so the next sync resolves it automatically.
func (s *Service) ResolveContraAccount(ctx context.Context, txn financedomain.FinanceTransaction, overrides ManualMappings) (*coadomain.Account, error) {
	category := strings.TrimSpace(txn.Category)
	if category == "" {
		return nil, ErrUnresolvedCategory
	}

	if accountID, ok := overrides[category]; ok && accountID != 0 {
		account, err := s.coaSvc.FindByID(ctx, accountID)
		if err != nil {
			return nil, err
		}
		if account != nil {
			if err := s.persistManualMapping(ctx, category, account); err != nil {
				return nil, err
			}
			return account, nil
		}
	}

	return s.resolveAutomatic(ctx, category)
}

// AccountForEvent resolves a seeded (event, role) mapping; nil when absent.
func (s *Service) AccountForEvent(ctx context.Context, event string, role coadomain.MappingRole) (*coadomain.Account, error) {
	return s.coaSvc.AccountForEvent(ctx, event, role)
}

// UnresolvedCategories returns the distinct categories of un-journaled
// transactions that still need an operator decision before sync can post.
func (s *Service) UnresolvedCategories(ctx context.Context) ([]string, error) {
	var categories []string
	err := s.db.WithContext(ctx).Raw(
		`SELECT DISTINCT ft.category
		 FROM finance_transactions ft
		 LEFT JOIN journal_entries je
			ON je.reference_type = ? AND je.reference_id = ft.id
		 WHERE je.id IS NULL
			AND ft.category IS NOT NULL
			AND TRIM(ft.category) <> ''
		 ORDER BY ft.category`,
		reference.KindFinanceTransaction,
	).Scan(&categories).Error
	if err != nil {
		return nil, err
	}

	unresolved := make([]string, 0, len(categories))
	for _, category := range categories {
		_, err := s.resolveAutomatic(ctx, category)
		if errors.Is(err, ErrUnresolvedCategory) {
			unresolved = append(unresolved, category)
			continue
		}
		if err != nil {
			return nil, err
		}
	}
	return unresolved, nil
}

// resolveAutomatic runs the side-effect-free strategies: persisted category
// mapping, exact account name, keyword table.
func (s *Service) resolveAutomatic(ctx context.Context, category string) (*coadomain.Account, error) {
	account, err := s.coaSvc.CategoryAccount(ctx, category)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}

	account, err = s.coaSvc.FindByName(ctx, category)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}

	if code := s.keywords.Match(category); code != "" {
		account, err = s.coaSvc.FindByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if account != nil {
			return account, nil
		}
		s.log.Warn("keyword rule points at a missing account",
			zap.String("category", category),
			zap.String("account_code", code),
		)
	}

	return nil, ErrUnresolvedCategory
}

func (s *Service) persistManualMapping(ctx context.Context, category string, account *coadomain.Account) error {
	if err := s.coaSvc.PersistCategoryMapping(ctx, category, account.ID); err != nil {
		return err
	}
	if err := s.auditSvc.Record(ctx, auditdomain.Entry{
		Action:     auditdomain.ActionCategoryMappingCreated,
		TargetType: "category_mapping",
		TargetID:   category,
		Metadata: map[string]any{
			"category":     category,
			"account_id":   account.ID.String(),
			"account_code": account.Code,
		},
	}); err != nil {
		s.log.Warn("audit record for manual mapping failed", zap.Error(err))
	}
	return nil
}

var Module = fx.Module("resolution.service",
	fx.Provide(DefaultKeywordTable),
	fx.Provide(NewService),
)
