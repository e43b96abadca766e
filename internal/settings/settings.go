package settings

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/anzalajra/gearent/internal/cache"
)

// Known setting keys consumed by the tax calculator.
const (
	KeyTaxEnabled            = "tax_enabled"
	KeyTaxMode               = "tax_mode"
	KeyIsPKP                 = "is_pkp"
	KeyPPNRate               = "ppn_rate"
	KeyPPhFinalRate          = "pph_final_rate"
	KeyInternationalTaxRates = "international_tax_rates"
)

// Tax modes.
const (
	TaxModeIndonesia     = "indonesia"
	TaxModeInternational = "international"
)

// Defaults applied when a key is absent from the store.
var (
	DefaultTaxEnabled   = true
	DefaultTaxMode      = TaxModeIndonesia
	DefaultIsPKP        = true
	DefaultPPNRate      = decimal.NewFromInt(11)
	DefaultPPhFinalRate = decimal.RequireFromString("0.5")
)

var ErrInvalidKey = errors.New("invalid_setting_key")

const cacheTTL = 30 * time.Second

// Setting is one key-value configuration row.
type Setting struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Key       string       `gorm:"column:key;type:text;not null;uniqueIndex:ux_settings_key"`
	Value     string       `gorm:"type:text;not null;default:''"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Setting) TableName() string { return "settings" }

// CountryRate is one entry of the international VAT table.
type CountryRate struct {
	CountryCode string          `json:"country_code"`
	Rate        decimal.Decimal `json:"rate"`
	TaxName     string          `json:"tax_name"`
}

// Service reads and writes the key-value settings store with a short TTL
// cache in front of the hot tax-calculation path.
type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	cache cache.Cache[string, string]
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

func NewService(p ServiceParam) *Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("settings.service"),
		genID: p.GenID,
		cache: cache.NewTTLCache[string, string](),
	}
}

// Get returns the raw value for key and whether it was present.
func (s *Service) Get(ctx context.Context, key string) (string, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false
	}
	if value, ok := s.cache.Get(key); ok {
		return value, true
	}

	var setting Setting
	err := s.db.WithContext(ctx).First(&setting, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false
	}
	if err != nil {
		s.log.Warn("settings lookup failed", zap.String("key", key), zap.Error(err))
		return "", false
	}
	s.cache.Set(key, setting.Value, cacheTTL)
	return setting.Value, true
}

// Set upserts a setting and invalidates its cache entry.
func (s *Service) Set(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrInvalidKey
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&Setting{
			ID:        s.genID.Generate(),
			Key:       key,
			Value:     value,
			UpdatedAt: time.Now().UTC(),
		}).Error
	if err != nil {
		return err
	}
	s.cache.Delete(key)
	return nil
}

// TaxEnabled reports whether tax calculation is switched on at all.
func (s *Service) TaxEnabled(ctx context.Context) bool {
	return s.boolSetting(ctx, KeyTaxEnabled, DefaultTaxEnabled)
}

// TaxMode returns "indonesia" or "international".
func (s *Service) TaxMode(ctx context.Context) string {
	value, ok := s.Get(ctx, KeyTaxMode)
	if !ok {
		return DefaultTaxMode
	}
	mode := strings.ToLower(strings.TrimSpace(value))
	if mode != TaxModeIndonesia && mode != TaxModeInternational {
		return DefaultTaxMode
	}
	return mode
}

// IsPKP reports whether the business is a registered VAT collector.
func (s *Service) IsPKP(ctx context.Context) bool {
	return s.boolSetting(ctx, KeyIsPKP, DefaultIsPKP)
}

// PPNRate returns the configured PPN percentage.
func (s *Service) PPNRate(ctx context.Context) decimal.Decimal {
	return s.decimalSetting(ctx, KeyPPNRate, DefaultPPNRate)
}

// PPhFinalRate returns the configured PPh Final percentage.
func (s *Service) PPhFinalRate(ctx context.Context) decimal.Decimal {
	return s.decimalSetting(ctx, KeyPPhFinalRate, DefaultPPhFinalRate)
}

// InternationalTaxRates parses the per-country VAT table. A missing or
// malformed value yields an empty table, never an error.
func (s *Service) InternationalTaxRates(ctx context.Context) []CountryRate {
	value, ok := s.Get(ctx, KeyInternationalTaxRates)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	var rates []CountryRate
	if err := json.Unmarshal([]byte(value), &rates); err != nil {
		s.log.Warn("invalid international tax rate table", zap.Error(err))
		return nil
	}
	return rates
}

func (s *Service) boolSetting(ctx context.Context, key string, fallback bool) bool {
	value, ok := s.Get(ctx, key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func (s *Service) decimalSetting(ctx context.Context, key string, fallback decimal.Decimal) decimal.Decimal {
	value, ok := s.Get(ctx, key)
	if !ok {
		return fallback
	}
	parsed, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil || parsed.IsNegative() {
		return fallback
	}
	return parsed
}

var Module = fx.Module("settings.service",
	fx.Provide(NewService),
)
