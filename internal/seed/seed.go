package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	coadomain "github.com/anzalajra/gearent/internal/coa/domain"
	"github.com/anzalajra/gearent/internal/settings"
)

//go:embed data/chart_of_accounts.json
var chartData []byte

type accountNode struct {
	Code     string        `json:"code"`
	Name     string        `json:"name"`
	Type     string        `json:"type"`
	Subtype  string        `json:"subtype"`
	Children []accountNode `json:"children"`
}

type mappingRow struct {
	Event       string `json:"event"`
	Role        string `json:"role"`
	AccountCode string `json:"account_code"`
}

type settingRow struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type chartFile struct {
	Accounts []accountNode `json:"accounts"`
	Mappings []mappingRow  `json:"mappings"`
	Settings []settingRow  `json:"settings"`
}

// EnsureChartOfAccounts seeds the account tree, the event mappings and the
// default tax settings. It is idempotent: existing codes, mappings and
// setting keys are left untouched.
func EnsureChartOfAccounts(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	var chart chartFile
	if err := json.Unmarshal(chartData, &chart); err != nil {
		return fmt.Errorf("parse chart of accounts data: %w", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, root := range chart.Accounts {
			if err := ensureAccountTx(ctx, tx, node, root, nil); err != nil {
				return err
			}
		}
		for _, mapping := range chart.Mappings {
			if err := ensureMappingTx(ctx, tx, node, mapping); err != nil {
				return err
			}
		}
		for _, setting := range chart.Settings {
			if err := ensureSettingTx(ctx, tx, node, setting); err != nil {
				return err
			}
		}
		return nil
	})
}

func ensureAccountTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, entry accountNode, parentID *snowflake.ID) error {
	var account coadomain.Account
	err := tx.WithContext(ctx).Where("code = ?", entry.Code).First(&account).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		now := time.Now().UTC()
		account = coadomain.Account{
			ID:           node.Generate(),
			Code:         entry.Code,
			Name:         entry.Name,
			Type:         coadomain.AccountType(entry.Type),
			Subtype:      entry.Subtype,
			IsSubAccount: parentID != nil,
			IsActive:     true,
			ParentID:     parentID,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.WithContext(ctx).Create(&account).Error; err != nil {
			return err
		}
	}

	for _, child := range entry.Children {
		if err := ensureAccountTx(ctx, tx, node, child, &account.ID); err != nil {
			return err
		}
	}
	return nil
}

func ensureMappingTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, row mappingRow) error {
	var account coadomain.Account
	err := tx.WithContext(ctx).Where("code = ?", row.AccountCode).First(&account).Error
	if err != nil {
		return fmt.Errorf("mapping %s/%s points at unknown account %s: %w",
			row.Event, row.Role, row.AccountCode, err)
	}

	var mapping coadomain.AccountMapping
	err = tx.WithContext(ctx).
		Where("event = ? AND role = ?", row.Event, row.Role).
		First(&mapping).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return tx.WithContext(ctx).Create(&coadomain.AccountMapping{
		ID:        node.Generate(),
		Event:     row.Event,
		Role:      coadomain.MappingRole(row.Role),
		AccountID: account.ID,
		CreatedAt: time.Now().UTC(),
	}).Error
}

func ensureSettingTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, row settingRow) error {
	var setting settings.Setting
	err := tx.WithContext(ctx).Where("key = ?", row.Key).First(&setting).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return tx.WithContext(ctx).Create(&settings.Setting{
		ID:        node.Generate(),
		Key:       row.Key,
		Value:     row.Value,
		UpdatedAt: time.Now().UTC(),
	}).Error
}
