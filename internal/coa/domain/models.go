package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// AccountType classifies a ledger account.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// MappingRole marks which side of a posting an account mapping feeds.
type MappingRole string

const (
	MappingRoleDebit  MappingRole = "debit"
	MappingRoleCredit MappingRole = "credit"
)

// Well-known posting events seeded into account_mappings.
const (
	EventReceiveRentalPayment     = "RECEIVE_RENTAL_PAYMENT"
	EventSecurityDepositIn        = "SECURITY_DEPOSIT_IN"
	EventSecurityDepositOut       = "SECURITY_DEPOSIT_OUT"
	EventRentalInvoiceIssued      = "RENTAL_INVOICE_ISSUED"
	EventSecurityDepositDeduction = "SECURITY_DEPOSIT_DEDUCTION"
	EventRentalCompletion         = "RENTAL_COMPLETION"
	EventMonthlyDepreciation      = "MONTHLY_DEPRECIATION"
)

// Account is a node in the chart of accounts tree.
type Account struct {
	ID           snowflake.ID  `gorm:"primaryKey"`
	Code         string        `gorm:"type:text;not null;uniqueIndex:ux_accounts_code"`
	Name         string        `gorm:"type:text;not null"`
	Type         AccountType   `gorm:"type:text;not null"`
	Subtype      string        `gorm:"type:text;not null;default:''"`
	IsSubAccount bool          `gorm:"not null;default:false"`
	IsActive     bool          `gorm:"not null;default:true"`
	ParentID     *snowflake.ID `gorm:"index"`
	CreatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Account) TableName() string { return "accounts" }

// DebitNormal reports whether the account grows on the debit side.
func (a Account) DebitNormal() bool {
	return a.Type == AccountTypeAsset || a.Type == AccountTypeExpense
}

// AccountMapping binds a recurring posting event and role to one account.
type AccountMapping struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Event     string       `gorm:"type:text;not null;uniqueIndex:ux_account_mappings_event_role,priority:1"`
	Role      MappingRole  `gorm:"type:text;not null;uniqueIndex:ux_account_mappings_event_role,priority:2"`
	AccountID snowflake.ID `gorm:"not null;index"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (AccountMapping) TableName() string { return "account_mappings" }

// CategoryMapping remembers an operator's resolution of a free-text
// transaction category, so later syncs resolve it automatically.
type CategoryMapping struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Category  string       `gorm:"type:text;not null;uniqueIndex:ux_category_mappings_category"`
	AccountID snowflake.ID `gorm:"not null;index"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (CategoryMapping) TableName() string { return "category_mappings" }
