package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"

	"github.com/anzalajra/gearent/internal/reference"
)

// TransactionType classifies a simple-finance cash movement.
type TransactionType string

const (
	TransactionTypeIncome     TransactionType = "income"
	TransactionTypeExpense    TransactionType = "expense"
	TransactionTypeDepositIn  TransactionType = "deposit_in"
	TransactionTypeDepositOut TransactionType = "deposit_out"
)

// Inflow reports whether the type increases the owning cash account.
func (t TransactionType) Inflow() bool {
	return t == TransactionTypeIncome || t == TransactionTypeDepositIn
}

// Valid reports whether the type is one of the known enum values.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeIncome, TransactionTypeExpense, TransactionTypeDepositIn, TransactionTypeDepositOut:
		return true
	}
	return false
}

// FinanceAccount is a real-world cash or bank account. It must be linked to
// a ledger account before its transactions can be journaled.
type FinanceAccount struct {
	ID              snowflake.ID    `gorm:"primaryKey"`
	Name            string          `gorm:"type:text;not null"`
	Balance         decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0"`
	LinkedAccountID *snowflake.ID   `gorm:"index"`
	CreatedAt       time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (FinanceAccount) TableName() string { return "finance_accounts" }

// FinanceTransaction is one informal cash movement record.
type FinanceTransaction struct {
	ID               snowflake.ID    `gorm:"primaryKey"`
	FinanceAccountID snowflake.ID    `gorm:"not null;index"`
	Type             TransactionType `gorm:"type:text;not null"`
	Amount           decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0"`
	Date             time.Time       `gorm:"not null"`
	Category         string          `gorm:"type:text"`
	Description      string          `gorm:"type:text;not null;default:''"`
	PaymentMethod    string          `gorm:"type:text;not null;default:''"`
	ReferenceType    string          `gorm:"type:text;index:ix_finance_transactions_reference,priority:1"`
	ReferenceID      snowflake.ID    `gorm:"index:ix_finance_transactions_reference,priority:2"`
	UserID           *snowflake.ID   `gorm:"column:user_id"`
	CreatedAt        time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (FinanceTransaction) TableName() string { return "finance_transactions" }

// Ref returns the transaction's polymorphic reference, zero when unset.
func (t FinanceTransaction) Ref() reference.Ref {
	kind, ok := reference.ParseKind(t.ReferenceType)
	if !ok {
		return reference.Ref{}
	}
	return reference.Ref{Kind: kind, ID: t.ReferenceID}
}

// SelfRef identifies the transaction itself as a journal source.
func (t FinanceTransaction) SelfRef() reference.Ref {
	return reference.Ref{Kind: reference.KindFinanceTransaction, ID: t.ID}
}
