package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"

	"github.com/anzalajra/gearent/internal/reference"
)

// JournalEntry is the immutable header of one double-entry posting.
type JournalEntry struct {
	ID              snowflake.ID `gorm:"primaryKey"`
	ReferenceNumber string       `gorm:"type:text;not null;uniqueIndex:ux_journal_entries_reference_number"`
	Date            time.Time    `gorm:"not null"`
	Description     string       `gorm:"type:text;not null;default:''"`
	ReferenceType   string       `gorm:"type:text;not null;uniqueIndex:ux_journal_entries_reference,priority:1"`
	ReferenceID     snowflake.ID `gorm:"not null;uniqueIndex:ux_journal_entries_reference,priority:2"`
	CreatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`

	Items []JournalEntryItem `gorm:"foreignKey:JournalEntryID"`
}

// TableName sets the database table name.
func (JournalEntry) TableName() string { return "journal_entries" }

// Ref returns the entry's source reference.
func (e JournalEntry) Ref() reference.Ref {
	kind, ok := reference.ParseKind(e.ReferenceType)
	if !ok {
		return reference.Ref{}
	}
	return reference.Ref{Kind: kind, ID: e.ReferenceID}
}

// JournalEntryItem is one debit or credit line of an entry.
type JournalEntryItem struct {
	ID             snowflake.ID    `gorm:"primaryKey"`
	JournalEntryID snowflake.ID    `gorm:"not null;index"`
	AccountID      snowflake.ID    `gorm:"not null;index"`
	Debit          decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0"`
	Credit         decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0"`
	CreatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (JournalEntryItem) TableName() string { return "journal_entry_items" }

// Line is the caller-facing shape of one posting line before persistence.
type Line struct {
	AccountID snowflake.ID
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

// Empty reports whether both sides of the line are zero. Empty lines are
// dropped before posting.
func (l Line) Empty() bool {
	return l.Debit.Sign() == 0 && l.Credit.Sign() == 0
}
